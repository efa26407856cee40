package httpserver

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"polykitchen/internal/backend"
	"polykitchen/internal/domain"
	"polykitchen/internal/service/admin"
	"polykitchen/internal/session"
)

const sessionKey = "admin_session"

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *handlers) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		fail(c, http.StatusBadRequest, "Введите имя пользователя и пароль")
		return
	}

	s, err := h.deps.Sessions.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		var apiErr *backend.APIError
		isAPI := errors.As(err, &apiErr)
		switch {
		case backend.IsUnauthorized(err), isAPI && apiErr.Status == http.StatusBadRequest:
			fail(c, http.StatusUnauthorized, backend.Message(err, "Ошибка входа"))
		case isAPI:
			h.logger.WithError(err).Warn("admin login rejected by backend")
			fail(c, http.StatusBadGateway, backend.Message(err, "Ошибка входа"))
		default:
			h.logger.WithError(err).Warn("admin login")
			fail(c, http.StatusBadGateway, "Ошибка соединения с сервером")
		}
		return
	}

	value, err := h.deps.Signer.Sign(s.ID, s.ExpiresAt)
	if err != nil {
		h.logger.WithError(err).Error("sign session cookie")
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}
	h.setSessionCookie(c, value, s.ExpiresAt)
	ok(c, gin.H{
		"user":       s.User,
		"expires_at": s.ExpiresAt,
		"redirect":   "/admin/dashboard",
	})
}

func (h *handlers) logout(c *gin.Context) {
	if value, err := c.Cookie(session.CookieName); err == nil {
		if id, err := h.deps.Signer.Parse(value); err == nil {
			if err := h.deps.Sessions.Logout(c.Request.Context(), id); err != nil {
				h.logger.WithError(err).Warn("admin logout")
			}
		}
	}
	h.clearSessionCookie(c)
	ok(c, gin.H{"redirect": loginPath})
}

// requireSession resolves the signed cookie to a live session. Anything
// else clears the cookie and sends the caller back to the login screen.
func (h *handlers) requireSession(c *gin.Context) {
	value, _ := c.Cookie(session.CookieName)
	id, err := h.deps.Signer.Parse(value)
	if err == nil {
		var s *session.Session
		s, err = h.deps.Sessions.Resolve(c.Request.Context(), id)
		if err == nil {
			c.Set(sessionKey, s)
			c.Next()
			return
		}
	}

	h.clearSessionCookie(c)
	switch {
	case errors.Is(err, session.ErrExpired):
		unauthorized(c, "Сессия истекла, войдите снова")
	case errors.Is(err, session.ErrNotAuthenticated):
		unauthorized(c, "Требуется авторизация")
	default:
		h.logger.WithError(err).Error("resolve admin session")
		fail(c, http.StatusInternalServerError, "internal error")
	}
}

func currentSession(c *gin.Context) *session.Session {
	v, _ := c.Get(sessionKey)
	s, _ := v.(*session.Session)
	return s
}

func (h *handlers) setSessionCookie(c *gin.Context, value string, expires time.Time) {
	maxAge := int(time.Until(expires).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, value, maxAge, "/", "", h.deps.SecureCookies, true)
}

func (h *handlers) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(session.CookieName, "", -1, "/", "", h.deps.SecureCookies, true)
}

// adminError renders a manager failure. A refused token ends the session.
func (h *handlers) adminError(c *gin.Context, err error, fallback string) {
	var fe *admin.FormError
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &fe):
		failFields(c, "Проверьте заполнение формы", fe.Fields)
	case errors.Is(err, domain.ErrConfirmationRequired):
		fail(c, http.StatusConflict, "Подтвердите удаление: добавьте confirm=true")
	case errors.Is(err, domain.ErrNotFound), backend.IsNotFound(err):
		fail(c, http.StatusNotFound, backend.Message(err, "Не найдено"))
	case errors.Is(err, admin.ErrCannotMove):
		fail(c, http.StatusConflict, "Категория уже на краю списка")
	case errors.Is(err, admin.ErrDeleteSelf):
		fail(c, http.StatusBadRequest, "Нельзя удалить собственную учетную запись")
	case backend.IsUnauthorized(err):
		if s := currentSession(c); s != nil {
			h.deps.Sessions.Invalidate(c.Request.Context(), s)
		}
		h.clearSessionCookie(c)
		unauthorized(c, "Сессия истекла, войдите снова")
	case errors.As(err, &apiErr) && apiErr.Status < 500:
		fail(c, apiErr.Status, backend.Message(err, fallback))
	default:
		h.logger.WithError(err).WithField("path", c.Request.URL.Path).Error("admin request failed")
		fail(c, http.StatusBadGateway, backend.Message(err, fallback))
	}
}

func confirmed(c *gin.Context) bool {
	v, _ := strconv.ParseBool(c.Query("confirm"))
	return v
}

func (h *handlers) sessionInfo(c *gin.Context) {
	s := currentSession(c)
	ok(c, gin.H{"user": s.User, "expires_at": s.ExpiresAt})
}

func (h *handlers) dashboard(c *gin.Context) {
	s := currentSession(c)
	if err := h.deps.Sessions.Verify(c.Request.Context(), s); err != nil {
		h.clearSessionCookie(c)
		unauthorized(c, "Сессия истекла, войдите снова")
		return
	}
	stats, err := h.deps.Admin.Dashboard.Stats(c.Request.Context(), s.Credentials())
	if err != nil {
		h.adminError(c, err, "Ошибка загрузки статистики")
		return
	}
	ok(c, gin.H{"user": s.User, "stats": stats})
}

func (h *handlers) listCategories(c *gin.Context) {
	list, err := h.deps.Admin.Categories.List(c.Request.Context(), currentSession(c).Credentials())
	if err != nil {
		h.adminError(c, err, "Ошибка загрузки категорий")
		return
	}
	ok(c, gin.H{"categories": list, "next_display_order": admin.NextDisplayOrder(list)})
}

func (h *handlers) createCategory(c *gin.Context) {
	h.saveCategory(c, 0)
}

func (h *handlers) updateCategory(c *gin.Context) {
	id, good := pathID(c)
	if !good {
		return
	}
	h.saveCategory(c, id)
}

func (h *handlers) saveCategory(c *gin.Context, id int64) {
	var form admin.CategoryForm
	if err := c.ShouldBindJSON(&form); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	cat, err := h.deps.Admin.Categories.Save(c.Request.Context(), currentSession(c).Credentials(), id, form)
	if err != nil {
		h.adminError(c, err, "Ошибка при сохранении категории")
		return
	}
	if id == 0 {
		created(c, cat)
		return
	}
	ok(c, cat)
}

func (h *handlers) deleteCategory(c *gin.Context) {
	id, good := pathID(c)
	if !good {
		return
	}
	if err := h.deps.Admin.Categories.Delete(c.Request.Context(), currentSession(c).Credentials(), id, confirmed(c)); err != nil {
		h.adminError(c, err, "Ошибка при удалении категории")
		return
	}
	ok(c, gin.H{"deleted": id})
}

type moveRequest struct {
	Direction string `json:"direction"`
}

func (h *handlers) moveCategory(c *gin.Context) {
	id, good := pathID(c)
	if !good {
		return
	}
	dir := c.Query("direction")
	if dir == "" {
		var req moveRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, "invalid json")
			return
		}
		dir = req.Direction
	}
	cred := currentSession(c).Credentials()
	if err := h.deps.Admin.Categories.Move(c.Request.Context(), cred, id, admin.Direction(strings.ToLower(dir))); err != nil {
		h.adminError(c, err, "Ошибка при изменении порядка")
		return
	}
	list, err := h.deps.Admin.Categories.List(c.Request.Context(), cred)
	if err != nil {
		h.adminError(c, err, "Ошибка загрузки категорий")
		return
	}
	ok(c, gin.H{"categories": list})
}

func (h *handlers) listDishes(c *gin.Context) {
	categoryID, err := optionalID(c.Query("category_id"))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid category_id")
		return
	}
	rows, err := h.deps.Admin.Dishes.List(c.Request.Context(), currentSession(c).Credentials(), admin.DishFilter{
		Search:     c.Query("search"),
		CategoryID: categoryID,
	})
	if err != nil {
		h.adminError(c, err, "Ошибка загрузки блюд")
		return
	}
	ok(c, rows)
}

func (h *handlers) createDish(c *gin.Context) {
	h.saveDish(c, 0)
}

func (h *handlers) updateDish(c *gin.Context) {
	id, good := pathID(c)
	if !good {
		return
	}
	h.saveDish(c, id)
}

func (h *handlers) saveDish(c *gin.Context, id int64) {
	form, upload, err := bindDish(c)
	if err != nil {
		var fe *admin.FormError
		if errors.As(err, &fe) {
			failFields(c, "Проверьте заполнение формы", fe.Fields)
			return
		}
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if upload != nil {
		if closer, isCloser := upload.Body.(multipart.File); isCloser {
			defer closer.Close()
		}
	}
	dish, err := h.deps.Admin.Dishes.Save(c.Request.Context(), currentSession(c).Credentials(), id, form, upload)
	if err != nil {
		h.adminError(c, err, "Ошибка при сохранении блюда")
		return
	}
	if id == 0 {
		created(c, dish)
		return
	}
	ok(c, dish)
}

// bindDish accepts either a JSON body or a multipart form with an optional
// "image" file part.
func bindDish(c *gin.Context) (admin.DishForm, *admin.ImageUpload, error) {
	var form admin.DishForm
	if !strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		if err := c.ShouldBindJSON(&form); err != nil {
			return form, nil, errors.New("invalid json")
		}
		return form, nil, nil
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, admin.MaxImageSize+(1<<20))
	form.NameRU = c.PostForm("name_ru")
	form.NameEN = c.PostForm("name_en")
	form.NameKK = c.PostForm("name_kk")
	form.DescriptionRU = c.PostForm("description_ru")
	form.DescriptionEN = c.PostForm("description_en")
	form.DescriptionKK = c.PostForm("description_kk")
	form.Weight = c.PostForm("weight")
	form.ImageURL = c.PostForm("image_url")
	form.IngredientsText = c.PostForm("ingredients_text")

	bad := map[string]string{}
	if v := strings.TrimSpace(c.PostForm("category_id")); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			bad["category_id"] = "Выберите категорию"
		}
		form.CategoryID = id
	}
	if v := strings.TrimSpace(c.PostForm("price")); v != "" {
		price, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
		if err != nil {
			bad["price"] = "Укажите корректную цену"
		}
		form.Price = price
	}
	if v, present := c.GetPostForm("is_available"); present {
		avail := v == "on" || v == "1" || strings.EqualFold(v, "true")
		form.IsAvailable = &avail
	}
	if len(bad) > 0 {
		return form, nil, &admin.FormError{Fields: bad}
	}

	hdr, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return form, nil, nil
	}
	if err != nil {
		return form, nil, &admin.FormError{Fields: map[string]string{"image": "Не удалось прочитать файл (максимум 5MB)"}}
	}
	f, err := hdr.Open()
	if err != nil {
		return form, nil, fmt.Errorf("open upload: %w", err)
	}
	return form, &admin.ImageUpload{
		Filename:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Size:        hdr.Size,
		Body:        f,
	}, nil
}

func (h *handlers) deleteDish(c *gin.Context) {
	id, good := pathID(c)
	if !good {
		return
	}
	if err := h.deps.Admin.Dishes.Delete(c.Request.Context(), currentSession(c).Credentials(), id, confirmed(c)); err != nil {
		h.adminError(c, err, "Ошибка при удалении блюда")
		return
	}
	ok(c, gin.H{"deleted": id})
}

func (h *handlers) toggleDish(c *gin.Context) {
	id, good := pathID(c)
	if !good {
		return
	}
	if err := h.deps.Admin.Dishes.ToggleAvailability(c.Request.Context(), currentSession(c).Credentials(), id); err != nil {
		h.adminError(c, err, "Ошибка при изменении доступности")
		return
	}
	ok(c, gin.H{"toggled": id})
}

func (h *handlers) listReviews(c *gin.Context) {
	list, err := h.deps.Admin.Reviews.List(c.Request.Context(), currentSession(c).Credentials(), c.Query("status"))
	if err != nil {
		h.adminError(c, err, "Ошибка загрузки отзывов")
		return
	}
	ok(c, list)
}

func (h *handlers) approveReview(c *gin.Context) {
	id, good := pathID(c)
	if !good {
		return
	}
	if err := h.deps.Admin.Reviews.Approve(c.Request.Context(), currentSession(c).Credentials(), id); err != nil {
		h.adminError(c, err, "Ошибка при одобрении отзыва")
		return
	}
	ok(c, gin.H{"id": id, "status": domain.ModerationApproved.String()})
}

func (h *handlers) rejectReview(c *gin.Context) {
	id, good := pathID(c)
	if !good {
		return
	}
	if err := h.deps.Admin.Reviews.Reject(c.Request.Context(), currentSession(c).Credentials(), id); err != nil {
		h.adminError(c, err, "Ошибка при отклонении отзыва")
		return
	}
	ok(c, gin.H{"id": id, "status": domain.ModerationRejected.String()})
}

func (h *handlers) deleteReview(c *gin.Context) {
	id, good := pathID(c)
	if !good {
		return
	}
	if err := h.deps.Admin.Reviews.Delete(c.Request.Context(), currentSession(c).Credentials(), id, confirmed(c)); err != nil {
		h.adminError(c, err, "Ошибка при удалении отзыва")
		return
	}
	ok(c, gin.H{"deleted": id})
}

func (h *handlers) listUsers(c *gin.Context) {
	users, err := h.deps.Admin.Users.List(c.Request.Context(), currentSession(c).Credentials())
	if err != nil {
		h.adminError(c, err, "Ошибка загрузки пользователей")
		return
	}
	ok(c, users)
}

func (h *handlers) createUser(c *gin.Context) {
	var form admin.UserForm
	if err := c.ShouldBindJSON(&form); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	u, err := h.deps.Admin.Users.Create(c.Request.Context(), currentSession(c).Credentials(), form)
	if err != nil {
		h.adminError(c, err, "Ошибка при создании пользователя")
		return
	}
	created(c, u)
}

func (h *handlers) deleteUser(c *gin.Context) {
	id, good := pathID(c)
	if !good {
		return
	}
	s := currentSession(c)
	if err := h.deps.Admin.Users.Delete(c.Request.Context(), s.Credentials(), id, s.User.ID, confirmed(c)); err != nil {
		h.adminError(c, err, "Ошибка при удалении пользователя")
		return
	}
	ok(c, gin.H{"deleted": id})
}
