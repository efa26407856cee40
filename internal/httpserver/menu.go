package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"polykitchen/internal/backend"
	"polykitchen/internal/domain"
	"polykitchen/internal/endpoint"
	"polykitchen/internal/service/chat"
	"polykitchen/internal/service/menu"
	"polykitchen/internal/service/review"
)

const (
	langCookie    = "lang"
	langCookieAge = 365 * 24 * 60 * 60
)

// language picks the active locale from ?lang=, then the lang cookie. An
// explicit query value is remembered.
func (h *handlers) language(c *gin.Context) domain.Language {
	if q := strings.TrimSpace(c.Query("lang")); q != "" {
		lang := domain.ParseLanguage(q)
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(langCookie, string(lang), langCookieAge, "/", "", h.deps.SecureCookies, false)
		return lang
	}
	if v, err := c.Cookie(langCookie); err == nil && v != "" {
		return domain.ParseLanguage(v)
	}
	return domain.LangRU
}

func (h *handlers) roleSelection(c *gin.Context) {
	ok(c, gin.H{
		"lang":  h.language(c),
		"roles": menu.RoleSelection(),
	})
}

func (h *handlers) languages(c *gin.Context) {
	ok(c, menu.Languages(h.language(c)))
}

func (h *handlers) kitchenMenu(c *gin.Context) {
	categoryID, err := optionalID(c.Query("category"))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid category")
		return
	}
	view, err := h.deps.Menu.KitchenPage(c.Request.Context(), menu.MenuQuery{
		Lang:       h.language(c),
		CategoryID: categoryID,
		Search:     c.Query("search"),
	})
	if err != nil {
		h.logger.WithError(err).Error("kitchen menu")
		fail(c, http.StatusBadGateway, "Не удалось загрузить меню")
		return
	}
	ok(c, view)
}

func (h *handlers) barMenu(c *gin.Context) {
	categoryID, err := optionalID(c.Query("category"))
	if err != nil {
		fail(c, http.StatusBadRequest, "invalid category")
		return
	}
	slide := 0
	if v := c.Query("slide"); v != "" {
		if slide, err = strconv.Atoi(v); err != nil {
			fail(c, http.StatusBadRequest, "invalid slide")
			return
		}
	}
	view, err := h.deps.Menu.BarPage(c.Request.Context(), menu.BarQuery{
		Lang:       h.language(c),
		CategoryID: categoryID,
		Slide:      slide,
	})
	if err != nil {
		h.logger.WithError(err).Error("bar menu")
		fail(c, http.StatusBadGateway, "Не удалось загрузить меню")
		return
	}
	ok(c, view)
}

func (h *handlers) dishDetail(c *gin.Context) {
	id, good := pathID(c)
	if !good {
		return
	}
	view, err := h.deps.Menu.DishDetail(c.Request.Context(), h.language(c), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			fail(c, http.StatusNotFound, "Блюдо не найдено")
			return
		}
		h.logger.WithError(err).WithField("dish_id", id).Error("dish detail")
		fail(c, http.StatusBadGateway, "Не удалось загрузить блюдо")
		return
	}
	ok(c, view)
}

func (h *handlers) dishReviews(c *gin.Context) {
	id, good := pathID(c)
	if !good {
		return
	}
	reviews, err := h.deps.Reviews.ForDish(c.Request.Context(), id)
	if err != nil {
		h.logger.WithError(err).WithField("dish_id", id).Warn("load dish reviews")
	}
	ok(c, menu.Visible(reviews))
}

type reviewRequest struct {
	UserName   string `json:"user_name"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
}

func (h *handlers) submitReview(c *gin.Context) {
	id, good := pathID(c)
	if !good {
		return
	}
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	state, err := h.deps.Reviews.Submit(c.Request.Context(), review.Input{
		DishID:     id,
		UserName:   req.UserName,
		Rating:     req.Rating,
		ReviewText: req.ReviewText,
	})
	if err != nil {
		var fe *review.FormError
		if errors.As(err, &fe) {
			failFields(c, "Заполните все поля", fe.Fields)
			return
		}
		h.logger.WithError(err).WithField("dish_id", id).Warn("submit review")
		fail(c, http.StatusBadGateway, backend.Message(err, "Ошибка при отправке отзыва"))
		return
	}
	created(c, gin.H{
		"status":  state.String(),
		"message": "Спасибо! Ваш отзыв отправлен на модерацию.",
	})
}

type chatRequest struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

func (h *handlers) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid json")
		return
	}
	reply, err := h.deps.Chat.Ask(c.Request.Context(), req.Message, req.UserID)
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			fail(c, http.StatusBadRequest, "Введите сообщение")
			return
		}
		fail(c, http.StatusInternalServerError, err.Error())
		return
	}
	ok(c, reply)
}

// endpoint reports the injected backend base URL. With refresh=true it
// also resolves one for the caller's own request context.
func (h *handlers) endpoint(c *gin.Context) {
	out := gin.H{"base_url": h.deps.BaseURL}
	if c.Query("refresh") == "true" && h.deps.Resolver != nil {
		out["resolved"] = h.deps.Resolver.Resolve(c.Request.Context(), endpoint.PageContextFromRequest(c.Request))
	}
	ok(c, out)
}

func optionalID(v string) (int64, error) {
	v = strings.TrimSpace(v)
	if v == "" || v == "all" {
		return 0, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id < 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		fail(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}
