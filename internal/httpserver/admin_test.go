package httpserver

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"polykitchen/internal/domain"
	"polykitchen/internal/session"
)

func doRequest(router *gin.Engine, method, path, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatalf("no session cookie in response: %v", rec.Header())
	return nil
}

func loginAs(t *testing.T, router *gin.Engine) *http.Cookie {
	t.Helper()
	rec := doRequest(router, http.MethodPost, "/admin/login", `{"username":"admin","password":"secret"}`, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	c := sessionCookie(t, rec)
	if !c.HttpOnly || c.Value == "" {
		t.Fatalf("unexpected cookie %+v", c)
	}
	return c
}

func TestLogin_InvalidCredentials(t *testing.T) {
	deps, _ := testDeps(t)
	router := newRouter(t, deps)

	rec := doRequest(router, http.MethodPost, "/admin/login", `{"username":"admin","password":"bad"}`, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error != "Неверное имя пользователя или пароль" {
		t.Fatalf("expected backend message, got %+v", env)
	}

	rec = doRequest(router, http.MethodPost, "/admin/login", `{"username":" ","password":""}`, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLogin_BackendFailureIsNotUnauthorized(t *testing.T) {
	deps, fake := testDeps(t)
	router := newRouter(t, deps)
	fake.Fail("POST /api/admin/login", http.StatusInternalServerError)

	rec := doRequest(router, http.MethodPost, "/admin/login", `{"username":"admin","password":"secret"}`, nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Error != "forced failure" {
		t.Fatalf("expected backend message, got %+v", env)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			t.Fatalf("no session cookie expected, got %+v", c)
		}
	}
}

func TestAdminRoutesRequireSession(t *testing.T) {
	deps, _ := testDeps(t)
	router := newRouter(t, deps)

	rec := doRequest(router, http.MethodGet, "/admin/categories", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Redirect != "/admin/login" {
		t.Fatalf("expected login redirect, got %+v", env)
	}

	forged := &http.Cookie{Name: session.CookieName, Value: "not-a-jwt"}
	rec = doRequest(router, http.MethodGet, "/admin/session", "", forged)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged cookie, got %d", rec.Code)
	}
}

func TestLoginSessionLogout(t *testing.T) {
	deps, _ := testDeps(t)
	router := newRouter(t, deps)
	cookie := loginAs(t, router)

	rec := doRequest(router, http.MethodGet, "/admin/session", "", cookie)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"username":"admin"`) {
		t.Fatalf("unexpected session response %d %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(router, http.MethodPost, "/admin/logout", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if c := sessionCookie(t, rec); c.MaxAge >= 0 {
		t.Fatalf("expected cleared cookie, got %+v", c)
	}

	rec = doRequest(router, http.MethodGet, "/admin/session", "", cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 after logout, got %d", rec.Code)
	}
}

func TestDashboard_ExpiredTokenRedirects(t *testing.T) {
	deps, fake := testDeps(t)
	router := newRouter(t, deps)
	cookie := loginAs(t, router)
	fake.AddDish(domain.Dish{NameRU: "Борщ"})

	rec := doRequest(router, http.MethodGet, "/admin/dashboard", "", cookie)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"dishes":1`) {
		t.Fatalf("unexpected dashboard %d %s", rec.Code, rec.Body.String())
	}

	fake.RevokeTokens()
	rec = doRequest(router, http.MethodGet, "/admin/dashboard", "", cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if env := decodeEnvelope(t, rec); env.Redirect != "/admin/login" {
		t.Fatalf("expected redirect, got %+v", env)
	}

	rec = doRequest(router, http.MethodGet, "/admin/categories", "", cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected session to be gone, got %d", rec.Code)
	}
}

func TestAdminCallRefusedTokenInvalidatesSession(t *testing.T) {
	deps, fake := testDeps(t)
	router := newRouter(t, deps)
	cookie := loginAs(t, router)

	fake.RevokeTokens()
	rec := doRequest(router, http.MethodGet, "/admin/users", "", cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	rec = doRequest(router, http.MethodGet, "/admin/session", "", cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected session invalidated, got %d", rec.Code)
	}
}

func TestCategoryCRUDOverHTTP(t *testing.T) {
	deps, _ := testDeps(t)
	router := newRouter(t, deps)
	cookie := loginAs(t, router)

	rec := doRequest(router, http.MethodPost, "/admin/categories", `{"name_ru":"Супы","page":"kitchen"}`, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var cat domain.Category
	if err := json.Unmarshal(decodeEnvelope(t, rec).Data, &cat); err != nil {
		t.Fatalf("decode category: %v", err)
	}

	rec = doRequest(router, http.MethodGet, "/admin/categories", "", cookie)
	if !strings.Contains(rec.Body.String(), `"name_ru":"Супы"`) || !strings.Contains(rec.Body.String(), `"next_display_order":20`) {
		t.Fatalf("unexpected list %s", rec.Body.String())
	}

	rec = doRequest(router, http.MethodPost, "/admin/categories", `{"name_ru":""}`, cookie)
	if rec.Code != http.StatusBadRequest || decodeEnvelope(t, rec).Fields["name_ru"] == "" {
		t.Fatalf("expected field error, got %d %s", rec.Code, rec.Body.String())
	}

	path := fmt.Sprintf("/admin/categories/%d", cat.ID)
	rec = doRequest(router, http.MethodDelete, path, "", cookie)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 without confirmation, got %d", rec.Code)
	}
	rec = doRequest(router, http.MethodDelete, path+"?confirm=true", "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doRequest(router, http.MethodGet, "/admin/categories", "", cookie)
	if strings.Contains(rec.Body.String(), "Супы") {
		t.Fatalf("expected category removed, got %s", rec.Body.String())
	}
}

func TestCategoryMoveOverHTTP(t *testing.T) {
	deps, fake := testDeps(t)
	router := newRouter(t, deps)
	cookie := loginAs(t, router)
	fake.AddCategory(domain.Category{NameRU: "A", DisplayOrder: 10})
	b := fake.AddCategory(domain.Category{NameRU: "B", DisplayOrder: 20})

	rec := doRequest(router, http.MethodPost, fmt.Sprintf("/admin/categories/%d/move", b.ID), `{"direction":"up"}`, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if got, _ := fake.Category(b.ID); got.DisplayOrder != 10 {
		t.Fatalf("expected B moved up, got %+v", got)
	}

	rec = doRequest(router, http.MethodPost, fmt.Sprintf("/admin/categories/%d/move?direction=up", b.ID), "", cookie)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 at the edge, got %d", rec.Code)
	}
}

func TestCreateDishMultipart(t *testing.T) {
	deps, fake := testDeps(t)
	router := newRouter(t, deps)
	cookie := loginAs(t, router)
	cat := fake.AddCategory(domain.Category{NameRU: "Супы"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("name_ru", "Борщ")
	_ = mw.WriteField("category_id", fmt.Sprint(cat.ID))
	_ = mw.WriteField("price", "1890,50")
	_ = mw.WriteField("is_available", "on")
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="borsch.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write([]byte("png-bytes"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/admin/dishes", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	uploads := fake.Uploads()
	if len(uploads) != 1 || !strings.Contains(rec.Body.String(), uploads[0]) {
		t.Fatalf("expected uploaded path in dish, uploads=%v body=%s", uploads, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"price":1890.5`) {
		t.Fatalf("unexpected price in %s", rec.Body.String())
	}

	rec = doRequest(router, http.MethodGet, "/admin/dishes?search="+url.QueryEscape("борщ"), "", cookie)
	if !strings.Contains(rec.Body.String(), `"category_name":"Супы"`) {
		t.Fatalf("unexpected dish list %s", rec.Body.String())
	}
}

func TestCreateDishValidation(t *testing.T) {
	deps, fake := testDeps(t)
	router := newRouter(t, deps)
	cookie := loginAs(t, router)

	rec := doRequest(router, http.MethodPost, "/admin/dishes", `{"name_ru":"Борщ","price":0}`, cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec)
	if env.Fields["price"] == "" || env.Fields["category_id"] == "" {
		t.Fatalf("expected price and category errors, got %+v", env.Fields)
	}
	if fake.Calls("POST /api/admin/dishes") != 0 {
		t.Fatalf("expected no backend call")
	}
}

func TestReviewModerationOverHTTP(t *testing.T) {
	deps, fake := testDeps(t)
	router := newRouter(t, deps)
	cookie := loginAs(t, router)
	r := fake.AddReview(domain.Review{DishID: 1, UserName: "a", Rating: 5, ReviewText: "ok"})

	rec := doRequest(router, http.MethodPost, fmt.Sprintf("/admin/reviews/%d/approve", r.ID), "", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	if got, _ := fake.Review(r.ID); got.IsApproved != domain.ModerationApproved {
		t.Fatalf("expected approved, got %+v", got)
	}

	rec = doRequest(router, http.MethodGet, "/admin/reviews?status=approved", "", cookie)
	if !strings.Contains(rec.Body.String(), `"user_name":"a"`) {
		t.Fatalf("unexpected reviews %s", rec.Body.String())
	}

	rec = doRequest(router, http.MethodDelete, fmt.Sprintf("/admin/reviews/%d?confirm=true", r.ID), "", cookie)
	if rec.Code != http.StatusOK || len(fake.Reviews()) != 0 {
		t.Fatalf("expected review deleted, got %d", rec.Code)
	}
}

func TestUsersOverHTTP(t *testing.T) {
	deps, _ := testDeps(t)
	router := newRouter(t, deps)
	cookie := loginAs(t, router)

	rec := doRequest(router, http.MethodPost, "/admin/users", `{"username":"cook","password":"123456"}`, cookie)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doRequest(router, http.MethodDelete, "/admin/users/1?confirm=true", "", cookie)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 deleting own account, got %d", rec.Code)
	}
}
