package backend_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"polykitchen/internal/backend"
	"polykitchen/internal/backend/backendtest"
	"polykitchen/internal/domain"
)

func TestAPIErrorMessage(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"string error", `{"error":"Неверный пароль"}`, "Неверный пароль"},
		{"object error", `{"error":{"message":"nested"}}`, "nested"},
		{"message field", `{"message":"plain"}`, "plain"},
		{"not json", `<html>oops</html>`, "Bad Request"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			_, err := backend.New(srv.URL, nil, nil).Categories(context.Background())
			require.Error(t, err)

			var apiErr *backend.APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, http.StatusBadRequest, apiErr.Status)
			assert.Equal(t, tc.want, backend.Message(err, "fallback"))
		})
	}
}

func TestMessageFallsBackOnTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := backend.New(url, nil, nil).Dishes(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Ошибка соединения", backend.Message(err, "Ошибка соединения"))
	assert.False(t, backend.IsUnauthorized(err))
}

func TestLoginAndAdminCallsCarryBearer(t *testing.T) {
	fake := backendtest.New()
	defer fake.Close()
	c := backend.New(fake.URL+"/", nil, nil)

	_, err := c.Login(context.Background(), "admin", "wrong")
	require.Error(t, err)
	assert.True(t, backend.IsUnauthorized(err))
	assert.Equal(t, "Неверное имя пользователя или пароль", backend.Message(err, ""))

	res, err := c.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "admin", res.User.Username)

	cred := backend.Credentials{Token: res.Token}
	require.NoError(t, c.Verify(context.Background(), cred))

	err = c.Verify(context.Background(), backend.Credentials{})
	assert.True(t, backend.IsUnauthorized(err))
}

func TestCategoryOrderUpdateKeepsOtherFields(t *testing.T) {
	fake := backendtest.New()
	defer fake.Close()
	cat := fake.AddCategory(domain.Category{NameRU: "Супы", DisplayOrder: 10, Page: domain.PageKitchen})

	c := backend.New(fake.URL, nil, nil)
	res, err := c.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)

	require.NoError(t, c.SetCategoryOrder(context.Background(), backend.Credentials{Token: res.Token}, cat.ID, 30))

	got, ok := fake.Category(cat.ID)
	require.True(t, ok)
	assert.Equal(t, 30, got.DisplayOrder)
	assert.Equal(t, "Супы", got.NameRU)
}

func TestUploadImage(t *testing.T) {
	fake := backendtest.New()
	defer fake.Close()
	c := backend.New(fake.URL, nil, nil)
	res, err := c.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)

	path, err := c.UploadImage(context.Background(), backend.Credentials{Token: res.Token}, "soup.png", "image/png", strings.NewReader("png"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, "/uploads/"))
	assert.True(t, strings.HasSuffix(path, "soup.png"))
	assert.Equal(t, []string{path}, fake.Uploads())
}

func TestUploadImageAcceptsSnakeCaseField(t *testing.T) {
	var field string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hdr, err := r.FormFile("image")
		if err == nil {
			field = hdr.Filename
		}
		_, _ = io.WriteString(w, `{"image_url":"/uploads/x.jpg"}`)
	}))
	defer srv.Close()

	path, err := backend.New(srv.URL, nil, nil).UploadImage(context.Background(), backend.Credentials{Token: "t"}, "x.jpg", "", strings.NewReader("jpg"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/x.jpg", path)
	assert.Equal(t, "x.jpg", field)
}

func TestReviewModerationRoundTrip(t *testing.T) {
	fake := backendtest.New()
	defer fake.Close()
	rv := fake.AddReview(domain.Review{DishID: 1, UserName: "Айгуль", Rating: 5, ReviewText: "Вкусно"})

	c := backend.New(fake.URL, nil, nil)
	res, err := c.Login(context.Background(), "admin", "secret")
	require.NoError(t, err)
	cred := backend.Credentials{Token: res.Token}

	pending, err := c.AdminReviews(context.Background(), cred, "pending")
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, c.ModerateReview(context.Background(), cred, rv.ID, domain.ModerationApproved, "Одобрено администратором"))

	public, err := c.DishReviews(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Одобрено администратором", public[0].ModerationReason)
}

func TestChatReply(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"output", `{"output":"Привет"}`, "Привет"},
		{"message", `{"message":"Здравствуйте"}`, "Здравствуйте"},
		{"raw", `{"data":1}`, `{"data":1}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/ai-chat", r.URL.Path)
				_, _ = io.WriteString(w, tc.body)
			}))
			defer srv.Close()

			got, err := backend.New(srv.URL, nil, nil).Chat(context.Background(), "hi", "guest")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
