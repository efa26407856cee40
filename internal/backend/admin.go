package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"polykitchen/internal/domain"
)

// LoginResult is the backend answer to a successful admin login.
type LoginResult struct {
	Token string           `json:"token"`
	User  domain.AdminUser `json:"user"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges admin credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var out LoginResult
	if err := c.doJSON(ctx, http.MethodPost, "/api/admin/login", nil, loginRequest{Username: username, Password: password}, &out); err != nil {
		return nil, err
	}
	if out.Token == "" {
		return nil, &APIError{Status: http.StatusBadGateway, Message: "login response carried no token"}
	}
	return &out, nil
}

// Verify checks that the token is still accepted.
func (c *Client) Verify(ctx context.Context, cred Credentials) error {
	return c.getJSON(ctx, "/api/admin/verify", &cred, nil)
}

// CategoryPayload is the full category body sent on create and update.
type CategoryPayload struct {
	NameRU       string      `json:"name_ru"`
	NameEN       string      `json:"name_en"`
	NameKK       string      `json:"name_kk"`
	DisplayOrder int         `json:"display_order"`
	Page         domain.Page `json:"page"`
}

func (c *Client) AdminCategories(ctx context.Context, cred Credentials) ([]domain.Category, error) {
	var out []domain.Category
	if err := c.getJSON(ctx, "/api/admin/categories", &cred, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateCategory(ctx context.Context, cred Credentials, p CategoryPayload) (*domain.Category, error) {
	var out domain.Category
	if err := c.doJSON(ctx, http.MethodPost, "/api/admin/categories", &cred, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCategory(ctx context.Context, cred Credentials, id int64, p CategoryPayload) error {
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/admin/categories/%d", id), &cred, p, nil)
}

// SetCategoryOrder updates only the display order of a category.
func (c *Client) SetCategoryOrder(ctx context.Context, cred Credentials, id int64, order int) error {
	body := map[string]int{"display_order": order}
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/admin/categories/%d", id), &cred, body, nil)
}

func (c *Client) DeleteCategory(ctx context.Context, cred Credentials, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/categories/%d", id), &cred, nil, nil)
}

// DishPayload is the full dish body sent on create and update.
type DishPayload struct {
	Name            string  `json:"name"`
	NameRU          string  `json:"name_ru"`
	NameEN          string  `json:"name_en"`
	NameKK          string  `json:"name_kk"`
	CategoryID      int64   `json:"category_id"`
	DescriptionRU   string  `json:"description_ru"`
	DescriptionEN   string  `json:"description_en"`
	DescriptionKK   string  `json:"description_kk"`
	Price           float64 `json:"price"`
	ImageURL        string  `json:"image_url"`
	Weight          string  `json:"weight"`
	IngredientsText string  `json:"ingredients_text"`
	IsAvailable     bool    `json:"is_available"`
}

func (c *Client) AdminDishes(ctx context.Context, cred Credentials) ([]domain.Dish, error) {
	var out []domain.Dish
	if err := c.getJSON(ctx, "/api/admin/dishes", &cred, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateDish(ctx context.Context, cred Credentials, p DishPayload) (*domain.Dish, error) {
	var out domain.Dish
	if err := c.doJSON(ctx, http.MethodPost, "/api/admin/dishes", &cred, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateDish(ctx context.Context, cred Credentials, id int64, p DishPayload) error {
	return c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/admin/dishes/%d", id), &cred, p, nil)
}

func (c *Client) DeleteDish(ctx context.Context, cred Credentials, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/dishes/%d", id), &cred, nil, nil)
}

func (c *Client) ToggleDishAvailability(ctx context.Context, cred Credentials, id int64) error {
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/api/admin/dishes/%d/toggle-availability", id), &cred, struct{}{}, nil)
}

type uploadResult struct {
	ImageURL    string `json:"imageUrl"`
	ImageURLAlt string `json:"image_url"`
}

// UploadImage sends an image as the multipart field "image" and returns
// the stored path reported by the backend.
func (c *Client) UploadImage(ctx context.Context, cred Credentials, filename, contentType string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return "", fmt.Errorf("create image part: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("copy image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/admin/upload-image", &buf)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	cred.apply(req)

	var out uploadResult
	if err := c.send(req, &out); err != nil {
		return "", err
	}
	if out.ImageURL != "" {
		return out.ImageURL, nil
	}
	if out.ImageURLAlt != "" {
		return out.ImageURLAlt, nil
	}
	return "", &APIError{Status: http.StatusBadGateway, Message: "upload response carried no image url"}
}

// AdminReviews lists reviews, optionally narrowed by moderation status
// ("pending", "approved", "rejected").
func (c *Client) AdminReviews(ctx context.Context, cred Credentials, status string) ([]domain.Review, error) {
	path := "/api/admin/reviews"
	if status != "" {
		path += "?" + url.Values{"status": []string{status}}.Encode()
	}
	var out []domain.Review
	if err := c.getJSON(ctx, path, &cred, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type moderationRequest struct {
	IsApproved       domain.ModerationState `json:"is_approved"`
	ModerationReason string                 `json:"moderation_reason"`
}

// ModerateReview sets the approval flag of a review.
func (c *Client) ModerateReview(ctx context.Context, cred Credentials, id int64, state domain.ModerationState, reason string) error {
	body := moderationRequest{IsApproved: state, ModerationReason: reason}
	return c.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/api/admin/reviews/%d", id), &cred, body, nil)
}

func (c *Client) DeleteReview(ctx context.Context, cred Credentials, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/reviews/%d", id), &cred, nil, nil)
}

// UserPayload creates a back-office account.
type UserPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Client) AdminUsers(ctx context.Context, cred Credentials) ([]domain.AdminUser, error) {
	var out []domain.AdminUser
	if err := c.getJSON(ctx, "/api/admin/users", &cred, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateUser(ctx context.Context, cred Credentials, p UserPayload) (*domain.AdminUser, error) {
	var out domain.AdminUser
	if err := c.doJSON(ctx, http.MethodPost, "/api/admin/users", &cred, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteUser(ctx context.Context, cred Credentials, id int64) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", id), &cred, nil, nil)
}
