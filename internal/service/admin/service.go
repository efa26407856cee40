// Package admin implements the back-office managers on top of the backend
// admin API. Every call carries the caller's session credentials.
package admin

import (
	"context"
	"io"

	"github.com/sirupsen/logrus"

	"polykitchen/internal/backend"
	"polykitchen/internal/domain"
)

type backendAPI interface {
	AdminCategories(ctx context.Context, cred backend.Credentials) ([]domain.Category, error)
	CreateCategory(ctx context.Context, cred backend.Credentials, p backend.CategoryPayload) (*domain.Category, error)
	UpdateCategory(ctx context.Context, cred backend.Credentials, id int64, p backend.CategoryPayload) error
	SetCategoryOrder(ctx context.Context, cred backend.Credentials, id int64, order int) error
	DeleteCategory(ctx context.Context, cred backend.Credentials, id int64) error

	AdminDishes(ctx context.Context, cred backend.Credentials) ([]domain.Dish, error)
	CreateDish(ctx context.Context, cred backend.Credentials, p backend.DishPayload) (*domain.Dish, error)
	UpdateDish(ctx context.Context, cred backend.Credentials, id int64, p backend.DishPayload) error
	DeleteDish(ctx context.Context, cred backend.Credentials, id int64) error
	ToggleDishAvailability(ctx context.Context, cred backend.Credentials, id int64) error
	UploadImage(ctx context.Context, cred backend.Credentials, filename, contentType string, r io.Reader) (string, error)

	AdminReviews(ctx context.Context, cred backend.Credentials, status string) ([]domain.Review, error)
	ModerateReview(ctx context.Context, cred backend.Credentials, id int64, state domain.ModerationState, reason string) error
	DeleteReview(ctx context.Context, cred backend.Credentials, id int64) error

	AdminUsers(ctx context.Context, cred backend.Credentials) ([]domain.AdminUser, error)
	CreateUser(ctx context.Context, cred backend.Credentials, p backend.UserPayload) (*domain.AdminUser, error)
	DeleteUser(ctx context.Context, cred backend.Credentials, id int64) error
}

type Service struct {
	Categories *CategoryManager
	Dishes     *DishManager
	Reviews    *ReviewManager
	Users      *UserManager
	Dashboard  *Dashboard
}

// New wires the managers. baseURL is used to build image previews.
func New(api backendAPI, baseURL string, logger logrus.FieldLogger) *Service {
	v := newValidator()
	return &Service{
		Categories: &CategoryManager{api: api, validate: v, logger: logger},
		Dishes:     &DishManager{api: api, validate: v, baseURL: baseURL, logger: logger},
		Reviews:    &ReviewManager{api: api},
		Users:      &UserManager{api: api, validate: v},
		Dashboard:  &Dashboard{api: api},
	}
}

func requireConfirmation(confirmed bool) error {
	if !confirmed {
		return domain.ErrConfirmationRequired
	}
	return nil
}
