package admin

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"polykitchen/internal/backend"
	"polykitchen/internal/domain"
)

var ErrDeleteSelf = errors.New("cannot delete the signed-in account")

// UserForm creates a back-office account.
type UserForm struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,min=6"`
}

var userMessages = map[string]string{
	"username": "Имя пользователя должно содержать от 3 до 50 символов",
	"password": "Пароль должен содержать минимум 6 символов",
}

type UserManager struct {
	api      backendAPI
	validate *validator.Validate
}

func (m *UserManager) List(ctx context.Context, cred backend.Credentials) ([]domain.AdminUser, error) {
	return m.api.AdminUsers(ctx, cred)
}

func (m *UserManager) Create(ctx context.Context, cred backend.Credentials, form UserForm) (*domain.AdminUser, error) {
	form.Username = strings.TrimSpace(form.Username)
	if err := check(m.validate, form, userMessages); err != nil {
		return nil, err
	}
	return m.api.CreateUser(ctx, cred, backend.UserPayload{Username: form.Username, Password: form.Password})
}

// Delete removes an account other than selfID.
func (m *UserManager) Delete(ctx context.Context, cred backend.Credentials, id, selfID int64, confirmed bool) error {
	if id == selfID && selfID != 0 {
		return ErrDeleteSelf
	}
	if err := requireConfirmation(confirmed); err != nil {
		return err
	}
	return m.api.DeleteUser(ctx, cred, id)
}
