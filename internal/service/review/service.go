// Package review accepts customer reviews.
package review

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"polykitchen/internal/domain"
)

const DefaultRating = 5

type backendAPI interface {
	SubmitReview(ctx context.Context, r domain.ReviewSubmission) error
	DishReviews(ctx context.Context, dishID int64) ([]domain.Review, error)
}

type Service struct {
	api      backendAPI
	validate *validator.Validate
}

func New(api backendAPI) *Service {
	return &Service{api: api, validate: validator.New()}
}

// Input is the review form.
type Input struct {
	DishID     int64  `json:"dish_id" validate:"required,gt=0"`
	UserName   string `json:"user_name" validate:"required,max=100"`
	Rating     int    `json:"rating" validate:"min=1,max=5"`
	ReviewText string `json:"review_text" validate:"required,max=2000"`
}

// FormError lists per-field problems that stopped a submission.
type FormError struct {
	Fields map[string]string
}

func (e *FormError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid review: " + strings.Join(parts, "; ")
}

var fieldMessages = map[string]string{
	"DishID":     "Блюдо не выбрано",
	"UserName":   "Введите ваше имя",
	"Rating":     "Оценка должна быть от 1 до 5",
	"ReviewText": "Напишите отзыв",
}

var jsonNames = map[string]string{
	"DishID":     "dish_id",
	"UserName":   "user_name",
	"Rating":     "rating",
	"ReviewText": "review_text",
}

// Submit validates and posts a review. Invalid input never reaches the
// backend. Accepted reviews wait for moderation.
func (s *Service) Submit(ctx context.Context, in Input) (domain.ModerationState, error) {
	in.UserName = strings.TrimSpace(in.UserName)
	in.ReviewText = strings.TrimSpace(in.ReviewText)
	if in.Rating == 0 {
		in.Rating = DefaultRating
	}

	if err := s.validate.Struct(in); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok {
			return domain.ModerationPending, fmt.Errorf("validate review: %w", err)
		}
		fe := &FormError{Fields: make(map[string]string, len(verrs))}
		for _, v := range verrs {
			fe.Fields[jsonNames[v.Field()]] = fieldMessages[v.Field()]
		}
		return domain.ModerationPending, fe
	}

	err := s.api.SubmitReview(ctx, domain.ReviewSubmission{
		DishID:     in.DishID,
		UserName:   in.UserName,
		Rating:     in.Rating,
		ReviewText: in.ReviewText,
	})
	if err != nil {
		return domain.ModerationPending, fmt.Errorf("submit review: %w", err)
	}
	return domain.ModerationPending, nil
}

func (s *Service) ForDish(ctx context.Context, dishID int64) ([]domain.Review, error) {
	return s.api.DishReviews(ctx, dishID)
}
