package review

import (
	"context"
	"errors"
	"testing"

	"polykitchen/internal/domain"
)

type stubAPI struct {
	submitted []domain.ReviewSubmission
	submitErr error
	reviews   []domain.Review
}

func (s *stubAPI) SubmitReview(_ context.Context, r domain.ReviewSubmission) error {
	s.submitted = append(s.submitted, r)
	return s.submitErr
}

func (s *stubAPI) DishReviews(context.Context, int64) ([]domain.Review, error) {
	return s.reviews, nil
}

func TestSubmit_EmptyTextRejectedBeforeNetwork(t *testing.T) {
	api := &stubAPI{}
	svc := New(api)

	_, err := svc.Submit(context.Background(), Input{DishID: 1, UserName: "Аня", ReviewText: "   "})
	var fe *FormError
	if !errors.As(err, &fe) {
		t.Fatalf("expected form error, got %v", err)
	}
	if fe.Fields["review_text"] == "" {
		t.Fatalf("expected review_text error, got %+v", fe.Fields)
	}
	if len(api.submitted) != 0 {
		t.Fatalf("expected no backend call, got %d", len(api.submitted))
	}
}

func TestSubmit_Validation(t *testing.T) {
	cases := []struct {
		name  string
		in    Input
		field string
	}{
		{"missing name", Input{DishID: 1, ReviewText: "ok"}, "user_name"},
		{"rating too high", Input{DishID: 1, UserName: "a", ReviewText: "ok", Rating: 6}, "rating"},
		{"negative rating", Input{DishID: 1, UserName: "a", ReviewText: "ok", Rating: -1}, "rating"},
		{"no dish", Input{UserName: "a", ReviewText: "ok"}, "dish_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &stubAPI{}
			_, err := New(api).Submit(context.Background(), tc.in)
			var fe *FormError
			if !errors.As(err, &fe) {
				t.Fatalf("expected form error, got %v", err)
			}
			if _, ok := fe.Fields[tc.field]; !ok {
				t.Fatalf("expected %s error, got %+v", tc.field, fe.Fields)
			}
			if len(api.submitted) != 0 {
				t.Fatalf("expected no backend call")
			}
		})
	}
}

func TestSubmit_DefaultsRatingAndTrims(t *testing.T) {
	api := &stubAPI{}
	state, err := New(api).Submit(context.Background(), Input{DishID: 3, UserName: "  Аня ", ReviewText: " Вкусно "})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if state != domain.ModerationPending {
		t.Fatalf("expected pending, got %v", state)
	}
	if len(api.submitted) != 1 {
		t.Fatalf("expected one backend call")
	}
	got := api.submitted[0]
	if got.Rating != 5 || got.UserName != "Аня" || got.ReviewText != "Вкусно" || got.DishID != 3 {
		t.Fatalf("unexpected submission %+v", got)
	}
}

func TestSubmit_BackendError(t *testing.T) {
	api := &stubAPI{submitErr: errors.New("boom")}
	if _, err := New(api).Submit(context.Background(), Input{DishID: 1, UserName: "a", ReviewText: "b", Rating: 4}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFormError_StableMessage(t *testing.T) {
	fe := &FormError{Fields: map[string]string{
		"user_name":   "Введите ваше имя",
		"review_text": "Напишите отзыв",
		"rating":      "Оценка должна быть от 1 до 5",
	}}
	want := "invalid review: rating: Оценка должна быть от 1 до 5; review_text: Напишите отзыв; user_name: Введите ваше имя"
	for i := 0; i < 20; i++ {
		if got := fe.Error(); got != want {
			t.Fatalf("unexpected message %q", got)
		}
	}
}
