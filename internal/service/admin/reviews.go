package admin

import (
	"context"
	"strings"

	"polykitchen/internal/backend"
	"polykitchen/internal/domain"
)

const (
	ApprovedReason = "Одобрено администратором"
	RejectedReason = "Отклонено администратором"
)

type ReviewManager struct {
	api backendAPI
}

// List returns reviews filtered by status: all, pending, approved or
// rejected. Empty means all.
func (m *ReviewManager) List(ctx context.Context, cred backend.Credentials, status string) ([]domain.Review, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case "", "all":
		status = ""
	case "pending", "approved", "rejected":
	default:
		return nil, fieldError("status", "Неизвестный статус")
	}
	return m.api.AdminReviews(ctx, cred, status)
}

func (m *ReviewManager) Approve(ctx context.Context, cred backend.Credentials, id int64) error {
	return m.api.ModerateReview(ctx, cred, id, domain.ModerationApproved, ApprovedReason)
}

func (m *ReviewManager) Reject(ctx context.Context, cred backend.Credentials, id int64) error {
	return m.api.ModerateReview(ctx, cred, id, domain.ModerationRejected, RejectedReason)
}

// Delete removes a review permanently.
func (m *ReviewManager) Delete(ctx context.Context, cred backend.Credentials, id int64, confirmed bool) error {
	if err := requireConfirmation(confirmed); err != nil {
		return err
	}
	return m.api.DeleteReview(ctx, cred, id)
}
