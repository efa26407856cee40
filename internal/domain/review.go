package domain

// ModerationState is the tri-state approval flag of a review.
type ModerationState int

const (
	ModerationRejected ModerationState = -1
	ModerationPending  ModerationState = 0
	ModerationApproved ModerationState = 1
)

func (s ModerationState) String() string {
	switch s {
	case ModerationApproved:
		return "approved"
	case ModerationRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// Review is a customer opinion about a dish.
type Review struct {
	ID               int64           `json:"id"`
	DishID           int64           `json:"dish_id"`
	DishName         string          `json:"dish_name,omitempty"`
	UserName         string          `json:"user_name"`
	Rating           int             `json:"rating"`
	ReviewText       string          `json:"review_text"`
	IsApproved       ModerationState `json:"is_approved"`
	CreatedAt        Timestamp       `json:"created_at"`
	ModerationReason string          `json:"moderation_reason,omitempty"`
}

// ReviewSubmission is the payload a customer posts.
type ReviewSubmission struct {
	DishID     int64  `json:"dish_id"`
	UserName   string `json:"user_name"`
	Rating     int    `json:"rating"`
	ReviewText string `json:"review_text"`
}
