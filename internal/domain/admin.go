package domain

// AdminUser is a back-office account as returned by the backend.
type AdminUser struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Role      string    `json:"role,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
}
