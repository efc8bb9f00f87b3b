package dto

import "github.com/google/uuid"

type AuthorResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FullName  *string   `json:"full_name"`
	AvatarURL *string   `json:"avatar_url"`
}

// LimitQuery is the shared ?limit= binding for list endpoints.
type LimitQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Or returns the requested limit, fallback when none was given.
func (q LimitQuery) Or(fallback int) int {
	if q.Limit <= 0 {
		return fallback
	}
	return q.Limit
}

type IDResponse struct {
	ID uuid.UUID `json:"id"`
}
