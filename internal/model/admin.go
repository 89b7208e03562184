package model

import (
	"time"
)

type AdminSession struct {
	ID        string    `db:"id" json:"id"`
	TokenHash string    `db:"token_hash" json:"-"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

type CreateAdminSessionParams struct {
	TokenHash string
	ExpiresAt time.Time
}

type AdminStats struct {
	Users        int     `json:"users"`
	ReadyUsers   int     `json:"readyUsers"`
	Sessions     int     `json:"sessions"`
	Messages     int     `json:"messages"`
	Revenue      float64 `json:"revenue"`
	AvgRating    float64 `json:"avgRating"`
	SSEConnected int     `json:"sseConnected"`
}

// UserDetail is the admin view of a single user.
type UserDetail struct {
	User     User                  `json:"user"`
	Profile  *Profile              `json:"profile,omitempty"`
	Balance  float64               `json:"balance"`
	Sessions []SessionWithMessages `json:"sessions"`
	Feedback []Feedback            `json:"feedback"`
}
