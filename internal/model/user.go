package model

import "time"

// UserStatus tracks whether the astrological context for a user is ready.
type UserStatus string

const (
	UserStatusNew        UserStatus = "new"
	UserStatusProcessing UserStatus = "processing"
	UserStatusReady      UserStatus = "ready"
	UserStatusFailed     UserStatus = "failed"
)

// ChatAllowed reports whether chat may proceed. A failed precompute degrades
// open: the oracle answers without a prepared context.
func (s UserStatus) ChatAllowed() bool {
	return s == UserStatusReady || s == UserStatusFailed
}

type User struct {
	Mobile          string     `db:"mobile" json:"mobile"`
	Name            string     `db:"name" json:"name"`
	Email           string     `db:"email" json:"email,omitempty"`
	Status          UserStatus `db:"status" json:"status"`
	ProfileComplete bool       `db:"profile_complete" json:"profileComplete"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

// Profile is the birth profile. Date, time and place columns may be sealed
// at rest; repositories return them as stored.
type Profile struct {
	Mobile       string    `db:"mobile" json:"mobile"`
	Gender       string    `db:"gender" json:"gender"`
	DateOfBirth  string    `db:"date_of_birth" json:"date_of_birth"`
	TimeOfBirth  string    `db:"time_of_birth" json:"time_of_birth"`
	PlaceOfBirth string    `db:"place_of_birth" json:"place_of_birth"`
	Latitude     string    `db:"latitude" json:"latitude"`
	Longitude    string    `db:"longitude" json:"longitude"`
	Country      string    `db:"country" json:"country"`
	State        string    `db:"state" json:"state"`
	ChartStyle   string    `db:"chart_style" json:"chart_style"`
	Context      string    `db:"context" json:"-"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}

type RegisterParams struct {
	Mobile       string `json:"mobile"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Gender       string `json:"gender"`
	DateOfBirth  string `json:"date_of_birth"`
	TimeOfBirth  string `json:"time_of_birth"`
	PlaceOfBirth string `json:"place_of_birth"`
	Latitude     string `json:"latitude"`
	Longitude    string `json:"longitude"`
	Country      string `json:"country"`
	State        string `json:"state"`
	ChartStyle   string `json:"chart_style"`
}

type AuthToken struct {
	TokenHash string    `db:"token_hash"`
	Mobile    string    `db:"mobile"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

// UserSummary is a row of the admin user listing.
type UserSummary struct {
	User
	Balance      float64 `db:"balance" json:"balance"`
	SessionCount int     `db:"session_count" json:"sessionCount"`
}
