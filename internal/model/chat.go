package model

import "time"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Persona string

const (
	PersonaMaya   Persona = "maya"
	PersonaGuruji Persona = "guruji"
)

type SessionStatus string

const (
	SessionStatusActive     SessionStatus = "active"
	SessionStatusSummarized SessionStatus = "summarized"
)

type ChatSession struct {
	SessionID string        `db:"session_id" json:"session_id"`
	Mobile    string        `db:"mobile" json:"-"`
	Topic     string        `db:"topic" json:"topic"`
	Status    SessionStatus `db:"status" json:"status"`
	Summary   string        `db:"summary" json:"summary,omitempty"`
	CreatedAt time.Time     `db:"created_at" json:"timestamp"`
	UpdatedAt time.Time     `db:"updated_at" json:"-"`
}

type ChatMessage struct {
	ID        int64     `db:"id" json:"-"`
	SessionID string    `db:"session_id" json:"-"`
	Role      Role      `db:"role" json:"role"`
	Assistant Persona   `db:"assistant" json:"assistant,omitempty"`
	Content   string    `db:"content" json:"content"`
	Amount    *float64  `db:"amount" json:"amount,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"timestamp"`
}

// SessionWithMessages is one entry of the history response.
type SessionWithMessages struct {
	ChatSession
	Messages []ChatMessage `json:"messages"`
}

// HistoryTurn is a prior message as sent by the client with a chat request.
type HistoryTurn struct {
	Role      Role    `json:"role"`
	Assistant Persona `json:"assistant,omitempty"`
	Content   string  `json:"content"`
}

type Feedback struct {
	SessionID string    `db:"session_id" json:"session_id"`
	Mobile    string    `db:"mobile" json:"mobile"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"feedback"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
