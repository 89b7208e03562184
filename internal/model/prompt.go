package model

import "time"

// Prompt names the oracle reads.
const (
	PromptMaya    = "maya"
	PromptGuruji  = "guruji"
	PromptSummary = "summary"
	PromptContext = "context"
)

type Prompt struct {
	Name      string    `db:"name" json:"name"`
	Content   string    `db:"content" json:"content"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
