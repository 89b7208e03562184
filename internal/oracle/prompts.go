package oracle

import (
	"context"
	"fmt"

	"github.com/astroconsult/consult-server-go/internal/model"
)

// PromptSource resolves persona instructions by name.
type PromptSource interface {
	Prompt(ctx context.Context, name string) string
}

var DefaultPrompts = map[string]string{
	model.PromptMaya: "You are Maya, the warm receptionist of an astrology consultation service. " +
		"Greet the user, clarify what they want to know, and guide chart questions toward Guruji. " +
		"Reply only with a JSON object with keys para1, para2, para3 and follow_up. Keep each paragraph short.",
	model.PromptGuruji: "You are Guruji, an experienced Vedic astrologer. Answer using the user's birth details and the prepared chart context. " +
		"Be specific, kind and practical. Format the answer as short HTML paragraphs.",
	model.PromptSummary: "Summarize this astrology consultation in 3-4 sentences for the user. " +
		"Mention the questions asked and the main guidance given. Do not add new predictions.",
	model.PromptContext: "Prepare a concise astrological context for the person below: sun sign, likely ascendant notes and key themes. " +
		"It will be reused as background for later questions.",
}

// StaticPrompts serves prompts from a fixed map, falling back to the defaults.
type StaticPrompts map[string]string

func (p StaticPrompts) Prompt(_ context.Context, name string) string {
	if v, ok := p[name]; ok && v != "" {
		return v
	}
	return DefaultPrompts[name]
}

func formatMoney(v float64) string {
	return fmt.Sprintf("₹%.2f", v)
}
