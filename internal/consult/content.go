package consult

import (
	"encoding/json"
	"strings"
)

// Content is a reply body, resolved once when the message arrives. It is
// either PlainHTML or StructuredReply.
type Content interface {
	Text() string
	isContent()
}

// PlainHTML is pre-formatted markup from the server.
type PlainHTML string

func (p PlainHTML) Text() string { return string(p) }
func (PlainHTML) isContent()     {}

// StructuredReply is the paragraph envelope some replies are encoded in.
type StructuredReply struct {
	Para1    string `json:"para1,omitempty"`
	Para2    string `json:"para2,omitempty"`
	Para3    string `json:"para3,omitempty"`
	FollowUp string `json:"follow_up,omitempty"`
}

// Text reassembles the paragraphs and follow-up for display.
func (s StructuredReply) Text() string {
	var parts []string
	for _, p := range []string{s.Para1, s.Para2, s.Para3, s.FollowUp} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}

func (StructuredReply) isContent() {}

// ParseContent treats raw as a structured envelope when it is a JSON
// object carrying at least one paragraph or follow-up, and as markup
// otherwise.
func ParseContent(raw string) Content {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var s StructuredReply
		if err := json.Unmarshal([]byte(trimmed), &s); err == nil && s.Text() != "" {
			return s
		}
	}
	return PlainHTML(raw)
}
