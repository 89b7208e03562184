package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/astroconsult/consult-server-go/internal/model"
)

// ScriptedResponder answers deterministically from the birth profile. It is
// used when no Gemini key is configured and in tests.
type ScriptedResponder struct{}

func NewScriptedResponder() *ScriptedResponder {
	return &ScriptedResponder{}
}

func (s *ScriptedResponder) Reply(_ context.Context, turn Turn) (*Answer, error) {
	name := turn.Name
	if name == "" {
		name = "friend"
	}

	if turn.Persona == model.PersonaMaya {
		return &Answer{
			Persona: model.PersonaMaya,
			Structured: &Structured{
				Para1:    fmt.Sprintf("Namaste %s, I am Maya.", name),
				Para2:    "I can help you put your question to Guruji, who reads your birth chart in detail.",
				FollowUp: "What would you like to know about your chart, career, health or relationships?",
			},
			Metrics: map[string]any{"historyTurns": len(turn.History)},
		}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<p>Namaste %s.</p>", name)
	if turn.Profile != nil {
		fmt.Fprintf(&b, "<p>Looking at your %s chart, born on %s at %s in %s,",
			turn.Profile.ChartStyle, turn.Profile.DateOfBirth, turn.Profile.TimeOfBirth, turn.Profile.PlaceOfBirth)
	} else {
		b.WriteString("<p>Looking at your chart,")
	}
	fmt.Fprintf(&b, " regarding \"%s\":</p>", strings.TrimSpace(turn.Message))
	if turn.Context != "" {
		fmt.Fprintf(&b, "<p>%s</p>", turn.Context)
	}
	b.WriteString("<p>The coming months favour steady effort. Keep your routines simple and trust gradual progress.</p>")

	metrics := map[string]any{
		"historyTurns": len(turn.History),
		"contextChars": len(turn.Context),
	}
	if turn.Profile != nil {
		metrics["chartStyle"] = turn.Profile.ChartStyle
	}

	return &Answer{
		Persona: model.PersonaGuruji,
		Text:    b.String(),
		Metrics: metrics,
		Context: turn.Context,
	}, nil
}

func (s *ScriptedResponder) Summarize(_ context.Context, history []model.HistoryTurn) (string, error) {
	var questions []string
	guruji := 0
	for _, h := range history {
		switch {
		case h.Role == model.RoleUser:
			questions = append(questions, strings.TrimSpace(h.Content))
		case h.Assistant == model.PersonaGuruji:
			guruji++
		}
	}
	if len(questions) == 0 {
		return "No questions were asked in this consultation.", nil
	}
	return fmt.Sprintf("You asked %d question(s), starting with \"%s\". Guruji gave %d detailed reading(s).",
		len(questions), questions[0], guruji), nil
}

func (s *ScriptedResponder) PrepareContext(_ context.Context, _ string, profile model.Profile) (string, error) {
	dob, err := time.Parse(time.DateOnly, profile.DateOfBirth)
	if err != nil {
		return "", fmt.Errorf("parse date of birth: %w", err)
	}
	return fmt.Sprintf("Sun sign %s. %s chart style. Born in %s (%s, %s).",
		SunSign(dob), profile.ChartStyle, profile.PlaceOfBirth, profile.Latitude, profile.Longitude), nil
}

func (s *ScriptedResponder) Answer(_ context.Context, question string, passages []string) (string, error) {
	if len(passages) == 0 {
		return "I could not find anything about that in the document.", nil
	}
	excerpt := passages[0]
	if len(excerpt) > 280 {
		excerpt = excerpt[:280] + "..."
	}
	return fmt.Sprintf("Based on the document, regarding \"%s\": %s", question, excerpt), nil
}

var zodiac = []struct {
	sign       string
	month, day int
}{
	{"Capricorn", 1, 19}, {"Aquarius", 2, 18}, {"Pisces", 3, 20}, {"Aries", 4, 19},
	{"Taurus", 5, 20}, {"Gemini", 6, 20}, {"Cancer", 7, 22}, {"Leo", 8, 22},
	{"Virgo", 9, 22}, {"Libra", 10, 22}, {"Scorpio", 11, 21}, {"Sagittarius", 12, 21},
}

// SunSign returns the tropical sun sign for a birth date. Each entry holds
// the last day of that sign within its month.
func SunSign(t time.Time) string {
	month, day := int(t.Month()), t.Day()
	for _, z := range zodiac {
		if month == z.month && day <= z.day {
			return z.sign
		}
	}
	if month == 12 {
		return "Capricorn"
	}
	return zodiac[month].sign
}
