// Package oracle produces persona replies for consultations: Maya screens
// and engages, Guruji answers chart questions.
package oracle

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/astroconsult/consult-server-go/internal/model"
)

// Turn is the input to a single reply.
type Turn struct {
	Persona model.Persona
	Message string
	History []model.HistoryTurn
	Name    string
	Profile *model.Profile
	Context string
}

// Structured is Maya's JSON envelope.
type Structured struct {
	Para1    string `json:"para1,omitempty"`
	Para2    string `json:"para2,omitempty"`
	Para3    string `json:"para3,omitempty"`
	FollowUp string `json:"follow_up,omitempty"`
}

// Encode renders the envelope as the message content.
func (s Structured) Encode() string {
	b, _ := json.Marshal(s)
	return string(b)
}

type Answer struct {
	Persona    model.Persona
	Text       string
	Structured *Structured
	Metrics    map[string]any
	Context    string
}

// Content is what gets stored and returned as the answer field.
func (a *Answer) Content() string {
	if a.Structured != nil {
		return a.Structured.Encode()
	}
	return a.Text
}

type Responder interface {
	Reply(ctx context.Context, turn Turn) (*Answer, error)
	Summarize(ctx context.Context, history []model.HistoryTurn) (string, error)
	PrepareContext(ctx context.Context, name string, profile model.Profile) (string, error)
	// Answer replies to a question using only the given passages.
	Answer(ctx context.Context, question string, passages []string) (string, error)
}

var chartKeywords = []string{
	"chart", "kundli", "kundali", "horoscope", "planet", "dasha", "rashi",
	"nakshatra", "lagna", "ascendant", "saturn", "shani", "jupiter", "guru",
	"rahu", "ketu", "mars", "venus", "transit", "house", "marriage", "career",
	"job", "health", "future", "predict", "remedy", "muhurat", "compatib",
}

var smallTalk = []string{
	"hi", "hello", "hey", "namaste", "thanks", "thank you", "ok", "okay",
	"good morning", "good evening", "bye",
}

// Route picks the persona for a message. Chart questions go to Guruji;
// greetings and anything unclassified stay with Maya.
func Route(message string) model.Persona {
	text := strings.ToLower(strings.TrimSpace(message))
	for _, s := range smallTalk {
		if text == s || strings.TrimRight(text, "!.? ") == s {
			return model.PersonaMaya
		}
	}
	for _, kw := range chartKeywords {
		if strings.Contains(text, kw) {
			return model.PersonaGuruji
		}
	}
	if strings.HasSuffix(text, "?") && len(strings.Fields(text)) >= 6 {
		return model.PersonaGuruji
	}
	return model.PersonaMaya
}

// RechargeReply is Maya's answer when a Guruji consultation is not covered
// by the wallet.
func RechargeReply(balance, price float64) *Answer {
	return &Answer{
		Persona: model.PersonaMaya,
		Structured: &Structured{
			Para1:    "Guruji is ready to look into your chart, but your wallet does not have enough balance for a detailed reading.",
			Para2:    "Each answer from Guruji costs " + formatMoney(price) + ". Your current balance is " + formatMoney(balance) + ".",
			FollowUp: "Would you like to recharge your wallet and continue?",
		},
		Metrics: map[string]any{"reason": "insufficient_balance"},
	}
}
