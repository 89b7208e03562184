package oracle

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astroconsult/consult-server-go/internal/model"
)

func TestRoute(t *testing.T) {
	tests := []struct {
		message string
		want    model.Persona
	}{
		{"Hello", model.PersonaMaya},
		{"namaste!", model.PersonaMaya},
		{"What does my chart say?", model.PersonaGuruji},
		{"Will I get a new job this year", model.PersonaGuruji},
		{"Can you tell me what the next few months hold?", model.PersonaGuruji},
		{"who are you", model.PersonaMaya},
	}

	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			assert.Equal(t, tc.want, Route(tc.message))
		})
	}
}

func TestRechargeReply(t *testing.T) {
	answer := RechargeReply(2, 5)
	assert.Equal(t, model.PersonaMaya, answer.Persona)
	require.NotNil(t, answer.Structured)
	assert.Contains(t, answer.Structured.Para2, "₹5.00")
	assert.Contains(t, answer.Structured.Para2, "₹2.00")
	assert.True(t, strings.HasPrefix(answer.Content(), "{"))
}

func TestScriptedResponder(t *testing.T) {
	r := NewScriptedResponder()
	ctx := context.Background()
	profile := &model.Profile{
		DateOfBirth:  "1990-05-01",
		TimeOfBirth:  "10:30",
		PlaceOfBirth: "Kozhikode",
		ChartStyle:   "Kerala",
	}

	t.Run("maya returns a JSON envelope", func(t *testing.T) {
		answer, err := r.Reply(ctx, Turn{Persona: model.PersonaMaya, Message: "hi", Name: "Asha"})
		require.NoError(t, err)

		var s Structured
		require.NoError(t, json.Unmarshal([]byte(answer.Content()), &s))
		assert.Contains(t, s.Para1, "Asha")
		assert.NotEmpty(t, s.FollowUp)
	})

	t.Run("guruji returns html using the profile", func(t *testing.T) {
		answer, err := r.Reply(ctx, Turn{
			Persona: model.PersonaGuruji,
			Message: "What does my chart say?",
			Profile: profile,
			Context: "Sun sign Taurus.",
		})
		require.NoError(t, err)
		assert.Equal(t, model.PersonaGuruji, answer.Persona)
		assert.Nil(t, answer.Structured)
		assert.Contains(t, answer.Content(), "Kerala")
		assert.Contains(t, answer.Content(), "Sun sign Taurus.")
		assert.Equal(t, "Kerala", answer.Metrics["chartStyle"])
	})

	t.Run("summarize counts questions", func(t *testing.T) {
		summary, err := r.Summarize(ctx, []model.HistoryTurn{
			{Role: model.RoleUser, Content: "What does my chart say?"},
			{Role: model.RoleAssistant, Assistant: model.PersonaGuruji, Content: "<p>...</p>"},
		})
		require.NoError(t, err)
		assert.Contains(t, summary, "1 question(s)")
		assert.Contains(t, summary, "1 detailed reading(s)")
	})

	t.Run("prepare context derives sun sign", func(t *testing.T) {
		text, err := r.PrepareContext(ctx, "Asha", *profile)
		require.NoError(t, err)
		assert.Contains(t, text, "Taurus")
	})

	t.Run("prepare context fails on bad date", func(t *testing.T) {
		_, err := r.PrepareContext(ctx, "Asha", model.Profile{DateOfBirth: "01/05/1990"})
		assert.Error(t, err)
	})

	t.Run("answer without passages", func(t *testing.T) {
		text, err := r.Answer(ctx, "what?", nil)
		require.NoError(t, err)
		assert.Contains(t, text, "could not find")
	})
}

func TestSunSign(t *testing.T) {
	tests := []struct {
		date string
		want string
	}{
		{"1990-01-10", "Capricorn"},
		{"1990-01-25", "Aquarius"},
		{"1990-05-01", "Taurus"},
		{"1990-08-23", "Virgo"},
		{"1990-12-25", "Capricorn"},
	}
	for _, tc := range tests {
		d, _ := time.Parse(time.DateOnly, tc.date)
		assert.Equal(t, tc.want, SunSign(d), tc.date)
	}
}

func TestStaticPrompts(t *testing.T) {
	p := StaticPrompts{model.PromptMaya: "custom"}
	assert.Equal(t, "custom", p.Prompt(context.Background(), model.PromptMaya))
	assert.Equal(t, DefaultPrompts[model.PromptGuruji], p.Prompt(context.Background(), model.PromptGuruji))
}

func TestResponseText(t *testing.T) {
	t.Run("joins text parts", func(t *testing.T) {
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []genai.Part{genai.Text("Hello "), genai.Text("there")}},
			}},
		}
		text, err := responseText(resp)
		require.NoError(t, err)
		assert.Equal(t, "Hello there", text)
	})

	t.Run("empty response is an error", func(t *testing.T) {
		_, err := responseText(&genai.GenerateContentResponse{})
		assert.Error(t, err)
	})
}

func TestToContents(t *testing.T) {
	contents := toContents([]model.HistoryTurn{
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Assistant: model.PersonaMaya, Content: "hello"},
	})
	require.Len(t, contents, 2)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "model", contents[1].Role)
}
