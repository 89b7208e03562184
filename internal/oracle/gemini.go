package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"

	"github.com/astroconsult/consult-server-go/internal/model"
)

const DefaultGeminiModel = "gemini-1.5-flash-latest"

// GeminiResponder answers through the Gemini API using persona prompts from
// a PromptSource.
type GeminiResponder struct {
	client    *genai.Client
	modelName string
	prompts   PromptSource
}

func NewGeminiResponder(client *genai.Client, modelName string, prompts PromptSource) *GeminiResponder {
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	return &GeminiResponder{client: client, modelName: modelName, prompts: prompts}
}

func (g *GeminiResponder) model(ctx context.Context, promptName string) *genai.GenerativeModel {
	m := g.client.GenerativeModel(g.modelName)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(g.prompts.Prompt(ctx, promptName))},
	}
	return m
}

func (g *GeminiResponder) Reply(ctx context.Context, turn Turn) (*Answer, error) {
	promptName := model.PromptGuruji
	if turn.Persona == model.PersonaMaya {
		promptName = model.PromptMaya
	}
	m := g.model(ctx, promptName)
	if turn.Persona == model.PersonaMaya {
		m.ResponseMIMEType = "application/json"
	}

	cs := m.StartChat()
	cs.History = toContents(turn.History)

	var preface strings.Builder
	if turn.Name != "" {
		fmt.Fprintf(&preface, "User name: %s\n", turn.Name)
	}
	if turn.Profile != nil {
		fmt.Fprintf(&preface, "Birth details: %s %s at %s (%s, %s), %s chart, gender %s\n",
			turn.Profile.DateOfBirth, turn.Profile.TimeOfBirth, turn.Profile.PlaceOfBirth,
			turn.Profile.Latitude, turn.Profile.Longitude, turn.Profile.ChartStyle, turn.Profile.Gender)
	}
	if turn.Context != "" {
		fmt.Fprintf(&preface, "Chart context: %s\n", turn.Context)
	}
	preface.WriteString("Question: ")
	preface.WriteString(turn.Message)

	resp, err := cs.SendMessage(ctx, genai.Text(preface.String()))
	if err != nil {
		return nil, fmt.Errorf("gemini chat SendMessage failed: %w", err)
	}
	text, err := responseText(resp)
	if err != nil {
		return nil, err
	}

	answer := &Answer{
		Persona: turn.Persona,
		Metrics: map[string]any{"model": g.modelName, "historyTurns": len(turn.History)},
		Context: turn.Context,
	}
	if resp.UsageMetadata != nil {
		answer.Metrics["promptTokens"] = resp.UsageMetadata.PromptTokenCount
		answer.Metrics["outputTokens"] = resp.UsageMetadata.CandidatesTokenCount
	}

	if turn.Persona == model.PersonaMaya {
		var s Structured
		if err := json.Unmarshal([]byte(text), &s); err == nil {
			answer.Structured = &s
			return answer, nil
		}
		log.Warn().Msg("maya reply was not a JSON envelope, returning as text")
	}
	answer.Text = text
	return answer, nil
}

func (g *GeminiResponder) Summarize(ctx context.Context, history []model.HistoryTurn) (string, error) {
	if len(history) == 0 {
		return "No questions were asked in this consultation.", nil
	}
	var transcript strings.Builder
	for _, h := range history {
		speaker := string(h.Role)
		if h.Assistant != "" {
			speaker = string(h.Assistant)
		}
		fmt.Fprintf(&transcript, "%s: %s\n", speaker, h.Content)
	}

	resp, err := g.model(ctx, model.PromptSummary).GenerateContent(ctx, genai.Text(transcript.String()))
	if err != nil {
		return "", fmt.Errorf("gemini summary request failed: %w", err)
	}
	return responseText(resp)
}

func (g *GeminiResponder) PrepareContext(ctx context.Context, name string, p model.Profile) (string, error) {
	input := fmt.Sprintf("Name: %s\nGender: %s\nDate of birth: %s\nTime of birth: %s\nPlace: %s (%s, %s), %s, %s\nChart style: %s",
		name, p.Gender, p.DateOfBirth, p.TimeOfBirth, p.PlaceOfBirth, p.Latitude, p.Longitude, p.State, p.Country, p.ChartStyle)

	resp, err := g.model(ctx, model.PromptContext).GenerateContent(ctx, genai.Text(input))
	if err != nil {
		return "", fmt.Errorf("gemini context request failed: %w", err)
	}
	return responseText(resp)
}

func (g *GeminiResponder) Answer(ctx context.Context, question string, passages []string) (string, error) {
	m := g.client.GenerativeModel(g.modelName)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text("Answer only from the provided passages. If they do not contain the answer, say so.")},
	}
	prompt := fmt.Sprintf("Passages:\n%s\n\nQuestion: %s", strings.Join(passages, "\n---\n"), question)

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini answer request failed: %w", err)
	}
	return responseText(resp)
}

func toContents(history []model.HistoryTurn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history))
	for _, h := range history {
		role := "user"
		if h.Role == model.RoleAssistant {
			role = "model"
		}
		contents = append(contents, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(h.Content)},
		})
	}
	return contents
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("gemini returned an empty response")
	}
	return strings.TrimSpace(text.String()), nil
}
