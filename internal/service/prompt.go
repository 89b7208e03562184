package service

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
	"github.com/astroconsult/consult-server-go/internal/model"
	"github.com/astroconsult/consult-server-go/internal/oracle"
	"github.com/astroconsult/consult-server-go/internal/repository"
)

// PromptService serves editable persona prompts, falling back to built-in
// defaults. It is the oracle's PromptSource.
type PromptService struct {
	repo repository.PromptRepository
}

func NewPromptService(repo repository.PromptRepository) *PromptService {
	return &PromptService{repo: repo}
}

func (s *PromptService) Prompt(ctx context.Context, name string) string {
	p, err := s.repo.FindByName(ctx, name)
	if err != nil {
		log.Warn().Err(err).Str("prompt", name).Msg("failed to load prompt, using default")
	}
	if p != nil && p.Content != "" {
		return p.Content
	}
	return oracle.DefaultPrompts[name]
}

// List returns every known prompt, stored or default.
func (s *PromptService) List(ctx context.Context) ([]model.Prompt, error) {
	stored, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, apperrors.Database(err)
	}

	byName := make(map[string]model.Prompt, len(stored))
	for _, p := range stored {
		byName[p.Name] = p
	}
	for name, content := range oracle.DefaultPrompts {
		if _, ok := byName[name]; !ok {
			byName[name] = model.Prompt{Name: name, Content: content}
		}
	}

	prompts := make([]model.Prompt, 0, len(byName))
	for _, p := range byName {
		prompts = append(prompts, p)
	}
	sort.Slice(prompts, func(i, j int) bool { return prompts[i].Name < prompts[j].Name })
	return prompts, nil
}

func (s *PromptService) Update(ctx context.Context, name, content string) (*model.Prompt, error) {
	if _, ok := oracle.DefaultPrompts[name]; !ok {
		return nil, apperrors.NotFound("Prompt")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.InvalidFields(apperrors.Field("content", "Prompt content is required"))
	}

	p, err := s.repo.Upsert(ctx, name, content)
	if err != nil {
		return nil, apperrors.Database(err)
	}
	return p, nil
}
