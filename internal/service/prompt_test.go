package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/astroconsult/consult-server-go/internal/errors"
	"github.com/astroconsult/consult-server-go/internal/model"
	"github.com/astroconsult/consult-server-go/internal/oracle"
)

func TestPromptService_Prompt(t *testing.T) {
	ctx := context.Background()
	repo := new(mockPromptRepo)
	svc := NewPromptService(repo)

	repo.On("FindByName", ctx, model.PromptMaya).Return(&model.Prompt{Name: model.PromptMaya, Content: "custom"}, nil)
	repo.On("FindByName", ctx, model.PromptGuruji).Return(nil, nil)
	repo.On("FindByName", ctx, model.PromptSummary).Return(nil, errors.New("db down"))

	assert.Equal(t, "custom", svc.Prompt(ctx, model.PromptMaya))
	assert.Equal(t, oracle.DefaultPrompts[model.PromptGuruji], svc.Prompt(ctx, model.PromptGuruji))
	assert.Equal(t, oracle.DefaultPrompts[model.PromptSummary], svc.Prompt(ctx, model.PromptSummary))
}

func TestPromptService_List(t *testing.T) {
	ctx := context.Background()
	repo := new(mockPromptRepo)
	svc := NewPromptService(repo)
	repo.On("FindAll", ctx).Return([]model.Prompt{{Name: model.PromptGuruji, Content: "edited"}}, nil)

	prompts, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, prompts, len(oracle.DefaultPrompts))
	for i := 1; i < len(prompts); i++ {
		assert.Less(t, prompts[i-1].Name, prompts[i].Name)
	}
	for _, p := range prompts {
		if p.Name == model.PromptGuruji {
			assert.Equal(t, "edited", p.Content)
		}
	}
}

func TestPromptService_Update(t *testing.T) {
	ctx := context.Background()
	repo := new(mockPromptRepo)
	svc := NewPromptService(repo)

	_, err := svc.Update(ctx, "unknown", "text")
	assert.Equal(t, apperrors.ErrCodeNotFound, apperrors.GetCode(err))

	_, err = svc.Update(ctx, model.PromptMaya, "   ")
	assert.Equal(t, apperrors.ErrCodeValidation, apperrors.GetCode(err))

	repo.On("Upsert", ctx, model.PromptMaya, "new text").Return(&model.Prompt{Name: model.PromptMaya, Content: "new text"}, nil)
	p, err := svc.Update(ctx, model.PromptMaya, " new text ")
	require.NoError(t, err)
	assert.Equal(t, "new text", p.Content)
}
