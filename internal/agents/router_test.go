package agents

import (
	"context"
	"errors"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"content_pipeline_poc/pkg"
)

type stubModel struct {
	reply string
	err   error
}

func (s *stubModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	if s.err != nil {
		return nil, s.err
	}
	return schema.AssistantMessage(s.reply, nil), nil
}

func TestRegistryOrderAndLookup(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, []string{
		"IdeateAgent", "OutlineAgent", "DraftAgent", "PersonaFeedbackAgent", "SEOAgent",
	}, r.Names())

	def, ok := r.Get("DraftAgent")
	assert.True(t, ok)
	assert.Equal(t, pkg.KeyContentDraft, def.OutputKey)

	_, ok = r.Get("NoSuchAgent")
	assert.False(t, ok)
}

func TestRegistryNextStageProgression(t *testing.T) {
	r := NewRegistry()

	assert.Equal(t, "IdeateAgent", r.NextStage(map[string]any{}))
	assert.Equal(t, "OutlineAgent", r.NextStage(map[string]any{pkg.KeyGeneratedIdeas: "x"}))
	assert.Equal(t, "DraftAgent", r.NextStage(map[string]any{
		pkg.KeyGeneratedIdeas: "x",
		pkg.KeyContentOutline: "y",
	}))

	full := map[string]any{}
	for _, key := range pkg.ArtifactKeys {
		full[key] = "done"
	}
	assert.Equal(t, "PersonaFeedbackAgent", r.NextStage(full))
}

func TestRouteParsesModelDecision(t *testing.T) {
	router := NewRouter(&stubModel{reply: "OutlineAgent, then DraftAgent"}, NewRegistry(), 3, zerolog.Nop())

	stages := router.Route(context.Background(), map[string]any{}, "continue please")
	assert.Equal(t, []string{"OutlineAgent", "DraftAgent"}, stages)
}

func TestRouteDeduplicatesAndCaps(t *testing.T) {
	router := NewRouter(&stubModel{reply: "DraftAgent DraftAgent SEOAgent PersonaFeedbackAgent"}, NewRegistry(), 2, zerolog.Nop())

	stages := router.Route(context.Background(), map[string]any{}, "do it all")
	assert.Equal(t, []string{"DraftAgent", "SEOAgent"}, stages)
}

func TestRouteFallsBackOnModelError(t *testing.T) {
	router := NewRouter(&stubModel{err: errors.New("boom")}, NewRegistry(), 2, zerolog.Nop())

	stages := router.Route(context.Background(), map[string]any{}, "brainstorm some ideas")
	assert.Equal(t, []string{"IdeateAgent"}, stages)
}

func TestRouteFallsBackOnUnparseableDecision(t *testing.T) {
	router := NewRouter(&stubModel{reply: "I cannot decide"}, NewRegistry(), 2, zerolog.Nop())

	stages := router.Route(context.Background(), map[string]any{}, "please review this for me")
	assert.Equal(t, []string{"PersonaFeedbackAgent"}, stages)
}

func TestHeuristicRouteKeywords(t *testing.T) {
	router := NewRouter(nil, NewRegistry(), 2, zerolog.Nop())
	ctx := context.Background()

	assert.Equal(t, []string{"IdeateAgent"},
		router.Route(ctx, map[string]any{}, "Brainstorm concepts for a post about Go"))
	assert.Equal(t, []string{"OutlineAgent"},
		router.Route(ctx, map[string]any{}, "Please structure this into an outline"))
	assert.Equal(t, []string{"SEOAgent"},
		router.Route(ctx, map[string]any{}, "optimize the keywords"))
}

func TestHeuristicRouteDefaultsToProgression(t *testing.T) {
	router := NewRouter(nil, NewRegistry(), 2, zerolog.Nop())

	stages := router.Route(context.Background(), map[string]any{
		pkg.KeyGeneratedIdeas: "x",
	}, "next step please")
	assert.Equal(t, []string{"OutlineAgent"}, stages)
}

func TestHeuristicRouteMultipleMatchesInPipelineOrder(t *testing.T) {
	router := NewRouter(nil, NewRegistry(), 3, zerolog.Nop())

	stages := router.Route(context.Background(), map[string]any{},
		"write a draft and check the seo")
	assert.Equal(t, []string{"DraftAgent", "SEOAgent"}, stages)
}
