package runner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_pipeline_poc/internal/agents"
	"content_pipeline_poc/internal/conversation"
	"content_pipeline_poc/internal/storage"
	"content_pipeline_poc/pkg"
)

type stubModel struct {
	replies []string
	calls   [][]*schema.Message
	err     error
}

func (s *stubModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	s.calls = append(s.calls, input)
	if s.err != nil {
		return nil, s.err
	}
	reply := "stage output"
	if n := len(s.calls) - 1; n < len(s.replies) {
		reply = s.replies[n]
	}
	return schema.AssistantMessage(reply, nil), nil
}

func newTestRunner(chatModel agents.ChatModel, store storage.Store, conv conversation.Repository) *Runner {
	registry := agents.NewRegistry()
	router := agents.NewRouter(nil, registry, 2, zerolog.Nop())
	var strategy conversation.ContextStrategy
	if conv != nil {
		strategy = conversation.NewWindowStrategy(10)
	}
	return New(registry, router, chatModel, store, conv, strategy, zerolog.Nop())
}

func collect(t *testing.T, stream pkg.EventStream) ([]*pkg.Event, error) {
	t.Helper()
	var events []*pkg.Event
	for event, err := range stream {
		if err != nil {
			return events, err
		}
		events = append(events, event)
	}
	return events, nil
}

func TestRunEmitsOrderedEvents(t *testing.T) {
	chatModel := &stubModel{replies: []string{"1. Go tips"}}
	runner := newTestRunner(chatModel, storage.NewMemoryStore(0), nil)

	events, err := collect(t, runner.Run(context.Background(), "u1", "s1", "brainstorm ideas for a travel blog"))
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.Equal(t, pkg.UserStage, events[0].Agent)
	assert.Equal(t, "brainstorm ideas for a travel blog", events[0].Payload.Text)

	assert.Equal(t, agents.OrchestratorName, events[1].Agent)
	assert.Equal(t, "IdeateAgent", events[1].TransferTo)
	assert.Equal(t, []string{"IdeateAgent"}, events[1].FunctionCalls)
	assert.False(t, events[1].Final)

	assert.Equal(t, "IdeateAgent", events[2].Agent)
	assert.Equal(t, "1. Go tips", events[2].Payload.Text)
	assert.True(t, events[2].Final)

	for _, event := range events {
		assert.NotEmpty(t, event.ID)
		assert.Equal(t, events[0].InvocationID, event.InvocationID)
		assert.False(t, event.Timestamp.IsZero())
	}
}

func TestRunPersistsStageArtifact(t *testing.T) {
	store := storage.NewMemoryStore(0)
	runner := newTestRunner(&stubModel{replies: []string{"three ideas"}}, store, nil)

	_, err := collect(t, runner.Run(context.Background(), "u1", "s1", "brainstorm ideas"))
	require.NoError(t, err)

	state, err := store.Get(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "three ideas", state[pkg.KeyGeneratedIdeas])
}

func TestRunMultipleStagesOnlyLastIsFinal(t *testing.T) {
	store := storage.NewMemoryStore(0)
	chatModel := &stubModel{replies: []string{"the draft", "the optimized draft"}}
	runner := newTestRunner(chatModel, store, nil)

	events, err := collect(t, runner.Run(context.Background(), "u1", "s1", "write a draft and optimize the seo"))
	require.NoError(t, err)
	require.Len(t, events, 5)

	assert.Equal(t, "DraftAgent", events[2].Agent)
	assert.False(t, events[2].Final)
	assert.Equal(t, "SEOAgent", events[4].Agent)
	assert.True(t, events[4].Final)

	state, err := store.Get(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "the draft", state[pkg.KeyContentDraft])
	assert.Equal(t, "the optimized draft", state[pkg.KeySEOOptimizedContent])
}

func TestRunModelErrorEndsStream(t *testing.T) {
	chatModel := &stubModel{err: errors.New("model unavailable")}
	runner := newTestRunner(chatModel, storage.NewMemoryStore(0), nil)

	events, err := collect(t, runner.Run(context.Background(), "u1", "s1", "brainstorm ideas"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error executing stage IdeateAgent")
	assert.Contains(t, err.Error(), "model unavailable")
	// The user event was already emitted before the stage failed.
	require.Len(t, events, 2)
	assert.Equal(t, pkg.UserStage, events[0].Agent)
}

func TestRunRecordsConversation(t *testing.T) {
	conv := conversation.NewMemoryRepository()
	runner := newTestRunner(&stubModel{replies: []string{"here you go"}}, storage.NewMemoryStore(0), conv)

	_, err := collect(t, runner.Run(context.Background(), "u1", "s1", "brainstorm ideas"))
	require.NoError(t, err)

	history, err := conv.Load(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, history.Messages, 2)
	assert.Equal(t, schema.User, history.Messages[0].Role)
	assert.Equal(t, "brainstorm ideas", history.Messages[0].Content)
	assert.Equal(t, schema.Assistant, history.Messages[1].Role)
	assert.Equal(t, "here you go", history.Messages[1].Content)
}

func TestRunContinuesFromExistingState(t *testing.T) {
	store := storage.NewMemoryStore(0)
	require.NoError(t, store.Create(context.Background(), "u1", "s1", map[string]any{
		pkg.KeyGeneratedIdeas: "1. Go tips",
	}))

	chatModel := &stubModel{replies: []string{"I. Intro"}}
	runner := newTestRunner(chatModel, store, nil)

	events, err := collect(t, runner.Run(context.Background(), "u1", "s1", "please continue"))
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "OutlineAgent", events[2].Agent)

	// The stage prompt carries the artifacts the stage reads.
	require.Len(t, chatModel.calls, 1)
	var sawArtifacts bool
	for _, msg := range chatModel.calls[0] {
		if msg.Role == schema.System &&
			strings.Contains(msg.Content, "<generated_ideas>") &&
			strings.Contains(msg.Content, "1. Go tips") {
			sawArtifacts = true
		}
	}
	assert.True(t, sawArtifacts)

	state, err := store.Get(context.Background(), "u1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "1. Go tips", state[pkg.KeyGeneratedIdeas])
	assert.Equal(t, "I. Intro", state[pkg.KeyContentOutline])
}
