package runner

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"content_pipeline_poc/internal/agents"
	"content_pipeline_poc/internal/conversation"
	"content_pipeline_poc/internal/storage"
	"content_pipeline_poc/pkg"
)

// Runner executes one user turn: it routes the message, runs each selected
// stage against the chat model, writes stage output into the session's
// artifact state, and emits the execution events the tracker consumes.
type Runner struct {
	registry *agents.Registry
	router   *agents.Router
	model    agents.ChatModel
	store    storage.Store
	conv     conversation.Repository
	strategy conversation.ContextStrategy
	log      zerolog.Logger
}

// New creates a runner. conv may be nil to run without chat history.
func New(
	registry *agents.Registry,
	router *agents.Router,
	chatModel agents.ChatModel,
	store storage.Store,
	conv conversation.Repository,
	strategy conversation.ContextStrategy,
	log zerolog.Logger,
) *Runner {
	return &Runner{
		registry: registry,
		router:   router,
		model:    chatModel,
		store:    store,
		conv:     conv,
		strategy: strategy,
		log:      log,
	}
}

// Run produces the ordered, finite event stream for one turn. Failures while
// executing a stage terminate the stream with an error; the consumer decides
// how to degrade.
func (r *Runner) Run(ctx context.Context, userID, sessionID, message string) pkg.EventStream {
	return func(yield func(*pkg.Event, error) bool) {
		invocationID := uuid.NewString()
		emit := func(event *pkg.Event) bool {
			event.ID = uuid.NewString()
			event.InvocationID = invocationID
			event.Timestamp = time.Now()
			return yield(event, nil)
		}

		if !emit(&pkg.Event{
			Agent:   pkg.UserStage,
			Payload: pkg.TextPayload(message),
		}) {
			return
		}

		state, err := r.store.Get(ctx, userID, sessionID)
		if err != nil {
			// Absent session reads as empty state.
			state = map[string]any{}
		}

		stages := r.router.Route(ctx, state, message)
		r.log.Info().
			Str("invocation_id", invocationID).
			Strs("stages", stages).
			Msg("🚀 Starting turn execution")

		convContext := ""
		if r.conv != nil {
			if c, err := r.conv.Context(ctx, sessionID, r.strategy); err == nil {
				convContext = c
			} else {
				r.log.Warn().Err(err).Msg("Failed to load conversation context")
			}
			if err := r.conv.AddMessage(ctx, sessionID, schema.UserMessage(message)); err != nil {
				r.log.Warn().Err(err).Msg("Failed to record user message")
			}
		}

		var finalText string
		for i, name := range stages {
			def, ok := r.registry.Get(name)
			if !ok {
				yield(nil, fmt.Errorf("unknown stage: %s", name))
				return
			}

			if !emit(&pkg.Event{
				Agent:         agents.OrchestratorName,
				Payload:       pkg.TextPayload("Delegating to " + name),
				FunctionCalls: []string{name},
				TransferTo:    name,
			}) {
				return
			}

			r.log.Info().Str("stage", name).Msg("📍 Executing stage")
			out, err := r.model.Generate(ctx, r.stageMessages(def, state, convContext, message))
			if err != nil {
				yield(nil, fmt.Errorf("error executing stage %s: %w", name, err))
				return
			}

			state[def.OutputKey] = out.Content
			if err := r.persist(ctx, userID, sessionID, def.OutputKey, out.Content, state); err != nil {
				yield(nil, err)
				return
			}

			final := i == len(stages)-1
			if final {
				finalText = out.Content
			}
			if !emit(&pkg.Event{
				Agent:   name,
				Payload: pkg.TextPayload(out.Content),
				Final:   final,
			}) {
				return
			}
		}

		if r.conv != nil && finalText != "" {
			if err := r.conv.AddMessage(ctx, sessionID, schema.AssistantMessage(finalText, nil)); err != nil {
				r.log.Warn().Err(err).Msg("Failed to record assistant response")
			}
		}
	}
}

func (r *Runner) persist(ctx context.Context, userID, sessionID, key string, value any, state map[string]any) error {
	err := r.store.Merge(ctx, userID, sessionID, map[string]any{key: value})
	if errors.Is(err, storage.ErrSessionNotFound) {
		err = r.store.Create(ctx, userID, sessionID, state)
	}
	if err != nil {
		return fmt.Errorf("error persisting %s: %w", key, err)
	}
	return nil
}

// stageMessages assembles the model input for one stage: its instruction, the
// artifacts it reads, the recent conversation window, and the user's message.
func (r *Runner) stageMessages(def agents.Definition, state map[string]any, convContext, message string) []*schema.Message {
	messages := []*schema.Message{
		schema.SystemMessage(def.Instruction),
	}

	var blocks []string
	for _, key := range def.ReadKeys {
		value, exists := state[key]
		if !exists {
			continue
		}
		blocks = append(blocks, fmt.Sprintf("<%s>\n%v\n</%s>", key, value, key))
	}
	if len(blocks) > 0 {
		messages = append(messages, schema.SystemMessage(
			"Session artifacts from earlier steps:\n"+strings.Join(blocks, "\n\n")))
	}
	if convContext != "" {
		messages = append(messages, schema.SystemMessage(convContext))
	}

	messages = append(messages, schema.UserMessage(message))
	return messages
}
