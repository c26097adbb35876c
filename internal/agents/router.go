package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

// Router decides which stage(s) should handle a user message. The primary
// path asks the orchestrator model; when the model is unavailable or its
// answer names no known stage, a deterministic keyword heuristic plus the
// registry's default progression takes over.
type Router struct {
	model     ChatModel
	registry  *Registry
	maxStages int
	log       zerolog.Logger
}

// NewRouter creates a router. A nil model routes purely heuristically.
func NewRouter(chatModel ChatModel, registry *Registry, maxStages int, log zerolog.Logger) *Router {
	if maxStages <= 0 {
		maxStages = 1
	}
	return &Router{
		model:     chatModel,
		registry:  registry,
		maxStages: maxStages,
		log:       log,
	}
}

// Route returns the stage names to execute for the message, in execution
// order. It never fails: routing errors degrade to the heuristic path.
func (r *Router) Route(ctx context.Context, state map[string]any, message string) []string {
	if r.model != nil {
		names, err := r.routeWithModel(ctx, state, message)
		if err != nil {
			r.log.Warn().Err(err).Msg("LLM routing failed, using heuristic fallback")
		} else if len(names) > 0 {
			return r.cap(names)
		}
	}
	return r.cap(r.heuristicRoute(state, message))
}

func (r *Router) routeWithModel(ctx context.Context, state map[string]any, message string) ([]string, error) {
	messages := []*schema.Message{
		schema.SystemMessage(r.routingPrompt(state)),
		schema.UserMessage(message),
	}

	out, err := r.model.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("error generating routing decision: %w", err)
	}

	names := r.parseDecision(out.Content)
	r.log.Debug().
		Strs("stages", names).
		Str("decision", out.Content).
		Msg("Routing decision parsed")
	return names, nil
}

func (r *Router) routingPrompt(state map[string]any) string {
	var b strings.Builder
	b.WriteString("You are the master content creation orchestrator. Decide which specialized agent(s) should handle the user's request and answer ONLY with their names, comma separated, in execution order.\n\nAvailable agents:\n")
	for _, name := range r.registry.Names() {
		def, _ := r.registry.Get(name)
		b.WriteString(fmt.Sprintf("- %s: %s\n", name, def.Description))
	}

	b.WriteString("\nSession already contains: ")
	keys := presentKeys(state)
	if len(keys) == 0 {
		b.WriteString("nothing yet")
	} else {
		b.WriteString(strings.Join(keys, ", "))
	}
	b.WriteString("\nDefault progression: ideas -> outline -> draft -> feedback -> seo. When the user asks to continue, pick the next step not yet present. For chat or feedback requests always pick PersonaFeedbackAgent.")
	return b.String()
}

// parseDecision extracts known stage names from the model's answer,
// preserving their order of appearance and dropping duplicates.
func (r *Router) parseDecision(content string) []string {
	lowered := strings.ToLower(content)

	type hit struct {
		pos  int
		name string
	}
	var hits []hit
	for _, name := range r.registry.Names() {
		if pos := strings.Index(lowered, strings.ToLower(name)); pos >= 0 {
			hits = append(hits, hit{pos: pos, name: name})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	names := make([]string, 0, len(hits))
	for _, h := range hits {
		names = append(names, h.name)
	}
	return names
}

var stageKeywords = []struct {
	stage    string
	keywords []string
}{
	{"IdeateAgent", []string{"idea", "ideas", "brainstorm", "concept", "concepts"}},
	{"OutlineAgent", []string{"outline", "structure", "organize", "organise"}},
	{"DraftAgent", []string{"draft", "write", "compose", "develop the outline"}},
	{"PersonaFeedbackAgent", []string{"feedback", "review", "critique", "opinion", "improve", "suggestions"}},
	{"SEOAgent", []string{"seo", "keyword", "keywords", "search engine", "ranking"}},
}

// heuristicRoute matches stage keywords in the message; with no match the
// registry's default progression decides.
func (r *Router) heuristicRoute(state map[string]any, message string) []string {
	lowered := strings.ToLower(message)

	var names []string
	for _, entry := range stageKeywords {
		for _, keyword := range entry.keywords {
			if strings.Contains(lowered, keyword) {
				names = append(names, entry.stage)
				break
			}
		}
	}
	if len(names) == 0 {
		names = []string{r.registry.NextStage(state)}
	}
	return names
}

func (r *Router) cap(names []string) []string {
	if len(names) > r.maxStages {
		return names[:r.maxStages]
	}
	return names
}

func presentKeys(state map[string]any) []string {
	keys := make([]string, 0, len(state))
	for key := range state {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
