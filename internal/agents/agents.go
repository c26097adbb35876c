package agents

import (
	"context"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"content_pipeline_poc/pkg"
)

// OrchestratorName is the stage name used for routing events.
const OrchestratorName = "OrchestratorAgent"

// ChatModel is the subset of the eino chat model surface the pipeline needs.
// *openai.ChatModel satisfies it; tests supply a stub.
type ChatModel interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Definition describes one content-creation stage: which artifact keys it
// reads, the single key it writes, and the instruction driving its model call.
type Definition struct {
	Name        string
	Description string
	Instruction string
	ReadKeys    []string
	OutputKey   string
}

// The five pipeline stages in default progression order.
var definitions = []Definition{
	{
		Name:        "IdeateAgent",
		Description: "Generates creative ideas based on user input and topic analysis",
		Instruction: `You are an expert idea generator. Given a topic or theme, produce 3-5 creative, concrete ideas with a one-line explanation each. Consider different angles and the target audience when the user describes one. Format the response as a structured list with idea titles and keep the whole answer under 160 words.`,
		OutputKey:   pkg.KeyGeneratedIdeas,
	},
	{
		Name:        "OutlineAgent",
		Description: "Creates structured outlines from ideas or user-provided concepts",
		Instruction: `You are a professional content structuring expert. Build a hierarchical outline with clear main sections, one or two supporting points per section, and suggested introduction and conclusion approaches. Work from the user's idea, from previously generated ideas, or refine an existing outline when one is provided. Keep the outline under 250 words.`,
		ReadKeys:    []string{pkg.KeyGeneratedIdeas, pkg.KeyContentOutline},
		OutputKey:   pkg.KeyContentOutline,
	},
	{
		Name:        "DraftAgent",
		Description: "Creates full content drafts based on structured outlines",
		Instruction: `You are an experienced content writer. Turn the provided outline into a complete draft: a hook introduction, well-developed body sections following the outline, smooth transitions, and a strong conclusion. If an earlier draft and user suggestions are provided, revise it instead of starting over. Match length to the format: blog post 600-700 words, LinkedIn post 200-350, tweet 80-120. Write in a natural, conversational style unless told otherwise.`,
		ReadKeys:    []string{pkg.KeyContentOutline, pkg.KeyContentDraft},
		OutputKey:   pkg.KeyContentDraft,
	},
	{
		Name:        "PersonaFeedbackAgent",
		Description: "Provides expert feedback on content and engages in professional dialogue",
		Instruction: `You are an expert content reviewer with deep domain knowledge. When a draft is provided, give a structured, point-based assessment: overall quality, specific strengths, areas for improvement, and concrete suggestions, in 220-360 words. Without a draft, act as a subject-matter expert in conversation: give thoughtful advice and ask clarifying questions. Always be constructive and specific.`,
		ReadKeys:    []string{pkg.KeyContentDraft},
		OutputKey:   pkg.KeyExpertFeedback,
	},
	{
		Name:        "SEOAgent",
		Description: "Optimizes content for search engines while maintaining quality and readability",
		Instruction: `You are an SEO optimization specialist. Analyze the provided content for keyword opportunities, structure, and readability, then produce an optimized version: improved title and headings, meta description recommendation, natural keyword integration, and header-structure advice. Use white-hat practices only and keep the writing readable.`,
		ReadKeys:    []string{pkg.KeyContentDraft, pkg.KeyExpertFeedback},
		OutputKey:   pkg.KeySEOOptimizedContent,
	},
}

// Registry is the fixed, ordered set of pipeline stages.
type Registry struct {
	order  []string
	byName map[string]Definition
}

// NewRegistry creates the registry with the default five stages
func NewRegistry() *Registry {
	r := &Registry{
		byName: make(map[string]Definition, len(definitions)),
	}
	for _, def := range definitions {
		r.order = append(r.order, def.Name)
		r.byName[def.Name] = def
	}
	return r
}

// Get returns the definition for a stage name
func (r *Registry) Get(name string) (Definition, bool) {
	def, ok := r.byName[name]
	return def, ok
}

// Names returns the stage names in pipeline order
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// NextStage returns the default next stage given the current artifact keys:
// the first stage in pipeline order whose output key is absent. When the
// whole pipeline has run, feedback is the natural continuation (chat mode).
func (r *Registry) NextStage(state map[string]any) string {
	for _, name := range r.order {
		def := r.byName[name]
		if _, done := state[def.OutputKey]; !done {
			return name
		}
	}
	return "PersonaFeedbackAgent"
}
