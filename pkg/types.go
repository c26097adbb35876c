package pkg

import (
	"fmt"
	"iter"
	"time"

	"github.com/bytedance/sonic"
)

// Artifact keys written by the pipeline stages. Presence of a key in a
// session's state means that stage has completed at least once; writes
// overwrite, they never append.
const (
	KeyGeneratedIdeas      = "generated_ideas"
	KeyContentOutline      = "content_outline"
	KeyContentDraft        = "content_draft"
	KeyExpertFeedback      = "expert_feedback"
	KeySEOOptimizedContent = "seo_optimized_content"
)

// ArtifactKeys lists all pipeline artifact keys in pipeline order.
var ArtifactKeys = []string{
	KeyGeneratedIdeas,
	KeyContentOutline,
	KeyContentDraft,
	KeyExpertFeedback,
	KeySEOOptimizedContent,
}

// UserStage is the synthetic author of the event carrying the user's message.
// Events from it never count as LLM calls.
const UserStage = "user"

// PayloadKind discriminates the payload union.
type PayloadKind int

const (
	PayloadNone PayloadKind = iota
	PayloadText
	PayloadFunctionResult
)

// Payload is what an event carries: direct text, a wrapped function result,
// or nothing. Exactly one variant is meaningful, selected by Kind.
type Payload struct {
	Kind   PayloadKind `json:"kind"`
	Text   string      `json:"text,omitempty"`
	Result any         `json:"result,omitempty"`
}

// TextPayload builds a direct-text payload.
func TextPayload(text string) *Payload {
	return &Payload{Kind: PayloadText, Text: text}
}

// FunctionResultPayload builds a payload wrapping a tool/function result.
func FunctionResultPayload(result any) *Payload {
	return &Payload{Kind: PayloadFunctionResult, Result: result}
}

// ExtractText resolves a payload to display text. Direct text is returned
// verbatim. A function result is unwrapped in precedence order: an "output"
// field, else a "result" field, else the raw value; structured values are
// serialized to canonical JSON, scalars coerced to text. Anything else
// yields "".
func (p *Payload) ExtractText() string {
	if p == nil {
		return ""
	}
	switch p.Kind {
	case PayloadText:
		return p.Text
	case PayloadFunctionResult:
		out := p.Result
		if m, ok := out.(map[string]any); ok {
			if v, exists := m["output"]; exists {
				out = v
			} else if v, exists := m["result"]; exists {
				out = v
			}
		}
		switch v := out.(type) {
		case nil:
			return ""
		case string:
			return v
		case map[string]any, []any:
			// sonic's std-compatible config sorts map keys, so the
			// serialization is stable across runs.
			text, err := sonic.ConfigStd.MarshalToString(v)
			if err != nil {
				return ""
			}
			return text
		default:
			return fmt.Sprint(v)
		}
	}
	return ""
}

// Event is one immutable record of the execution stream for a turn.
type Event struct {
	ID            string    `json:"event_id"`
	InvocationID  string    `json:"invocation_id"`
	Agent         string    `json:"agent_name"`
	Branch        string    `json:"branch,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
	Payload       *Payload  `json:"payload,omitempty"`
	FunctionCalls []string  `json:"function_calls,omitempty"`
	TransferTo    string    `json:"transfer_to,omitempty"`
	Final         bool      `json:"final"`
}

// EventStream is the ordered, finite event sequence produced while a turn
// runs. A non-nil error terminates the stream.
type EventStream = iter.Seq2[*Event, error]

// AgentActivation records the first appearance of an agent in a turn.
type AgentActivation struct {
	AgentName string    `json:"agent_name"`
	FirstSeen time.Time `json:"first_seen"`
	Branch    string    `json:"branch,omitempty"`
}

// FlowEntryKind discriminates execution-flow entries.
type FlowEntryKind string

const (
	FlowEvent    FlowEntryKind = "event"
	FlowTransfer FlowEntryKind = "transfer"
)

// FlowEntry is one element of the flattened execution-flow log. Event entries
// mirror the originating event; transfer entries are synthetic records of a
// delegation between agents.
type FlowEntry struct {
	Kind         FlowEntryKind `json:"type"`
	AgentName    string        `json:"agent_name,omitempty"`
	InvocationID string        `json:"invocation_id,omitempty"`
	Branch       string        `json:"branch,omitempty"`
	EventID      string        `json:"event_id,omitempty"`
	FromAgent    string        `json:"from_agent,omitempty"`
	ToAgent      string        `json:"to_agent,omitempty"`
	Timestamp    time.Time     `json:"timestamp"`
}

// CallRecord describes one LLM call observed in the stream.
type CallRecord struct {
	CallNumber       int       `json:"call_number"`
	AgentName        string    `json:"agent_name"`
	Timestamp        time.Time `json:"timestamp"`
	EventID          string    `json:"event_id"`
	InvocationID     string    `json:"invocation_id"`
	HasFunctionCalls bool      `json:"has_function_calls"`
	FunctionCalls    []string  `json:"function_calls,omitempty"`
	ContentLength    int       `json:"content_length"`
	IsFinal          bool      `json:"is_final"`
}

// AgentCallStats aggregates the calls attributed to one agent in a turn.
type AgentCallStats struct {
	TotalCalls         int       `json:"total_calls"`
	FunctionCalls      int       `json:"function_calls"`
	TotalContentLength int       `json:"total_content_length"`
	FirstCall          time.Time `json:"first_call"`
	LastCall           time.Time `json:"last_call"`
}

// TurnSummary is the top-level roll-up of a turn.
type TurnSummary struct {
	TotalAgentsUsed    int      `json:"total_agents_used"`
	TotalLLMCalls      int      `json:"total_llm_calls"`
	AgentsWithLLMCalls []string `json:"agents_with_llm_calls"`
	MostActiveAgent    string   `json:"most_active_agent,omitempty"`
}

// TurnReport is everything derived from one turn's event stream.
type TurnReport struct {
	Response      string                     `json:"response"`
	AgentsCalled  []AgentActivation          `json:"agents_called"`
	ExecutionFlow []FlowEntry                `json:"execution_flow"`
	TotalAgents   int                        `json:"total_agents"`
	LLMCalls      []CallRecord               `json:"llm_calls"`
	TotalLLMCalls int                        `json:"total_llm_calls"`
	CallStats     map[string]*AgentCallStats `json:"llm_call_stats"`
	StatsOrder    []string                   `json:"-"`
	Summary       TurnSummary                `json:"summary"`
}

// WorkflowStatus is a pure projection of a session's artifact keys.
type WorkflowStatus struct {
	IdeasGenerated   bool     `json:"ideas_generated"`
	OutlineCreated   bool     `json:"outline_created"`
	DraftWritten     bool     `json:"draft_written"`
	FeedbackReceived bool     `json:"feedback_received"`
	SEOOptimized     bool     `json:"seo_optimized"`
	CurrentStep      string   `json:"current_step"`
	AvailableData    []string `json:"available_data"`
}
