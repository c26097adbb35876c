package conversation

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

// ContextStrategy turns stored messages into a prompt context block.
type ContextStrategy interface {
	BuildContext(messages []*schema.Message) string
	GetMaxTurns() int
}

// WindowStrategy keeps the most recent maxTurns messages.
type WindowStrategy struct {
	maxTurns int
}

// NewWindowStrategy creates a window strategy over the last maxTurns messages
func NewWindowStrategy(maxTurns int) *WindowStrategy {
	return &WindowStrategy{maxTurns: maxTurns}
}

func (s *WindowStrategy) GetMaxTurns() int {
	return s.maxTurns
}

func (s *WindowStrategy) BuildContext(messages []*schema.Message) string {
	recentMessages := trimTail(messages, s.maxTurns)

	var contextBuilder strings.Builder
	contextBuilder.WriteString("<conversation_context>\n")

	for _, msg := range recentMessages {
		switch msg.Role {
		case schema.User:
			contextBuilder.WriteString("UserMessage(" + msg.Content + ")\n")
		case schema.Assistant:
			contextBuilder.WriteString("AssistantMessage(" + msg.Content + ")\n")
		}
	}

	contextBuilder.WriteString("</conversation_context>")
	return contextBuilder.String()
}

func trimTail(messages []*schema.Message, maxTurns int) []*schema.Message {
	if maxTurns <= 0 || len(messages) <= maxTurns {
		return messages
	}
	return messages[len(messages)-maxTurns:]
}
