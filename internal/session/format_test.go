package session

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatCallStatsNilReport(t *testing.T) {
	assert.Equal(t, "No LLM call statistics available.", FormatCallStats(nil))
}

func TestFormatCallStatsRendersTotals(t *testing.T) {
	report := ConsumeTurn(streamOf(
		textEvent("IdeateAgent", "a", 0, false),
		textEvent("DraftAgent", "bb", 1, false),
		textEvent("DraftAgent", "cc", 2, true),
	))

	out := FormatCallStats(report)

	assert.Contains(t, out, "Total LLM Calls: 3")
	assert.Contains(t, out, "Most Active Agent: DraftAgent")
	assert.Contains(t, out, "Agent: IdeateAgent")
	assert.Contains(t, out, "Agent: DraftAgent")
	assert.Contains(t, out, "#1 - IdeateAgent")
	assert.Contains(t, out, "#3 - DraftAgent")
}

func TestFormatCallStatsSortsByDescendingCalls(t *testing.T) {
	report := ConsumeTurn(streamOf(
		textEvent("IdeateAgent", "a", 0, false),
		textEvent("DraftAgent", "b", 1, false),
		textEvent("DraftAgent", "c", 2, false),
	))

	out := FormatCallStats(report)

	draft := strings.Index(out, "Agent: DraftAgent")
	ideate := strings.Index(out, "Agent: IdeateAgent")
	assert.Greater(t, ideate, draft, "agent with more calls should render first")
}

func TestFormatCallStatsEmptyTurn(t *testing.T) {
	report := ConsumeTurn(streamOf())

	out := FormatCallStats(report)

	assert.Contains(t, out, "Total LLM Calls: 0")
	assert.Contains(t, out, "Most Active Agent: None")
	assert.NotContains(t, out, "Per-Agent Statistics")
}
