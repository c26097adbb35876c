package session

import (
	"fmt"
	"strings"

	"content_pipeline_poc/pkg"
)

// FallbackResponse is returned when a stream ends without a terminal event
// carrying text.
const FallbackResponse = "I'm processing your request, but didn't receive a complete response. Please try again."

func errorResponse(err error) string {
	return fmt.Sprintf("An error occurred: %v. Please try again.", err)
}

// ConsumeTurn aggregates one turn's event stream into a TurnReport. It never
// fails: a stream error mid-turn degrades to a report carrying the error
// message, zeroed counters and empty lists.
//
// Per event: the agent is recorded on first appearance; a flow entry mirrors
// the event; events with non-empty extracted text from any agent except the
// synthetic user agent count as one LLM call attributed to that agent; a
// transfer directive adds a synthetic flow entry after the event's own. The
// loop halts at the first terminal event with non-empty text, whose text
// becomes the turn's response.
func ConsumeTurn(stream pkg.EventStream) *pkg.TurnReport {
	report := newReport()
	seen := make(map[string]bool)
	finalResponse := ""

	for event, err := range stream {
		if err != nil {
			degraded := newReport()
			degraded.Response = errorResponse(err)
			degraded.Summary = pkg.TurnSummary{AgentsWithLLMCalls: []string{}}
			return degraded
		}
		if event == nil {
			continue
		}

		if !seen[event.Agent] {
			seen[event.Agent] = true
			report.AgentsCalled = append(report.AgentsCalled, pkg.AgentActivation{
				AgentName: event.Agent,
				FirstSeen: event.Timestamp,
				Branch:    event.Branch,
			})
		}

		report.ExecutionFlow = append(report.ExecutionFlow, pkg.FlowEntry{
			Kind:         pkg.FlowEvent,
			AgentName:    event.Agent,
			InvocationID: event.InvocationID,
			Branch:       event.Branch,
			EventID:      event.ID,
			Timestamp:    event.Timestamp,
		})

		text := event.Payload.ExtractText()
		if text != "" && event.Agent != pkg.UserStage {
			report.TotalLLMCalls++
			report.LLMCalls = append(report.LLMCalls, pkg.CallRecord{
				CallNumber:       report.TotalLLMCalls,
				AgentName:        event.Agent,
				Timestamp:        event.Timestamp,
				EventID:          event.ID,
				InvocationID:     event.InvocationID,
				HasFunctionCalls: len(event.FunctionCalls) > 0,
				FunctionCalls:    event.FunctionCalls,
				ContentLength:    len(text),
				IsFinal:          event.Final,
			})

			stats, tracked := report.CallStats[event.Agent]
			if !tracked {
				stats = &pkg.AgentCallStats{
					FirstCall: event.Timestamp,
					LastCall:  event.Timestamp,
				}
				report.CallStats[event.Agent] = stats
				report.StatsOrder = append(report.StatsOrder, event.Agent)
			}
			stats.TotalCalls++
			stats.TotalContentLength += len(text)
			stats.LastCall = event.Timestamp
			if len(event.FunctionCalls) > 0 {
				stats.FunctionCalls++
			}
		}

		if event.TransferTo != "" {
			report.ExecutionFlow = append(report.ExecutionFlow, pkg.FlowEntry{
				Kind:      pkg.FlowTransfer,
				FromAgent: event.Agent,
				ToAgent:   event.TransferTo,
				Timestamp: event.Timestamp,
			})
		}

		if event.Final && text != "" {
			finalResponse = strings.TrimSpace(text)
			break
		}
	}

	if finalResponse == "" {
		finalResponse = FallbackResponse
	}
	report.Response = finalResponse
	report.TotalAgents = len(report.AgentsCalled)
	report.Summary = summarize(report)
	return report
}

func newReport() *pkg.TurnReport {
	return &pkg.TurnReport{
		AgentsCalled:  []pkg.AgentActivation{},
		ExecutionFlow: []pkg.FlowEntry{},
		LLMCalls:      []pkg.CallRecord{},
		CallStats:     make(map[string]*pkg.AgentCallStats),
	}
}

// summarize picks the most active agent: strictly highest call count, ties
// broken by encounter order.
func summarize(report *pkg.TurnReport) pkg.TurnSummary {
	mostActive := ""
	best := 0
	for _, name := range report.StatsOrder {
		if stats := report.CallStats[name]; stats.TotalCalls > best {
			best = stats.TotalCalls
			mostActive = name
		}
	}
	return pkg.TurnSummary{
		TotalAgentsUsed:    len(report.AgentsCalled),
		TotalLLMCalls:      report.TotalLLMCalls,
		AgentsWithLLMCalls: append([]string{}, report.StatsOrder...),
		MostActiveAgent:    mostActive,
	}
}
