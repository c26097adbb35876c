package session

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"content_pipeline_poc/pkg"
)

// FormatCallStats renders a turn report as a human-readable multi-line
// summary: totals, per-agent statistics sorted by descending call count, and
// the individual call list.
func FormatCallStats(report *pkg.TurnReport) string {
	if report == nil {
		return "No LLM call statistics available."
	}

	var out []string
	out = append(out, strings.Repeat("=", 60))
	out = append(out, "🤖 LLM CALL STATISTICS")
	out = append(out, strings.Repeat("=", 60))
	out = append(out, fmt.Sprintf("📊 Total LLM Calls: %d", report.TotalLLMCalls))
	out = append(out, fmt.Sprintf("🎯 Total Agents Used: %d", report.Summary.TotalAgentsUsed))
	mostActive := report.Summary.MostActiveAgent
	if mostActive == "" {
		mostActive = "None"
	}
	out = append(out, fmt.Sprintf("⭐ Most Active Agent: %s", mostActive))
	out = append(out, "")

	if len(report.CallStats) > 0 {
		out = append(out, "📋 Per-Agent Statistics:")
		out = append(out, strings.Repeat("-", 40))

		names := append([]string{}, report.StatsOrder...)
		sort.SliceStable(names, func(i, j int) bool {
			return report.CallStats[names[i]].TotalCalls > report.CallStats[names[j]].TotalCalls
		})

		for _, name := range names {
			stats := report.CallStats[name]
			out = append(out, fmt.Sprintf("\n🔹 Agent: %s", name))
			out = append(out, fmt.Sprintf("   • Total Calls: %d", stats.TotalCalls))
			out = append(out, fmt.Sprintf("   • Function Calls: %d", stats.FunctionCalls))
			out = append(out, fmt.Sprintf("   • Total Content Length: %d chars", stats.TotalContentLength))
			out = append(out, fmt.Sprintf("   • First Call: %s", formatTimestamp(stats.FirstCall)))
			out = append(out, fmt.Sprintf("   • Last Call: %s", formatTimestamp(stats.LastCall)))
		}
	}

	if len(report.LLMCalls) > 0 {
		out = append(out, "\n"+strings.Repeat("=", 60))
		out = append(out, "📞 Individual LLM Calls:")
		out = append(out, strings.Repeat("=", 60))

		for _, call := range report.LLMCalls {
			out = append(out, fmt.Sprintf("\n#%d - %s", call.CallNumber, call.AgentName))
			out = append(out, fmt.Sprintf("   • Event ID: %s", call.EventID))
			out = append(out, fmt.Sprintf("   • Content Length: %d chars", call.ContentLength))
			out = append(out, fmt.Sprintf("   • Has Function Calls: %v", call.HasFunctionCalls))
			if len(call.FunctionCalls) > 0 {
				out = append(out, fmt.Sprintf("   • Functions: %s", strings.Join(call.FunctionCalls, ", ")))
			}
			out = append(out, fmt.Sprintf("   • Is Final Response: %v", call.IsFinal))
			out = append(out, fmt.Sprintf("   • Timestamp: %s", formatTimestamp(call.Timestamp)))
		}
	}

	out = append(out, "\n"+strings.Repeat("=", 60))
	return strings.Join(out, "\n")
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.RFC3339)
}
