package session

import (
	"content_pipeline_poc/pkg"
)

// Workflow step labels in descending precedence: a later pipeline stage's
// artifact outranks every earlier one, whether or not the earlier ones exist.
const (
	StepCompleted        = "completed"
	StepFeedbackReceived = "feedback_received"
	StepDraftCompleted   = "draft_completed"
	StepOutlineReady     = "outline_ready"
	StepIdeasGenerated   = "ideas_generated"
	StepStarting         = "starting"
)

// StatusFromState derives the workflow status for an artifact snapshot. It
// is a pure projection: calling it twice on the same state yields identical
// records.
func StatusFromState(state map[string]any) pkg.WorkflowStatus {
	available := make([]string, 0, len(state))
	for key := range state {
		available = append(available, key)
	}

	return pkg.WorkflowStatus{
		IdeasGenerated:   hasKey(state, pkg.KeyGeneratedIdeas),
		OutlineCreated:   hasKey(state, pkg.KeyContentOutline),
		DraftWritten:     hasKey(state, pkg.KeyContentDraft),
		FeedbackReceived: hasKey(state, pkg.KeyExpertFeedback),
		SEOOptimized:     hasKey(state, pkg.KeySEOOptimizedContent),
		CurrentStep:      currentStep(state),
		AvailableData:    available,
	}
}

func currentStep(state map[string]any) string {
	switch {
	case hasKey(state, pkg.KeySEOOptimizedContent):
		return StepCompleted
	case hasKey(state, pkg.KeyExpertFeedback):
		return StepFeedbackReceived
	case hasKey(state, pkg.KeyContentDraft):
		return StepDraftCompleted
	case hasKey(state, pkg.KeyContentOutline):
		return StepOutlineReady
	case hasKey(state, pkg.KeyGeneratedIdeas):
		return StepIdeasGenerated
	default:
		return StepStarting
	}
}

func hasKey(state map[string]any, key string) bool {
	_, exists := state[key]
	return exists
}
