package orchestrator

import "fmt"

// Stage identifies one step of a run.
type Stage int

const (
	StageDecompose Stage = iota
	StageAnswer
	StageSynthesize
	StageExecute
)

func (s Stage) String() string {
	names := [...]string{
		"decompose",
		"answer",
		"synthesize",
		"execute",
	}
	if int(s) < 0 || int(s) >= len(names) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return names[s]
}

// ProgressStatus is the state of a section within a stage.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)

// ProgressEvent reports a change in one section of a run. For the answer
// stage the section is the sub-question.
type ProgressEvent struct {
	RequestID string
	Stage     Stage
	Section   string
	Status    ProgressStatus
	Message   string
}

// ProgressFunc receives progress events. It is called from the run's own
// goroutines and must not block for long.
type ProgressFunc func(ProgressEvent)

// FormatProgress formats a ProgressEvent as a human-readable status line.
func FormatProgress(event ProgressEvent) string {
	label := event.Stage.String()
	if event.Section != "" {
		label += ": " + event.Section
	}
	switch event.Status {
	case ProgressPending:
		return fmt.Sprintf("  ○ %s (pending)", label)
	case ProgressWorking:
		return fmt.Sprintf("  ● %s...", label)
	case ProgressComplete:
		return fmt.Sprintf("  ✓ %s complete", label)
	case ProgressFailed:
		return fmt.Sprintf("  ✗ %s failed: %s", label, event.Message)
	default:
		return fmt.Sprintf("  ? %s (unknown status)", label)
	}
}
