// Package outcome classifies the result of processing one video into the
// terminal status recorded in the resume log.
package outcome

// Reason explains why a video resolved the way it did.
type Reason string

const (
	ReasonProcessed          Reason = "Processed"
	ReasonTimedOutProcessed  Reason = "TimedOutProcessed"
	ReasonNoFrames           Reason = "NoFrames"
	ReasonVlcFailed          Reason = "VlcFailed"
	ReasonErrorDuringCapture Reason = "ErrorDuringCapture"
	ReasonUnknownFailure     Reason = "UnknownFailure"
)

// Outcome is the resolved (processed, reason) pair for one video.
type Outcome struct {
	Processed bool
	Reason    Reason
}

// Resolve classifies a capture result. A per-video time-limit hit always
// counts as processed; partial output is still useful. Otherwise success
// requires no errors, a zero exit code, and at least one frame.
func Resolve(hadFrames bool, exitCode int, timedOut bool, hadErrors bool) Outcome {
	if timedOut {
		return Outcome{Processed: true, Reason: ReasonTimedOutProcessed}
	}
	if !hadErrors && exitCode == 0 && hadFrames {
		return Outcome{Processed: true, Reason: ReasonProcessed}
	}
	// First applicable reason wins.
	switch {
	case !hadFrames:
		return Outcome{Reason: ReasonNoFrames}
	case exitCode != 0:
		return Outcome{Reason: ReasonVlcFailed}
	case hadErrors:
		return Outcome{Reason: ReasonErrorDuringCapture}
	default:
		return Outcome{Reason: ReasonUnknownFailure}
	}
}
