// internal/search/scan.go
package search

// Phase is the state of one frequency's scan.
type Phase uint8

const (
	Scanning Phase = iota
	FoundPhase
	ExhaustedPhase
)

func (p Phase) String() string {
	switch p {
	case FoundPhase:
		return "FOUND"
	case ExhaustedPhase:
		return "EXHAUSTED"
	default:
		return "SCANNING"
	}
}

// ScanState is the position of a scan over the amplitude ladder.
// Index is the rung being played while Scanning and the detected rung once Found.
type ScanState struct {
	Phase Phase
	Index int
}

// StartScan returns the state for the quietest rung. An empty ladder is
// exhausted before any trial.
func StartScan(ladderLen int) ScanState {
	if ladderLen <= 0 {
		return ScanState{Phase: ExhaustedPhase}
	}
	return ScanState{Phase: Scanning, Index: 0}
}

// Done reports whether the scan has resolved.
func (s ScanState) Done() bool { return s.Phase != Scanning }

// Advance applies one response. It has no side effects: Invalid (and any
// response after the scan resolved) returns s unchanged.
func (s ScanState) Advance(r Response, ladderLen int) ScanState {
	if s.Phase != Scanning {
		return s
	}
	switch r {
	case Detected:
		return ScanState{Phase: FoundPhase, Index: s.Index}
	case NotDetected:
		next := s.Index + 1
		if next >= ladderLen {
			return ScanState{Phase: ExhaustedPhase, Index: next}
		}
		return ScanState{Phase: Scanning, Index: next}
	default:
		return s
	}
}

// Threshold converts a resolved state to a curve entry.
func (s ScanState) Threshold(amplitudeAt func(int) float64) Threshold {
	switch s.Phase {
	case FoundPhase:
		return Threshold{Status: Found, LadderIndex: s.Index, Amplitude: amplitudeAt(s.Index)}
	case ExhaustedPhase:
		return Threshold{Status: Exhausted, LadderIndex: -1}
	default:
		return Threshold{Status: Unmeasured, LadderIndex: -1}
	}
}
