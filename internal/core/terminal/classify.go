package terminal

import (
	"cmp"
	"slices"
	"strconv"
)

// Signals are the inputs the classifier derives a status from.
type Signals struct {
	Focused       bool // terminal is the host's active terminal
	Managed       bool
	ClaudeRunning bool
	OutputActive  bool // an output burst is inside its debounce window
	Interacted    bool
	Exited        bool
}

// Classify maps a terminal's signals to its display status. First match wins.
func Classify(s Signals) Status {
	switch {
	case s.Exited:
		return StatusExited
	case s.Focused:
		return StatusActive
	case s.Managed && s.ClaudeRunning && s.OutputActive:
		return StatusActive
	case s.Managed && s.ClaudeRunning:
		return StatusPending
	case s.Managed:
		return StatusIdle
	default:
		// Interaction history does not promote plain shells.
		return StatusPlain
	}
}

// SortForDisplay returns the terminals ordered for presentation: managed
// terminals first, then each group by creation time. Ties fall back to id.
func SortForDisplay(terms []Terminal) []Terminal {
	out := slices.Clone(terms)
	slices.SortStableFunc(out, func(a, b Terminal) int {
		if a.Managed != b.Managed {
			if a.Managed {
				return -1
			}
			return 1
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return compareIDs(a.ID, b.ID)
	})
	return out
}

// compareIDs orders numeric ids by value and anything else lexically.
func compareIDs(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return cmp.Compare(ai, bi)
	}
	return cmp.Compare(a, b)
}
