package condorcet

import "fmt"

// WinnerKind tags the Winner variant. The zero value is WinnerNone.
type WinnerKind uint8

const (
	// WinnerNone means nobody leads yet but someone still could.
	WinnerNone WinnerKind = 0
	// WinnerNever means no candidate can become a Condorcet winner with the power left.
	WinnerNever WinnerKind = 1
	// WinnerSome means a candidate currently beats all others but could be overturned.
	WinnerSome WinnerKind = 2
	// WinnerUndisputed means the leader's weakest margin exceeds all outstanding power.
	WinnerUndisputed WinnerKind = 3
)

// String prints the kind as lower-case text for events and queries.
func (k WinnerKind) String() string {
	switch k {
	case WinnerNever:
		return "never"
	case WinnerSome:
		return "some"
	case WinnerUndisputed:
		return "undisputed"
	default:
		return "none"
	}
}

// ParseWinnerKind is the reverse of WinnerKind.String.
func ParseWinnerKind(s string) (WinnerKind, error) {
	switch s {
	case "none":
		return WinnerNone, nil
	case "never":
		return WinnerNever, nil
	case "some":
		return WinnerSome, nil
	case "undisputed":
		return WinnerUndisputed, nil
	}
	return WinnerNone, fmt.Errorf("unknown winner kind %q", s)
}

// Winner is the cached classification of a tally. Candidate is only meaningful for
// WinnerSome and WinnerUndisputed.
type Winner struct {
	Kind      WinnerKind
	Candidate uint32
}

func NoWinner() Winner { return Winner{Kind: WinnerNone} }

func NeverWinner() Winner { return Winner{Kind: WinnerNever} }

func SomeWinner(c uint32) Winner { return Winner{Kind: WinnerSome, Candidate: c} }

func UndisputedWinner(c uint32) Winner { return Winner{Kind: WinnerUndisputed, Candidate: c} }

// Leader returns the candidate and true for WinnerSome and WinnerUndisputed.
func (w Winner) Leader() (uint32, bool) {
	switch w.Kind {
	case WinnerSome, WinnerUndisputed:
		return w.Candidate, true
	}
	return 0, false
}

// Final reports whether no further ballot can change the classification.
func (w Winner) Final() bool {
	return w.Kind == WinnerNever || w.Kind == WinnerUndisputed
}

// String yields "some(2)", "undisputed(0)", "none" or "never".
func (w Winner) String() string {
	if c, ok := w.Leader(); ok {
		return fmt.Sprintf("%s(%d)", w.Kind, c)
	}
	return w.Kind.String()
}
