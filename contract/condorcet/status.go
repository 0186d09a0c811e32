package condorcet

import "fmt"

// Status captures a proposal's lifecycle. Everything except StatusOpen is terminal.
type Status uint8

const (
	StatusOpen            Status = 0
	StatusRejected        Status = 1
	StatusPassed          Status = 2
	StatusExecuted        Status = 3
	StatusClosed          Status = 4
	StatusExecutionFailed Status = 5
)

// String prints the status as lower-case text for events and queries.
// Example payload: condorcet.StatusExecutionFailed.String()
func (s Status) String() string {
	switch s {
	case StatusOpen:
		return "open"
	case StatusRejected:
		return "rejected"
	case StatusPassed:
		return "passed"
	case StatusExecuted:
		return "executed"
	case StatusClosed:
		return "closed"
	case StatusExecutionFailed:
		return "execution_failed"
	default:
		return "unknown"
	}
}

// ParseStatus is the reverse of Status.String.
func ParseStatus(s string) (Status, error) {
	for st := StatusOpen; st <= StatusExecutionFailed; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return StatusOpen, fmt.Errorf("unknown proposal status %q", s)
}

// IsTerminal is true once the status can no longer be derived from the tally.
func (s Status) IsTerminal() bool {
	return s != StatusOpen
}
