package tabs

import (
	"errors"
	"fmt"
)

// Outcome reports what a best-effort step did.
type Outcome int

const (
	// Skipped means the step decided there was nothing to do, or gave up.
	Skipped Outcome = iota
	// Applied means every command of the step was accepted by the host.
	Applied
	// Vanished means a tab or group disappeared before the step finished.
	Vanished
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Vanished:
		return "vanished"
	default:
		return "skipped"
	}
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

func (o *Outcome) UnmarshalText(b []byte) error {
	switch string(b) {
	case "applied":
		*o = Applied
	case "vanished":
		*o = Vanished
	case "skipped":
		*o = Skipped
	default:
		return fmt.Errorf("unknown outcome %q", b)
	}
	return nil
}

// OutcomeOf classifies a failed host call.
func OutcomeOf(err error) Outcome {
	if err == nil {
		return Applied
	}
	if IsVanished(err) {
		return Vanished
	}
	return Skipped
}

// IsVanished reports whether err says the referenced tab or group is gone.
func IsVanished(err error) bool {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code == CodeTargetVanished
	}
	return false
}
