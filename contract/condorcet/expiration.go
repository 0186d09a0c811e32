package condorcet

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"condorcet_dao/sdk"
)

// ExpirationKind tags an Expiration.
type ExpirationKind uint8

const (
	ExpiresNever    ExpirationKind = 0
	ExpiresAtHeight ExpirationKind = 1
	ExpiresAtTime   ExpirationKind = 2
)

// Expiration is a point in chain height or block time. AtTime keeps unix nanoseconds.
type Expiration struct {
	Kind  ExpirationKind
	Value uint64
}

func Never() Expiration { return Expiration{Kind: ExpiresNever} }

func AtHeight(h uint64) Expiration { return Expiration{Kind: ExpiresAtHeight, Value: h} }

// MaxDurationSeconds is the longest time period, the largest span a time.Duration can hold.
const MaxDurationSeconds = uint64(math.MaxInt64 / int64(time.Second))

var (
	minExpirationTime = time.Unix(0, 0).UTC()
	maxExpirationTime = time.Unix(0, math.MaxInt64).UTC()
)

// AtTime expires at t. Only instants between 1970 and 2262 fit the nanosecond encoding.
func AtTime(t time.Time) (Expiration, error) {
	if t.Before(minExpirationTime) || t.After(maxExpirationTime) {
		return Expiration{}, fmt.Errorf("%w: expiration time %s out of range", ErrArithmetic, t.UTC().Format(time.RFC3339))
	}
	return Expiration{Kind: ExpiresAtTime, Value: uint64(t.UnixNano())}, nil
}

// MustAtTime is AtTime for literals in tests and examples.
func MustAtTime(t time.Time) Expiration {
	e, err := AtTime(t)
	if err != nil {
		panic(err)
	}
	return e
}

// IsExpired is inclusive: a proposal ending at height 10 is expired in block 10.
func (e Expiration) IsExpired(block sdk.BlockInfo) bool {
	switch e.Kind {
	case ExpiresAtHeight:
		return block.Height >= e.Value
	case ExpiresAtTime:
		return !block.Time.Before(e.Time())
	default:
		return false
	}
}

// Time returns the expiry instant for AtTime expirations.
func (e Expiration) Time() time.Time {
	return time.Unix(0, int64(e.Value)).UTC()
}

func (e Expiration) String() string {
	switch e.Kind {
	case ExpiresAtHeight:
		return "height:" + strconv.FormatUint(e.Value, 10)
	case ExpiresAtTime:
		return "time:" + e.Time().Format(time.RFC3339Nano)
	default:
		return "never"
	}
}

// DurationKind tags a Duration.
type DurationKind uint8

const (
	DurationHeight DurationKind = 0
	DurationTime   DurationKind = 1
)

// Duration is a voting period in blocks or seconds.
type Duration struct {
	Kind  DurationKind
	Value uint64
}

func Height(blocks uint64) Duration { return Duration{Kind: DurationHeight, Value: blocks} }

func Time(seconds uint64) Duration { return Duration{Kind: DurationTime, Value: seconds} }

// After turns the duration into an expiration counted from the given block. It fails with
// ErrArithmetic when the end does not fit, it never wraps.
// Example payload: Height(100).After(env.Block) expires at env.Block.Height+100
func (d Duration) After(block sdk.BlockInfo) (Expiration, error) {
	if d.Kind == DurationTime {
		if d.Value > MaxDurationSeconds {
			return Expiration{}, fmt.Errorf("%w: %s period", ErrArithmetic, d)
		}
		return AtTime(block.Time.Add(time.Duration(d.Value) * time.Second))
	}
	if d.Value > math.MaxUint64-block.Height {
		return Expiration{}, fmt.Errorf("%w: %s after height %d", ErrArithmetic, d, block.Height)
	}
	return AtHeight(block.Height + d.Value), nil
}

// Validate rejects zero durations, unknown kinds and time periods longer than MaxDurationSeconds.
func (d Duration) Validate() error {
	if d.Kind != DurationHeight && d.Kind != DurationTime {
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidDuration, d.Kind)
	}
	if d.Value == 0 {
		return fmt.Errorf("%w: zero %s", ErrInvalidDuration, d)
	}
	if d.Kind == DurationTime && d.Value > MaxDurationSeconds {
		return fmt.Errorf("%w: %s is longer than %ds", ErrInvalidDuration, d, MaxDurationSeconds)
	}
	return nil
}

func (d Duration) String() string {
	if d.Kind == DurationTime {
		return strconv.FormatUint(d.Value, 10) + "s"
	}
	return strconv.FormatUint(d.Value, 10) + " blocks"
}

// ValidateMinPeriod checks that a minimum voting period uses the same unit as the voting period
// and is not longer than it.
func ValidateMinPeriod(minPeriod *Duration, period Duration) error {
	if minPeriod == nil {
		return nil
	}
	if minPeriod.Kind != period.Kind {
		return fmt.Errorf("%w: min voting period %s and voting period %s use different units", ErrInvalidDuration, *minPeriod, period)
	}
	if minPeriod.Value > period.Value {
		return fmt.Errorf("%w: min voting period %s is longer than voting period %s", ErrInvalidDuration, *minPeriod, period)
	}
	return nil
}
