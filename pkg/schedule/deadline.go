package schedule

import (
	"math"
	"time"
)

// Deadline reports how much of the current turn remains. A turn may continue
// working while TimeRemaining is positive.
type Deadline interface {
	TimeRemaining() time.Duration
}

type unlimited struct{}

func (unlimited) TimeRemaining() time.Duration { return time.Duration(math.MaxInt64) }

// Unlimited never expires.
var Unlimited Deadline = unlimited{}

type budget struct {
	end time.Time
	now func() time.Time
}

func (b budget) TimeRemaining() time.Duration {
	return b.end.Sub(b.now())
}

// Budget returns a deadline that expires d after the call.
func Budget(d time.Duration) Deadline {
	return budget{end: time.Now().Add(d), now: time.Now}
}

// Steps is a deadline that allows a fixed number of TimeRemaining checks to
// succeed. It makes yield points deterministic in tests.
type Steps struct {
	left int
}

// NewSteps returns a deadline that reports time remaining n times.
func NewSteps(n int) *Steps {
	return &Steps{left: n}
}

// TimeRemaining implements Deadline.
func (s *Steps) TimeRemaining() time.Duration {
	if s.left <= 0 {
		return 0
	}
	s.left--
	return time.Millisecond
}
