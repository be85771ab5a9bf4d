package schedule

// Manual is a Driver whose turns run only when Step or Run is called.
// It is not safe for concurrent use.
type Manual struct {
	queue    []Turn
	deadline func() Deadline
	maxTurns int
	turns    int
}

// ManualOption configures a Manual driver.
type ManualOption func(*Manual)

// WithDeadline sets the factory producing each turn's deadline. The default
// grants unlimited time.
func WithDeadline(fn func() Deadline) ManualOption {
	return func(m *Manual) {
		m.deadline = fn
	}
}

// WithStepsPerTurn limits every turn to n units of work.
func WithStepsPerTurn(n int) ManualOption {
	return WithDeadline(func() Deadline { return NewSteps(n) })
}

// WithMaxTurns bounds Run. Zero means 10000.
func WithMaxTurns(n int) ManualOption {
	return func(m *Manual) {
		m.maxTurns = n
	}
}

// NewManual creates a Manual driver.
func NewManual(opts ...ManualOption) *Manual {
	m := &Manual{
		deadline: func() Deadline { return Unlimited },
		maxTurns: 10000,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.maxTurns <= 0 {
		m.maxTurns = 10000
	}
	return m
}

// RequestTurn implements Driver.
func (m *Manual) RequestTurn(fn Turn) {
	m.queue = append(m.queue, fn)
}

// Pending reports whether a turn is queued.
func (m *Manual) Pending() bool {
	return len(m.queue) > 0
}

// Turns returns how many turns have run.
func (m *Manual) Turns() int {
	return m.turns
}

// Step runs the turns queued at the time of the call and reports whether any
// ran. Turns requested while stepping run on the next Step.
func (m *Manual) Step() bool {
	if len(m.queue) == 0 {
		return false
	}
	queued := m.queue
	m.queue = nil
	for _, fn := range queued {
		m.turns++
		fn(m.deadline())
	}
	return true
}

// Run steps until no turn is queued.
func (m *Manual) Run() error {
	start := m.turns
	for m.Step() {
		if m.turns-start > m.maxTurns {
			return ErrTurnLimit
		}
	}
	return nil
}
