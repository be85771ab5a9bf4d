package schedule

import "errors"

var (
	// ErrLoopClosed is returned when work is posted to a stopped loop.
	ErrLoopClosed = errors.New("schedule: loop closed")

	// ErrLoopRunning is returned when Run is called on a loop that is
	// already running.
	ErrLoopRunning = errors.New("schedule: loop already running")

	// ErrTurnLimit is returned by Manual.Run when turns keep being requested
	// past the configured limit.
	ErrTurnLimit = errors.New("schedule: turn limit exceeded")
)

// Turn is the callback a driver invokes to grant a turn.
type Turn func(Deadline)

// Driver grants turns to a scheduler.
type Driver interface {
	// RequestTurn asks for fn to be called on a future turn. Drivers call
	// each requested fn once per request.
	RequestTurn(fn Turn)
}
