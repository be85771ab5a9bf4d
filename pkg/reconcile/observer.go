package reconcile

import "time"

// CommitStats summarizes the host work of one commit.
type CommitStats struct {
	Created   int
	Updated   int
	Placed    int
	Removed   int
	Mounted   int
	Unmounted int
}

// Observer receives scheduler events. Implementations must be cheap; they
// run on the scheduler goroutine.
type Observer interface {
	// WalkStarted is called when a new walk is armed.
	WalkStarted()

	// UnitPerformed is called after each unit of work. rendered reports
	// whether a component render ran.
	UnitPerformed(rendered bool)

	// Yielded is called when a turn ends with the walk unfinished.
	Yielded()

	// Committed is called after each commit.
	Committed(stats CommitStats, elapsed time.Duration, err error)

	// ListenerFailed is called for every recovered listener panic.
	ListenerFailed(kind string)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) WalkStarted()                                {}
func (NopObserver) UnitPerformed(bool)                          {}
func (NopObserver) Yielded()                                    {}
func (NopObserver) Committed(CommitStats, time.Duration, error) {}
func (NopObserver) ListenerFailed(string)                       {}

// Observers fans events out to several observers.
type Observers []Observer

func (o Observers) WalkStarted() {
	for _, x := range o {
		x.WalkStarted()
	}
}

func (o Observers) UnitPerformed(rendered bool) {
	for _, x := range o {
		x.UnitPerformed(rendered)
	}
}

func (o Observers) Yielded() {
	for _, x := range o {
		x.Yielded()
	}
}

func (o Observers) Committed(stats CommitStats, elapsed time.Duration, err error) {
	for _, x := range o {
		x.Committed(stats, elapsed, err)
	}
}

func (o Observers) ListenerFailed(kind string) {
	for _, x := range o {
		x.ListenerFailed(kind)
	}
}
