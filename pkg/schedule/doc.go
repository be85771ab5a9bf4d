// Package schedule provides the cooperative scheduling primitives a Root
// runs on.
//
// A Driver hands out turns: the scheduler asks for one with RequestTurn and
// the driver later calls back with a Deadline describing how much time the
// turn may use. Two drivers are provided:
//
//   - Manual runs turns only when the caller asks. It backs server rendering
//     and tests, and can force yields at fixed unit counts.
//   - Loop runs turns on a dedicated goroutine with a per-frame time budget,
//     interleaved with functions posted through Dispatch.
package schedule
