// Package progress carries feedback from long-running hypervisor
// operations to their caller. Operations report a fixed number of steps
// and announce each one; callers may watch, render, or ignore the
// stream. A Reporter is also the cooperative cancellation point: once it
// is marked failed, well-behaved operations stop between steps.
package progress

// Reporter receives step-by-step feedback from one operation. All
// methods must be safe for concurrent use.
type Reporter interface {
	// SetMax announces how many steps the operation will report.
	SetMax(steps int)
	// Doing announces the step that is starting.
	Doing(msg string)
	// Done marks the current step finished.
	Done(msg string)
	// Fail marks the operation failed with a short reason. err may be
	// nil when the reason alone describes the failure.
	Fail(reason string, err error)
	// Begin hands out a nested Reporter for a subtask. The subtask
	// counts as one step of this Reporter once it completes.
	Begin(name string) Reporter
	// Complete marks the whole operation finished.
	Complete(msg string)
	// MarkLengthy flags the current step as long-running, so watchers
	// can tell "slow" from "stuck".
	MarkLengthy(lengthy bool)
	// Failed reports whether this Reporter (or a subtask) was marked
	// failed. Operations consult it between steps.
	Failed() bool
}

// Discard returns a Reporter that ignores every report and never fails.
func Discard() Reporter {
	return discard{}
}

// OrDiscard maps a nil Reporter to Discard() so operations can report
// unconditionally.
func OrDiscard(pf Reporter) Reporter {
	if pf == nil {
		return Discard()
	}
	return pf
}

type discard struct{}

func (discard) SetMax(int)            {}
func (discard) Doing(string)          {}
func (discard) Done(string)           {}
func (discard) Fail(string, error)    {}
func (discard) Begin(string) Reporter { return discard{} }
func (discard) Complete(string)       {}
func (discard) MarkLengthy(bool)      {}
func (discard) Failed() bool          { return false }
