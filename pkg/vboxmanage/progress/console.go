package progress

import (
	"io"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Console renders a Reporter tree as terminal progress bars, one bar per
// reporter. A finished subtask advances its parent by one step. Construct
// the root with NewConsole, pass it to an operation, then call Wait once
// the operation has returned.
type Console struct {
	pool   *mpb.Progress
	root   *Console
	parent *Console
	name   string

	mu       sync.Mutex
	bar      *mpb.Bar
	total    int
	steps    int
	notified bool // parent already advanced for this subtask
	failed   bool
	finished bool
	tree     []*Console // root only: every reporter in the tree

	statusMu sync.Mutex
	status   string
}

// NewConsole returns a root Console rendering to w.
func NewConsole(w io.Writer) *Console {
	c := &Console{
		pool: mpb.New(
			mpb.WithWidth(80), // narrower bars render glitchy on common terminals
			mpb.WithRefreshRate(180*time.Millisecond),
			mpb.WithOutput(w),
		),
	}
	c.root = c
	c.tree = []*Console{c}
	return c
}

// Wait blocks until all bars have rendered their final state. Call it
// exactly once, after the reported operation has returned.
func (c *Console) Wait() {
	// Bars the operation abandoned mid-step would make the pool wait
	// forever, so finish them first.
	c.root.closeTree()
	c.pool.Wait()
}

// SetMax announces the number of steps and materializes the bar.
func (c *Console) SetMax(steps int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.total = steps
	if c.bar == nil {
		c.bar = c.pool.AddBar(int64(steps),
			mpb.BarFillerClearOnComplete(),
			mpb.PrependDecorators(
				decor.Name(c.name),
			),
			mpb.AppendDecorators(
				decor.Any(func(decor.Statistics) string {
					return c.currentStatus()
				}),
			),
		)
		return
	}
	c.bar.SetTotal(int64(steps), false)
}

// Doing updates the step message next to the bar.
func (c *Console) Doing(msg string) {
	c.setStatus(msg)
}

// Done advances the bar by one step.
func (c *Console) Done(msg string) {
	c.setStatus(msg)
	c.advance()
}

// Fail aborts the bar and marks this reporter (and its ancestors)
// failed.
func (c *Console) Fail(reason string, err error) {
	status := "failed: " + reason
	if err != nil {
		status += " (" + err.Error() + ")"
	}
	c.setStatus(status)

	c.mu.Lock()
	c.failed = true
	c.finished = true
	if c.bar != nil {
		c.bar.Abort(false)
	}
	c.mu.Unlock()

	for p := c.parent; p != nil; p = p.parent {
		p.markFailed()
	}
}

// Begin adds a nested bar for a subtask.
func (c *Console) Begin(name string) Reporter {
	child := &Console{pool: c.pool, root: c.root, parent: c, name: name}

	root := c.root
	root.mu.Lock()
	root.tree = append(root.tree, child)
	root.mu.Unlock()

	return child
}

// Complete fills the bar and shows the final message.
func (c *Console) Complete(msg string) {
	c.setStatus(msg)

	c.mu.Lock()
	c.finished = true
	if c.bar != nil {
		c.bar.SetTotal(0, true)
	}
	notify := c.parent != nil && !c.notified
	c.notified = true
	parent := c.parent
	c.mu.Unlock()

	if notify {
		parent.advance()
	}
}

// MarkLengthy has no visual effect on the console renderer.
func (c *Console) MarkLengthy(bool) {}

// Failed reports whether Fail was called on this reporter or any
// reporter below it.
func (c *Console) Failed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed
}

// advance counts one finished step and, when the last step finishes,
// counts this whole reporter as one finished step of its parent.
func (c *Console) advance() {
	c.mu.Lock()
	c.steps++
	if c.bar != nil {
		c.bar.Increment()
	}
	notify := c.total > 0 && c.steps >= c.total && c.parent != nil && !c.notified
	if notify {
		c.notified = true
	}
	parent := c.parent
	c.mu.Unlock()

	if notify {
		parent.advance()
	}
}

func (c *Console) setStatus(s string) {
	c.statusMu.Lock()
	c.status = s
	c.statusMu.Unlock()
}

func (c *Console) currentStatus() string {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	return c.status
}

func (c *Console) markFailed() {
	c.mu.Lock()
	c.failed = true
	c.mu.Unlock()
}

// closeTree aborts every bar that never reached Complete or Fail.
func (c *Console) closeTree() {
	c.mu.Lock()
	tree := make([]*Console, len(c.tree))
	copy(tree, c.tree)
	c.mu.Unlock()

	for _, node := range tree {
		node.mu.Lock()
		if node.bar != nil && !node.finished {
			node.finished = true
			node.bar.Abort(true)
		}
		node.mu.Unlock()
	}
}
