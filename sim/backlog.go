// Implements the Backlog, the ordered store of tasks awaiting assignment.
// Tasks are pushed on arrival, reordered by the product owner, taken from the
// front by workers and evicted when the backlog outgrows its capacity.

package sim

import (
	"fmt"
	"strings"
)

// Backlog is an ordered task store. Index 0 is the next task handed out.
type Backlog struct {
	tasks []*Task
}

// NewBacklog creates an empty backlog.
func NewBacklog() *Backlog {
	return &Backlog{tasks: make([]*Task, 0)}
}

// Push appends a task to the back of the backlog.
func (b *Backlog) Push(t *Task) {
	if t == nil {
		panic("Push: task must not be nil")
	}
	b.tasks = append(b.tasks, t)
}

// TakeFront removes and returns the task at the front, or nil when empty.
func (b *Backlog) TakeFront() *Task {
	if len(b.tasks) == 0 {
		return nil
	}
	t := b.tasks[0]
	b.tasks[0] = nil
	b.tasks = b.tasks[1:]
	return t
}

// Len returns the number of tasks in the backlog.
func (b *Backlog) Len() int {
	return len(b.tasks)
}

// Items returns the backlog contents for iteration.
// Callers MUST NOT append to or reslice it; use ReorderWindow or RemoveAt.
func (b *Backlog) Items() []*Task {
	return b.tasks
}

// ReorderWindow applies fn to tasks[start:end], allowing in-place reordering.
// fn MUST NOT change the window length.
func (b *Backlog) ReorderWindow(start, end int, fn func([]*Task)) {
	if fn == nil {
		panic("ReorderWindow: fn must not be nil")
	}
	if start < 0 || end > len(b.tasks) || start > end {
		panic(fmt.Sprintf("ReorderWindow: window [%d,%d) outside backlog of %d", start, end, len(b.tasks)))
	}
	window := b.tasks[start:end:end]
	n := len(window)
	fn(window)
	if len(window) != n {
		panic(fmt.Sprintf("ReorderWindow: fn changed window length from %d to %d", n, len(window)))
	}
}

// RemoveAt removes and returns the task at index i. Indices after i shift down by one.
func (b *Backlog) RemoveAt(i int) *Task {
	if i < 0 || i >= len(b.tasks) {
		panic(fmt.Sprintf("RemoveAt: index %d outside backlog of %d", i, len(b.tasks)))
	}
	t := b.tasks[i]
	copy(b.tasks[i:], b.tasks[i+1:])
	b.tasks[len(b.tasks)-1] = nil
	b.tasks = b.tasks[:len(b.tasks)-1]
	return t
}

// EvictWorst removes tasks chosen by pick until Len() <= maxSize and returns
// them in eviction order. The eviction counters on stats are updated.
// pick returns an index into the current backlog.
func (b *Backlog) EvictWorst(maxSize int, pick func([]*Task) int, stats *Stats) []*Task {
	var evicted []*Task
	for len(b.tasks) > maxSize {
		idx := pick(b.tasks)
		if idx < 0 || idx >= len(b.tasks) {
			panic(fmt.Sprintf("EvictWorst: pick returned %d for backlog of %d", idx, len(b.tasks)))
		}
		t := b.RemoveAt(idx)
		if stats != nil {
			stats.EvictedTasks++
			stats.EvictedValue += t.Value
		}
		evicted = append(evicted, t)
	}
	return evicted
}

func (b *Backlog) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, t := range b.tasks {
		sb.WriteString(t.String())
		if i < len(b.tasks)-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
