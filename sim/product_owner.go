package sim

import (
	"math/rand"
)

// BacklogPolicy reorders and trims the backlog once per cycle.
// Implementations are owned by a single run and need not be thread-safe.
type BacklogPolicy interface {
	// Reorder performs the policy's prioritization actions for one cycle.
	Reorder(b *Backlog)
	// PickEviction chooses the index of the task to evict next.
	// random reports whether the choice was a misjudgment rather than the worst task.
	PickEviction(tasks []*Task) (idx int, random bool)
}

// ProductOwner is a bounded-window, error-prone greedy prioritizer.
//
// Each action looks at WindowSize tasks starting at a rolling cursor, moves
// the best-scored task (Task.Score) to the window's front and advances the
// cursor by WindowSize, wrapping to 0 past the end. With probability
// ErrorProbability it moves a random task of the window instead.
// Cost per action is O(WindowSize), not O(n log n).
type ProductOwner struct {
	cfg    ProductOwnerConfig
	rng    *rand.Rand
	cursor int
}

// NewProductOwner creates a ProductOwner drawing its errors from rng.
func NewProductOwner(cfg ProductOwnerConfig, rng *rand.Rand) *ProductOwner {
	return &ProductOwner{cfg: cfg, rng: rng}
}

// Cursor returns the start index of the next window.
func (po *ProductOwner) Cursor() int {
	return po.cursor
}

// Reorder runs ActionsPerCycle window actions.
func (po *ProductOwner) Reorder(b *Backlog) {
	for a := 0; a < po.cfg.ActionsPerCycle; a++ {
		if b.Len() <= 1 {
			return
		}
		po.act(b)
	}
}

func (po *ProductOwner) act(b *Backlog) {
	n := b.Len()
	if po.cursor >= n {
		po.cursor = 0
	}
	windowSize := max(1, po.cfg.WindowSize)
	start := po.cursor
	end := min(start+windowSize, n)

	var chosen int
	if po.rng.Float64() < po.cfg.ErrorProbability {
		chosen = po.rng.Intn(end - start)
	} else {
		chosen = bestInWindow(b.Items()[start:end])
	}
	if chosen != 0 {
		b.ReorderWindow(start, end, func(window []*Task) {
			moveToFront(window, chosen)
		})
	}

	po.cursor += windowSize
	if po.cursor >= n {
		po.cursor = 0
	}
}

// PickEviction returns the globally worst-scored task, or with probability
// ErrorProbability a uniformly random one. Ties go to the lowest index.
// Returns -1 for an empty backlog.
func (po *ProductOwner) PickEviction(tasks []*Task) (int, bool) {
	if len(tasks) == 0 {
		return -1, false
	}
	if po.rng.Float64() < po.cfg.ErrorProbability {
		return po.rng.Intn(len(tasks)), true
	}
	worst := 0
	worstScore := tasks[0].Score()
	for i := 1; i < len(tasks); i++ {
		if s := tasks[i].Score(); s < worstScore {
			worst, worstScore = i, s
		}
	}
	return worst, false
}

// bestInWindow returns the index of the highest-scored task; ties go to the lowest index.
func bestInWindow(window []*Task) int {
	best := 0
	bestScore := window[0].Score()
	for i := 1; i < len(window); i++ {
		if s := window[i].Score(); s > bestScore {
			best, bestScore = i, s
		}
	}
	return best
}

// moveToFront shifts window[i] to position 0, preserving the order of the rest.
func moveToFront(window []*Task, i int) {
	t := window[i]
	copy(window[1:i+1], window[:i])
	window[0] = t
}
