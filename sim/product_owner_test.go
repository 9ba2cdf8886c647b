package sim

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductOwner_PerfectJudgment_EvictsWorst(t *testing.T) {
	// GIVEN errorProbability 0 and a backlog whose worst score is at index 2
	po := NewProductOwner(ProductOwnerConfig{WindowSize: 3, ErrorProbability: 0}, rand.New(rand.NewSource(1)))
	tasks := []*Task{
		{ID: 0, Value: 10, InfoEffort: 1},
		{ID: 1, Value: 6, InfoEffort: 2},
		{ID: 2, Value: 2, InfoEffort: 4},
		{ID: 3, Value: 9, InfoEffort: 1},
	}

	// WHEN picking repeatedly
	// THEN the worst is always chosen and never flagged random
	for i := 0; i < 100; i++ {
		idx, random := po.PickEviction(tasks)
		require.Equal(t, 2, idx)
		require.False(t, random)
	}
}

func TestProductOwner_PickEviction_TiesGoToLowestIndex(t *testing.T) {
	po := NewProductOwner(ProductOwnerConfig{WindowSize: 3}, rand.New(rand.NewSource(1)))
	tasks := []*Task{
		{ID: 0, Value: 4, InfoEffort: 1},
		{ID: 1, Value: 1, InfoEffort: 1},
		{ID: 2, Value: 1, InfoEffort: 1},
	}
	idx, _ := po.PickEviction(tasks)
	assert.Equal(t, 1, idx)

	idx, _ = po.PickEviction(nil)
	assert.Equal(t, -1, idx)
}

func TestProductOwner_AlwaysWrong_EvictsUniformly(t *testing.T) {
	// GIVEN errorProbability 1 and a backlog of 5
	po := NewProductOwner(ProductOwnerConfig{WindowSize: 3, ErrorProbability: 1}, rand.New(rand.NewSource(17)))
	tasks := make([]*Task, 5)
	for i := range tasks {
		tasks[i] = &Task{ID: i, Value: float64(i + 1), InfoEffort: 1}
	}

	// WHEN many evictions are picked
	const n = 50000
	counts := make([]int, len(tasks))
	for i := 0; i < n; i++ {
		idx, random := po.PickEviction(tasks)
		require.True(t, random)
		counts[idx]++
	}

	// THEN each index is chosen about 1/5 of the time
	for i, c := range counts {
		assert.InDelta(t, 0.2, float64(c)/n, 0.015, "index %d", i)
	}
}

func TestProductOwner_Reorder_MovesBestToWindowFront(t *testing.T) {
	// GIVEN window size 3 and backlog scores [1, 2, 9, 3, 8, 4, 7]
	values := []float64{1, 2, 9, 3, 8, 4, 7}
	b := NewBacklog()
	for i, v := range values {
		b.Push(&Task{ID: i, Value: v, InfoEffort: 1})
	}
	po := NewProductOwner(ProductOwnerConfig{WindowSize: 3, ActionsPerCycle: 1}, rand.New(rand.NewSource(3)))

	// WHEN one action runs
	po.Reorder(b)

	// THEN task 2 moves to the front of window [0,3) and the rest keep their order
	assert.Equal(t, []int{2, 0, 1, 3, 4, 5, 6}, ids(b.Items()))
	assert.Equal(t, 3, po.Cursor())

	// WHEN the next action runs
	po.Reorder(b)

	// THEN task 4 leads window [3,6)
	assert.Equal(t, []int{2, 0, 1, 4, 3, 5, 6}, ids(b.Items()))
	assert.Equal(t, 6, po.Cursor())

	// WHEN the cursor passes the end
	po.Reorder(b)

	// THEN the single-task tail window is a no-op and the cursor wraps to 0
	assert.Equal(t, []int{2, 0, 1, 4, 3, 5, 6}, ids(b.Items()))
	assert.Equal(t, 0, po.Cursor())
}

func TestProductOwner_Reorder_MultipleActionsPerCycle(t *testing.T) {
	b := NewBacklog()
	for i, v := range []float64{1, 5, 2, 6} {
		b.Push(&Task{ID: i, Value: v, InfoEffort: 1})
	}
	po := NewProductOwner(ProductOwnerConfig{WindowSize: 2, ActionsPerCycle: 2}, rand.New(rand.NewSource(3)))

	po.Reorder(b)

	assert.Equal(t, []int{1, 0, 3, 2}, ids(b.Items()))
	assert.Equal(t, 0, po.Cursor())
}

func TestProductOwner_Reorder_TinyBacklog_NoOp(t *testing.T) {
	b := NewBacklog()
	b.Push(&Task{ID: 0, Value: 1})
	po := NewProductOwner(ProductOwnerConfig{WindowSize: 5, ActionsPerCycle: 10}, rand.New(rand.NewSource(3)))

	po.Reorder(b)
	po.Reorder(NewBacklog())

	assert.Equal(t, []int{0}, ids(b.Items()))
	assert.Equal(t, 0, po.Cursor())
}

func TestMoveToFront_PreservesRelativeOrder(t *testing.T) {
	w := []*Task{{ID: 0}, {ID: 1}, {ID: 2}, {ID: 3}}
	moveToFront(w, 2)
	assert.Equal(t, []int{2, 0, 1, 3}, ids(w))
}
