package composite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunotm/routeflow/pipeline"
	"github.com/brunotm/routeflow/stream"
	"github.com/brunotm/routeflow/task"
)

func noopWaker() {}

func drainAll(t *testing.T, runnables []pipeline.Runnable) {
	t.Helper()
	remaining := make([]pipeline.Runnable, len(runnables))
	copy(remaining, runnables)

	for i := 0; i < 10000 && len(remaining) > 0; i++ {
		next := remaining[:0]
		for _, r := range remaining {
			if r.Poll(noopWaker) != task.Complete {
				next = append(next, r)
			}
		}
		remaining = next
	}
	require.Empty(t, remaining, "not every runnable completed")
}

func drainEgress[T any](t *testing.T, s stream.Stream[T]) []T {
	t.Helper()
	var out []T
	for i := 0; i < 10000; i++ {
		v, st := s.Poll(noopWaker)
		switch st {
		case stream.Ready:
			out = append(out, v)
		case stream.Exhausted:
			return out
		case stream.Pending:
			continue
		}
	}
	t.Fatal("egress never exhausted")
	return nil
}

func TestReplicatorDeliversEveryInputToEveryEgress(t *testing.T) {
	link, err := NewReplicatorBuilder[int]().
		Ingressors(
			stream.NewSlice([]int{1, 2}),
			stream.NewSlice([]int{3}),
		).
		NumEgressors(2).
		BuildLink()
	require.NoError(t, err)
	require.Len(t, link.Egresses, 2)

	drainAll(t, link.Runnables)

	for i := 0; i < 2; i++ {
		got := drainEgress(t, link.Egresses[i])
		assert.ElementsMatch(t, []int{1, 2, 3}, got)
	}
}

func TestTransformAppliesProcessorBetweenJoinAndFork(t *testing.T) {
	double := func(v int) (int, bool) { return v * 2, true }

	link, err := NewTransformBuilder[int, int]().
		Ingressors(
			stream.NewSlice([]int{1, 2}),
			stream.NewSlice([]int{3}),
		).
		Processor(double).
		NumEgressors(2).
		BuildLink()
	require.NoError(t, err)
	require.Len(t, link.Egresses, 2)

	drainAll(t, link.Runnables)

	for i := 0; i < 2; i++ {
		got := drainEgress(t, link.Egresses[i])
		assert.ElementsMatch(t, []int{2, 4, 6}, got)
	}
}

func TestReplicatorBuildErrorsAlreadyBuilt(t *testing.T) {
	b := NewReplicatorBuilder[int]().
		Ingressor(stream.NewSlice([]int{1})).
		NumEgressors(2)

	_, err := b.BuildLink()
	require.NoError(t, err)

	_, err = b.BuildLink()
	assert.ErrorIs(t, err, pipeline.ErrAlreadyBuilt)
}

func TestReplicatorBuildErrorsPropagateFromConstituents(t *testing.T) {
	_, err := NewReplicatorBuilder[int]().NumEgressors(2).BuildLink()
	assert.ErrorIs(t, err, pipeline.ErrMissingIngresses)

	_, err = NewReplicatorBuilder[int]().
		Ingressor(stream.NewSlice([]int{1})).
		NumEgressors(1).
		BuildLink()
	assert.ErrorIs(t, err, pipeline.ErrInvalidEgressorCount)
}
