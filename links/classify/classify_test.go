package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunotm/routeflow/config"
	"github.com/brunotm/routeflow/pipeline"
	"github.com/brunotm/routeflow/stream"
	"github.com/brunotm/routeflow/task"
)

func noopWaker() {}

func drainRunnable(t *testing.T, r pipeline.Runnable) {
	t.Helper()
	for i := 0; i < 10000; i++ {
		if r.Poll(noopWaker) == task.Complete {
			return
		}
	}
	t.Fatal("runnable never completed")
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

func TestClassifyEvenOddSplit(t *testing.T) {
	isOdd := func(v int) int { return v % 2 }
	toEgress := func(c int) int { return c }

	link, err := classifyEvenOdd(isOdd, toEgress)
	require.NoError(t, err)
	require.Len(t, link.Egresses, 2)

	drainRunnable(t, link.Runnables[0])
	assert.Equal(t, []int{0, 2, 4}, drainEgress(t, link.Egresses[0]))
	assert.Equal(t, []int{1, 3, 5}, drainEgress(t, link.Egresses[1]))
}

func classifyEvenOdd(classifier pipeline.Classifier[int, int], dispatcher pipeline.Dispatcher[int]) (pipeline.Link[int], error) {
	return NewBuilder[int, int]().
		Ingressor(stream.NewSlice([]int{0, 1, 2, 3, 4, 5})).
		Classifier(classifier).
		Dispatcher(dispatcher).
		NumEgressors(2).
		QueueCapacity(8).
		BuildLink()
}

func TestClassifyOutOfRangeDispatchIsDropped(t *testing.T) {
	classifier := func(v int) int { return v }
	dispatcher := func(c int) int {
		if c == 99 {
			return -1
		}
		return 0
	}

	link, err := NewBuilder[int, int]().
		Ingressor(stream.NewSlice([]int{1, 99, 2})).
		Classifier(classifier).
		Dispatcher(dispatcher).
		NumEgressors(1).
		QueueCapacity(8).
		BuildLink()
	require.NoError(t, err)

	drainRunnable(t, link.Runnables[0])
	assert.Equal(t, []int{1, 2}, drainEgress(t, link.Egresses[0]))
}

func TestClassifyFullEgressStallsIngressor(t *testing.T) {
	classifier := func(v int) int { return 0 }
	dispatcher := func(c int) int { return c }

	link, err := NewBuilder[int, int]().
		Ingressor(stream.NewSlice([]int{1, 2, 3})).
		Classifier(classifier).
		Dispatcher(dispatcher).
		NumEgressors(1).
		QueueCapacity(1).
		BuildLink()
	require.NoError(t, err)

	st := link.Runnables[0].Poll(noopWaker)
	assert.Equal(t, task.Pending, st)

	v, rs := link.Egresses[0].Poll(noopWaker)
	require.Equal(t, stream.Ready, rs)
	assert.Equal(t, 1, v)

	st = link.Runnables[0].Poll(noopWaker)
	assert.Equal(t, task.Pending, st)

	v, rs = link.Egresses[0].Poll(noopWaker)
	require.Equal(t, stream.Ready, rs)
	assert.Equal(t, 2, v)

	drainRunnable(t, link.Runnables[0])
	assert.Equal(t, []int{3}, drainEgress(t, link.Egresses[0]))
}

func TestClassifyExhaustionClosesAllEgresses(t *testing.T) {
	classifier := func(v int) int { return v % 3 }
	dispatcher := func(c int) int { return c }

	link, err := NewBuilder[int, int]().
		Ingressor(stream.NewSlice([]int{0, 1, 2})).
		Classifier(classifier).
		Dispatcher(dispatcher).
		NumEgressors(3).
		QueueCapacity(4).
		BuildLink()
	require.NoError(t, err)

	drainRunnable(t, link.Runnables[0])
	for i := 0; i < 3; i++ {
		assert.Equal(t, []int{i}, drainEgress(t, link.Egresses[i]))
	}
}

func TestClassifyBuildErrors(t *testing.T) {
	classifier := func(v int) int { return v }
	dispatcher := func(c int) int { return c }

	_, err := NewBuilder[int, int]().Classifier(classifier).Dispatcher(dispatcher).NumEgressors(1).BuildLink()
	assert.ErrorIs(t, err, pipeline.ErrMissingIngress)

	_, err = NewBuilder[int, int]().
		Ingressor(stream.NewSlice([]int{1})).
		Dispatcher(dispatcher).
		NumEgressors(1).
		BuildLink()
	assert.ErrorIs(t, err, pipeline.ErrMissingClassifier)

	_, err = NewBuilder[int, int]().
		Ingressor(stream.NewSlice([]int{1})).
		Classifier(classifier).
		NumEgressors(1).
		BuildLink()
	assert.ErrorIs(t, err, pipeline.ErrMissingDispatcher)

	_, err = NewBuilder[int, int]().
		Ingressor(stream.NewSlice([]int{1})).
		Classifier(classifier).
		Dispatcher(dispatcher).
		NumEgressors(0).
		BuildLink()
	assert.ErrorIs(t, err, pipeline.ErrInvalidEgressorCount)
}

func TestClassifyConfigOverridesCapacityAndNumEgressors(t *testing.T) {
	cfg := config.New(nil)
	cfg.Set(1, "capacity")
	cfg.Set(3, "num_egressors")

	b := &Builder[int, int]{capacity: defaultCapacity}
	b.Config(cfg)
	assert.Equal(t, 1, b.capacity)
	assert.Equal(t, 3, b.numEgress)
}

func TestClassifyConfigLeavesDefaultsWhenUnset(t *testing.T) {
	b := &Builder[int, int]{capacity: defaultCapacity, numEgress: 2}
	b.Config(config.New(nil))
	assert.Equal(t, defaultCapacity, b.capacity)
	assert.Equal(t, 2, b.numEgress)
}
