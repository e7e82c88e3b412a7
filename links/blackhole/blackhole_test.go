package blackhole

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunotm/routeflow/pipeline"
	"github.com/brunotm/routeflow/stream"
	"github.com/brunotm/routeflow/task"
)

func noopWaker() {}

func TestBlackholeDrainsIngressToExhaustionWithNoEgresses(t *testing.T) {
	link, err := NewBuilder[int]().
		Ingressor(stream.NewSlice([]int{1, 2, 3})).
		BuildLink()
	require.NoError(t, err)
	require.Empty(t, link.Egresses)
	require.Len(t, link.Runnables, 1)

	var st task.RunState
	for i := 0; i < 10000; i++ {
		st = link.Runnables[0].Poll(noopWaker)
		if st == task.Complete {
			break
		}
	}
	assert.Equal(t, task.Complete, st)
}

func TestBlackholePropagatesPending(t *testing.T) {
	calls := 0
	pending := stream.Func[int](func(w task.Waker) (int, stream.State) {
		calls++
		return 0, stream.Pending
	})

	link, err := NewBuilder[int]().Ingressor(pending).BuildLink()
	require.NoError(t, err)

	st := link.Runnables[0].Poll(noopWaker)
	assert.Equal(t, task.Pending, st)
	assert.Equal(t, 1, calls)
}

func TestBlackholeBuildErrors(t *testing.T) {
	_, err := NewBuilder[int]().BuildLink()
	assert.ErrorIs(t, err, pipeline.ErrMissingIngress)

	_, err = NewBuilder[int]().
		Ingressor(stream.NewSlice([]int{1})).
		Ingressor(stream.NewSlice([]int{2})).
		BuildLink()
	assert.ErrorIs(t, err, pipeline.ErrTooManyIngresses)
}
