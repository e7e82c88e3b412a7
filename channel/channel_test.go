package channel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelSendRecvFIFO(t *testing.T) {
	c := New[int](4)
	require.NoError(t, c.TrySend(1))
	require.NoError(t, c.TrySend(2))
	require.NoError(t, c.TrySend(3))

	for _, want := range []int{1, 2, 3} {
		v, err := c.TryRecv()
		require.NoError(t, err)
		assert.Equal(t, want, v)
	}

	_, err := c.TryRecv()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestChannelExactCapacityHonoredEvenAtOne(t *testing.T) {
	c := New[int](1)
	require.NoError(t, c.TrySend(1))
	assert.Equal(t, 1, c.Len())

	err := c.TrySend(2)
	assert.ErrorIs(t, err, ErrFull, "capacity 1 must reject a second in-flight value")

	v, err := c.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, 0, c.Len())

	require.NoError(t, c.TrySend(2))
}

func TestChannelCloseThenDrainThenDisconnected(t *testing.T) {
	c := New[int](4)
	require.NoError(t, c.TrySend(1))
	c.Close()

	assert.ErrorIs(t, c.TrySend(2), ErrClosed)

	v, err := c.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	_, err = c.TryRecv()
	assert.ErrorIs(t, err, ErrDisconnected)
}

func TestChannelSendNotifiesParkedConsumer(t *testing.T) {
	c := New[int](4)

	var woke int32
	c.ParkRecv(func() { atomic.AddInt32(&woke, 1) })
	require.NoError(t, c.TrySend(42))

	assert.EqualValues(t, 1, atomic.LoadInt32(&woke))
}

func TestChannelRecvNotifiesParkedProducer(t *testing.T) {
	c := New[int](1)
	require.NoError(t, c.TrySend(1))

	var woke int32
	c.ParkSend(func() { atomic.AddInt32(&woke, 1) })

	_, err := c.TryRecv()
	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&woke))
}

func TestChannelCloseNotifiesBothParkedSides(t *testing.T) {
	c := New[int](1)
	var recvWoke, sendWoke int32
	c.ParkRecv(func() { atomic.AddInt32(&recvWoke, 1) })
	c.ParkSend(func() { atomic.AddInt32(&sendWoke, 1) })

	c.Close()

	assert.EqualValues(t, 1, atomic.LoadInt32(&recvWoke))
	assert.EqualValues(t, 1, atomic.LoadInt32(&sendWoke))
}

func TestChannelNeverExceedsCapacityUnderConcurrency(t *testing.T) {
	const cap = 8
	c := New[int](cap)

	done := make(chan struct{})
	var maxObserved int64
	go func() {
		defer close(done)
		for i := 0; i < 5000; i++ {
			if l := int64(c.Len()); l > maxObserved {
				maxObserved = l
			}
		}
	}()

	for i := 0; i < 2000; i++ {
		for c.TrySend(i) == ErrFull {
		}
		c.TryRecv()
	}
	<-done

	assert.LessOrEqual(t, int(maxObserved), cap)
}

func TestSenderReceiverPair(t *testing.T) {
	sender, receiver := NewPair[string](2)
	require.NoError(t, sender.TrySend("a"))

	v, err := receiver.TryRecv()
	require.NoError(t, err)
	assert.Equal(t, "a", v)

	sender.Close()
	_, err = receiver.TryRecv()
	assert.ErrorIs(t, err, ErrDisconnected)
}

func TestReceiverCloseStopsFurtherSends(t *testing.T) {
	sender, receiver := NewPair[int](2)
	require.NoError(t, sender.TrySend(1))

	receiver.Close()
	assert.ErrorIs(t, sender.TrySend(2), ErrClosed)
}

func TestReceiverCloseNotifiesParkedSender(t *testing.T) {
	sender, receiver := NewPair[int](1)
	require.NoError(t, sender.TrySend(1))

	var woke int32
	sender.ParkSend(func() { atomic.AddInt32(&woke, 1) })

	receiver.Close()
	assert.EqualValues(t, 1, atomic.LoadInt32(&woke))
}
