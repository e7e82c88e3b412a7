package task

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParkEmptyStoreUnpark(t *testing.T) {
	p := NewPark()
	assert.Equal(t, Empty, p.State())

	var woke int32
	ok := p.StoreWaker(func() { atomic.AddInt32(&woke, 1) })
	assert.True(t, ok)
	assert.Equal(t, Parked, p.State())
	assert.Zero(t, atomic.LoadInt32(&woke))

	p.UnparkAndNotify()
	assert.Equal(t, Empty, p.State())
	assert.EqualValues(t, 1, atomic.LoadInt32(&woke))
}

func TestParkStoreDisplacesPrevious(t *testing.T) {
	p := NewPark()
	var first, second int32
	p.StoreWaker(func() { atomic.AddInt32(&first, 1) })
	p.StoreWaker(func() { atomic.AddInt32(&second, 1) })

	assert.EqualValues(t, 1, atomic.LoadInt32(&first), "displaced waker must be notified")
	assert.Zero(t, atomic.LoadInt32(&second))
	assert.Equal(t, Parked, p.State())
}

func TestParkDieAndNotify(t *testing.T) {
	p := NewPark()
	var woke int32
	p.StoreWaker(func() { atomic.AddInt32(&woke, 1) })
	p.DieAndNotify()

	assert.Equal(t, Dead, p.State())
	assert.EqualValues(t, 1, atomic.LoadInt32(&woke))
}

func TestParkStoreAfterDeadSelfNotifies(t *testing.T) {
	p := NewPark()
	p.DieAndNotify()

	var woke int32
	ok := p.StoreWaker(func() { atomic.AddInt32(&woke, 1) })
	assert.False(t, ok, "storing into a dead park reports false")
	assert.Equal(t, Dead, p.State())
	assert.EqualValues(t, 1, atomic.LoadInt32(&woke), "must self-notify immediately to avoid deadlock")
}

func TestParkUnparkPreservesDead(t *testing.T) {
	p := NewPark()
	p.DieAndNotify()
	p.UnparkAndNotify()
	assert.Equal(t, Dead, p.State())
}

func TestParkIndirectStoreSharedNotifiedOnce(t *testing.T) {
	p1 := NewPark()
	p2 := NewPark()

	var woke int32
	shared := NewShared(func() { atomic.AddInt32(&woke, 1) })

	p1.IndirectStore(shared)
	p2.IndirectStore(shared)

	assert.Equal(t, IndirectParked, p1.State())
	assert.Equal(t, IndirectParked, p2.State())

	// Either side firing drains the shared cell; only one notification fires
	// even though both parks still reference it.
	p1.UnparkAndNotify()
	p2.UnparkAndNotify()

	assert.EqualValues(t, 1, atomic.LoadInt32(&woke))
}

func TestParkIndirectStoreDisplacesPriorWaker(t *testing.T) {
	p := NewPark()
	var direct int32
	p.StoreWaker(func() { atomic.AddInt32(&direct, 1) })

	var indirect int32
	shared := NewShared(func() { atomic.AddInt32(&indirect, 1) })
	p.IndirectStore(shared)

	assert.EqualValues(t, 1, atomic.LoadInt32(&direct), "replacing a Parked waker notifies it")
	assert.Equal(t, IndirectParked, p.State())
}

func TestParkIndirectStoreIntoDeadSelfNotifies(t *testing.T) {
	p := NewPark()
	p.DieAndNotify()

	var woke int32
	shared := NewShared(func() { atomic.AddInt32(&woke, 1) })
	ok := p.IndirectStore(shared)

	assert.False(t, ok)
	assert.Equal(t, Dead, p.State())
	assert.EqualValues(t, 1, atomic.LoadInt32(&woke))
}

func TestParkNoWakerIsSilentNoPanic(t *testing.T) {
	p := NewPark()
	assert.NotPanics(t, func() {
		p.UnparkAndNotify()
		p.DieAndNotify()
	})
}
