package input

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/temoto/doorlock/internal/types"
	"github.com/temoto/doorlock/log2"
)

func TestDispatchDoubleSubscribe(t *testing.T) {
	log := log2.NewTest(t, log2.LDebug)
	dstop := make(chan struct{})
	d := NewDispatch(log, dstop)

	go func() {
		sub1stop := make(chan struct{})
		d.SubscribeChan("name", sub1stop)
		close(sub1stop)
		sub2stop := make(chan struct{})
		d.SubscribeChan("name", sub2stop)
		close(dstop)
	}()

	d.Run(nil)
}

func TestDispatchFunc(t *testing.T) {
	log := log2.NewTest(t, log2.LDebug)
	dstop := make(chan struct{})
	d := NewDispatch(log, dstop)

	received := make(chan types.InputEvent, 1)
	substop := make(chan struct{})
	d.SubscribeFunc("fun", func(e types.InputEvent) { received <- e }, substop)

	go func() {
		d.Emit(types.InputEvent{Source: "test", Key: '7'})
		close(dstop)
	}()
	d.Run(nil)

	e := <-received
	assert.Equal(t, types.InputKey('7'), e.Key)
	assert.Equal(t, "test", e.Source)
}

// A subscriber that is not ready loses the event instead of stalling
// the bus: keys pressed during the lock sequence must be ignored.
func TestDispatchDropBusy(t *testing.T) {
	log := log2.NewTest(t, log2.LDebug)
	dstop := make(chan struct{})
	d := NewDispatch(log, dstop)

	substop := make(chan struct{})
	ch := d.SubscribeChan("busy", substop)

	go func() {
		d.Emit(types.InputEvent{Source: "test", Key: '1'})
		d.Emit(types.InputEvent{Source: "test", Key: '2'})
		close(dstop)
	}()
	d.Run(nil)

	select {
	case e, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event=%s", e.String())
		}
	default:
	}
}
