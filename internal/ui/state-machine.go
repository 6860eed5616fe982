package ui

import (
	"context"
	"sync/atomic"
	"time"
)

//go:generate stringer -type=State -trimprefix=State
type State uint32

const (
	StateDefault State = iota

	StateBoot   // splash, progress sweep, logo, then idle screen
	StateIdle   // prompt on screen, entry buffer live
	StateAccept // code matched: unlock, hold success screen, lock again
	StateDeny   // code rejected: failure screen, short hold

	StateStop
)

const (
	splashStep = 10 * time.Millisecond
	splashHold = 500 * time.Millisecond
	logoHold   = 1 * time.Second
	idlePoll   = 1 * time.Second
)

func (self *UI) State() State               { return State(atomic.LoadUint32((*uint32)(&self.state))) }
func (self *UI) setState(new State)         { atomic.StoreUint32((*uint32)(&self.state), uint32(new)) }
func (self *UI) XXX_testSetState(new State) { self.setState(new) }

func (self *UI) Loop(ctx context.Context) {
	self.g.Alive.Add(1)
	defer self.g.Alive.Done()

	next := StateDefault
	for next != StateStop && self.g.Alive.IsRunning() {
		current := self.State()
		next = self.enter(ctx, current)
		if next == StateDefault {
			self.g.Log.Fatalf("ui state=%s next=default", current.String())
		}
		self.exit(ctx, current, next)

		if !self.g.Alive.IsRunning() {
			self.g.Log.Debugf("ui Loop stopping because g.Alive")
			next = StateStop
		}

		self.setState(next)
		if self.XXX_testHook != nil {
			self.XXX_testHook(next)
		}
	}
	self.g.Log.Debugf("ui loop end")
}

func (self *UI) enter(ctx context.Context, s State) State {
	self.g.Log.Debugf("ui enter %s", s.String())
	switch s {
	case StateBoot:
		return self.onBoot(ctx)

	case StateIdle:
		return self.onIdle(ctx)

	case StateAccept:
		return self.onAccept(ctx)

	case StateDeny:
		return self.onDeny(ctx)

	case StateStop:
		return StateStop

	default:
		self.g.Log.Fatalf("unhandled ui state=%s", s.String())
		return StateDefault
	}
}

func (self *UI) exit(ctx context.Context, current, next State) {
	self.g.Log.Debugf("ui exit %s -> %s", current.String(), next.String())
}
