package ui

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/juju/errors"
	"github.com/temoto/atomic_clock"
	"github.com/temoto/doorlock/hardware/st7735"
	"github.com/temoto/doorlock/helpers"
	"github.com/temoto/doorlock/internal/state"
	"github.com/temoto/doorlock/internal/types"
	ui_config "github.com/temoto/doorlock/internal/ui/config"
)

// Locker is the door actuator as the ui sees it. *servo.Servo
// implements it, tests substitute a mock.
type Locker interface {
	SetLocked(ctx context.Context, locked bool) error
	Locked() bool
}

type UI struct { //nolint:maligned
	config    *ui_config.Config
	g         *state.Global
	state     State
	display   *st7735.Display // nil when disabled in config
	lock      Locker
	clock     clockwork.Clock
	entry     entry
	reference [ui_config.PasswordLen]byte
	inputch   chan types.InputEvent

	lastActivity atomic_clock.Clock

	unlockHold  time.Duration
	denyHold    time.Duration
	renderTick  time.Duration
	renderDelay time.Duration

	XXX_testHook func(State)
}

func (self *UI) Init(ctx context.Context) error {
	self.g = state.GetGlobal(ctx)
	self.config = &self.g.Config.UI
	self.setState(StateBoot)

	var err error
	if self.reference, err = self.config.Digits(); err != nil {
		return errors.Annotate(err, "ui.Init")
	}

	display, err := self.g.Display()
	if err != nil {
		return errors.Annotate(err, "ui.Init")
	}
	self.display = display
	if self.lock == nil {
		self.lock = self.g.Servo()
	}
	if self.clock == nil {
		self.clock = clockwork.NewRealClock()
	}

	self.entry.publish()
	self.inputch = self.g.Hardware.Input.SubscribeChan("ui", self.g.Alive.StopChan())

	self.unlockHold = helpers.IntMillisecondDefault(self.config.UnlockHoldMs, 5*time.Second)
	self.denyHold = helpers.IntMillisecondDefault(self.config.DenyHoldMs, 1*time.Second)
	self.renderTick = helpers.IntMillisecondDefault(self.config.RenderMs, 100*time.Millisecond)
	self.renderDelay = helpers.IntMillisecondDefault(self.config.RenderDelayMs, 500*time.Millisecond)
	return nil
}

// Entry returns the published input snapshot, for tools and tests.
func (self *UI) Entry() EntrySnapshot { return self.entry.Snapshot() }

// IdleDuration reports time since the last key event, for diagnostics.
func (self *UI) IdleDuration() time.Duration {
	if self.lastActivity.IsZero() {
		return 0
	}
	return atomic_clock.Since(&self.lastActivity)
}

func (self *UI) wait(timeout time.Duration) types.Event {
	select {
	case e := <-self.inputch:
		self.lastActivity.SetNow()
		return types.Event{Kind: types.EventInput, Input: e}

	case <-self.clock.After(timeout):
		return types.Event{Kind: types.EventTime}

	case <-self.g.Alive.StopChan():
		return types.Event{Kind: types.EventStop}
	}
}
