package ui

import (
	"context"

	"github.com/juju/errors"
	"github.com/temoto/doorlock/hardware/st7735"
	"github.com/temoto/doorlock/internal/types"
)

// Boot splash: white clear, boot message, progress sweep along the
// bottom, ready message, logo, then the idle prompt screen. The render
// task starts only after the idle screen is on, it must not paint over
// the splash.
func (self *UI) onBoot(ctx context.Context) State {
	if self.display != nil {
		d := self.display
		self.g.Error(d.Fill(0, 0, st7735.Width, st7735.Height, st7735.White))
		self.g.Error(d.DrawString(20, 50, self.config.MsgBoot, st7735.Red, st7735.White, 16, false))
		for i := 0; i < st7735.Width; i++ {
			self.g.Error(d.DrawLine(i, 100, i, st7735.Height-1, st7735.Red))
			self.clock.Sleep(splashStep)
		}
		self.g.Error(d.DrawString(20, 50, self.config.MsgReady, st7735.Red, st7735.White, 16, false))
		self.clock.Sleep(splashHold)

		self.showImage(self.g.Config.Hardware.Display.ImageLogo)
		self.clock.Sleep(logoHold)

		self.showIdleScreen()
		self.g.Error(d.Fill(entryBoxX1, entryBoxY1, entryBoxX2, entryBoxY2, st7735.Yellow))

		self.g.Alive.Add(1)
		go self.renderLoop()
	}
	return StateIdle
}

func (self *UI) onIdle(ctx context.Context) State {
	for self.g.Alive.IsRunning() {
		e := self.wait(idlePoll)
		switch e.Kind {
		case types.EventInput:
			if next := self.handleInput(e.Input); next != StateDefault {
				return next
			}

		case types.EventTime:

		case types.EventStop:
			return StateStop

		default:
			self.g.Log.Errorf("ui idle unhandled event=%s", e.String())
		}
	}
	return StateStop
}

// handleInput mutates the entry buffer. StateDefault means stay in
// idle. Confirm clears the buffer before the outcome screen comes up,
// the render task may echo the empty box meanwhile.
func (self *UI) handleInput(e types.InputEvent) State {
	switch {
	case e.IsDigit():
		if !self.entry.Append(e.Digit()) {
			self.g.Log.Debugf("ui entry full, drop key=%d", e.Key)
		}
		return StateDefault

	case e.Key == types.KeyClear:
		self.entry.Clear()
		return StateDefault

	case e.Key == types.KeyConfirm:
		match := self.entry.Match(self.reference)
		self.entry.Clear()
		if match {
			return StateAccept
		}
		return StateDeny

	default:
		self.g.Log.Debugf("ui idle ignore key=%d source=%s", e.Key, e.Source)
		return StateDefault
	}
}

// Unlock, hold the success screen, lock again. Key events during the
// hold are not queued, the input dispatch drops them.
func (self *UI) onAccept(ctx context.Context) State {
	self.g.Log.Infof("ui code accepted")
	self.g.Error(errors.Annotate(self.lock.SetLocked(ctx, false), "unlock"))
	self.showImage(self.g.Config.Hardware.Display.ImageOk)
	self.clock.Sleep(self.unlockHold)
	self.g.Error(errors.Annotate(self.lock.SetLocked(ctx, true), "lock"))
	self.showIdleScreen()
	return StateIdle
}

func (self *UI) onDeny(ctx context.Context) State {
	self.g.Log.Infof("ui code denied")
	self.g.Error(errors.Annotate(self.lock.SetLocked(ctx, true), "lock"))
	self.showImage(self.g.Config.Hardware.Display.ImageDeny)
	self.clock.Sleep(self.denyHold)
	self.showIdleScreen()
	return StateIdle
}
