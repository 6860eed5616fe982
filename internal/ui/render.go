package ui

import (
	"github.com/temoto/doorlock/hardware/st7735"
)

// Entered digits echo inside a fixed strip under the prompt text.
const (
	entryBoxX1 = 16
	entryBoxY1 = 45
	entryBoxX2 = 112
	entryBoxY2 = 60
	entryTextX = 20
)

// renderLoop mirrors the entry buffer onto the display: poll the
// published snapshot, repaint the strip when the length changed.
func (self *UI) renderLoop() {
	defer self.g.Alive.Done()

	stopch := self.g.Alive.StopChan()
	select {
	case <-self.clock.After(self.renderDelay):
	case <-stopch:
		return
	}

	last := uint8(0xff) // forces the first paint
	for {
		select {
		case <-self.clock.After(self.renderTick):
		case <-stopch:
			return
		}
		snap := self.entry.Snapshot()
		if snap.Length == last {
			continue
		}
		last = snap.Length
		self.drawEntry(snap)
	}
}

func (self *UI) drawEntry(snap EntrySnapshot) {
	if err := self.display.Fill(entryBoxX1, entryBoxY1, entryBoxX2, entryBoxY2, st7735.Yellow); err != nil {
		self.g.Error(err)
		return
	}
	for i := 0; i < int(snap.Length); i++ {
		err := self.display.DrawChar(entryTextX+16*i, entryBoxY1, '0'+snap.Digits[i], st7735.Red, st7735.Yellow, 16, false)
		if err != nil {
			self.g.Error(err)
			return
		}
	}
}

func (self *UI) showImage(path string) {
	if self.display == nil || path == "" {
		return
	}
	self.g.Error(self.display.DrawImageFile(0, 0, st7735.Width, st7735.Height, path))
}

// Idle screen: background picture and the lock prompt. The entry strip
// is not repainted here, the render task brings it back on the next
// length change.
func (self *UI) showIdleScreen() {
	if self.display == nil {
		return
	}
	self.showImage(self.g.Config.Hardware.Display.ImageIdle)
	self.g.Error(self.display.DrawString(0, 0, self.config.MsgPrompt, st7735.Blue, st7735.White, 16, false))
}
