package ui

import (
	"sync/atomic"

	ui_config "github.com/temoto/doorlock/internal/ui/config"
)

// EntrySnapshot is the render task's view of the input buffer: length
// and digits published together, never torn. Digits are values 0..9.
type EntrySnapshot struct {
	Digits [ui_config.PasswordLen]byte
	Length uint8
}

// entry is the code input buffer. Only the ui loop writes it, the
// render task reads published snapshots.
type entry struct {
	buf [ui_config.PasswordLen]byte
	n   uint8
	v   atomic.Value // EntrySnapshot
}

func (self *entry) publish() {
	self.v.Store(EntrySnapshot{Digits: self.buf, Length: self.n})
}

// Append stores one digit. Returns false once the buffer is full,
// extra digits are dropped.
func (self *entry) Append(digit byte) bool {
	if self.n >= ui_config.PasswordLen {
		return false
	}
	self.buf[self.n] = digit
	self.n++
	self.publish()
	return true
}

func (self *entry) Clear() {
	self.buf = [ui_config.PasswordLen]byte{}
	self.n = 0
	self.publish()
}

// Match compares the whole buffer against the reference code. Unfilled
// positions hold zero, so a reference digit 0 also matches a position
// that was never typed.
func (self *entry) Match(reference [ui_config.PasswordLen]byte) bool {
	return self.buf == reference
}

func (self *entry) Snapshot() EntrySnapshot {
	if x := self.v.Load(); x != nil {
		return x.(EntrySnapshot)
	}
	return EntrySnapshot{}
}
