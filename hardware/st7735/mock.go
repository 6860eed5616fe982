package st7735

import "sync"

// MockBus records the raw stream for byte-exact assertions.
type MockBus struct {
	mu  sync.Mutex
	Ops []BusOp
}

type BusOp struct {
	Kind string // cmd, data, reset, backlight, close
	Data []byte
}

var _ Bus = new(MockBus)

func (self *MockBus) append(kind string, data []byte) {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.Ops = append(self.Ops, BusOp{Kind: kind, Data: data})
}

func (self *MockBus) Command(c byte) error {
	self.append("cmd", []byte{c})
	return nil
}

func (self *MockBus) Data(p []byte) error {
	cp := make([]byte, len(p))
	copy(cp, p)
	self.append("data", cp)
	return nil
}

func (self *MockBus) Reset() error {
	self.append("reset", nil)
	return nil
}

func (self *MockBus) Backlight(on bool) error {
	v := byte(0)
	if on {
		v = 1
	}
	self.append("backlight", []byte{v})
	return nil
}

func (self *MockBus) Close() error {
	self.append("close", nil)
	return nil
}

// controller RAM extent
const (
	ramW = 132
	ramH = 162
)

// Framebuffer interprets the command stream into pixels, for tests and
// for running without a panel.
type Framebuffer struct {
	mu         sync.Mutex
	offsetX    int
	offsetY    int
	pix        [ramW * ramH]RGB565
	cmd        byte
	args       []byte
	x1, x2     int
	y1, y2     int
	cx, cy     int
	pending    byte
	hasPending bool
	backlight  bool
	resets     int
}

var _ Bus = new(Framebuffer)

func NewFramebuffer(orientation int) *Framebuffer {
	ox, oy := panelOffsets(orientation)
	return &Framebuffer{offsetX: ox, offsetY: oy, x2: ramW - 1, y2: ramH - 1}
}

func (self *Framebuffer) Command(c byte) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.cmd = c
	self.args = self.args[:0]
	self.hasPending = false
	if c == cmdMemWrite {
		self.cx, self.cy = self.x1, self.y1
	}
	return nil
}

func (self *Framebuffer) Data(p []byte) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	switch self.cmd {
	case cmdColumnAddr:
		self.args = append(self.args, p...)
		if len(self.args) >= 4 {
			self.x1 = int(self.args[0])<<8 | int(self.args[1])
			self.x2 = int(self.args[2])<<8 | int(self.args[3])
		}
	case cmdRowAddr:
		self.args = append(self.args, p...)
		if len(self.args) >= 4 {
			self.y1 = int(self.args[0])<<8 | int(self.args[1])
			self.y2 = int(self.args[2])<<8 | int(self.args[3])
		}
	case cmdMemWrite:
		for _, b := range p {
			if !self.hasPending {
				self.pending = b
				self.hasPending = true
				continue
			}
			self.hasPending = false
			self.set(RGB565(uint16(self.pending)<<8 | uint16(b)))
		}
	}
	return nil
}

// Writes auto-advance row-major and wrap inside the window.
func (self *Framebuffer) set(c RGB565) {
	if self.cx >= 0 && self.cx < ramW && self.cy >= 0 && self.cy < ramH {
		self.pix[self.cy*ramW+self.cx] = c
	}
	self.cx++
	if self.cx > self.x2 {
		self.cx = self.x1
		self.cy++
		if self.cy > self.y2 {
			self.cy = self.y1
		}
	}
}

func (self *Framebuffer) Reset() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.resets++
	return nil
}

func (self *Framebuffer) Backlight(on bool) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	self.backlight = on
	return nil
}

func (self *Framebuffer) Close() error { return nil }

// At reads back the pixel at panel coordinates.
func (self *Framebuffer) At(x, y int) RGB565 {
	self.mu.Lock()
	defer self.mu.Unlock()
	rx := x + self.offsetX
	ry := y + self.offsetY
	if rx < 0 || rx >= ramW || ry < 0 || ry >= ramH {
		return 0
	}
	return self.pix[ry*ramW+rx]
}

func (self *Framebuffer) Backlit() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.backlight
}
