// ST7735S 128x128 SPI panel: command/data bus, init sequence, window
// addressing and drawing primitives in the controller's native RGB565.
package st7735

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/juju/errors"
	"github.com/temoto/doorlock/log2"
)

const (
	Width  = 128
	Height = 128
)

const (
	cmdSleepOut   = 0x11
	cmdNormalOn   = 0x13
	cmdInvertOff  = 0x20
	cmdDisplayOn  = 0x29
	cmdColumnAddr = 0x2A
	cmdRowAddr    = 0x2B
	cmdMemWrite   = 0x2C
	cmdMadctl     = 0x36
	cmdPixFmt     = 0x3A
)

type Config struct {
	Enable       bool   `hcl:"enable"`
	Spi          string `hcl:"spi"`
	SpeedMhz     int    `hcl:"speed_mhz"`
	Chip         string `hcl:"chip"`
	PinDC        int    `hcl:"pin_dc"`
	PinReset     int    `hcl:"pin_reset"`
	PinBacklight int    `hcl:"pin_backlight"`
	Orientation  int    `hcl:"orientation"`
	Ascii16      string `hcl:"ascii16"`
	Ascii32      string `hcl:"ascii32"`
	Hanzi16      string `hcl:"hanzi16"`
	Hanzi24      string `hcl:"hanzi24"`
	Hanzi32      string `hcl:"hanzi32"`
	ImageIdle    string `hcl:"image_idle"`
	ImageOk      string `hcl:"image_ok"`
	ImageDeny    string `hcl:"image_deny"`
	ImageLogo    string `hcl:"image_logo"`
}

// The controller RAM origin shifts with the scan direction on the 1.44"
// panel, so each orientation pairs a MADCTL byte with address offsets.
func madctl(orientation int) byte {
	switch orientation & 3 {
	case 0:
		return 0x08
	case 1:
		return 0xC8
	case 2:
		return 0x78
	}
	return 0xA8
}

func panelOffsets(orientation int) (int, int) {
	switch orientation & 3 {
	case 0:
		return 2, 1
	case 1:
		return 2, 3
	case 2:
		return 1, 2
	}
	return 3, 2
}

type Display struct {
	Log *log2.Log

	bus     Bus
	clock   clockwork.Clock
	madctl  byte
	offsetX uint16
	offsetY uint16

	mu     sync.Mutex
	ascii  map[int]*asciiFont
	han    map[int]*hanFont
	images map[string][]byte
}

func New(cfg Config, log *log2.Log, clock clockwork.Clock) (*Display, error) {
	bus, err := openBus(cfg, clock)
	if err != nil {
		return nil, errors.Trace(err)
	}
	return NewWithBus(bus, cfg, log, clock)
}

func NewWithBus(bus Bus, cfg Config, log *log2.Log, clock clockwork.Clock) (*Display, error) {
	ox, oy := panelOffsets(cfg.Orientation)
	self := &Display{
		Log:     log,
		bus:     bus,
		clock:   clock,
		madctl:  madctl(cfg.Orientation),
		offsetX: uint16(ox),
		offsetY: uint16(oy),
		ascii:   make(map[int]*asciiFont, 2),
		han:     make(map[int]*hanFont, 3),
		images:  make(map[string][]byte, 4),
	}
	for size, path := range map[int]string{16: cfg.Ascii16, 32: cfg.Ascii32} {
		if path == "" {
			continue
		}
		f, err := loadASCIIFont(path, size)
		if err != nil {
			return nil, errors.Trace(err)
		}
		self.ascii[size] = f
	}
	for size, path := range map[int]string{16: cfg.Hanzi16, 24: cfg.Hanzi24, 32: cfg.Hanzi32} {
		if path == "" {
			continue
		}
		f, err := loadHanFont(path, size)
		if err != nil {
			return nil, errors.Trace(err)
		}
		self.han[size] = f
	}
	return self, nil
}

type initStep struct {
	cmd  byte
	data []byte
}

func (self *Display) initSeq() []initStep {
	return []initStep{
		{0xB1, []byte{0x05, 0x3C, 0x3C}},
		{0xB2, []byte{0x05, 0x3C, 0x3C}},
		{0xB3, []byte{0x05, 0x3C, 0x3C, 0x05, 0x3C, 0x3C}},
		{0xB4, []byte{0x03}},
		{cmdPixFmt, []byte{0x05}},
		{0xC0, []byte{0xA2, 0x02, 0x84}},
		{0xC1, []byte{0xC5}},
		{0xC2, []byte{0x0D, 0x00}},
		{0xC3, []byte{0x8D, 0x2A}},
		{0xC4, []byte{0x8D, 0xEE}},
		{0xC5, []byte{0x0A}},
		{cmdMadctl, []byte{self.madctl}},
		{0xE0, []byte{
			0x12, 0x1C, 0x10, 0x18, 0x33, 0x2C, 0x25, 0x28,
			0x28, 0x27, 0x2F, 0x3C, 0x00, 0x03, 0x03, 0x10}},
		{0xE1, []byte{
			0x12, 0x1C, 0x10, 0x18, 0x2D, 0x28, 0x23, 0x28,
			0x28, 0x26, 0x2F, 0x3B, 0x00, 0x03, 0x03, 0x10}},
		{cmdInvertOff, nil},
		{cmdNormalOn, nil},
		{cmdDisplayOn, nil},
		{cmdMemWrite, nil},
	}
}

// Init pulses reset, turns the backlight on and programs the panel.
func (self *Display) Init() error {
	self.mu.Lock()
	defer self.mu.Unlock()

	if err := self.bus.Reset(); err != nil {
		return errors.Trace(err)
	}
	if err := self.bus.Backlight(true); err != nil {
		return errors.Trace(err)
	}
	self.clock.Sleep(100 * time.Millisecond)
	if err := self.bus.Command(cmdSleepOut); err != nil {
		return errors.Trace(err)
	}
	self.clock.Sleep(120 * time.Millisecond)
	for _, step := range self.initSeq() {
		if err := self.bus.Command(step.cmd); err != nil {
			return errors.Trace(err)
		}
		if len(step.data) > 0 {
			if err := self.bus.Data(step.data); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return nil
}

func (self *Display) Backlight(on bool) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	return errors.Trace(self.bus.Backlight(on))
}

func (self *Display) Close() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.bus.Close()
}

// SetAddrWindow selects the inclusive rectangle for following pixel
// writes, which auto-advance row-major and wrap inside the window.
func (self *Display) SetAddrWindow(x1, y1, x2, y2 int) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	return errors.Trace(self.setAddrWindow(x1, y1, x2, y2))
}

func (self *Display) setAddrWindow(x1, y1, x2, y2 int) error {
	cx1 := uint16(x1) + self.offsetX
	cx2 := uint16(x2) + self.offsetX
	cy1 := uint16(y1) + self.offsetY
	cy2 := uint16(y2) + self.offsetY
	if err := self.bus.Command(cmdColumnAddr); err != nil {
		return err
	}
	if err := self.bus.Data([]byte{byte(cx1 >> 8), byte(cx1), byte(cx2 >> 8), byte(cx2)}); err != nil {
		return err
	}
	if err := self.bus.Command(cmdRowAddr); err != nil {
		return err
	}
	if err := self.bus.Data([]byte{byte(cy1 >> 8), byte(cy1), byte(cy2 >> 8), byte(cy2)}); err != nil {
		return err
	}
	return self.bus.Command(cmdMemWrite)
}

func (self *Display) WritePixel(color RGB565) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	return errors.Trace(self.writePixel(color))
}

func (self *Display) writePixel(color RGB565) error {
	return self.bus.Data([]byte{color.hi(), color.lo()})
}

func (self *Display) DrawPoint(x, y int, color RGB565) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	return errors.Trace(self.drawPoint(x, y, color))
}

func (self *Display) drawPoint(x, y int, color RGB565) error {
	if err := self.setAddrWindow(x, y, x, y); err != nil {
		return err
	}
	return self.writePixel(color)
}

// Fill paints [x1,x2)×[y1,y2), half-open on the right and bottom.
func (self *Display) Fill(x1, y1, x2, y2 int, color RGB565) error {
	self.mu.Lock()
	defer self.mu.Unlock()

	if x2 <= x1 || y2 <= y1 {
		return nil
	}
	if err := self.setAddrWindow(x1, y1, x2-1, y2-1); err != nil {
		return errors.Trace(err)
	}
	count := (x2 - x1) * (y2 - y1)
	buf := make([]byte, count*2)
	for i := 0; i < count; i++ {
		buf[2*i] = color.hi()
		buf[2*i+1] = color.lo()
	}
	return errors.Trace(self.bus.Data(buf))
}
