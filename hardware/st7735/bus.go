package st7735

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/juju/errors"
	"github.com/temoto/doorlock/helpers"
	gpio "github.com/temoto/gpio-cdev-go"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

// spidev transfer size limit
const busChunk = 2048

const DefaultSpeed = 20 * physic.MegaHertz

// Bus is the byte-level link to the panel. Command and Data differ only
// in the DC select line level during the transfer.
type Bus interface {
	Command(c byte) error
	Data(p []byte) error
	Reset() error
	Backlight(on bool) error
	Close() error
}

type spiBus struct {
	clock  clockwork.Clock
	port   spi.PortCloser
	conn   spi.Conn
	chip   gpio.Chiper
	lines  gpio.Lineser
	setDC  gpio.LineSetFunc
	setRES gpio.LineSetFunc
	setBLK gpio.LineSetFunc
}

func openBus(cfg Config, clock clockwork.Clock) (Bus, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Annotate(err, "periph host")
	}
	port, err := spireg.Open(cfg.Spi)
	if err != nil {
		return nil, errors.Annotatef(err, "display spi=%s", cfg.Spi)
	}
	speed := DefaultSpeed
	if cfg.SpeedMhz != 0 {
		speed = physic.Frequency(cfg.SpeedMhz) * physic.MegaHertz
	}
	conn, err := port.Connect(speed, spi.Mode0, 8)
	if err != nil {
		_ = port.Close()
		return nil, errors.Annotatef(err, "display spi=%s speed=%s", cfg.Spi, speed)
	}
	chip, err := gpio.Open(cfg.Chip, "st7735")
	if err != nil {
		_ = port.Close()
		return nil, errors.Annotatef(err, "display chip=%s", cfg.Chip)
	}
	lines, err := chip.OpenLines(gpio.GPIOHANDLE_REQUEST_OUTPUT, "st7735-ctrl",
		uint32(cfg.PinDC), uint32(cfg.PinReset), uint32(cfg.PinBacklight))
	if err != nil {
		_ = chip.Close()
		_ = port.Close()
		return nil, errors.Annotatef(err, "display control lines dc=%d reset=%d backlight=%d",
			cfg.PinDC, cfg.PinReset, cfg.PinBacklight)
	}
	self := &spiBus{
		clock:  clock,
		port:   port,
		conn:   conn,
		chip:   chip,
		lines:  lines,
		setDC:  lines.SetFunc(uint32(cfg.PinDC)),
		setRES: lines.SetFunc(uint32(cfg.PinReset)),
		setBLK: lines.SetFunc(uint32(cfg.PinBacklight)),
	}
	// DC=data, reset inactive, backlight off until Init
	lines.SetBulk(1, 1, 0)
	if err := lines.Flush(); err != nil {
		_ = self.Close()
		return nil, errors.Annotate(err, "display control lines")
	}
	return self, nil
}

func (self *spiBus) Command(c byte) error {
	self.setDC(0)
	if err := self.lines.Flush(); err != nil {
		return errors.Annotate(err, "display dc")
	}
	return errors.Annotatef(self.conn.Tx([]byte{c}, nil), "display command=%02x", c)
}

func (self *spiBus) Data(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	self.setDC(1)
	if err := self.lines.Flush(); err != nil {
		return errors.Annotate(err, "display dc")
	}
	for len(p) > 0 {
		n := len(p)
		if n > busChunk {
			n = busChunk
		}
		if err := self.conn.Tx(p[:n], nil); err != nil {
			return errors.Annotate(err, "display data")
		}
		p = p[n:]
	}
	return nil
}

func (self *spiBus) Reset() error {
	self.setRES(0)
	if err := self.lines.Flush(); err != nil {
		return errors.Annotate(err, "display reset")
	}
	self.clock.Sleep(100 * time.Millisecond)
	self.setRES(1)
	if err := self.lines.Flush(); err != nil {
		return errors.Annotate(err, "display reset")
	}
	self.clock.Sleep(100 * time.Millisecond)
	return nil
}

func (self *spiBus) Backlight(on bool) error {
	v := byte(0)
	if on {
		v = 1
	}
	self.setBLK(v)
	return errors.Annotate(self.lines.Flush(), "display backlight")
}

func (self *spiBus) Close() error {
	errs := []error{
		self.lines.Close(),
		self.chip.Close(),
		self.port.Close(),
	}
	return helpers.FoldErrors(errs)
}
