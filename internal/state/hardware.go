package state

import (
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"
	"github.com/juju/errors"
	"github.com/temoto/doorlock/hardware/input"
	"github.com/temoto/doorlock/hardware/keypad"
	"github.com/temoto/doorlock/hardware/servo"
	"github.com/temoto/doorlock/hardware/st7735"
)

type hardware struct {
	Display struct {
		once
		Device *st7735.Display
	}
	Input  *input.Dispatch
	Keypad struct {
		once
		Device *keypad.Keypad
	}
	Servo struct {
		once
		Device *servo.Servo
	}
}

// Display returns the inited panel driver, nil when disabled in config.
// spi="" renders into memory, useful for development and lock-emu.
func (g *Global) Display() (*st7735.Display, error) {
	x := &g.Hardware.Display // short alias
	_ = x.do(func() error {
		if x.Device != nil { // pre-seeded by a test or tool
			return nil
		}

		cfg := &g.Config.Hardware.Display
		if !cfg.Enable {
			g.Log.Infof("display st7735 is disabled")
			return nil
		}

		var err error
		if cfg.Spi == "" {
			fb := st7735.NewFramebuffer(cfg.Orientation)
			x.Device, err = st7735.NewWithBus(fb, *cfg, g.Log, clockwork.NewRealClock())
		} else {
			x.Device, err = st7735.New(*cfg, g.Log, clockwork.NewRealClock())
		}
		if err != nil {
			x.Device = nil
			return errors.Annotatef(err, "display config=%#v", cfg)
		}
		return errors.Annotate(x.Device.Init(), "display init")
	})
	return x.Device, x.err
}

func (g *Global) MustDisplay() *st7735.Display {
	d, err := g.Display()
	if err != nil {
		g.Fatal(err)
	}
	if d == nil {
		g.Fatal(errors.Errorf("display is not available"))
	}
	return d
}

// Keypad returns the matrix scanner, nil when chip is not configured.
func (g *Global) Keypad() (*keypad.Keypad, error) {
	x := &g.Hardware.Keypad
	_ = x.do(func() error {
		if x.Device != nil { // pre-seeded by a test or tool
			return nil
		}

		cfg := &g.Config.Hardware.Keypad
		if cfg.Chip == "" {
			g.Log.Infof("input=%s disabled", keypad.SourceTag)
			return nil
		}
		var err error
		x.Device, err = keypad.New(*cfg, g.Log, clockwork.NewRealClock(), g.Alive.StopChan())
		return errors.Annotatef(err, "keypad config=%#v", cfg)
	})
	return x.Device, x.err
}

// Servo never fails to construct. Pin trouble surfaces as log diagnostics
// and SetLocked no-ops until the pin opens.
func (g *Global) Servo() *servo.Servo {
	x := &g.Hardware.Servo
	_ = x.do(func() error {
		if x.Device != nil { // pre-seeded by a test or tool
			return nil
		}
		x.Device = servo.New(g.Config.Hardware.Servo, g.Log, clockwork.NewRealClock())
		return nil
	})
	return x.Device
}

func (g *Global) initInput() error {
	if g.Hardware.Input != nil { // pre-seeded by a test or tool
		return nil
	}
	g.Hardware.Input = input.NewDispatch(g.Log, g.Alive.StopChan())

	// support more input sources here
	sources := make([]input.Source, 0, 2)

	if kp, err := g.Keypad(); err != nil {
		return errors.Annotatef(err, "input=%s", keypad.SourceTag)
	} else if kp != nil {
		sources = append(sources, kp)
	}

	if !g.Config.Hardware.Input.DevInputEvent.Enable {
		g.Log.Infof("input=%s disabled", input.DevInputEventTag)
	} else {
		src, err := input.NewDevInputEventSource(g.Config.Hardware.Input.DevInputEvent.Device)
		if err != nil {
			return errors.Annotatef(err, "input=%s", input.DevInputEventTag)
		}
		sources = append(sources, src)
	}

	go g.Hardware.Input.Run(sources)
	return nil
}

type once struct {
	sync.Mutex
	called uint32 // atomic bool
	err    error
}

func (o *once) done() bool {
	return atomic.LoadUint32(&o.called) == 1
}

func (o *once) do(f func() error) error {
	if o.done() { // fast path
		return o.err
	}
	o.Lock()
	defer o.Unlock()
	if o.done() {
		return o.err
	}
	o.err = f()
	atomic.StoreUint32(&o.called, 1)
	return o.err
}
