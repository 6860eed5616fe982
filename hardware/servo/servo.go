// Lock actuator: a hobby servo on a PWM pin. Two fixed pulse widths of a
// 20 ms control period select the locked and unlocked horn positions.
package servo

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/juju/errors"
	"github.com/temoto/doorlock/helpers"
	"github.com/temoto/doorlock/log2"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"
)

const (
	DefaultPeriod        = 20 * time.Millisecond
	DefaultLockedPulse   = 500 * time.Microsecond  // 0 deg
	DefaultUnlockedPulse = 1500 * time.Microsecond // 90 deg
	DefaultSettle        = 300 * time.Millisecond
)

type Config struct {
	Pin             string `hcl:"pin"`
	PeriodMs        int    `hcl:"period_ms"`
	LockedPulseUs   int    `hcl:"locked_pulse_us"`
	UnlockedPulseUs int    `hcl:"unlocked_pulse_us"`
	SettleMs        int    `hcl:"settle_ms"`
}

type Servo struct {
	Log *log2.Log

	clock         clockwork.Clock
	pinName       string
	period        time.Duration
	pulseLocked   time.Duration
	pulseUnlocked time.Duration
	settle        time.Duration

	mu     sync.Mutex
	pin    gpio.PinOut
	locked bool
	open   func() (gpio.PinOut, error)
}

func New(cfg Config, log *log2.Log, clock clockwork.Clock) *Servo {
	return newServo(cfg, log, clock, func() (gpio.PinOut, error) { return openPin(cfg.Pin) })
}

func newServo(cfg Config, log *log2.Log, clock clockwork.Clock, open func() (gpio.PinOut, error)) *Servo {
	self := &Servo{
		Log:           log,
		clock:         clock,
		pinName:       cfg.Pin,
		period:        helpers.IntMillisecondDefault(cfg.PeriodMs, DefaultPeriod),
		pulseLocked:   helpers.IntMicrosecondDefault(cfg.LockedPulseUs, DefaultLockedPulse),
		pulseUnlocked: helpers.IntMicrosecondDefault(cfg.UnlockedPulseUs, DefaultUnlockedPulse),
		settle:        helpers.IntMillisecondDefault(cfg.SettleMs, DefaultSettle),
		locked:        true,
		open:          open,
	}
	pin, err := self.open()
	if err != nil {
		self.Log.Errorf("servo pin=%s not available: %v", self.pinName, err)
	} else {
		self.pin = pin
	}
	return self
}

func openPin(name string) (gpio.PinOut, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Annotate(err, "periph host")
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, errors.NotFoundf("servo pin=%s", name)
	}
	return pin, nil
}

// SetLocked moves the horn and blocks for the mechanical settle time.
// Repeating the current position still moves and still waits: the horn
// may have been forced off position since the last call.
// Without a usable pin it retries opening once, then gives up silently.
func (self *Servo) SetLocked(ctx context.Context, locked bool) error {
	self.mu.Lock()
	defer self.mu.Unlock()

	if self.pin == nil {
		pin, err := self.open()
		if err != nil {
			self.Log.Debugf("servo pin=%s still not available: %v", self.pinName, err)
			return nil
		}
		self.pin = pin
	}

	pulse := self.pulseUnlocked
	if locked {
		pulse = self.pulseLocked
	}
	duty := gpio.Duty(int64(gpio.DutyMax) * int64(pulse) / int64(self.period))
	freq := physic.Frequency(int64(physic.Hertz) * int64(time.Second) / int64(self.period))
	if err := self.pin.PWM(duty, freq); err != nil {
		return errors.Annotatef(err, "servo pin=%s pwm duty=%d", self.pinName, duty)
	}
	self.locked = locked
	if locked {
		self.Log.Debugf("door locked (0 deg)")
	} else {
		self.Log.Debugf("door unlocked (90 deg)")
	}

	self.clock.Sleep(self.settle)
	return nil
}

// Locked reports the last commanded position, not a measured one.
func (self *Servo) Locked() bool {
	self.mu.Lock()
	defer self.mu.Unlock()
	return self.locked
}
