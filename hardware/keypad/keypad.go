// 4x4 matrix keypad scanned over GPIO character device lines.
// Rows are outputs driven one at a time to active low, columns are
// inputs with external pull-ups, so a pressed key reads its column low.
package keypad

import (
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/juju/errors"
	"github.com/temoto/doorlock/hardware/input"
	"github.com/temoto/doorlock/helpers"
	"github.com/temoto/doorlock/internal/types"
	"github.com/temoto/doorlock/log2"
	"github.com/temoto/gpio-cdev-go"
)

const SourceTag = "keypad"

const (
	matrixRows = 4
	matrixCols = 4

	DefaultSettle = 10 * time.Microsecond
	DefaultPoll   = 10 * time.Millisecond
)

type Config struct {
	Chip     string `hcl:"chip"`
	Rows     []int  `hcl:"rows"`
	Cols     []int  `hcl:"cols"`
	SettleUs int    `hcl:"settle_us"`
	PollMs   int    `hcl:"poll_ms"`
}

// KeyCode 0 means no key; 1..16 name a (row,column) position:
// code = (row-1)*4 + (5-column).
type KeyCode uint8

// Key maps a matrix position to the legend printed on the cap.
func (c KeyCode) Key() (types.InputKey, bool) {
	switch c {
	case 1, 2, 3:
		return types.InputKey('0' + c), true
	case 5, 6, 7:
		return types.InputKey('0' + c - 1), true
	case 9, 10, 11:
		return types.InputKey('0' + c - 2), true
	case 13:
		return types.KeyClear, true
	case 14:
		return '0', true
	case 15:
		return types.KeyConfirm, true
	}
	return types.KeyInvalid, false
}

type Keypad struct {
	Log    *log2.Log
	chip   gpio.Chiper
	rows   gpio.Lineser
	cols   gpio.Lineser
	rowSet [matrixRows]gpio.LineSetFunc
	clock  clockwork.Clock
	settle time.Duration
	poll   time.Duration
	prev   KeyCode
	stop   <-chan struct{}
}

// compile-time interface compliance test
var _ input.Source = new(Keypad)

func New(cfg Config, log *log2.Log, clock clockwork.Clock, stop <-chan struct{}) (*Keypad, error) {
	chip, err := gpio.Open(cfg.Chip, SourceTag)
	if err != nil {
		return nil, errors.Annotatef(err, "keypad chip=%s", cfg.Chip)
	}
	return NewWithChip(chip, cfg, log, clock, stop)
}

func NewWithChip(chip gpio.Chiper, cfg Config, log *log2.Log, clock clockwork.Clock, stop <-chan struct{}) (*Keypad, error) {
	if len(cfg.Rows) != matrixRows {
		return nil, errors.NotValidf("keypad rows=%v want %d lines", cfg.Rows, matrixRows)
	}
	if len(cfg.Cols) != matrixCols {
		return nil, errors.NotValidf("keypad cols=%v want %d lines", cfg.Cols, matrixCols)
	}

	self := &Keypad{
		Log:    log,
		chip:   chip,
		clock:  clock,
		settle: helpers.IntMicrosecondDefault(cfg.SettleUs, DefaultSettle),
		poll:   helpers.IntMillisecondDefault(cfg.PollMs, DefaultPoll),
		stop:   stop,
	}

	rowLines := lineOffsets(cfg.Rows)
	colLines := lineOffsets(cfg.Cols)
	var err error
	if self.rows, err = chip.OpenLines(gpio.GPIOHANDLE_REQUEST_OUTPUT, SourceTag+"-rows", rowLines...); err != nil {
		return nil, errors.Annotatef(err, "keypad rows=%v", cfg.Rows)
	}
	if self.cols, err = chip.OpenLines(gpio.GPIOHANDLE_REQUEST_INPUT, SourceTag+"-cols", colLines...); err != nil {
		return nil, errors.Annotatef(err, "keypad cols=%v", cfg.Cols)
	}
	for i, line := range rowLines {
		self.rowSet[i] = self.rows.SetFunc(line)
	}

	// idle: all rows inactive
	self.rows.SetBulk(1, 1, 1, 1)
	if err = self.rows.Flush(); err != nil {
		return nil, errors.Annotate(err, "keypad rows idle")
	}
	return self, nil
}

func (self *Keypad) Close() error {
	if self.rows != nil {
		self.rows.Close()
	}
	if self.cols != nil {
		self.cols.Close()
	}
	return self.chip.Close()
}

func (self *Keypad) String() string { return SourceTag }

// Sample drives each row active in turn and reads the columns after the
// electrical settle delay. Within a row the columns are checked last to
// first and later checks overwrite, so of several active columns the
// lowest-numbered one is reported. No key pressed reports 0.
func (self *Keypad) Sample() (KeyCode, error) {
	var code KeyCode
	for r := 0; r < matrixRows; r++ {
		for i := range self.rowSet {
			v := byte(1)
			if i == r {
				v = 0
			}
			self.rowSet[i](v)
		}
		if err := self.rows.Flush(); err != nil {
			return 0, errors.Annotatef(err, "keypad drive row=%d", r+1)
		}
		self.clock.Sleep(self.settle)

		data, err := self.cols.Read()
		if err != nil {
			return 0, errors.Annotatef(err, "keypad read columns row=%d", r+1)
		}
		for ci := matrixCols - 1; ci >= 0; ci-- {
			if data.Values[ci] == 0 {
				code = KeyCode(r*matrixCols + (matrixCols - ci))
			}
		}
	}
	return code, nil
}

// Read samples every poll period and returns the next key-down edge:
// a sample that is a key where the previous sample was no key or a
// different key. Held keys do not repeat.
func (self *Keypad) Read() (types.InputEvent, error) {
	for {
		self.clock.Sleep(self.poll)
		select {
		case <-self.stop:
			return types.InputEvent{}, io.EOF
		default:
		}

		code, err := self.Sample()
		if err != nil {
			return types.InputEvent{}, errors.Trace(err)
		}
		prev := self.prev
		self.prev = code
		if code == 0 || code == prev {
			continue
		}
		key, ok := code.Key()
		if !ok {
			self.Log.Debugf("keypad unmapped code=%d", code)
			continue
		}
		return types.InputEvent{Source: SourceTag, Key: key}, nil
	}
}

func lineOffsets(xs []int) []uint32 {
	out := make([]uint32, len(xs))
	for i, x := range xs {
		out[i] = uint32(x)
	}
	return out
}
