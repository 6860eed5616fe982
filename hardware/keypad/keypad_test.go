package keypad

import (
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/doorlock/internal/types"
	"github.com/temoto/doorlock/log2"
	"github.com/temoto/gpio-cdev-go"
)

const (
	testRowBase = 10
	testColBase = 20
)

// fakeMatrix models the electrical behavior of the switch grid: a column
// line reads low only while some pressed key connects it to a row that is
// currently driven low.
type fakeMatrix struct {
	mu      sync.Mutex
	pressed map[[2]int]bool
	rowV    [matrixRows]byte
}

func newFakeMatrix() *fakeMatrix {
	m := &fakeMatrix{pressed: make(map[[2]int]bool)}
	for i := range m.rowV {
		m.rowV[i] = 1
	}
	return m
}

func (m *fakeMatrix) press(row, col int) {
	m.mu.Lock()
	m.pressed[[2]int{row, col}] = true
	m.mu.Unlock()
}

func (m *fakeMatrix) release(row, col int) {
	m.mu.Lock()
	delete(m.pressed, [2]int{row, col})
	m.mu.Unlock()
}

type fakeRowLines struct {
	m       *fakeMatrix
	pending [matrixRows]byte
}

func (l *fakeRowLines) Close() error          { return nil }
func (l *fakeRowLines) LineOffsets() []uint32 { return nil }
func (l *fakeRowLines) SetFunc(line uint32) gpio.LineSetFunc {
	idx := int(line) - testRowBase
	return func(value byte) { l.pending[idx] = value }
}
func (l *fakeRowLines) SetBulk(bs ...byte) {
	copy(l.pending[:], bs)
}
func (l *fakeRowLines) Flush() error {
	l.m.mu.Lock()
	l.m.rowV = l.pending
	l.m.mu.Unlock()
	return nil
}
func (l *fakeRowLines) Read() (gpio.HandleData, error) {
	var d gpio.HandleData
	copy(d.Values[:], l.pending[:])
	return d, nil
}

type fakeColLines struct {
	m *fakeMatrix
}

func (l *fakeColLines) Close() error          { return nil }
func (l *fakeColLines) LineOffsets() []uint32 { return nil }
func (l *fakeColLines) SetFunc(line uint32) gpio.LineSetFunc {
	panic("columns are inputs")
}
func (l *fakeColLines) SetBulk(bs ...byte) { panic("columns are inputs") }
func (l *fakeColLines) Flush() error       { return nil }
func (l *fakeColLines) Read() (gpio.HandleData, error) {
	var d gpio.HandleData
	l.m.mu.Lock()
	defer l.m.mu.Unlock()
	for ci := 0; ci < matrixCols; ci++ {
		d.Values[ci] = 1
		for ri := 0; ri < matrixRows; ri++ {
			if l.m.rowV[ri] == 0 && l.m.pressed[[2]int{ri, ci}] {
				d.Values[ci] = 0
			}
		}
	}
	return d, nil
}

type fakeChip struct {
	m *fakeMatrix
}

func (c *fakeChip) Close() error        { return nil }
func (c *fakeChip) Info() gpio.ChipInfo { return gpio.ChipInfo{} }
func (c *fakeChip) LineInfo(line uint32) (gpio.LineInfo, error) {
	return gpio.LineInfo{}, nil
}
func (c *fakeChip) OpenLines(flag gpio.RequestFlag, consumerLabel string, lines ...uint32) (gpio.Lineser, error) {
	switch flag {
	case gpio.GPIOHANDLE_REQUEST_OUTPUT:
		return &fakeRowLines{m: c.m}, nil
	case gpio.GPIOHANDLE_REQUEST_INPUT:
		return &fakeColLines{m: c.m}, nil
	}
	return nil, errors.Errorf("unexpected flag=%v", flag)
}
func (c *fakeChip) GetLineEvent(line uint32, flag gpio.RequestFlag, events gpio.EventFlag, consumerLabel string) (gpio.Eventer, error) {
	return nil, errors.Errorf("events not used")
}

func testKeypad(t testing.TB, clock clockwork.Clock, stop <-chan struct{}) (*Keypad, *fakeMatrix) {
	m := newFakeMatrix()
	cfg := Config{
		Rows: []int{testRowBase, testRowBase + 1, testRowBase + 2, testRowBase + 3},
		Cols: []int{testColBase, testColBase + 1, testColBase + 2, testColBase + 3},
	}
	kp, err := NewWithChip(&fakeChip{m: m}, cfg, log2.NewTest(t, log2.LDebug), clock, stop)
	require.NoError(t, err)
	return kp, m
}

func TestSampleCodes(t *testing.T) {
	t.Parallel()

	kp, m := testKeypad(t, clockwork.NewRealClock(), nil)
	code, err := kp.Sample()
	require.NoError(t, err)
	assert.Equal(t, KeyCode(0), code)

	for row := 0; row < matrixRows; row++ {
		for col := 0; col < matrixCols; col++ {
			m.press(row, col)
			code, err = kp.Sample()
			require.NoError(t, err)
			expect := KeyCode(row*matrixCols + (matrixCols - col))
			assert.Equal(t, expect, code, "row=%d col=%d", row, col)
			m.release(row, col)
		}
	}
}

func TestSampleLowestColumnWins(t *testing.T) {
	t.Parallel()

	kp, m := testKeypad(t, clockwork.NewRealClock(), nil)
	m.press(0, 0)
	m.press(0, 2)
	code, err := kp.Sample()
	require.NoError(t, err)
	assert.Equal(t, KeyCode(4), code)
}

func TestKeyCodeMapping(t *testing.T) {
	t.Parallel()

	expect := map[KeyCode]types.InputKey{
		1: '1', 2: '2', 3: '3',
		5: '4', 6: '5', 7: '6',
		9: '7', 10: '8', 11: '9',
		13: types.KeyClear, 14: '0', 15: types.KeyConfirm,
	}
	for code := KeyCode(0); code <= 16; code++ {
		key, ok := code.Key()
		if want, mapped := expect[code]; mapped {
			assert.True(t, ok, "code=%d", code)
			assert.Equal(t, want, key, "code=%d", code)
		} else {
			assert.False(t, ok, "code=%d", code)
			assert.Equal(t, types.KeyInvalid, key, "code=%d", code)
		}
	}
}

func TestReadEdges(t *testing.T) {
	clock := clockwork.NewFakeClock()
	stop := make(chan struct{})
	defer close(stop)
	kp, m := testKeypad(t, clock, stop)

	// keep the fake clock running so Read never parks for real
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			clock.BlockUntil(1)
			clock.Advance(DefaultPoll)
		}
	}()

	m.press(0, 3) // key '1'
	e, err := kp.Read()
	require.NoError(t, err)
	assert.Equal(t, types.InputKey('1'), e.Key)
	assert.Equal(t, SourceTag, e.Source)

	// '1' still held: the next event must come from the next edge only
	ch := make(chan types.InputEvent, 1)
	go func() {
		e2, err2 := kp.Read()
		if err2 == nil {
			ch <- e2
		}
	}()
	m.release(0, 3)
	m.press(0, 2) // key '2'
	select {
	case e2 := <-ch:
		assert.Equal(t, types.InputKey('2'), e2.Key)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for second key")
	}
}
