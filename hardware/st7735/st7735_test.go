package st7735

import (
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/temoto/doorlock/log2"
)

func testDisplay(t testing.TB, cfg Config, bus Bus) *Display {
	self, err := NewWithBus(bus, cfg, log2.NewTest(t, log2.LDebug), clockwork.NewFakeClock())
	require.NoError(t, err)
	return self
}

// Feeds a fake clock so blocking sleeps inside the tested call make
// progress without real waiting.
func pumpClock(clock clockwork.FakeClock, stop <-chan struct{}) {
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			clock.BlockUntil(1)
			clock.Advance(200 * time.Millisecond)
		}
	}()
}

func TestInitSequence(t *testing.T) {
	t.Parallel()

	bus := &MockBus{}
	clock := clockwork.NewFakeClock()
	d, err := NewWithBus(bus, Config{Orientation: 1}, log2.NewTest(t, log2.LDebug), clock)
	require.NoError(t, err)

	stop := make(chan struct{})
	defer close(stop)
	pumpClock(clock, stop)
	done := make(chan error)
	go func() { done <- d.Init() }()
	require.NoError(t, <-done)

	expect := []BusOp{
		{Kind: "reset"},
		{Kind: "backlight", Data: []byte{1}},
		{Kind: "cmd", Data: []byte{0x11}},
		{Kind: "cmd", Data: []byte{0xB1}},
		{Kind: "data", Data: []byte{0x05, 0x3C, 0x3C}},
		{Kind: "cmd", Data: []byte{0xB2}},
		{Kind: "data", Data: []byte{0x05, 0x3C, 0x3C}},
		{Kind: "cmd", Data: []byte{0xB3}},
		{Kind: "data", Data: []byte{0x05, 0x3C, 0x3C, 0x05, 0x3C, 0x3C}},
		{Kind: "cmd", Data: []byte{0xB4}},
		{Kind: "data", Data: []byte{0x03}},
		{Kind: "cmd", Data: []byte{0x3A}},
		{Kind: "data", Data: []byte{0x05}},
		{Kind: "cmd", Data: []byte{0xC0}},
		{Kind: "data", Data: []byte{0xA2, 0x02, 0x84}},
		{Kind: "cmd", Data: []byte{0xC1}},
		{Kind: "data", Data: []byte{0xC5}},
		{Kind: "cmd", Data: []byte{0xC2}},
		{Kind: "data", Data: []byte{0x0D, 0x00}},
		{Kind: "cmd", Data: []byte{0xC3}},
		{Kind: "data", Data: []byte{0x8D, 0x2A}},
		{Kind: "cmd", Data: []byte{0xC4}},
		{Kind: "data", Data: []byte{0x8D, 0xEE}},
		{Kind: "cmd", Data: []byte{0xC5}},
		{Kind: "data", Data: []byte{0x0A}},
		{Kind: "cmd", Data: []byte{0x36}},
		{Kind: "data", Data: []byte{0xC8}},
		{Kind: "cmd", Data: []byte{0xE0}},
		{Kind: "data", Data: []byte{
			0x12, 0x1C, 0x10, 0x18, 0x33, 0x2C, 0x25, 0x28,
			0x28, 0x27, 0x2F, 0x3C, 0x00, 0x03, 0x03, 0x10}},
		{Kind: "cmd", Data: []byte{0xE1}},
		{Kind: "data", Data: []byte{
			0x12, 0x1C, 0x10, 0x18, 0x2D, 0x28, 0x23, 0x28,
			0x28, 0x26, 0x2F, 0x3B, 0x00, 0x03, 0x03, 0x10}},
		{Kind: "cmd", Data: []byte{0x20}},
		{Kind: "cmd", Data: []byte{0x13}},
		{Kind: "cmd", Data: []byte{0x29}},
		{Kind: "cmd", Data: []byte{0x2C}},
	}
	require.Equal(t, expect, bus.Ops)
}

func TestAddrWindowOffsets(t *testing.T) {
	t.Parallel()

	cases := []struct {
		orientation int
		madctl      byte
		ox, oy      byte
	}{
		{0, 0x08, 2, 1},
		{1, 0xC8, 2, 3},
		{2, 0x78, 1, 2},
		{3, 0xA8, 3, 2},
	}
	for _, c := range cases {
		c := c
		t.Run(fmt.Sprintf("orientation=%d", c.orientation), func(t *testing.T) {
			t.Parallel()
			bus := &MockBus{}
			d := testDisplay(t, Config{Orientation: c.orientation}, bus)
			assert.Equal(t, c.madctl, d.madctl)

			require.NoError(t, d.SetAddrWindow(5, 9, 30, 40))
			expect := []BusOp{
				{Kind: "cmd", Data: []byte{0x2A}},
				{Kind: "data", Data: []byte{0, 5 + c.ox, 0, 30 + c.ox}},
				{Kind: "cmd", Data: []byte{0x2B}},
				{Kind: "data", Data: []byte{0, 9 + c.oy, 0, 40 + c.oy}},
				{Kind: "cmd", Data: []byte{0x2C}},
			}
			assert.Equal(t, expect, bus.Ops)
		})
	}
}

func TestFillHalfOpen(t *testing.T) {
	t.Parallel()

	fb := NewFramebuffer(1)
	d := testDisplay(t, Config{Orientation: 1}, fb)
	require.NoError(t, d.Fill(0, 0, 128, 128, Black))
	require.NoError(t, d.Fill(16, 45, 112, 60, Yellow))

	count := 0
	for y := 0; y < Height; y++ {
		for x := 0; x < Width; x++ {
			if fb.At(x, y) == Yellow {
				count++
			}
		}
	}
	assert.Equal(t, (112-16)*(60-45), count)

	assert.Equal(t, Yellow, fb.At(16, 45))
	assert.Equal(t, Yellow, fb.At(111, 59))
	assert.Equal(t, Black, fb.At(15, 45))
	assert.Equal(t, Black, fb.At(16, 44))
	assert.Equal(t, Black, fb.At(112, 45))
	assert.Equal(t, Black, fb.At(16, 60))
}

func TestFillEmpty(t *testing.T) {
	t.Parallel()

	bus := &MockBus{}
	d := testDisplay(t, Config{Orientation: 1}, bus)
	require.NoError(t, d.Fill(10, 10, 10, 20, Red))
	require.NoError(t, d.Fill(10, 10, 20, 10, Red))
	assert.Len(t, bus.Ops, 0)
}

func TestDrawPoint(t *testing.T) {
	t.Parallel()

	fb := NewFramebuffer(1)
	d := testDisplay(t, Config{Orientation: 1}, fb)
	require.NoError(t, d.DrawPoint(77, 33, Green))
	assert.Equal(t, Green, fb.At(77, 33))
	assert.Equal(t, RGB565(0), fb.At(76, 33))
	assert.Equal(t, RGB565(0), fb.At(78, 33))
	assert.Equal(t, RGB565(0), fb.At(77, 32))
	assert.Equal(t, RGB565(0), fb.At(77, 34))
}
