package st7735

// RGB565 is the panel's native pixel format, red in the top bits,
// transmitted most-significant byte first.
type RGB565 uint16

const (
	White   RGB565 = 0xFFFF
	Black   RGB565 = 0x0000
	Blue    RGB565 = 0x001F
	Red     RGB565 = 0xF800
	Green   RGB565 = 0x07E0
	Cyan    RGB565 = 0x7FFF
	Magenta RGB565 = 0xF81F
	Yellow  RGB565 = 0xFFE0
	Brown   RGB565 = 0xBC40
	Gray    RGB565 = 0x8430
)

func (c RGB565) hi() byte { return byte(c >> 8) }
func (c RGB565) lo() byte { return byte(c) }

// RGB expands to 8-bit channels, for rendering on anything that is not
// the panel itself.
func (c RGB565) RGB() (r, g, b uint8) {
	r = uint8((c>>11)&0x1f) << 3
	g = uint8((c>>5)&0x3f) << 2
	b = uint8(c&0x1f) << 3
	return r, g, b
}
