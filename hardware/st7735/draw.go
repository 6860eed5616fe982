package st7735

import (
	"io/ioutil"

	"github.com/juju/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// DrawLine steps along the dominant axis; error accumulators carry the
// other axis. Both endpoints paint.
func (self *Display) DrawLine(x1, y1, x2, y2 int, color RGB565) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	return errors.Trace(self.drawLine(x1, y1, x2, y2, color))
}

func (self *Display) drawLine(x1, y1, x2, y2 int, color RGB565) error {
	dx, incX := delta(x2 - x1)
	dy, incY := delta(y2 - y1)
	distance := dx
	if dy > dx {
		distance = dy
	}
	x, y := x1, y1
	xerr, yerr := 0, 0
	for t := 0; t <= distance; t++ {
		if err := self.drawPoint(x, y, color); err != nil {
			return err
		}
		xerr += dx
		yerr += dy
		if xerr >= distance {
			xerr -= distance
			x += incX
		}
		if yerr >= distance {
			yerr -= distance
			y += incY
		}
	}
	return nil
}

func delta(d int) (abs, inc int) {
	if d > 0 {
		return d, 1
	}
	if d < 0 {
		return -d, -1
	}
	return 0, 0
}

func (self *Display) DrawRectangle(x1, y1, x2, y2 int, color RGB565) error {
	self.mu.Lock()
	defer self.mu.Unlock()

	for _, edge := range [4][4]int{
		{x1, y1, x2, y1},
		{x1, y1, x1, y2},
		{x1, y2, x2, y2},
		{x2, y1, x2, y2},
	} {
		if err := self.drawLine(edge[0], edge[1], edge[2], edge[3], color); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// DrawCircle is the midpoint algorithm with 8-way symmetry. r=0 paints
// the center point.
func (self *Display) DrawCircle(cx, cy, r int, color RGB565) error {
	self.mu.Lock()
	defer self.mu.Unlock()

	a, b := 0, r
	for a <= b {
		for _, p := range [8][2]int{
			{cx - b, cy - a}, {cx + b, cy - a},
			{cx - a, cy + b}, {cx - a, cy - b},
			{cx + b, cy + a}, {cx + a, cy - b},
			{cx + a, cy + b}, {cx - b, cy + a},
		} {
			if err := self.drawPoint(p[0], p[1], color); err != nil {
				return errors.Trace(err)
			}
		}
		a++
		if a*a+b*b > r*r {
			b--
		}
	}
	return nil
}

// DrawChar blits one ASCII glyph. Overlay paints only foreground dots,
// otherwise fg/bg stream through a single window.
func (self *Display) DrawChar(x, y int, ch byte, fc, bc RGB565, size int, overlay bool) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	return errors.Trace(self.drawChar(x, y, ch, fc, bc, size, overlay))
}

func (self *Display) drawChar(x, y int, ch byte, fc, bc RGB565, size int, overlay bool) error {
	font := self.ascii[size]
	if font == nil {
		return errors.NotFoundf("ascii font size=%d", size)
	}
	glyph := font.glyph(ch)
	if glyph == nil {
		return nil
	}
	return self.blitGlyph(x, y, glyph, size/2, fc, bc, overlay)
}

// DrawHan blits one two-byte-code glyph, looked up first-match-wins.
// An absent code draws nothing.
func (self *Display) DrawHan(x, y int, code [2]byte, fc, bc RGB565, size int, overlay bool) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	return errors.Trace(self.drawHan(x, y, code, fc, bc, size, overlay))
}

func (self *Display) drawHan(x, y int, code [2]byte, fc, bc RGB565, size int, overlay bool) error {
	font := self.han[size]
	if font == nil {
		return errors.NotFoundf("hanzi font size=%d", size)
	}
	glyph := font.glyph(code)
	if glyph == nil {
		return nil
	}
	return self.blitGlyph(x, y, glyph, size, fc, bc, overlay)
}

// Glyph bits go LSB-first within each byte, rows top to bottom.
func (self *Display) blitGlyph(x, y int, glyph []byte, width int, fc, bc RGB565, overlay bool) error {
	height := len(glyph) * 8 / width
	if overlay {
		cx, cy := x, y
		for _, b := range glyph {
			for t := uint(0); t < 8; t++ {
				if b&(1<<t) != 0 {
					if err := self.drawPoint(cx, cy, fc); err != nil {
						return err
					}
				}
				cx++
				if cx-x == width {
					cx = x
					cy++
					break
				}
			}
		}
		return nil
	}
	if err := self.setAddrWindow(x, y, x+width-1, y+height-1); err != nil {
		return err
	}
	buf := make([]byte, 0, len(glyph)*16)
	for _, b := range glyph {
		for t := uint(0); t < 8; t++ {
			if b&(1<<t) != 0 {
				buf = append(buf, fc.hi(), fc.lo())
			} else {
				buf = append(buf, bc.hi(), bc.lo())
			}
		}
	}
	return self.bus.Data(buf)
}

// DrawString renders UTF-8 text, non-ASCII through the GB2312 glyph
// tables. ASCII advances size/2, hanzi advances size; past column 120
// the cursor wraps to the starting column one glyph row down.
func (self *Display) DrawString(x, y int, s string, fc, bc RGB565, size int, overlay bool) error {
	self.mu.Lock()
	defer self.mu.Unlock()

	enc := encoding.ReplaceUnsupported(simplifiedchinese.GBK.NewEncoder())
	gb, err := enc.Bytes([]byte(s))
	if err != nil {
		return errors.Annotatef(err, "text=%q", s)
	}
	startX := x
	for i := 0; i < len(gb); {
		w := size / 2
		if gb[i] < 0x80 {
			if err := self.drawChar(x, y, gb[i], fc, bc, size, overlay); err != nil {
				return errors.Trace(err)
			}
			i++
		} else {
			if i+1 >= len(gb) {
				break
			}
			if err := self.drawHan(x, y, [2]byte{gb[i], gb[i+1]}, fc, bc, size, overlay); err != nil {
				return errors.Trace(err)
			}
			w = size
			i += 2
		}
		x += w
		if x > 120 {
			x = startX
			y += size
		}
	}
	return nil
}

// DrawImage streams raw RGB565 big-endian pixels, row-major.
func (self *Display) DrawImage(x, y, w, h int, pix []byte) error {
	self.mu.Lock()
	defer self.mu.Unlock()
	return errors.Trace(self.drawImage(x, y, w, h, pix))
}

func (self *Display) drawImage(x, y, w, h int, pix []byte) error {
	if len(pix) != w*h*2 {
		return errors.NotValidf("image %dx%d bytes=%d", w, h, len(pix))
	}
	if err := self.setAddrWindow(x, y, x+w-1, y+h-1); err != nil {
		return err
	}
	return self.bus.Data(pix)
}

// DrawImageFile streams a raw pixel file, cached after the first read.
func (self *Display) DrawImageFile(x, y, w, h int, path string) error {
	self.mu.Lock()
	defer self.mu.Unlock()

	pix := self.images[path]
	if pix == nil {
		var err error
		pix, err = ioutil.ReadFile(path)
		if err != nil {
			return errors.Annotatef(err, "image=%s", path)
		}
		self.images[path] = pix
	}
	return errors.Trace(self.drawImage(x, y, w, h, pix))
}
