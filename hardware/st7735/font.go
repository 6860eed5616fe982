package st7735

import (
	"io/ioutil"

	"github.com/juju/errors"
)

// ASCII font files are raw glyph arrays, 95 glyphs from ' ' to '~',
// column width size/2, rows packed LSB-first. Two-byte font files are
// unordered records of the GB2312 code followed by the square bitmap.

type asciiFont struct {
	size int // pixel height, width is size/2
	bpg  int // bytes per glyph
	data []byte
}

func loadASCIIFont(path string, size int) (*asciiFont, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "font=%s", path)
	}
	self := &asciiFont{size: size, bpg: size * (size / 2) / 8, data: data}
	if len(data) == 0 || len(data)%self.bpg != 0 {
		return nil, errors.NotValidf("font=%s size=%d bytes=%d", path, size, len(data))
	}
	return self, nil
}

func (self *asciiFont) glyph(ch byte) []byte {
	if ch < ' ' || ch > '~' {
		return nil
	}
	i := int(ch-' ') * self.bpg
	if i+self.bpg > len(self.data) {
		return nil
	}
	return self.data[i : i+self.bpg]
}

type hanGlyph struct {
	code [2]byte
	bits []byte
}

type hanFont struct {
	size   int
	glyphs []hanGlyph
}

func loadHanFont(path string, size int) (*hanFont, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Annotatef(err, "font=%s", path)
	}
	bpg := size * size / 8
	rec := 2 + bpg
	if len(data) == 0 || len(data)%rec != 0 {
		return nil, errors.NotValidf("font=%s size=%d bytes=%d", path, size, len(data))
	}
	self := &hanFont{size: size, glyphs: make([]hanGlyph, 0, len(data)/rec)}
	for i := 0; i+rec <= len(data); i += rec {
		g := hanGlyph{bits: data[i+2 : i+rec]}
		g.code[0] = data[i]
		g.code[1] = data[i+1]
		self.glyphs = append(self.glyphs, g)
	}
	return self, nil
}

// Linear scan, first match wins. Duplicate codes after the first are dead.
func (self *hanFont) glyph(code [2]byte) []byte {
	for i := range self.glyphs {
		if self.glyphs[i].code == code {
			return self.glyphs[i].bits
		}
	}
	return nil
}
