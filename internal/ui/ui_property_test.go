//go:build property
// +build property

package ui

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	ui_config "github.com/temoto/doorlock/internal/ui/config"
)

// Random op sequences against a plain slice model: the buffer keeps at
// most PasswordLen digits, clear resets completely, snapshots always
// agree with the model.
func TestEntryProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("model equivalence", prop.ForAll(
		// op < 0 is clear, 0..9 appends that digit.
		func(ops []int) bool {
			e := &entry{}
			model := make([]byte, 0, ui_config.PasswordLen)
			for _, op := range ops {
				if op < 0 {
					e.Clear()
					model = model[:0]
					continue
				}
				appended := e.Append(byte(op))
				if appended != (len(model) < ui_config.PasswordLen) {
					return false
				}
				if appended {
					model = append(model, byte(op))
				}
			}
			snap := e.Snapshot()
			if int(snap.Length) != len(model) {
				return false
			}
			var want [ui_config.PasswordLen]byte
			copy(want[:], model)
			return snap.Digits == want && e.Match(want)
		},
		gen.SliceOf(gen.IntRange(-1, 9)),
	))

	properties.Property("match is exact array equality, short entries zero-pad", prop.ForAll(
		func(digits []int, refDigits []int) bool {
			e := &entry{}
			var buf [ui_config.PasswordLen]byte
			for i, d := range digits {
				e.Append(byte(d))
				if i < ui_config.PasswordLen {
					buf[i] = byte(d)
				}
			}
			var ref [ui_config.PasswordLen]byte
			for i := 0; i < len(refDigits) && i < ui_config.PasswordLen; i++ {
				ref[i] = byte(refDigits[i])
			}
			return e.Match(ref) == (buf == ref)
		},
		gen.SliceOf(gen.IntRange(0, 9)),
		gen.SliceOfN(ui_config.PasswordLen, gen.IntRange(0, 9)),
	))

	properties.TestingRun(t)
}
