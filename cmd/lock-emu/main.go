// Keyboard and terminal stand-in for the lock hardware: keys feed the
// input dispatch and the st7735 framebuffer mirrors into the terminal
// with half-block cells.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/juju/errors"
	term "github.com/nsf/termbox-go"
	"github.com/temoto/atomic_clock"
	"github.com/temoto/doorlock/hardware/st7735"
	"github.com/temoto/doorlock/internal/state"
	"github.com/temoto/doorlock/internal/types"
	"github.com/temoto/doorlock/internal/ui"
	"github.com/temoto/doorlock/log2"
)

const sourceTag = "lock-emu"

const renderTick = 100 * time.Millisecond

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagConfig := cmdline.String("config", "doorlock.hcl", "")
	flagLogFile := cmdline.String("log-file", "", "debug log destination, terminal is busy")
	cmdline.Parse(os.Args[1:])

	// the terminal belongs to termbox, default log goes nowhere
	log := log2.NewFunc(func(string, ...interface{}) {}, log2.LError)
	if *flagLogFile != "" {
		f, err := os.OpenFile(*flagLogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		log = log2.NewWriter(f, log2.LDebug)
		log.SetFlags(log2.LInteractiveFlags)
	}

	ctx, g := state.NewContext(log)
	cfg := state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	// no hardware here: keypad off, servo pin left to fail open, panel
	// replaced with the in-memory framebuffer
	cfg.Hardware.Keypad.Chip = ""
	cfg.Hardware.Input.DevInputEvent.Enable = false
	cfg.Hardware.Display.Enable = true
	cfg.Hardware.Display.Spi = ""

	fb := st7735.NewFramebuffer(cfg.Hardware.Display.Orientation)
	display, err := st7735.NewWithBus(fb, cfg.Hardware.Display, log, clockwork.NewRealClock())
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.ErrorStack(err))
		os.Exit(1)
	}
	if err = display.Init(); err != nil {
		fmt.Fprintln(os.Stderr, errors.ErrorStack(err))
		os.Exit(1)
	}
	g.Hardware.Display.Device = display
	g.MustInit(ctx, cfg)

	uiFront := &ui.UI{}
	if err = uiFront.Init(ctx); err != nil {
		g.Fatal(errors.Annotate(err, "ui init"))
	}
	go uiFront.Loop(ctx)

	if err = term.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer term.Close()
	term.SetInputMode(term.InputEsc)
	term.SetOutputMode(term.Output256)

	started := atomic_clock.Now()
	go func() {
		for {
			select {
			case <-g.Alive.StopChan():
				term.Interrupt()
				return
			case <-time.After(renderTick):
			}
			drawFramebuffer(fb)
			drawStatus(g, uiFront, started)
			term.Flush()
		}
	}()

	for {
		switch ev := term.PollEvent(); ev.Type {
		case term.EventKey:
			key, quit := mapKey(ev)
			if quit {
				g.Stop()
				g.Alive.Wait()
				return
			}
			if key != types.KeyInvalid {
				g.Hardware.Input.Emit(types.InputEvent{Source: sourceTag, Key: key})
			}

		case term.EventInterrupt:
			return

		case term.EventError:
			fmt.Fprintln(os.Stderr, ev.Err)
			return
		}
	}
}

func mapKey(ev term.Event) (key types.InputKey, quit bool) {
	switch {
	case ev.Key == term.KeyEsc || ev.Key == term.KeyCtrlC || ev.Ch == 'q':
		return types.KeyInvalid, true
	case ev.Ch >= '0' && ev.Ch <= '9':
		return types.InputKey(ev.Ch), false
	case ev.Ch == 'c' || ev.Key == term.KeyBackspace || ev.Key == term.KeyBackspace2:
		return types.KeyClear, false
	case ev.Key == term.KeyEnter:
		return types.KeyConfirm, false
	}
	return types.KeyInvalid, false
}

// Two panel rows per terminal row: upper half block carries the even
// row in the foreground, the odd row sits in the background.
func drawFramebuffer(fb *st7735.Framebuffer) {
	for y := 0; y < st7735.Height; y += 2 {
		for x := 0; x < st7735.Width; x++ {
			fg := cell256(fb.At(x, y))
			bg := cell256(fb.At(x, y+1))
			term.SetCell(x, y/2, '▀', fg, bg)
		}
	}
}

func drawStatus(g *state.Global, uiFront *ui.UI, started *atomic_clock.Clock) {
	lockStr := "UNLOCKED"
	if g.Servo().Locked() {
		lockStr = "locked"
	}
	snap := uiFront.Entry()
	up := atomic_clock.Since(started).Truncate(time.Second)
	printTb(0, st7735.Height/2+1, term.ColorWhite, term.ColorDefault,
		"ui=%s door=%s entry=%d/%d up=%s", uiFront.State().String(), lockStr,
		snap.Length, len(snap.Digits), up)
	printTb(0, st7735.Height/2+2, term.ColorWhite, term.ColorDefault,
		"keys: 0-9 digits, c/backspace clear, enter confirm, q/esc quit")
}

func printTb(x, y int, fg, bg term.Attribute, format string, args ...interface{}) {
	s := fmt.Sprintf(format, args...)
	for _, ch := range s {
		term.SetCell(x, y, ch, fg, bg)
		x++
	}
}

// cell256 maps RGB565 onto the xterm 6x6x6 color cube.
func cell256(c st7735.RGB565) term.Attribute {
	r, g, b := c.RGB()
	idx := 16 + 36*(int(r)*6/256) + 6*(int(g)*6/256) + int(b)*6/256
	return term.Attribute(idx + 1)
}
