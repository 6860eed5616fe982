// Panel check: init the st7735 and cycle test patterns.
package main

import (
	"flag"
	"os"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/juju/errors"
	"github.com/temoto/doorlock/hardware/st7735"
	"github.com/temoto/doorlock/internal/state"
	"github.com/temoto/doorlock/log2"
)

var log = log2.NewStderr(log2.LDebug)

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagConfig := cmdline.String("config", "doorlock.hcl", "")
	flagLoop := cmdline.Bool("loop", false, "cycle patterns until interrupted")
	cmdline.Parse(os.Args[1:])

	log.SetFlags(log2.LInteractiveFlags)

	cfg := state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	clock := clockwork.NewRealClock()
	d, err := st7735.New(cfg.Hardware.Display, log, clock)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	defer d.Close()
	if err = d.Init(); err != nil {
		log.Fatal(errors.ErrorStack(err))
	}

	for {
		if err = patterns(d, clock, &cfg.Hardware.Display); err != nil {
			log.Fatal(errors.ErrorStack(err))
		}
		if !*flagLoop {
			return
		}
	}
}

func patterns(d *st7735.Display, clock clockwork.Clock, cfg *st7735.Config) error {
	const hold = 1 * time.Second

	log.Infof("solid fills")
	for _, c := range []st7735.RGB565{st7735.Red, st7735.Green, st7735.Blue, st7735.White} {
		if err := d.Fill(0, 0, st7735.Width, st7735.Height, c); err != nil {
			return err
		}
		clock.Sleep(hold)
	}

	log.Infof("lines and shapes")
	if err := d.Fill(0, 0, st7735.Width, st7735.Height, st7735.Black); err != nil {
		return err
	}
	if err := d.DrawLine(0, 0, 127, 127, st7735.Yellow); err != nil {
		return err
	}
	if err := d.DrawLine(127, 0, 0, 127, st7735.Yellow); err != nil {
		return err
	}
	if err := d.DrawRectangle(16, 16, 111, 111, st7735.Cyan); err != nil {
		return err
	}
	if err := d.DrawCircle(64, 64, 40, st7735.Magenta); err != nil {
		return err
	}
	clock.Sleep(hold)

	if cfg.Ascii16 != "" {
		log.Infof("text")
		if err := d.Fill(0, 0, st7735.Width, st7735.Height, st7735.White); err != nil {
			return err
		}
		if err := d.DrawString(0, 0, "0123456789", st7735.Red, st7735.White, 16, false); err != nil {
			return err
		}
		if err := d.DrawString(0, 16, "wrap test wrap test wrap", st7735.Blue, st7735.White, 16, false); err != nil {
			return err
		}
		clock.Sleep(hold)
	}

	if cfg.ImageIdle != "" {
		log.Infof("image %s", cfg.ImageIdle)
		if err := d.DrawImageFile(0, 0, st7735.Width, st7735.Height, cfg.ImageIdle); err != nil {
			return err
		}
		clock.Sleep(hold)
	}
	return nil
}
