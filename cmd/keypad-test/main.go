// Wiring check: print raw matrix codes and mapped keys as they come.
package main

import (
	"flag"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/juju/errors"
	"github.com/temoto/doorlock/hardware/keypad"
	"github.com/temoto/doorlock/internal/state"
	"github.com/temoto/doorlock/log2"
)

var log = log2.NewStderr(log2.LDebug)

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagConfig := cmdline.String("config", "doorlock.hcl", "")
	flagRaw := cmdline.Bool("raw", false, "print every sample, not only edges")
	cmdline.Parse(os.Args[1:])

	log.SetFlags(log2.LInteractiveFlags)

	cfg := state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	kp, err := keypad.New(cfg.Hardware.Keypad, log, clockwork.NewRealClock(), nil)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	defer kp.Close()

	if *flagRaw {
		clock := clockwork.NewRealClock()
		prev := keypad.KeyCode(0xff)
		for {
			code, err := kp.Sample()
			if err != nil {
				log.Fatal(errors.ErrorStack(err))
			}
			if code != prev {
				prev = code
				key, ok := code.Key()
				log.Infof("sample code=%d key=%d mapped=%t", code, key, ok)
			}
			clock.Sleep(keypad.DefaultPoll)
		}
	}

	log.Infof("press keys, ctrl-c to quit")
	for {
		event, err := kp.Read()
		if err != nil {
			log.Fatal(errors.ErrorStack(err))
		}
		log.Infof("event %s", event.String())
	}
}
