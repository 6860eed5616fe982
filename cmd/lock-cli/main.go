// Interactive REPL to poke the lock without a keypad: inject key
// events, drive the servo, inspect the ui state.
package main

import (
	"context"
	"flag"
	"os"
	"strings"

	prompt "github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/doorlock/helpers/cli"
	"github.com/temoto/doorlock/internal/state"
	"github.com/temoto/doorlock/internal/types"
	"github.com/temoto/doorlock/internal/ui"
	"github.com/temoto/doorlock/log2"
)

const usage = `syntax: commands separated by whitespace
- kSEQ     inject key events: digits 0-9, c=clear, e=confirm (k123456e)
- lock     drive the servo to the locked position
- unlock   drive the servo to the unlocked position
- state    print ui state, lock position, idle time
- help     this text
`

const sourceTag = "lock-cli"

var log = log2.NewStderr(log2.LDebug)

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagConfig := cmdline.String("config", "doorlock.hcl", "")
	cmdline.Parse(os.Args[1:])

	log.SetFlags(log2.LInteractiveFlags)

	ctx, g := state.NewContext(log)
	g.MustInit(ctx, state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig))

	uiFront := &ui.UI{}
	if err := uiFront.Init(ctx); err != nil {
		g.Fatal(errors.Annotate(err, "ui init"))
	}
	go uiFront.Loop(ctx)

	log.Debugf("lock-cli init complete")
	cli.MainLoop(sourceTag, newExecutor(ctx, g, uiFront), newCompleter())
}

func newCompleter() func(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "lock", Description: "servo to locked"},
		{Text: "unlock", Description: "servo to unlocked"},
		{Text: "state", Description: "ui state, lock position, idle time"},
		{Text: "help"},
	}
	return func(d prompt.Document) []prompt.Suggest {
		return prompt.FilterFuzzy(suggests, d.GetWordBeforeCursor(), true)
	}
}

func newExecutor(ctx context.Context, g *state.Global, uiFront *ui.UI) func(line string) {
	return func(line string) {
		for _, word := range strings.Fields(line) {
			if err := execWord(ctx, g, uiFront, word); err != nil {
				log.Errorf(errors.ErrorStack(err))
				return
			}
		}
	}
}

func execWord(ctx context.Context, g *state.Global, uiFront *ui.UI, word string) error {
	switch {
	case word == "help":
		log.Infof(usage)

	case word == "lock":
		return g.Servo().SetLocked(ctx, true)

	case word == "unlock":
		return g.Servo().SetLocked(ctx, false)

	case word == "state":
		log.Infof("ui=%s locked=%t idle=%s",
			uiFront.State().String(), g.Servo().Locked(), uiFront.IdleDuration())

	case word[0] == 'k':
		for _, ch := range word[1:] {
			key, err := parseKey(ch)
			if err != nil {
				return err
			}
			g.Hardware.Input.Emit(types.InputEvent{Source: sourceTag, Key: key})
		}

	default:
		return errors.NotValidf("token=%s", word)
	}
	return nil
}

func parseKey(ch rune) (types.InputKey, error) {
	switch {
	case ch >= '0' && ch <= '9':
		return types.InputKey(ch), nil
	case ch == 'c':
		return types.KeyClear, nil
	case ch == 'e':
		return types.KeyConfirm, nil
	}
	return types.KeyInvalid, errors.NotValidf("key=%c", ch)
}
