// Door lock daemon: keypad in, servo and st7735 panel out.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
	"github.com/temoto/doorlock/internal/state"
	"github.com/temoto/doorlock/internal/ui"
	"github.com/temoto/doorlock/log2"
	"gopkg.in/natefinch/lumberjack.v2"
)

var BuildVersion string = "unknown" // set by ldflags -X main.BuildVersion

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagConfig := cmdline.String("config", "doorlock.hcl", "")
	flagLogFile := cmdline.String("log-file", "", "log to rotated file instead of stderr")
	flagLogDebug := cmdline.Bool("log-debug", true, "")
	flagVersion := cmdline.Bool("version", false, "print build version and exit")
	cmdline.Parse(os.Args[1:])

	if *flagVersion {
		fmt.Printf("doorlock %s\n", BuildVersion)
		return
	}

	level := log2.Level(log2.LInfo)
	if *flagLogDebug {
		level = log2.LDebug
	}
	log := log2.NewStderr(level)
	if *flagLogFile != "" {
		log = log2.NewWriter(&lumberjack.Logger{
			Filename:   *flagLogFile,
			MaxSize:    10, // MB
			MaxBackups: 4,
		}, level)
	}
	if sdnotify(log, "STATUS=init") {
		// under systemd, journal already stamps each line
		log.SetFlags(log2.LServiceFlags)
	} else if isatty.IsTerminal(os.Stderr.Fd()) {
		log.SetFlags(log2.LInteractiveFlags)
	} else {
		log.SetFlags(log2.LStdFlags)
	}

	ctx, g := state.NewContext(log)
	g.BuildVersion = BuildVersion
	g.MustInit(ctx, state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig))

	uiFront := &ui.UI{}
	if err := uiFront.Init(ctx); err != nil {
		g.Fatal(errors.Annotate(err, "ui init"))
	}

	sdnotify(log, daemon.SdNotifyReady)
	log.Debugf("doorlock init complete, running")
	uiFront.Loop(ctx)
	g.Alive.Wait()
}

func sdnotify(log *log2.Log, s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
