// Command lazyframe inspects plan definitions and the optimized logical
// plans produced from them.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if _, err := app.Parse(os.Args[1:]); err != nil {
		exitWithErr(err)
	}
}

func newApp(stdout, stderr io.Writer) *kingpin.Application {
	app := kingpin.New("lazyframe", "Inspect lazy query plans and their optimizations.")
	app.UsageWriter(stderr)
	app.ErrorWriter(stderr)
	app.HelpFlag.Short('h')

	var logLevel string
	app.Flag("log.level", "Only log messages with the given severity or above.").
		Default("warn").EnumVar(&logLevel, "debug", "info", "warn", "error")

	logger := func() log.Logger { return newLogger(stderr, logLevel) }

	addExplainCommand(app, stdout, logger)
	addSchemaCommand(app, stdout)
	return app
}

func newLogger(w io.Writer, lvl string) log.Logger {
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = log.With(logger, "ts", log.DefaultTimestampUTC, "caller", log.DefaultCaller)

	var allow level.Option
	switch lvl {
	case "debug":
		allow = level.AllowDebug()
	case "info":
		allow = level.AllowInfo()
	case "error":
		allow = level.AllowError()
	default:
		allow = level.AllowWarn()
	}
	return level.NewFilter(logger, allow)
}

func exitWithErr(err error) {
	fmt.Fprintf(os.Stderr, "lazyframe: %v\n", err)
	os.Exit(1)
}
