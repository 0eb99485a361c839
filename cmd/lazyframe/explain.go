package main

import (
	"context"
	"fmt"
	"io"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"
	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/grafana/lazyframe/pkg/engine"
	"github.com/grafana/lazyframe/pkg/engine/plandef"
)

// explainCommand prints the plan of a plan definition before and after
// optimization.
type explainCommand struct {
	out    io.Writer
	logger func() log.Logger

	file       string
	configFile string
	overrides  []string
	countStar  bool
	noOptimize bool
	mermaid    bool
}

func addExplainCommand(app *kingpin.Application, out io.Writer, logger func() log.Logger) {
	cmd := &explainCommand{out: out, logger: logger}

	c := app.Command("explain", "Print the logical plan of a plan definition and its optimized form.")
	c.Arg("file", "Plan definition in YAML.").Required().ExistingFileVar(&cmd.file)
	c.Flag("config.file", "Configuration file to load.").ExistingFileVar(&cmd.configFile)
	c.Flag("set", "Override a configuration flag, as name=value. Repeatable.").StringsVar(&cmd.overrides)
	c.Flag("count-star", "Optimize for reading only the row count of the result.").BoolVar(&cmd.countStar)
	c.Flag("no-optimize", "Only print the plan as defined.").BoolVar(&cmd.noOptimize)
	c.Flag("mermaid", "Print plans as Mermaid flowcharts.").BoolVar(&cmd.mermaid)
	c.Action(cmd.run)
}

func (cmd *explainCommand) run(_ *kingpin.ParseContext) error {
	cfg, err := loadConfig(cmd.configFile, cmd.overrides)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	def, err := plandef.ParseFile(cmd.file)
	if err != nil {
		return err
	}
	plan, err := def.Build()
	if err != nil {
		return fmt.Errorf("building plan: %w", err)
	}

	bold := color.New(color.Bold)
	bold.Fprintln(cmd.out, "Logical plan:")
	if err := engine.WritePlan(cmd.out, plan, cmd.mermaid); err != nil {
		return err
	}
	if cmd.noOptimize {
		return nil
	}

	e, err := engine.New(engine.Params{
		Logger:     cmd.logger(),
		Registerer: prometheus.NewRegistry(),
		Config:     cfg.Engine,
	})
	if err != nil {
		return err
	}
	opts := engine.OptimizeOptions{CountStar: cmd.countStar || def.CountStar}
	if err := e.Optimize(context.Background(), plan, opts); err != nil {
		return fmt.Errorf("optimizing plan: %w", err)
	}

	fmt.Fprintln(cmd.out)
	bold.Fprintln(cmd.out, "Optimized plan:")
	return engine.WritePlan(cmd.out, plan, cmd.mermaid)
}
