package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/grafana/lazyframe/pkg/cfg"
	"github.com/grafana/lazyframe/pkg/engine"
)

// Config is the configuration file of the lazyframe command.
type Config struct {
	Engine engine.Config `yaml:"engine"`
}

// RegisterFlags registers the flags of c on f.
func (c *Config) RegisterFlags(f *flag.FlagSet) {
	c.Engine.RegisterFlagsWithPrefix("engine.", f)
}

// loadConfig reads the configuration file at path, if any, and applies
// overrides of the form name=value, where name is a configuration flag
// such as engine.max-iterations.
func loadConfig(path string, overrides []string) (Config, error) {
	args := make([]string, 0, len(overrides)+1)
	if path != "" {
		args = append(args, "-"+cfg.ConfigFileFlag+"="+path)
	}
	for _, o := range overrides {
		if !strings.Contains(o, "=") {
			return Config{}, fmt.Errorf("invalid override %q: expected name=value", o)
		}
		args = append(args, "-"+o)
	}

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var c Config
	if err := cfg.Parse(&c, fs, args); err != nil {
		return Config{}, err
	}
	return c, nil
}
