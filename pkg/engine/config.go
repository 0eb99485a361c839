package engine

import (
	"errors"
	"flag"
	"fmt"

	"github.com/grafana/lazyframe/pkg/engine/internal/planner/optimizer"
)

// Config configures the passes run by an [Engine].
type Config struct {
	// ProjectionPushdown enables the projection pushdown pass.
	ProjectionPushdown bool `yaml:"projection_pushdown"`

	// SimplifyProjection enables the cleanup of projections left behind by
	// projection pushdown.
	SimplifyProjection bool `yaml:"simplify_projection"`

	// MaxPlanDepth is the deepest plan projection pushdown accepts. 0
	// disables the limit.
	MaxPlanDepth int `yaml:"max_plan_depth"`

	// MaxIterations bounds the sweeps of rule-based passes.
	MaxIterations int `yaml:"max_iterations"`
}

// RegisterFlags registers the flags of cfg on f.
func (cfg *Config) RegisterFlags(f *flag.FlagSet) {
	cfg.RegisterFlagsWithPrefix("", f)
}

// RegisterFlagsWithPrefix registers the flags of cfg on f, each name
// prefixed with prefix.
func (cfg *Config) RegisterFlagsWithPrefix(prefix string, f *flag.FlagSet) {
	f.BoolVar(&cfg.ProjectionPushdown, prefix+"projection-pushdown", true, "Only read the columns each operator of a plan needs.")
	f.BoolVar(&cfg.SimplifyProjection, prefix+"simplify-projection", true, "Merge and remove redundant projections after projection pushdown.")
	f.IntVar(&cfg.MaxPlanDepth, prefix+"max-plan-depth", 512, "Deepest plan accepted by projection pushdown. 0 means no limit.")
	f.IntVar(&cfg.MaxIterations, prefix+"max-iterations", optimizer.DefaultMaxIterations, "Maximum number of sweeps of rule-based optimizations.")
}

// Validate checks that cfg is usable.
func (cfg *Config) Validate() error {
	var errs []error
	if cfg.MaxPlanDepth < 0 {
		errs = append(errs, fmt.Errorf("max_plan_depth must not be negative, got %d", cfg.MaxPlanDepth))
	}
	if cfg.MaxIterations <= 0 {
		errs = append(errs, fmt.Errorf("max_iterations must be greater than 0, got %d", cfg.MaxIterations))
	}
	return errors.Join(errs...)
}
