// Package engine optimizes logical plans before they are executed.
package engine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/optimizer"
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/optimizer/projection"
)

var tracer = otel.Tracer("pkg/engine")

// Params holds parameters for constructing a new [Engine].
type Params struct {
	Logger     log.Logger            // Logger for optional log messages.
	Registerer prometheus.Registerer // Registerer for optional metrics.

	Config Config // Config for the Engine.
}

// validate validates p and applies defaults.
func (p *Params) validate() error {
	if p.Logger == nil {
		p.Logger = log.NewNopLogger()
	}
	if p.Registerer == nil {
		p.Registerer = prometheus.NewRegistry()
	}
	return p.Config.Validate()
}

// Engine runs optimizer passes over logical plans.
type Engine struct {
	logger  log.Logger
	metrics *metrics
	cfg     Config
}

// New creates a new Engine.
func New(params Params) (*Engine, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	return &Engine{
		logger:  params.Logger,
		metrics: newMetrics(params.Registerer),
		cfg:     params.Config,
	}, nil
}

// OptimizeOptions describes how the result of a plan is consumed.
type OptimizeOptions struct {
	// CountStar is set when only the number of rows of the result is read.
	CountStar bool
}

// Optimize runs the enabled passes over plan in place. If Optimize returns
// an error, plan is in an unspecified state and must be discarded.
func (e *Engine) Optimize(ctx context.Context, plan *logical.Plan, opts OptimizeOptions) error {
	ctx, span := tracer.Start(ctx, "Engine.Optimize", trace.WithAttributes(
		attribute.Int("operators", plan.NumOperators()),
		attribute.Int("expressions", plan.Expr.Len()),
		attribute.Bool("count_star", opts.CountStar),
	))
	defer span.End()

	startTime := time.Now()
	logger := log.With(e.logger, "component", "optimizer")

	for _, pass := range e.passes(logger, opts) {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, "optimization canceled")
			return err
		}
		if err := e.runPass(ctx, logger, pass, plan); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to optimize plan")
			return fmt.Errorf("%s: %w", pass.Name(), err)
		}
	}

	duration := time.Since(startTime)
	level.Info(logger).Log(
		"msg", "finished optimizing",
		"plan", plan.String(),
		"duration", duration.String(),
	)
	span.SetStatus(codes.Ok, "")
	return nil
}

// passes returns the enabled passes in the order they run.
func (e *Engine) passes(logger log.Logger, opts OptimizeOptions) []optimizer.Pass {
	var passes []optimizer.Pass
	if e.cfg.ProjectionPushdown {
		passes = append(passes, projection.New(projection.Options{
			IsCountStar:   opts.CountStar,
			MaxDepth:      e.cfg.MaxPlanDepth,
			Logger:        logger,
			ColumnsPruned: e.metrics.columnsPruned,
		}))
	}
	if e.cfg.SimplifyProjection {
		passes = append(passes, optimizer.NewSimplify(e.cfg.MaxIterations))
	}
	return passes
}

func (e *Engine) runPass(ctx context.Context, logger log.Logger, pass optimizer.Pass, plan *logical.Plan) error {
	span := trace.SpanFromContext(ctx)
	timer := prometheus.NewTimer(e.metrics.passDuration.WithLabelValues(pass.Name()))

	if err := pass.Optimize(plan); err != nil {
		e.metrics.passesTotal.WithLabelValues(pass.Name(), statusFailure).Inc()
		level.Warn(logger).Log("msg", "optimizer pass failed", "pass", pass.Name(), "err", err)
		return err
	}

	duration := timer.ObserveDuration()
	e.metrics.passesTotal.WithLabelValues(pass.Name(), statusSuccess).Inc()
	level.Debug(logger).Log(
		"msg", "finished optimizer pass",
		"pass", pass.Name(),
		"duration", duration.String(),
	)
	span.AddEvent("finished optimizer pass",
		trace.WithAttributes(
			attribute.String("pass", pass.Name()),
			attribute.Stringer("duration", duration),
		),
	)
	return nil
}

// WritePlan writes plan to w, as an indented tree or, with mermaid set, as a
// Mermaid flowchart.
func WritePlan(w io.Writer, plan *logical.Plan, mermaid bool) error {
	if mermaid {
		return logical.WriteMermaidFormat(w, plan)
	}
	_, err := io.WriteString(w, logical.PrintAsTree(plan))
	return err
}
