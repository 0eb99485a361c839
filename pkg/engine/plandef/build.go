package plandef

import (
	"fmt"
	"path/filepath"

	"github.com/grafana/lazyframe/pkg/engine/internal/arena"
	"github.com/grafana/lazyframe/pkg/engine/internal/datatype"
	"github.com/grafana/lazyframe/pkg/engine/internal/errors"
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
	"github.com/grafana/lazyframe/pkg/engine/internal/schema"
)

// Build translates d into a new plan.
//
// A cache operator with an input defines the cached subtree for its id.
// Later cache operators with the same id and no input share that subtree.
func (d *Definition) Build() (*logical.Plan, error) {
	b := &builder{
		plan:   logical.NewPlan(),
		dir:    d.dir,
		caches: make(map[uint64]arena.Node),
	}
	root, err := b.operator(&d.Plan)
	if err != nil {
		return nil, err
	}
	return root.Build()
}

type builder struct {
	plan   *logical.Plan
	dir    string
	caches map[uint64]arena.Node
}

func (b *builder) operator(op *Operator) (*logical.Builder, error) {
	p := b.plan

	switch op.Op {
	case "scan":
		return b.scan(op)
	case "dataframe":
		s, err := fieldsSchema(op.Schema)
		if err != nil {
			return nil, err
		}
		return p.DataFrame(op.Name, s), nil
	case "python":
		s, err := fieldsSchema(op.Schema)
		if err != nil {
			return nil, err
		}
		return p.PythonScan(op.Name, s), nil
	case "union", "hconcat", "sink_multiple":
		inputs, err := b.operators(op.Inputs)
		if err != nil {
			return nil, err
		}
		switch op.Op {
		case "union":
			return p.Union(inputs...), nil
		case "hconcat":
			return p.HConcat(inputs...), nil
		default:
			return p.SinkMultiple(inputs...), nil
		}
	case "cache":
		return b.cache(op)
	}

	if op.Input == nil {
		return nil, fmt.Errorf("%s operator has no input", op.Op)
	}
	in, err := b.operator(op.Input)
	if err != nil {
		return nil, err
	}

	switch op.Op {
	case "select":
		exprs, err := b.exprs(op.Exprs)
		if err != nil {
			return nil, err
		}
		return in.Select(exprs...), nil
	case "simple_projection":
		return in.SimpleProjection(op.Columns...), nil
	case "filter":
		if op.Predicate == nil {
			return nil, fmt.Errorf("filter operator has no predicate")
		}
		pred, err := b.expr(op.Predicate)
		if err != nil {
			return nil, err
		}
		return in.Filter(pred), nil
	case "sort":
		by, err := b.exprs(op.By)
		if err != nil {
			return nil, err
		}
		return in.Sort(by, op.Descending), nil
	case "distinct":
		return in.Distinct(op.Columns...), nil
	case "group_by":
		return b.groupBy(in, op)
	case "join":
		return b.join(in, op)
	case "with_columns":
		exprs, err := b.exprs(op.Exprs)
		if err != nil {
			return nil, err
		}
		return in.WithColumns(exprs...), nil
	case "slice":
		return in.Slice(op.Offset, op.Len), nil
	case "sink":
		format, ok := logical.ParseFormat(op.Format)
		if !ok {
			return nil, fmt.Errorf("sink: unknown format %q", op.Format)
		}
		return in.Sink(op.Path, format), nil
	case "merge_sorted":
		if op.Right == nil {
			return nil, fmt.Errorf("merge_sorted operator has no right input")
		}
		right, err := b.operator(op.Right)
		if err != nil {
			return nil, err
		}
		return in.MergeSorted(right, op.Key), nil
	case "map":
		fn, err := function(op.Func)
		if err != nil {
			return nil, err
		}
		return in.Map(fn), nil
	case "ext_context":
		contexts, err := b.operators(op.Contexts)
		if err != nil {
			return nil, err
		}
		return in.ExtContext(contexts...), nil
	default:
		return nil, fmt.Errorf("%w: operator %q", errors.ErrNotImplemented, op.Op)
	}
}

func (b *builder) operators(ops []*Operator) ([]*logical.Builder, error) {
	out := make([]*logical.Builder, len(ops))
	for i, op := range ops {
		in, err := b.operator(op)
		if err != nil {
			return nil, err
		}
		out[i] = in
	}
	return out, nil
}

func (b *builder) scan(op *Operator) (*logical.Builder, error) {
	format, ok := logical.ParseFormat(op.Format)
	if !ok {
		return nil, fmt.Errorf("scan: unknown format %q", op.Format)
	}

	sources := make([]string, len(op.Sources))
	for i, src := range op.Sources {
		if b.dir != "" && !filepath.IsAbs(src) {
			src = filepath.Join(b.dir, src)
		}
		sources[i] = src
	}

	var (
		s   *schema.Schema
		err error
	)
	switch {
	case len(op.Schema) > 0:
		s, err = fieldsSchema(op.Schema)
	case len(sources) > 0:
		s, err = DiscoverSchema(format, sources[0])
	default:
		err = fmt.Errorf("scan has neither a schema nor a source")
	}
	if err != nil {
		return nil, err
	}

	args := logical.ScanArgs{IncludeFilePaths: op.IncludeFilePaths}
	if op.RowIndex != nil {
		args.RowIndex = &logical.RowIndex{Name: op.RowIndex.Name, Offset: op.RowIndex.Offset}
	}
	typ := logical.ScanType{Format: format, AllowsProjectionPushdown: op.AllowsProjectionPushdown}
	return b.plan.Scan(sources, typ, s, args), nil
}

func (b *builder) cache(op *Operator) (*logical.Builder, error) {
	if op.ID == nil {
		return nil, fmt.Errorf("cache operator has no id")
	}
	id := *op.ID

	input, defined := b.caches[id]
	switch {
	case op.Input != nil && defined:
		return nil, fmt.Errorf("cache %d is defined twice", id)
	case op.Input != nil:
		in, err := b.operator(op.Input)
		if err != nil {
			return nil, err
		}
		if input, err = in.Node(); err != nil {
			return nil, err
		}
		b.caches[id] = input
	case !defined:
		return nil, fmt.Errorf("cache %d is used before it is defined", id)
	}
	return b.plan.From(input).Cache(id), nil
}

func (b *builder) groupBy(in *logical.Builder, op *Operator) (*logical.Builder, error) {
	keys, err := b.exprs(op.Keys)
	if err != nil {
		return nil, err
	}
	if op.Apply != nil {
		s, err := fieldsSchema(op.Apply.Schema)
		if err != nil {
			return nil, err
		}
		return in.GroupByApply(keys, logical.ApplyFunction{Name: op.Apply.Name, Schema: s}), nil
	}
	aggs, err := b.exprs(op.Aggs)
	if err != nil {
		return nil, err
	}
	return in.GroupBy(keys, aggs, op.MaintainOrder), nil
}

func (b *builder) join(in *logical.Builder, op *Operator) (*logical.Builder, error) {
	if op.Right == nil {
		return nil, fmt.Errorf("join operator has no right input")
	}
	how, ok := logical.ParseJoinType(op.How)
	if !ok {
		return nil, fmt.Errorf("join: unknown join type %q", op.How)
	}
	right, err := b.operator(op.Right)
	if err != nil {
		return nil, err
	}
	leftOn, err := b.exprs(op.LeftOn)
	if err != nil {
		return nil, err
	}
	rightOn, err := b.exprs(op.RightOn)
	if err != nil {
		return nil, err
	}
	return in.Join(right, leftOn, rightOn, logical.JoinOptions{How: how, Suffix: op.Suffix}), nil
}

func function(fn *Function) (logical.FunctionIR, error) {
	if fn == nil {
		return nil, fmt.Errorf("map operator has no function")
	}
	switch fn.Kind {
	case "rename":
		return &logical.RenameFunction{Existing: fn.Existing, New: fn.New}, nil
	case "explode":
		return &logical.ExplodeFunction{Columns: fn.Columns}, nil
	case "row_index":
		return &logical.RowIndexFunction{Name: fn.Name, Offset: fn.Offset}, nil
	case "rechunk":
		return &logical.RechunkFunction{}, nil
	case "opaque":
		f := &logical.OpaqueFunction{Name: fn.Name, ProjectionPushdown: fn.ProjectionPushdown, Columns: fn.Columns}
		if len(fn.Schema) > 0 {
			s, err := fieldsSchema(fn.Schema)
			if err != nil {
				return nil, err
			}
			f.Schema = s
		}
		return f, nil
	default:
		return nil, fmt.Errorf("%w: function %q", errors.ErrNotImplemented, fn.Kind)
	}
}

func fieldsSchema(fields []Field) (*schema.Schema, error) {
	out := make([]schema.Field, len(fields))
	for i, f := range fields {
		dt, err := datatype.Parse(f.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", f.Name, err)
		}
		out[i] = schema.Field{Name: f.Name, Type: dt}
	}
	return schema.New(out...)
}
