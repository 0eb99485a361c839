package logical

import (
	"fmt"

	"github.com/grafana/lazyframe/pkg/engine/internal/arena"
	"github.com/grafana/lazyframe/pkg/engine/internal/datatype"
	"github.com/grafana/lazyframe/pkg/engine/internal/errors"
	"github.com/grafana/lazyframe/pkg/engine/internal/schema"
)

// Builder appends operators to a [Plan]. Each method adds one operator on top
// of the current one and returns a builder positioned at it. The first error
// is kept and returned by [Builder.Node] or [Builder.Build]; later calls are
// no-ops.
type Builder struct {
	plan *Plan
	node arena.Node
	err  error
}

// From returns a builder positioned at an existing operator.
func (p *Plan) From(n arena.Node) *Builder {
	return &Builder{plan: p, node: n}
}

func (p *Plan) add(ir IR) *Builder {
	return &Builder{plan: p, node: p.LP.Add(ir)}
}

func (p *Plan) failed(err error) *Builder {
	return &Builder{plan: p, err: err}
}

// Scan adds a file scan. fileSchema is the schema of the files as stored;
// the row index and file path columns configured in args are added to it.
func (p *Plan) Scan(sources []string, typ ScanType, fileSchema *schema.Schema, args ScanArgs) *Builder {
	s := fileSchema.Clone()
	if args.RowIndex != nil {
		if s.Contains(args.RowIndex.Name) {
			return p.failed(fmt.Errorf("%w: row index %s", errors.ErrDuplicateColumn, args.RowIndex.Name))
		}
		if err := s.InsertAtIndex(0, args.RowIndex.Name, datatype.Index); err != nil {
			return p.failed(err)
		}
	}
	if args.IncludeFilePaths != "" {
		if s.Contains(args.IncludeFilePaths) {
			return p.failed(fmt.Errorf("%w: file path column %s", errors.ErrDuplicateColumn, args.IncludeFilePaths))
		}
		s.WithColumn(args.IncludeFilePaths, datatype.String)
	}
	return p.add(&Scan{
		Sources:  sources,
		FileInfo: FileInfo{Schema: s},
		ScanType: typ,
		Args:     args,
	})
}

// DataFrame adds a scan of an in-memory table.
func (p *Plan) DataFrame(name string, s *schema.Schema) *Builder {
	return p.add(&DataFrameScan{Name: name, Schema: s})
}

// PythonScan adds a scan of a user-defined source.
func (p *Plan) PythonScan(name string, s *schema.Schema) *Builder {
	return p.add(&PythonScan{Name: name, Schema: s})
}

// Union adds a vertical concatenation of inputs.
func (p *Plan) Union(inputs ...*Builder) *Builder {
	nodes, err := builderNodes(inputs)
	if err != nil {
		return p.failed(err)
	}
	if len(nodes) == 0 {
		return p.failed(fmt.Errorf("%w: union needs at least one input", errors.ErrIndex))
	}
	want := Schema(p.LP, nodes[0])
	for _, n := range nodes[1:] {
		if got := Schema(p.LP, n); !want.Equal(got) {
			return p.failed(fmt.Errorf("%w: union inputs have schemas %s and %s", errors.ErrType, want, got))
		}
	}
	return p.add(&Union{Inputs: nodes})
}

// HConcat adds a horizontal concatenation of inputs.
func (p *Plan) HConcat(inputs ...*Builder) *Builder {
	nodes, err := builderNodes(inputs)
	if err != nil {
		return p.failed(err)
	}
	schemas := make([]*schema.Schema, len(nodes))
	for i, n := range nodes {
		schemas[i] = Schema(p.LP, n)
	}
	s, err := HConcatSchema(schemas...)
	if err != nil {
		return p.failed(err)
	}
	return p.add(&HConcat{Inputs: nodes, Schema: s})
}

// SinkMultiple adds a node running all inputs as one query.
func (p *Plan) SinkMultiple(inputs ...*Builder) *Builder {
	nodes, err := builderNodes(inputs)
	if err != nil {
		return p.failed(err)
	}
	return p.add(&SinkMultiple{Inputs: nodes})
}

func builderNodes(bs []*Builder) ([]arena.Node, error) {
	nodes := make([]arena.Node, 0, len(bs))
	for _, b := range bs {
		n, err := b.Node()
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Node returns the handle of the current operator.
func (b *Builder) Node() (arena.Node, error) {
	return b.node, b.err
}

// Schema returns the output schema of the current operator, or nil if the
// builder has failed.
func (b *Builder) Schema() *schema.Schema {
	if b.err != nil {
		return nil
	}
	return Schema(b.plan.LP, b.node)
}

// Build sets the current operator as the root of the plan and returns it.
func (b *Builder) Build() (*Plan, error) {
	if b.err != nil {
		return nil, b.err
	}
	b.plan.Root = b.node
	return b.plan, nil
}

func (b *Builder) then(fn func(input arena.Node, in *schema.Schema) (IR, error)) *Builder {
	if b.err != nil {
		return b
	}
	ir, err := fn(b.node, Schema(b.plan.LP, b.node))
	if err != nil {
		return b.plan.failed(err)
	}
	return b.plan.add(ir)
}

func (b *Builder) exprIRs(nodes []arena.Node) []ExprIR {
	out := make([]ExprIR, len(nodes))
	for i, n := range nodes {
		out[i] = NewExprIR(b.plan.Expr, n)
	}
	return out
}

// Select evaluates exprs.
func (b *Builder) Select(exprs ...arena.Node) *Builder {
	return b.then(func(input arena.Node, in *schema.Schema) (IR, error) {
		irs := b.exprIRs(exprs)
		s, err := ExprsSchema(b.plan.Expr, irs, in)
		if err != nil {
			return nil, err
		}
		return &Select{Input: input, Exprs: irs, Schema: s}, nil
	})
}

// SimpleProjection selects columns by name.
func (b *Builder) SimpleProjection(names ...string) *Builder {
	return b.then(func(input arena.Node, in *schema.Schema) (IR, error) {
		s, err := ProjectionSchema(in, names)
		if err != nil {
			return nil, err
		}
		return &SimpleProjection{Input: input, Columns: s}, nil
	})
}

// Filter keeps rows matching predicate.
func (b *Builder) Filter(predicate arena.Node) *Builder {
	return b.then(func(input arena.Node, in *schema.Schema) (IR, error) {
		f, err := ToField(b.plan.Expr, predicate, in)
		if err != nil {
			return nil, err
		}
		if !datatype.IsBool(f.Type) {
			return nil, fmt.Errorf("%w: filter predicate has type %s", errors.ErrType, f.Type)
		}
		return &Filter{Input: input, Predicate: NewExprIR(b.plan.Expr, predicate)}, nil
	})
}

// Sort orders rows by the given expressions. descending may be shorter than
// by; missing entries sort ascending.
func (b *Builder) Sort(by []arena.Node, descending []bool) *Builder {
	return b.then(func(input arena.Node, in *schema.Schema) (IR, error) {
		irs := b.exprIRs(by)
		for _, e := range irs {
			if _, err := ToField(b.plan.Expr, e.Node, in); err != nil {
				return nil, err
			}
		}
		return &Sort{Input: input, ByColumn: irs, Descending: descending}, nil
	})
}

// Distinct removes duplicate rows, comparing subset or every column if subset
// is empty.
func (b *Builder) Distinct(subset ...string) *Builder {
	return b.then(func(input arena.Node, in *schema.Schema) (IR, error) {
		for _, name := range subset {
			if _, _, err := in.TryGetFull(name); err != nil {
				return nil, err
			}
		}
		if len(subset) == 0 {
			subset = nil
		}
		return &Distinct{Input: input, Subset: subset}, nil
	})
}

// GroupBy groups by keys and evaluates aggs per group.
func (b *Builder) GroupBy(keys, aggs []arena.Node, maintainOrder bool) *Builder {
	return b.then(func(input arena.Node, in *schema.Schema) (IR, error) {
		keyIRs, aggIRs := b.exprIRs(keys), b.exprIRs(aggs)
		s, err := GroupBySchema(b.plan.Expr, keyIRs, aggIRs, in)
		if err != nil {
			return nil, err
		}
		return &GroupBy{Input: input, Keys: keyIRs, Aggs: aggIRs, Schema: s, MaintainOrder: maintainOrder}, nil
	})
}

// GroupByApply groups by keys and calls apply once per group.
func (b *Builder) GroupByApply(keys []arena.Node, apply ApplyFunction) *Builder {
	return b.then(func(input arena.Node, in *schema.Schema) (IR, error) {
		keyIRs := b.exprIRs(keys)
		if _, err := ExprsSchema(b.plan.Expr, keyIRs, in); err != nil {
			return nil, err
		}
		return &GroupBy{Input: input, Keys: keyIRs, Schema: apply.Schema, Apply: &apply}, nil
	})
}

// Join joins the current operator (left) with right.
func (b *Builder) Join(right *Builder, leftOn, rightOn []arena.Node, opts JoinOptions) *Builder {
	return b.then(func(input arena.Node, in *schema.Schema) (IR, error) {
		rightNode, err := right.Node()
		if err != nil {
			return nil, err
		}
		leftIRs, rightIRs := b.exprIRs(leftOn), b.exprIRs(rightOn)
		s, err := JoinSchema(b.plan.Expr, in, Schema(b.plan.LP, rightNode), leftIRs, rightIRs, opts)
		if err != nil {
			return nil, err
		}
		return &Join{
			InputLeft:  input,
			InputRight: rightNode,
			LeftOn:     leftIRs,
			RightOn:    rightIRs,
			Options:    opts,
			Schema:     s,
		}, nil
	})
}

// WithColumns adds or replaces columns.
func (b *Builder) WithColumns(exprs ...arena.Node) *Builder {
	return b.then(func(input arena.Node, in *schema.Schema) (IR, error) {
		irs := b.exprIRs(exprs)
		s, err := HStackSchema(b.plan.Expr, irs, in)
		if err != nil {
			return nil, err
		}
		return &HStack{Input: input, Exprs: irs, Schema: s}, nil
	})
}

// Slice keeps n rows starting at offset.
func (b *Builder) Slice(offset int64, n uint64) *Builder {
	return b.then(func(input arena.Node, _ *schema.Schema) (IR, error) {
		return &Slice{Input: input, Offset: offset, Len: n}, nil
	})
}

// Sink writes the result to path.
func (b *Builder) Sink(path string, format Format) *Builder {
	return b.then(func(input arena.Node, _ *schema.Schema) (IR, error) {
		return &Sink{Input: input, Path: path, Format: format}, nil
	})
}

// Cache marks the current operator as shared under id.
func (b *Builder) Cache(id uint64) *Builder {
	return b.then(func(input arena.Node, _ *schema.Schema) (IR, error) {
		return &Cache{Input: input, ID: id}, nil
	})
}

// MergeSorted merges the current operator with other on key.
func (b *Builder) MergeSorted(other *Builder, key string) *Builder {
	return b.then(func(input arena.Node, in *schema.Schema) (IR, error) {
		otherNode, err := other.Node()
		if err != nil {
			return nil, err
		}
		if got := Schema(b.plan.LP, otherNode); !in.Equal(got) {
			return nil, fmt.Errorf("%w: merge sorted inputs have schemas %s and %s", errors.ErrType, in, got)
		}
		if _, _, err := in.TryGetFull(key); err != nil {
			return nil, err
		}
		return &MergeSorted{InputLeft: input, InputRight: otherNode, Key: key}, nil
	})
}

// Map applies a table-level function.
func (b *Builder) Map(fn FunctionIR) *Builder {
	return b.then(func(input arena.Node, in *schema.Schema) (IR, error) {
		for _, name := range fn.ExtraColumns() {
			if _, _, err := in.TryGetFull(name); err != nil {
				return nil, err
			}
		}
		if r, ok := fn.(*RenameFunction); ok {
			if len(r.Existing) != len(r.New) {
				return nil, fmt.Errorf("%w: rename of %d columns to %d names", errors.ErrKey, len(r.Existing), len(r.New))
			}
			for _, name := range r.Existing {
				if _, _, err := in.TryGetFull(name); err != nil {
					return nil, err
				}
			}
		}
		return &MapFunction{Input: input, Function: fn}, nil
	})
}

// ExtContext makes the columns of contexts available to the current operator.
func (b *Builder) ExtContext(contexts ...*Builder) *Builder {
	return b.then(func(input arena.Node, in *schema.Schema) (IR, error) {
		nodes, err := builderNodes(contexts)
		if err != nil {
			return nil, err
		}
		schemas := make([]*schema.Schema, len(nodes))
		for i, n := range nodes {
			schemas[i] = Schema(b.plan.LP, n)
		}
		return &ExtContext{Input: input, Contexts: nodes, Schema: ExtContextSchema(in, schemas...)}, nil
	})
}
