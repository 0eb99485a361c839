package logical

import (
	"fmt"

	"github.com/grafana/lazyframe/pkg/engine/internal/errors"
	"github.com/grafana/lazyframe/pkg/engine/internal/schema"
)

// ExprsSchema returns the schema produced by evaluating exprs against input,
// one field per expression.
func ExprsSchema(ea *ExprArena, exprs []ExprIR, input *schema.Schema) (*schema.Schema, error) {
	out := schema.WithCapacity(len(exprs))
	for _, e := range exprs {
		f, err := ToField(ea, e.Node, input)
		if err != nil {
			return nil, err
		}
		f.Name = e.OutputName
		if out.Contains(f.Name) {
			return nil, fmt.Errorf("%w: %s is produced by more than one expression", errors.ErrDuplicateColumn, f.Name)
		}
		out.WithColumn(f.Name, f.Type)
	}
	return out, nil
}

// ProjectionSchema returns the fields of input named by names, in the order
// of names.
func ProjectionSchema(input *schema.Schema, names []string) (*schema.Schema, error) {
	out := schema.WithCapacity(len(names))
	for _, name := range names {
		_, f, err := input.TryGetFull(name)
		if err != nil {
			return nil, err
		}
		out.WithColumn(f.Name, f.Type)
	}
	return out, nil
}

// HStackSchema returns input with the outputs of exprs appended, or replaced
// in place when a column of the same name exists.
func HStackSchema(ea *ExprArena, exprs []ExprIR, input *schema.Schema) (*schema.Schema, error) {
	out := input.Clone()
	for _, e := range exprs {
		f, err := ToField(ea, e.Node, input)
		if err != nil {
			return nil, err
		}
		out.WithColumn(e.OutputName, f.Type)
	}
	return out, nil
}

// GroupBySchema returns the keys followed by the aggregations.
func GroupBySchema(ea *ExprArena, keys, aggs []ExprIR, input *schema.Schema) (*schema.Schema, error) {
	all := make([]ExprIR, 0, len(keys)+len(aggs))
	all = append(all, keys...)
	all = append(all, aggs...)
	return ExprsSchema(ea, all, input)
}

// HConcatSchema returns the fields of all inputs side by side.
func HConcatSchema(inputs ...*schema.Schema) (*schema.Schema, error) {
	out := schema.WithCapacity(0)
	for _, in := range inputs {
		for _, f := range in.Fields() {
			if out.Contains(f.Name) {
				return nil, fmt.Errorf("%w: %s appears in more than one horizontally concatenated input", errors.ErrDuplicateColumn, f.Name)
			}
			out.WithColumn(f.Name, f.Type)
		}
	}
	return out, nil
}

// ExtContextSchema returns input extended with every context field it does
// not already have.
func ExtContextSchema(input *schema.Schema, contexts ...*schema.Schema) *schema.Schema {
	out := input.Clone()
	for _, c := range contexts {
		out.Merge(c)
	}
	return out
}

// JoinSchema returns the output schema of a join.
//
// Semi and anti joins produce the left schema. Inner and left joins coalesce
// the keys and drop right key columns referenced by name. Right columns
// colliding with a left column get the join suffix.
func JoinSchema(ea *ExprArena, left, right *schema.Schema, leftOn, rightOn []ExprIR, opts JoinOptions) (*schema.Schema, error) {
	if len(leftOn) != len(rightOn) {
		return nil, fmt.Errorf("%w: join has %d left keys and %d right keys", errors.ErrKey, len(leftOn), len(rightOn))
	}
	if opts.How == JoinTypeCross && len(leftOn) > 0 {
		return nil, fmt.Errorf("%w: cross join does not take keys", errors.ErrKey)
	}
	for _, e := range leftOn {
		if _, err := ToField(ea, e.Node, left); err != nil {
			return nil, fmt.Errorf("left join key: %w", err)
		}
	}
	for _, e := range rightOn {
		if _, err := ToField(ea, e.Node, right); err != nil {
			return nil, fmt.Errorf("right join key: %w", err)
		}
	}

	if opts.How == JoinTypeSemi || opts.How == JoinTypeAnti {
		return left.Clone(), nil
	}

	coalesced := map[string]struct{}{}
	if opts.How == JoinTypeInner || opts.How == JoinTypeLeft {
		for _, e := range rightOn {
			if c, ok := ea.Get(e.Node).(*Column); ok {
				coalesced[c.Name] = struct{}{}
			}
		}
	}

	suffix := opts.SuffixOrDefault()
	out := left.Clone()
	for _, f := range right.Fields() {
		if _, ok := coalesced[f.Name]; ok {
			continue
		}
		name := f.Name
		if out.Contains(name) {
			name += suffix
		}
		if out.Contains(name) {
			return nil, fmt.Errorf("%w: %s in join output", errors.ErrDuplicateColumn, name)
		}
		out.WithColumn(name, f.Type)
	}
	return out, nil
}
