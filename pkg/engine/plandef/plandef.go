// Package plandef reads logical plans from YAML documents.
//
// A document holds a single operator tree under the plan key. Every operator
// names its kind with op and its inputs with input, inputs, right or
// contexts:
//
//	plan:
//	  op: select
//	  exprs: [a, {agg: sum, args: [b], alias: total}]
//	  input:
//	    op: scan
//	    format: parquet
//	    sources: [data.parquet]
//
// Scans without an inline schema read it from the first source.
package plandef

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Definition is a decoded plan document.
type Definition struct {
	Plan Operator `yaml:"plan"`

	// CountStar declares that only the row count of the result is read.
	CountStar bool `yaml:"count_star"`

	// dir resolves relative scan sources.
	dir string
}

// Field is a column of an inline schema.
type Field struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// RowIndex configures a generated row index column of a scan.
type RowIndex struct {
	Name   string `yaml:"name"`
	Offset uint32 `yaml:"offset"`
}

// Apply is a custom group-by function.
type Apply struct {
	Name   string  `yaml:"name"`
	Schema []Field `yaml:"schema"`
}

// Function is the table function of a map operator.
type Function struct {
	// Kind is one of rename, explode, row_index, rechunk or opaque.
	Kind string `yaml:"kind"`

	Existing []string `yaml:"existing"`
	New      []string `yaml:"new"`
	Columns  []string `yaml:"columns"`
	Name     string   `yaml:"name"`
	Offset   uint32   `yaml:"offset"`

	ProjectionPushdown bool    `yaml:"projection_pushdown"`
	Schema             []Field `yaml:"schema"`
}

// Operator is a node of the plan tree. Only the fields used by Op are read.
type Operator struct {
	Op string `yaml:"op"`

	Input    *Operator   `yaml:"input"`
	Inputs   []*Operator `yaml:"inputs"`
	Right    *Operator   `yaml:"right"`
	Contexts []*Operator `yaml:"contexts"`

	// Sources.
	Name                     string    `yaml:"name"`
	Format                   string    `yaml:"format"`
	Sources                  []string  `yaml:"sources"`
	Schema                   []Field   `yaml:"schema"`
	RowIndex                 *RowIndex `yaml:"row_index"`
	IncludeFilePaths         string    `yaml:"include_file_paths"`
	AllowsProjectionPushdown bool      `yaml:"allows_projection_pushdown"`

	Exprs     []Expr   `yaml:"exprs"`
	Columns   []string `yaml:"columns"`
	Predicate *Expr    `yaml:"predicate"`

	By         []Expr `yaml:"by"`
	Descending []bool `yaml:"descending"`

	Keys          []Expr `yaml:"keys"`
	Aggs          []Expr `yaml:"aggs"`
	Apply         *Apply `yaml:"apply"`
	MaintainOrder bool   `yaml:"maintain_order"`

	How     string `yaml:"how"`
	LeftOn  []Expr `yaml:"left_on"`
	RightOn []Expr `yaml:"right_on"`
	Suffix  string `yaml:"suffix"`

	Offset int64  `yaml:"offset"`
	Len    uint64 `yaml:"len"`

	Path string    `yaml:"path"`
	ID   *uint64   `yaml:"id"`
	Key  string    `yaml:"key"`
	Func *Function `yaml:"function"`
}

// Expr is an expression. A plain string is a column reference.
type Expr struct {
	Col      string     `yaml:"col"`
	Lit      *yaml.Node `yaml:"lit"`
	Len      bool       `yaml:"len"`
	Op       string     `yaml:"op"`
	Agg      string     `yaml:"agg"`
	Cast     string     `yaml:"cast"`
	Function string     `yaml:"function"`
	Type     string     `yaml:"type"`
	Args     []Expr     `yaml:"args"`

	When      *Expr `yaml:"when"`
	Then      *Expr `yaml:"then"`
	Otherwise *Expr `yaml:"otherwise"`

	// Alias renames the output of the expression.
	Alias string `yaml:"alias"`
}

// UnmarshalYAML implements [yaml.Unmarshaler].
func (e *Expr) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*e = Expr{Col: value.Value}
		return nil
	}
	type plain Expr
	return value.Decode((*plain)(e))
}

// Parse decodes a plan definition from r.
func Parse(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decoding plan definition: %w", err)
	}
	if def.Plan.Op == "" {
		return nil, fmt.Errorf("plan definition has no plan")
	}
	return &def, nil
}

// ParseFile decodes the plan definition at path. Relative scan sources are
// resolved against the directory of path.
func ParseFile(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	def, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	def.dir = filepath.Dir(path)
	return def, nil
}
