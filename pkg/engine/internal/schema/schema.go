// Package schema provides an ordered mapping of column names to logical
// types.
package schema

import (
	"fmt"
	"iter"
	"strings"

	"github.com/dolthub/swiss"

	"github.com/grafana/lazyframe/pkg/engine/internal/datatype"
	"github.com/grafana/lazyframe/pkg/engine/internal/errors"
)

// Field is a named, typed column of a [Schema].
type Field struct {
	Name string
	Type datatype.DataType
}

// String returns the field formatted as name: type.
func (f Field) String() string { return fmt.Sprintf("%s: %s", f.Name, f.Type) }

// Schema is an ordered set of uniquely named fields. Lookups by name and by
// position are O(1). Removing a field shifts the fields after it, preserving
// the relative order of the remaining fields.
//
// The zero value is an empty schema ready to use.
type Schema struct {
	fields []Field
	index  *swiss.Map[string, int]
}

// New returns a schema of the given fields. New fails with
// [errors.ErrDuplicateColumn] if two fields share a name.
func New(fields ...Field) (*Schema, error) {
	s := WithCapacity(len(fields))
	for _, f := range fields {
		if s.Contains(f.Name) {
			return nil, fmt.Errorf("%w: %s", errors.ErrDuplicateColumn, f.Name)
		}
		s.WithColumn(f.Name, f.Type)
	}
	return s, nil
}

// MustNew is like [New] but panics on duplicate names.
func MustNew(fields ...Field) *Schema {
	s, err := New(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// WithCapacity returns an empty schema with room for n fields.
func WithCapacity(n int) *Schema {
	return &Schema{
		fields: make([]Field, 0, n),
		index:  swiss.NewMap[string, int](uint32(max(n, 1))),
	}
}

func (s *Schema) ensureIndex() {
	if s.index == nil {
		s.index = swiss.NewMap[string, int](uint32(max(len(s.fields), 1)))
		for i, f := range s.fields {
			s.index.Put(f.Name, i)
		}
	}
}

// Len returns the number of fields.
func (s *Schema) Len() int {
	if s == nil {
		return 0
	}
	return len(s.fields)
}

// IsEmpty reports whether s has no fields.
func (s *Schema) IsEmpty() bool { return s.Len() == 0 }

// GetAtIndex returns the field at position i.
func (s *Schema) GetAtIndex(i int) (Field, bool) {
	if i < 0 || i >= s.Len() {
		return Field{}, false
	}
	return s.fields[i], true
}

// IndexOf returns the position of the named field.
func (s *Schema) IndexOf(name string) (int, bool) {
	if s.Len() == 0 {
		return 0, false
	}
	s.ensureIndex()
	return s.index.Get(name)
}

// Contains reports whether s has a field with the given name.
func (s *Schema) Contains(name string) bool {
	_, ok := s.IndexOf(name)
	return ok
}

// Get returns the type of the named field.
func (s *Schema) Get(name string) (datatype.DataType, bool) {
	i, ok := s.IndexOf(name)
	if !ok {
		return nil, false
	}
	return s.fields[i].Type, true
}

// TryGetFull returns the position and the field for name. It fails with
// [errors.ErrColumnNotFound] if s has no such field.
func (s *Schema) TryGetFull(name string) (int, Field, error) {
	i, ok := s.IndexOf(name)
	if !ok {
		return 0, Field{}, fmt.Errorf("%w: %q not found in schema %s", errors.ErrColumnNotFound, name, s)
	}
	return i, s.fields[i], nil
}

// IterNames yields field names in schema order.
func (s *Schema) IterNames() iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := 0; i < s.Len(); i++ {
			if !yield(s.fields[i].Name) {
				return
			}
		}
	}
}

// Names returns all field names in schema order.
func (s *Schema) Names() []string {
	names := make([]string, 0, s.Len())
	for name := range s.IterNames() {
		names = append(names, name)
	}
	return names
}

// Fields returns a copy of the fields in schema order.
func (s *Schema) Fields() []Field {
	if s.Len() == 0 {
		return nil
	}
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// WithColumn appends a field, or overwrites the type of an existing field of
// the same name in place.
func (s *Schema) WithColumn(name string, dt datatype.DataType) {
	s.ensureIndex()
	if i, ok := s.index.Get(name); ok {
		s.fields[i].Type = dt
		return
	}
	s.index.Put(name, len(s.fields))
	s.fields = append(s.fields, Field{Name: name, Type: dt})
}

// ShiftRemove removes the named field, shifting all fields after it.
func (s *Schema) ShiftRemove(name string) (Field, bool) {
	i, ok := s.IndexOf(name)
	if !ok {
		return Field{}, false
	}
	return s.ShiftRemoveIndex(i)
}

// ShiftRemoveIndex removes the field at position i, shifting all fields after
// it.
func (s *Schema) ShiftRemoveIndex(i int) (Field, bool) {
	if i < 0 || i >= s.Len() {
		return Field{}, false
	}
	s.ensureIndex()

	removed := s.fields[i]
	s.fields = append(s.fields[:i], s.fields[i+1:]...)
	s.index.Delete(removed.Name)
	for j := i; j < len(s.fields); j++ {
		s.index.Put(s.fields[j].Name, j)
	}
	return removed, true
}

// InsertAtIndex inserts a field at position i. If a field of the same name
// exists it is moved to position i and its type is overwritten. i may be
// equal to Len to append.
func (s *Schema) InsertAtIndex(i int, name string, dt datatype.DataType) error {
	n := s.Len()
	if s.Contains(name) {
		n--
	}
	if i < 0 || i > n {
		return fmt.Errorf("%w: insert position %d out of range for schema of length %d", errors.ErrIndex, i, n)
	}
	s.ShiftRemove(name)
	s.ensureIndex()

	s.fields = append(s.fields, Field{})
	copy(s.fields[i+1:], s.fields[i:])
	s.fields[i] = Field{Name: name, Type: dt}
	for j := i; j < len(s.fields); j++ {
		s.index.Put(s.fields[j].Name, j)
	}
	return nil
}

// Merge appends every field of other that s does not already contain.
func (s *Schema) Merge(other *Schema) {
	for _, f := range other.Fields() {
		if !s.Contains(f.Name) {
			s.WithColumn(f.Name, f.Type)
		}
	}
}

// Clone returns a deep copy of s.
func (s *Schema) Clone() *Schema {
	out := WithCapacity(s.Len())
	for _, f := range s.Fields() {
		out.WithColumn(f.Name, f.Type)
	}
	return out
}

// Equal reports whether s and other have the same fields in the same order.
func (s *Schema) Equal(other *Schema) bool {
	if s.Len() != other.Len() {
		return false
	}
	for i := 0; i < s.Len(); i++ {
		a, b := s.fields[i], other.fields[i]
		if a.Name != b.Name || !datatype.Equal(a.Type, b.Type) {
			return false
		}
	}
	return true
}

// HasSameNames reports whether s has exactly the given names in the given
// order.
func (s *Schema) HasSameNames(names []string) bool {
	if s.Len() != len(names) {
		return false
	}
	for i, name := range names {
		if s.fields[i].Name != name {
			return false
		}
	}
	return true
}

// String returns the schema formatted as {name: type, ...}.
func (s *Schema) String() string {
	parts := make([]string, 0, s.Len())
	for _, f := range s.Fields() {
		parts = append(parts, f.String())
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
