package schema

import (
	"fmt"
	"io"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"

	"github.com/grafana/lazyframe/pkg/engine/internal/datatype"
)

// ToArrow converts s into an Arrow schema. All fields are nullable.
func (s *Schema) ToArrow() (*arrow.Schema, error) {
	fields := make([]arrow.Field, 0, s.Len())
	for _, f := range s.Fields() {
		at, err := datatype.ToArrow(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}
		fields = append(fields, arrow.Field{Name: f.Name, Type: at, Nullable: true})
	}
	return arrow.NewSchema(fields, nil), nil
}

// FromArrow converts an Arrow schema into a [Schema].
func FromArrow(as *arrow.Schema) (*Schema, error) {
	fields := make([]Field, 0, as.NumFields())
	for _, af := range as.Fields() {
		dt, err := datatype.FromArrow(af.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", af.Name, err)
		}
		fields = append(fields, Field{Name: af.Name, Type: dt})
	}
	return New(fields...)
}

// ReadIPC reads the schema from the footer of an Arrow IPC file.
func ReadIPC(r ipc.ReadAtSeeker) (*Schema, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	fr, err := ipc.NewFileReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening arrow ipc file: %w", err)
	}
	defer fr.Close()
	return FromArrow(fr.Schema())
}
