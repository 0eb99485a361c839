package plandef

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grafana/lazyframe/pkg/engine/internal/errors"
	"github.com/grafana/lazyframe/pkg/engine/internal/planner/logical"
	"github.com/grafana/lazyframe/pkg/engine/internal/schema"
)

// DiscoverSchema reads the schema stored in the file at path. Only Parquet
// and Arrow IPC files carry a schema.
func DiscoverSchema(format logical.Format, path string) (*schema.Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var s *schema.Schema
	switch format {
	case logical.FormatParquet:
		info, err := f.Stat()
		if err != nil {
			return nil, err
		}
		s, err = schema.ReadParquet(f, info.Size())
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case logical.FormatIPC:
		s, err = schema.ReadIPC(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: reading the schema of %s files", errors.ErrNotImplemented, format)
	}
	return s, nil
}

// DiscoverFileSchema is like [DiscoverSchema] with the format taken from the
// extension of path.
func DiscoverFileSchema(path string) (*schema.Schema, error) {
	format, ok := formatFromPath(path)
	if !ok {
		return nil, fmt.Errorf("unknown file type %q", filepath.Ext(path))
	}
	return DiscoverSchema(format, path)
}

func formatFromPath(path string) (logical.Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return logical.FormatParquet, true
	case ".arrow", ".ipc", ".feather":
		return logical.FormatIPC, true
	case ".csv":
		return logical.FormatCSV, true
	case ".ndjson", ".jsonl":
		return logical.FormatNDJSON, true
	}
	return logical.FormatInvalid, false
}
