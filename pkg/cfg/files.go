package cfg

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// YAML returns a Source that reads the file at path. An empty path is
// ignored. Unknown fields are an error.
func YAML(path string) Source {
	return func(dst any) error {
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrap(err, "reading config file")
		}
		return errors.Wrapf(dYAML(data)(dst), "parsing %s", path)
	}
}

// dYAML returns a Source that decodes data. An empty document is ignored.
func dYAML(data []byte) Source {
	return func(dst any) error {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
}
