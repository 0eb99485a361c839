// Package cfg loads configuration from flag defaults, YAML files and command
// line flags, in that order of precedence.
package cfg

import (
	"flag"
	"reflect"

	"github.com/grafana/dskit/flagext"
	"github.com/pkg/errors"
)

// Source is a generic configuration source. This function may do whatever is
// required to obtain the configuration. It is passed a pointer to the
// destination, which may already hold data from previous sources.
type Source func(any) error

// Unmarshal merges the values of the various configuration sources and sets
// them on dst.
func Unmarshal(dst any, sources ...Source) error {
	if len(sources) == 0 {
		panic("no sources supplied to cfg.Unmarshal")
	}
	for _, source := range sources {
		if err := source(dst); err != nil {
			return errors.Wrap(err, "sourcing")
		}
	}
	return nil
}

// Parse registers the flags of dst on fs and fills dst from the flag
// defaults, the YAML file named by the -config.file argument if any, and
// the flags in args.
func Parse(dst flagext.Registerer, fs *flag.FlagSet, args []string) error {
	if v := reflect.ValueOf(dst); v.Kind() != reflect.Pointer || v.IsNil() {
		panic("cfg.Parse: dst must be a non-nil pointer")
	}

	var path string
	fs.StringVar(&path, ConfigFileFlag, "", "Configuration file to load.")

	return Unmarshal(dst,
		Defaults(fs),
		YAML(ConfigFile(args)),
		Flags(fs, args),
	)
}
