package cfg

import (
	"flag"
	"fmt"
	"strings"

	"github.com/grafana/dskit/flagext"
)

// ConfigFileFlag is the flag naming the YAML file read by [Parse].
const ConfigFileFlag = "config.file"

// Defaults returns a Source that registers the flags of dst on fs, setting
// every field to its flag default. fs keeps pointing at dst, so a later
// [Flags] source only overrides the flags set on the command line.
func Defaults(fs *flag.FlagSet) Source {
	return func(dst any) error {
		r, ok := dst.(flagext.Registerer)
		if !ok {
			return fmt.Errorf("%T does not register flags", dst)
		}
		r.RegisterFlags(fs)
		return nil
	}
}

// Flags returns a Source that parses args with fs. The flags of dst must
// have been registered on fs by [Defaults].
func Flags(fs *flag.FlagSet, args []string) Source {
	return func(any) error {
		return fs.Parse(args)
	}
}

// ConfigFile returns the value of the -config.file flag in args without
// parsing any other flag.
func ConfigFile(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if value, ok := strings.CutPrefix(name, ConfigFileFlag+"="); ok {
			return value
		}
		if name == ConfigFileFlag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}
