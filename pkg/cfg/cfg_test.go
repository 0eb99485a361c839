package cfg

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type Server struct {
	Port    int           `yaml:"port"`
	Timeout time.Duration `yaml:"timeout"`
}

type TLS struct {
	Cert string `yaml:"cert"`
	Key  string `yaml:"key"`
}

type Data struct {
	Verbose bool   `yaml:"verbose"`
	Server  Server `yaml:"server"`
	TLS     TLS    `yaml:"tls"`
}

func (d *Data) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&d.Verbose, "verbose", false, "")
	fs.IntVar(&d.Server.Port, "server.port", 80, "")
	fs.DurationVar(&d.Server.Timeout, "server.timeout", 60*time.Second, "")
	fs.StringVar(&d.TLS.Cert, "tls.cert", "CERT", "")
	fs.StringVar(&d.TLS.Key, "tls.key", "KEY", "")
}

func newFlagSet() *flag.FlagSet {
	return flag.NewFlagSet("test", flag.ContinueOnError)
}

func TestDefaults(t *testing.T) {
	var d Data
	require.NoError(t, Unmarshal(&d, Defaults(newFlagSet())))
	require.Equal(t, Data{
		Server: Server{Port: 80, Timeout: 60 * time.Second},
		TLS:    TLS{Cert: "CERT", Key: "KEY"},
	}, d)
}

func TestUnmarshal_Precedence(t *testing.T) {
	fs := newFlagSet()

	var d Data
	err := Unmarshal(&d,
		Defaults(fs),
		dYAML([]byte(`
server:
  port: 2000
  timeout: 60h
tls:
  key: YAML
`)),
		Flags(fs, []string{"-verbose", "-server.port=21"}),
	)
	require.NoError(t, err)

	require.Equal(t, Data{
		Verbose: true,
		Server:  Server{Port: 21, Timeout: 60 * time.Hour},
		TLS:     TLS{Cert: "CERT", Key: "YAML"},
	}, d)
}

func TestYAML_UnknownField(t *testing.T) {
	var d Data
	err := Unmarshal(&d, dYAML([]byte("unknown: 1\n")))
	require.ErrorContains(t, err, "sourcing")
	require.ErrorContains(t, err, "unknown")
}

func TestYAML_EmptyDocument(t *testing.T) {
	var d Data
	require.NoError(t, Unmarshal(&d, dYAML(nil)))
	require.Equal(t, Data{}, d)
}

func TestParse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tls:\n  cert: FILE\n"), 0o644))

	var d Data
	err := Parse(&d, newFlagSet(), []string{"-config.file=" + path, "-server.timeout=1m"})
	require.NoError(t, err)

	require.Equal(t, Data{
		Server: Server{Port: 80, Timeout: time.Minute},
		TLS:    TLS{Cert: "FILE", Key: "KEY"},
	}, d)
}

func TestParse_MissingFile(t *testing.T) {
	var d Data
	err := Parse(&d, newFlagSet(), []string{"-config.file", filepath.Join(t.TempDir(), "missing.yaml")})
	require.ErrorContains(t, err, "reading config file")
}

func TestConfigFile(t *testing.T) {
	for _, tt := range []struct {
		args []string
		want string
	}{
		{nil, ""},
		{[]string{"-verbose"}, ""},
		{[]string{"-config.file=a.yaml"}, "a.yaml"},
		{[]string{"--config.file", "b.yaml", "-verbose"}, "b.yaml"},
		{[]string{"--", "-config.file=c.yaml"}, ""},
	} {
		require.Equal(t, tt.want, ConfigFile(tt.args), "%v", tt.args)
	}
}
