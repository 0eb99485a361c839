package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/grafana/lazyframe/pkg/engine/plandef"
)

// schemaCommand prints the schema stored in Parquet and Arrow IPC files.
type schemaCommand struct {
	out   io.Writer
	files []string
}

func addSchemaCommand(app *kingpin.Application, out io.Writer) {
	cmd := &schemaCommand{out: out}

	c := app.Command("schema", "Print the schema of Parquet and Arrow IPC files.")
	c.Arg("files", "Files to read.").Required().ExistingFilesVar(&cmd.files)
	c.Action(cmd.run)
}

func (cmd *schemaCommand) run(_ *kingpin.ParseContext) error {
	bold := color.New(color.Bold)
	for _, f := range cmd.files {
		fi, err := os.Stat(f)
		if err != nil {
			return err
		}
		s, err := plandef.DiscoverFileSchema(f)
		if err != nil {
			return err
		}

		bold.Fprintf(cmd.out, "%s", f)
		fmt.Fprintf(cmd.out, " (%s, %d columns)\n", humanize.Bytes(uint64(fi.Size())), s.Len())
		for _, field := range s.Fields() {
			fmt.Fprintf(cmd.out, "\t%s\n", field)
		}
	}
	return nil
}
