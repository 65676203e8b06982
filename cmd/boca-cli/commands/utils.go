package commands

import (
	"encoding/json"
	"os"

	"bocateam/cmd/boca-cli/globals"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

func printJson(value any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}

// render prints value as json when --json is given, otherwise as the table built by
// toTable.
func render(cmd *cobra.Command, value any, toTable func(t table.Writer)) error {
	if globals.Get(cmd.Context()).Json {
		return printJson(value)
	}
	t := newTable()
	toTable(t)
	t.Render()
	return nil
}
