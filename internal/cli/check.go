package cli

import (
	"fmt"
	"text/tabwriter"

	urfave "github.com/urfave/cli/v2"

	"github.com/ZanzyTHEbar/aq10-triage/internal/model"
	"github.com/ZanzyTHEbar/aq10-triage/internal/screening"
)

var checkCmd = &urfave.Command{
	Name:   "check",
	Usage:  "Load the artifacts and print how each column is bound",
	Action: cmdCheck,
}

type columnBinding struct {
	Column string `json:"column" yaml:"column"`
	Field  string `json:"field" yaml:"field"`
}

type checkOutput struct {
	Dir     string            `json:"dir" yaml:"dir"`
	Model   model.Kind        `json:"model" yaml:"model"`
	Binding string            `json:"binding" yaml:"binding"`
	Columns []columnBinding   `json:"columns" yaml:"columns"`
	Unbound []screening.Field `json:"unbound" yaml:"unbound"`
}

func cmdCheck(c *urfave.Context) error {
	cfg := getConfig(c)
	dir := cfg.Config.Artifacts.Dir

	artifacts, err := model.Load(dir, cfg.Config.Artifacts.Files())
	if err != nil {
		return err
	}

	// build without the strict check so the full table can be printed first
	binding, err := artifacts.Binding(false)
	if err != nil {
		return err
	}

	out := checkOutput{
		Dir:     dir,
		Model:   artifacts.Classifier.Kind,
		Binding: "keyword",
		Unbound: binding.Missing(),
	}
	if artifacts.Declared != nil {
		out.Binding = "declared"
	}
	for i, col := range binding.Columns() {
		out.Columns = append(out.Columns, columnBinding{Column: col, Field: string(binding.FieldAt(i))})
	}

	if cfg.Format == formatText {
		if err := writeCheckText(c, out); err != nil {
			return err
		}
	} else if err := encode(c.App.Writer, cfg.Format, out); err != nil {
		return err
	}

	if cfg.Config.Artifacts.StrictBinding {
		return binding.Validate()
	}
	return nil
}

func writeCheckText(c *urfave.Context, out checkOutput) error {
	fmt.Fprintf(c.App.Writer, "artifacts: %s (%s, %s binding)\n", out.Dir, out.Model, out.Binding)

	tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tFIELD")
	for _, cb := range out.Columns {
		field := cb.Field
		if field == "" {
			field = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\n", cb.Column, field)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(out.Unbound) > 0 {
		fmt.Fprintf(c.App.Writer, "unbound fields: %v\n", out.Unbound)
	}
	return nil
}
