package commands

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/boxwind/internal/cli/output"
	"github.com/leapstack-labs/boxwind/internal/codemod"
	"github.com/leapstack-labs/boxwind/pkg/convert"
)

// PropsOptions holds options for the props command.
type PropsOptions struct {
	Format string
}

// PropUsage is one prop of the props report.
type PropUsage struct {
	Name     string `json:"name"`
	Count    int    `json:"count"`
	Handling string `json:"handling"`
}

// PropsOutput is the JSON output for the props command.
type PropsOutput struct {
	Tag   string      `json:"tag"`
	Files int         `json:"files"`
	Props []PropUsage `json:"props"`
}

// NewPropsCommand creates the props command.
func NewPropsCommand() *cobra.Command {
	opts := &PropsOptions{}
	cmd := &cobra.Command{
		Use:   "props <tag> [paths...]",
		Short: "List the props used on a component",
		Long: `List every prop used on a component across the project, with the number
of elements using it and how convert treats it.

Handling is the class prefix of the matching rule, "func" for a computed
rule, "kept" for props copied to the element, and "dropped" for props
convert discards. Use it to find props a rule table is missing before
converting.`,
		Example: `  # Props used on <Box>
  boxwind props Box

  # Props used on <Grid> below one directory, as JSON
  boxwind props Grid src/layout -f json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProps(cmd, args[0], args[1:], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

func runProps(cmd *cobra.Command, tag string, paths []string, opts *PropsOptions) error {
	cmdCtx := NewCommandContext(cmd, opts.Format)
	r := cmdCtx.Renderer

	files, err := cmdCtx.Files(paths, cmdCtx.Cfg.Include, cmdCtx.Cfg.Exclude)
	if err != nil {
		return err
	}

	counts, err := codemod.UniqueProps(files, tag)
	if err != nil {
		cmdCtx.Logger.Warn("some files were skipped", "error", err)
	}

	tables, err := cmdCtx.RuleSet()
	if err != nil {
		return err
	}
	table, _ := tables.Get(tag)
	conv := cmdCtx.Converter()

	out := &PropsOutput{Tag: tag, Files: len(files), Props: make([]PropUsage, 0, len(counts))}
	for _, c := range counts {
		out.Props = append(out.Props, PropUsage{Name: c.Name, Count: c.Count, Handling: propHandling(conv, table, c.Name)})
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}
	if len(out.Props) == 0 {
		r.Warning(fmt.Sprintf("No <%s> elements found in %d files", tag, len(files)))
		return nil
	}

	r.Header(1, fmt.Sprintf("Props on <%s>", tag))
	r.Println("")
	rows := make([][]any, 0, len(out.Props))
	for _, p := range out.Props {
		rows = append(rows, []any{p.Name, p.Count, p.Handling})
	}
	r.Table([]string{"Prop", "Count", "Rule"}, rows)
	return nil
}

// propHandling describes what convert does with the prop name. A nil table
// means the tag has no rules.
func propHandling(conv *convert.Converter, table *convert.RuleTable, name string) string {
	if table != nil {
		if t, ok := table.Lookup(name); ok {
			return t.String()
		}
	}
	switch {
	case name == convert.ClassAttr:
		return "merged"
	case name == convert.ComponentAttr:
		return "tag"
	case slices.Contains(conv.Passthrough(), name):
		return "kept"
	default:
		return "dropped"
	}
}
