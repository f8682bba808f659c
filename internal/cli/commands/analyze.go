package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/boxwind/internal/cli/output"
	"github.com/leapstack-labs/boxwind/internal/codemod"
)

// DefaultAnalyzeModule is the component library analyze reports on.
const DefaultAnalyzeModule = "@material-ui/core"

// AnalyzeOptions holds options for the analyze command.
type AnalyzeOptions struct {
	Module  string
	Include []string
	Exclude []string
	Top     int
	Format  string
}

// AnalyzeOutput is the JSON output for the analyze command.
type AnalyzeOutput struct {
	*codemod.ImportReport
	Total int     `json:"total"`
	Share float64 `json:"share"`
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}
	cmd := &cobra.Command{
		Use:   "analyze [paths...]",
		Short: "Report how much the code base imports from a component library",
		Long: `Count the named imports from a module per component and per project, and
the share of files importing it. Use it to track how much is left to
migrate.

Projects are the first three directories below the project root. Index
files and hooks are excluded by default.`,
		Example: `  # Usage of @material-ui/core
  boxwind analyze

  # Usage of another module, top 10 only
  boxwind analyze --module @mui/material --top 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Module, "module", "m", DefaultAnalyzeModule, "Module whose imports are counted")
	cmd.Flags().StringSliceVar(&opts.Include, "include", []string{"**/*.tsx"}, "Include pattern (repeatable)")
	cmd.Flags().StringSliceVar(&opts.Exclude, "skip", codemod.DefaultAnalyzeExclude, "Exclude pattern (repeatable)")
	cmd.Flags().IntVar(&opts.Top, "top", 0, "Only list the N most imported components (0 for all)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	cmdCtx := NewCommandContext(cmd, opts.Format)
	r := cmdCtx.Renderer

	files, err := cmdCtx.Files(args, opts.Include, opts.Exclude)
	if err != nil {
		return err
	}

	report, err := codemod.ImportUsage(cmdCtx.Cfg.ProjectRoot, files, opts.Module)
	if err != nil {
		cmdCtx.Logger.Warn("some files were skipped", "error", err)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(&AnalyzeOutput{ImportReport: report, Total: report.Total(), Share: report.Share()})
	}

	r.Header(1, fmt.Sprintf("Imports from %s", report.Module))
	r.Println("")
	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatKeyValue("Files scanned", report.Files))
		r.Println(output.FormatKeyValue("Files importing", fmt.Sprintf("%d (%.2f%%)", report.Importing, report.Share())))
		r.Println(output.FormatKeyValue("Named imports", report.Total()))
	} else {
		r.Printf("   Files: %d | Importing: %d (%.2f%%) | Named imports: %d\n",
			report.Files, report.Importing, report.Share(), report.Total())
	}
	r.Println("")

	if len(report.Components) == 0 {
		return nil
	}

	components := report.Components
	if opts.Top > 0 && len(components) > opts.Top {
		components = components[:opts.Top]
	}
	r.Header(2, "Components")
	r.Println("")
	r.Table([]string{"Component", "Imports"}, countRows(components))
	r.Println("")

	r.Header(2, "Projects")
	r.Println("")
	r.Table([]string{"Project", "Imports"}, countRows(report.Projects))
	return nil
}

func countRows(counts []codemod.Count) [][]any {
	rows := make([][]any, 0, len(counts))
	for _, c := range counts {
		rows = append(rows, []any{c.Name, c.Count})
	}
	return rows
}
