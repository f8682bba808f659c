package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/boxwind/internal/cli/output"
	"github.com/leapstack-labs/boxwind/internal/state"
)

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit  int
	Format string
}

// HistoryOutput is the JSON form of the run listing.
type HistoryOutput struct {
	Runs   []state.Run      `json:"runs"`
	Totals []state.TagCount `json:"totals"`
	Count  int              `json:"count"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show previous conversion runs",
		Long: `Show the conversion runs recorded in the project history, newest first,
with the number of elements converted per tag so far. Dry runs are listed but
not counted in the totals.

Given a run ID (or a unique prefix of one), show the files it changed and the
elements it could not convert.`,
		Example: `  # List recent runs
  boxwind history

  # Show one run
  boxwind history 6f1d2c3b`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd, opts.Format)
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if _, err := os.Stat(cmdCtx.Cfg.HistoryPath); os.IsNotExist(err) {
				if len(args) > 0 {
					return fmt.Errorf("%w: %s", state.ErrRunNotFound, args[0])
				}
				return renderHistory(cmdCtx.Renderer, &HistoryOutput{Runs: []state.Run{}, Totals: []state.TagCount{}})
			}

			store, err := state.Open(ctx, cmdCtx.Cfg.HistoryPath, cmdCtx.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) > 0 {
				run, err := store.Get(ctx, args[0])
				if err != nil {
					return err
				}
				return renderRun(cmdCtx.Renderer, run)
			}

			runs, err := store.List(ctx, opts.Limit)
			if err != nil {
				return err
			}
			totals, err := store.Totals(ctx)
			if err != nil {
				return err
			}
			if runs == nil {
				runs = []state.Run{}
			}
			if totals == nil {
				totals = []state.TagCount{}
			}
			return renderHistory(cmdCtx.Renderer, &HistoryOutput{Runs: runs, Totals: totals, Count: len(runs)})
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of runs to list (0 for all)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

func renderHistory(r *output.Renderer, out *HistoryOutput) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}
	if len(out.Runs) == 0 {
		r.Warning("No runs recorded yet")
		return nil
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, "Conversion History"))
		r.Println("")
	} else {
		r.Println("")
		r.Println(r.Styles().Header1.Render(fmt.Sprintf("Conversion History (%d)", out.Count)))
		r.Println("")
	}

	rows := make([][]any, 0, len(out.Runs))
	for _, run := range out.Runs {
		mode := "write"
		if run.DryRun {
			mode = "dry run"
		}
		rows = append(rows, []any{
			shortID(run.ID),
			run.StartedAt.Local().Format("2006-01-02 15:04"),
			mode,
			fmt.Sprintf("%d/%d", run.FilesChanged, run.FilesScanned),
			run.Elements,
			run.FailureCount,
		})
	}
	r.Table([]string{"Run", "Started", "Mode", "Files", "Elements", "Failures"}, rows)

	if len(out.Totals) > 0 {
		r.Println("")
		r.Header(2, "Converted so far")
		if r.EffectiveMode() == output.ModeMarkdown {
			r.Println("")
		}
		rows := make([][]any, 0, len(out.Totals))
		for _, tc := range out.Totals {
			rows = append(rows, []any{tc.Tag, tc.Converted, tc.Deferred})
		}
		r.Table([]string{"Tag", "Converted", "Deferred"}, rows)
	}
	return nil
}

func renderRun(r *output.Renderer, run *state.Run) error {
	mode := r.EffectiveMode()
	if mode == output.ModeJSON {
		return r.JSON(run)
	}

	title := fmt.Sprintf("Run %s", shortID(run.ID))
	fields := [][2]any{
		{"ID", run.ID},
		{"Started", run.StartedAt.Local().Format("2006-01-02 15:04:05")},
		{"Duration", run.Duration.Round(time.Millisecond)},
		{"Dry run", run.DryRun},
		{"Files", fmt.Sprintf("%d changed of %d scanned", run.FilesChanged, run.FilesScanned)},
		{"Elements", run.Elements},
	}

	if mode == output.ModeMarkdown {
		r.Println(output.FormatHeader(1, title))
		r.Println("")
		for _, f := range fields {
			r.Println(output.FormatKeyValue(f[0].(string), f[1]))
		}
	} else {
		styles := r.Styles()
		r.Println("")
		r.Println(styles.Header1.Render(title))
		for _, f := range fields {
			r.Printf("  %s: %v\n", styles.Bold.Render(f[0].(string)), f[1])
		}
	}

	if len(run.Tags) > 0 {
		r.Println("")
		r.Header(2, "Elements")
		if mode == output.ModeMarkdown {
			r.Println("")
		}
		rows := make([][]any, 0, len(run.Tags))
		for _, tc := range run.Tags {
			rows = append(rows, []any{tc.Tag, tc.Converted, tc.Deferred})
		}
		r.Table([]string{"Tag", "Converted", "Deferred"}, rows)
	}

	if len(run.Files) > 0 {
		r.Println("")
		r.Header(2, "Changed Files")
		if mode == output.ModeMarkdown {
			r.Println("")
		}
		for _, f := range run.Files {
			r.Printf("- %s\n", f)
		}
	}

	if len(run.Failures) > 0 {
		r.Println("")
		r.Header(2, "Failures")
		if mode == output.ModeMarkdown {
			r.Println("")
		}
		for _, f := range run.Failures {
			r.Printf("- %s\n", failureText("", f))
		}
	}
	return nil
}

// shortID returns the first block of a run ID.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
