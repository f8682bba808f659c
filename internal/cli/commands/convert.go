package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/maruel/natural"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/boxwind/internal/cli/output"
	"github.com/leapstack-labs/boxwind/internal/codemod"
)

// ConvertOptions holds options for the convert command that are not part
// of the configuration.
type ConvertOptions struct {
	Watch  bool
	Format string
}

// NewConvertCommand creates the convert command.
func NewConvertCommand() *cobra.Command {
	opts := &ConvertOptions{}
	cmd := &cobra.Command{
		Use:   "convert [paths...]",
		Short: "Rewrite Box and Grid elements into utility classes",
		Long: `Convert every element that has a rule table into a plain element with a
className built from its props.

Without arguments the project root is searched with the include and exclude
patterns. Directories given as arguments are searched the same way; files
are converted as given.

Rewritten files are syntax-checked before they are written. Elements that
cannot be converted are reported and left untouched, and the command exits
with an error.`,
		Example: `  # Convert the project
  boxwind convert

  # Preview changes without writing
  boxwind convert --dry-run

  # Convert only <Box> in one directory
  boxwind convert src/components --tag Box

  # Use a named clsx import as the merge helper
  boxwind convert --merge-func clsx --merge-import clsx --named-import

  # Drop the now unused <Box> and <Grid> imports
  boxwind convert --organize-imports

  # Keep converting as files change
  boxwind convert --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, args, opts)
		},
	}

	cmd.Flags().StringSliceP("glob", "g", nil, "Include pattern relative to the project root (repeatable)")
	cmd.Flags().StringSlice("exclude", nil, "Exclude pattern (repeatable)")
	cmd.Flags().BoolP("dry-run", "d", false, "Report changes without writing files")
	cmd.Flags().IntP("jobs", "j", 0, "Files converted in parallel (default: number of CPUs)")
	cmd.Flags().String("merge-func", "", "Name of the class merge helper (default: cn)")
	cmd.Flags().String("merge-import", "", "Module the merge helper is imported from (default: @/utils)")
	cmd.Flags().Bool("named-import", false, "Import the merge helper as a named import")
	cmd.Flags().Bool("no-verify", false, "Skip the syntax check of rewritten files")
	cmd.Flags().StringSlice("rules-file", nil, "YAML rule table file (repeatable)")
	cmd.Flags().StringSlice("tag", nil, "Only convert these component tags (repeatable)")
	cmd.Flags().String("default-tag", "", "Element used when no component prop is given (default: div)")
	cmd.Flags().StringSlice("passthrough", nil, "Extra props copied to the element unchanged (repeatable)")
	cmd.Flags().Bool("organize-imports", false, "Remove imports of converted tags that are no longer used")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the project history")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Convert again whenever matching files change")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

func runConvert(cmd *cobra.Command, args []string, opts *ConvertOptions) error {
	cmdCtx := NewCommandContext(cmd, opts.Format)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	tables, err := cmdCtx.RuleSet()
	if err != nil {
		return err
	}

	runnerOpts := codemod.Options{
		Converter:       cmdCtx.Converter(),
		Tables:          tables,
		MergeImport:     cfg.Merge.Import,
		NamedImport:     cfg.Merge.Named,
		OrganizeImports: cfg.OrganizeImports,
		DryRun:          cfg.DryRun,
		SkipVerify:      !cfg.Verify,
		Jobs:            cfg.Jobs,
		Logger:          cmdCtx.Logger,
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Watch {
		return watchConvert(ctx, cmdCtx, runnerOpts)
	}

	files, err := cmdCtx.Files(args, cfg.Include, cfg.Exclude)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		r.Warning("No files matched")
		return nil
	}

	var bar *progressbar.ProgressBar
	if showProgress(r, cfg.Verbose, len(files)) {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetWriter(r.ErrWriter()),
			progressbar.OptionSetDescription("converting"),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
			progressbar.OptionThrottle(65*time.Millisecond),
		)
		runnerOpts.OnFileDone = func(string) { _ = bar.Add(1) }
	}

	summary, err := codemod.New(runnerOpts).Run(ctx, files)
	if bar != nil {
		_ = bar.Finish()
	}
	if err != nil {
		return err
	}
	cmdCtx.RecordRun(ctx, summary)

	if err := renderSummary(r, cfg.ProjectRoot, summary); err != nil {
		return err
	}
	if n := len(summary.Failures); n > 0 {
		return fmt.Errorf("%d conversion failures: %w", n, summary.Err())
	}
	return nil
}

func showProgress(r *output.Renderer, verbose bool, files int) bool {
	return r.EffectiveMode() == output.ModeText && r.IsTTY() && !verbose && files > 1
}

func watchConvert(ctx context.Context, cmdCtx *CommandContext, runnerOpts codemod.Options) error {
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	if err := cfg.ValidateDirectories(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.Success(fmt.Sprintf("Watching %s (Ctrl+C to stop)", cfg.ProjectRoot))
	err := codemod.New(runnerOpts).Watch(ctx, codemod.WatchOptions{
		Root:    cfg.ProjectRoot,
		Include: cfg.Include,
		Exclude: cfg.Exclude,
		OnRun: func(s *codemod.Summary) {
			cmdCtx.RecordRun(ctx, s)
			if err := renderSummary(r, cfg.ProjectRoot, s); err != nil {
				cmdCtx.Logger.Error("failed to render summary", "error", err)
			}
		},
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func renderSummary(r *output.Renderer, root string, s *codemod.Summary) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(s)
	case output.ModeMarkdown:
		renderSummaryMarkdown(r, root, s)
	default:
		renderSummaryText(r, root, s)
	}
	return nil
}

func summaryTitle(s *codemod.Summary) string {
	verb := "Converted"
	if s.DryRun {
		verb = "Would convert"
	}
	return fmt.Sprintf("%s %d elements in %d of %d files", verb, s.Elements(), s.FilesChanged, s.FilesScanned)
}

// sortedTags returns the keys of counts in natural order.
func sortedTags(counts map[string]int) []string {
	tags := make([]string, 0, len(counts))
	for tag := range counts {
		tags = append(tags, tag)
	}
	sort.Sort(natural.StringSlice(tags))
	return tags
}

// relPath shortens path for display.
func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
		return rel
	}
	return path
}

// failureText describes a failure. File level messages already carry
// their location.
func failureText(root string, f codemod.Failure) string {
	if f.Tag == "" {
		return f.Message
	}
	loc := relPath(root, f.Path)
	if f.Line > 0 {
		loc = fmt.Sprintf("%s:%d:%d", loc, f.Line, f.Column)
	}
	return fmt.Sprintf("%s: <%s> %s", loc, f.Tag, f.Message)
}

func renderSummaryText(r *output.Renderer, root string, s *codemod.Summary) {
	styles := r.Styles()

	if s.Elements() == 0 && len(s.Failures) == 0 {
		r.Println(styles.Muted.Render(fmt.Sprintf("Nothing to convert in %d files", s.FilesScanned)))
		return
	}

	r.Success(summaryTitle(s))
	for _, tag := range sortedTags(s.Converted) {
		r.Printf("   %s %d\n", styles.Code.Render("<"+tag+">"), s.Converted[tag])
	}
	for _, path := range s.Changed {
		r.Println(styles.Muted.Render("   " + relPath(root, path)))
	}
	for _, tag := range sortedTags(s.Deferred) {
		r.Warning(fmt.Sprintf("%d nested <%s> elements left for the next run", s.Deferred[tag], tag))
	}
	for _, f := range s.Failures {
		r.Error(failureText(root, f))
	}
	r.Println(styles.Muted.Render(fmt.Sprintf("   run %s in %s", s.RunID, s.Duration.Round(time.Millisecond))))
}

func renderSummaryMarkdown(r *output.Renderer, root string, s *codemod.Summary) {
	r.Println(output.FormatHeader(1, "Conversion Summary"))
	r.Println("")
	r.Println(output.FormatKeyValue("Run", s.RunID))
	r.Println(output.FormatKeyValue("Dry run", s.DryRun))
	r.Println(output.FormatKeyValue("Files scanned", s.FilesScanned))
	r.Println(output.FormatKeyValue("Files changed", s.FilesChanged))
	r.Println(output.FormatKeyValue("Elements converted", s.Elements()))
	r.Println("")

	if len(s.Converted) > 0 {
		r.Println(output.FormatHeader(2, "Elements"))
		r.Println("")
		rows := make([][]any, 0, len(s.Converted))
		for _, tag := range sortedTags(s.Converted) {
			rows = append(rows, []any{tag, s.Converted[tag], s.Deferred[tag]})
		}
		r.Table([]string{"Tag", "Converted", "Deferred"}, rows)
		r.Println("")
	}

	if len(s.Changed) > 0 {
		r.Println(output.FormatHeader(2, "Changed Files"))
		r.Println("")
		for _, path := range s.Changed {
			r.Printf("- `%s`\n", relPath(root, path))
		}
		r.Println("")
	}

	if len(s.Failures) > 0 {
		r.Println(output.FormatHeader(2, "Failures"))
		r.Println("")
		for _, f := range s.Failures {
			r.Printf("- %s\n", failureText(root, f))
		}
		r.Println("")
	}
}
