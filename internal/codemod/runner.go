// Package codemod applies rule tables to TSX files on disk.
package codemod

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/boxwind/pkg/convert"
	"github.com/leapstack-labs/boxwind/pkg/jsx"
	"github.com/leapstack-labs/boxwind/pkg/rules"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// DefaultMergeImport is the module the merge helper is imported from.
const DefaultMergeImport = "@/utils"

// Options configures a Runner. Zero values select the defaults.
type Options struct {
	Converter *convert.Converter
	Tables    *rules.Set
	// MergeImport is the module providing the merge helper.
	MergeImport string
	// NamedImport imports the merge helper as a named import instead of
	// the default export.
	NamedImport bool
	// OrganizeImports removes the import specifiers of converted tags that
	// the file no longer references.
	OrganizeImports bool
	DryRun          bool
	SkipVerify      bool
	Jobs            int
	Logger          *slog.Logger
	// OnFileDone is called after each file of a Run, from the worker that
	// processed it.
	OnFileDone func(path string)
}

// Runner converts files. It is safe for concurrent use.
type Runner struct {
	conv        *convert.Converter
	tables      *rules.Set
	mergeImport string
	namedImport bool
	organize    bool
	dryRun      bool
	verify      bool
	jobs        int
	logger      *slog.Logger
	onFileDone  func(string)
}

// New creates a Runner.
func New(opts Options) *Runner {
	r := &Runner{
		conv:        opts.Converter,
		tables:      opts.Tables,
		mergeImport: opts.MergeImport,
		namedImport: opts.NamedImport,
		organize:    opts.OrganizeImports,
		dryRun:      opts.DryRun,
		verify:      !opts.SkipVerify,
		jobs:        opts.Jobs,
		logger:      opts.Logger,
		onFileDone:  opts.OnFileDone,
	}
	if r.conv == nil {
		r.conv = convert.New(convert.Options{})
	}
	if r.tables == nil {
		r.tables = rules.Builtin()
	}
	if r.mergeImport == "" {
		r.mergeImport = DefaultMergeImport
	}
	if r.jobs <= 0 {
		r.jobs = runtime.GOMAXPROCS(0)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	return r
}

// ElementError is a single element that could not be converted. The element
// is left as it was.
type ElementError struct {
	Path string
	Tag  string
	Pos  jsx.Position
	Err  error
}

func (e *ElementError) Error() string {
	return fmt.Sprintf("%s:%d:%d: <%s>: %v", e.Path, e.Pos.Line, e.Pos.Column, e.Tag, e.Err)
}

func (e *ElementError) Unwrap() error { return e.Err }

// FileResult is the outcome of converting one file.
type FileResult struct {
	Path   string
	Source string
	// Output is the rewritten source; it equals Source when nothing changed.
	Output string
	// Converted counts rewritten elements per tag.
	Converted map[string]int
	// Deferred counts elements nested in another element's rewritten tag.
	// They are left for the next run.
	Deferred    map[string]int
	Errors      []*ElementError
	ImportAdded bool
	// ImportsRemoved lists the specifiers dropped by import organizing.
	ImportsRemoved []string
}

// Changed reports whether the file would be rewritten.
func (f *FileResult) Changed() bool { return f.Output != f.Source }

// Elements returns the number of converted elements.
func (f *FileResult) Elements() int {
	n := 0
	for _, c := range f.Converted {
		n += c
	}
	return n
}

// ConvertFile converts every element with a rule table in src. Elements
// that fail are reported in the result and left untouched. An error is
// returned when the file cannot be parsed, the merge import cannot be added,
// or the rewritten text fails verification.
func (r *Runner) ConvertFile(ctx context.Context, path, src string) (*FileResult, error) {
	doc, err := jsx.Parse(path, src)
	if err != nil {
		return nil, err
	}

	res := &FileResult{
		Path:      path,
		Source:    src,
		Output:    src,
		Converted: make(map[string]int),
		Deferred:  make(map[string]int),
	}

	var (
		batch      jsx.Batch
		needsMerge bool
		logger     = r.logger.With("file", path)
		mergeFunc  = r.conv.MergeFunc()
	)
	for _, table := range r.tables.Tables() {
		tag := table.Name()
		for _, node := range doc.Elements(tag) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			pos := doc.Position(node.Open.Start)

			out, err := r.conv.Convert(&node.Element, table)
			if err != nil {
				res.Errors = append(res.Errors, &ElementError{Path: path, Tag: tag, Pos: pos, Err: err})
				logger.Warn("element left unconverted", "tag", tag, "line", pos.Line, "error", err)
				continue
			}
			if !batch.Add(jsx.Swap(node, out.OpeningTag(), out.ClosingTag())...) {
				res.Deferred[tag]++
				logger.Debug("nested element deferred to next run", "tag", tag, "line", pos.Line)
				continue
			}
			for _, name := range out.Dropped {
				logger.Debug("attribute dropped", "tag", tag, "line", pos.Line, "attr", name)
			}
			res.Converted[tag]++
			needsMerge = needsMerge || out.UsesMergeFunc
		}
	}
	if batch.Len() == 0 {
		return res, nil
	}

	text, err := batch.Apply(src)
	if err != nil {
		return nil, fmt.Errorf("failed to rewrite %s: %w", path, err)
	}
	if needsMerge {
		withImport, err := jsx.AddImport(text, r.mergeImport, mergeFunc, !r.namedImport)
		if err != nil {
			return nil, fmt.Errorf("failed to import %s in %s: %w", mergeFunc, path, err)
		}
		res.ImportAdded = withImport != text
		text = withImport
	}
	if r.organize && len(res.Converted) > 0 {
		tags := make([]string, 0, len(res.Converted))
		for tag := range res.Converted {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		text, res.ImportsRemoved = jsx.RemoveUnusedImports(text, tags)
		if len(res.ImportsRemoved) > 0 {
			logger.Debug("unused imports removed", "names", res.ImportsRemoved)
		}
	}
	if r.verify {
		if err := Verify(path, text); err != nil {
			return nil, err
		}
	}

	res.Output = text
	return res, nil
}

// Failure is a file or element that could not be converted.
type Failure struct {
	Path    string `json:"path"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (f Failure) Error() string { return f.Err.Error() }

// Summary aggregates a Run.
type Summary struct {
	RunID        string         `json:"run_id"`
	StartedAt    time.Time      `json:"started_at"`
	DryRun       bool           `json:"dry_run"`
	FilesScanned int            `json:"files_scanned"`
	FilesChanged int            `json:"files_changed"`
	Changed      []string       `json:"changed,omitempty"`
	Converted    map[string]int `json:"converted"`
	Deferred     map[string]int `json:"deferred,omitempty"`
	Failures     []Failure      `json:"failures,omitempty"`
	Duration     time.Duration  `json:"duration_ns"`
}

// Elements returns the total number of converted elements.
func (s *Summary) Elements() int {
	n := 0
	for _, c := range s.Converted {
		n += c
	}
	return n
}

// Err combines every failure, or returns nil.
func (s *Summary) Err() error {
	var err error
	for _, f := range s.Failures {
		err = multierr.Append(err, f)
	}
	return err
}

func (s *Summary) add(res *FileResult, written bool) {
	for tag, n := range res.Converted {
		s.Converted[tag] += n
	}
	for tag, n := range res.Deferred {
		s.Deferred[tag] += n
	}
	for _, e := range res.Errors {
		s.Failures = append(s.Failures, Failure{
			Path:    e.Path,
			Line:    e.Pos.Line,
			Column:  e.Pos.Column,
			Tag:     e.Tag,
			Message: e.Err.Error(),
			Err:     e,
		})
	}
	if written {
		s.FilesChanged++
		s.Changed = append(s.Changed, res.Path)
	}
}

func (s *Summary) fail(path string, err error) {
	f := Failure{Path: path, Message: err.Error(), Err: err}
	var perr *jsx.ParseError
	if errors.As(err, &perr) {
		f.Line, f.Column = perr.Pos.Line, perr.Pos.Column
	}
	s.Failures = append(s.Failures, f)
}

// Run converts paths in parallel and writes the changed files unless the
// runner is in dry-run mode. Per-file failures are collected in the
// summary; the returned error is only set when ctx is cancelled.
func (r *Runner) Run(ctx context.Context, paths []string) (*Summary, error) {
	start := time.Now()
	runID := uuid.New().String()
	logger := r.logger.With("run_id", runID)
	logger.Info("conversion started", "files", len(paths), "jobs", r.jobs, "tables", r.tables.Tags(), "dry_run", r.dryRun)

	type outcome struct {
		res     *FileResult
		written bool
		err     error
	}
	outcomes := make([]outcome, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, written, err := r.processFile(gctx, path)
			outcomes[i] = outcome{res: res, written: written, err: err}
			if r.onFileDone != nil {
				r.onFileDone(path)
			}
			if err != nil {
				logger.Error("file failed", "file", path, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum := &Summary{
		RunID:        runID,
		StartedAt:    start,
		DryRun:       r.dryRun,
		FilesScanned: len(paths),
		Converted:    make(map[string]int),
		Deferred:     make(map[string]int),
	}
	for i, o := range outcomes {
		if o.err != nil {
			sum.fail(paths[i], o.err)
			continue
		}
		sum.add(o.res, o.written)
	}
	sort.Strings(sum.Changed)
	sum.Duration = time.Since(start)

	logger.Info("conversion finished",
		"elements", sum.Elements(),
		"files_changed", sum.FilesChanged,
		"failures", len(sum.Failures),
		"duration", sum.Duration)
	return sum, nil
}

// processFile converts one file and writes it back. written reports whether
// the file changed (or would have, in dry-run mode).
func (r *Runner) processFile(ctx context.Context, path string) (*FileResult, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	data, err := os.ReadFile(path) //nolint:gosec // G304: paths come from discovery or the command line
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	res, err := r.ConvertFile(ctx, path, string(data))
	if err != nil {
		return nil, false, err
	}
	if !res.Changed() {
		return res, false, nil
	}
	if r.dryRun {
		return res, true, nil
	}
	if err := os.WriteFile(path, []byte(res.Output), info.Mode().Perm()); err != nil {
		return nil, false, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return res, true, nil
}
