package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/boxwind/internal/cli/config"
	"github.com/leapstack-labs/boxwind/internal/cli/output"
	"github.com/leapstack-labs/boxwind/internal/codemod"
	"github.com/leapstack-labs/boxwind/internal/state"
	"github.com/leapstack-labs/boxwind/pkg/convert"
	"github.com/leapstack-labs/boxwind/pkg/rules"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext. A non-empty format overrides
// the configured output mode.
func NewCommandContext(cmd *cobra.Command, format string) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	if format != "" {
		mode = output.Mode(format)
	}
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the loaded configuration, or the defaults when the
// command runs without the root (tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// RuleSet builds the tables for a run: the built-in tables, then tables
// from the configured rule files, restricted to the configured tags.
func (c *CommandContext) RuleSet() (*rules.Set, error) {
	set := rules.Builtin()
	if len(c.Cfg.RulesFiles) > 0 {
		tables, err := rules.LoadFiles(c.Cfg.RulesFiles...)
		if err != nil {
			return nil, err
		}
		for _, t := range tables {
			if set.Put(t) {
				c.Logger.Debug("rule table replaces built-in", "tag", t.Name())
			}
		}
	}
	return set.Only(c.Cfg.Tags)
}

// Converter builds the element converter from the configuration.
func (c *CommandContext) Converter() *convert.Converter {
	return convert.New(convert.Options{
		MergeFunc:   c.Cfg.Merge.Func,
		DefaultTag:  c.Cfg.DefaultTag,
		Passthrough: c.Cfg.Passthrough,
	})
}

// OutsideInclude selects files in directory arguments that lie outside the
// project root.
var OutsideInclude = []string{"**/*.tsx"}

// Files resolves command arguments into source files. Directories are
// searched with the include and exclude patterns, matched relative to the
// project root, and files are taken as given. Without arguments the project
// root is searched.
func (c *CommandContext) Files(args []string, include, exclude []string) ([]string, error) {
	if len(args) == 0 {
		if err := c.Cfg.ValidateDirectories(); err != nil {
			return nil, err
		}
		return codemod.Discover(c.Cfg.ProjectRoot, include, exclude)
	}

	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}
		if !info.IsDir() {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return nil, err
			}
			files = append(files, abs)
			continue
		}
		dir, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}
		var found []string
		if codemod.Within(c.Cfg.ProjectRoot, dir) {
			found, err = codemod.DiscoverUnder(c.Cfg.ProjectRoot, dir, include, exclude)
		} else {
			// Project patterns are relative to the root and cannot apply here.
			found, err = codemod.Discover(dir, OutsideInclude, exclude)
		}
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

// RecordRun stores a finished run in the project history. History problems
// are logged and never fail the command.
func (c *CommandContext) RecordRun(ctx context.Context, s *codemod.Summary) {
	if !c.Cfg.History || s == nil {
		return
	}
	store, err := state.Open(ctx, c.Cfg.HistoryPath, c.Logger)
	if err != nil {
		c.Logger.Warn("run history unavailable", "path", c.Cfg.HistoryPath, "error", err)
		return
	}
	defer func() { _ = store.Close() }()

	if err := store.Record(ctx, c.Cfg.ProjectRoot, s); err != nil {
		c.Logger.Warn("failed to record run", "run_id", s.RunID, "error", err)
	}
}
