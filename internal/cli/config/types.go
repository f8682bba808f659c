// Package config provides configuration management for the boxwind CLI.
//
// Settings come from defaults, a boxwind.yaml file, BOXWIND_ environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"github.com/leapstack-labs/boxwind/internal/codemod"
	"github.com/leapstack-labs/boxwind/pkg/convert"
)

// MergeConfig describes the runtime helper that merges class expressions.
type MergeConfig struct {
	Func   string `koanf:"func"`
	Import string `koanf:"import"`
	Named  bool   `koanf:"named"`
}

// Config holds all CLI configuration options.
type Config struct {
	ProjectRoot  string      `koanf:"project_root"`
	Include      []string    `koanf:"include"`
	Exclude      []string    `koanf:"exclude"`
	Jobs         int         `koanf:"jobs"`
	DryRun       bool        `koanf:"dry_run"`
	Verify       bool        `koanf:"verify"`
	Verbose      bool        `koanf:"verbose"`
	OutputFormat string      `koanf:"output"`
	Tags         []string    `koanf:"tags"`
	RulesFiles   []string    `koanf:"rules_files"`
	DefaultTag   string      `koanf:"default_tag"`
	Passthrough  []string    `koanf:"passthrough"`
	Merge        MergeConfig `koanf:"merge"`
	History      bool        `koanf:"history"`
	HistoryPath  string      `koanf:"history_path"`
	// OrganizeImports removes imports of converted tags left unused.
	OrganizeImports bool `koanf:"organize_imports"`
}

// Default configuration values.
const (
	DefaultConfigFile = "boxwind.yaml"
	DefaultOutput     = "auto" // Auto-detect: TTY=text, non-TTY=markdown
	DefaultHistory    = ".boxwind/history.db"
	EnvPrefix         = "BOXWIND_"
)

// configFileNames are searched in order in each candidate directory.
var configFileNames = []string{DefaultConfigFile, "boxwind.yml"}

func defaults() map[string]any {
	return map[string]any{
		"include":          codemod.DefaultInclude,
		"exclude":          codemod.DefaultExclude,
		"jobs":             0,
		"dry_run":          false,
		"verify":           true,
		"verbose":          false,
		"output":           DefaultOutput,
		"tags":             []string{},
		"rules_files":      []string{},
		"default_tag":      convert.DefaultTag,
		"passthrough":      []string{},
		"merge.func":       convert.DefaultMergeFunc,
		"merge.import":     codemod.DefaultMergeImport,
		"merge.named":      false,
		"history":          true,
		"history_path":     DefaultHistory,
		"organize_imports": false,
	}
}

// Default returns the configuration used when nothing was loaded.
func Default() *Config {
	return &Config{
		Include:      append([]string(nil), codemod.DefaultInclude...),
		Exclude:      append([]string(nil), codemod.DefaultExclude...),
		Verify:       true,
		OutputFormat: DefaultOutput,
		DefaultTag:   convert.DefaultTag,
		Merge: MergeConfig{
			Func:   convert.DefaultMergeFunc,
			Import: codemod.DefaultMergeImport,
		},
		History:     true,
		HistoryPath: DefaultHistory,
	}
}
