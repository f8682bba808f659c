package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/leapstack-labs/boxwind/internal/cli/output"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		return err
	}
	if c.Jobs < 0 {
		return fmt.Errorf("jobs must not be negative, got %d", c.Jobs)
	}
	if !identPattern.MatchString(c.Merge.Func) {
		return fmt.Errorf("merge.func %q is not a valid identifier", c.Merge.Func)
	}
	if c.Merge.Import == "" {
		return fmt.Errorf("merge.import is required")
	}
	if len(c.Include) == 0 {
		return fmt.Errorf("include needs at least one pattern")
	}
	return nil
}

// ValidateDirectories checks that the project root exists.
func (c *Config) ValidateDirectories() error {
	info, err := os.Stat(c.ProjectRoot)
	if os.IsNotExist(err) {
		return fmt.Errorf("project root does not exist: %s\nHint: use --project-root to point at your project", c.ProjectRoot)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("project root is not a directory: %s", c.ProjectRoot)
	}
	return nil
}
