// Package main provides tests for the boxwind CLI.
package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/boxwind/internal/cli"
	"github.com/leapstack-labs/boxwind/internal/cli/testutil"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := cli.NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	output, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, output, "boxwind v")
}

func TestHelpCommand(t *testing.T) {
	output, err := run(t, "--help")
	require.NoError(t, err)

	for _, expected := range []string{"convert", "props", "analyze", "rules", "doctor", "history", "completion"} {
		assert.Contains(t, output, expected, "help output should list %s", expected)
	}
}

func TestCompletionCommand(t *testing.T) {
	output, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.Contains(t, output, "boxwind")

	_, err = run(t, "completion", "tcsh")
	require.Error(t, err)
}

func TestConvertCommand(t *testing.T) {
	root := testutil.SetupTestProject(t)

	output, err := run(t, "convert", "--project-root", root, "--output", "markdown")
	require.NoError(t, err)
	assert.Contains(t, output, "**Files changed**: 2")

	card := testutil.ReadFile(t, root, "src/components/Card.tsx")
	assert.Contains(t, card, "import cn from '@/utils';")
	assert.NotContains(t, card, "<Box")
}

func TestConvertCommandMergeFlags(t *testing.T) {
	root := testutil.SetupTestProject(t)

	_, err := run(t, "convert",
		"--project-root", root,
		"--merge-func", "clsx",
		"--merge-import", "clsx",
		"--named-import",
		"--tag", "Box",
	)
	require.NoError(t, err)

	card := testutil.ReadFile(t, root, "src/components/Card.tsx")
	assert.Contains(t, card, "import { clsx } from 'clsx';")
	assert.Contains(t, card, `className={clsx("flex", dense ? 'p-1' : 'p-2')}`)
	assert.Contains(t, testutil.ReadFile(t, root, "src/layout/Layout.tsx"), "<Grid container", "only Box is converted")
}

func TestConvertCommandOrganizeImports(t *testing.T) {
	root := testutil.SetupTestProject(t)

	_, err := run(t, "convert", "--project-root", root, "--organize-imports", "--tag", "Grid")
	require.NoError(t, err)

	assert.NotContains(t, testutil.ReadFile(t, root, "src/layout/Layout.tsx"), "@material-ui/core")
	assert.Contains(t, testutil.ReadFile(t, root, "src/components/Card.tsx"), "import { Box } from '@material-ui/core';", "Box was not converted")
}

func TestConvertCommandDryRunJSON(t *testing.T) {
	root := testutil.SetupTestProject(t)

	output, err := run(t, "convert", "--project-root", root, "--dry-run", "-o", "json")
	require.NoError(t, err)

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &summary))
	assert.Equal(t, true, summary["dry_run"])
	assert.EqualValues(t, 2, summary["files_changed"])
	assert.Equal(t, testutil.CardSource, testutil.ReadFile(t, root, "src/components/Card.tsx"))
}

func TestConvertCommandEnv(t *testing.T) {
	root := testutil.SetupTestProject(t)
	t.Setenv("BOXWIND_DRY_RUN", "true")
	t.Setenv("BOXWIND_OUTPUT", "json")

	output, err := run(t, "convert", "--project-root", root)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(output), "{"), "env selects JSON output: %s", output)
	assert.Equal(t, testutil.CardSource, testutil.ReadFile(t, root, "src/components/Card.tsx"))
}

func TestConvertCommandConfigFile(t *testing.T) {
	root := testutil.SetupTestProject(t)
	cfgPath := filepath.Join(root, "boxwind.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("dry_run: true\ninclude:\n  - src/layout/**/*.tsx\n"), 0600))

	output, err := run(t, "convert", "--config", cfgPath, "-o", "json")
	require.NoError(t, err)

	var summary map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &summary))
	assert.EqualValues(t, 1, summary["files_scanned"])
}

func TestConvertCommandInvalidConfig(t *testing.T) {
	root := testutil.SetupTestProject(t)

	_, err := run(t, "convert", "--project-root", root, "--output", "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestRulesCommand(t *testing.T) {
	output, err := run(t, "rules", "Box", "--project-root", t.TempDir(), "-o", "markdown")
	require.NoError(t, err)
	assert.Contains(t, output, "# <Box>")
	assert.Contains(t, output, "bgcolor")
}

func TestDoctorCommand(t *testing.T) {
	root := testutil.SetupTestProject(t)

	output, err := run(t, "doctor", "--project-root", root, "-o", "json")
	require.NoError(t, err)

	var report struct {
		Score int `json:"score"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &report))
	assert.Positive(t, report.Score)
}

func TestHistoryCommand(t *testing.T) {
	root := testutil.SetupTestProject(t)

	_, err := run(t, "convert", "--project-root", root, "--dry-run", "-o", "json")
	require.NoError(t, err)
	_, err = run(t, "convert", "--project-root", root, "--dry-run", "--no-history", "-o", "json")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, ".boxwind", "history.db"))

	output, err := run(t, "history", "--project-root", root, "-o", "json")
	require.NoError(t, err)

	var history struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &history))
	assert.Equal(t, 1, history.Count, "--no-history runs are not recorded")
}
