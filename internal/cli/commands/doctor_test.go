package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/boxwind/internal/cli/output"
	"github.com/leapstack-labs/boxwind/internal/cli/testutil"
)

func TestCalculateHealthScore(t *testing.T) {
	tests := []struct {
		name      string
		checks    []HealthCheck
		fileCount int
		minScore  int
		maxScore  int
	}{
		{
			name:      "no checks returns 100",
			checks:    nil,
			fileCount: 10,
			minScore:  100,
			maxScore:  100,
		},
		{
			name: "all passing returns 100",
			checks: []HealthCheck{
				{RuleID: "CF01", Status: "pass", IssueCount: 0},
				{RuleID: "SR01", Status: "pass", IssueCount: 0},
			},
			fileCount: 10,
			minScore:  100,
			maxScore:  100,
		},
		{
			name: "warnings reduce score",
			checks: []HealthCheck{
				{RuleID: "CF01", Status: "pass", IssueCount: 0},
				{RuleID: "SR03", Status: "warn", IssueCount: 2},
			},
			fileCount: 10,
			minScore:  80,
			maxScore:  95,
		},
		{
			name: "errors reduce score more",
			checks: []HealthCheck{
				{RuleID: "CV01", Status: "error", IssueCount: 2},
			},
			fileCount: 10,
			minScore:  70,
			maxScore:  85,
		},
		{
			name: "more files means less impact per issue",
			checks: []HealthCheck{
				{RuleID: "SR03", Status: "warn", IssueCount: 5},
			},
			fileCount: 200,
			minScore:  90,
			maxScore:  100,
		},
		{
			name: "many issues can reduce to 0",
			checks: []HealthCheck{
				{RuleID: "SR02", Status: "error", IssueCount: 20},
				{RuleID: "CV01", Status: "error", IssueCount: 20},
			},
			fileCount: 5,
			minScore:  0,
			maxScore:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score := calculateHealthScore(tt.checks, tt.fileCount)
			assert.GreaterOrEqual(t, score, tt.minScore, "score should be >= %d", tt.minScore)
			assert.LessOrEqual(t, score, tt.maxScore, "score should be <= %d", tt.maxScore)
		})
	}
}

func TestGetRecommendation(t *testing.T) {
	tests := []struct {
		ruleID   string
		expected bool // whether a recommendation is returned
	}{
		{"CF01", true},
		{"CF02", true},
		{"CF03", true},
		{"SR01", true},
		{"SR02", true},
		{"SR03", true},
		{"CV01", true},
		{"CV02", true},
		{"UNKNOWN", false},
	}

	for _, tt := range tests {
		t.Run(tt.ruleID, func(t *testing.T) {
			rec := getRecommendation(tt.ruleID)
			if tt.expected {
				assert.NotEmpty(t, rec, "expected recommendation for %s", tt.ruleID)
			} else {
				assert.Empty(t, rec, "expected no recommendation for %s", tt.ruleID)
			}
		})
	}
}

func TestGenerateRecommendations(t *testing.T) {
	checks := []HealthCheck{
		{RuleID: "CF01", Status: "warn", IssueCount: 1},
		{RuleID: "SR03", Status: "warn", IssueCount: 2},
		{RuleID: "CV01", Status: "pass", IssueCount: 0},
	}

	recommendations := generateRecommendations(checks)

	assert.Len(t, recommendations, 2)
	assert.Contains(t, recommendations[0], "boxwind.yaml")
	assert.Contains(t, recommendations[1], "passthrough")
}

func TestGenerateRecommendations_LimitTo5(t *testing.T) {
	ids := []string{"CF01", "CF02", "CF03", "SR01", "SR02", "SR03", "CV01", "CV02"}
	checks := make([]HealthCheck, len(ids))
	for i, id := range ids {
		checks[i] = HealthCheck{RuleID: id, Status: "warn", IssueCount: 1}
	}

	assert.Len(t, generateRecommendations(checks), 5)
}

func TestHealthCheck_Status(t *testing.T) {
	c := newCheck("SR03", "unmapped-props", "sources")
	assert.Equal(t, "pass", c.Status)

	c.warn("first")
	assert.Equal(t, "warn", c.Status)

	c.fail("second")
	c.warn("third")
	assert.Equal(t, "error", c.Status, "a warning never downgrades an error")
	assert.Equal(t, 3, c.IssueCount)
	assert.Equal(t, []string{"first", "second", "third"}, c.Details)
}

func findCheck(t *testing.T, out *DoctorOutput, id string) HealthCheck {
	t.Helper()
	for _, c := range out.HealthChecks {
		if c.RuleID == id {
			return c
		}
	}
	t.Fatalf("check %s not found", id)
	return HealthCheck{}
}

func TestDiagnose(t *testing.T) {
	root := testutil.SetupTestProject(t)
	cfg := loadProject(t, root)
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "Broken.tsx"), []byte("const A = () => <Box p={1};\n"), 0600))

	cmdCtx := &CommandContext{Cfg: cfg, Logger: slog.New(slog.DiscardHandler)}
	out, err := diagnose(context.Background(), cmdCtx)
	require.NoError(t, err)

	assert.Equal(t, root, out.Summary.Root)
	assert.Equal(t, filepath.Join(root, "boxwind.yaml"), out.Summary.ConfigFile)
	assert.Equal(t, 4, out.Summary.Files)
	assert.Equal(t, []string{"Box", "Grid"}, out.Summary.Tables)
	assert.Equal(t, map[string]int{"Box": 2, "Grid": 2}, out.Summary.Pending)

	assert.Equal(t, "pass", findCheck(t, out, "CF01").Status)
	assert.Equal(t, "error", findCheck(t, out, "SR02").Status)
	unmapped := findCheck(t, out, "SR03")
	assert.Equal(t, "warn", unmapped.Status)
	assert.Contains(t, unmapped.Details, "<Grid elevation> is dropped (1 uses)")

	assert.Less(t, out.Score, 100)
	assert.NotEmpty(t, out.Recommendations)

	// Dry run leaves sources untouched.
	assert.Equal(t, testutil.CardSource, testutil.ReadFile(t, root, "src/components/Card.tsx"))
}

func TestDiagnose_MissingRoot(t *testing.T) {
	cfg := loadProject(t, t.TempDir())
	cfg.ProjectRoot = filepath.Join(cfg.ProjectRoot, "missing")

	out, err := diagnose(context.Background(), &CommandContext{Cfg: cfg, Logger: slog.New(slog.DiscardHandler)})
	require.NoError(t, err)

	assert.Equal(t, "warn", findCheck(t, out, "CF01").Status)
	assert.Equal(t, "error", findCheck(t, out, "CF02").Status)
	assert.Equal(t, "pass", findCheck(t, out, "SR01").Status, "source checks are skipped")
}

func TestDoctorCommand_Output(t *testing.T) {
	tests := []struct {
		format string
		check  func(t *testing.T, out string)
	}{
		{
			format: "json",
			check: func(t *testing.T, out string) {
				var got DoctorOutput
				require.NoError(t, json.Unmarshal([]byte(out), &got))
				assert.Len(t, got.HealthChecks, 8)
			},
		},
		{
			format: "markdown",
			check: func(t *testing.T, out string) {
				testutil.AssertValidMarkdown(t, out)
				assert.Contains(t, out, "# boxwind Project Health Report")
				assert.Contains(t, out, "### Configuration")
				assert.Contains(t, out, "### Sources")
			},
		},
		{
			format: "text",
			check: func(t *testing.T, out string) {
				testutil.AssertNoANSI(t, out)
				assert.Contains(t, out, "Health Score:")
				assert.Contains(t, out, "Conversion")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			root := testutil.SetupTestProject(t)
			loadProject(t, root)

			out, _, err := execute(NewDoctorCommand(), "--format", tt.format)
			require.NoError(t, err)
			tt.check(t, out)
		})
	}
}

func TestShowProgress(t *testing.T) {
	tty := testutil.NewTestRenderer(output.ModeText, true)
	piped := testutil.NewTestRenderer(output.ModeAuto, false)

	assert.True(t, showProgress(tty.Renderer, false, 10))
	assert.False(t, showProgress(tty.Renderer, true, 10), "verbose logs would interleave with the bar")
	assert.False(t, showProgress(tty.Renderer, false, 1))
	assert.False(t, showProgress(piped.Renderer, false, 10))
}
