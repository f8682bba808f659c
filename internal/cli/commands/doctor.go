package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/boxwind/internal/cli/config"
	"github.com/leapstack-labs/boxwind/internal/cli/output"
	"github.com/leapstack-labs/boxwind/internal/codemod"
	"github.com/spf13/cobra"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that a project is ready to convert",
		Long: `Check the configuration and sources of a project before converting it.

The doctor command performs a dry run and reports:
- Project summary (files, pending elements per tag, rule tables)
- Health checks grouped by category (Configuration, Sources, Conversion)
- Health score (0-100)
- Actionable recommendations

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  boxwind doctor

  # Output as JSON
  boxwind doctor --format json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         ProjectSummary `json:"summary"`
	HealthChecks    []HealthCheck  `json:"health_checks"`
	Score           int            `json:"score"`
	Recommendations []string       `json:"recommendations"`
	IssueCount      int            `json:"issue_count"`
}

// ProjectSummary contains project-level statistics.
type ProjectSummary struct {
	Root       string         `json:"root"`
	ConfigFile string         `json:"config_file,omitempty"`
	Files      int            `json:"files"`
	Tables     []string       `json:"tables"`
	Pending    map[string]int `json:"pending"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	RuleID     string   `json:"rule_id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

func newCheck(id, name, group string) *HealthCheck {
	return &HealthCheck{RuleID: id, Name: name, Group: group, Status: "pass"}
}

func (c *HealthCheck) warn(detail string) {
	if c.Status == "pass" {
		c.Status = "warn"
	}
	c.IssueCount++
	c.Details = append(c.Details, detail)
}

func (c *HealthCheck) fail(detail string) {
	c.Status = "error"
	c.IssueCount++
	c.Details = append(c.Details, detail)
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx := NewCommandContext(cmd, opts.Format)
	r := cmdCtx.Renderer

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	doctorOutput, err := diagnose(ctx, cmdCtx)
	if err != nil {
		return err
	}

	// Render based on mode
	effectiveMode := r.EffectiveMode()
	switch effectiveMode {
	case output.ModeJSON:
		return r.JSON(doctorOutput)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, doctorOutput)
	default:
		return renderDoctorText(r, doctorOutput)
	}
}

// diagnose runs every check. Only a cancelled context is returned as an
// error; everything else is reported in the checks.
func diagnose(ctx context.Context, cmdCtx *CommandContext) (*DoctorOutput, error) {
	cfg := cmdCtx.Cfg
	summary := ProjectSummary{
		Root:       cfg.ProjectRoot,
		ConfigFile: config.GetConfigFileUsed(),
		Tables:     []string{},
		Pending:    map[string]int{},
	}

	configFile := newCheck("CF01", "config-file", "configuration")
	if summary.ConfigFile == "" {
		configFile.warn("no " + config.DefaultConfigFile + " found, using defaults")
	}

	projectRoot := newCheck("CF02", "project-root", "configuration")
	if err := cfg.ValidateDirectories(); err != nil {
		projectRoot.fail(err.Error())
	}

	ruleTables := newCheck("CF03", "rule-tables", "configuration")
	tables, err := cmdCtx.RuleSet()
	if err != nil {
		for _, e := range splitErrors(err) {
			ruleTables.fail(e)
		}
	} else {
		summary.Tables = tables.Tags()
	}

	filesMatched := newCheck("SR01", "files-matched", "sources")
	parseable := newCheck("SR02", "files-parse", "sources")
	unmapped := newCheck("SR03", "unmapped-props", "sources")
	elements := newCheck("CV01", "elements-convert", "conversion")
	nested := newCheck("CV02", "nested-elements", "conversion")

	checks := []*HealthCheck{configFile, projectRoot, ruleTables, filesMatched, parseable, unmapped, elements, nested}

	if projectRoot.Status == "pass" && ruleTables.Status == "pass" {
		files, err := cmdCtx.Files(nil, cfg.Include, cfg.Exclude)
		if err != nil {
			filesMatched.fail(err.Error())
		}
		summary.Files = len(files)
		if err == nil && len(files) == 0 {
			filesMatched.warn("no files match " + strings.Join(cfg.Include, ", "))
		}

		if len(files) > 0 {
			runner := codemod.New(codemod.Options{
				Converter:   cmdCtx.Converter(),
				Tables:      tables,
				MergeImport: cfg.Merge.Import,
				NamedImport: cfg.Merge.Named,
				DryRun:      true,
				SkipVerify:  !cfg.Verify,
				Jobs:        cfg.Jobs,
				Logger:      cmdCtx.Logger,
			})
			run, err := runner.Run(ctx, files)
			if err != nil {
				return nil, err
			}
			summary.Pending = run.Converted
			for _, f := range run.Failures {
				if f.Tag == "" {
					parseable.fail(failureText(cfg.ProjectRoot, f))
				} else {
					elements.fail(failureText(cfg.ProjectRoot, f))
				}
			}
			for _, tag := range sortedTags(run.Deferred) {
				nested.warn(fmt.Sprintf("%d nested <%s> elements need a second run", run.Deferred[tag], tag))
			}

			conv := cmdCtx.Converter()
			for _, t := range tables.Tables() {
				counts, _ := codemod.UniqueProps(files, t.Name())
				for _, c := range counts {
					if propHandling(conv, t, c.Name) == "dropped" {
						unmapped.warn(fmt.Sprintf("<%s %s> is dropped (%d uses)", t.Name(), c.Name, c.Count))
					}
				}
			}
		}
	}

	healthChecks := make([]HealthCheck, 0, len(checks))
	issues := 0
	for _, c := range checks {
		healthChecks = append(healthChecks, *c)
		issues += c.IssueCount
	}

	// Sort health checks by group then by rule ID
	sort.SliceStable(healthChecks, func(i, j int) bool {
		if healthChecks[i].Group != healthChecks[j].Group {
			return healthChecks[i].Group < healthChecks[j].Group
		}
		return healthChecks[i].RuleID < healthChecks[j].RuleID
	})

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    healthChecks,
		Score:           calculateHealthScore(healthChecks, summary.Files),
		Recommendations: generateRecommendations(healthChecks),
		IssueCount:      issues,
	}, nil
}

// splitErrors returns the lines of a combined error.
func splitErrors(err error) []string {
	var out []string
	for _, line := range strings.Split(err.Error(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// calculateHealthScore computes a health score from 0-100.
// The scoring weights:
// - Each issue reduces points
// - More files means issues have less individual impact
func calculateHealthScore(checks []HealthCheck, fileCount int) int {
	if len(checks) == 0 {
		return 100
	}

	// Base score starts at 100
	score := 100.0

	// With more files, each individual issue has less impact
	basePenalty := 5.0
	if fileCount > 10 {
		basePenalty = 3.0
	}
	if fileCount > 50 {
		basePenalty = 2.0
	}
	if fileCount > 100 {
		basePenalty = 1.0
	}

	for _, check := range checks {
		switch check.Status {
		case "error":
			score -= float64(check.IssueCount) * basePenalty * 2 // Errors count double
		case "warn":
			score -= float64(check.IssueCount) * basePenalty
		}
	}

	// Clamp to 0-100
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return int(score)
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	seen := make(map[string]bool)

	for _, check := range checks {
		if check.IssueCount == 0 {
			continue
		}

		rec := getRecommendation(check.RuleID)
		if rec != "" && !seen[rec] {
			recommendations = append(recommendations, rec)
			seen[rec] = true
		}
	}

	// Limit to top 5 recommendations
	if len(recommendations) > 5 {
		recommendations = recommendations[:5]
	}

	return recommendations
}

// getRecommendation returns a recommendation for a specific check.
func getRecommendation(ruleID string) string {
	switch ruleID {
	case "CF01":
		return "Create boxwind.yaml in the project root to pin include patterns and the merge helper"
	case "CF02":
		return "Point --project-root at the directory holding your sources"
	case "CF03":
		return "Fix the rule files listed above; run 'boxwind rules' to check them"
	case "SR01":
		return "Adjust include patterns (--glob) so they match your component files"
	case "SR02":
		return "Fix syntax errors in files that do not parse; convert skips them"
	case "SR03":
		return "Add rules for dropped props with --rules-file, or list them in passthrough"
	case "CV01":
		return "Replace dynamic component props with a literal tag before converting"
	case "CV02":
		return "Run convert twice to reach elements nested in converted props"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	// Header
	r.Println("")
	r.Println(styles.Header1.Render("boxwind Project Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	// Project Summary
	r.Println(styles.Header2.Render("Project Summary"))
	r.Printf("   Root: %s\n", out.Summary.Root)
	if out.Summary.ConfigFile != "" {
		r.Printf("   Config: %s\n", out.Summary.ConfigFile)
	}
	r.Printf("   Files: %d | Tables: %s | Pending: %s\n", out.Summary.Files, strings.Join(out.Summary.Tables, ", "), pendingLabel(out.Summary.Pending))
	r.Println("")

	// Health Checks grouped by category
	r.Println(styles.Header2.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "error":
			icon = styles.StatusFailed.String()
		}

		status := fmt.Sprintf("%s %s: %s", icon, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			status += fmt.Sprintf(" (%d issues)", check.IssueCount)
		}
		r.Println("   " + status)

		// Show first 3 details for issues
		for i, detail := range check.Details {
			if i >= 3 {
				r.Println(styles.Muted.Render(fmt.Sprintf("       ... and %d more", len(check.Details)-3)))
				break
			}
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	// Health Score
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	// Recommendations
	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func pendingLabel(pending map[string]int) string {
	if len(pending) == 0 {
		return "none"
	}
	parts := make([]string, 0, len(pending))
	for _, tag := range sortedTags(pending) {
		parts = append(parts, fmt.Sprintf("%d <%s>", pending[tag], tag))
	}
	return strings.Join(parts, ", ")
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# boxwind Project Health Report")
	r.Println("")

	// Project Summary
	r.Println("## Project Summary")
	r.Println("")
	r.Println(output.FormatKeyValue("Root", out.Summary.Root))
	if out.Summary.ConfigFile != "" {
		r.Println(output.FormatKeyValue("Config", out.Summary.ConfigFile))
	}
	r.Println(output.FormatKeyValue("Files", out.Summary.Files))
	r.Println(output.FormatKeyValue("Tables", strings.Join(out.Summary.Tables, ", ")))
	r.Println(output.FormatKeyValue("Pending", pendingLabel(out.Summary.Pending)))
	r.Println("")

	// Health Checks
	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}

		status := "PASS"
		switch check.Status {
		case "warn":
			status = "WARN"
		case "error":
			status = "ERROR"
		}

		r.Printf("- **[%s]** %s: %s", status, check.RuleID, check.Name)
		if check.IssueCount > 0 {
			r.Printf(" (%d issues)", check.IssueCount)
		}
		r.Println("")

		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	// Health Score
	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	// Recommendations
	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
