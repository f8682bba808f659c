package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/boxwind/internal/cli/output"
	"github.com/leapstack-labs/boxwind/pkg/convert"
	"github.com/leapstack-labs/boxwind/pkg/rules"
)

// RulesOptions holds options for the rules command.
type RulesOptions struct {
	Format string // Output format
}

// TableInfo describes a rule table for listings.
type TableInfo struct {
	Tag         string     `json:"tag"`
	Source      string     `json:"source"` // "builtin" or "file"
	BaseClasses []string   `json:"base_classes"`
	Rules       []RuleInfo `json:"rules,omitempty"`
	RuleCount   int        `json:"rule_count"`
}

// RuleInfo is one prop rule of a table.
type RuleInfo struct {
	Prop      string `json:"prop"`
	Transform string `json:"transform"`
}

// NewRulesCommand creates the rules command.
func NewRulesCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "rules [tag]",
		Short: "List the rule tables convert uses",
		Long: `List the rule tables available to convert: the built-in Box and Grid tables
and any table loaded with --rules-file or rules_files in boxwind.yaml.

Given a tag, show every prop rule of its table. A transform is either the
class prefix the prop value is appended to, or "func" for a computed rule.`,
		Example: `  # List all tables
  boxwind rules

  # Show the Grid table
  boxwind rules Grid

  # Include a custom table file
  boxwind rules --rules-file rules/stack.yaml`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return showTable(cmd, args[0], opts)
			}
			return listTables(cmd, opts)
		},
	}

	cmd.Flags().StringSlice("rules-file", nil, "YAML rule table file (repeatable)")
	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, markdown, json")

	return cmd
}

func describeTable(t *convert.RuleTable, withRules bool) TableInfo {
	info := TableInfo{
		Tag:         t.Name(),
		Source:      "file",
		BaseClasses: t.BaseClasses(),
		RuleCount:   t.Len(),
	}
	if info.BaseClasses == nil {
		info.BaseClasses = []string{}
	}
	if builtin, ok := rules.Get(t.Name()); ok && builtin == t {
		info.Source = "builtin"
	}
	if withRules {
		for _, rule := range t.Rules() {
			info.Rules = append(info.Rules, RuleInfo{Prop: rule.Attr, Transform: rule.Transform.String()})
		}
	}
	return info
}

func listTables(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx := NewCommandContext(cmd, opts.Format)
	r := cmdCtx.Renderer

	set, err := cmdCtx.RuleSet()
	if err != nil {
		return err
	}

	tables := make([]TableInfo, 0, set.Len())
	for _, t := range set.Tables() {
		tables = append(tables, describeTable(t, false))
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(map[string]any{"tables": tables, "count": len(tables)})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Rule Tables"))
		r.Println("")
	default:
		r.Println("")
		r.Println(r.Styles().Header1.Render(fmt.Sprintf("Rule Tables (%d)", len(tables))))
		r.Println("")
	}

	rows := make([][]any, 0, len(tables))
	for _, t := range tables {
		rows = append(rows, []any{t.Tag, t.RuleCount, strings.Join(t.BaseClasses, " "), t.Source})
	}
	r.Table([]string{"Tag", "Rules", "Base Classes", "Source"}, rows)

	if r.EffectiveMode() == output.ModeText {
		r.Println("")
		r.Println(r.Styles().Muted.Render("Use 'boxwind rules <tag>' to see a table's rules"))
	}
	return nil
}

func showTable(cmd *cobra.Command, tag string, opts *RulesOptions) error {
	cmdCtx := NewCommandContext(cmd, opts.Format)
	r := cmdCtx.Renderer

	set, err := cmdCtx.RuleSet()
	if err != nil {
		return err
	}
	t, ok := set.Get(tag)
	if !ok {
		return &rules.UnknownTableError{Tag: tag, Available: set.Tags()}
	}
	info := describeTable(t, true)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(info)
	case output.ModeMarkdown:
		r.Printf("# <%s>\n\n", info.Tag)
		r.Println(output.FormatKeyValue("Source", info.Source))
		r.Println(output.FormatKeyValue("Base classes", baseClassesLabel(info.BaseClasses)))
		r.Println("")
	default:
		styles := r.Styles()
		r.Println("")
		r.Println(styles.Header1.Render(fmt.Sprintf("<%s>", info.Tag)))
		r.Printf("  %s: %s\n", styles.Bold.Render("Source"), info.Source)
		r.Printf("  %s: %s\n", styles.Bold.Render("Base classes"), baseClassesLabel(info.BaseClasses))
		r.Println("")
	}

	rows := make([][]any, 0, len(info.Rules))
	for _, rule := range info.Rules {
		rows = append(rows, []any{rule.Prop, rule.Transform})
	}
	r.Table([]string{"Prop", "Transform"}, rows)
	return nil
}

func baseClassesLabel(classes []string) string {
	if len(classes) == 0 {
		return "none"
	}
	return strings.Join(classes, " ")
}
