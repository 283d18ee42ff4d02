package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/dqstudio/internal/catalog"
	"github.com/leapstack-labs/dqstudio/internal/cli/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// RulesOptions holds options shared by the rules subcommands.
type RulesOptions struct {
	Table string // Filter by table, empty for all
	All   bool
	File  string
}

// NewRulesCommand creates the rules command and its subcommands.
func NewRulesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Manage saved rules",
		Long: `List, delete and export the rules saved in the catalog.

By default only rules of the current dataset's table are shown.`,
		Args: cobra.NoArgs,
	}

	cmd.AddCommand(newRulesListCommand())
	cmd.AddCommand(newRulesDeleteCommand())
	cmd.AddCommand(newRulesExportCommand())

	return cmd
}

func addTableFlags(cmd *cobra.Command, opts *RulesOptions) {
	cmd.Flags().StringVar(&opts.Table, "for-table", "", "Only rules of this table (default: the dataset's table)")
	cmd.Flags().BoolVar(&opts.All, "all", false, "Rules of every table")
}

func newRulesListCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved rules",
		Example: `  dqstudio rules list
  dqstudio rules list --all --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRulesList(cmd, opts)
		},
	}
	addTableFlags(cmd, opts)
	return cmd
}

func newRulesDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete saved rules",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRulesDelete(cmd, args)
		},
	}
}

func newRulesExportCommand() *cobra.Command {
	opts := &RulesOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export saved rules as YAML",
		Example: `  dqstudio rules export > rules.yaml
  dqstudio rules export --all --file all-rules.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRulesExport(cmd, opts)
		},
	}
	addTableFlags(cmd, opts)
	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "Write to this file instead of stdout")
	return cmd
}

// tableFilter resolves which table's rules a command works on.
func tableFilter(cmdCtx *CommandContext, opts *RulesOptions) (string, error) {
	if opts.All {
		return "", nil
	}
	if opts.Table != "" {
		return opts.Table, nil
	}
	tbl, err := loadTable(cmdCtx.Cfg)
	if err != nil {
		return "", fmt.Errorf("failed to load dataset: %w", err)
	}
	return tbl.Name(), nil
}

func listRules(cmd *cobra.Command, cmdCtx *CommandContext, opts *RulesOptions) (string, []catalog.Rule, error) {
	tableName, err := tableFilter(cmdCtx, opts)
	if err != nil {
		return "", nil, err
	}
	store, err := requireCatalog(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return "", nil, err
	}
	defer func() { _ = store.Close() }()

	list, err := store.List(cmd.Context(), tableName)
	if err != nil {
		return "", nil, err
	}
	return tableName, list, nil
}

func runRulesList(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	tableName, list, err := listRules(cmd, cmdCtx, opts)
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		out := output.RulesOutput{Table: tableName, Rules: make([]output.RuleInfo, len(list))}
		for i, rule := range list {
			out.Rules[i] = ruleInfo(rule)
		}
		return r.JSON(out)
	case output.ModeMarkdown:
		renderRulesMarkdown(r, tableName, list)
	default:
		renderRulesText(r, tableName, list)
	}
	return nil
}

func ruleInfo(rule catalog.Rule) output.RuleInfo {
	return output.RuleInfo{
		ID:        rule.ID,
		Table:     rule.TableName,
		Column:    rule.ColumnName,
		Rule:      rule.RuleText,
		SQL:       rule.SQL,
		Severity:  string(rule.Severity),
		PassRate:  rule.PassRate,
		CreatedAt: rule.CreatedAt,
	}
}

func rulesTitle(tableName string) string {
	if tableName == "" {
		return "Saved rules"
	}
	return "Saved rules for " + tableName
}

func renderRulesText(r *output.Renderer, tableName string, list []catalog.Rule) {
	r.Header(1, rulesTitle(tableName))
	if len(list) == 0 {
		r.Muted("No rules saved yet.")
		return
	}

	styles := r.Styles()
	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Table", "Column", "Rule", "Severity", "Pass rate"})
	for _, rule := range list {
		t.AppendRow(table.Row{
			rule.ID,
			rule.TableName,
			rule.ColumnName,
			rule.RuleText,
			styles.SeverityStyle(string(rule.Severity)).Render(rule.Severity.Label()),
			strconv.Itoa(rule.PassRate) + "%",
		})
	}
	t.Render()
	r.Printf("(%d rules)\n", len(list))
}

func renderRulesMarkdown(r *output.Renderer, tableName string, list []catalog.Rule) {
	r.Println(output.FormatHeader(1, rulesTitle(tableName)))
	r.Println("")
	if len(list) == 0 {
		r.Println("No rules saved yet.")
		return
	}
	for _, rule := range list {
		r.Println(output.FormatHeader(2, fmt.Sprintf("%s: %s", rule.ColumnName, rule.RuleText)))
		r.Println("")
		r.Println(output.FormatKeyValue("ID", rule.ID))
		r.Println(output.FormatKeyValue("Table", rule.TableName))
		r.Println(output.FormatKeyValue("Severity", rule.Severity.Label()))
		r.Println(output.FormatKeyValue("Pass rate", strconv.Itoa(rule.PassRate)+"%"))
		r.Println(output.FormatKeyValue("Created", rule.CreatedAt.Format(time.RFC3339)))
		r.Println("")
		r.Println(output.FormatCodeBlock("sql", rule.SQL))
		r.Println("")
	}
}

func runRulesDelete(cmd *cobra.Command, ids []string) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	store, err := requireCatalog(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var missing []string
	for _, id := range ids {
		err := store.Delete(cmd.Context(), id)
		switch {
		case errors.Is(err, catalog.ErrNotFound):
			missing = append(missing, id)
		case err != nil:
			return fmt.Errorf("failed to delete rule %s: %w", id, err)
		default:
			r.Success("Deleted rule " + id)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %v", catalog.ErrNotFound, missing)
	}
	return nil
}

// ruleExport is the YAML document written by rules export.
type ruleExport struct {
	Table string         `yaml:"table,omitempty"`
	Rules []catalog.Rule `yaml:"rules"`
}

func runRulesExport(cmd *cobra.Command, opts *RulesOptions) error {
	cmdCtx := NewCommandContext(cmd)

	tableName, list, err := listRules(cmd, cmdCtx, opts)
	if err != nil {
		return err
	}
	if list == nil {
		list = []catalog.Rule{}
	}

	var w io.Writer = cmdCtx.Renderer.Writer()
	if opts.File != "" {
		f, err := os.Create(opts.File)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(ruleExport{Table: tableName, Rules: list}); err != nil {
		return fmt.Errorf("failed to write rules: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}

	if opts.File != "" {
		cmdCtx.Renderer.Success(fmt.Sprintf("Exported %d rules to %s", len(list), opts.File))
	}
	return nil
}
