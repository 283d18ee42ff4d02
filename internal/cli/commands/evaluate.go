package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/dqstudio/internal/catalog"
	"github.com/leapstack-labs/dqstudio/internal/cli/output"
	"github.com/leapstack-labs/dqstudio/internal/rules"
	"github.com/leapstack-labs/dqstudio/internal/workspace"
	"github.com/spf13/cobra"
)

// EvaluateOptions holds options for the evaluate command.
type EvaluateOptions struct {
	Suggest  bool
	Save     bool
	Severity string
}

// NewEvaluateCommand creates the evaluate command.
func NewEvaluateCommand() *cobra.Command {
	opts := &EvaluateOptions{}
	cmd := &cobra.Command{
		Use:   "evaluate <column> <rule>",
		Short: "Compute the pass rate of a rule on one column",
		Long: `Evaluate a rule against the dataset. A row passes when its value in the
column contains the rule text, ignoring case. The pass rate is the rounded
percentage of passing rows.

With --suggest the rule text is first sent to the suggestion service and the
reply is shown as the rule's SQL. With --save the rule is added to the
catalog.`,
		Example: `  # 55% of the sample rows contain "a-1"
  dqstudio evaluate "Column A" a-1

  # Ask for SQL and save the rule as a warning
  dqstudio evaluate "Column A" "values start with a-" --suggest --save --severity warn`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, args[0], strings.Join(args[1:], " "), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Suggest, "suggest", false, "Ask the suggestion service for SQL first")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "Save the rule to the catalog")
	cmd.Flags().StringVar(&opts.Severity, "severity", string(rules.SeverityInfo), "Severity to save the rule with (error|info|warn)")

	_ = cmd.RegisterFlagCompletionFunc("severity", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		out := make([]string, len(rules.Severities))
		for i, s := range rules.Severities {
			out[i] = string(s)
		}
		return out, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runEvaluate(cmd *cobra.Command, column, ruleText string, opts *EvaluateOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	logger := cmdCtx.Logger
	r := cmdCtx.Renderer
	ctx := cmd.Context()

	severity, err := rules.ParseSeverity(opts.Severity)
	if err != nil {
		return err
	}

	tbl, err := loadTable(cfg)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	wsCfg := workspace.Config{
		Table:         tbl,
		Completer:     newCompleter(cfg, logger),
		ResetOnSelect: true,
		Logger:        logger,
	}
	if opts.Save {
		store, err := requireCatalog(cfg, logger)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		wsCfg.Saver = store
	}

	ws := workspace.New(wsCfg)
	defer ws.Close()

	if err := ws.SelectColumn(column); err != nil {
		return err
	}
	ws.SetRuleText(ruleText)
	// severity only matters for a saved rule; blank text still evaluates to 0%
	if opts.Save || strings.TrimSpace(ruleText) != "" {
		if err := ws.SetSeverity(severity); err != nil {
			return err
		}
	}

	if opts.Suggest {
		if err := ws.RequestSuggestion(ctx); err != nil {
			return err
		}
	}
	res := ws.Evaluate()
	st := ws.State()

	var saved *catalog.Rule
	if opts.Save {
		if saved, err = ws.Submit(ctx); err != nil {
			return err
		}
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(output.EvaluateOutput{
			Table:    tbl.Name(),
			Column:   st.Column,
			Rule:     st.RuleText,
			Matched:  res.Matched,
			Total:    res.Total,
			PassRate: res.PassRate,
			SQL:      st.SQL,
		})
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, fmt.Sprintf("Rule creation for %s", st.Column)))
		r.Println("")
		r.Println(output.FormatKeyValue("Rule", st.RuleText))
		r.Println(output.FormatKeyValue("Matched", fmt.Sprintf("%d of %d rows", res.Matched, res.Total)))
		r.Println(output.FormatKeyValue("Pass rate", strconv.Itoa(res.PassRate)+"%"))
		r.Println("")
		r.Println(output.FormatCodeBlock("sql", st.SQL))
	default:
		styles := r.Styles()
		r.Println(styles.Bold.Render("Rule creation for " + styles.Column.Render(st.Column)))
		r.Printf("Rule:      %s\n", st.RuleText)
		r.Printf("Matched:   %d of %d rows\n", res.Matched, res.Total)
		r.Printf("Pass rate: %s\n", styles.PassRate.Render(strconv.Itoa(res.PassRate)+"%"))
		r.Println("")
		r.Println(st.SQL)
	}

	if saved != nil {
		r.Println("")
		r.Success(fmt.Sprintf("Saved rule %s (%s)", saved.ID, saved.Severity))
	}
	return nil
}
