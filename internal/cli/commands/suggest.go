package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/dqstudio/internal/cli/output"
	"github.com/leapstack-labs/dqstudio/internal/suggest"
	"github.com/leapstack-labs/dqstudio/internal/workspace"
	"github.com/spf13/cobra"
)

// NewSuggestCommand creates the suggest command.
func NewSuggestCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "suggest <column> <rule>",
		Short: "Ask the suggestion service for SQL implementing a rule",
		Long: `Send a rule description for one column to the suggestion service and print
the SQL it replies with.

The service is reached at api.base_url (API_BASE_URL or
DQSTUDIO_API_BASE_URL). A failed call prints "Error fetching AI response."`,
		Example: `  dqstudio suggest "Column B" "must never be empty"

  # Against a remote service
  API_BASE_URL=http://suggest.internal:8000 dqstudio suggest email "valid address"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSuggest(cmd, args[0], strings.Join(args[1:], " "))
		},
	}
	return cmd
}

func runSuggest(cmd *cobra.Command, column, ruleText string) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	tbl, err := loadTable(cfg)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	ws := workspace.New(workspace.Config{
		Table:     tbl,
		Completer: newCompleter(cfg, cmdCtx.Logger),
		Logger:    cmdCtx.Logger,
	})
	defer ws.Close()

	if err := ws.SelectColumn(column); err != nil {
		return err
	}
	ws.SetRuleText(ruleText)
	if err := ws.RequestSuggestion(cmd.Context()); err != nil {
		return err
	}
	st := ws.State()
	failed := st.SQLSource == workspace.SQLFailed

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(output.SuggestOutput{
			Column: st.Column,
			Rule:   st.RuleText,
			SQL:    st.SQL,
			Failed: failed,
		})
	case output.ModeMarkdown:
		if failed {
			r.Println(suggest.FailureText)
			return nil
		}
		r.Println(output.FormatHeader(1, fmt.Sprintf("Suggested SQL for %s", st.Column)))
		r.Println("")
		r.Println(output.FormatCodeBlock("sql", st.SQL))
	default:
		if failed {
			r.Error(suggest.FailureText)
			return nil
		}
		r.Println(st.SQL)
	}
	return nil
}
