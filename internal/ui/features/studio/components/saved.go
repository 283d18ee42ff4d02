package components

import (
	"context"
	"fmt"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/dqstudio/internal/catalog"
)

// SavedRules lists the rules stored for the current table.
func SavedRules(saved []catalog.Rule) templ.Component {
	return component(func(_ context.Context, h *writer) {
		h.raw(`<section id="saved-rules" class="saved-rules"><h3>Saved rules</h3>`)
		if len(saved) == 0 {
			h.raw(`<p class="empty">No rules saved yet.</p></section>`)
			return
		}

		h.raw("<table><thead><tr><th>Column</th><th>Rule</th><th>SQL</th><th>Severity</th><th>Pass rate</th><th></th></tr></thead><tbody>")
		for _, r := range saved {
			h.raw("<tr")
			h.attr("id", "rule-"+r.ID)
			h.raw("><td>")
			h.text(r.ColumnName)
			h.raw("</td><td>")
			h.text(r.RuleText)
			h.raw("</td><td><code>")
			h.text(r.SQL)
			h.raw("</code></td><td>")
			h.text(r.Severity.Label())
			h.raw("</td><td>")
			h.text(fmt.Sprintf("%d%%", r.PassRate))
			h.raw("</td><td><button")
			h.attr("class", "delete-btn")
			h.attr("data-on:click", "$ruleId = "+jsString(r.ID)+"; @post('/studio/rules/delete')")
			h.raw(">Delete</button></td></tr>")
		}
		h.raw("</tbody></table></section>")
	})
}
