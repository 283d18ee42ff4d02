package components

import (
	"context"
	"fmt"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/dqstudio/internal/rules"
)

// RuleLabel is the workspace heading for the selected column.
func RuleLabel(column string) string {
	if column == "" {
		return "Select a column to create a rule"
	}
	return "Rule creation for " + column
}

// Workspace renders the rule editor, SQL panel, pass rate and actions.
func Workspace(data AppData) templ.Component {
	return component(func(_ context.Context, h *writer) {
		d := data.Draft

		h.raw(`<section id="rule-workspace" class="rule-workspace">`)
		h.raw(`<h3 id="rule-label">`)
		h.text(RuleLabel(d.Column))
		h.raw("</h3>")

		h.raw(`<textarea id="rule-text" rows="3" placeholder="Describe the rule, e.g. not null"`)
		h.attr("data-bind:rule-text", "")
		h.attr("data-on:input__debounce.300ms", "@post('/studio/rule')")
		h.boolAttr("disabled", !d.HasColumn())
		h.raw("></textarea>")

		h.raw(`<div class="rule-actions">`)
		button(h, "suggest-btn", "Suggest SQL", "@post('/studio/suggest')",
			!d.HasColumn() || !d.HasRule() || d.Loading)
		button(h, "evaluate-btn", "Evaluate", "@post('/studio/evaluate')", !d.HasRule())
		h.raw("</div>")

		h.raw(`<pre id="sql-output"`)
		h.attr("class", classes("sql-output", loadingClass(d.Loading)))
		h.raw(">")
		h.text(d.SQLDisplay())
		h.raw("</pre>")

		h.raw(`<p id="pass-rate" class="pass-rate">`)
		h.text(fmt.Sprintf("Pass rate: %d%%", d.PassRate))
		h.raw("</p>")

		h.raw(`<div class="severity" role="group" aria-label="Severity">`)
		for _, sev := range rules.Severities {
			h.raw("<button")
			h.attr("class", classes("severity-btn", "severity-"+string(sev), selectedClass(d.Severity == sev)))
			h.attr("data-on:click", "$severity = "+jsString(string(sev))+"; @post('/studio/severity')")
			h.boolAttr("disabled", !d.HasRule())
			h.raw(">")
			h.text(sev.Label())
			h.raw("</button>")
		}
		h.raw("</div>")

		if data.CatalogEnabled {
			button(h, "submit-btn", "Submit Rule", "@post('/studio/submit')", !d.HasColumn() || !d.HasRule())
		}
		h.raw(`<p id="notice" class="notice" data-text="$notice"></p>`)
		h.raw("</section>")
	})
}

func button(h *writer, id, label, action string, disabled bool) {
	h.raw("<button")
	h.attr("id", id)
	h.attr("data-on:click", action)
	h.boolAttr("disabled", disabled)
	h.raw(">")
	h.text(label)
	h.raw("</button>")
}

func loadingClass(on bool) string {
	if on {
		return "loading"
	}
	return ""
}
