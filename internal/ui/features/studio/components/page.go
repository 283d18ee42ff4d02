package components

import (
	"context"
	"encoding/json"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/dqstudio/internal/ui/resources"
)

// DatastarScript is the client runtime the page loads.
const DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

// StudioPage renders the full HTML document. The signal store lives on the
// #studio wrapper, which SSE patches never replace.
func StudioPage(title string, data AppData) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		signals, err := json.Marshal(InitialSignals{PageID: data.PageID})
		if err != nil {
			h.err = err
			return
		}

		h.raw("<!doctype html>\n<html lang=\"en\"><head><meta charset=\"utf-8\">")
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
		h.raw("<title>")
		h.text(title + " - dqstudio")
		h.raw("</title>")
		h.raw(`<link rel="stylesheet"`)
		h.attr("href", resources.StaticPath("studio.css"))
		h.raw(">")
		h.raw(`<script type="module"`)
		h.attr("src", DatastarScript)
		h.raw("></script></head><body>")

		h.raw(`<div id="studio"`)
		h.attr("data-signals", string(signals))
		h.attr("data-init", "@get('/studio/updates')")
		h.raw(">")
		h.render(ctx, App(data))
		h.raw("</div></body></html>")
	})
}

// App renders the #studio-app container patched on every update.
func App(data AppData) templ.Component {
	return component(func(ctx context.Context, h *writer) {
		h.raw(`<div id="studio-app" class="studio">`)

		h.raw(`<main class="studio-main">`)
		h.render(ctx, DataTable(data.Table, data.Draft.Column))
		h.render(ctx, Workspace(data))
		if data.CatalogEnabled {
			h.render(ctx, SavedRules(data.SavedRules))
		}
		h.raw("</main>")

		h.render(ctx, ChatButton(data.ChatOpen))
		if data.ChatOpen {
			h.render(ctx, ChatPanel(data.Messages, data.ChatLoading))
		}

		h.raw("</div>")
	})
}
