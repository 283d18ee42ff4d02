package components

import (
	"context"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/dqstudio/internal/chat"
)

// ChatButton toggles the chat panel.
func ChatButton(open bool) templ.Component {
	return component(func(_ context.Context, h *writer) {
		label := "Open Chat"
		if open {
			label = "Close Chat"
		}
		h.raw(`<button id="chat-toggle" class="chat-toggle"`)
		h.attr("data-on:click", "@post('/studio/chat/toggle')")
		h.raw(">")
		h.text(label)
		h.raw("</button>")
	})
}

// ChatPanel renders the transcript and the message input.
func ChatPanel(messages []chat.Message, loading bool) templ.Component {
	return component(func(_ context.Context, h *writer) {
		h.raw(`<aside id="chat-panel" class="chat-panel"><ol class="chat-messages">`)
		for _, m := range messages {
			h.raw("<li")
			h.attr("id", "msg-"+m.ID)
			h.attr("class", "chat-message chat-"+string(m.Sender))
			h.raw(">")
			h.text(m.Content)
			h.raw("</li>")
		}
		if loading {
			h.raw(`<li class="chat-message chat-loading">Thinking...</li>`)
		}
		h.raw("</ol>")

		h.raw(`<div class="chat-input"><input id="chat-input" type="text" placeholder="Ask about a rule..."`)
		h.attr("data-bind:chat-input", "")
		h.attr("data-on:keydown", "evt.key === 'Enter' && @post('/studio/chat/send')")
		h.raw(">")
		button(h, "chat-send", "Send", "@post('/studio/chat/send')", loading)
		h.raw("</div></aside>")
	})
}
