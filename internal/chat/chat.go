// Package chat implements the assistant conversation shown in the studio's
// side panel.
package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/dqstudio/internal/suggest"
)

// Greeting is the assistant message every conversation starts with.
const Greeting = "Hello! I can help you create and validate data quality rules. Select a column and describe what you want to validate."

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrBusy         = errors.New("assistant is still answering")
	ErrClosed       = errors.New("chat closed")
)

// Sender identifies who wrote a message.
type Sender string

const (
	SenderHuman     Sender = "human"
	SenderAssistant Sender = "assistant"
)

// Role maps the sender to the role used on the wire.
func (s Sender) Role() suggest.Role {
	if s == SenderHuman {
		return suggest.RoleUser
	}
	return suggest.RoleAssistant
}

// Message is one entry of the transcript.
type Message struct {
	ID        string
	Content   string
	Sender    Sender
	CreatedAt time.Time
}

// Config configures a Conversation.
type Config struct {
	Completer suggest.Completer
	OnChange  func()
	Logger    *slog.Logger

	// Now defaults to time.Now.
	Now func() time.Time
}

// Conversation is an append-only transcript plus the single in-flight
// assistant call, if any.
type Conversation struct {
	completer suggest.Completer
	onChange  func()
	logger    *slog.Logger
	now       func() time.Time

	mu       sync.Mutex
	messages []Message
	loading  bool
	gen      uint64
	cancel   context.CancelFunc
	closed   bool
}

// New starts a conversation seeded with the greeting.
func New(cfg Config) *Conversation {
	c := &Conversation{
		completer: cfg.Completer,
		onChange:  cfg.OnChange,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.messages = []Message{c.newMessage(Greeting, SenderAssistant)}
	return c
}

// Messages returns a copy of the transcript in order.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Loading reports whether an assistant reply is pending.
func (c *Conversation) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Send appends text as a human message and asks the assistant to answer the
// whole transcript. The reply, or suggest.FailureText when the call fails, is
// appended as an assistant message. Send blocks until the call completes.
func (c *Conversation) Send(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	switch {
	case c.closed:
		c.mu.Unlock()
		return ErrClosed
	case text == "":
		c.mu.Unlock()
		return ErrEmptyMessage
	case c.loading:
		c.mu.Unlock()
		return ErrBusy
	}

	c.messages = append(c.messages, c.newMessage(text, SenderHuman))
	transcript := make([]suggest.Message, 0, len(c.messages))
	for _, m := range c.messages {
		transcript = append(transcript, suggest.Message{Role: m.Sender.Role(), Content: m.Content})
	}

	c.gen++
	gen := c.gen
	callCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.loading = true
	c.mu.Unlock()
	defer cancel()

	c.changed()

	reply, err := c.completer.Complete(callCtx, suggest.WithChatSystemPrompt(transcript))

	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return nil
	}
	c.loading = false
	c.cancel = nil
	if err != nil {
		c.logger.Warn("chat reply failed", "error", err)
		reply = suggest.FailureText
	}
	c.messages = append(c.messages, c.newMessage(reply, SenderAssistant))
	c.mu.Unlock()

	c.changed()
	return nil
}

// Close cancels a pending reply. Later sends fail with ErrClosed.
func (c *Conversation) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	c.gen++
	c.loading = false
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Conversation) newMessage(content string, sender Sender) Message {
	return Message{
		ID:        uuid.NewString(),
		Content:   content,
		Sender:    sender,
		CreatedAt: c.now(),
	}
}

func (c *Conversation) changed() {
	if c.onChange != nil {
		c.onChange()
	}
}
