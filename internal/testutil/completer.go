package testutil

import (
	"context"
	"sync"

	"github.com/leapstack-labs/dqstudio/internal/suggest"
)

// Reply is one scripted answer of a FakeCompleter.
type Reply struct {
	Text string
	Err  error
	// Gate, when set, blocks the call until it is closed or the context ends.
	Gate chan struct{}
}

// FakeCompleter is a suggest.Completer that answers from a script and records
// every conversation it receives. Once the script is exhausted it repeats the
// last reply.
type FakeCompleter struct {
	mu      sync.Mutex
	replies []Reply
	calls   [][]suggest.Message
	started chan struct{}
}

// NewFakeCompleter returns a completer answering with the given replies in order.
func NewFakeCompleter(replies ...Reply) *FakeCompleter {
	return &FakeCompleter{
		replies: replies,
		started: make(chan struct{}, 64),
	}
}

// Complete implements suggest.Completer.
func (f *FakeCompleter) Complete(ctx context.Context, messages []suggest.Message) (string, error) {
	f.mu.Lock()
	n := len(f.calls)
	f.calls = append(f.calls, append([]suggest.Message(nil), messages...))
	var r Reply
	switch {
	case n < len(f.replies):
		r = f.replies[n]
	case len(f.replies) > 0:
		r = f.replies[len(f.replies)-1]
	}
	f.mu.Unlock()

	select {
	case f.started <- struct{}{}:
	default:
	}

	if r.Gate != nil {
		select {
		case <-r.Gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if r.Err != nil {
		return "", r.Err
	}
	return r.Text, nil
}

// Started receives one value per call as soon as the call is made.
func (f *FakeCompleter) Started() <-chan struct{} {
	return f.started
}

// Calls returns the conversations received so far.
func (f *FakeCompleter) Calls() [][]suggest.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]suggest.Message, len(f.calls))
	copy(out, f.calls)
	return out
}
