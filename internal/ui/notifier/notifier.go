// Package notifier pings SSE streams when the state they render has changed.
package notifier

import "sync"

// Notifier delivers update pings to subscribed listeners. Every listener
// belongs to a topic (a studio page id); Notify pings one topic and Broadcast
// pings all of them. Listeners receive an empty struct and should re-read
// the state they render.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan struct{}]string
}

// New creates a new Notifier instance.
func New() *Notifier {
	return &Notifier{
		listeners: make(map[chan struct{}]string),
	}
}

// Subscribe returns a channel that receives pings for topic.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (n *Notifier) Subscribe(topic string) chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.listeners[ch] = topic
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Notify pings the listeners of topic.
func (n *Notifier) Notify(topic string) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch, t := range n.listeners {
		if t == topic {
			ping(ch)
		}
	}
}

// Broadcast pings every listener.
func (n *Notifier) Broadcast() {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		ping(ch)
	}
}

// Listeners returns the number of listeners subscribed to topic.
func (n *Notifier) Listeners(topic string) int {
	n.mu.RLock()
	defer n.mu.RUnlock()

	count := 0
	for _, t := range n.listeners {
		if t == topic {
			count++
		}
	}
	return count
}

// ping never blocks: a full channel already holds a pending ping.
func ping(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
