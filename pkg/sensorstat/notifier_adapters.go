package sensorstat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ghalamif/SensorStat/internal/domain"
	"github.com/ghalamif/SensorStat/internal/ports"
)

// ErrChannelNotifierClosed is returned when a channel notifier is written to after being closed.
var ErrChannelNotifierClosed = errors.New("sensorstat: channel notifier closed")

// Action is a selectable button attached to a text message.
type Action = ports.Action

// Message is one outbound reply as seen by callback and channel notifiers.
// Exactly one of Text, Image or Buttons describes the payload kind.
type Message struct {
	ChatID int64
	// ReplyTo is the message being answered, 0 for unsolicited posts.
	ReplyTo int
	Text    string
	Actions []Action
	Image   *ChartArtifact
	Buttons []string
}

// MessageFunc receives every outbound message of a callback notifier.
type MessageFunc func(context.Context, Message) error

// NewCallbackNotifier adapts a MessageFunc into a full Notifier so callers
// can route replies to any transport without defining structs.
func NewCallbackNotifier(fn MessageFunc) Notifier {
	return &callbackNotifier{fn: fn}
}

// NewChannelNotifier exposes messages via a channel; it returns the notifier,
// the read-only channel, and a close function that the caller should invoke
// during shutdown.
func NewChannelNotifier(buffer int) (Notifier, <-chan Message, func()) {
	if buffer < 0 {
		buffer = 0
	}
	ch := make(chan Message, buffer)
	n := &channelNotifier{ch: ch, closed: make(chan struct{})}
	return n, ch, func() { n.close() }
}

type callbackNotifier struct {
	fn MessageFunc
}

func (n *callbackNotifier) deliver(ctx context.Context, m Message) error {
	if n.fn == nil {
		return fmt.Errorf("callback notifier: nil handler")
	}
	return n.fn(ctx, m)
}

func (n *callbackNotifier) SendText(ctx context.Context, to Recipient, text string, actions ...Action) error {
	return n.deliver(ctx, Message{ChatID: to.ChatID, ReplyTo: to.ReplyTo, Text: text, Actions: actions})
}

func (n *callbackNotifier) SendImage(ctx context.Context, to Recipient, art *domain.ChartArtifact) error {
	return n.deliver(ctx, Message{ChatID: to.ChatID, ReplyTo: to.ReplyTo, Image: art})
}

func (n *callbackNotifier) SendMenu(ctx context.Context, to Recipient, text string, buttons ...string) error {
	return n.deliver(ctx, Message{ChatID: to.ChatID, ReplyTo: to.ReplyTo, Text: text, Buttons: buttons})
}

type channelNotifier struct {
	ch     chan Message
	closed chan struct{}
	once   sync.Once
	// mu keeps close from racing a send on ch.
	mu sync.RWMutex
}

func (n *channelNotifier) deliver(ctx context.Context, m Message) error {
	n.mu.RLock()
	defer n.mu.RUnlock()

	select {
	case <-n.closed:
		return ErrChannelNotifierClosed
	default:
	}

	select {
	case <-n.closed:
		return ErrChannelNotifierClosed
	case <-ctx.Done():
		return ctx.Err()
	case n.ch <- m:
		return nil
	}
}

func (n *channelNotifier) SendText(ctx context.Context, to Recipient, text string, actions ...Action) error {
	return n.deliver(ctx, Message{ChatID: to.ChatID, ReplyTo: to.ReplyTo, Text: text, Actions: actions})
}

func (n *channelNotifier) SendImage(ctx context.Context, to Recipient, art *domain.ChartArtifact) error {
	return n.deliver(ctx, Message{ChatID: to.ChatID, ReplyTo: to.ReplyTo, Image: art})
}

func (n *channelNotifier) SendMenu(ctx context.Context, to Recipient, text string, buttons ...string) error {
	return n.deliver(ctx, Message{ChatID: to.ChatID, ReplyTo: to.ReplyTo, Text: text, Buttons: buttons})
}

func (n *channelNotifier) close() {
	n.once.Do(func() {
		close(n.closed)
		n.mu.Lock()
		close(n.ch)
		n.mu.Unlock()
	})
}

var (
	_ ports.Notifier = (*callbackNotifier)(nil)
	_ ports.Notifier = (*channelNotifier)(nil)
)
