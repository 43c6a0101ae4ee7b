package ports

import (
	"context"

	"github.com/ghalamif/SensorStat/internal/domain"
)

// Action is an inline selectable button attached to a text message.
type Action struct {
	Label string
	Data  string
}

// Recipient addresses a reply. ReplyTo is the message being answered, 0 for
// an unsolicited post such as the scheduled summary.
type Recipient struct {
	ChatID  int64
	ReplyTo int
}

type Notifier interface {
	SendText(ctx context.Context, to Recipient, text string, actions ...Action) error
	SendImage(ctx context.Context, to Recipient, artifact *domain.ChartArtifact) error
	// SendMenu shows text with a persistent keyboard of command buttons.
	SendMenu(ctx context.Context, to Recipient, text string, buttons ...string) error
}
