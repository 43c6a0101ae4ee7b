package telegram

import (
	"context"
	"errors"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ghalamif/SensorStat/internal/domain"
	"github.com/ghalamif/SensorStat/internal/ports"
)

// Handler answers decoded requests.
type Handler interface {
	Handle(ctx context.Context, req ports.Request) error
}

// botAPI is the part of *tgbotapi.BotAPI the adapter uses.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

type Config struct {
	Token string
	// AllowedChat restricts inbound commands to one chat when non-zero.
	AllowedChat int64
	// PollTimeout is the long-poll timeout in seconds.
	PollTimeout int
}

// Bot is the Telegram transport: it sends replies and feeds inbound updates
// to a Handler.
type Bot struct {
	api         botAPI
	allowedChat int64
	pollTimeout int
	obs         ports.Observability
	wg          sync.WaitGroup
}

func Open(cfg Config, obs ports.Observability) (*Bot, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram: token is required")
	}
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	b := newBot(api, cfg, obs)
	b.obs.LogInfo("telegram_connected", ports.Field{Key: "bot", Value: api.Self.UserName})
	return b, nil
}

func newBot(api botAPI, cfg Config, obs ports.Observability) *Bot {
	if obs == nil {
		obs = ports.NopObservability{}
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 60
	}
	return &Bot{api: api, allowedChat: cfg.AllowedChat, pollTimeout: cfg.PollTimeout, obs: obs}
}

// address points base at to. Replies to a command are threaded under it and
// sent silently; unsolicited posts notify as usual.
func address(base *tgbotapi.BaseChat, to ports.Recipient) {
	if to.ReplyTo == 0 {
		return
	}
	base.ReplyToMessageID = to.ReplyTo
	base.DisableNotification = true
}

func (b *Bot) SendText(ctx context.Context, to ports.Recipient, text string, actions ...ports.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(to.ChatID, text)
	address(&msg.BaseChat, to)
	if len(actions) > 0 {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(actions))
		for _, a := range actions {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(a.Label, a.Data))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	}
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: send text: %w", err)
	}
	return nil
}

func (b *Bot) SendImage(ctx context.Context, to ports.Recipient, art *domain.ChartArtifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(to.ChatID, tgbotapi.FileBytes{Name: art.Name, Bytes: art.Data})
	address(&photo.BaseChat, to)
	if _, err := b.api.Send(photo); err != nil {
		return fmt.Errorf("telegram: send image: %w", err)
	}
	return nil
}

func (b *Bot) SendMenu(ctx context.Context, to ports.Recipient, text string, buttons ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := make([]tgbotapi.KeyboardButton, 0, len(buttons))
	for _, label := range buttons {
		row = append(row, tgbotapi.NewKeyboardButton(label))
	}
	msg := tgbotapi.NewMessage(to.ChatID, text)
	address(&msg.BaseChat, to)
	keyboard := tgbotapi.NewReplyKeyboard(row)
	keyboard.ResizeKeyboard = true
	msg.ReplyMarkup = keyboard
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: send menu: %w", err)
	}
	return nil
}

// Serve long-polls for updates until ctx is cancelled. Each request runs in
// its own goroutine so a slow pass does not block other chats. Serve waits
// for in-flight requests before returning.
func (b *Bot) Serve(ctx context.Context, h Handler) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.pollTimeout
	updates := b.api.GetUpdatesChan(u)
	defer b.wg.Wait()
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, h, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, h Handler, update tgbotapi.Update) {
	if cq := update.CallbackQuery; cq != nil {
		// Clears the client's progress indicator; failures only affect the spinner.
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			b.obs.LogError("telegram_callback_ack_failed", err)
		}
	}

	req, ok := DecodeUpdate(update)
	if !ok {
		return
	}
	if b.allowedChat != 0 && req.ChatID != b.allowedChat {
		b.obs.LogInfo("telegram_chat_rejected", ports.Field{Key: "chat_id", Value: req.ChatID})
		return
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := h.Handle(ctx, req); err != nil {
			b.obs.LogError("telegram_reply_failed", err,
				ports.Field{Key: "chat_id", Value: req.ChatID},
				ports.Field{Key: "command", Value: fmt.Sprintf("%T", req.Command)})
		}
	}()
}

var _ ports.Notifier = (*Bot)(nil)
