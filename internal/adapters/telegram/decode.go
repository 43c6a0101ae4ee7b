package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ghalamif/SensorStat/internal/ports"
)

// DecodeUpdate maps an update onto a command. Unrecognised input yields false.
func DecodeUpdate(update tgbotapi.Update) (ports.Request, bool) {
	if cq := update.CallbackQuery; cq != nil {
		if cq.Message == nil || cq.Message.Chat == nil {
			return ports.Request{}, false
		}
		class, ok := ports.ParseListData(cq.Data)
		if !ok {
			return ports.Request{}, false
		}
		return ports.Request{
			ChatID:    cq.Message.Chat.ID,
			MessageID: cq.Message.MessageID,
			Command:   ports.ListCommand{Class: class},
		}, true
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return ports.Request{}, false
	}
	cmd := decodeText(msg)
	if cmd == nil {
		return ports.Request{}, false
	}
	return ports.Request{ChatID: msg.Chat.ID, MessageID: msg.MessageID, Command: cmd}, true
}

func decodeText(msg *tgbotapi.Message) ports.Command {
	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			return ports.StartCommand{}
		case "status":
			return ports.StatusCommand{}
		case "chart", "trend":
			return ports.TrendCommand{}
		}
		return nil
	}
	switch strings.TrimSpace(msg.Text) {
	case ports.StatusButton:
		return ports.StatusCommand{}
	case ports.TrendButton:
		return ports.TrendCommand{}
	}
	return nil
}
