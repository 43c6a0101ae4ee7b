package telegram

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ghalamif/SensorStat/internal/domain"
	"github.com/ghalamif/SensorStat/internal/ports"
)

func TestDecodeCommands(t *testing.T) {
	cases := []struct {
		text string
		want ports.Command
	}{
		{"/start", ports.StartCommand{}},
		{"/status", ports.StatusCommand{}},
		{"/status@sensor_bot", ports.StatusCommand{}},
		{"/chart", ports.TrendCommand{}},
	}
	for _, tc := range cases {
		req, ok := DecodeUpdate(tgbotapi.Update{Message: commandMessage(7, tc.text)})
		if !ok {
			t.Fatalf("%q: expected a command", tc.text)
		}
		if req.Command != tc.want || req.ChatID != 7 || req.MessageID != 10 {
			t.Fatalf("%q: unexpected request %#v", tc.text, req)
		}
	}
}

func TestDecodeKeyboardButtons(t *testing.T) {
	for text, want := range map[string]ports.Command{
		ports.StatusButton: ports.StatusCommand{},
		ports.TrendButton:  ports.TrendCommand{},
	} {
		msg := &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: text}
		req, ok := DecodeUpdate(tgbotapi.Update{Message: msg})
		if !ok || req.Command != want {
			t.Fatalf("%q: got %#v, %v", text, req.Command, ok)
		}
	}
}

func TestDecodeCallbacks(t *testing.T) {
	for data, want := range map[string]domain.StatusClass{
		ports.ListOperationalData:    domain.Operational,
		ports.ListNonOperationalData: domain.NonOperational,
		ports.ListDegradedData:       domain.Degraded,
	} {
		update := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "1",
			Data:    data,
			Message: &tgbotapi.Message{MessageID: 4, Chat: &tgbotapi.Chat{ID: 2}},
		}}
		req, ok := DecodeUpdate(update)
		if !ok {
			t.Fatalf("%q: expected a command", data)
		}
		if cmd, isList := req.Command.(ports.ListCommand); !isList || cmd.Class != want || req.ChatID != 2 {
			t.Fatalf("%q: unexpected request %#v", data, req)
		}
	}
}

func TestDecodeIgnoresUnknownInput(t *testing.T) {
	updates := []tgbotapi.Update{
		{},
		{Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}, Text: "hello"}},
		{Message: commandMessage(1, "/unknown")},
		{CallbackQuery: &tgbotapi.CallbackQuery{ID: "1", Data: "nope", Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}}},
		{CallbackQuery: &tgbotapi.CallbackQuery{ID: "1", Data: ports.ListDegradedData}},
	}
	for i, u := range updates {
		if req, ok := DecodeUpdate(u); ok {
			t.Fatalf("update %d: expected no command, got %#v", i, req)
		}
	}
}
