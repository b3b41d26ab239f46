package sinks

import (
	"fmt"

	"Rostrum/pkg/debate"
	"Rostrum/pkg/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const telegramMessageLimit = 4000

// Telegram forwards debate events to a Telegram chat. Send failures are
// logged and dropped; an unreachable chat must never stall a debate.
type Telegram struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram validates the token via an API call and returns a ready sink.
// Returns (nil, nil) when token is empty (Telegram not configured).
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" {
		return nil, nil
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	api.Debug = false

	return &Telegram{api: api, chatID: chatID}, nil
}

// Callback returns the EventCallback to subscribe on the bus.
func (t *Telegram) Callback() debate.EventCallback {
	return t.handle
}

func (t *Telegram) handle(event debate.Event) {
	text := formatEvent(event)
	if text == "" {
		return
	}
	t.send(text)
}

// formatEvent renders the events worth pushing to a chat. Per-turn noise
// (thinking, turn complete) is intentionally omitted.
func formatEvent(event debate.Event) string {
	switch p := event.Payload.(type) {
	case debate.DebateStartedPayload:
		return fmt.Sprintf("⚖ Debate started: %s (%d rounds, %d debaters)", p.Topic, p.NumRounds, p.NumAgents)
	case debate.MessageReceivedPayload:
		msg := p.Message
		return fmt.Sprintf("[Round %d] %s (%s):\n%s", msg.RoundNumber, msg.AgentName, msg.Stance, msg.Content)
	case debate.JudgeResultPayload:
		return fmt.Sprintf("Verdict: %s", p.Verdict.Summary)
	case debate.DebateCompletePayload:
		return fmt.Sprintf("🏆 Winner: %s (%d messages)", p.WinnerName, p.TotalMessages)
	case debate.ErrorPayload:
		return fmt.Sprintf("✗ Debate failed [%s]: %s", p.ErrorKind, p.ErrorMessage)
	}
	return ""
}

func (t *Telegram) send(text string) {
	if t.chatID == 0 {
		return
	}
	for _, part := range splitText(text, telegramMessageLimit) {
		msg := tgbotapi.NewMessage(t.chatID, part)
		if _, err := t.api.Send(msg); err != nil {
			logger.Warnf("telegram sink send failed: %v", err)
			return
		}
	}
}

// splitText splits text into chunks of at most limit runes, preferring
// newline boundaries.
func splitText(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		parts = append(parts, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		parts = append(parts, string(runes))
	}
	return parts
}
