// Package telegram posts moderation alerts to the operators' chat.
// The notifier is optional: when no bot token is configured the pipeline
// simply runs without alerts.
package telegram

import (
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier sends operator alerts through a Telegram bot.
type Notifier struct {
	BotAPI *tgbotapi.BotAPI
	ChatID int64
}

// NewNotifier creates a notifier bound to one alert chat.
func NewNotifier(token string, chatID int64) (*Notifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Printf("INFO: telegram: alert bot authorized as %s", bot.Self.UserName)
	return &Notifier{BotAPI: bot, ChatID: chatID}, nil
}

// NotifySuspension announces that an author crossed the accepted-report
// threshold and was suspended. Send failures are logged, never propagated.
func (n *Notifier) NotifySuspension(authorID string, acceptedCount int) {
	text := fmt.Sprintf("🚫 Author %s suspended: %d reports against their content were accepted.", authorID, acceptedCount)
	if _, err := n.BotAPI.Send(tgbotapi.NewMessage(n.ChatID, text)); err != nil {
		log.Printf("WARNING: telegram: suspension alert not delivered: %v", err)
	}
}
