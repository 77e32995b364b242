package notify

import (
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends notifications to a Telegram chat. Delivery
// failures are logged; a toast must never break the operation it reports.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier creates a notifier for one chat.
func NewTelegramNotifier(api *tgbotapi.BotAPI, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{api: api, chatID: chatID}
}

func (n *TelegramNotifier) Success(msg string) { n.send("✅ " + msg) }
func (n *TelegramNotifier) Warning(msg string) { n.send("⚠️ " + msg) }
func (n *TelegramNotifier) Error(msg string)   { n.send("❌ " + msg) }

func (n *TelegramNotifier) send(text string) {
	if _, err := n.api.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		log.Printf("Warning: failed to deliver notification: %v", err)
	}
}
