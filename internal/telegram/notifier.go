package telegram

import (
	"context"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/VizardWorker/anonrelay/internal/moderation"
)

// Sender is the outbound half of the Telegram API. *tgbotapi.BotAPI
// satisfies it; tests substitute a fake.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Notifier implements moderation.Notifier over the Telegram API. Sends may
// fail when the target has blocked the bot or never started it; the
// moderation service treats those failures as best-effort.
type Notifier struct {
	api Sender
}

var _ moderation.Notifier = (*Notifier)(nil)

// NewNotifier creates a Telegram-backed notifier.
func NewNotifier(api Sender) *Notifier {
	return &Notifier{api: api}
}

func (n *Notifier) send(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := n.api.Send(msg)
	return err
}

// NotifyBanned tells a user they have been banned and for how long.
func (n *Notifier) NotifyBanned(ctx context.Context, userID int64, s moderation.Sanction) error {
	return n.send(userID, fmt.Sprintf("<b>🚫 You have been banned</b> %s", sanctionText(s, time.Now())))
}

// NotifyUnbanned tells a user their ban has been lifted or expired.
func (n *Notifier) NotifyUnbanned(ctx context.Context, userID int64) error {
	return n.send(userID, "<b>✅ Your ban is over</b>, you can use the bot again!")
}

// NotifyAdminAppointed tells a user they are now an admin.
func (n *Notifier) NotifyAdminAppointed(ctx context.Context, userID int64) error {
	return n.send(userID, "<b>👨‍💼 You have been appointed an administrator of this bot!</b>")
}
