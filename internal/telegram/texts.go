package telegram

import (
	"fmt"
	"strings"
	"time"

	"github.com/hako/durafmt"

	"github.com/VizardWorker/anonrelay/internal/moderation"
)

// User-visible texts. Telegram HTML parse mode.

const (
	textBlocked           = "<b>🚫 You are banned</b> and cannot use this bot!"
	textBlockedSend       = "<b>🚫 You are banned</b> and cannot send messages!"
	textLinkInvalid       = "❌ This link is invalid"
	textComposePrompt     = "✍️ Write your anonymous message:"
	textMessageSent       = "<b>✅ Message sent!</b>"
	textDeliveryFailed    = "<b>❌ Could not deliver the message to the recipient</b>"
	textReportSent        = "<b>✅ Report sent!</b>"
	textReportGone        = "Message no longer exists"
	textReportIgnored     = "<b>✅ Report ignored and removed</b>"
	textNoRights          = "❌ You have no rights to do that!"
	textCommandNotFound   = "Command not found."
	textAdminPanel        = "<b>👨‍💼 Admin panel:</b>"
	textAdminsUnreachable = "❌ Could not notify administrators"
	textAskAdminID        = "Enter the Telegram ID of the new administrator (a number):"
	textBadAdminID        = "<b>Error:</b> the ID must be a number!"
	textAlreadyAdmin      = "<b>⚠️ This user is already an administrator!</b>"
	textAskBanHours       = "Enter the ban duration in hours (0 for permanent):"
	textBadBanHours       = "Error: enter a valid number of hours (0 or more)!"
	textCannotBanAdmin    = "❌ Administrators cannot be banned!"
	textLastAdmin         = "Cannot remove the last administrator!"
	textSelfRemoval       = "You cannot remove yourself!"
)

func welcomeText(link string, isAdmin bool) string {
	adminHint := ""
	if isAdmin {
		adminHint = "<b>You are an admin.</b> Use /add_admin to appoint administrators."
	}
	return fmt.Sprintf(
		"<b>👋 Welcome!</b>\n\n"+
			"I help you receive anonymous messages.\n\n"+
			"Your unique link: <a href='%s'>%s</a>\n\n"+
			"Share it with your friends!\n\n"+
			"• Get your unique link\n"+
			"• Share it around\n"+
			"• Receive anonymous messages\n"+
			"• Report unwanted content\n\n"+
			"%s",
		link, link, adminHint)
}

func linkText(link string) string {
	return fmt.Sprintf("📎 Your link:\n<a href='%s'>%s</a>", link, link)
}

func incomingMessageText(text string) string {
	return fmt.Sprintf("<b>✨ New anonymous message:</b>\n%s", text)
}

func reportNoticeText(msg *moderation.Message) string {
	return fmt.Sprintf(
		"<b>🚨 New report!</b>\n"+
			"Link owner: %d\n"+
			"Sender: %d\n"+
			"Message: %s",
		msg.OwnerID, msg.SenderID, msg.Text)
}

// sanctionText renders a sanction for user-facing messages:
// "permanently" or "for 24 hours, until 2025-06-02 12:00".
func sanctionText(s moderation.Sanction, now time.Time) string {
	if s.Permanent {
		return "permanently"
	}
	left := durafmt.Parse(s.Until.Sub(now).Round(time.Minute)).LimitFirstN(2)
	return fmt.Sprintf("for %s, until %s", left, s.Until.Format("2006-01-02 15:04"))
}

func bannedText(userID int64, s moderation.Sanction, now time.Time) string {
	return fmt.Sprintf("<b>🚫 User %d</b> banned %s", userID, sanctionText(s, now))
}

func banChangedText(userID int64, s moderation.Sanction, now time.Time) string {
	return fmt.Sprintf("<b>🚫 Ban for %d</b> changed: %s", userID, sanctionText(s, now))
}

func blockedListText(records []moderation.BanRecord, now time.Time) string {
	if len(records) == 0 {
		return "<b>📋 The blocked list is empty</b>"
	}
	var b strings.Builder
	b.WriteString("<b>📋 Blocked users:</b>\n")
	for _, rec := range records {
		fmt.Fprintf(&b, "• %d — %s\n", rec.UserID, sanctionText(rec.Sanction, now))
	}
	return b.String()
}

func reportsListText(reports []moderation.Message) string {
	if len(reports) == 0 {
		return "<b>📩 No reports</b>"
	}
	var b strings.Builder
	b.WriteString("<b>📩 Reports:</b>\n")
	for _, msg := range reports {
		text := msg.Text
		if runes := []rune(text); len(runes) > 50 {
			text = string(runes[:50]) + "..."
		}
		fmt.Fprintf(&b, "ID: %d | Sender: %d | Owner: %d\nMessage: %s\n", msg.ID, msg.SenderID, msg.OwnerID, text)
	}
	return b.String()
}

func manageReportText(msg *moderation.Message) string {
	return fmt.Sprintf(
		"<b>📩 Report ID: %d</b>\n"+
			"Link owner: %d\n"+
			"Sender: %d\n"+
			"Message: %s",
		msg.ID, msg.OwnerID, msg.SenderID, msg.Text)
}

func manageBlockedText(rec *moderation.BanRecord, now time.Time) string {
	return fmt.Sprintf("<b>👤 User %d</b>\nBanned %s", rec.UserID, sanctionText(rec.Sanction, now))
}

func adminListText(admins []int64) string {
	if len(admins) <= 1 {
		return "<b>👥 The last administrator cannot be removed!</b>"
	}
	var b strings.Builder
	b.WriteString("<b>👥 Administrators:</b>")
	for _, id := range admins {
		fmt.Fprintf(&b, "\n• %d", id)
	}
	return b.String()
}
