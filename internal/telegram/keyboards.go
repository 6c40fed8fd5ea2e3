package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/VizardWorker/anonrelay/internal/moderation"
)

func button(text string, cb Callback) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, cb.Encode())
}

func mainMenu(isAdmin bool) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		{button("📎 Get my link", Callback{Action: ActionGetLink})},
	}
	if isAdmin {
		rows = append(rows, []tgbotapi.InlineKeyboardButton{
			button("👨‍💼 Admin panel", Callback{Action: ActionAdminPanel}),
		})
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func reportButton(messageID uint64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("🚫 Report", Callback{Action: ActionReport, MessageID: messageID}),
		),
	)
}

func adminPanel() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("📋 Blocked users", Callback{Action: ActionListBlocked})),
		tgbotapi.NewInlineKeyboardRow(button("📩 Reports", Callback{Action: ActionListReports})),
		tgbotapi.NewInlineKeyboardRow(button("👥 Manage admins", Callback{Action: ActionManageAdmins})),
		tgbotapi.NewInlineKeyboardRow(button("🔙 Back to menu", Callback{Action: ActionBackToMenu})),
	)
}

// banDurationPanel offers the decision choices for a reported message.
func banDurationPanel(senderID int64, messageID uint64) tgbotapi.InlineKeyboardMarkup {
	ban := func(hours int) Callback {
		return Callback{Action: ActionBan, UserID: senderID, MessageID: messageID, Hours: hours}
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("1 hour", ban(1)),
			button("24 hours", ban(24)),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("7 days", ban(168)),
			button("Forever", ban(0)),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("Ignore", Callback{Action: ActionIgnore, MessageID: messageID}),
		),
	)
}

// editBanDurationPanel offers new sanction choices for an already-blocked
// user, plus free-text custom entry.
func editBanDurationPanel(userID int64) tgbotapi.InlineKeyboardMarkup {
	edit := func(hours int) Callback {
		return Callback{Action: ActionEditBanDuration, UserID: userID, Hours: hours}
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("1 hour", edit(1)),
			button("24 hours", edit(24)),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("7 days", edit(168)),
			button("Forever", edit(0)),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("✏️ Custom", Callback{Action: ActionBanCustom, UserID: userID}),
			button("🔙 Back", Callback{Action: ActionManageBlocked, UserID: userID}),
		),
	)
}

func blockedUserPanel(userID int64) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("✏️ Change duration", Callback{Action: ActionEditBan, UserID: userID})),
		tgbotapi.NewInlineKeyboardRow(button("✅ Unblock", Callback{Action: ActionUnblock, UserID: userID})),
		tgbotapi.NewInlineKeyboardRow(button("🔙 Back", Callback{Action: ActionListBlocked})),
	)
}

func blockedListKeyboard(records []moderation.BanRecord) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, rec := range records {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button(fmt.Sprintf("👤 %d", rec.UserID), Callback{Action: ActionManageBlocked, UserID: rec.UserID}),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		button("🔙 Back", Callback{Action: ActionAdminPanel}),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func reportsListKeyboard(reports []moderation.Message) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, msg := range reports {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button(fmt.Sprintf("📩 %d", msg.ID), Callback{Action: ActionManageReport, UserID: msg.SenderID, MessageID: msg.ID}),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		button("🔙 Back", Callback{Action: ActionAdminPanel}),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func adminListKeyboard(admins []int64) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, id := range admins {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button(fmt.Sprintf("Remove %d", id), Callback{Action: ActionRemoveAdmin, UserID: id}),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		button("🔙 Back", Callback{Action: ActionAdminPanel}),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cancelButton() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("❌ Cancel", Callback{Action: ActionCancelInput}),
		),
	)
}
