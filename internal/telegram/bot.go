// Package telegram adapts the moderation workflow to the Telegram Bot API:
// it decodes inbound updates into structured commands, tracks per-user
// composition state, and renders menus and notices.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/VizardWorker/anonrelay/internal/metrics"
	"github.com/VizardWorker/anonrelay/internal/moderation"
)

// Bot dispatches Telegram updates to the moderation service.
type Bot struct {
	api      Sender
	svc      *moderation.Service
	username string
	sessions *sessions
}

// New creates a Bot. username is the bot's Telegram username, used to
// build shareable links.
func New(api Sender, svc *moderation.Service, username string) *Bot {
	return &Bot{
		api:      api,
		svc:      svc,
		username: username,
		sessions: newSessions(),
	}
}

// Run consumes updates until the context is cancelled or the channel is
// closed. Updates are handled one at a time, matching the transport's
// single-stream delivery; per-user sessions keep concurrent conversations
// independent.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	log.Info().Str("username", b.username).Msg("Bot update loop started")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		metrics.UpdatesTotal.WithLabelValues("message").Inc()
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		metrics.UpdatesTotal.WithLabelValues("callback").Inc()
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

// link renders the shareable deep link for a token.
func (b *Bot) link(token string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", b.username, token)
}

func (b *Bot) send(chatID int64, text string) {
	b.sendMarkup(chatID, text, nil)
}

func (b *Bot) sendMarkup(chatID int64, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = *markup
	}
	if _, err := b.api.Send(msg); err != nil {
		metrics.NotifyFailuresTotal.Inc()
		log.Warn().Err(err).Int64("chat", chatID).Msg("failed to send message")
	}
}

func (b *Bot) edit(chatID int64, messageID int, text string, markup *tgbotapi.InlineKeyboardMarkup) {
	var edit tgbotapi.EditMessageTextConfig
	if markup != nil {
		edit = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, *markup)
	} else {
		edit = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	edit.ParseMode = tgbotapi.ModeHTML
	edit.DisableWebPagePreview = true
	if _, err := b.api.Send(edit); err != nil {
		log.Warn().Err(err).Int64("chat", chatID).Msg("failed to edit message")
	}
}

func (b *Bot) answer(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.Warn().Err(err).Msg("failed to answer callback")
	}
}

func (b *Bot) alert(callbackID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallbackWithAlert(callbackID, text)); err != nil {
		log.Warn().Err(err).Msg("failed to answer callback")
	}
}

func (b *Bot) menuFor(ctx context.Context, userID int64) *tgbotapi.InlineKeyboardMarkup {
	menu := mainMenu(b.svc.IsAdmin(ctx, userID))
	return &menu
}

// ----- inbound messages -----

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	if m.From == nil || m.Chat == nil {
		return
	}
	userID := m.From.ID
	chatID := m.Chat.ID

	fields := strings.Fields(m.Text)
	if len(fields) > 0 && strings.HasPrefix(fields[0], "/") {
		cmd := fields[0]
		if i := strings.Index(cmd, "@"); i > 0 {
			cmd = cmd[:i]
		}
		switch cmd {
		case "/start":
			b.handleStart(ctx, chatID, userID, fields[1:])
			return
		case "/add_admin":
			b.handleAddAdminCommand(ctx, chatID, userID, fields[1:])
			return
		}
	}

	switch sess := b.sessions.get(userID); sess.State {
	case stateAwaitingMessage:
		b.handleAnonymousText(ctx, chatID, userID, sess.TargetID, m.Text)
	case stateAwaitingAdminID:
		b.handleAdminIDInput(ctx, chatID, userID, m.Text)
	case stateAwaitingBanDuration:
		b.handleBanDurationInput(ctx, chatID, userID, sess.TargetID, m.Text)
	}
}

func (b *Bot) handleStart(ctx context.Context, chatID, userID int64, args []string) {
	blocked, err := b.svc.CheckAndExpire(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user", userID).Msg("ban check failed")
		return
	}
	if blocked {
		b.send(chatID, textBlocked)
		return
	}

	if len(args) == 0 {
		token, err := b.svc.Link(ctx, userID)
		if err != nil {
			log.Error().Err(err).Int64("user", userID).Msg("failed to create link")
			b.send(chatID, "<b>❌ Could not create your link</b>")
			return
		}
		b.sendMarkup(chatID, welcomeText(b.link(token), b.svc.IsAdmin(ctx, userID)), b.menuFor(ctx, userID))
		return
	}

	ownerID, err := b.svc.ResolveOwner(ctx, args[0])
	if errors.Is(err, moderation.ErrNotFound) {
		b.sendMarkup(chatID, textLinkInvalid, b.menuFor(ctx, userID))
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("user", userID).Msg("failed to resolve link")
		return
	}

	b.sessions.set(userID, session{State: stateAwaitingMessage, TargetID: ownerID})
	b.send(chatID, textComposePrompt)
}

func (b *Bot) handleAnonymousText(ctx context.Context, chatID, senderID, ownerID int64, text string) {
	blocked, err := b.svc.CheckAndExpire(ctx, senderID)
	if err != nil {
		log.Error().Err(err).Int64("user", senderID).Msg("ban check failed")
		return
	}
	if blocked {
		b.send(chatID, textBlockedSend)
		b.sessions.clear(senderID)
		return
	}

	msgID, err := b.svc.Record(ctx, ownerID, senderID, text)
	if err != nil {
		log.Error().Err(err).Msg("failed to record message")
		b.send(chatID, "<b>❌ Could not save the message</b>")
		return
	}

	relay := tgbotapi.NewMessage(ownerID, incomingMessageText(text))
	relay.ParseMode = tgbotapi.ModeHTML
	relay.ReplyMarkup = reportButton(msgID)
	if _, err := b.api.Send(relay); err != nil {
		log.Error().Err(err).Int64("owner", ownerID).Uint64("message", msgID).Msg("failed to relay message")
		// The owner never saw it, so the ledger entry must not outlive
		// the failed delivery.
		if derr := b.svc.Discard(ctx, msgID); derr != nil {
			log.Error().Err(derr).Uint64("message", msgID).Msg("failed to discard undelivered message")
		}
		b.send(chatID, textDeliveryFailed)
		return
	}

	b.sendMarkup(chatID, textMessageSent, b.menuFor(ctx, senderID))
	b.sessions.clear(senderID)
}

func (b *Bot) handleAddAdminCommand(ctx context.Context, chatID, userID int64, args []string) {
	// Non-admins are not told the command exists.
	if !b.svc.IsAdmin(ctx, userID) {
		b.send(chatID, textCommandNotFound)
		return
	}

	if len(args) == 0 {
		cancel := cancelButton()
		b.sendMarkup(chatID, textAskAdminID, &cancel)
		b.sessions.set(userID, session{State: stateAwaitingAdminID})
		return
	}

	newAdminID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		b.send(chatID, textBadAdminID)
		return
	}
	b.addAdmin(ctx, chatID, userID, newAdminID)
}

func (b *Bot) handleAdminIDInput(ctx context.Context, chatID, userID int64, text string) {
	if !b.svc.IsAdmin(ctx, userID) {
		b.send(chatID, textCommandNotFound)
		b.sessions.clear(userID)
		return
	}

	newAdminID, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		// Re-prompt, state stays so the admin can try again
		cancel := cancelButton()
		b.sendMarkup(chatID, textBadAdminID, &cancel)
		return
	}

	b.addAdmin(ctx, chatID, userID, newAdminID)
	b.sessions.clear(userID)
}

func (b *Bot) addAdmin(ctx context.Context, chatID, actor, target int64) {
	err := b.svc.AddAdmin(ctx, actor, target)
	switch {
	case errors.Is(err, moderation.ErrAlreadyAdmin):
		b.sendMarkup(chatID, textAlreadyAdmin, b.menuFor(ctx, actor))
	case errors.Is(err, moderation.ErrNotAuthorized):
		b.send(chatID, textCommandNotFound)
	case err != nil:
		log.Error().Err(err).Int64("target", target).Msg("failed to add admin")
	default:
		b.sendMarkup(chatID, fmt.Sprintf("<b>✅ User %d</b> added as administrator!", target), b.menuFor(ctx, actor))
	}
}

func (b *Bot) handleBanDurationInput(ctx context.Context, chatID, userID, targetID int64, text string) {
	if !b.svc.IsAdmin(ctx, userID) {
		b.send(chatID, textNoRights)
		b.sessions.clear(userID)
		return
	}

	hours, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || hours < 0 {
		// Re-prompt without clearing state
		b.send(chatID, textBadBanHours)
		return
	}

	sanction, err := b.svc.Block(ctx, userID, targetID, hours)
	if errors.Is(err, moderation.ErrTargetIsAdmin) {
		b.send(chatID, textCannotBanAdmin)
		b.sessions.clear(userID)
		return
	}
	if err != nil {
		log.Error().Err(err).Int64("target", targetID).Msg("failed to block user")
		return
	}

	b.sendMarkup(chatID, banChangedText(targetID, sanction, time.Now()), b.menuFor(ctx, userID))
	b.sessions.clear(userID)
}

// ----- callbacks -----

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil || query.From == nil {
		return
	}

	cb, err := DecodeCallback(query.Data)
	if err != nil {
		log.Warn().Err(err).Msg("dropping callback")
		b.answer(query.ID, "")
		return
	}

	userID := query.From.ID
	chatID := query.Message.Chat.ID
	originID := query.Message.MessageID

	switch cb.Action {
	case ActionGetLink:
		if b.blockedEdit(ctx, query) {
			return
		}
		token, err := b.svc.Link(ctx, userID)
		if err != nil {
			log.Error().Err(err).Int64("user", userID).Msg("failed to create link")
			b.answer(query.ID, "")
			return
		}
		b.sendMarkup(chatID, linkText(b.link(token)), b.menuFor(ctx, userID))
		b.answer(query.ID, "")

	case ActionBackToMenu, ActionCancelInput:
		if cb.Action == ActionCancelInput {
			b.sessions.clear(userID)
		}
		if b.blockedEdit(ctx, query) {
			return
		}
		token, err := b.svc.Link(ctx, userID)
		if err != nil {
			log.Error().Err(err).Int64("user", userID).Msg("failed to create link")
			b.answer(query.ID, "")
			return
		}
		b.edit(chatID, originID, linkText(b.link(token)), b.menuFor(ctx, userID))
		b.answer(query.ID, "")

	case ActionReport:
		b.handleReport(ctx, query, cb.MessageID)

	case ActionAdminPanel:
		if b.blockedEdit(ctx, query) || !b.requireAdmin(ctx, query) {
			return
		}
		panel := adminPanel()
		b.edit(chatID, originID, textAdminPanel, &panel)
		b.answer(query.ID, "")

	case ActionListBlocked:
		if b.blockedEdit(ctx, query) || !b.requireAdmin(ctx, query) {
			return
		}
		records, err := b.svc.BlockedUsers(ctx, userID)
		if err != nil {
			log.Error().Err(err).Msg("failed to list blocked users")
			b.answer(query.ID, "")
			return
		}
		keyboard := blockedListKeyboard(records)
		b.edit(chatID, originID, blockedListText(records, time.Now()), &keyboard)
		b.answer(query.ID, "")

	case ActionListReports:
		if b.blockedEdit(ctx, query) || !b.requireAdmin(ctx, query) {
			return
		}
		reports, err := b.svc.ReportedMessages(ctx, userID)
		if err != nil {
			log.Error().Err(err).Msg("failed to list reports")
			b.answer(query.ID, "")
			return
		}
		keyboard := reportsListKeyboard(reports)
		b.edit(chatID, originID, reportsListText(reports), &keyboard)
		b.answer(query.ID, "")

	case ActionManageReport:
		if !b.requireAdmin(ctx, query) {
			return
		}
		panel := banDurationPanel(cb.UserID, cb.MessageID)
		msg, err := b.svc.Message(ctx, userID, cb.MessageID)
		if errors.Is(err, moderation.ErrNotFound) {
			b.edit(chatID, originID, fmt.Sprintf("<b>📩 Report ID: %d not found</b>", cb.MessageID), &panel)
			b.answer(query.ID, "")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("failed to load report")
			b.answer(query.ID, "")
			return
		}
		b.edit(chatID, originID, manageReportText(msg), &panel)
		b.answer(query.ID, "")

	case ActionBan:
		if !b.requireAdmin(ctx, query) {
			return
		}
		sanction, err := b.svc.BanSender(ctx, userID, cb.UserID, cb.MessageID, cb.Hours)
		if errors.Is(err, moderation.ErrTargetIsAdmin) {
			b.alert(query.ID, textCannotBanAdmin)
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("failed to ban sender")
			b.answer(query.ID, "")
			return
		}
		b.edit(chatID, originID, bannedText(cb.UserID, sanction, time.Now()), nil)
		b.answer(query.ID, "✅ User banned")

	case ActionIgnore:
		if !b.requireAdmin(ctx, query) {
			return
		}
		if err := b.svc.IgnoreReport(ctx, userID, cb.MessageID); err != nil {
			log.Error().Err(err).Msg("failed to ignore report")
			b.answer(query.ID, "")
			return
		}
		b.edit(chatID, originID, textReportIgnored, nil)
		b.answer(query.ID, "✅ Report ignored")

	case ActionManageBlocked:
		if !b.requireAdmin(ctx, query) {
			return
		}
		panel := blockedUserPanel(cb.UserID)
		rec, err := b.svc.Ban(ctx, userID, cb.UserID)
		if errors.Is(err, moderation.ErrNotFound) {
			b.edit(chatID, originID, fmt.Sprintf("<b>👤 User %d</b> is not in the blocked list", cb.UserID), &panel)
			b.answer(query.ID, "")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("failed to load ban record")
			b.answer(query.ID, "")
			return
		}
		b.edit(chatID, originID, manageBlockedText(rec, time.Now()), &panel)
		b.answer(query.ID, "")

	case ActionEditBan:
		if !b.requireAdmin(ctx, query) {
			return
		}
		panel := editBanDurationPanel(cb.UserID)
		b.edit(chatID, originID, fmt.Sprintf("Choose a new ban duration for <b>%d</b>:", cb.UserID), &panel)
		b.answer(query.ID, "")

	case ActionEditBanDuration:
		if !b.requireAdmin(ctx, query) {
			return
		}
		sanction, err := b.svc.Block(ctx, userID, cb.UserID, cb.Hours)
		if errors.Is(err, moderation.ErrTargetIsAdmin) {
			b.alert(query.ID, textCannotBanAdmin)
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("failed to change ban")
			b.answer(query.ID, "")
			return
		}
		panel := blockedUserPanel(cb.UserID)
		b.edit(chatID, originID, banChangedText(cb.UserID, sanction, time.Now()), &panel)
		b.answer(query.ID, "✅ Ban duration changed")

	case ActionBanCustom:
		if !b.requireAdmin(ctx, query) {
			return
		}
		b.sessions.set(userID, session{State: stateAwaitingBanDuration, TargetID: cb.UserID})
		cancel := cancelButton()
		b.edit(chatID, originID, textAskBanHours, &cancel)
		b.answer(query.ID, "")

	case ActionUnblock:
		if !b.requireAdmin(ctx, query) {
			return
		}
		if err := b.svc.Unblock(ctx, userID, cb.UserID); err != nil {
			log.Error().Err(err).Msg("failed to unblock user")
			b.answer(query.ID, "")
			return
		}
		b.edit(chatID, originID, fmt.Sprintf("<b>✅ User %d unblocked</b>", cb.UserID), nil)
		b.answer(query.ID, fmt.Sprintf("✅ User %d unblocked", cb.UserID))

	case ActionManageAdmins:
		if b.blockedEdit(ctx, query) || !b.requireAdmin(ctx, query) {
			return
		}
		b.renderAdminList(ctx, chatID, originID)
		b.answer(query.ID, "")

	case ActionRemoveAdmin:
		if !b.requireAdmin(ctx, query) {
			return
		}
		err := b.svc.RemoveAdmin(ctx, userID, cb.UserID)
		switch {
		case errors.Is(err, moderation.ErrLastAdmin):
			b.alert(query.ID, textLastAdmin)
		case errors.Is(err, moderation.ErrSelfRemoval):
			b.alert(query.ID, textSelfRemoval)
		case errors.Is(err, moderation.ErrNotAdmin):
			b.alert(query.ID, fmt.Sprintf("User %d is not an administrator!", cb.UserID))
		case err != nil:
			log.Error().Err(err).Msg("failed to remove admin")
			b.answer(query.ID, "")
		default:
			b.renderAdminList(ctx, chatID, originID)
			b.answer(query.ID, fmt.Sprintf("Administrator %d removed", cb.UserID))
		}
	}
}

// handleReport flags the message and fans the ban prompt out to every
// admin. Per-admin delivery failures are logged and do not block delivery
// to the remaining admins; the report only fails outright when no admin
// was reachable at all.
func (b *Bot) handleReport(ctx context.Context, query *tgbotapi.CallbackQuery, messageID uint64) {
	userID := query.From.ID
	chatID := query.Message.Chat.ID
	originID := query.Message.MessageID

	msg, admins, err := b.svc.Report(ctx, messageID)
	if errors.Is(err, moderation.ErrNotFound) {
		b.answer(query.ID, textReportGone)
		return
	}
	if err != nil {
		log.Error().Err(err).Uint64("message", messageID).Msg("failed to flag report")
		b.alert(query.ID, "❌ Could not process the report")
		return
	}

	delivered := 0
	for _, adminID := range admins {
		prompt := tgbotapi.NewMessage(adminID, reportNoticeText(msg))
		prompt.ParseMode = tgbotapi.ModeHTML
		prompt.ReplyMarkup = banDurationPanel(msg.SenderID, messageID)
		if _, err := b.api.Send(prompt); err != nil {
			metrics.NotifyFailuresTotal.Inc()
			log.Warn().Err(err).Int64("admin", adminID).Uint64("message", messageID).Msg("failed to deliver report to admin")
			continue
		}
		delivered++
	}
	if delivered == 0 {
		b.alert(query.ID, textAdminsUnreachable)
		return
	}

	b.edit(chatID, originID, textReportSent, b.menuFor(ctx, userID))
	b.answer(query.ID, "")
}

// blockedEdit checks the caller's ban status; if banned it replaces the
// menu with the blocked notice and reports true.
func (b *Bot) blockedEdit(ctx context.Context, query *tgbotapi.CallbackQuery) bool {
	blocked, err := b.svc.CheckAndExpire(ctx, query.From.ID)
	if err != nil {
		log.Error().Err(err).Int64("user", query.From.ID).Msg("ban check failed")
		return false
	}
	if !blocked {
		return false
	}
	b.edit(query.Message.Chat.ID, query.Message.MessageID, textBlocked, nil)
	b.answer(query.ID, "")
	return true
}

// requireAdmin answers with the no-rights alert for non-admins.
func (b *Bot) requireAdmin(ctx context.Context, query *tgbotapi.CallbackQuery) bool {
	if b.svc.IsAdmin(ctx, query.From.ID) {
		return true
	}
	b.alert(query.ID, textNoRights)
	return false
}

func (b *Bot) renderAdminList(ctx context.Context, chatID int64, originID int) {
	admins, err := b.svc.Admins(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to list admins")
		return
	}
	keyboard := adminListKeyboard(admins)
	b.edit(chatID, originID, adminListText(admins), &keyboard)
}
