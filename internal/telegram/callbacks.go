package telegram

import (
	"fmt"
	"strconv"
	"strings"
)

// Action identifies what a callback button does. Callbacks arrive from the
// transport as a single delimited string; DecodeCallback turns that string
// into a tagged Callback exactly once, at the transport boundary, and the
// rest of the bot dispatches on the tag.
type Action string

const (
	ActionGetLink      Action = "get_link"
	ActionAdminPanel   Action = "admin_panel"
	ActionListBlocked  Action = "list_blocked"
	ActionListReports  Action = "list_reports"
	ActionManageAdmins Action = "manage_admins"
	ActionBackToMenu   Action = "back_to_menu"
	ActionCancelInput  Action = "cancel_input"

	ActionReport          Action = "report"            // MessageID
	ActionBan             Action = "ban"               // UserID, MessageID, Hours
	ActionIgnore          Action = "ignore"            // MessageID
	ActionManageReport    Action = "manage_report"     // UserID (sender), MessageID
	ActionManageBlocked   Action = "manage"            // UserID
	ActionEditBan         Action = "edit_ban"          // UserID
	ActionEditBanDuration Action = "edit_ban_duration" // UserID, Hours
	ActionBanCustom       Action = "ban_custom"        // UserID
	ActionUnblock         Action = "unblock"           // UserID
	ActionRemoveAdmin     Action = "remove_admin"      // UserID
)

// Callback is a decoded button payload. Unused fields are zero.
type Callback struct {
	Action    Action
	UserID    int64
	MessageID uint64
	Hours     int
}

// Encode renders the callback into its wire form. The format stays within
// Telegram's 64-byte callback-data limit: the longest payload is
// "edit_ban_duration_" plus two numbers.
func (c Callback) Encode() string {
	switch c.Action {
	case ActionReport, ActionIgnore:
		return fmt.Sprintf("%s_%d", c.Action, c.MessageID)
	case ActionBan:
		return fmt.Sprintf("ban_%d_%d_%d", c.UserID, c.MessageID, c.Hours)
	case ActionManageReport:
		return fmt.Sprintf("manage_report_%d_%d", c.UserID, c.MessageID)
	case ActionEditBanDuration:
		return fmt.Sprintf("edit_ban_duration_%d_%d", c.UserID, c.Hours)
	case ActionManageBlocked, ActionEditBan, ActionBanCustom, ActionUnblock, ActionRemoveAdmin:
		return fmt.Sprintf("%s_%d", c.Action, c.UserID)
	default:
		return string(c.Action)
	}
}

// prefix parsers ordered so that longer action names win over their
// prefixes (edit_ban_duration before edit_ban, manage_report before
// manage, ban_custom before ban).
var callbackParsers = []struct {
	prefix string
	parse  func(args []string) (Callback, error)
}{
	{"edit_ban_duration_", func(args []string) (Callback, error) {
		if len(args) != 2 {
			return Callback{}, fmt.Errorf("want user and hours, got %d args", len(args))
		}
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return Callback{}, err
		}
		hours, err := strconv.Atoi(args[1])
		if err != nil {
			return Callback{}, err
		}
		return Callback{Action: ActionEditBanDuration, UserID: userID, Hours: hours}, nil
	}},
	{"edit_ban_", parseUserID(ActionEditBan)},
	{"ban_custom_", parseUserID(ActionBanCustom)},
	{"ban_", func(args []string) (Callback, error) {
		if len(args) != 3 {
			return Callback{}, fmt.Errorf("want user, message and hours, got %d args", len(args))
		}
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return Callback{}, err
		}
		msgID, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return Callback{}, err
		}
		hours, err := strconv.Atoi(args[2])
		if err != nil {
			return Callback{}, err
		}
		return Callback{Action: ActionBan, UserID: userID, MessageID: msgID, Hours: hours}, nil
	}},
	{"manage_report_", func(args []string) (Callback, error) {
		if len(args) != 2 {
			return Callback{}, fmt.Errorf("want sender and message, got %d args", len(args))
		}
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return Callback{}, err
		}
		msgID, err := strconv.ParseUint(args[1], 10, 64)
		if err != nil {
			return Callback{}, err
		}
		return Callback{Action: ActionManageReport, UserID: userID, MessageID: msgID}, nil
	}},
	{"manage_", parseUserID(ActionManageBlocked)},
	{"remove_admin_", parseUserID(ActionRemoveAdmin)},
	{"unblock_", parseUserID(ActionUnblock)},
	{"report_", parseMessageID(ActionReport)},
	{"ignore_", parseMessageID(ActionIgnore)},
}

func parseUserID(action Action) func(args []string) (Callback, error) {
	return func(args []string) (Callback, error) {
		if len(args) != 1 {
			return Callback{}, fmt.Errorf("want a single user id, got %d args", len(args))
		}
		userID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return Callback{}, err
		}
		return Callback{Action: action, UserID: userID}, nil
	}
}

func parseMessageID(action Action) func(args []string) (Callback, error) {
	return func(args []string) (Callback, error) {
		if len(args) != 1 {
			return Callback{}, fmt.Errorf("want a single message id, got %d args", len(args))
		}
		msgID, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return Callback{}, err
		}
		return Callback{Action: action, MessageID: msgID}, nil
	}
}

// DecodeCallback parses a raw callback-data string. Unknown or malformed
// payloads return an error; the caller treats those as stale buttons.
func DecodeCallback(data string) (Callback, error) {
	switch Action(data) {
	case ActionGetLink, ActionAdminPanel, ActionListBlocked, ActionListReports,
		ActionManageAdmins, ActionBackToMenu, ActionCancelInput:
		return Callback{Action: Action(data)}, nil
	}

	for _, p := range callbackParsers {
		if !strings.HasPrefix(data, p.prefix) {
			continue
		}
		args := strings.Split(strings.TrimPrefix(data, p.prefix), "_")
		cb, err := p.parse(args)
		if err != nil {
			return Callback{}, fmt.Errorf("malformed callback %q: %w", data, err)
		}
		return cb, nil
	}

	return Callback{}, fmt.Errorf("unknown callback %q", data)
}
