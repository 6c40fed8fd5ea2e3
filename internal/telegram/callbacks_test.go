package telegram

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallbackRoundTrip(t *testing.T) {
	cases := []Callback{
		{Action: ActionGetLink},
		{Action: ActionAdminPanel},
		{Action: ActionListBlocked},
		{Action: ActionListReports},
		{Action: ActionManageAdmins},
		{Action: ActionBackToMenu},
		{Action: ActionCancelInput},
		{Action: ActionReport, MessageID: 17},
		{Action: ActionIgnore, MessageID: 4},
		{Action: ActionBan, UserID: 123456789, MessageID: 42, Hours: 168},
		{Action: ActionBan, UserID: 5, MessageID: 1, Hours: 0},
		{Action: ActionManageReport, UserID: 77, MessageID: 9},
		{Action: ActionManageBlocked, UserID: 77},
		{Action: ActionEditBan, UserID: 77},
		{Action: ActionEditBanDuration, UserID: 77, Hours: 24},
		{Action: ActionBanCustom, UserID: 77},
		{Action: ActionUnblock, UserID: 77},
		{Action: ActionRemoveAdmin, UserID: 77},
	}

	for _, want := range cases {
		t.Run(want.Encode(), func(t *testing.T) {
			got, err := DecodeCallback(want.Encode())
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestCallbackWireFormat(t *testing.T) {
	// The wire format is the original button grammar; it must stay stable
	// for buttons already sitting in users' chats.
	assert.Equal(t, "ban_10_20_24", Callback{Action: ActionBan, UserID: 10, MessageID: 20, Hours: 24}.Encode())
	assert.Equal(t, "report_3", Callback{Action: ActionReport, MessageID: 3}.Encode())
	assert.Equal(t, "manage_report_10_20", Callback{Action: ActionManageReport, UserID: 10, MessageID: 20}.Encode())
	assert.Equal(t, "edit_ban_duration_10_0", Callback{Action: ActionEditBanDuration, UserID: 10, Hours: 0}.Encode())
}

func TestCallbackSizeLimit(t *testing.T) {
	// Telegram caps callback data at 64 bytes; check the worst case with
	// maximal ids.
	cb := Callback{Action: ActionEditBanDuration, UserID: 1<<63 - 1, Hours: 999999}
	assert.LessOrEqual(t, len(cb.Encode()), 64)

	cb = Callback{Action: ActionBan, UserID: 1<<63 - 1, MessageID: 1<<64 - 1, Hours: 999999}
	assert.LessOrEqual(t, len(cb.Encode()), 64)
}

func TestDecodePrefixPrecedence(t *testing.T) {
	// manage_ vs manage_report_, ban_ vs ban_custom_, edit_ban_ vs
	// edit_ban_duration_: the longer action must win.
	got, err := DecodeCallback("manage_report_1_2")
	require.NoError(t, err)
	assert.Equal(t, ActionManageReport, got.Action)

	got, err = DecodeCallback("manage_5")
	require.NoError(t, err)
	assert.Equal(t, ActionManageBlocked, got.Action)

	got, err = DecodeCallback("ban_custom_5")
	require.NoError(t, err)
	assert.Equal(t, ActionBanCustom, got.Action)

	got, err = DecodeCallback("edit_ban_5")
	require.NoError(t, err)
	assert.Equal(t, ActionEditBan, got.Action)

	got, err = DecodeCallback("edit_ban_duration_5_24")
	require.NoError(t, err)
	assert.Equal(t, ActionEditBanDuration, got.Action)
}

func TestDecodeMalformed(t *testing.T) {
	for _, data := range []string{
		"",
		"bogus",
		"ban_",
		"ban_1_2",           // missing hours
		"ban_x_2_3",         // non-numeric user
		"report_abc",        // non-numeric message
		"manage_report_1",   // missing message
		"edit_ban_duration_1", // missing hours
		"unblock_",
	} {
		_, err := DecodeCallback(data)
		assert.Error(t, err, "data %q", data)
	}
}
