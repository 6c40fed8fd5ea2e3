package moderation

import "context"

// Store defines the persistence interface for the bot's four record kinds.
// Implementations must be safe for concurrent use and must serialize
// mutations to a single record, so that two near-simultaneous admin actions
// on the same message id result in exactly one effective resolution.
type Store interface {
	// Links
	// GetOrCreateLink persists the candidate token for the user if no
	// link exists yet and returns the canonical token either way.
	GetOrCreateLink(ctx context.Context, userID int64, candidate string) (string, error)
	// ResolveOwner returns the user owning the given token, or ErrNotFound.
	ResolveOwner(ctx context.Context, token string) (int64, error)

	// Admins
	AddAdmin(ctx context.Context, id int64) error
	// RemoveAdmin enforces the admin-set floor inside a single
	// transaction: it fails with ErrNotAdmin, ErrLastAdmin or
	// ErrSelfRemoval without mutating anything.
	RemoveAdmin(ctx context.Context, actor, target int64) error
	IsAdmin(ctx context.Context, id int64) bool
	ListAdmins(ctx context.Context) ([]int64, error)

	// Bans
	PutBan(ctx context.Context, rec BanRecord) error
	GetBan(ctx context.Context, userID int64) (*BanRecord, error)
	// DeleteBan reports whether a record was actually deleted, which is
	// what makes lazy expiry fire exactly once per record.
	DeleteBan(ctx context.Context, userID int64) (bool, error)
	ListBans(ctx context.Context) ([]BanRecord, error)

	// Messages
	AppendMessage(ctx context.Context, ownerID, senderID int64, text string) (uint64, error)
	GetMessage(ctx context.Context, id uint64) (*Message, error)
	// FlagMessage marks the message as reported and returns its
	// snapshot, or nil if the id no longer exists (stale report taps).
	FlagMessage(ctx context.Context, id uint64) (*Message, error)
	// DeleteMessage reports whether a row was deleted; the second of two
	// racing resolutions sees false.
	DeleteMessage(ctx context.Context, id uint64) (bool, error)
	ListReported(ctx context.Context) ([]Message, error)
}
