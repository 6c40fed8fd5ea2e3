package moderation

import "errors"

// Sentinel errors for the moderation workflow. All of these are
// per-interaction conditions; none is fatal to the process.
var (
	// ErrNotAuthorized is returned when a non-admin attempts an
	// admin-only action.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotFound is returned when a referenced link token, message id,
	// or ban record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyAdmin is returned when adding a user who is already an
	// admin.
	ErrAlreadyAdmin = errors.New("user is already an admin")

	// ErrNotAdmin is returned when removing a user who is not an admin.
	ErrNotAdmin = errors.New("user is not an admin")

	// ErrLastAdmin is returned when a removal would leave the admin set
	// empty.
	ErrLastAdmin = errors.New("cannot remove the last admin")

	// ErrSelfRemoval is returned when an admin attempts to remove
	// themselves.
	ErrSelfRemoval = errors.New("admins cannot remove themselves")

	// ErrTargetIsAdmin is returned when attempting to ban an admin.
	ErrTargetIsAdmin = errors.New("admins cannot be banned")
)
