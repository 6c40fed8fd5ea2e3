package moderation

import "time"

// UserLink maps a user to their shareable anonymous-message link token.
// A link is minted once per user and never deleted.
type UserLink struct {
	UserID    int64     `json:"user_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}

// Sanction describes how long a ban lasts. A permanent sanction has
// Permanent set and an unused Until; a timed sanction expires at Until.
type Sanction struct {
	Permanent bool      `json:"permanent"`
	Until     time.Time `json:"until,omitempty"`
}

// PermanentSanction returns a sanction that never expires.
func PermanentSanction() Sanction {
	return Sanction{Permanent: true}
}

// SanctionUntil returns a sanction that expires at the given time.
func SanctionUntil(until time.Time) Sanction {
	return Sanction{Until: until}
}

// Active reports whether the sanction is still in force at the given time.
func (s Sanction) Active(now time.Time) bool {
	return s.Permanent || now.Before(s.Until)
}

// BanRecord represents an active ban on a user. At most one record exists
// per user; re-banning replaces the sanction rather than extending it.
type BanRecord struct {
	UserID   int64     `json:"user_id"`
	Sanction Sanction  `json:"sanction"`
	BannedAt time.Time `json:"banned_at"`
	BannedBy int64     `json:"banned_by,omitempty"` // admin id, 0 for bootstrap/unknown
}

// Message is a relayed anonymous message. Records exist only while a
// message is undecided: resolving a report (ban or ignore) deletes the row,
// which is what makes double-resolution a natural no-op.
type Message struct {
	ID       uint64    `json:"id"`
	OwnerID  int64     `json:"owner_id"`  // link owner who received the message
	SenderID int64     `json:"sender_id"` // anonymous sender
	Text     string    `json:"text"`
	Reported bool      `json:"reported"`
	SentAt   time.Time `json:"sent_at"`
}
