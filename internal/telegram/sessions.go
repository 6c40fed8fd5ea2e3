package telegram

import "sync"

// sessionState is the per-user workflow state.
type sessionState int

const (
	stateIdle sessionState = iota

	// stateAwaitingMessage: the user followed someone's link and is
	// composing an anonymous message. TargetID holds the link owner.
	stateAwaitingMessage

	// stateAwaitingAdminID: an admin is typing a new admin's id.
	stateAwaitingAdminID

	// stateAwaitingBanDuration: an admin is typing a custom ban duration
	// in hours. TargetID holds the user being banned.
	stateAwaitingBanDuration
)

type session struct {
	State    sessionState
	TargetID int64
}

// sessions tracks the workflow state of concurrent independent users.
type sessions struct {
	mu sync.Mutex
	m  map[int64]session
}

func newSessions() *sessions {
	return &sessions{m: make(map[int64]session)}
}

func (s *sessions) get(userID int64) session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m[userID]
}

func (s *sessions) set(userID int64, sess session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = sess
}

func (s *sessions) clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}
