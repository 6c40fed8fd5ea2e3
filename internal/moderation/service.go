package moderation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/VizardWorker/anonrelay/internal/metrics"
)

// Notifier delivers out-of-band notices to users. Deliveries are
// best-effort: one attempt, failures are logged by the service and never
// propagated to the action that triggered them.
type Notifier interface {
	NotifyBanned(ctx context.Context, userID int64, s Sanction) error
	NotifyUnbanned(ctx context.Context, userID int64) error
	NotifyAdminAppointed(ctx context.Context, userID int64) error
}

// Service implements the moderation and access-control workflow on top of
// a Store and a Notifier: link resolution, the report lifecycle, and
// time-bounded ban enforcement with lazy expiry.
type Service struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the service clock. Used in tests to simulate ban
// expiry without sleeping.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a moderation service.
func NewService(store Store, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Link returns the user's shareable link token, minting one on first call.
// Calling it again always returns the same token.
func (s *Service) Link(ctx context.Context, userID int64) (string, error) {
	candidate := strings.ReplaceAll(uuid.NewString(), "-", "")
	token, err := s.store.GetOrCreateLink(ctx, userID, candidate)
	if err != nil {
		return "", fmt.Errorf("get or create link: %w", err)
	}
	return token, nil
}

// ResolveOwner returns the user owning the given link token.
// Returns ErrNotFound for tokens that were never issued.
func (s *Service) ResolveOwner(ctx context.Context, token string) (int64, error) {
	return s.store.ResolveOwner(ctx, token)
}

// IsAdmin reports whether the user is currently an admin.
func (s *Service) IsAdmin(ctx context.Context, id int64) bool {
	return s.store.IsAdmin(ctx, id)
}

// Admins returns the current admin set.
func (s *Service) Admins(ctx context.Context) ([]int64, error) {
	return s.store.ListAdmins(ctx)
}

// EnsureAdmin seeds an admin id at startup. No-op if already present.
func (s *Service) EnsureAdmin(ctx context.Context, id int64) error {
	return s.store.AddAdmin(ctx, id)
}

// AddAdmin appoints target as an admin on behalf of actor. The new admin
// is notified best-effort.
func (s *Service) AddAdmin(ctx context.Context, actor, target int64) error {
	if !s.store.IsAdmin(ctx, actor) {
		return ErrNotAuthorized
	}
	if s.store.IsAdmin(ctx, target) {
		return ErrAlreadyAdmin
	}
	if err := s.store.AddAdmin(ctx, target); err != nil {
		return fmt.Errorf("add admin: %w", err)
	}
	log.Info().Int64("actor", actor).Int64("admin", target).Msg("admin appointed")
	if err := s.notifier.NotifyAdminAppointed(ctx, target); err != nil {
		metrics.NotifyFailuresTotal.Inc()
		log.Warn().Err(err).Int64("admin", target).Msg("failed to notify new admin")
	}
	return nil
}

// RemoveAdmin removes target from the admin set. The removal is refused
// with ErrNotAdmin, ErrLastAdmin or ErrSelfRemoval; the last-admin and
// self-removal guards are enforced atomically by the store.
func (s *Service) RemoveAdmin(ctx context.Context, actor, target int64) error {
	if !s.store.IsAdmin(ctx, actor) {
		return ErrNotAuthorized
	}
	if err := s.store.RemoveAdmin(ctx, actor, target); err != nil {
		return err
	}
	log.Info().Int64("actor", actor).Int64("admin", target).Msg("admin removed")
	return nil
}

// CheckAndExpire reports whether the user is currently banned. Reading an
// expired ban deletes the record and fires one best-effort unblock
// notification; the delete-before-notify ordering guarantees the
// notification fires at most once per expiry even under repeated checks.
func (s *Service) CheckAndExpire(ctx context.Context, userID int64) (bool, error) {
	rec, err := s.store.GetBan(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("get ban: %w", err)
	}
	if rec == nil {
		return false, nil
	}
	if rec.Sanction.Active(s.now()) {
		return true, nil
	}

	deleted, err := s.store.DeleteBan(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("expire ban: %w", err)
	}
	if deleted {
		metrics.UnbansTotal.Inc()
		log.Info().Int64("user", userID).Msg("ban expired")
		if err := s.notifier.NotifyUnbanned(ctx, userID); err != nil {
			metrics.NotifyFailuresTotal.Inc()
			log.Warn().Err(err).Int64("user", userID).Msg("failed to notify expired ban")
		}
	}
	return false, nil
}

// Block bans target for durationHours, or permanently when durationHours
// is zero. Re-blocking replaces any prior sanction. Admins cannot be
// banned. The banned user is notified best-effort.
func (s *Service) Block(ctx context.Context, actor, target int64, durationHours int) (Sanction, error) {
	if !s.store.IsAdmin(ctx, actor) {
		return Sanction{}, ErrNotAuthorized
	}
	if s.store.IsAdmin(ctx, target) {
		return Sanction{}, ErrTargetIsAdmin
	}

	sanction := PermanentSanction()
	if durationHours > 0 {
		sanction = SanctionUntil(s.now().Add(time.Duration(durationHours) * time.Hour))
	}

	rec := BanRecord{
		UserID:   target,
		Sanction: sanction,
		BannedAt: s.now(),
		BannedBy: actor,
	}
	if err := s.store.PutBan(ctx, rec); err != nil {
		return Sanction{}, fmt.Errorf("put ban: %w", err)
	}

	metrics.BansTotal.Inc()
	log.Info().
		Int64("actor", actor).
		Int64("user", target).
		Bool("permanent", sanction.Permanent).
		Time("until", sanction.Until).
		Msg("user banned")

	if err := s.notifier.NotifyBanned(ctx, target, sanction); err != nil {
		metrics.NotifyFailuresTotal.Inc()
		log.Warn().Err(err).Int64("user", target).Msg("failed to notify banned user")
	}
	return sanction, nil
}

// Unblock lifts a ban regardless of whether it had expired. The unblock
// notification is sent even when no record existed; a manual unblock
// always tells the user.
func (s *Service) Unblock(ctx context.Context, actor, target int64) error {
	if !s.store.IsAdmin(ctx, actor) {
		return ErrNotAuthorized
	}
	deleted, err := s.store.DeleteBan(ctx, target)
	if err != nil {
		return fmt.Errorf("delete ban: %w", err)
	}
	if deleted {
		metrics.UnbansTotal.Inc()
	}
	log.Info().Int64("actor", actor).Int64("user", target).Msg("user unbanned")
	if err := s.notifier.NotifyUnbanned(ctx, target); err != nil {
		metrics.NotifyFailuresTotal.Inc()
		log.Warn().Err(err).Int64("user", target).Msg("failed to notify unbanned user")
	}
	return nil
}

// BlockedUsers returns all active ban records for the admin panel.
func (s *Service) BlockedUsers(ctx context.Context, actor int64) ([]BanRecord, error) {
	if !s.store.IsAdmin(ctx, actor) {
		return nil, ErrNotAuthorized
	}
	return s.store.ListBans(ctx)
}

// Ban returns the ban record for a user, or ErrNotFound.
func (s *Service) Ban(ctx context.Context, actor, target int64) (*BanRecord, error) {
	if !s.store.IsAdmin(ctx, actor) {
		return nil, ErrNotAuthorized
	}
	rec, err := s.store.GetBan(ctx, target)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Record appends a relayed message to the ledger and returns its id.
// Callers must have checked the sender with CheckAndExpire first.
func (s *Service) Record(ctx context.Context, ownerID, senderID int64, text string) (uint64, error) {
	id, err := s.store.AppendMessage(ctx, ownerID, senderID, text)
	if err != nil {
		return 0, fmt.Errorf("append message: %w", err)
	}
	metrics.MessagesRelayedTotal.Inc()
	return id, nil
}

// Discard removes a just-recorded message whose relay to the owner failed.
func (s *Service) Discard(ctx context.Context, messageID uint64) error {
	_, err := s.store.DeleteMessage(ctx, messageID)
	return err
}

// Report flags a message and returns its snapshot together with the admin
// ids the report should fan out to. A stale or repeated tap on a message
// that no longer exists returns ErrNotFound.
func (s *Service) Report(ctx context.Context, messageID uint64) (*Message, []int64, error) {
	msg, err := s.store.FlagMessage(ctx, messageID)
	if err != nil {
		return nil, nil, fmt.Errorf("flag message: %w", err)
	}
	if msg == nil {
		return nil, nil, ErrNotFound
	}
	admins, err := s.store.ListAdmins(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list admins: %w", err)
	}
	metrics.ReportsTotal.Inc()
	log.Info().Uint64("message", messageID).Int64("sender", msg.SenderID).Msg("message reported")
	return msg, admins, nil
}

// ReportedMessages returns all flagged messages for the admin panel.
func (s *Service) ReportedMessages(ctx context.Context, actor int64) ([]Message, error) {
	if !s.store.IsAdmin(ctx, actor) {
		return nil, ErrNotAuthorized
	}
	return s.store.ListReported(ctx)
}

// Message returns a single ledger entry, or ErrNotFound once it has been
// resolved.
func (s *Service) Message(ctx context.Context, actor int64, messageID uint64) (*Message, error) {
	if !s.store.IsAdmin(ctx, actor) {
		return nil, ErrNotAuthorized
	}
	msg, err := s.store.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrNotFound
	}
	return msg, nil
}

// BanSender resolves a report by banning the sender and deleting the
// ledger entry. Only the ban record survives resolution. A second
// resolution of the same message id sees the row already gone and the
// delete is a no-op.
func (s *Service) BanSender(ctx context.Context, actor, senderID int64, messageID uint64, durationHours int) (Sanction, error) {
	sanction, err := s.Block(ctx, actor, senderID, durationHours)
	if err != nil {
		return Sanction{}, err
	}
	if _, err := s.store.DeleteMessage(ctx, messageID); err != nil {
		return sanction, fmt.Errorf("resolve message: %w", err)
	}
	return sanction, nil
}

// IgnoreReport resolves a report without banning: the ledger entry is
// deleted, no one is notified. Double resolution is a no-op.
func (s *Service) IgnoreReport(ctx context.Context, actor int64, messageID uint64) error {
	if !s.store.IsAdmin(ctx, actor) {
		return ErrNotAuthorized
	}
	if _, err := s.store.DeleteMessage(ctx, messageID); err != nil {
		return fmt.Errorf("resolve message: %w", err)
	}
	log.Info().Int64("actor", actor).Uint64("message", messageID).Msg("report ignored")
	return nil
}
