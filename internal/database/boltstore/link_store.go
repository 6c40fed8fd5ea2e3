package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/VizardWorker/anonrelay/internal/moderation"
)

// GetOrCreateLink returns the user's link token, persisting the candidate
// token if no link exists yet. The check and the insert happen in one
// update transaction, so concurrent first calls for the same user agree on
// a single token. Token uniqueness is enforced by the token index bucket.
func (s *Store) GetOrCreateLink(ctx context.Context, userID int64, candidate string) (string, error) {
	var token string

	err := s.db.Update(func(tx *bolt.Tx) error {
		links := tx.Bucket(BucketLinks)
		byToken := tx.Bucket(BucketLinksByToken)
		if links == nil || byToken == nil {
			return fmt.Errorf("link buckets not found")
		}

		if data := links.Get(idKey(userID)); data != nil {
			var link moderation.UserLink
			if err := json.Unmarshal(data, &link); err != nil {
				return fmt.Errorf("failed to unmarshal link: %w", err)
			}
			token = link.Token
			return nil
		}

		if byToken.Get([]byte(candidate)) != nil {
			// 128-bit random tokens never collide in practice; refuse
			// rather than overwrite another user's route.
			return fmt.Errorf("link token collision for user %d", userID)
		}

		link := moderation.UserLink{
			UserID:    userID,
			Token:     candidate,
			CreatedAt: time.Now(),
		}
		data, err := json.Marshal(link)
		if err != nil {
			return fmt.Errorf("failed to marshal link: %w", err)
		}

		if err := links.Put(idKey(userID), data); err != nil {
			return err
		}
		if err := byToken.Put([]byte(candidate), idKey(userID)); err != nil {
			return err
		}
		token = candidate
		return nil
	})
	if err != nil {
		return "", err
	}

	return token, nil
}

// ResolveOwner returns the user id owning the given token, or
// moderation.ErrNotFound for tokens that were never issued.
func (s *Store) ResolveOwner(ctx context.Context, token string) (int64, error) {
	var ownerID int64
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketLinksByToken)
		if bucket == nil {
			return nil
		}

		data := bucket.Get([]byte(token))
		if data == nil {
			return nil
		}

		ownerID = int64(binary.BigEndian.Uint64(data))
		found = true
		return nil
	})
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, moderation.ErrNotFound
	}

	return ownerID, nil
}
