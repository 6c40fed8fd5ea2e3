package boltstore

import (
	"context"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/VizardWorker/anonrelay/internal/moderation"
)

// PutBan upserts a ban record. Re-banning a user replaces the prior
// sanction; durations never accumulate.
func (s *Store) PutBan(ctx context.Context, rec moderation.BanRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketBans)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketBans)
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to marshal ban record: %w", err)
		}

		return bucket.Put(idKey(rec.UserID), data)
	})
}

// GetBan retrieves a ban record by user id, or nil if none exists.
func (s *Store) GetBan(ctx context.Context, userID int64) (*moderation.BanRecord, error) {
	var rec *moderation.BanRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketBans)
		if bucket == nil {
			return nil
		}

		data := bucket.Get(idKey(userID))
		if data == nil {
			return nil
		}

		rec = &moderation.BanRecord{}
		return json.Unmarshal(data, rec)
	})

	return rec, err
}

// DeleteBan removes a ban record and reports whether one existed. The
// check and the delete share a transaction, so of two racing expiry
// checks exactly one observes the deletion.
func (s *Store) DeleteBan(ctx context.Context, userID int64) (bool, error) {
	var deleted bool

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketBans)
		if bucket == nil {
			return nil
		}

		if bucket.Get(idKey(userID)) == nil {
			return nil
		}

		deleted = true
		return bucket.Delete(idKey(userID))
	})

	return deleted, err
}

// ListBans returns all ban records in user-id order.
func (s *Store) ListBans(ctx context.Context) ([]moderation.BanRecord, error) {
	var records []moderation.BanRecord

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketBans)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var rec moderation.BanRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return err
			}
			records = append(records, rec)
			return nil
		})
	})

	return records, err
}
