package boltstore

import (
	"context"
	"encoding/binary"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/VizardWorker/anonrelay/internal/moderation"
)

// AddAdmin inserts an admin id. No-op if already present.
func (s *Store) AddAdmin(ctx context.Context, id int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketAdmins)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketAdmins)
		}

		return bucket.Put(idKey(id), []byte{1})
	})
}

// RemoveAdmin deletes an admin id. The membership, last-admin and
// self-removal guards are evaluated inside the same transaction as the
// delete, so the admin set can never be emptied by racing removals.
func (s *Store) RemoveAdmin(ctx context.Context, actor, target int64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketAdmins)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketAdmins)
		}

		count := 0
		cursor := bucket.Cursor()
		for k, _ := cursor.First(); k != nil && count < 2; k, _ = cursor.Next() {
			count++
		}
		if count <= 1 {
			return moderation.ErrLastAdmin
		}
		if actor == target {
			return moderation.ErrSelfRemoval
		}
		if bucket.Get(idKey(target)) == nil {
			return moderation.ErrNotAdmin
		}

		return bucket.Delete(idKey(target))
	})
}

// IsAdmin checks admin set membership.
func (s *Store) IsAdmin(ctx context.Context, id int64) bool {
	var isAdmin bool

	s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketAdmins)
		if bucket == nil {
			return nil
		}

		isAdmin = bucket.Get(idKey(id)) != nil
		return nil
	})

	return isAdmin
}

// ListAdmins returns all admin ids in numeric order.
func (s *Store) ListAdmins(ctx context.Context) ([]int64, error) {
	var admins []int64

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketAdmins)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			admins = append(admins, int64(binary.BigEndian.Uint64(k)))
			return nil
		})
	})

	return admins, err
}
