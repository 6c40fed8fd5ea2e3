package boltstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/VizardWorker/anonrelay/internal/moderation"
)

// AppendMessage stores a relayed message and returns its auto-incremented
// id. Ids come from the bucket sequence and are never reused.
func (s *Store) AppendMessage(ctx context.Context, ownerID, senderID int64, text string) (uint64, error) {
	var id uint64

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketMessages)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketMessages)
		}

		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("failed to allocate message id: %w", err)
		}

		msg := moderation.Message{
			ID:       seq,
			OwnerID:  ownerID,
			SenderID: senderID,
			Text:     text,
			SentAt:   time.Now(),
		}
		data, err := json.Marshal(msg)
		if err != nil {
			return fmt.Errorf("failed to marshal message: %w", err)
		}

		if err := bucket.Put(seqKey(seq), data); err != nil {
			return err
		}
		id = seq
		return nil
	})

	return id, err
}

// GetMessage retrieves a message by id, or nil once it has been resolved.
func (s *Store) GetMessage(ctx context.Context, id uint64) (*moderation.Message, error) {
	var msg *moderation.Message

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketMessages)
		if bucket == nil {
			return nil
		}

		data := bucket.Get(seqKey(id))
		if data == nil {
			return nil
		}

		msg = &moderation.Message{}
		return json.Unmarshal(data, msg)
	})

	return msg, err
}

// FlagMessage sets the reported flag and returns the message snapshot.
// Returns nil for ids that no longer exist; a stale report tap must be a
// no-op, not an error.
func (s *Store) FlagMessage(ctx context.Context, id uint64) (*moderation.Message, error) {
	var msg *moderation.Message

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketMessages)
		if bucket == nil {
			return fmt.Errorf("bucket not found: %s", BucketMessages)
		}

		data := bucket.Get(seqKey(id))
		if data == nil {
			return nil
		}

		var m moderation.Message
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}

		m.Reported = true
		newData, err := json.Marshal(m)
		if err != nil {
			return err
		}
		if err := bucket.Put(seqKey(id), newData); err != nil {
			return err
		}

		msg = &m
		return nil
	})

	return msg, err
}

// DeleteMessage removes a message row and reports whether it existed.
// The second of two racing resolutions sees false.
func (s *Store) DeleteMessage(ctx context.Context, id uint64) (bool, error) {
	var deleted bool

	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketMessages)
		if bucket == nil {
			return nil
		}

		if bucket.Get(seqKey(id)) == nil {
			return nil
		}

		deleted = true
		return bucket.Delete(seqKey(id))
	})

	return deleted, err
}

// ListReported returns all messages with the reported flag set, in id
// order.
func (s *Store) ListReported(ctx context.Context) ([]moderation.Message, error) {
	var messages []moderation.Message

	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(BucketMessages)
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var msg moderation.Message
			if err := json.Unmarshal(v, &msg); err != nil {
				return err
			}
			if msg.Reported {
				messages = append(messages, msg)
			}
			return nil
		})
	})

	return messages, err
}
