// Package boltstore provides persistent storage using BoltDB (bbolt).
// It implements the moderation.Store interface for the bot's four record
// kinds: user links, admins, bans and relayed messages. BoltDB serializes
// update transactions, which gives every single-record mutation the
// atomicity the moderation workflow relies on.
package boltstore

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/VizardWorker/anonrelay/internal/moderation"
)

// Bucket names for organizing data
var (
	// BucketLinks stores UserLink records keyed by user id
	BucketLinks = []byte("links")

	// BucketLinksByToken indexes user ids by link token
	BucketLinksByToken = []byte("links_by_token")

	// BucketAdmins stores the admin set keyed by admin id
	BucketAdmins = []byte("admins")

	// BucketBans stores BanRecord entries keyed by user id
	BucketBans = []byte("bans")

	// BucketMessages stores relayed messages keyed by sequence id
	BucketMessages = []byte("messages")
)

// Store wraps a BoltDB database and implements moderation.Store.
type Store struct {
	db *bolt.DB
}

var _ moderation.Store = (*Store)(nil)

// Options configures the BoltDB store.
type Options struct {
	// Path to the database file. Parent directories will be created if needed.
	Path string

	// Timeout for obtaining a file lock on the database.
	// If zero, a default of 5 seconds is used.
	Timeout time.Duration

	// FileMode for creating the database file.
	// If zero, 0600 is used.
	FileMode os.FileMode
}

// DefaultOptions returns sensible defaults for development.
func DefaultOptions() Options {
	return Options{
		Path:     "anonrelay.db",
		Timeout:  5 * time.Second,
		FileMode: 0600,
	}
}

// Open creates or opens a BoltDB database at the specified path.
// It creates all necessary buckets if they don't exist.
func Open(opts Options) (*Store, error) {
	if opts.Path == "" {
		opts.Path = "anonrelay.db"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0600
	}

	// Ensure parent directory exists
	dir := filepath.Dir(opts.Path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := bolt.Open(opts.Path, opts.FileMode, &bolt.Options{
		Timeout: opts.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		buckets := [][]byte{
			BucketLinks,
			BucketLinksByToken,
			BucketAdmins,
			BucketBans,
			BucketMessages,
		}

		for _, bucket := range buckets {
			_, err := tx.CreateBucketIfNotExists(bucket)
			if err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}

		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB returns the underlying BoltDB instance for advanced operations.
func (s *Store) DB() *bolt.DB {
	return s.db
}

// Stats returns database statistics.
func (s *Store) Stats() bolt.Stats {
	return s.db.Stats()
}

// idKey encodes a user or admin id as a fixed-width big-endian key so
// bucket iteration stays in numeric order.
func idKey(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

// seqKey encodes a message sequence id.
func seqKey(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}
