package chat

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

var sessionsBucket = []byte("sessions")

// Store persists session history in a bbolt file, one key per session ID
// holding the full history as JSON.
type Store struct {
	db     *bolt.DB
	logger *zap.Logger
}

// OpenStore opens (or creates) the bbolt database at path.
func OpenStore(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening chat database %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating sessions bucket: %w", err)
	}

	logger.Info("chat store opened", zap.String("path", path))
	return &Store{db: db, logger: logger}, nil
}

// Get returns the history for a session. A session that was never written
// yields a nil history and no error.
func (s *Store) Get(sessionID string) ([]Message, error) {
	var history []Message
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sessionsBucket).Get([]byte(sessionID))
		if data == nil {
			return nil
		}
		return json.Unmarshal(data, &history)
	})
	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", sessionID, err)
	}
	return history, nil
}

// Put replaces the stored history for a session. Concurrent writers to the
// same session resolve last-writer-wins at this full-history granularity.
func (s *Store) Put(sessionID string, history []Message) error {
	data, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sessionID, err)
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Put([]byte(sessionID), data)
	})
	if err != nil {
		return fmt.Errorf("writing session %s: %w", sessionID, err)
	}
	return nil
}

// Delete removes a session and reports whether it existed.
func (s *Store) Delete(sessionID string) (bool, error) {
	existed := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(sessionsBucket)
		if bucket.Get([]byte(sessionID)) == nil {
			return nil
		}
		existed = true
		return bucket.Delete([]byte(sessionID))
	})
	if err != nil {
		return false, fmt.Errorf("deleting session %s: %w", sessionID, err)
	}
	return existed, nil
}

// Close closes the underlying database file.
func (s *Store) Close() error {
	return s.db.Close()
}
