// ABOUTME: Local persistent key/value storage backed by BadgerDB
// ABOUTME: Keeps the auth token and current user; the directory is locked only per operation
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/Duckiduc/omw-crm-sub001/models"
)

const (
	keyToken = "session/token"
	keyUser  = "session/user"
)

// lockRetries bounds how long an operation waits for another process to
// release the directory.
const (
	lockRetries = 40
	lockBackoff = 50 * time.Millisecond
)

// Store wraps a Badger database. A directory store opens Badger only for the
// length of one operation so several clients can share the same session.
type Store struct {
	path string
	mem  *badger.DB
	mu   sync.Mutex
}

// Open prepares the store directory at path, creating it if needed.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	s := &Store{path: path}
	if err := s.with(func(*badger.DB) error { return nil }); err != nil {
		return nil, err
	}
	return s, nil
}

// OpenInMemory returns a store that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory store: %w", err)
	}
	return &Store{mem: db}, nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mem == nil {
		return nil
	}
	err := s.mem.Close()
	s.mem = nil
	return err
}

func isLocked(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Cannot acquire directory lock")
}

// with runs fn against an open database, waiting out another process that
// holds the directory lock.
func (s *Store) with(fn func(db *badger.DB) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mem != nil {
		return fn(s.mem)
	}
	if s.path == "" {
		return errors.New("store is closed")
	}

	opts := badger.DefaultOptions(s.path).WithLogger(nil)
	var (
		db  *badger.DB
		err error
	)
	for i := 0; i < lockRetries; i++ {
		if db, err = badger.Open(opts); !isLocked(err) {
			break
		}
		time.Sleep(lockBackoff)
	}
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer db.Close()
	return fn(db)
}

// Get returns the value for key. ok is false when the key is absent.
func (s *Store) Get(key string) (value []byte, ok bool, err error) {
	err = s.with(func(db *badger.DB) error {
		return db.View(func(txn *badger.Txn) error {
			item, err := txn.Get([]byte(key))
			if err != nil {
				return err
			}
			value, err = item.ValueCopy(nil)
			return err
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

func (s *Store) Set(key string, value []byte) error {
	return s.update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	})
}

func (s *Store) Delete(key string) error {
	return s.update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (s *Store) update(fn func(txn *badger.Txn) error) error {
	return s.with(func(db *badger.DB) error { return db.Update(fn) })
}

// Keys returns every key starting with prefix.
func (s *Store) Keys(prefix string) ([]string, error) {
	var keys []string
	err := s.with(func(db *badger.DB) error {
		return db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			defer it.Close()
			p := []byte(prefix)
			for it.Seek(p); it.ValidForPrefix(p); it.Next() {
				keys = append(keys, string(it.Item().KeyCopy(nil)))
			}
			return nil
		})
	})
	return keys, err
}

// LoadSession returns the persisted token and user. Both are empty when no
// one is logged in.
func (s *Store) LoadSession() (string, *models.User, error) {
	token, ok, err := s.Get(keyToken)
	if err != nil || !ok {
		return "", nil, err
	}

	var user *models.User
	raw, ok, err := s.Get(keyUser)
	if err != nil {
		return "", nil, err
	}
	if ok {
		user = &models.User{}
		if err := json.Unmarshal(raw, user); err != nil {
			user = nil
		}
	}
	return strings.TrimSpace(string(token)), user, nil
}

// SaveSession persists token and user in a single transaction.
func (s *Store) SaveSession(token string, user *models.User) error {
	var raw []byte
	if user != nil {
		var err error
		if raw, err = json.Marshal(user); err != nil {
			return fmt.Errorf("failed to encode user: %w", err)
		}
	}

	return s.update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keyToken), []byte(token)); err != nil {
			return err
		}
		if raw == nil {
			return txn.Delete([]byte(keyUser))
		}
		return txn.Set([]byte(keyUser), raw)
	})
}

// ClearSession forgets the token and user.
func (s *Store) ClearSession() error {
	return s.update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(keyToken)); err != nil {
			return err
		}
		return txn.Delete([]byte(keyUser))
	})
}
