// ABOUTME: Raw ingestion batch archive backed by Badger.
// ABOUTME: Stores request bodies verbatim for replay and debugging.
package archive

import (
	"fmt"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v3"
)

// Archive stores raw exporter payloads keyed by received-at and session.
type Archive struct {
	db *badger.DB
}

// Entry describes one archived batch without its body.
type Entry struct {
	Key        string    `json:"key"`
	ReceivedAt time.Time `json:"received_at"`
	SessionID  string    `json:"session_id"`
	Size       int64     `json:"size_bytes"`
}

// Open opens (or creates) the archive at dir.
func Open(dir string) (*Archive, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return &Archive{db: db}, nil
}

// Put stores one raw batch body and returns its key. Keys are
// `<received-at>/<session-id>` so iteration is chronological.
func (a *Archive) Put(sessionID string, body []byte) (string, error) {
	key := time.Now().UTC().Format(time.RFC3339Nano) + "/" + sessionID
	err := a.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), body)
	})
	if err != nil {
		return "", fmt.Errorf("archive batch: %w", err)
	}
	return key, nil
}

// Get retrieves the raw body of one archived batch.
func (a *Archive) Get(key string) ([]byte, error) {
	var body []byte
	err := a.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		body, err = item.ValueCopy(nil)
		return err
	})
	if err == badger.ErrKeyNotFound {
		return nil, fmt.Errorf("archived batch %s not found", key)
	}
	if err != nil {
		return nil, fmt.Errorf("read archived batch: %w", err)
	}
	return body, nil
}

// List returns every archived batch, oldest first.
func (a *Archive) List() ([]Entry, error) {
	var entries []Entry
	err := a.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.Key())
			entries = append(entries, Entry{
				Key:        key,
				ReceivedAt: keyTime(key),
				SessionID:  keySession(key),
				Size:       item.ValueSize(),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	return entries, nil
}

// Close flushes and closes the archive.
func (a *Archive) Close() error {
	return a.db.Close()
}

func keyTime(key string) time.Time {
	if i := strings.IndexByte(key, '/'); i > 0 {
		if t, err := time.Parse(time.RFC3339Nano, key[:i]); err == nil {
			return t
		}
	}
	return time.Time{}
}

func keySession(key string) string {
	if i := strings.IndexByte(key, '/'); i >= 0 {
		return key[i+1:]
	}
	return ""
}
