package audit

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"
)

var (
	eventsBucket = []byte("events")
	metaBucket   = []byte("meta")
	lastHashKey  = []byte("last_hash")
)

// genesisHash anchors the first entry of a chain, matching the width of a
// real SHA-256 hex digest so genesis and ordinary links are
// indistinguishable in storage.
const genesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Entry is one link in the audit chain.
type Entry struct {
	ID         string `json:"id"`
	Event      string `json:"event"`
	RemoteAddr string `json:"remote_addr"`
	Username   string `json:"username"`
	Reason     string `json:"reason,omitempty"`
	CreatedAt  string `json:"created_at"`
	PrevHash   string `json:"prev_hash"`
}

// Store is a bbolt-backed, hash-chained append-only log.
type Store struct {
	db *bbolt.DB
}

// Open opens (creating if necessary) a Store at path.
func Open(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("audit: opening store at %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(eventsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(metaBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: initializing buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Append writes entry to the chain, filling in its ID and PrevHash from the
// store's current head.
func (s *Store) Append(entry Entry) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		events := tx.Bucket(eventsBucket)

		prevHash := genesisHash
		if v := meta.Get(lastHashKey); v != nil {
			prevHash = string(v)
		}

		entry.ID = uuid.NewString()
		entry.PrevHash = prevHash

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}

		seq, err := events.NextSequence()
		if err != nil {
			return err
		}
		if err := events.Put(seqKey(seq), data); err != nil {
			return err
		}

		newHash := chainHash(entry.ID, entry.PrevHash, entry.CreatedAt)
		return meta.Put(lastHashKey, []byte(newHash))
	})
}

// All returns every entry in the chain, oldest first.
func (s *Store) All() ([]Entry, error) {
	var entries []Entry
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(eventsBucket)
		return b.ForEach(func(_, v []byte) error {
			var e Entry
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		})
	})
	return entries, err
}

func seqKey(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

// chainHash computes the SHA-256 link binding an entry to its predecessor:
// hash = SHA-256(id || prev_hash || created_at).
func chainHash(id, prevHash, createdAt string) string {
	h := sha256.Sum256([]byte(id + prevHash + createdAt))
	return hex.EncodeToString(h[:])
}
