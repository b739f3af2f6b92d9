package batch

import (
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const (
	contractBucket   = "contract_index"
	submissionBucket = "submissions"
)

// Store persists the per-run audit artifacts: the contract index built
// at the start of a run, and the ledger of already-submitted mutations
// that guards against resubmitting after a crash mid-run.
type Store interface {
	// SaveContractIndex persists the code -> id mapping for audit. It
	// is never read back by the same run.
	SaveContractIndex(index map[string]string) error

	// WasSubmitted reports whether a mutation for the expense was
	// already recorded in the given competence.
	WasSubmitted(expenseID, competence string) (bool, error)

	// MarkSubmitted records a successful mutation.
	MarkSubmitted(expenseID, competence string) error

	// Close closes the store
	Close() error
}

// BoltStore implements the Store interface using BoltDB.
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore creates a new BoltStore instance.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(contractBucket)); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(submissionBucket)); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// SaveContractIndex persists the contract code -> id mapping.
func (b *BoltStore) SaveContractIndex(index map[string]string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(contractBucket))
		for code, id := range index {
			if err := bucket.Put([]byte(code), []byte(id)); err != nil {
				return fmt.Errorf("storing contract %s: %w", code, err)
			}
		}
		return nil
	})
}

func submissionKey(expenseID, competence string) []byte {
	return []byte(expenseID + "@" + competence)
}

// WasSubmitted reports whether the expense was already mutated in the
// given competence.
func (b *BoltStore) WasSubmitted(expenseID, competence string) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(submissionBucket))
		found = bucket.Get(submissionKey(expenseID, competence)) != nil
		return nil
	})
	if err != nil {
		return false, err
	}
	return found, nil
}

// MarkSubmitted records a successful mutation for the expense.
func (b *BoltStore) MarkSubmitted(expenseID, competence string) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(submissionBucket))
		stamp := time.Now().UTC().Format(time.RFC3339)
		return bucket.Put(submissionKey(expenseID, competence), []byte(stamp))
	})
}

// Close closes the database connection.
func (b *BoltStore) Close() error {
	return b.db.Close()
}
