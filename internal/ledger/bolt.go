package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const bucketName = "expenses"

// BoltStore implements Store using BoltDB
type BoltStore struct {
	db *bbolt.DB
}

// NewBoltStore opens (or creates) the ledger file at path
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Get returns the expenses stored under key
func (b *BoltStore) Get(_ context.Context, key string) ([]Expense, error) {
	expenses := make([]Expense, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &expenses); err != nil {
			return fmt.Errorf("unmarshaling expenses for %s: %w", key, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// Put replaces the expenses stored under key
func (b *BoltStore) Put(_ context.Context, key string, expenses []Expense) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(bucketName))
		if len(expenses) == 0 {
			return bucket.Delete([]byte(key))
		}
		data, err := json.Marshal(expenses)
		if err != nil {
			return fmt.Errorf("marshaling expenses: %w", err)
		}
		return bucket.Put([]byte(key), data)
	})
}

// Close closes the database file
func (b *BoltStore) Close() error {
	return b.db.Close()
}
