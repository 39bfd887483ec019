package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/girino/relay-selector/logging"
)

// BadgerStore is a Store backed directly by github.com/dgraph-io/badger/v4,
// grounded on wotrlay/main.go's badger.BadgerBackend{Path: "./badger"}
// construction. wotrlay reaches badger through fiatjaf/eventstore/badger,
// a wrapper shaped around Nostr events; our records are relay-selector
// statistics, not Nostr events, so this drops straight to the KV engine
// eventstore/badger itself depends on, and keys records
// "<storeName>:<variant>:<url>".
type BadgerStore struct {
	db *badger.DB
}

// OpenBadgerStore opens (creating if absent) a badger database at path.
func OpenBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("store: opening badger at %s: %w", path, err)
	}
	return &BadgerStore{db: db}, nil
}

// Close releases the underlying badger database.
func (b *BadgerStore) Close() error {
	return b.db.Close()
}

// GetAll implements Store.
func (b *BadgerStore) GetAll(_ context.Context, storeName string) ([]Record, error) {
	prefix := []byte(storeName + ":")
	var out []Record

	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var rec Record
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return fmt.Errorf("store: decoding record %s: %w", item.Key(), err)
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// PutAll implements Store. It replaces storeName's entire contents in a
// single read-write transaction: existing keys under the store's prefix
// are deleted, then the new records are written.
func (b *BadgerStore) PutAll(_ context.Context, storeName string, records []Record) error {
	prefix := []byte(storeName + ":")

	return b.db.Update(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		var staleKeys [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			staleKeys = append(staleKeys, append([]byte(nil), it.Item().Key()...))
		}
		it.Close()

		for _, k := range staleKeys {
			if err := txn.Delete(k); err != nil {
				return fmt.Errorf("store: clearing stale key %s: %w", k, err)
			}
		}

		for _, rec := range records {
			val, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("store: encoding record %s/%s: %w", rec.VariantName, rec.URL, err)
			}
			key := badgerKey(storeName, rec)
			if err := txn.Set(key, val); err != nil {
				return fmt.Errorf("store: writing record %s/%s: %w", rec.VariantName, rec.URL, err)
			}
		}

		logging.DebugMethod("store", "PutAll", "wrote %d records to %s", len(records), storeName)
		return nil
	})
}

func badgerKey(storeName string, rec Record) []byte {
	return []byte(storeName + ":" + rec.VariantName + ":" + rec.URL)
}
