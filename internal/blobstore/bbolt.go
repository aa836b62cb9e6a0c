package blobstore

import (
	"context"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

// bucketName is the single bucket every crawl result key lives in.
const bucketName = "crawl_results"

// BBolt is a bbolt-backed BlobStore, grounded on
// TheSnook-polyester/storage/bbolt.go's open/bucket/Update pattern.
type BBolt struct {
	db *bbolt.DB
}

// OpenBBolt opens (creating if absent) a bbolt database at path and
// ensures bucketName exists.
func OpenBBolt(path string) (*BBolt, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("blobstore: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("blobstore: create bucket: %w", err)
	}
	return &BBolt{db: db}, nil
}

func (b *BBolt) Put(_ context.Context, key string, value []byte) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), value)
	})
}

func (b *BBolt) Get(_ context.Context, key string) ([]byte, bool, error) {
	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if v != nil {
			out = make([]byte, len(v))
			copy(out, v)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, out != nil, nil
}

// Close closes the underlying database handle.
func (b *BBolt) Close() error {
	return b.db.Close()
}
