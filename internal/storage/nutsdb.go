package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/nutsdb/nutsdb"
)

const nutsdbBucket = "taskcal"

// NutsDB stores records in an embedded nutsdb BTree bucket.
type NutsDB struct {
	db *nutsdb.DB
}

// NewNutsDB opens (or creates) a nutsdb database in dir.
func NewNutsDB(dir string) (*NutsDB, error) {
	if dir == "" {
		return nil, fmt.Errorf("data directory is required for the nutsdb backend")
	}

	opts := nutsdb.DefaultOptions
	opts.Dir = dir
	db, err := nutsdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open nutsdb: %w", err)
	}

	if err := db.Update(func(tx *nutsdb.Tx) error {
		return tx.NewBucket(nutsdb.DataStructureBTree, nutsdbBucket)
	}); err != nil && !errors.Is(err, nutsdb.ErrBucketAlreadyExist) {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &NutsDB{db: db}, nil
}

func (n *NutsDB) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := n.db.View(func(tx *nutsdb.Tx) error {
		v, err := tx.Get(nutsdbBucket, []byte(key))
		if err != nil {
			return err
		}
		out = make([]byte, len(v))
		copy(out, v)
		return nil
	})
	if err != nil {
		if errors.Is(err, nutsdb.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return out, nil
}

func (n *NutsDB) Put(_ context.Context, key string, value []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if err := n.db.Update(func(tx *nutsdb.Tx) error {
		return tx.Put(nutsdbBucket, []byte(key), value, nutsdb.Persistent)
	}); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

func (n *NutsDB) Delete(_ context.Context, key string) error {
	err := n.db.Update(func(tx *nutsdb.Tx) error {
		return tx.Delete(nutsdbBucket, []byte(key))
	})
	if err != nil && !errors.Is(err, nutsdb.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

func (n *NutsDB) Name() string { return TypeNutsDB }

func (n *NutsDB) Close() error {
	return n.db.Close()
}
