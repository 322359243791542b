// Shopper Spectrum - Retail Customer Segmentation and Product Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shopper-spectrum

package artifacts

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dgraph-io/badger/v4"
)

const badgerPrefix = "artifact/"

// BadgerStore keeps artifacts in an embedded BadgerDB.
type BadgerStore struct {
	db *badger.DB
}

var _ Store = (*BadgerStore)(nil)

// BadgerConfig configures BadgerStore.
type BadgerConfig struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in memory (tests).
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool
}

// OpenBadgerStore opens (or creates) a BadgerDB-backed store.
func OpenBadgerStore(cfg BadgerConfig) (*BadgerStore, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, errors.New("badger path is empty")
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.SyncWrites = cfg.SyncWrites

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}
	return &BadgerStore{db: db}, nil
}

// key layout: "artifact/{name}/" + 8-byte big-endian version, so that
// byte order equals version order within a name.
func badgerKey(name string, version int) []byte {
	prefix := badgerNamePrefix(name)
	key := make([]byte, len(prefix)+8)
	copy(key, prefix)
	binary.BigEndian.PutUint64(key[len(prefix):], uint64(version))
	return key
}

func badgerNamePrefix(name string) []byte {
	return []byte(badgerPrefix + name + "/")
}

func parseBadgerKey(key []byte) (string, int, bool) {
	if len(key) < len(badgerPrefix)+9 || !strings.HasPrefix(string(key), badgerPrefix) {
		return "", 0, false
	}
	name := string(key[len(badgerPrefix) : len(key)-9])
	version := int(binary.BigEndian.Uint64(key[len(key)-8:]))
	return name, version, true
}

// Save stores the artifact in a single transaction.
//
//nolint:gocritic // meta passed by value is acceptable for this write operation
func (s *BadgerStore) Save(ctx context.Context, name string, version int, data any, meta Metadata) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec, err := encode(name, version, data, meta)
	if err != nil {
		return nil, err
	}
	payload, err := marshalRecord(rec)
	if err != nil {
		return nil, err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(badgerKey(name, version), payload))
	})
	if err != nil {
		return nil, fmt.Errorf("write artifact: %w", err)
	}
	return &rec.Metadata, nil
}

// Load reads and verifies an artifact. Version 0 loads the latest.
func (s *BadgerStore) Load(ctx context.Context, name string, version int, target any) (*Metadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if version == 0 {
		latest, ok, err := s.LatestVersion(ctx, name)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		version = latest
	}

	var payload []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(name, version))
		if err != nil {
			return err
		}
		payload, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: %s v%d", ErrNotFound, name, version)
	}
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}

	rec, err := unmarshalRecord(payload)
	if err != nil {
		return nil, err
	}
	if err := decode(rec, target); err != nil {
		return nil, err
	}
	return &rec.Metadata, nil
}

// versions returns all stored versions of name in ascending order.
func (s *BadgerStore) versions(name string) ([]int, error) {
	var out []int
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := badgerNamePrefix(name)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if _, v, ok := parseBadgerKey(it.Item().Key()); ok {
				out = append(out, v)
			}
		}
		return nil
	})
	return out, err
}

// LatestVersion returns the highest stored version of name.
func (s *BadgerStore) LatestVersion(_ context.Context, name string) (int, bool, error) {
	versions, err := s.versions(name)
	if err != nil {
		return 0, false, fmt.Errorf("list versions: %w", err)
	}
	if len(versions) == 0 {
		return 0, false, nil
	}
	return versions[len(versions)-1], true, nil
}

// List returns metadata for the latest version of every artifact, sorted by name.
func (s *BadgerStore) List(ctx context.Context) ([]Metadata, error) {
	latest := make(map[string]Metadata)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(badgerPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			name, _, ok := parseBadgerKey(it.Item().Key())
			if !ok {
				continue
			}
			var rec *record
			err := it.Item().Value(func(val []byte) error {
				var err error
				rec, err = unmarshalRecord(val)
				return err
			})
			if err != nil {
				continue
			}
			// Keys iterate in ascending version order within a name.
			latest[name] = rec.Metadata
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}

	out := make([]Metadata, 0, len(latest))
	for _, m := range latest {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Prune removes all but the newest keep versions of name.
func (s *BadgerStore) Prune(_ context.Context, name string, keep int) error {
	if keep < 1 {
		keep = 1
	}
	versions, err := s.versions(name)
	if err != nil {
		return fmt.Errorf("list versions: %w", err)
	}
	if len(versions) <= keep {
		return nil
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, v := range versions[:len(versions)-keep] {
			if err := txn.Delete(badgerKey(name, v)); err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}
		return nil
	})
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}
