// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package snapshot persists a library as flat category paths and rows in
// BadgerDB.
//
// # Key Layout
//
//	meta/current                  JSON Meta naming the live generation
//	snap/<generation>/c/<seq>     one category path, in preorder
//	snap/<generation>/r/<seq>     one CSV row
//
// Sequence numbers are zero-padded so key order is save order, and every
// category key sorts before every row key. Categories are stored so empty
// categories and sibling order survive a round trip.
//
// Save writes a complete new generation, then switches meta/current to it
// in one transaction, then drops the previous generation. A crash between
// the steps leaves either the old or the new generation current, never a
// mix. Orphaned rows from an interrupted save are removed by the next Save.
package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/AleutianAI/AleutianShelf/pkg/logging"
	shelfbadger "github.com/AleutianAI/AleutianShelf/services/catalog/storage/badger"
	"github.com/AleutianAI/AleutianShelf/services/catalog/csvrow"
)

const (
	metaKey    = "meta/current"
	snapPrefix = "snap/"
)

var (
	ErrNoSnapshot      = errors.New("no snapshot saved")
	ErrCorruptSnapshot = errors.New("snapshot is corrupt")
)

// Meta describes one saved generation.
type Meta struct {
	Generation string    `json:"generation"`
	RootName   string    `json:"root_name"`
	Categories int       `json:"categories"`
	Rows       int       `json:"rows"`
	SavedAt    time.Time `json:"saved_at"`
}

// Snapshot is a loaded generation.
type Snapshot struct {
	Meta       Meta
	Categories []string
	Rows       []csvrow.Row
}

// Store reads and writes snapshots.
//
// # Thread Safety
//
// Load is safe for concurrent use. Concurrent Saves are serialized by
// badger's conflict detection on meta/current; the loser returns
// badger.ErrConflict and its rows are dropped.
type Store struct {
	db     *shelfbadger.DB
	logger *logging.Logger
	now    func() time.Time
}

// New returns a Store over db. A nil logger discards logs.
func New(db *shelfbadger.DB, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Store{db: db, logger: logger, now: time.Now}
}

func genPrefix(gen string) []byte {
	return []byte(snapPrefix + gen + "/")
}

const (
	kindCategory = "c"
	kindRow      = "r"
)

func itemKey(gen, kind string, seq int) []byte {
	return []byte(fmt.Sprintf("%s%s/%s/%010d", snapPrefix, gen, kind, seq))
}

func rowKey(gen string, seq int) []byte {
	return itemKey(gen, kindRow, seq)
}

func categoryKey(gen string, seq int) []byte {
	return itemKey(gen, kindCategory, seq)
}

// Save writes categories and rows as a new generation and makes it current.
//
// categories lists category paths in preorder, root excluded; rows are the
// books in export order.
func (s *Store) Save(ctx context.Context, rootName string, categories []string, rows []csvrow.Row) (Meta, error) {
	meta := Meta{
		Generation: uuid.NewString(),
		RootName:   rootName,
		Categories: len(categories),
		Rows:       len(rows),
		SavedAt:    s.now().UTC(),
	}

	err := s.db.WithBatch(ctx, func(wb *badger.WriteBatch) error {
		for i, path := range categories {
			if err := wb.Set(categoryKey(meta.Generation, i), []byte(path)); err != nil {
				return fmt.Errorf("write category %d: %w", i, err)
			}
		}
		for i, row := range rows {
			if err := wb.Set(rowKey(meta.Generation, i), []byte(csvrow.FormatRow(row))); err != nil {
				return fmt.Errorf("write row %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		s.drop(meta.Generation)
		return Meta{}, fmt.Errorf("save rows: %w", err)
	}

	encoded, err := json.Marshal(meta)
	if err != nil {
		s.drop(meta.Generation)
		return Meta{}, fmt.Errorf("encode meta: %w", err)
	}

	var previous string
	err = s.db.WithTxn(ctx, func(txn *badger.Txn) error {
		old, err := readMeta(txn)
		switch {
		case err == nil:
			previous = old.Generation
		case !errors.Is(err, ErrNoSnapshot):
			return err
		}
		return txn.Set([]byte(metaKey), encoded)
	})
	if err != nil {
		s.drop(meta.Generation)
		return Meta{}, fmt.Errorf("switch generation: %w", err)
	}

	s.dropStale(ctx, meta.Generation)
	s.logger.Info("snapshot saved",
		"generation", meta.Generation,
		"previous", previous,
		"categories", meta.Categories,
		"rows", meta.Rows)
	return meta, nil
}

// Load reads the current generation.
//
// # Outputs
//
//   - Snapshot: Meta and rows in saved order
//   - error: ErrNoSnapshot before the first Save; ErrCorruptSnapshot when a
//     row does not parse or the row count differs from Meta
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		meta, err := readMeta(txn)
		if err != nil {
			return err
		}
		snap.Meta = meta
		snap.Categories = make([]string, 0, meta.Categories)
		snap.Rows = make([]csvrow.Row, 0, meta.Rows)

		prefix := genPrefix(meta.Generation)
		it := txn.NewIterator(badger.IteratorOptions{Prefix: prefix, PrefetchValues: true, PrefetchSize: 100})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			kind, _, _ := strings.Cut(strings.TrimPrefix(string(item.Key()), string(prefix)), "/")
			err := item.Value(func(val []byte) error {
				switch kind {
				case kindCategory:
					snap.Categories = append(snap.Categories, string(val))
				case kindRow:
					row, err := csvrow.ParseLine(string(val))
					if err != nil {
						return fmt.Errorf("%w: key %s: %w", ErrCorruptSnapshot, item.Key(), err)
					}
					snap.Rows = append(snap.Rows, row)
				default:
					return fmt.Errorf("%w: unexpected key %s", ErrCorruptSnapshot, item.Key())
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		if len(snap.Rows) != meta.Rows || len(snap.Categories) != meta.Categories {
			return fmt.Errorf("%w: generation %s has %d categories and %d rows, meta says %d and %d",
				ErrCorruptSnapshot, meta.Generation, len(snap.Categories), len(snap.Rows), meta.Categories, meta.Rows)
		}
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// Current returns the meta of the current generation without reading rows.
func (s *Store) Current(ctx context.Context) (Meta, error) {
	var meta Meta
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		var err error
		meta, err = readMeta(txn)
		return err
	})
	return meta, err
}

func readMeta(txn *badger.Txn) (Meta, error) {
	item, err := txn.Get([]byte(metaKey))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Meta{}, ErrNoSnapshot
	}
	if err != nil {
		return Meta{}, fmt.Errorf("read meta: %w", err)
	}
	var meta Meta
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &meta)
	})
	if err != nil {
		return Meta{}, fmt.Errorf("%w: meta: %w", ErrCorruptSnapshot, err)
	}
	return meta, nil
}

// dropStale removes the rows of every generation other than keep.
func (s *Store) dropStale(ctx context.Context, keep string) {
	s.deleteRows(ctx, func(gen string) bool { return gen != keep })
}

// drop removes the rows of gen.
func (s *Store) drop(gen string) {
	s.deleteRows(context.Background(), func(g string) bool { return g == gen })
}

// deleteRows deletes every row key whose generation satisfies match.
// Failures are logged; leftover rows are collected by a later Save.
func (s *Store) deleteRows(ctx context.Context, match func(gen string) bool) {
	var keys [][]byte
	err := s.db.WithReadTxn(ctx, func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(snapPrefix)})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			rest := strings.TrimPrefix(string(it.Item().Key()), snapPrefix)
			gen, _, _ := strings.Cut(rest, "/")
			if match(gen) {
				keys = append(keys, it.Item().KeyCopy(nil))
			}
		}
		return nil
	})
	if err == nil && len(keys) > 0 {
		err = s.db.WithBatch(ctx, func(wb *badger.WriteBatch) error {
			for _, k := range keys {
				if err := wb.Delete(k); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err != nil {
		s.logger.Warn("deleting snapshot rows failed", "keys", len(keys), "error", err)
		return
	}
	if len(keys) > 0 {
		s.logger.Debug("deleted snapshot rows", "keys", len(keys))
	}
}
