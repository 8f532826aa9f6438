// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package ldb

import (
	"errors"
	"fmt"

	"github.com/ainblockchain/worldstate/backend/snapshot"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

// TableSpace divides the key space of the LevelDB instance by a key prefix.
type TableSpace byte

const (
	// SnapshotKey is the table space of state snapshots keyed by block.
	SnapshotKey TableSpace = 'S'
)

// DbKey is a table space prefix followed by a big-endian block number.
type DbKey [9]byte

func (d DbKey) ToBytes() []byte {
	return d[:]
}

// ToDBKey converts a block number into its key in the given table space.
func ToDBKey(t TableSpace, block uint64) DbKey {
	var res DbKey
	res[0] = byte(t)
	copy(res[1:], snapshot.BlockKey(block))
	return res
}

// Store is a snapshot store backed by LevelDB.
type Store struct {
	db *leveldb.DB
}

// Open opens or creates a LevelDB based snapshot store in the given directory.
func Open(path string, options *opt.Options) (*Store, error) {
	db, err := leveldb.OpenFile(path, options)
	if err != nil {
		return nil, fmt.Errorf("failed to open LevelDB in %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Put(record snapshot.Record) error {
	key := ToDBKey(SnapshotKey, record.Block)
	return s.db.Put(key.ToBytes(), snapshot.EncodeRecord(record), nil)
}

func (s *Store) Get(block uint64) (snapshot.Record, error) {
	key := ToDBKey(SnapshotKey, block)
	value, err := s.db.Get(key.ToBytes(), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return snapshot.Record{}, fmt.Errorf("%w: block %d", snapshot.NotFound, block)
	}
	if err != nil {
		return snapshot.Record{}, err
	}
	return snapshot.DecodeRecord(block, value)
}

func (s *Store) GetLatestBlock() (uint64, bool, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte{byte(SnapshotKey)}), nil)
	defer iter.Release()
	if !iter.Last() {
		return 0, true, iter.Error()
	}
	block, err := parseKey(iter.Key())
	return block, false, err
}

func (s *Store) GetBlocks() ([]uint64, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte{byte(SnapshotKey)}), nil)
	defer iter.Release()
	res := []uint64{}
	for iter.Next() {
		block, err := parseKey(iter.Key())
		if err != nil {
			return nil, err
		}
		res = append(res, block)
	}
	return res, iter.Error()
}

func (s *Store) Delete(block uint64) error {
	key := ToDBKey(SnapshotKey, block)
	return s.db.Delete(key.ToBytes(), nil)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func parseKey(key []byte) (uint64, error) {
	if len(key) != len(DbKey{}) {
		return 0, fmt.Errorf("invalid snapshot key %x", key)
	}
	var res uint64
	for _, b := range key[1:] {
		res = res<<8 | uint64(b)
	}
	return res, nil
}
