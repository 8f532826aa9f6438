// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package snapshot

//go:generate mockgen -source store.go -destination store_mocks.go -package snapshot

import (
	"encoding/binary"
	"fmt"

	"github.com/ainblockchain/worldstate/common"
)

// NotFound is returned when requesting a snapshot for a block that has not
// been recorded.
const NotFound = common.ConstError("snapshot not found")

// Record is the persisted snapshot of a world state at a given block. Data
// holds the JSON encoded state object, RootHash the proof hash of the state
// root it was taken from.
type Record struct {
	Block    uint64
	RootHash common.Hash
	Data     []byte
}

// Store persists state snapshots keyed by block number. Implementations are
// safe for concurrent use.
type Store interface {
	// Put records a snapshot, replacing any snapshot of the same block.
	Put(record Record) error

	// Get loads the snapshot of the given block. If no snapshot was
	// recorded for the block, NotFound is returned.
	Get(block uint64) (Record, error)

	// GetLatestBlock provides the highest block a snapshot is recorded for.
	// The empty flag is set if there is no snapshot.
	GetLatestBlock() (block uint64, empty bool, err error)

	// GetBlocks lists all blocks with recorded snapshots in ascending order.
	GetBlocks() ([]uint64, error)

	// Delete removes the snapshot of the given block, if present.
	Delete(block uint64) error

	// Close releases the resources of the store.
	Close() error
}

// EncodeRecord serializes the hash and data of a record into a single value
// for key/value based stores.
func EncodeRecord(record Record) []byte {
	res := make([]byte, 0, common.HashSize+len(record.Data))
	res = append(res, record.RootHash[:]...)
	return append(res, record.Data...)
}

// DecodeRecord is the inverse of EncodeRecord.
func DecodeRecord(block uint64, value []byte) (Record, error) {
	if len(value) < common.HashSize {
		return Record{}, fmt.Errorf("invalid snapshot encoding of block %d, got %d bytes", block, len(value))
	}
	res := Record{Block: block, Data: value[common.HashSize:]}
	copy(res.RootHash[:], value[:common.HashSize])
	return res, nil
}

// BlockKey encodes a block number such that keys sort in block order.
func BlockKey(block uint64) []byte {
	return binary.BigEndian.AppendUint64(nil, block)
}
