// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package database

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ainblockchain/worldstate/backend/snapshot"
	"github.com/ainblockchain/worldstate/common"
)

// RootHashMismatch is reported when loading a snapshot whose content does
// not reproduce the recorded root hash.
const RootHashMismatch = common.ConstError("snapshot root hash mismatch")

func (db *database) SaveSnapshot(store snapshot.Store, block uint64) error {
	final := db.versions.FinalVersion()
	if final == "" {
		return NoFinalVersion
	}
	root, err := db.versions.GetRoot(final)
	if err != nil {
		return err
	}
	data, err := json.Marshal(db.forest.ToSnapshot(root))
	if err != nil {
		return fmt.Errorf("failed to encode snapshot of version %s: %w", final, err)
	}
	record := snapshot.Record{
		Block:    block,
		RootHash: db.forest.ProofHash(root),
		Data:     data,
	}
	if err := store.Put(record); err != nil {
		return fmt.Errorf("failed to store snapshot of block %d: %w", block, err)
	}
	db.logger.Info("saved snapshot", "block", block, "version", final, "root_hash", record.RootHash, "bytes", len(data))
	return nil
}

func (db *database) LoadSnapshot(store snapshot.Store, block uint64) error {
	record, err := store.Get(block)
	if err != nil {
		return fmt.Errorf("failed to load snapshot of block %d: %w", block, err)
	}
	var obj any
	if err := json.Unmarshal(record.Data, &obj); err != nil {
		return fmt.Errorf("failed to decode snapshot of block %d: %w", block, err)
	}

	id := newVersionId(snapshotVersionPrefix)
	if err := db.versions.CreateVersion(id, obj); err != nil {
		return err
	}
	root, err := db.versions.GetRoot(id)
	if err != nil {
		return err
	}
	if hash := db.forest.ProofHash(root); hash != record.RootHash {
		return errors.Join(
			fmt.Errorf("%w: block %d, recorded %v, computed %v", RootHashMismatch, block, record.RootHash, hash),
			db.versions.DeleteVersion(id),
		)
	}

	final := newVersionId(finalVersionPrefix)
	if err := db.versions.CloneVersion(id, final); err != nil {
		return err
	}
	if err := db.versions.FinalizeVersion(final); err != nil {
		return err
	}
	if err := db.versions.SetWritable(id); err != nil {
		return err
	}
	db.updateGauges()
	db.logger.Info("loaded snapshot", "block", block, "version", id, "root_hash", record.RootHash)
	return nil
}
