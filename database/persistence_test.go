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
	"errors"
	"path/filepath"
	"testing"

	"github.com/ainblockchain/worldstate/backend/snapshot"
	"github.com/ainblockchain/worldstate/backend/snapshot/ldb"
	"github.com/ainblockchain/worldstate/backend/snapshot/sqlite"
	"github.com/ainblockchain/worldstate/common"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSnapshotStores(t *testing.T) map[string]snapshot.Store {
	t.Helper()
	ldbStore, err := ldb.Open(t.TempDir(), nil)
	require.NoError(t, err)
	sqliteStore, err := sqlite.Open(filepath.Join(t.TempDir(), "snapshots.db"))
	require.NoError(t, err)
	res := map[string]snapshot.Store{"ldb": ldbStore, "sqlite": sqliteStore}
	for _, store := range res {
		t.Cleanup(func() { assert.NoError(t, store.Close()) })
	}
	return res
}

func TestDatabase_SnapshotsRestoreFinalizedState(t *testing.T) {
	for name, store := range openSnapshotStores(t) {
		t.Run(name, func(t *testing.T) {
			source := newOpenDatabase(t)
			mustSucceed(t, source.SetValue("/apps/test", map[string]any{"a": 1, "b": "text"}, authOf("abcd")))
			mustSucceed(t, source.SetRule("/apps/test/a", writeRule("newData > data"), ownerCtx()))
			require.NoError(t, source.Finalize())
			// not part of the snapshot
			mustSucceed(t, source.SetValue("/apps/test/c", true, authOf("abcd")))

			require.NoError(t, source.SaveSnapshot(store, 12))
			record, err := store.Get(12)
			require.NoError(t, err)
			finalRoot, err := source.versions.GetRoot(source.versions.FinalVersion())
			require.NoError(t, err)
			assert.Equal(t, source.forest.ProofHash(finalRoot), record.RootHash)

			target := newTestDatabase(t)
			require.NoError(t, target.LoadSnapshot(store, 12))

			assert.Equal(t, map[string]any{"a": 1.0, "b": "text"}, getValue(t, target, "/apps/test"))
			final, err := target.GetValue("/apps/test/b", ReadOptions{IsFinal: true})
			require.NoError(t, err)
			assert.Equal(t, "text", final)
			targetHash, found, err := target.GetProofHash("/")
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, record.RootHash, targetHash)

			// loaded rules are in effect
			checkFailure(t, target.SetValue("/apps/test/a", 0, authOf("abcd")), EvalRuleFalseWriteRule, "")
			mustSucceed(t, target.SetValue("/apps/test/a", 2, authOf("abcd")))
		})
	}
}

func TestDatabase_LoadingMissingSnapshotFails(t *testing.T) {
	for name, store := range openSnapshotStores(t) {
		t.Run(name, func(t *testing.T) {
			db := newTestDatabase(t)
			assert.ErrorIs(t, db.LoadSnapshot(store, 7), snapshot.NotFound)
		})
	}
}

func TestDatabase_SnapshotWithWrongRootHashIsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := snapshot.NewMockStore(ctrl)
	store.EXPECT().Get(uint64(3)).Return(snapshot.Record{
		Block:    3,
		RootHash: common.Keccak256String("tampered"),
		Data:     []byte(`{"values":{"a":1}}`),
	}, nil)

	db := newOpenDatabase(t)
	mustSucceed(t, db.SetValue("/apps/test/value", "kept", authOf("abcd")))
	before := db.GetVersions()

	assert.ErrorIs(t, db.LoadSnapshot(store, 3), RootHashMismatch)
	assert.Equal(t, before, db.GetVersions())
	assert.Equal(t, "kept", getValue(t, db, "/apps/test/value"))
}

func TestDatabase_CorruptedSnapshotIsRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := snapshot.NewMockStore(ctrl)
	store.EXPECT().Get(uint64(3)).Return(snapshot.Record{Block: 3, Data: []byte(`{"values":`)}, nil)

	db := newTestDatabase(t)
	before := db.GetVersions()
	assert.Error(t, db.LoadSnapshot(store, 3))
	assert.Equal(t, before, db.GetVersions())
}

func TestDatabase_SnapshotStoreErrorsArePropagated(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := snapshot.NewMockStore(ctrl)
	injected := errors.New("injected error")
	store.EXPECT().Put(gomock.Any()).Return(injected)

	db := newTestDatabase(t)
	assert.ErrorIs(t, db.SaveSnapshot(store, 1), injected)
}
