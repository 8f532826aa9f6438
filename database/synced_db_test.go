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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncedDatabase_WrappingIsIdempotent(t *testing.T) {
	db := newTestDatabase(t)
	synced := WrapIntoSyncedDatabase(db)
	assert.Same(t, synced, WrapIntoSyncedDatabase(synced))
	assert.Same(t, Database(db), UnsafeUnwrapSyncedDatabase(synced))
	assert.Same(t, Database(db), UnsafeUnwrapSyncedDatabase(db))
}

func TestSyncedDatabase_ConcurrentWritesAreSerialized(t *testing.T) {
	const (
		numWorkers    = 8
		numIncrements = 25
	)
	db := WrapIntoSyncedDatabase(newOpenDatabase(t))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < numIncrements; j++ {
				if res := db.IncValue("/apps/test/counter", 1, authOf("abcd")); res.IsFailure() {
					t.Errorf("increment failed: %s", toJson(res))
				}
				if _, err := db.GetValue("/apps/test/counter", ReadOptions{}); err != nil {
					t.Errorf("read failed: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	got, err := db.GetValue("/apps/test/counter", ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, float64(numWorkers*numIncrements), got)
	require.NoError(t, db.Check())
}
