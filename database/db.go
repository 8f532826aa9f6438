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
	"fmt"
	"log/slog"
	"unsafe"

	"github.com/ainblockchain/worldstate/common"
	"github.com/ainblockchain/worldstate/database/functions"
	"github.com/ainblockchain/worldstate/database/rules"
	"github.com/ainblockchain/worldstate/database/statetree"
	"github.com/ainblockchain/worldstate/database/versions"
	"github.com/google/uuid"
)

// Prefixes of the ids of versions created by the database.
const (
	nodeVersionPrefix     = "NODE:"
	finalVersionPrefix    = "FINAL:"
	backupVersionPrefix   = "BACKUP:"
	execVersionPrefix     = "EXEC:"
	snapshotVersionPrefix = "SNAPSHOT:"
)

func newVersionId(prefix string) string {
	return prefix + uuid.NewString()
}

// database is the in-memory world state. All versions share a single forest
// of state nodes. A database is not thread safe; use WrapIntoSyncedDatabase
// for concurrent access.
type database struct {
	params    Params
	forest    *statetree.Forest
	versions  *versions.Manager
	evaluator *rules.Evaluator
	registry  *functions.Registry
	metrics   *metrics
	logger    *slog.Logger
}

// New creates a database. The initial state is both writable and finalized.
// It grants all owner permissions at the root to the owner address of the
// parameters, if there is one, and is empty otherwise.
func New(params Params) (Database, error) {
	db, err := newDatabase(params)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func newDatabase(params Params) (*database, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	logger := params.Logger
	if logger == nil {
		logger = slog.Default()
	}
	forest := statetree.NewForest()
	db := &database{
		params:    params,
		forest:    forest,
		versions:  versions.NewManager(forest, logger),
		evaluator: rules.NewEvaluator(params.RuleCacheSize),
		registry:  functions.NewRegistry(),
		metrics:   newMetrics(params.Registerer),
		logger:    logger,
	}
	id := newVersionId(nodeVersionPrefix)
	if err := db.versions.CreateVersion(id, initialState(params.OwnerAddress)); err != nil {
		return nil, err
	}
	if err := db.versions.SetWritable(id); err != nil {
		return nil, err
	}
	if err := db.Finalize(); err != nil {
		return nil, err
	}
	return db, nil
}

func initialState(ownerAddress string) any {
	if ownerAddress == "" {
		return nil
	}
	return map[string]any{
		OwnersLabel: map[string]any{
			rules.OwnerLabel: map[string]any{
				rules.OwnersProperty: map[string]any{
					ownerAddress: map[string]any{
						string(rules.BranchOwner):   true,
						string(rules.WriteOwner):    true,
						string(rules.WriteRule):     true,
						string(rules.WriteFunction): true,
					},
				},
			},
		},
	}
}

func (db *database) RegisterNativeFunction(function functions.NativeFunction) {
	db.registry.Register(function)
}

// writableRoot is the root of the state tree all writes are applied to.
func (db *database) writableRoot() statetree.NodeId {
	root, err := db.versions.GetRoot(db.versions.WritableVersion())
	if err != nil {
		panic(fmt.Sprintf("writable version is missing: %v", err))
	}
	return root
}

// readRoot selects the root of the version addressed by read options.
func (db *database) readRoot(opts ReadOptions) (statetree.NodeId, error) {
	if !opts.IsFinal {
		return db.writableRoot(), nil
	}
	final := db.versions.FinalVersion()
	if final == "" {
		return statetree.NoNode, NoFinalVersion
	}
	return db.versions.GetRoot(final)
}

func (db *database) Finalize() error {
	id := newVersionId(finalVersionPrefix)
	if err := db.versions.CloneVersion(db.versions.WritableVersion(), id); err != nil {
		return err
	}
	if err := db.versions.FinalizeVersion(id); err != nil {
		return err
	}
	db.updateGauges()
	return nil
}

func (db *database) Backup() error {
	err := db.versions.Backup(newVersionId(backupVersionPrefix))
	db.updateGauges()
	return err
}

func (db *database) Restore() error {
	err := db.versions.Restore()
	db.updateGauges()
	return err
}

func (db *database) CloneVersion(sourceId, newId string) error {
	err := db.versions.CloneVersion(sourceId, newId)
	db.updateGauges()
	return err
}

func (db *database) DeleteVersion(id string) error {
	err := db.versions.DeleteVersion(id)
	db.updateGauges()
	return err
}

func (db *database) GetVersions() []versions.Version {
	return db.versions.Versions()
}

func (db *database) Check() error {
	return db.versions.Check()
}

func (db *database) GetMemoryFootprint() *common.MemoryFootprint {
	mf := common.NewMemoryFootprint(unsafe.Sizeof(*db))
	mf.AddChild("forest", db.forest.GetMemoryFootprint())
	return mf
}

func (db *database) updateGauges() {
	db.metrics.versions.Set(float64(db.versions.NumVersions()))
	db.metrics.nodes.Set(float64(db.forest.NumNodes()))
}
