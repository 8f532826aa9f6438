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

	"github.com/ainblockchain/worldstate/backend/snapshot"
	"github.com/ainblockchain/worldstate/common"
	"github.com/ainblockchain/worldstate/database/functions"
	"github.com/ainblockchain/worldstate/database/matcher"
	"github.com/ainblockchain/worldstate/database/rules"
	"github.com/ainblockchain/worldstate/database/statetree"
	"github.com/ainblockchain/worldstate/database/versions"
)

// syncedDatabase wraps a database implementation with a lock restricting the
// number of concurrent access to one for the underlying database.
type syncedDatabase struct {
	db Database
	mu sync.Mutex
}

// WrapIntoSyncedDatabase wraps the given database into a synchronized DB
// ensuring mutual exclusive access to the underlying database.
func WrapIntoSyncedDatabase(db Database) Database {
	if _, ok := db.(*syncedDatabase); ok {
		return db
	}
	return &syncedDatabase{
		db: db,
	}
}

// UnsafeUnwrapSyncedDatabase obtains a reference to a potentially nested
// synchronized database from the given database.
// Note: extracting the database from within a synchronized DB breaks
// the synchronization guarantees for the synced DB. Concurrent
// operations on the given database and the resulting database are no longer
// mutual exclusive.
func UnsafeUnwrapSyncedDatabase(db Database) Database {
	if synced, ok := db.(*syncedDatabase); ok {
		return synced.db
	}
	return db
}

func (s *syncedDatabase) GetValue(path string, opts ReadOptions) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.GetValue(path, opts)
}

func (s *syncedDatabase) GetRule(path string, opts ReadOptions) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.GetRule(path, opts)
}

func (s *syncedDatabase) GetOwner(path string, opts ReadOptions) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.GetOwner(path, opts)
}

func (s *syncedDatabase) GetFunction(path string, opts ReadOptions) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.GetFunction(path, opts)
}

func (s *syncedDatabase) MatchRule(path string) (*RuleMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.MatchRule(path)
}

func (s *syncedDatabase) MatchOwner(path string) (*matcher.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.MatchOwner(path)
}

func (s *syncedDatabase) MatchFunction(path string) (*matcher.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.MatchFunction(path)
}

func (s *syncedDatabase) EvalRule(path string, value any, ctx WriteContext) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.EvalRule(path, value, ctx)
}

func (s *syncedDatabase) EvalOwner(path string, permission rules.Permission, auth rules.Auth) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.EvalOwner(path, permission, auth)
}

func (s *syncedDatabase) GetStateInfo(path string) (*statetree.StateInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.GetStateInfo(path)
}

func (s *syncedDatabase) GetStateUsage(appName string) (StateUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.GetStateUsage(appName)
}

func (s *syncedDatabase) GetStateUsageAtPath(path string) (StateUsage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.GetStateUsageAtPath(path)
}

func (s *syncedDatabase) GetProofHash(path string) (common.Hash, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.GetProofHash(path)
}

func (s *syncedDatabase) GetStateProof(path string) (*statetree.StateProof, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.GetStateProof(path)
}

func (s *syncedDatabase) VerifyStateProof(proof *statetree.StateProof) statetree.ProofVerification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.VerifyStateProof(proof)
}

func (s *syncedDatabase) Execute(op Operation, ctx WriteContext) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Execute(op, ctx)
}

func (s *syncedDatabase) ExecuteTransaction(tx Transaction) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.ExecuteTransaction(tx)
}

func (s *syncedDatabase) SetValue(path string, value any, ctx WriteContext) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.SetValue(path, value, ctx)
}

func (s *syncedDatabase) IncValue(path string, delta any, ctx WriteContext) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.IncValue(path, delta, ctx)
}

func (s *syncedDatabase) DecValue(path string, delta any, ctx WriteContext) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.DecValue(path, delta, ctx)
}

func (s *syncedDatabase) SetRule(path string, rule any, ctx WriteContext) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.SetRule(path, rule, ctx)
}

func (s *syncedDatabase) SetOwner(path string, owner any, ctx WriteContext) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.SetOwner(path, owner, ctx)
}

func (s *syncedDatabase) SetFunction(path string, function any, ctx WriteContext) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.SetFunction(path, function, ctx)
}

func (s *syncedDatabase) RegisterNativeFunction(function functions.NativeFunction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.db.RegisterNativeFunction(function)
}

func (s *syncedDatabase) Finalize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Finalize()
}

func (s *syncedDatabase) Backup() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Backup()
}

func (s *syncedDatabase) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Restore()
}

func (s *syncedDatabase) CloneVersion(sourceId, newId string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.CloneVersion(sourceId, newId)
}

func (s *syncedDatabase) DeleteVersion(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.DeleteVersion(id)
}

func (s *syncedDatabase) GetVersions() []versions.Version {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.GetVersions()
}

func (s *syncedDatabase) SaveSnapshot(store snapshot.Store, block uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.SaveSnapshot(store, block)
}

func (s *syncedDatabase) LoadSnapshot(store snapshot.Store, block uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.LoadSnapshot(store, block)
}

func (s *syncedDatabase) Check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Check()
}

func (s *syncedDatabase) GetMemoryFootprint() *common.MemoryFootprint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.GetMemoryFootprint()
}
