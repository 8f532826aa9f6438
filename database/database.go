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
	"github.com/ainblockchain/worldstate/backend/snapshot"
	"github.com/ainblockchain/worldstate/common"
	"github.com/ainblockchain/worldstate/database/functions"
	"github.com/ainblockchain/worldstate/database/matcher"
	"github.com/ainblockchain/worldstate/database/rules"
	"github.com/ainblockchain/worldstate/database/statetree"
	"github.com/ainblockchain/worldstate/database/versions"
)

// Labels of the top-level subtrees of the state root.
const (
	ValuesLabel    = "values"
	RulesLabel     = "rules"
	OwnersLabel    = "owners"
	FunctionsLabel = "functions"
)

// NoFinalVersion is returned for final reads before any version has been
// finalized.
const NoFinalVersion = common.ConstError("no finalized version")

// ReadOptions control the content of read results.
type ReadOptions struct {
	// IsShallow replaces nested objects by their proof hashes.
	IsShallow bool `json:"is_shallow,omitempty"`
	// IncludeProof annotates visited nodes with their proof hashes.
	IncludeProof bool `json:"include_proof,omitempty"`
	// IncludeVersion annotates visited nodes with their versions.
	IncludeVersion bool `json:"include_version,omitempty"`
	// IncludeTreeInfo annotates visited nodes with their tree metrics.
	IncludeTreeInfo bool `json:"include_tree_info,omitempty"`
	// IsFinal reads from the finalized instead of the writable version.
	IsFinal bool `json:"is_final,omitempty"`
	// IsGlobal marks paths relative to the global state of a sharded
	// chain. It is passed through without interpretation.
	IsGlobal bool `json:"is_global,omitempty"`
}

func (o ReadOptions) projection() statetree.ProjectionOptions {
	return statetree.ProjectionOptions{
		IsShallow:       o.IsShallow,
		IncludeProof:    o.IncludeProof,
		IncludeVersion:  o.IncludeVersion,
		IncludeTreeInfo: o.IncludeTreeInfo,
	}
}

// RuleMatch is the result of matching a path against the write rules and
// the state rules of a state.
type RuleMatch struct {
	Write *matcher.Match `json:"write"`
	State *matcher.Match `json:"state"`
}

// StateUsage summarizes the resources consumed by a part of the state.
type StateUsage struct {
	TreeHeight int `json:"tree_height"`
	TreeSize   int `json:"tree_size"`
	TreeBytes  int `json:"tree_bytes"`
}

// State provides read access to the world state. Value, rule, owner and
// function paths address the respective subtree of the state root, state
// paths address the state root itself, e.g. /values/apps/test.
type State interface {
	// GetValue reads the value object at the given path.
	GetValue(path string, opts ReadOptions) (any, error)

	// GetRule reads the rule tree at the given path.
	GetRule(path string, opts ReadOptions) (any, error)

	// GetOwner reads the owner tree at the given path.
	GetOwner(path string, opts ReadOptions) (any, error)

	// GetFunction reads the function tree at the given path.
	GetFunction(path string, opts ReadOptions) (any, error)

	// MatchRule resolves the write and state rules applying to a value path.
	MatchRule(path string) (*RuleMatch, error)

	// MatchOwner resolves the owner config applying to a path.
	MatchOwner(path string) (*matcher.Match, error)

	// MatchFunction resolves the functions triggered by writes to a path.
	MatchFunction(path string) (*matcher.Match, error)

	// EvalRule checks whether a value write would be permitted.
	EvalRule(path string, value any, ctx WriteContext) *Result

	// EvalOwner checks whether the owner configs grant a permission.
	EvalOwner(path string, permission rules.Permission, auth rules.Auth) *Result

	// GetStateInfo summarizes the node at the given state path. The result
	// is nil if there is no such node.
	GetStateInfo(path string) (*statetree.StateInfo, error)

	// GetStateUsage aggregates the resources used by an app across all
	// subtrees of the state.
	GetStateUsage(appName string) (StateUsage, error)

	// GetStateUsageAtPath reports the resources used below a state path.
	GetStateUsageAtPath(path string) (StateUsage, error)

	// GetProofHash provides the proof hash of the node at the given state
	// path. The found flag is false if there is no such node.
	GetProofHash(path string) (hash common.Hash, found bool, err error)

	// GetStateProof builds a proof for the node at the given state path.
	// The result is nil if there is no such node.
	GetStateProof(path string) (*statetree.StateProof, error)

	// VerifyStateProof recomputes the hashes of a state proof.
	VerifyStateProof(proof *statetree.StateProof) statetree.ProofVerification
}

// Database is the world state of a node. Every write is executed
// speculatively on a clone of the writable version, which replaces the
// writable version if all parts of the write succeed and is discarded
// otherwise.
type Database interface {
	State

	// Execute applies an operation to the writable version.
	Execute(op Operation, ctx WriteContext) *Result

	// ExecuteTransaction applies the operation of a transaction on behalf
	// of its sender.
	ExecuteTransaction(tx Transaction) *Result

	// SetValue, IncValue, DecValue, SetRule, SetOwner and SetFunction are
	// shortcuts for executing single operations.
	SetValue(path string, value any, ctx WriteContext) *Result
	IncValue(path string, delta any, ctx WriteContext) *Result
	DecValue(path string, delta any, ctx WriteContext) *Result
	SetRule(path string, rule any, ctx WriteContext) *Result
	SetOwner(path string, owner any, ctx WriteContext) *Result
	SetFunction(path string, function any, ctx WriteContext) *Result

	// RegisterNativeFunction makes a native function available to function
	// configs.
	RegisterNativeFunction(function functions.NativeFunction)

	// Finalize makes a copy of the writable version the finalized version,
	// superseding the previously finalized one.
	Finalize() error

	// Backup saves a copy of the writable version as rollback point.
	Backup() error

	// Restore replaces the writable version by the last backup.
	Restore() error

	// CloneVersion creates a new version sharing all content with the
	// source version.
	CloneVersion(sourceId, newId string) error

	// DeleteVersion removes a version that is neither writable nor final.
	DeleteVersion(id string) error

	// GetVersions lists all live versions.
	GetVersions() []versions.Version

	// SaveSnapshot persists the finalized version for the given block.
	SaveSnapshot(store snapshot.Store, block uint64) error

	// LoadSnapshot replaces the writable and the finalized version by the
	// snapshot recorded for the given block.
	LoadSnapshot(store snapshot.Store, block uint64) error

	// Check verifies the internal consistency of all versions.
	Check() error

	// GetMemoryFootprint computes an approximation of the memory used by
	// the database.
	GetMemoryFootprint() *common.MemoryFootprint
}
