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

	"github.com/ainblockchain/worldstate/common"
	"github.com/ainblockchain/worldstate/database/matcher"
	"github.com/ainblockchain/worldstate/database/rules"
	"github.com/ainblockchain/worldstate/database/statetree"
)

// AppsLabel is the label below which apps keep their state.
const AppsLabel = "apps"

func (db *database) writableView() view {
	return view{forest: db.forest, root: db.writableRoot()}
}

func (db *database) read(label string, path string, opts ReadOptions) (any, error) {
	parsed, err := statetree.ParseValidPath(path)
	if err != nil {
		return nil, err
	}
	root, err := db.readRoot(opts)
	if err != nil {
		return nil, err
	}
	v := view{forest: db.forest, root: root}
	id, found := db.forest.Lookup(v.subtree(label), parsed)
	if !found {
		return nil, nil
	}
	return db.forest.Project(id, opts.projection()), nil
}

func (db *database) GetValue(path string, opts ReadOptions) (any, error) {
	return db.read(ValuesLabel, path, opts)
}

func (db *database) GetRule(path string, opts ReadOptions) (any, error) {
	return db.read(RulesLabel, path, opts)
}

func (db *database) GetOwner(path string, opts ReadOptions) (any, error) {
	return db.read(OwnersLabel, path, opts)
}

func (db *database) GetFunction(path string, opts ReadOptions) (any, error) {
	return db.read(FunctionsLabel, path, opts)
}

func (db *database) MatchRule(path string) (*RuleMatch, error) {
	parsed, err := statetree.ParseValidPath(path)
	if err != nil {
		return nil, err
	}
	return db.writableView().matchRule(parsed), nil
}

func (db *database) MatchOwner(path string) (*matcher.Match, error) {
	parsed, err := statetree.ParseValidPath(path)
	if err != nil {
		return nil, err
	}
	return db.writableView().matchOwner(parsed), nil
}

func (db *database) MatchFunction(path string) (*matcher.Match, error) {
	parsed, err := statetree.ParseValidPath(path)
	if err != nil {
		return nil, err
	}
	return db.writableView().matchFunction(parsed), nil
}

// evalResult strips the gas of write results from evaluation results.
func evalResult(res *Result) *Result {
	if res == nil {
		return &Result{Code: Success}
	}
	res.BandwidthGasAmount = 0
	return res
}

func (db *database) EvalRule(path string, value any, ctx WriteContext) *Result {
	parsed, err := statetree.ParseValidPath(path)
	if err != nil {
		return evalResult(failure(EvalRuleInvalidPath, fmt.Sprintf("Invalid value path: %s", path)))
	}
	v := db.writableView()
	if res := db.evalWriteRule(v, parsed, value, ctx.Auth, ctx.Timestamp); res != nil {
		return evalResult(res)
	}
	return evalResult(db.evalStateRule(v, parsed, value))
}

func (db *database) EvalOwner(path string, permission rules.Permission, auth rules.Auth) *Result {
	parsed, err := statetree.ParseValidPath(path)
	if err != nil {
		return evalResult(failure(EvalRuleInvalidPath, fmt.Sprintf("Invalid owner path: %s", path)))
	}
	return evalResult(evalOwner(db.writableView(), parsed, permission, auth, false))
}

func (db *database) lookupState(path string) (statetree.NodeId, bool, error) {
	parsed, err := statetree.ParseValidPath(path)
	if err != nil {
		return statetree.NoNode, false, err
	}
	id, found := db.forest.Lookup(db.writableRoot(), parsed)
	return id, found, nil
}

func (db *database) GetStateInfo(path string) (*statetree.StateInfo, error) {
	parsed, err := statetree.ParseValidPath(path)
	if err != nil {
		return nil, err
	}
	info, found := db.forest.GetStateInfo(db.writableRoot(), parsed)
	if !found {
		return nil, nil
	}
	return &info, nil
}

func (db *database) usageOf(id statetree.NodeId) StateUsage {
	info := db.forest.Info(id)
	return StateUsage{
		TreeHeight: info.TreeHeight,
		TreeSize:   info.TreeSize,
		TreeBytes:  info.TreeBytes,
	}
}

func (db *database) GetStateUsage(appName string) (StateUsage, error) {
	if !statetree.IsValidLabel(appName) {
		return StateUsage{}, fmt.Errorf("%w: invalid app name %q", common.InvalidPath, appName)
	}
	res := StateUsage{}
	root := db.writableRoot()
	for _, label := range []string{ValuesLabel, RulesLabel, OwnersLabel, FunctionsLabel} {
		id, found := db.forest.Lookup(root, statetree.Path{label, AppsLabel, appName})
		if !found {
			continue
		}
		usage := db.usageOf(id)
		res.TreeHeight = max(res.TreeHeight, usage.TreeHeight)
		res.TreeSize += usage.TreeSize
		res.TreeBytes += usage.TreeBytes
	}
	return res, nil
}

func (db *database) GetStateUsageAtPath(path string) (StateUsage, error) {
	id, found, err := db.lookupState(path)
	if err != nil || !found {
		return StateUsage{}, err
	}
	return db.usageOf(id), nil
}

func (db *database) GetProofHash(path string) (common.Hash, bool, error) {
	id, found, err := db.lookupState(path)
	if err != nil || !found {
		return common.Hash{}, false, err
	}
	return db.forest.ProofHash(id), true, nil
}

func (db *database) GetStateProof(path string) (*statetree.StateProof, error) {
	parsed, err := statetree.ParseValidPath(path)
	if err != nil {
		return nil, err
	}
	proof, found := db.forest.GetStateProof(db.writableRoot(), parsed)
	if !found {
		return nil, nil
	}
	return proof, nil
}

func (db *database) VerifyStateProof(proof *statetree.StateProof) statetree.ProofVerification {
	return statetree.VerifyStateProof(proof)
}
