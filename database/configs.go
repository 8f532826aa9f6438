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
	"slices"

	"github.com/ainblockchain/worldstate/database/functions"
	"github.com/ainblockchain/worldstate/database/rules"
	"github.com/ainblockchain/worldstate/database/statetree"
	"golang.org/x/exp/maps"
)

// configKind describes one of the config trees of the state.
type configKind struct {
	target      configTarget
	treeLabel   string
	configLabel string
	permission  rules.Permission

	invalidObject   ResultCode
	invalidPath     ResultCode
	invalidTree     ResultCode
	nonWritablePath ResultCode

	validate func(db *database, obj any) (statetree.Path, bool)
	// mergesEntries is set for function configs, whose entries are merged
	// into existing configs by function id.
	mergesEntries bool
}

var (
	ruleConfig = configKind{
		target:          ruleTarget,
		treeLabel:       RulesLabel,
		configLabel:     rules.RuleLabel,
		permission:      rules.WriteRule,
		invalidObject:   SetRuleInvalidObject,
		invalidPath:     SetRuleInvalidPath,
		invalidTree:     SetRuleInvalidTree,
		nonWritablePath: SetRuleNonWritablePath,
		validate: func(db *database, obj any) (statetree.Path, bool) {
			return db.evaluator.ValidateRuleTree(obj)
		},
	}
	ownerConfig = configKind{
		target:          ownerTarget,
		treeLabel:       OwnersLabel,
		configLabel:     rules.OwnerLabel,
		permission:      rules.WriteOwner,
		invalidObject:   SetOwnerInvalidObject,
		invalidPath:     SetOwnerInvalidPath,
		invalidTree:     SetOwnerInvalidTree,
		nonWritablePath: SetOwnerNonWritablePath,
		validate: func(_ *database, obj any) (statetree.Path, bool) {
			return rules.ValidateOwnerTree(obj)
		},
	}
	functionConfig = configKind{
		target:          functionTarget,
		treeLabel:       FunctionsLabel,
		configLabel:     functions.Label,
		permission:      rules.WriteFunction,
		invalidObject:   SetFunctionInvalidObject,
		invalidPath:     SetFunctionInvalidPath,
		invalidTree:     SetFunctionInvalidTree,
		nonWritablePath: SetFunctionNonWritablePath,
		validate: func(_ *database, obj any) (statetree.Path, bool) {
			return functions.ValidateTree(obj)
		},
		mergesEntries: true,
	}
)

// setConfig writes a config tree at the given path of the config tree of
// the given kind. Without merging, the subtree at the path is replaced.
// With merging, only the config values contained in the given tree are
// written and all other configs of the subtree are retained.
func (e *execution) setConfig(ref string, value any, isMerge bool, kind configKind) *Result {
	if invalid, ok := statetree.ValidateObject(value); !ok {
		return failure(kind.invalidObject, fmt.Sprintf("Invalid object for states: %s", invalid))
	}
	path, err := statetree.ParseValidPath(ref)
	if err != nil {
		return failure(kind.invalidPath, fmt.Sprintf("Invalid %s path: %s", kind.target.name, ref))
	}
	if invalid, ok := kind.validate(e.db, value); !ok {
		return failure(kind.invalidTree, fmt.Sprintf("Invalid %s tree: %s", kind.target.name, invalid))
	}
	if shard, ok := rules.CheckShardWritable(e.db.forest, *e.root, statetree.Path{ValuesLabel}.Child(path...)); !ok {
		return failure(kind.nonWritablePath, fmt.Sprintf("Non-writable path with shard config: %s", shard))
	}
	if kind.mergesEntries {
		if fid, found := e.db.registry.FindOwnerOnlyFunction(value); found && e.ctx.Auth.Addr != e.db.params.OwnerAddress {
			return failure(SetFunctionOwnerOnlyFunction, fmt.Sprintf("Trying to write owner-only function: %s", fid))
		}
	}
	if res := evalOwner(e.view(), path, kind.permission, e.ctx.Auth, isMerge); res != nil {
		return res
	}

	statePath := statetree.Path{kind.treeLabel}.Child(path...)
	if isMerge {
		e.mergeConfigs(statePath, value, kind)
	} else {
		if kind.mergesEntries {
			v := e.view()
			value = functions.MergeTree(value, func(rel statetree.Path) any {
				return v.get(kind.treeLabel, path.Child(rel...).Child(kind.configLabel))
			})
		}
		if err := e.db.forest.SetValue(e.root, statePath, e.version, value); err != nil {
			return failure(kind.invalidObject, fmt.Sprintf("Invalid object for states: %v", err))
		}
	}
	if res := e.checkLimits(); res != nil {
		return res
	}
	return success()
}

// mergeConfigs writes the config values of the given tree one by one.
func (e *execution) mergeConfigs(statePath statetree.Path, tree any, kind configKind) {
	forEachConfig(tree, kind.configLabel, statetree.Path{}, func(rel statetree.Path, config any) {
		target := statePath.Child(rel...).Child(kind.configLabel)
		if kind.mergesEntries {
			existing := e.db.forest.Get(*e.root, target)
			config = functions.MergeConfig(existing, config)
		}
		// the config has been validated before
		if err := e.db.forest.SetValue(e.root, target, e.version, config); err != nil {
			panic(fmt.Sprintf("failed to write validated config at %s: %v", target, err))
		}
	})
}

// forEachConfig visits the config values of a config tree in label order.
func forEachConfig(tree any, label string, path statetree.Path, visit func(path statetree.Path, config any)) {
	dict, isDict := tree.(map[string]any)
	if !isDict {
		return
	}
	keys := maps.Keys(dict)
	slices.Sort(keys)
	for _, key := range keys {
		if key == label {
			visit(path, dict[key])
			continue
		}
		forEachConfig(dict[key], label, path.Child(key), visit)
	}
}
