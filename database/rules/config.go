// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package rules

import (
	"github.com/ainblockchain/worldstate/database/matcher"
	"github.com/ainblockchain/worldstate/database/statetree"
)

// Labels under which config values are stored in the config trees.
const (
	RuleLabel     = ".rule"
	OwnerLabel    = ".owner"
	FunctionLabel = ".function"
	ShardLabel    = ".shard"
)

// Properties of rule configs.
const (
	WriteProperty                = "write"
	StateProperty                = "state"
	MaxChildrenProperty          = "max_children"
	GcMaxSiblingsProperty        = "gc_max_siblings"
	GcNumSiblingsDeletedProperty = "gc_num_siblings_deleted"
	OwnersProperty               = "owners"
	ShardingEnabledProperty      = "sharding_enabled"
)

// WriteRuleKind matches write rules. Paths without a write rule of their own
// inherit the rule of their closest ancestor.
var WriteRuleKind = matcher.Kind{
	Name:                 "rule",
	ConfigLabel:          RuleLabel,
	InheritFromAncestors: true,
	IsConfig: func(config any) bool {
		_, found := asDict(config)[WriteProperty]
		return found
	},
}

// StateRuleKind matches state rules, which only apply to the exact path they
// are defined for.
var StateRuleKind = matcher.Kind{
	Name:        "state rule",
	ConfigLabel: RuleLabel,
	IsConfig: func(config any) bool {
		_, found := asDict(config)[StateProperty]
		return found
	},
}

// RuleKind matches any rule config, used for reporting.
var RuleKind = matcher.Kind{
	Name:                 "rule",
	ConfigLabel:          RuleLabel,
	InheritFromAncestors: true,
}

// OwnerKind matches owner configs, inherited from the closest ancestor.
var OwnerKind = matcher.Kind{
	Name:                 "owner",
	ConfigLabel:          OwnerLabel,
	InheritFromAncestors: true,
}

func asDict(obj any) map[string]any {
	dict, _ := obj.(map[string]any)
	return dict
}

// validateTree checks a config tree object. Config values stored under the
// given label are checked by the given function, which reports the path of
// an invalid element relative to the config value. Outside of config labels
// only nested objects are permitted.
func validateTree(obj any, label string, validate func(config any) (statetree.Path, bool)) (statetree.Path, bool) {
	if obj == nil {
		return nil, true
	}
	return validateSubtree(obj, statetree.Path{}, label, validate)
}

func validateSubtree(obj any, path statetree.Path, label string, validate func(config any) (statetree.Path, bool)) (statetree.Path, bool) {
	dict, isDict := obj.(map[string]any)
	if !isDict || len(dict) == 0 {
		return path, false
	}
	for _, key := range sortedKeys(dict) {
		cur := path.Child(key)
		if key == label {
			if dict[key] == nil {
				continue
			}
			if invalid, ok := validate(dict[key]); !ok {
				return cur.Child(invalid...), false
			}
			continue
		}
		if invalid, ok := validateSubtree(dict[key], cur, label, validate); !ok {
			return invalid, false
		}
	}
	return nil, true
}
