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
	"fmt"

	"github.com/ainblockchain/worldstate/database/functions"
	"github.com/ainblockchain/worldstate/database/matcher"
	"github.com/ainblockchain/worldstate/database/rules"
	"github.com/ainblockchain/worldstate/database/statetree"
)

// view provides read access to the state rooted by a single node. Views are
// short lived; they must not be used across writes to the root.
type view struct {
	forest *statetree.Forest
	root   statetree.NodeId
}

// subtree resolves the root of one of the top-level subtrees, NoNode if
// the subtree is empty.
func (v view) subtree(label string) statetree.NodeId {
	if !v.root.IsValid() {
		return statetree.NoNode
	}
	res, _ := v.forest.GetChild(v.root, label)
	return res
}

func (v view) get(label string, path statetree.Path) any {
	return v.forest.Get(v.subtree(label), path)
}

func (v view) match(label string, path statetree.Path, kind matcher.Kind) *matcher.Match {
	return matcher.MatchConfig(v.forest, v.subtree(label), path, kind)
}

// GetValue, GetRule, GetOwner and GetFunction expose the state to rule
// expressions. Invalid paths read as null.
func (v view) GetValue(path string) any {
	return v.get(ValuesLabel, statetree.ParsePath(path))
}

func (v view) GetRule(path string) any {
	return v.get(RulesLabel, statetree.ParsePath(path))
}

func (v view) GetOwner(path string) any {
	return v.get(OwnersLabel, statetree.ParsePath(path))
}

func (v view) GetFunction(path string) any {
	return v.get(FunctionsLabel, statetree.ParsePath(path))
}

func (v view) matchRule(path statetree.Path) *RuleMatch {
	return &RuleMatch{
		Write: v.match(RulesLabel, path, rules.WriteRuleKind),
		State: v.match(RulesLabel, path, rules.StateRuleKind),
	}
}

func (v view) matchOwner(path statetree.Path) *matcher.Match {
	return v.match(OwnersLabel, path, rules.OwnerKind)
}

func (v view) matchFunction(path statetree.Path) *matcher.Match {
	return v.match(FunctionsLabel, path, functions.Kind)
}

func toJson(obj any) string {
	data, err := json.Marshal(obj)
	if err != nil {
		return fmt.Sprintf("%v", obj)
	}
	return string(data)
}

// formatPlain renders strings as they are and everything else as JSON.
func formatPlain(obj any) string {
	if str, isString := obj.(string); isString {
		return str
	}
	return toJson(obj)
}

func subtreeConfigPaths(configs []matcher.MatchedConfig) []string {
	res := make([]string, len(configs))
	for i, config := range configs {
		res[i] = config.Path
	}
	return res
}

// evalWriteRule checks whether the write of newValue to the given value
// path is permitted by the write rules. Configs below the path block the
// write since they could be bypassed by overwriting the subtree. On
// success, nil is returned.
func (db *database) evalWriteRule(v view, path statetree.Path, newValue any, auth rules.Auth, timestamp int64) *Result {
	match := v.match(RulesLabel, path, rules.WriteRuleKind)
	if len(match.SubtreeConfigs) > 0 {
		return failure(EvalRuleNonEmptySubtreeRules, fmt.Sprintf(
			"Non-empty (%d) subtree rules for value path '%s': %s",
			len(match.SubtreeConfigs), path, toJson(subtreeConfigPaths(match.SubtreeConfigs))))
	}
	var rule any
	if match.HasConfig() {
		rule = match.MatchedConfig.Config.(map[string]any)[rules.WriteProperty]
	}
	data := v.get(ValuesLabel, path)
	ctx := rules.Context{
		Auth:      auth,
		Timestamp: timestamp,
		Data:      data,
		NewData:   newValue,
		Vars:      match.Vars(),
		State:     v,
	}
	granted, err := db.evaluator.EvalWriteRule(rule, ctx)
	if err != nil {
		db.logger.Debug("failed to evaluate write rule", "path", path, "rule", formatPlain(rule), "err", err)
	}
	if granted {
		return nil
	}
	return failure(EvalRuleFalseWriteRule, fmt.Sprintf(
		"Write rule evaluated false: [%s] at '%s' for value path '%s' with path vars '%s', data '%s', newData '%s', auth '%s', timestamp '%d'",
		formatPlain(rule), match.MatchedConfig.Path, path, toJson(match.MatchedPath.PathVars),
		toJson(data), toJson(newValue), toJson(auth), timestamp))
}

// evalStateRule checks the state rules constraining the node written at
// the given path and, if a new child is admitted, its parent.
func (db *database) evalStateRule(v view, path statetree.Path, newValue any) *Result {
	if dict, isDict := newValue.(map[string]any); isDict {
		if res := checkMaxChildren(v, path, path, newValue, len(dict)); res != nil {
			return res
		}
	}
	if newValue == nil || len(path) == 0 {
		return nil
	}
	parent := path.Parent()
	parentNode, found := v.forest.Lookup(v.subtree(ValuesLabel), parent)
	if !found || v.forest.IsLeaf(parentNode) {
		return checkMaxChildren(v, parent, path, newValue, 1)
	}
	if _, exists := v.forest.GetChild(parentNode, path.Last()); exists {
		return nil
	}
	return checkMaxChildren(v, parent, path, newValue, v.forest.NumChildren(parentNode)+1)
}

func checkMaxChildren(v view, rulePath, valuePath statetree.Path, newValue any, numChildren int) *Result {
	match := v.match(RulesLabel, rulePath, rules.StateRuleKind)
	if !match.HasConfig() {
		return nil
	}
	state := rules.ParseStateRule(match.MatchedConfig.Config)
	if state.AllowsChildren(numChildren) {
		return nil
	}
	return failure(EvalRuleFalseStateRule, fmt.Sprintf(
		"State rule evaluated false: [%s] at '%s' for value path '%s' with newValue '%s'",
		state, match.MatchedConfig.Path, valuePath, toJson(newValue)))
}

// configTarget describes the config trees guarded by owner permissions.
type configTarget struct {
	name           string
	subtreeCode    ResultCode
	permissionCode ResultCode
}

var (
	ruleTarget     = configTarget{"rule", EvalOwnerNonEmptySubtreeOwnersForRule, EvalOwnerFalsePermissionForRule}
	functionTarget = configTarget{"function", EvalOwnerNonEmptySubtreeOwnersForFunction, EvalOwnerFalsePermissionForFunction}
	ownerTarget    = configTarget{"owner", EvalOwnerNonEmptySubtreeOwnersForOwner, EvalOwnerFalsePermissionForOwner}
)

func targetOf(permission rules.Permission) (configTarget, bool) {
	switch permission {
	case rules.WriteRule:
		return ruleTarget, true
	case rules.WriteFunction:
		return functionTarget, true
	case rules.WriteOwner, rules.BranchOwner:
		return ownerTarget, true
	}
	return configTarget{}, false
}

// evalOwner checks whether the closest owner config of the given path
// grants the permission to the author. Owner configs below the path block
// the write unless the write is merged into the existing configs. The
// owner permissions write_owner and branch_owner are interchangeable: the
// former is required to modify the matched owner config itself, the latter
// to create owner configs below it. On success, nil is returned.
func evalOwner(v view, path statetree.Path, permission rules.Permission, auth rules.Auth, isMerge bool) *Result {
	target, valid := targetOf(permission)
	if !valid {
		return failure(EvalOwnerInvalidPermission, fmt.Sprintf(
			"Invalid permission '%s' for local path '%s' with auth '%s'", permission, path, toJson(auth)))
	}
	match := v.matchOwner(path)
	if !isMerge && len(match.SubtreeConfigs) > 0 {
		return failure(target.subtreeCode, fmt.Sprintf(
			"Non-empty (%d) subtree owners for %s path '%s': %s",
			len(match.SubtreeConfigs), target.name, path, toJson(subtreeConfigPaths(match.SubtreeConfigs))))
	}
	if target == ownerTarget {
		if match.MatchedConfig.Path == match.MatchedPath.TargetPath {
			permission = rules.WriteOwner
		} else {
			permission = rules.BranchOwner
		}
	}
	if rules.HasPermission(match.MatchedConfig.Config, auth, permission) {
		return nil
	}
	entry, _ := rules.OwnerEntry(match.MatchedConfig.Config, auth)
	return failure(target.permissionCode, fmt.Sprintf(
		"%s permission evaluated false: [%s] at '%s' for %s path '%s' with permission '%s', auth '%s'",
		permission, toJson(entry), match.MatchedConfig.Path, target.name, path, permission, toJson(auth)))
}
