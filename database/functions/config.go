// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package functions

import (
	"slices"

	"github.com/ainblockchain/worldstate/database/matcher"
	"github.com/ainblockchain/worldstate/database/rules"
	"github.com/ainblockchain/worldstate/database/statetree"
	"golang.org/x/exp/maps"
)

// Type distinguishes functions executed by the node from functions
// delegated to external services.
type Type string

const (
	Native = Type("NATIVE")
	Rest   = Type("REST")
)

// Label is the label under which function configs are stored.
const Label = rules.FunctionLabel

// Kind matches function configs. Functions are only triggered by writes to
// the exact path they are configured for.
var Kind = matcher.Kind{
	Name:        "function",
	ConfigLabel: Label,
}

// Properties of function entries.
const (
	TypeProperty = "function_type"
	IdProperty   = "function_id"
	UrlProperty  = "function_url"
)

// Function is a single entry of a function config.
type Function struct {
	Type Type   `json:"function_type"`
	Id   string `json:"function_id"`
	Url  string `json:"function_url,omitempty"`
}

func (f Function) toObject() map[string]any {
	res := map[string]any{
		TypeProperty: string(f.Type),
		IdProperty:   f.Id,
	}
	if f.Url != "" {
		res[UrlProperty] = f.Url
	}
	return res
}

// ParseConfig extracts the entries of a function config, ordered by
// function id. Malformed entries are skipped.
func ParseConfig(config any) []Function {
	dict, _ := config.(map[string]any)
	fids := maps.Keys(dict)
	slices.Sort(fids)
	res := make([]Function, 0, len(fids))
	for _, fid := range fids {
		entry, ok := parseEntry(fid, dict[fid])
		if ok {
			res = append(res, entry)
		}
	}
	return res
}

func parseEntry(fid string, obj any) (Function, bool) {
	dict, isDict := obj.(map[string]any)
	if !isDict {
		return Function{}, false
	}
	kind, _ := dict[TypeProperty].(string)
	id, _ := dict[IdProperty].(string)
	url, _ := dict[UrlProperty].(string)
	res := Function{Type: Type(kind), Id: id, Url: url}
	if id != fid || (res.Type != Native && res.Type != Rest) {
		return Function{}, false
	}
	return res, true
}

// ValidateTree checks a function tree object. Null entries are accepted as
// they remove the respective function when merged. On failure, the path of
// the first invalid element is returned.
func ValidateTree(obj any) (statetree.Path, bool) {
	if obj == nil {
		return nil, true
	}
	return validateSubtree(obj, statetree.Path{})
}

func validateSubtree(obj any, path statetree.Path) (statetree.Path, bool) {
	dict, isDict := obj.(map[string]any)
	if !isDict || len(dict) == 0 {
		return path, false
	}
	keys := maps.Keys(dict)
	slices.Sort(keys)
	for _, key := range keys {
		cur := path.Child(key)
		if key == Label {
			if invalid, ok := validateConfig(dict[key]); !ok {
				return cur.Child(invalid...), false
			}
			continue
		}
		if invalid, ok := validateSubtree(dict[key], cur); !ok {
			return invalid, false
		}
	}
	return nil, true
}

func validateConfig(config any) (statetree.Path, bool) {
	if config == nil {
		return nil, true
	}
	dict, isDict := config.(map[string]any)
	if !isDict || len(dict) == 0 {
		return statetree.Path{}, false
	}
	fids := maps.Keys(dict)
	slices.Sort(fids)
	for _, fid := range fids {
		if invalid, ok := validateEntry(fid, dict[fid]); !ok {
			return statetree.Path{fid}.Child(invalid...), false
		}
	}
	return nil, true
}

func validateEntry(fid string, obj any) (statetree.Path, bool) {
	if obj == nil {
		return nil, true
	}
	if !statetree.IsValidLabel(fid) {
		return statetree.Path{}, false
	}
	dict, isDict := obj.(map[string]any)
	if !isDict {
		return statetree.Path{}, false
	}
	for key, value := range dict {
		switch key {
		case TypeProperty, IdProperty, UrlProperty:
			if _, isString := value.(string); !isString {
				return statetree.Path{key}, false
			}
		default:
			return statetree.Path{key}, false
		}
	}
	kind, _ := dict[TypeProperty].(string)
	switch Type(kind) {
	case Native:
	case Rest:
		if url, _ := dict[UrlProperty].(string); url == "" {
			return statetree.Path{UrlProperty}, false
		}
	default:
		return statetree.Path{TypeProperty}, false
	}
	if dict[IdProperty] != fid {
		return statetree.Path{IdProperty}, false
	}
	return nil, true
}

// MergeConfig combines an existing function config with an update. Entries
// of the update replace entries with the same function id; null entries
// remove them. The result is nil if no entry remains.
func MergeConfig(existing, update any) any {
	res := map[string]any{}
	if dict, isDict := existing.(map[string]any); isDict {
		for fid, entry := range dict {
			res[fid] = entry
		}
	}
	updates, isDict := update.(map[string]any)
	if !isDict {
		return update
	}
	for fid, entry := range updates {
		if entry == nil {
			delete(res, fid)
		} else {
			res[fid] = entry
		}
	}
	if len(res) == 0 {
		return nil
	}
	return res
}

// MergeTree applies MergeConfig to every function config of a function tree
// update against the given lookup of existing configs. Configs are located
// relative to the root of the update.
func MergeTree(update any, existing func(path statetree.Path) any) any {
	return mergeTree(update, statetree.Path{}, existing)
}

func mergeTree(update any, path statetree.Path, existing func(path statetree.Path) any) any {
	dict, isDict := update.(map[string]any)
	if !isDict {
		return update
	}
	res := make(map[string]any, len(dict))
	for key, value := range dict {
		var merged any
		if key == Label {
			merged = MergeConfig(existing(path), value)
		} else {
			merged = mergeTree(value, path.Child(key), existing)
		}
		if merged != nil {
			res[key] = merged
		}
	}
	if len(res) == 0 {
		return nil
	}
	return res
}
