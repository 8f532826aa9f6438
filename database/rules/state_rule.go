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
	"encoding/json"

	"github.com/ainblockchain/worldstate/database/statetree"
)

// StateRule constrains the shape of a state node. Zero values disable the
// respective constraint.
type StateRule struct {
	// MaxChildren is a hard upper limit for the number of children.
	MaxChildren int `json:"max_children,omitempty"`
	// GcMaxSiblings is the number of siblings a node may have before the
	// oldest ones are evicted.
	GcMaxSiblings int `json:"gc_max_siblings,omitempty"`
	// GcNumSiblingsDeleted is the number of siblings evicted at once. If
	// unset, just enough siblings are evicted to satisfy GcMaxSiblings.
	GcNumSiblingsDeleted int `json:"gc_num_siblings_deleted,omitempty"`
}

// ParseStateRule extracts the state rule of a rule config.
func ParseStateRule(ruleConfig any) StateRule {
	state := asDict(asDict(ruleConfig)[StateProperty])
	res := StateRule{}
	res.MaxChildren, _ = toPositiveInt(state[MaxChildrenProperty])
	res.GcMaxSiblings, _ = toPositiveInt(state[GcMaxSiblingsProperty])
	res.GcNumSiblingsDeleted, _ = toPositiveInt(state[GcNumSiblingsDeletedProperty])
	return res
}

func (r StateRule) IsEmpty() bool {
	return r == StateRule{}
}

func (r StateRule) String() string {
	data, _ := json.Marshal(r)
	return string(data)
}

// AllowsChildren reports whether a node may hold the given number of
// children.
func (r StateRule) AllowsChildren(numChildren int) bool {
	return r.MaxChildren == 0 || numChildren <= r.MaxChildren
}

// NumSiblingsToEvict computes how many of the given number of siblings are
// to be evicted after a new sibling was admitted. The admitted sibling
// itself is never evicted.
func (r StateRule) NumSiblingsToEvict(numSiblings int) int {
	if r.GcMaxSiblings == 0 || numSiblings <= r.GcMaxSiblings {
		return 0
	}
	res := numSiblings - r.GcMaxSiblings
	if r.GcNumSiblingsDeleted > 0 {
		res = r.GcNumSiblingsDeleted
	}
	return min(res, numSiblings-1)
}

// validateStateRule checks the "state" property of a rule config.
func validateStateRule(state any) (statetree.Path, bool) {
	dict, isDict := state.(map[string]any)
	if !isDict || len(dict) == 0 {
		return statetree.Path{}, false
	}
	for _, key := range sortedKeys(dict) {
		switch key {
		case MaxChildrenProperty, GcMaxSiblingsProperty, GcNumSiblingsDeletedProperty:
			if _, ok := toPositiveInt(dict[key]); !ok {
				return statetree.Path{key}, false
			}
		default:
			return statetree.Path{key}, false
		}
	}
	if _, found := dict[GcNumSiblingsDeletedProperty]; found {
		if _, found := dict[GcMaxSiblingsProperty]; !found {
			return statetree.Path{GcNumSiblingsDeletedProperty}, false
		}
	}
	return nil, true
}
