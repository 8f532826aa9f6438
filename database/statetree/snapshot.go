// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package statetree

import (
	"fmt"
	"slices"

	"golang.org/x/exp/maps"
)

// ValidateObject checks whether the given object can be stored in a state
// tree. Accepted are nested maps with valid labels whose leaves are scalar
// values. Arrays and other types are rejected. On failure, the path of the
// first offending element is returned.
func ValidateObject(obj any) (Path, bool) {
	return validateObject(obj, Path{})
}

func validateObject(obj any, path Path) (Path, bool) {
	dict, isDict := obj.(map[string]any)
	if !isDict {
		if _, ok := ValueOf(obj); !ok {
			return path, false
		}
		return nil, true
	}
	labels := maps.Keys(dict)
	slices.Sort(labels)
	for _, label := range labels {
		cur := path.Child(label)
		if !IsValidLabel(label) {
			return cur, false
		}
		if invalid, ok := validateObject(dict[label], cur); !ok {
			return invalid, false
		}
	}
	return nil, true
}

// BuildTree converts the given object into a new tree of nodes stamped with
// the given version. Non-empty maps become internal nodes, everything else
// becomes a leaf; empty maps are stored as null leaves. The resulting root is
// not referenced yet.
func (f *Forest) BuildTree(obj any, version string) (NodeId, error) {
	if invalid, ok := ValidateObject(obj); !ok {
		return NoNode, fmt.Errorf("invalid object for states at %v", invalid)
	}
	return f.buildTree(obj, version), nil
}

func (f *Forest) buildTree(obj any, version string) NodeId {
	dict, isDict := obj.(map[string]any)
	if !isDict || len(dict) == 0 {
		value, _ := ValueOf(obj)
		return f.NewLeaf(value, version)
	}
	id := f.NewInternal(version)
	labels := maps.Keys(dict)
	slices.Sort(labels)
	for _, label := range labels {
		f.SetChild(id, label, f.buildTree(dict[label], version))
	}
	f.Recompute(id)
	return id
}

// ToSnapshot projects the subtree rooted by the given node into a plain
// object: internal nodes become maps and leaves their scalar values.
func (f *Forest) ToSnapshot(id NodeId) any {
	n := f.get(id)
	if n.leaf {
		return n.value.ToAny()
	}
	res := make(map[string]any, len(n.children))
	for label, child := range n.children {
		res[label] = f.ToSnapshot(child.id)
	}
	return res
}
