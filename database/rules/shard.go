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
	"github.com/ainblockchain/worldstate/database/statetree"
)

// CheckShardWritable checks whether the given path of a state tree is
// writable with respect to shard configs. Paths at or below a node carrying
// an enabled shard config are not writable, except for the shard config
// itself. On failure, the path of the shard root is returned.
func CheckShardWritable(forest *statetree.Forest, root statetree.NodeId, path statetree.Path) (statetree.Path, bool) {
	if !root.IsValid() {
		return nil, true
	}
	cur := root
	for i, label := range path {
		if label != ShardLabel && hasEnabledShardConfig(forest, cur) {
			return path[:i], false
		}
		next, found := forest.GetChild(cur, label)
		if !found {
			return nil, true
		}
		cur = next
	}
	if hasEnabledShardConfig(forest, cur) {
		return path, false
	}
	return nil, true
}

func hasEnabledShardConfig(forest *statetree.Forest, id statetree.NodeId) bool {
	shard, found := forest.GetChild(id, ShardLabel)
	if !found {
		return false
	}
	enabled, found := forest.GetChild(shard, ShardingEnabledProperty)
	if !found {
		return false
	}
	value, _ := forest.GetValue(enabled)
	return value == statetree.Bool(true)
}
