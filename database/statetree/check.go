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
	"errors"
	"fmt"
)

// Check verifies the structural invariants of the forest given the complete
// list of roots referencing it. It checks that reference counts match the
// number of edges, that no internal node besides the roots is empty, and that
// all cached hashes and metrics are up to date. This is an expensive
// operation intended for tests and diagnostics.
func (f *Forest) Check(roots []NodeId) error {
	edges := map[NodeId]int{}
	for _, root := range roots {
		edges[root]++
	}
	visited := map[NodeId]bool{}
	var errs []error
	isRoot := map[NodeId]bool{}
	for _, root := range roots {
		isRoot[root] = true
	}
	var visit func(NodeId)
	visit = func(id NodeId) {
		if visited[id] {
			return
		}
		visited[id] = true
		n := f.get(id)
		if n.leaf && len(n.children) > 0 {
			errs = append(errs, fmt.Errorf("leaf node %d has children", id))
		}
		if !n.leaf && len(n.children) == 0 && !isRoot[id] {
			errs = append(errs, fmt.Errorf("internal node %d has no children", id))
		}
		for _, ref := range n.children {
			edges[ref.id]++
			visit(ref.id)
		}
		want := *n
		f.recompute(&want)
		if want.proofHash != n.proofHash {
			errs = append(errs, fmt.Errorf("outdated proof hash of node %d", id))
		}
		if want.treeHeight != n.treeHeight || want.treeSize != n.treeSize ||
			want.treeBytes != n.treeBytes || want.maxSiblingCount != n.maxSiblingCount {
			errs = append(errs, fmt.Errorf("outdated metrics of node %d", id))
		}
	}
	for _, root := range roots {
		visit(root)
	}
	for id, count := range edges {
		if got := f.get(id).refCount; got != count {
			errs = append(errs, fmt.Errorf("invalid reference count of node %d, wanted %d, got %d", id, count, got))
		}
	}
	if len(visited) != f.numLive {
		errs = append(errs, fmt.Errorf("forest contains %d nodes, only %d are reachable", f.numLive, len(visited)))
	}
	return errors.Join(errs...)
}
