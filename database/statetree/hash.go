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
	"slices"
	"strings"

	"github.com/ainblockchain/worldstate/common"
	"golang.org/x/exp/maps"
)

// HashDelimiter separates the tokens of an internal node's hash pre-image.
const HashDelimiter = "#"

// nodeBytesOverhead is the estimated per-node serialization overhead
// accounted for in the tree byte metric.
const nodeBytesOverhead = 160

// LeafProofHash computes the proof hash of a leaf holding the given value.
func LeafProofHash(value Value) common.Hash {
	return common.Keccak256String(value.String())
}

// InternalProofHash computes the proof hash of an internal node from the
// proof hashes of its children.
func InternalProofHash(children map[string]common.Hash) common.Hash {
	labels := maps.Keys(children)
	slices.Sort(labels)
	var sb strings.Builder
	for i, label := range labels {
		if i > 0 {
			sb.WriteString(HashDelimiter)
		}
		sb.WriteString(label)
		sb.WriteString(HashDelimiter)
		sb.WriteString(children[label].Hex())
	}
	return common.Keccak256String(sb.String())
}

// RecomputeProofHash updates the proof hash of the given node based on its
// value or the current hashes of its children.
func (f *Forest) RecomputeProofHash(id NodeId) {
	f.recomputeProofHash(f.get(id))
}

// RecomputeMetrics updates the cached subtree metrics of the given node
// based on the cached metrics of its children.
func (f *Forest) RecomputeMetrics(id NodeId) {
	f.recomputeMetrics(f.get(id))
}

// Recompute updates both the metrics and the proof hash of the given node.
func (f *Forest) Recompute(id NodeId) {
	f.recompute(f.get(id))
}

func (f *Forest) recompute(n *node) {
	f.recomputeMetrics(n)
	f.recomputeProofHash(n)
}

func (f *Forest) recomputeProofHash(n *node) {
	if n.leaf {
		n.proofHash = LeafProofHash(n.value)
		return
	}
	hashes := make(map[string]common.Hash, len(n.children))
	for label, child := range n.children {
		hashes[label] = f.get(child.id).proofHash
	}
	n.proofHash = InternalProofHash(hashes)
}

func (f *Forest) recomputeMetrics(n *node) {
	if n.leaf {
		n.treeHeight = 0
		n.treeSize = 1
		n.treeBytes = nodeBytesOverhead + n.value.byteSize()
		n.maxSiblingCount = 0
		return
	}
	height, size, bytes, maxSiblings := 0, 1, nodeBytesOverhead, len(n.children)
	for label, ref := range n.children {
		child := f.get(ref.id)
		height = max(height, child.treeHeight+1)
		size += child.treeSize
		bytes += 2*len(label) + child.treeBytes
		maxSiblings = max(maxSiblings, child.maxSiblingCount)
	}
	n.treeHeight = height
	n.treeSize = size
	n.treeBytes = bytes
	n.maxSiblingCount = maxSiblings
}
