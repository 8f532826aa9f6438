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
	"unsafe"

	"github.com/ainblockchain/worldstate/common"
	"golang.org/x/exp/maps"
)

// NodeId addresses a node within a Forest. NodeIds serve the same role as
// pointers in in-memory implementations of trees: they allow nodes to be
// referenced by parents and version roots. The zero id is not a valid node.
type NodeId uint32

// NoNode is the id used for absent nodes.
const NoNode = NodeId(0)

func (id NodeId) IsValid() bool {
	return id != NoNode
}

// childRef is an edge from a parent to one of its children. The sequence
// number records the order in which children were admitted to the parent.
type childRef struct {
	id  NodeId
	seq uint64
}

// node is a vertex of the state tree. A node is either a leaf, carrying a
// value, or an internal node carrying children. Nodes are shared among
// versions; refCount tracks the number of edges and version roots pointing
// to the node.
type node struct {
	inUse    bool
	leaf     bool
	value    Value
	children map[string]childRef
	nextSeq  uint64
	version  string
	refCount int

	proofHash       common.Hash
	treeHeight      int
	treeSize        int
	treeBytes       int
	maxSiblingCount int
}

// Forest is an arena of state nodes shared by all versions of a state. Nodes
// are addressed by NodeIds and reclaimed as soon as their reference count
// drops to zero. A Forest is not thread safe; synchronization is the
// responsibility of the owning database.
type Forest struct {
	nodes    []node
	freeList []NodeId
	numLive  int
}

// NewForest creates an empty forest.
func NewForest() *Forest {
	return &Forest{
		// index 0 is reserved for NoNode
		nodes:    make([]node, 1, 1024),
		freeList: make([]NodeId, 0, 128),
	}
}

func (f *Forest) newNode() NodeId {
	var id NodeId
	if l := len(f.freeList); l > 0 {
		id = f.freeList[l-1]
		f.freeList = f.freeList[:l-1]
	} else {
		id = NodeId(len(f.nodes))
		f.nodes = append(f.nodes, node{})
	}
	f.nodes[id] = node{inUse: true}
	f.numLive++
	return id
}

// get resolves a node id. Addressing a released node is an invariant
// violation and causes a panic.
func (f *Forest) get(id NodeId) *node {
	if id == NoNode || int(id) >= len(f.nodes) || !f.nodes[id].inUse {
		panic(fmt.Sprintf("access to invalid state node %d", id))
	}
	return &f.nodes[id]
}

// NewLeaf creates a leaf node holding the given value. The new node is not
// referenced by anything yet.
func (f *Forest) NewLeaf(value Value, version string) NodeId {
	id := f.newNode()
	n := &f.nodes[id]
	n.leaf = true
	n.value = value
	n.version = version
	f.recompute(n)
	return id
}

// NewInternal creates an internal node without children. Such a node is
// only a valid state once children are attached.
func (f *Forest) NewInternal(version string) NodeId {
	id := f.newNode()
	n := &f.nodes[id]
	n.children = map[string]childRef{}
	n.version = version
	f.recompute(n)
	return id
}

// Clone creates a shallow copy of a node stamped with the given version. The
// copy shares all children with the original, whose reference counts are
// incremented accordingly. The copy itself is not referenced yet.
func (f *Forest) Clone(id NodeId, version string) NodeId {
	res := f.newNode()
	// the arena may have grown, so the source is resolved after allocation
	src := f.get(id)
	dst := &f.nodes[res]
	*dst = *src
	dst.version = version
	dst.refCount = 0
	if !src.leaf {
		dst.children = maps.Clone(src.children)
		for _, child := range dst.children {
			f.get(child.id).refCount++
		}
	}
	return res
}

// Retain registers an additional reference to the given node.
func (f *Forest) Retain(id NodeId) {
	f.get(id).refCount++
}

// Release drops a reference to the given node. Nodes without remaining
// references are reclaimed, recursively releasing their children.
func (f *Forest) Release(id NodeId) {
	n := f.get(id)
	if n.refCount <= 0 {
		panic(fmt.Sprintf("releasing unreferenced state node %d", id))
	}
	n.refCount--
	if n.refCount > 0 {
		return
	}
	children := n.children
	*n = node{}
	f.freeList = append(f.freeList, id)
	f.numLive--
	for _, child := range children {
		f.Release(child.id)
	}
}

// IsLeaf reports whether the given node is a leaf node.
func (f *Forest) IsLeaf(id NodeId) bool {
	return f.get(id).leaf
}

// GetValue returns the value of a leaf node. Internal nodes have no value.
func (f *Forest) GetValue(id NodeId) (Value, bool) {
	n := f.get(id)
	return n.value, n.leaf
}

// GetChild looks up the child of a node with the given label.
func (f *Forest) GetChild(id NodeId, label string) (NodeId, bool) {
	n := f.get(id)
	if n.leaf {
		return NoNode, false
	}
	child, found := n.children[label]
	return child.id, found
}

// SetChild attaches the given child under the label, replacing a previous
// child. The reference count of the new child is incremented and the one of
// the replaced child decremented. Leaf nodes are turned into internal nodes.
// Proof hashes and metrics are not updated; see Recompute.
func (f *Forest) SetChild(id NodeId, label string, child NodeId) {
	f.Retain(child)
	n := f.get(id)
	if n.leaf {
		n.leaf = false
		n.value = Null()
		n.children = map[string]childRef{}
	}
	old, found := n.children[label]
	if found {
		// replaced children keep their admission order
		n.children[label] = childRef{id: child, seq: old.seq}
		f.Release(old.id)
		return
	}
	n.children[label] = childRef{id: child, seq: n.nextSeq}
	n.nextSeq++
}

// DeleteChild removes the child with the given label, if present.
func (f *Forest) DeleteChild(id NodeId, label string) bool {
	n := f.get(id)
	old, found := n.children[label]
	if !found {
		return false
	}
	delete(n.children, label)
	f.Release(old.id)
	return true
}

// ChildLabels lists the labels of all children in lexicographical order.
func (f *Forest) ChildLabels(id NodeId) []string {
	res := maps.Keys(f.get(id).children)
	slices.Sort(res)
	return res
}

// ChildLabelsByAge lists the labels of all children, oldest first.
func (f *Forest) ChildLabelsByAge(id NodeId) []string {
	n := f.get(id)
	res := maps.Keys(n.children)
	slices.SortFunc(res, func(a, b string) int {
		sa, sb := n.children[a].seq, n.children[b].seq
		if sa < sb {
			return -1
		}
		if sa > sb {
			return 1
		}
		return 0
	})
	return res
}

func (f *Forest) NumChildren(id NodeId) int {
	return len(f.get(id).children)
}

func (f *Forest) Version(id NodeId) string {
	return f.get(id).version
}

func (f *Forest) SetVersion(id NodeId, version string) {
	f.get(id).version = version
}

func (f *Forest) RefCount(id NodeId) int {
	return f.get(id).refCount
}

func (f *Forest) ProofHash(id NodeId) common.Hash {
	return f.get(id).proofHash
}

// NodeInfo summarizes the cached metrics of a node.
type NodeInfo struct {
	ProofHash       common.Hash
	Version         string
	RefCount        int
	NumChildren     int
	TreeHeight      int
	TreeSize        int
	TreeBytes       int
	MaxSiblingCount int
}

func (f *Forest) Info(id NodeId) NodeInfo {
	n := f.get(id)
	return NodeInfo{
		ProofHash:       n.proofHash,
		Version:         n.version,
		RefCount:        n.refCount,
		NumChildren:     len(n.children),
		TreeHeight:      n.treeHeight,
		TreeSize:        n.treeSize,
		TreeBytes:       n.treeBytes,
		MaxSiblingCount: n.maxSiblingCount,
	}
}

// NumNodes is the number of live nodes in the forest.
func (f *Forest) NumNodes() int {
	return f.numLive
}

// GetMemoryFootprint reports the memory used by the arena.
func (f *Forest) GetMemoryFootprint() *common.MemoryFootprint {
	res := common.NewMemoryFootprint(unsafe.Sizeof(*f))
	res.AddChild("nodes", common.NewMemoryFootprint(uintptr(cap(f.nodes))*unsafe.Sizeof(node{})))
	res.AddChild("freeList", common.NewMemoryFootprint(uintptr(cap(f.freeList))*unsafe.Sizeof(NodeId(0))))
	return res
}
