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

// isWritable reports whether a node may be modified in place by a writer of
// the given version. Shared nodes and nodes last written by another version
// need to be cloned first.
func (f *Forest) isWritable(id NodeId, version string) bool {
	n := f.get(id)
	return n.refCount <= 1 && n.version == version
}

// GetRefForWriting walks the given path starting at the root, making every
// visited node exclusively owned by the given version. Shared nodes and nodes
// of other versions are cloned and the clones are swapped into their parents
// (or into *root). Missing nodes are created as empty internal nodes and leaf
// nodes along the way are replaced. The result lists the visited nodes,
// starting with the root and ending with the node addressed by path.
//
// Newly created nodes are left without children; callers need to attach
// content and run UpdatePath to restore tree invariants.
func (f *Forest) GetRefForWriting(root *NodeId, path Path, version string) []NodeId {
	if !f.isWritable(*root, version) {
		clone := f.Clone(*root, version)
		f.Retain(clone)
		f.Release(*root)
		*root = clone
	}
	chain := make([]NodeId, 0, len(path)+1)
	chain = append(chain, *root)
	cur := *root
	for _, label := range path {
		next, found := f.GetChild(cur, label)
		switch {
		case !found || f.IsLeaf(next):
			next = f.NewInternal(version)
			f.SetChild(cur, label, next)
		case !f.isWritable(next, version):
			next = f.Clone(next, version)
			f.SetChild(cur, label, next)
		}
		chain = append(chain, next)
		cur = next
	}
	return chain
}

// UpdatePath restores the tree invariants along a chain of nodes obtained by
// GetRefForWriting for the given path after the last node has been modified.
// Internal nodes left without children are removed from their parents,
// cascading towards the root, and metrics and proof hashes of the remaining
// nodes are recomputed bottom-up. The root itself is never removed.
func (f *Forest) UpdatePath(chain []NodeId, path Path) {
	for i := len(chain) - 1; i > 0; i-- {
		id := chain[i]
		if !f.IsLeaf(id) && f.NumChildren(id) == 0 {
			f.DeleteChild(chain[i-1], path[i-1])
			continue
		}
		f.Recompute(id)
	}
	f.Recompute(chain[0])
}

// SetNode replaces the subtree addressed by path with the given node. If the
// node is NoNode, the addressed subtree is deleted instead and ancestors left
// empty are pruned. Writes are performed copy-on-write: no node shared with
// another version is ever modified. The given subtree must not be referenced
// yet; its ownership is transferred to the tree.
func (f *Forest) SetNode(root *NodeId, path Path, version string, subtree NodeId) {
	if len(path) == 0 {
		if subtree == NoNode {
			subtree = f.NewInternal(version)
		}
		f.Retain(subtree)
		f.Release(*root)
		*root = subtree
		return
	}
	parentPath := path.Parent()
	chain := f.GetRefForWriting(root, parentPath, version)
	parent := chain[len(chain)-1]
	if subtree == NoNode {
		f.DeleteChild(parent, path.Last())
	} else {
		f.SetChild(parent, path.Last(), subtree)
	}
	f.UpdatePath(chain, parentPath)
}

// SetValue writes the given object at the given path. A nil object deletes
// the addressed subtree.
func (f *Forest) SetValue(root *NodeId, path Path, version string, obj any) error {
	if obj == nil {
		f.SetNode(root, path, version, NoNode)
		return nil
	}
	subtree, err := f.BuildTree(obj, version)
	if err != nil {
		return err
	}
	f.SetNode(root, path, version, subtree)
	return nil
}

// Lookup resolves the node addressed by the given path. Reads never modify
// the tree.
func (f *Forest) Lookup(root NodeId, path Path) (NodeId, bool) {
	if root == NoNode {
		return NoNode, false
	}
	cur := root
	for _, label := range path {
		next, found := f.GetChild(cur, label)
		if !found {
			return NoNode, false
		}
		cur = next
	}
	return cur, true
}

// Get returns the plain object stored at the given path, or nil if there is
// none.
func (f *Forest) Get(root NodeId, path Path) any {
	id, found := f.Lookup(root, path)
	if !found {
		return nil
	}
	return f.ToSnapshot(id)
}
