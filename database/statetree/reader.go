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

// Keys used to annotate projected state objects.
const (
	ProofHashKey   = "#state_ph"
	VersionKey     = "#version"
	TreeHeightKey  = "#tree_height"
	TreeSizeKey    = "#tree_size"
	TreeBytesKey   = "#tree_bytes"
	NumChildrenKey = "#num_children"
	NumParentsKey  = "#num_parents"
)

// ProjectionOptions control the annotations added when projecting a
// subtree into a plain object.
type ProjectionOptions struct {
	// IsShallow replaces internal children by a placeholder carrying only
	// their proof hash.
	IsShallow bool
	// IncludeProof adds the proof hash of every visited node.
	IncludeProof bool
	// IncludeVersion adds the version tag of every visited node.
	IncludeVersion bool
	// IncludeTreeInfo adds the cached metrics of every visited node.
	IncludeTreeInfo bool
}

func (o ProjectionOptions) annotates() bool {
	return o.IncludeProof || o.IncludeVersion || o.IncludeTreeInfo
}

// Project converts the subtree rooted by the given node into a plain object
// annotated according to the given options. Leaf nodes are projected to
// their values. Annotations of leaf children are attached to the parent
// object using keys of the form "#key:label".
func (f *Forest) Project(id NodeId, opts ProjectionOptions) any {
	n := f.get(id)
	if n.leaf {
		return n.value.ToAny()
	}
	if !opts.IsShallow && !opts.annotates() {
		return f.ToSnapshot(id)
	}
	res := make(map[string]any, len(n.children))
	for label, ref := range n.children {
		child := f.get(ref.id)
		switch {
		case child.leaf:
			res[label] = child.value.ToAny()
			f.annotate(res, child, ":"+label, opts)
		case opts.IsShallow:
			res[label] = map[string]any{ProofHashKey: child.proofHash.Hex()}
		default:
			res[label] = f.Project(ref.id, opts)
		}
	}
	f.annotate(res, n, "", opts)
	return res
}

func (f *Forest) annotate(obj map[string]any, n *node, suffix string, opts ProjectionOptions) {
	if opts.IncludeProof {
		obj[ProofHashKey+suffix] = n.proofHash.Hex()
	}
	if opts.IncludeVersion {
		obj[VersionKey+suffix] = n.version
	}
	if opts.IncludeTreeInfo {
		obj[NumParentsKey+suffix] = n.refCount
		obj[TreeHeightKey+suffix] = n.treeHeight
		obj[TreeSizeKey+suffix] = n.treeSize
		obj[TreeBytesKey+suffix] = n.treeBytes
		if !n.leaf {
			obj[NumChildrenKey+suffix] = len(n.children)
		}
	}
}

// StateInfo is the summary of a node reported by state info queries.
type StateInfo struct {
	ProofHash   string `json:"#state_ph"`
	Version     string `json:"#version"`
	NumChildren int    `json:"#num_children"`
	TreeHeight  int    `json:"#tree_height"`
	TreeSize    int    `json:"#tree_size"`
	TreeBytes   int    `json:"#tree_bytes"`
}

// GetStateInfo summarizes the node addressed by the given path.
func (f *Forest) GetStateInfo(root NodeId, path Path) (StateInfo, bool) {
	id, found := f.Lookup(root, path)
	if !found {
		return StateInfo{}, false
	}
	n := f.get(id)
	return StateInfo{
		ProofHash:   n.proofHash.Hex(),
		Version:     n.version,
		NumChildren: len(n.children),
		TreeHeight:  n.treeHeight,
		TreeSize:    n.treeSize,
		TreeBytes:   n.treeBytes,
	}, true
}
