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
	"encoding/json"
	"fmt"
	"slices"

	"github.com/ainblockchain/worldstate/common"
	"golang.org/x/exp/maps"
)

// StateProof is a proof for the presence of a node in a state tree. It
// contains, for every node on the path from the root to the proven node, the
// proof hashes of all children of that node. Only the child on the path is
// expanded further. Proofs are encoded in JSON as nested objects annotated
// with "#state_ph" keys.
type StateProof struct {
	ProofHash common.Hash
	Children  map[string]*StateProof
}

// GetStateProof creates a proof for the node addressed by the given path.
func (f *Forest) GetStateProof(root NodeId, path Path) (*StateProof, bool) {
	if _, found := f.Lookup(root, path); !found {
		return nil, false
	}
	res := &StateProof{ProofHash: f.ProofHash(root)}
	cur, curProof := root, res
	for _, label := range path {
		curProof.Children = map[string]*StateProof{}
		var next *StateProof
		for childLabel, ref := range f.get(cur).children {
			childProof := &StateProof{ProofHash: f.get(ref.id).proofHash}
			curProof.Children[childLabel] = childProof
			if childLabel == label {
				next = childProof
			}
		}
		cur, _ = f.GetChild(cur, label)
		curProof = next
	}
	return res, true
}

// ProofVerification is the outcome of verifying a state proof.
type ProofVerification struct {
	IsVerified   bool        `json:"is_verified"`
	CurProofHash common.Hash `json:"cur_proof_hash"`
	// Set only if the verification failed.
	MismatchedPath              string      `json:"mismatched_path,omitempty"`
	MismatchedProofHash         common.Hash `json:"mismatched_proof_hash"`
	MismatchedProofHashComputed common.Hash `json:"mismatched_proof_hash_computed"`
}

// VerifyStateProof recomputes the proof hashes of a state proof bottom-up and
// compares them with the hashes recorded in the proof. Nodes without children
// in the proof are trusted to carry the correct hash. The deepest mismatch
// found is reported.
func VerifyStateProof(proof *StateProof) ProofVerification {
	if proof == nil {
		return ProofVerification{}
	}
	computed, mismatch := verifyStateProof(proof, Path{})
	if mismatch != nil {
		return *mismatch
	}
	return ProofVerification{IsVerified: true, CurProofHash: computed}
}

func verifyStateProof(proof *StateProof, path Path) (common.Hash, *ProofVerification) {
	if len(proof.Children) == 0 {
		return proof.ProofHash, nil
	}
	hashes := make(map[string]common.Hash, len(proof.Children))
	labels := maps.Keys(proof.Children)
	slices.Sort(labels)
	for _, label := range labels {
		hash, mismatch := verifyStateProof(proof.Children[label], path.Child(label))
		if mismatch != nil {
			return hash, mismatch
		}
		hashes[label] = hash
	}
	computed := InternalProofHash(hashes)
	if computed != proof.ProofHash {
		return computed, &ProofVerification{
			CurProofHash:                computed,
			MismatchedPath:              path.String(),
			MismatchedProofHash:         proof.ProofHash,
			MismatchedProofHashComputed: computed,
		}
	}
	return computed, nil
}

func (p *StateProof) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.toObject())
}

func (p *StateProof) toObject() map[string]any {
	res := make(map[string]any, len(p.Children)+1)
	res[ProofHashKey] = p.ProofHash.Hex()
	for label, child := range p.Children {
		res[label] = child.toObject()
	}
	return res
}

func (p *StateProof) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	raw, found := obj[ProofHashKey]
	if !found {
		return fmt.Errorf("missing %s in state proof", ProofHashKey)
	}
	if err := json.Unmarshal(raw, &p.ProofHash); err != nil {
		return err
	}
	p.Children = nil
	for label, raw := range obj {
		if label == ProofHashKey {
			continue
		}
		if p.Children == nil {
			p.Children = map[string]*StateProof{}
		}
		child := &StateProof{}
		if err := json.Unmarshal(raw, child); err != nil {
			return fmt.Errorf("invalid state proof for %s: %w", label, err)
		}
		p.Children[label] = child
	}
	return nil
}
