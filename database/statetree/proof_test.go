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
	"testing"

	"github.com/ainblockchain/worldstate/common"
)

func TestStateProof_CoversSiblingsAlongPath(t *testing.T) {
	forest, root := newTestTree(t, map[string]any{
		"a": map[string]any{"b": 1, "c": map[string]any{"d": 2}},
		"e": "f",
	}, "v")
	proof, found := forest.GetStateProof(root, ParsePath("/a/c"))
	if !found {
		t.Fatalf("proof not created")
	}
	if proof.ProofHash != forest.ProofHash(root) {
		t.Errorf("proof does not start at root")
	}
	if len(proof.Children) != 2 || len(proof.Children["e"].Children) != 0 {
		t.Errorf("unexpected proof of root level: %v", proof.Children)
	}
	a := proof.Children["a"]
	if len(a.Children) != 2 || len(a.Children["b"].Children) != 0 || len(a.Children["c"].Children) != 0 {
		t.Errorf("unexpected proof of second level: %v", a.Children)
	}

	res := VerifyStateProof(proof)
	if !res.IsVerified {
		t.Errorf("valid proof not verified: %+v", res)
	}
	if res.CurProofHash != forest.ProofHash(root) {
		t.Errorf("verification should reproduce the root hash")
	}
}

func TestStateProof_MissingPathHasNoProof(t *testing.T) {
	forest, root := newTestTree(t, map[string]any{"a": 1}, "v")
	if _, found := forest.GetStateProof(root, ParsePath("/b")); found {
		t.Errorf("proof for missing path should not be created")
	}
}

func TestStateProof_TamperedProofIsDetected(t *testing.T) {
	forest, root := newTestTree(t, map[string]any{"a": map[string]any{"b": 1, "c": 2}}, "v")
	proof, _ := forest.GetStateProof(root, ParsePath("/a/b"))
	a := proof.Children["a"]
	original := a.ProofHash
	a.Children["c"].ProofHash = common.Keccak256String("forged")

	res := VerifyStateProof(proof)
	if res.IsVerified {
		t.Fatalf("tampered proof was verified")
	}
	if got, want := res.MismatchedPath, "/a"; got != want {
		t.Errorf("unexpected mismatched path, wanted %s, got %s", want, got)
	}
	if res.MismatchedProofHash != original {
		t.Errorf("unexpected mismatched hash %v", res.MismatchedProofHash)
	}
	if res.MismatchedProofHashComputed == original {
		t.Errorf("computed hash should differ from recorded hash")
	}
}

func TestStateProof_JsonEncodingRoundTrips(t *testing.T) {
	forest, root := newTestTree(t, map[string]any{"a": map[string]any{"b": 1, "c": 2}, "d": 3}, "v")
	proof, _ := forest.GetStateProof(root, ParsePath("/a/b"))
	data, err := json.Marshal(proof)
	if err != nil {
		t.Fatalf("failed to encode proof: %v", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("failed to decode proof: %v", err)
	}
	if obj[ProofHashKey] != forest.ProofHash(root).Hex() {
		t.Errorf("unexpected encoding %s", data)
	}

	restored := &StateProof{}
	if err := json.Unmarshal(data, restored); err != nil {
		t.Fatalf("failed to decode proof: %v", err)
	}
	if res := VerifyStateProof(restored); !res.IsVerified || res.CurProofHash != forest.ProofHash(root) {
		t.Errorf("restored proof not verified: %+v", res)
	}
}
