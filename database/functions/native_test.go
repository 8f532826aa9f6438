// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package functions

import "testing"

func TestRegistry_ContainsBuiltInFunctions(t *testing.T) {
	registry := NewRegistry()
	for _, fid := range []string{SaveLastTxId, EraseValueId, FailId} {
		native, found := registry.Get(fid)
		if !found || native.Run == nil {
			t.Errorf("missing built-in function %s", fid)
		}
		if native.OwnerOnly {
			t.Errorf("built-in function %s should not be owner-only", fid)
		}
	}
	if _, found := registry.Get("_unknown"); found {
		t.Errorf("unexpected function _unknown")
	}
}

func TestRegistry_FindOwnerOnlyFunction(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NativeFunction{Id: "_restricted", Run: fail, OwnerOnly: true})

	tests := map[string]struct {
		obj   any
		fid   string
		found bool
	}{
		"null":         {nil, "", false},
		"value":        {"text", "", false},
		"no functions": {map[string]any{"a": 1}, "", false},
		"public": {map[string]any{
			Label: map[string]any{SaveLastTxId: map[string]any{}},
		}, "", false},
		"at root": {map[string]any{
			Label: map[string]any{"_restricted": map[string]any{}},
		}, "_restricted", true},
		"nested": {map[string]any{
			"a": map[string]any{"$b": map[string]any{
				Label: map[string]any{SaveLastTxId: map[string]any{}, "_restricted": nil},
			}},
		}, "_restricted", true},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			fid, found := registry.FindOwnerOnlyFunction(test.obj)
			if fid != test.fid || found != test.found {
				t.Errorf("unexpected result, wanted %q/%t, got %q/%t", test.fid, test.found, fid, found)
			}
		})
	}
}

func TestRegistry_RegisterReplacesFunctions(t *testing.T) {
	registry := NewRegistry()
	registry.Register(NativeFunction{Id: FailId, Run: eraseValue, OwnerOnly: true})
	native, _ := registry.Get(FailId)
	if !native.OwnerOnly {
		t.Errorf("registered function did not replace built-in function")
	}
}
