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

import (
	"reflect"
	"testing"

	"github.com/ainblockchain/worldstate/database/statetree"
)

func native(fid string) map[string]any {
	return map[string]any{"function_type": "NATIVE", "function_id": fid}
}

func rest(fid, url string) map[string]any {
	return map[string]any{"function_type": "REST", "function_id": fid, "function_url": url}
}

func TestParseConfig_OrdersByIdAndSkipsMalformedEntries(t *testing.T) {
	config := map[string]any{
		"b":     native("b"),
		"a":     rest("a", "http://localhost:3000"),
		"wrong": native("other"),
		"bad":   "entry",
	}
	want := []Function{
		{Type: Rest, Id: "a", Url: "http://localhost:3000"},
		{Type: Native, Id: "b"},
	}
	if got := ParseConfig(config); !reflect.DeepEqual(want, got) {
		t.Errorf("unexpected functions, wanted %v, got %v", want, got)
	}
	if got := ParseConfig(nil); len(got) != 0 {
		t.Errorf("expected no functions for empty config, got %v", got)
	}
}

func TestValidateTree(t *testing.T) {
	tests := []struct {
		obj     any
		invalid string
	}{
		{nil, ""},
		{map[string]any{".function": map[string]any{"_saveLastTx": native("_saveLastTx")}}, ""},
		{map[string]any{"a": map[string]any{"$b": map[string]any{".function": map[string]any{"f": nil}}}}, ""},
		{map[string]any{".function": map[string]any{"f": rest("f", "http://localhost")}}, ""},
		{map[string]any{".function": map[string]any{"f": native("g")}}, "/.function/f/function_id"},
		{map[string]any{".function": map[string]any{"f": map[string]any{"function_type": "REST", "function_id": "f"}}}, "/.function/f/function_url"},
		{map[string]any{".function": map[string]any{"f": map[string]any{"function_type": "OTHER", "function_id": "f"}}}, "/.function/f/function_type"},
		{map[string]any{".function": map[string]any{"f": map[string]any{"function_type": "NATIVE", "function_id": "f", "x": "y"}}}, "/.function/f/x"},
		{map[string]any{".function": "f"}, "/.function"},
		{map[string]any{"a": 1}, "/a"},
	}
	for _, test := range tests {
		path, ok := ValidateTree(test.obj)
		if ok != (test.invalid == "") {
			t.Errorf("unexpected validity of %v: %t", test.obj, ok)
			continue
		}
		if !ok && path.String() != test.invalid {
			t.Errorf("unexpected invalid path for %v, wanted %s, got %s", test.obj, test.invalid, path)
		}
	}
}

func TestMergeConfig(t *testing.T) {
	existing := map[string]any{"a": native("a"), "b": native("b")}
	got := MergeConfig(existing, map[string]any{"a": nil, "c": native("c")})
	want := map[string]any{"b": native("b"), "c": native("c")}
	if !reflect.DeepEqual(want, got) {
		t.Errorf("unexpected merge result, wanted %v, got %v", want, got)
	}
	if got := MergeConfig(map[string]any{"a": native("a")}, map[string]any{"a": nil}); got != nil {
		t.Errorf("expected empty merge result to be nil, got %v", got)
	}
	if got := MergeConfig(existing, nil); got != nil {
		t.Errorf("expected null update to remove the config, got %v", got)
	}
}

func TestMergeTree(t *testing.T) {
	existing := map[string]any{
		"/x": map[string]any{"a": native("a")},
	}
	lookup := func(path statetree.Path) any {
		return existing[path.String()]
	}
	update := map[string]any{
		"x": map[string]any{".function": map[string]any{"b": native("b")}},
		"y": map[string]any{".function": map[string]any{"c": nil}},
	}
	want := map[string]any{
		"x": map[string]any{".function": map[string]any{"a": native("a"), "b": native("b")}},
	}
	if got := MergeTree(update, lookup); !reflect.DeepEqual(want, got) {
		t.Errorf("unexpected merged tree, wanted %v, got %v", want, got)
	}
}
