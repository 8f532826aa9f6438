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
	"testing"

	"github.com/ainblockchain/worldstate/common"
)

func TestIsValidLabel(t *testing.T) {
	tests := map[string]bool{
		"a":        true,
		"some_key": true,
		"0x09A0d5": true,
		"*":        true,
		"$var":     true,
		".rule":    true,
		"":         false,
		".":        false,
		"$":        false,
		"*a":       false,
		"a*":       false,
		"a.b":      false,
		"a/b":      false,
		"#state":   false,
		"{}":       false,
		"[0]":      false,
		"$a$":      false,
		".a.b":     false,
		"a\x00":    false,
		"a\x1f":    false,
		"a\x7f":    false,
	}
	for label, want := range tests {
		if got := IsValidLabel(label); got != want {
			t.Errorf("unexpected validity of %q, wanted %t, got %t", label, want, got)
		}
	}
}

func TestParsePath_IgnoresEmptySegments(t *testing.T) {
	tests := []struct {
		input string
		want  Path
	}{
		{"", Path{}},
		{"/", Path{}},
		{"//", Path{}},
		{"/a/b/c", Path{"a", "b", "c"}},
		{"a/b/", Path{"a", "b"}},
		{"/a//b", Path{"a", "b"}},
	}
	for _, test := range tests {
		if got := ParsePath(test.input); !got.Equal(test.want) {
			t.Errorf("unexpected path for %q, wanted %v, got %v", test.input, test.want, got)
		}
	}
}

func TestParseValidPath_RejectsReservedLabels(t *testing.T) {
	for _, input := range []string{"/a/.", "/a/$", "/a/*b", "/a/b#c", "/a/[x]"} {
		if _, err := ParseValidPath(input); !errors.Is(err, common.InvalidPath) {
			t.Errorf("expected %q to be rejected, got %v", input, err)
		}
	}
	if _, err := ParseValidPath("/apps/$user/.rule"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPath_StringAndNavigation(t *testing.T) {
	path := Path{"a", "b"}
	if got, want := path.String(), "/a/b"; got != want {
		t.Errorf("unexpected string, wanted %s, got %s", want, got)
	}
	if got, want := (Path{}).String(), "/"; got != want {
		t.Errorf("unexpected string, wanted %s, got %s", want, got)
	}
	child := path.Child("c")
	if got, want := child.String(), "/a/b/c"; got != want {
		t.Errorf("unexpected child, wanted %s, got %s", want, got)
	}
	if !child.Parent().Equal(path) {
		t.Errorf("parent of child should be original path")
	}
	if got, want := child.Last(), "c"; got != want {
		t.Errorf("unexpected last label, wanted %s, got %s", want, got)
	}
	if got := path.String(); got != "/a/b" {
		t.Errorf("deriving a child must not modify the path, got %s", got)
	}
}

func TestIsVariableLabel(t *testing.T) {
	if !IsVariableLabel("$uid") {
		t.Errorf("$uid should be a variable label")
	}
	for _, label := range []string{"$", "uid", ".rule", "*"} {
		if IsVariableLabel(label) {
			t.Errorf("%q should not be a variable label", label)
		}
	}
}
