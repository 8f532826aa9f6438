// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"regexp"
	"strings"
	"testing"
)

func TestMemoryFootprint_PrintsNamedComponents(t *testing.T) {
	fp := NewMemoryFootprint(12)
	fp.AddChild("left", NewMemoryFootprint(50*1024))
	fp.AddChild("right", NewMemoryFootprint(10*1024*1024+200*1024))

	print := fp.String()
	for _, want := range []string{"10.2 MB .", "50.0 KB ./left", "10.2 MB ./right"} {
		if !strings.Contains(print, want) {
			t.Errorf("expected %q to contain %q", print, want)
		}
	}
}

func TestMemoryFootprint_Value(t *testing.T) {
	fp := NewMemoryFootprint(12)
	if got, want := fp.Value(), uintptr(12); got != want {
		t.Errorf("value does not match: %d != %d", got, want)
	}
}

func TestMemoryFootprint_SharedAndRecursiveChildrenAreCountedOnce(t *testing.T) {
	shared := NewMemoryFootprint(10)
	fp := NewMemoryFootprint(12)
	fp.AddChild("a", shared)
	fp.AddChild("b", shared)
	fp.AddChild("self", fp)
	fp.AddChild("nil", nil)

	if got, want := fp.Total(), uintptr(22); got != want {
		t.Errorf("total does not match: %d != %d", got, want)
	}
}

func TestMemoryFootprint_PrintsComponentsInOrder(t *testing.T) {
	fp := NewMemoryFootprint(4)
	fp.AddChild("b", NewMemoryFootprint(5))
	fp.AddChild("a", NewMemoryFootprint(6))
	fp.AddChild("c", NewMemoryFootprint(7))

	match, err := regexp.MatchString(`6 B ./a[\S\s]*5 B ./b[\S\s]*7 B ./c`, fp.String())
	if err != nil {
		t.Fatalf("failed to match: %v", err)
	}
	if !match {
		t.Errorf("components not in order: %v", fp)
	}
}
