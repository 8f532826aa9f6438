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
	"math"
	"testing"
)

func TestValueOf_AcceptsScalars(t *testing.T) {
	tests := []struct {
		input any
		want  Value
	}{
		{nil, Null()},
		{true, Bool(true)},
		{"x", String("x")},
		{12, Number(12)},
		{int64(-3), Number(-3)},
		{uint8(7), Number(7)},
		{1.5, Number(1.5)},
		{json.Number("42"), Number(42)},
	}
	for _, test := range tests {
		got, ok := ValueOf(test.input)
		if !ok {
			t.Errorf("failed to convert %v", test.input)
			continue
		}
		if got != test.want {
			t.Errorf("unexpected value for %v, wanted %v, got %v", test.input, test.want, got)
		}
	}
}

func TestValueOf_RejectsUnsupportedTypes(t *testing.T) {
	for _, input := range []any{[]any{1}, map[string]any{}, struct{}{}, math.NaN(), math.Inf(1)} {
		if _, ok := ValueOf(input); ok {
			t.Errorf("expected %v to be rejected", input)
		}
	}
}

func TestValue_CanonicalString(t *testing.T) {
	tests := []struct {
		value Value
		want  string
	}{
		{Null(), "null"},
		{Bool(true), "true"},
		{Bool(false), "false"},
		{Number(123), "123"},
		{Number(-0.5), "-0.5"},
		{Number(1e21), "1e+21"},
		{String("qux"), "qux"},
	}
	for _, test := range tests {
		if got := test.value.String(); got != test.want {
			t.Errorf("unexpected string, wanted %s, got %s", test.want, got)
		}
	}
}

func TestValue_ByteSize(t *testing.T) {
	tests := []struct {
		value Value
		want  int
	}{
		{Null(), 0},
		{Bool(true), 4},
		{Number(1), 8},
		{String("qux"), 6},
	}
	for _, test := range tests {
		if got := test.value.byteSize(); got != test.want {
			t.Errorf("unexpected size of %v, wanted %d, got %d", test.value, test.want, got)
		}
	}
}
