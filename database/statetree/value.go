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
	"math"
	"strconv"
)

// ValueKind enumerates the types of values that may be stored in leaf nodes.
type ValueKind uint8

const (
	NullKind ValueKind = iota
	BoolKind
	NumberKind
	StringKind
)

func (k ValueKind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "boolean"
	case NumberKind:
		return "number"
	case StringKind:
		return "string"
	}
	return fmt.Sprintf("ValueKind(%d)", uint8(k))
}

// Value is the payload of a leaf node. It is a closed variant of null,
// boolean, number and string values. The zero value is null.
type Value struct {
	kind   ValueKind
	bool   bool
	number float64
	string string
}

func Null() Value                 { return Value{} }
func Bool(b bool) Value           { return Value{kind: BoolKind, bool: b} }
func Number(n float64) Value      { return Value{kind: NumberKind, number: n} }
func String(s string) Value       { return Value{kind: StringKind, string: s} }
func (v Value) Kind() ValueKind   { return v.kind }
func (v Value) IsNull() bool      { return v.kind == NullKind }
func (v Value) IsNumber() bool    { return v.kind == NumberKind }
func (v Value) AsNumber() float64 { return v.number }

// ValueOf converts a plain Go scalar into a Value. Supported are nil, bool,
// all integer and float types, json.Number and string.
func ValueOf(x any) (Value, bool) {
	switch v := x.(type) {
	case nil:
		return Null(), true
	case bool:
		return Bool(v), true
	case string:
		return String(v), true
	case float64:
		return numberOf(v)
	case float32:
		return numberOf(float64(v))
	case int:
		return Number(float64(v)), true
	case int8:
		return Number(float64(v)), true
	case int16:
		return Number(float64(v)), true
	case int32:
		return Number(float64(v)), true
	case int64:
		return Number(float64(v)), true
	case uint:
		return Number(float64(v)), true
	case uint8:
		return Number(float64(v)), true
	case uint16:
		return Number(float64(v)), true
	case uint32:
		return Number(float64(v)), true
	case uint64:
		return Number(float64(v)), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return Null(), false
		}
		return numberOf(f)
	case Value:
		return v, true
	}
	return Null(), false
}

func numberOf(f float64) (Value, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null(), false
	}
	return Number(f), true
}

// ToAny converts the value back into a plain Go value (nil, bool, float64
// or string).
func (v Value) ToAny() any {
	switch v.kind {
	case BoolKind:
		return v.bool
	case NumberKind:
		return v.number
	case StringKind:
		return v.string
	}
	return nil
}

// String renders the canonical text of the value. The canonical text is the
// input of the leaf proof hash.
func (v Value) String() string {
	switch v.kind {
	case BoolKind:
		return strconv.FormatBool(v.bool)
	case NumberKind:
		return formatNumber(v.number)
	case StringKind:
		return v.string
	}
	return "null"
}

func formatNumber(n float64) string {
	if n == 0 {
		return "0"
	}
	if abs := math.Abs(n); abs >= 1e21 || abs < 1e-6 {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// byteSize is the estimated serialized size of the value, as accounted for
// in the tree byte metric.
func (v Value) byteSize() int {
	switch v.kind {
	case BoolKind:
		return 4
	case NumberKind:
		return 8
	case StringKind:
		return 2 * len(v.string)
	}
	return 0
}
