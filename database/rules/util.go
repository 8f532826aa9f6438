// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package rules

import (
	"math"
	"slices"

	"golang.org/x/exp/maps"
)

func sortedKeys[V any](dict map[string]V) []string {
	res := maps.Keys(dict)
	slices.Sort(res)
	return res
}

// toNumber interprets plain numbers of decoded objects.
func toNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

// toPositiveInt accepts positive integral numbers.
func toPositiveInt(value any) (int, bool) {
	n, ok := toNumber(value)
	if !ok || n <= 0 || n != math.Trunc(n) || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}
