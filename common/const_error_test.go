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
	"errors"
	"fmt"
	"testing"
)

func TestConstError_ErrorsAreDistinct(t *testing.T) {
	all := []error{InvalidPath, UnknownVersion, VersionInUse, VersionExists}
	for i, a := range all {
		for j, b := range all {
			if want, got := i == j, errors.Is(a, b); want != got {
				t.Errorf("unexpected result for %v and %v, wanted %t, got %t", a, b, want, got)
			}
		}
	}
}

func TestConstError_CanBeTestedForWithErrorsIs(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{UnknownVersion, true},
		{fmt.Errorf("%w: detail", UnknownVersion), true},
		{fmt.Errorf("%w: more detail", fmt.Errorf("%w: detail", UnknownVersion)), true},
		{errors.Join(fmt.Errorf("unrelated"), UnknownVersion), true},
		{errors.Join(), false},
		{VersionInUse, false},
	}
	for _, test := range tests {
		if got := errors.Is(test.err, UnknownVersion); got != test.want {
			t.Errorf("unexpected result for %v, wanted %t, got %t", test.err, test.want, got)
		}
	}
}
