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

// ConstError is an error type that can be used to define immutable
// error constants shared across the state packages.
type ConstError string

func (e ConstError) Error() string {
	return string(e)
}

const (
	// InvalidPath is reported for paths containing empty or reserved labels.
	InvalidPath = ConstError("invalid path")
	// UnknownVersion is reported when addressing a version that does not exist.
	UnknownVersion = ConstError("unknown version")
	// VersionInUse is reported when trying to remove a version that is still
	// the writable or finalized one.
	VersionInUse = ConstError("version in use")
	// VersionExists is reported when creating a version under a taken id.
	VersionExists = ConstError("version already exists")
)
