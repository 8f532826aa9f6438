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
	"strings"

	"github.com/ainblockchain/worldstate/database/statetree"
)

// Permission is a capability granted to owners of a path.
type Permission string

const (
	// BranchOwner allows to create owner configs below an owner config.
	BranchOwner = Permission("branch_owner")
	// WriteOwner allows to modify an owner config.
	WriteOwner = Permission("write_owner")
	// WriteRule allows to modify rule configs.
	WriteRule = Permission("write_rule")
	// WriteFunction allows to modify function configs.
	WriteFunction = Permission("write_function")
)

var allPermissions = []Permission{BranchOwner, WriteOwner, WriteRule, WriteFunction}

func (p Permission) IsValid() bool {
	for _, cur := range allPermissions {
		if cur == p {
			return true
		}
	}
	return false
}

// FidOwnerPrefix marks owner entries granting permissions to functions.
const FidOwnerPrefix = "fid:"

// OwnerEntry selects the entry of an owner config applying to the given
// author. Function entries take precedence over address entries, which take
// precedence over the wildcard entry.
func OwnerEntry(ownerConfig any, auth Auth) (map[string]any, bool) {
	owners := asDict(asDict(ownerConfig)[OwnersProperty])
	if owners == nil {
		return nil, false
	}
	keys := make([]string, 0, 3)
	if auth.Fid != "" {
		keys = append(keys, FidOwnerPrefix+auth.Fid)
	}
	if auth.Addr != "" {
		keys = append(keys, auth.Addr)
	}
	keys = append(keys, statetree.Wildcard)
	for _, key := range keys {
		if entry, found := owners[key]; found {
			return asDict(entry), true
		}
	}
	return nil, false
}

// HasPermission checks whether the owner config grants the permission to the
// given author.
func HasPermission(ownerConfig any, auth Auth, permission Permission) bool {
	entry, found := OwnerEntry(ownerConfig, auth)
	if !found {
		return false
	}
	granted, _ := entry[string(permission)].(bool)
	return granted
}

// ValidateOwnerTree checks an owner tree object. On failure, the path of
// the first invalid element is returned.
func ValidateOwnerTree(obj any) (statetree.Path, bool) {
	return validateTree(obj, OwnerLabel, validateOwnerConfig)
}

func validateOwnerConfig(config any) (statetree.Path, bool) {
	dict, isDict := config.(map[string]any)
	if !isDict || len(dict) != 1 {
		return statetree.Path{}, false
	}
	owners, isDict := dict[OwnersProperty].(map[string]any)
	if !isDict || len(owners) == 0 {
		return statetree.Path{OwnersProperty}, false
	}
	for _, owner := range sortedKeys(owners) {
		if owner == "" || (strings.HasPrefix(owner, FidOwnerPrefix) && len(owner) == len(FidOwnerPrefix)) {
			return statetree.Path{OwnersProperty, owner}, false
		}
		entry, isDict := owners[owner].(map[string]any)
		if !isDict || len(entry) != len(allPermissions) {
			return statetree.Path{OwnersProperty, owner}, false
		}
		for _, permission := range allPermissions {
			if _, isBool := entry[string(permission)].(bool); !isBool {
				return statetree.Path{OwnersProperty, owner, string(permission)}, false
			}
		}
	}
	return nil, true
}
