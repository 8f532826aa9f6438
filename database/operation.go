// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package database

import (
	"github.com/ainblockchain/worldstate/database/rules"
)

// OperationType identifies the kind of a write operation.
type OperationType string

const (
	SetValue    = OperationType("SET_VALUE")
	IncValue    = OperationType("INC_VALUE")
	DecValue    = OperationType("DEC_VALUE")
	SetRule     = OperationType("SET_RULE")
	SetOwner    = OperationType("SET_OWNER")
	SetFunction = OperationType("SET_FUNCTION")
	Set         = OperationType("SET")
)

// Operation is a write request. SET operations carry a list of
// sub-operations which are applied in order; all other operations address
// a single path by Ref.
type Operation struct {
	Type  OperationType `json:"type,omitempty" yaml:"type,omitempty"`
	Ref   string        `json:"ref,omitempty" yaml:"ref,omitempty"`
	Value any           `json:"value" yaml:"value"`
	// IsMerge allows to write configs without clearing configs in the
	// subtree of the target path.
	IsMerge bool `json:"is_merge,omitempty" yaml:"is_merge,omitempty"`
	// IsGlobal marks paths addressed relative to the global state of a
	// sharded chain. It is passed through without interpretation.
	IsGlobal bool        `json:"is_global,omitempty" yaml:"is_global,omitempty"`
	OpList   []Operation `json:"op_list,omitempty" yaml:"op_list,omitempty"`
}

// normalizedType defaults operations without a type to SET_VALUE.
func (o *Operation) normalizedType() OperationType {
	if o.Type == "" {
		return SetValue
	}
	return o.Type
}

// Transaction is an operation issued by an account at a given time.
type Transaction struct {
	Hash      string    `json:"hash" yaml:"hash"`
	Timestamp int64     `json:"timestamp" yaml:"timestamp"`
	Address   string    `json:"address" yaml:"address"`
	Operation Operation `json:"operation" yaml:"operation"`
}

// WriteContext carries the information about the author and the time of a
// write.
type WriteContext struct {
	Auth      rules.Auth
	Timestamp int64
	// TxHash is the hash of the transaction issuing the write, if any.
	TxHash string
}
