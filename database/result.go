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
	"encoding/json"
	"strconv"

	"github.com/ainblockchain/worldstate/database/functions"
)

// ResultCode identifies the outcome of a write operation. The codes are
// part of the external interface of the chain and must not change.
type ResultCode int

const (
	Success = ResultCode(0)

	// SET_VALUE, INC_VALUE, DEC_VALUE
	InvalidObjectForStates         = ResultCode(10101)
	InvalidValuePath               = ResultCode(10102)
	NonWritablePathWithShardConfig = ResultCode(10103)
	TriggeredFunctionCallFailed    = ResultCode(10104)
	IncValueNotANumber             = ResultCode(10201)
	DecValueNotANumber             = ResultCode(10301)

	// SET_FUNCTION
	SetFunctionInvalidObject     = ResultCode(10401)
	SetFunctionInvalidPath       = ResultCode(10402)
	SetFunctionInvalidTree       = ResultCode(10403)
	SetFunctionNonWritablePath   = ResultCode(10404)
	SetFunctionOwnerOnlyFunction = ResultCode(10405)

	// SET_RULE
	SetRuleInvalidObject   = ResultCode(10501)
	SetRuleInvalidPath     = ResultCode(10502)
	SetRuleInvalidTree     = ResultCode(10503)
	SetRuleNonWritablePath = ResultCode(10504)

	// SET_OWNER
	SetOwnerInvalidObject   = ResultCode(10601)
	SetOwnerInvalidPath     = ResultCode(10602)
	SetOwnerInvalidTree     = ResultCode(10603)
	SetOwnerNonWritablePath = ResultCode(10604)

	InvalidOperationType = ResultCode(10701)

	// tree limits
	OutOfTreeHeightLimit = ResultCode(11101)
	OutOfChildrenLimit   = ResultCode(11102)

	// rule evaluation
	EvalRuleNonEmptySubtreeRules = ResultCode(12101)
	EvalRuleInvalidPath          = ResultCode(12102)
	EvalRuleFalseWriteRule       = ResultCode(12103)
	EvalRuleFalseStateRule       = ResultCode(12104)

	// owner evaluation for rule, function and owner paths
	EvalOwnerNonEmptySubtreeOwnersForRule     = ResultCode(12301)
	EvalOwnerFalsePermissionForRule           = ResultCode(12302)
	EvalOwnerNonEmptySubtreeOwnersForFunction = ResultCode(12401)
	EvalOwnerFalsePermissionForFunction       = ResultCode(12402)
	EvalOwnerNonEmptySubtreeOwnersForOwner    = ResultCode(12501)
	EvalOwnerFalsePermissionForOwner          = ResultCode(12502)
	EvalOwnerInvalidPermission                = ResultCode(12201)
)

func (c ResultCode) IsFailure() bool {
	return c != Success
}

// writeGasAmount is the bandwidth gas charged per write operation.
const writeGasAmount = 1

// Result is the outcome of an operation. The result of a SET operation
// only lists the results of its sub-operations, up to the first failing one.
type Result struct {
	Code               ResultCode                  `json:"code"`
	ErrorMessage       string                      `json:"error_message,omitempty"`
	FuncResults        map[string]functions.Result `json:"func_results,omitempty"`
	BandwidthGasAmount int                         `json:"bandwidth_gas_amount"`

	// ResultList holds the results of the sub-operations of SET operations.
	ResultList []*Result `json:"-"`
}

func success() *Result {
	return &Result{Code: Success, BandwidthGasAmount: writeGasAmount}
}

func failure(code ResultCode, message string) *Result {
	return &Result{Code: code, ErrorMessage: message, BandwidthGasAmount: writeGasAmount}
}

// IsFailure reports whether the operation or any of its sub-operations
// failed.
func (r *Result) IsFailure() bool {
	if r.ResultList != nil {
		for _, cur := range r.ResultList {
			if cur.IsFailure() {
				return true
			}
		}
		return false
	}
	return r.Code.IsFailure()
}

// GasAmount sums up the bandwidth gas of the operation and its
// sub-operations.
func (r *Result) GasAmount() int {
	if r.ResultList == nil {
		return r.BandwidthGasAmount
	}
	res := 0
	for _, cur := range r.ResultList {
		res += cur.GasAmount()
	}
	return res
}

type resultAlias Result

func (r *Result) MarshalJSON() ([]byte, error) {
	if r.ResultList == nil {
		return json.Marshal((*resultAlias)(r))
	}
	list := make(map[string]*Result, len(r.ResultList))
	for i, cur := range r.ResultList {
		list[strconv.Itoa(i)] = cur
	}
	return json.Marshal(map[string]any{"result_list": list})
}

// firstCode is the code of the operation or of its first failing
// sub-operation.
func (r *Result) firstCode() ResultCode {
	for _, cur := range r.ResultList {
		if cur.IsFailure() {
			return cur.firstCode()
		}
	}
	return r.Code
}
