// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package functions

import (
	"github.com/ainblockchain/worldstate/database/rules"
	"github.com/ainblockchain/worldstate/database/statetree"
)

// ResultCode is the outcome of a function execution.
type ResultCode int

const (
	Success       = ResultCode(0)
	Failure       = ResultCode(20001)
	InternalError = ResultCode(20002)
)

func (c ResultCode) IsFailure() bool {
	return c != Success
}

// Ids of the built-in native functions.
const (
	SaveLastTxId = "_saveLastTx"
	EraseValueId = "_eraseValue"
	FailId       = "_fail"
)

// LastTxLabel is the label below which _saveLastTx records transactions.
const LastTxLabel = ".last_tx"

// Writer performs writes on behalf of functions. The result is the
// operation result reported to the caller, ok is false if the write failed.
type Writer interface {
	SetValue(path statetree.Path, value any, auth rules.Auth) (result any, ok bool)
}

// OpResult records a write performed by a function.
type OpResult struct {
	Path   string `json:"path"`
	Result any    `json:"result"`
}

// Call describes a single function invocation triggered by a value write.
type Call struct {
	Function     Function
	ValuePath    statetree.Path
	FunctionPath statetree.Path
	Value        any
	PrevValue    any
	Params       map[string]any
	Timestamp    int64
	TxHash       string
	// Auth is the author of the nested writes, identifying the function.
	Auth rules.Auth

	writer    Writer
	opResults []OpResult
}

// SetValue writes a value on behalf of the called function.
func (c *Call) SetValue(path statetree.Path, value any) bool {
	result, ok := c.writer.SetValue(path, value, c.Auth)
	c.opResults = append(c.opResults, OpResult{Path: path.String(), Result: result})
	return ok
}

// NativeFunc implements a native function.
type NativeFunc func(call *Call) ResultCode

// NativeFunction is a function implemented by the node itself.
type NativeFunction struct {
	Id  string
	Run NativeFunc
	// OwnerOnly functions may only be configured by the chain owner.
	OwnerOnly bool
}

// Registry holds the native functions known to a database.
type Registry struct {
	natives map[string]NativeFunction
}

// NewRegistry creates a registry containing the built-in native functions.
func NewRegistry() *Registry {
	res := &Registry{natives: map[string]NativeFunction{}}
	res.Register(NativeFunction{Id: SaveLastTxId, Run: saveLastTx})
	res.Register(NativeFunction{Id: EraseValueId, Run: eraseValue})
	res.Register(NativeFunction{Id: FailId, Run: fail})
	return res
}

// Register adds a native function, replacing any function of the same id.
func (r *Registry) Register(function NativeFunction) {
	r.natives[function.Id] = function
}

func (r *Registry) Get(fid string) (NativeFunction, bool) {
	res, found := r.natives[fid]
	return res, found
}

// FindOwnerOnlyFunction searches a function tree object for configs of
// owner-only native functions and returns the first function id found.
func (r *Registry) FindOwnerOnlyFunction(obj any) (string, bool) {
	dict, isDict := obj.(map[string]any)
	if !isDict {
		return "", false
	}
	for key, child := range dict {
		if key == Label {
			for fid := range asDict(child) {
				if native, found := r.natives[fid]; found && native.OwnerOnly {
					return fid, true
				}
			}
			continue
		}
		if fid, found := r.FindOwnerOnlyFunction(child); found {
			return fid, true
		}
	}
	return "", false
}

func asDict(obj any) map[string]any {
	dict, _ := obj.(map[string]any)
	return dict
}

// saveLastTx records the hash of the triggering transaction next to the
// written value, e.g. /a/.last_tx/b for a write to /a/b.
func saveLastTx(call *Call) ResultCode {
	if call.Value == nil || len(call.ValuePath) == 0 {
		return Success
	}
	path := call.ValuePath.Parent().Child(LastTxLabel, call.ValuePath.Last())
	if !call.SetValue(path, map[string]any{"tx_hash": call.TxHash}) {
		return Failure
	}
	return Success
}

// eraseValue overwrites the written value with "erased".
func eraseValue(call *Call) ResultCode {
	if call.Value == nil {
		return Success
	}
	if !call.SetValue(call.ValuePath, "erased") {
		return Failure
	}
	return Success
}

// fail fails for every non-null value.
func fail(call *Call) ResultCode {
	if call.Value == nil {
		return Success
	}
	return Failure
}
