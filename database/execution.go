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
	"fmt"

	"github.com/ainblockchain/worldstate/database/functions"
	"github.com/ainblockchain/worldstate/database/rules"
	"github.com/ainblockchain/worldstate/database/statetree"
)

func (db *database) Execute(op Operation, ctx WriteContext) *Result {
	writable := db.versions.WritableVersion()
	id := newVersionId(execVersionPrefix)
	if err := db.versions.CloneVersion(writable, id); err != nil {
		panic(fmt.Sprintf("failed to clone writable version %s: %v", writable, err))
	}
	root, err := db.versions.GetRootRef(id)
	if err != nil {
		panic(fmt.Sprintf("failed to access cloned version %s: %v", id, err))
	}

	exec := &execution{
		db:      db,
		version: id,
		root:    root,
		ctx:     ctx,
		dispatcher: functions.NewDispatcher(db.registry, functions.DispatcherConfig{
			MaxCallDepth:  db.params.MaxFunctionCallDepth,
			RestGasAmount: db.params.RestFunctionGasAmount,
			Sink:          db.params.EventSink,
			AllowedUrls:   db.params.RestFunctionUrlWhitelist,
			Logger:        db.logger,
		}),
	}
	res := exec.apply(op, true)

	if res.IsFailure() {
		if err := db.versions.DeleteVersion(id); err != nil {
			panic(fmt.Sprintf("failed to discard version %s: %v", id, err))
		}
		db.metrics.aborts.Inc()
		db.logger.Debug("discarded speculative execution", "type", op.normalizedType(), "ref", op.Ref, "code", res.firstCode())
	} else {
		if err := db.versions.SetWritable(id); err != nil {
			panic(fmt.Sprintf("failed to commit version %s: %v", id, err))
		}
		db.metrics.commits.Inc()
		db.logger.Debug("committed speculative execution", "type", op.normalizedType(), "ref", op.Ref, "version", id)
	}
	db.metrics.recordOperation(op.normalizedType(), res.firstCode())
	db.updateGauges()
	return res
}

func (db *database) ExecuteTransaction(tx Transaction) *Result {
	return db.Execute(tx.Operation, WriteContext{
		Auth:      rules.Auth{Addr: tx.Address},
		Timestamp: tx.Timestamp,
		TxHash:    tx.Hash,
	})
}

func (db *database) SetValue(path string, value any, ctx WriteContext) *Result {
	return db.Execute(Operation{Type: SetValue, Ref: path, Value: value}, ctx)
}

func (db *database) IncValue(path string, delta any, ctx WriteContext) *Result {
	return db.Execute(Operation{Type: IncValue, Ref: path, Value: delta}, ctx)
}

func (db *database) DecValue(path string, delta any, ctx WriteContext) *Result {
	return db.Execute(Operation{Type: DecValue, Ref: path, Value: delta}, ctx)
}

func (db *database) SetRule(path string, rule any, ctx WriteContext) *Result {
	return db.Execute(Operation{Type: SetRule, Ref: path, Value: rule}, ctx)
}

func (db *database) SetOwner(path string, owner any, ctx WriteContext) *Result {
	return db.Execute(Operation{Type: SetOwner, Ref: path, Value: owner}, ctx)
}

func (db *database) SetFunction(path string, function any, ctx WriteContext) *Result {
	return db.Execute(Operation{Type: SetFunction, Ref: path, Value: function}, ctx)
}

// execution applies operations to a transient clone of the writable
// version. Writes performed by triggered functions are applied to the same
// clone, so the effects of an operation become visible all at once.
type execution struct {
	db         *database
	version    string
	root       *statetree.NodeId
	ctx        WriteContext
	dispatcher *functions.Dispatcher
}

func (e *execution) view() view {
	return view{forest: e.db.forest, root: *e.root}
}

func (e *execution) apply(op Operation, topLevel bool) *Result {
	switch opType := op.normalizedType(); opType {
	case SetValue:
		return e.setValue(op.Ref, op.Value)
	case IncValue:
		return e.addValue(op.Ref, op.Value, 1, IncValueNotANumber)
	case DecValue:
		return e.addValue(op.Ref, op.Value, -1, DecValueNotANumber)
	case SetRule:
		return e.setConfig(op.Ref, op.Value, op.IsMerge, ruleConfig)
	case SetOwner:
		return e.setConfig(op.Ref, op.Value, op.IsMerge, ownerConfig)
	case SetFunction:
		return e.setConfig(op.Ref, op.Value, op.IsMerge, functionConfig)
	case Set:
		if topLevel {
			return e.applyAll(op.OpList)
		}
		return failure(InvalidOperationType, fmt.Sprintf("Invalid operation type: %s", opType))
	default:
		return failure(InvalidOperationType, fmt.Sprintf("Invalid operation type: %s", opType))
	}
}

// applyAll applies the operations in order, stopping at the first failure.
func (e *execution) applyAll(ops []Operation) *Result {
	res := &Result{ResultList: make([]*Result, 0, len(ops))}
	for _, op := range ops {
		cur := e.apply(op, false)
		res.ResultList = append(res.ResultList, cur)
		if cur.IsFailure() {
			break
		}
	}
	return res
}

func (e *execution) setValue(ref string, value any) *Result {
	path, err := statetree.ParseValidPath(ref)
	if err != nil {
		return failure(InvalidValuePath, fmt.Sprintf("Invalid value path: %s", ref))
	}
	return e.setValueAt(path, value, e.ctx.Auth)
}

func (e *execution) addValue(ref string, delta any, sign float64, code ResultCode) *Result {
	path, err := statetree.ParseValidPath(ref)
	if err != nil {
		return failure(InvalidValuePath, fmt.Sprintf("Invalid value path: %s", ref))
	}
	current := e.view().get(ValuesLabel, path)
	if current == nil {
		current = float64(0)
	}
	cur, curIsNumber := toNumber(current)
	diff, diffIsNumber := toNumber(delta)
	if !curIsNumber || !diffIsNumber {
		return failure(code, fmt.Sprintf("Not a number type: %s or %s", formatPlain(current), formatPlain(delta)))
	}
	return e.setValueAt(path, cur+sign*diff, e.ctx.Auth)
}

func toNumber(value any) (float64, bool) {
	v, ok := statetree.ValueOf(value)
	if !ok || !v.IsNumber() {
		return 0, false
	}
	return v.AsNumber(), true
}

// SetValue performs writes of triggered functions.
func (e *execution) SetValue(path statetree.Path, value any, auth rules.Auth) (any, bool) {
	res := e.setValueAt(path, value, auth)
	return res, !res.IsFailure()
}

func (e *execution) setValueAt(path statetree.Path, value any, auth rules.Auth) *Result {
	if invalid, ok := statetree.ValidateObject(value); !ok {
		return failure(InvalidObjectForStates, fmt.Sprintf("Invalid object for states: %s", invalid))
	}
	statePath := statetree.Path{ValuesLabel}.Child(path...)
	if shard, ok := rules.CheckShardWritable(e.db.forest, *e.root, statePath); !ok {
		return failure(NonWritablePathWithShardConfig, fmt.Sprintf("Non-writable path with shard config: %s", shard))
	}

	v := e.view()
	prevValue := v.get(ValuesLabel, path)
	if res := e.db.evalWriteRule(v, path, value, auth, e.ctx.Timestamp); res != nil {
		return res
	}
	if res := e.db.evalStateRule(v, path, value); res != nil {
		return res
	}

	if err := e.db.forest.SetValue(e.root, statePath, e.version, value); err != nil {
		return failure(InvalidObjectForStates, fmt.Sprintf("Invalid object for states: %v", err))
	}
	if res := e.checkLimits(); res != nil {
		return res
	}
	if value != nil {
		e.evictSiblings(path)
	}
	return e.trigger(path, value, prevValue, auth)
}

// checkLimits verifies the bounds of the shape of the state tree.
func (e *execution) checkLimits() *Result {
	info := e.db.forest.Info(*e.root)
	if info.TreeHeight > e.db.params.MaxTreeHeight {
		return failure(OutOfTreeHeightLimit, fmt.Sprintf(
			"Out of tree height limit (%d > %d)", info.TreeHeight, e.db.params.MaxTreeHeight))
	}
	if info.MaxSiblingCount > e.db.params.MaxChildren {
		return failure(OutOfChildrenLimit, fmt.Sprintf(
			"Out of tree children limit (%d > %d)", info.MaxSiblingCount, e.db.params.MaxChildren))
	}
	return nil
}

// evictSiblings removes the oldest siblings of a written node exceeding
// the gc_max_siblings bound of the state rule of the node.
func (e *execution) evictSiblings(path statetree.Path) {
	if len(path) == 0 {
		return
	}
	v := e.view()
	match := v.match(RulesLabel, path, rules.StateRuleKind)
	if !match.HasConfig() {
		return
	}
	state := rules.ParseStateRule(match.MatchedConfig.Config)
	parentPath := path.Parent()
	parent, found := e.db.forest.Lookup(v.subtree(ValuesLabel), parentPath)
	if !found {
		return
	}
	numToEvict := state.NumSiblingsToEvict(e.db.forest.NumChildren(parent))
	if numToEvict == 0 {
		return
	}
	evicted := make([]string, 0, numToEvict)
	for _, label := range e.db.forest.ChildLabelsByAge(parent) {
		if len(evicted) == numToEvict {
			break
		}
		if label != path.Last() {
			evicted = append(evicted, label)
		}
	}
	statePath := statetree.Path{ValuesLabel}.Child(parentPath...)
	for _, label := range evicted {
		e.db.forest.SetNode(e.root, statePath.Child(label), e.version, statetree.NoNode)
	}
	e.db.logger.Debug("evicted siblings", "path", path, "evicted", evicted)
}

// trigger runs the functions configured for the written path.
func (e *execution) trigger(path statetree.Path, value, prevValue any, auth rules.Auth) *Result {
	match := e.view().matchFunction(path)
	if !match.HasConfig() {
		return success()
	}
	results, ok := e.dispatcher.Trigger(functions.Trigger{
		FunctionPath: statetree.ParsePath(match.MatchedConfig.Path),
		Config:       match.MatchedConfig.Config,
		Params:       match.Vars(),
		ValuePath:    path,
		Value:        value,
		PrevValue:    prevValue,
		Timestamp:    e.ctx.Timestamp,
		TxHash:       e.ctx.TxHash,
		Auth:         auth,
	}, e)
	res := success()
	if !ok {
		res = failure(TriggeredFunctionCallFailed, "Triggered function call failed")
	}
	if len(results) > 0 {
		res.FuncResults = results
	}
	return res
}
