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
	"log/slog"
	"slices"
	"strconv"

	"github.com/ainblockchain/worldstate/database/rules"
	"github.com/ainblockchain/worldstate/database/statetree"
)

// Result is the outcome of a triggered function as reported to callers.
type Result struct {
	OpResults          map[string]OpResult `json:"op_results,omitempty"`
	Code               ResultCode          `json:"code"`
	BandwidthGasAmount int                 `json:"bandwidth_gas_amount"`
}

// Trigger describes a value write that triggers the functions of a config.
type Trigger struct {
	FunctionPath statetree.Path
	Config       any
	Params       map[string]any
	ValuePath    statetree.Path
	Value        any
	PrevValue    any
	Timestamp    int64
	TxHash       string
	Auth         rules.Auth
}

// DispatcherConfig parameterizes a Dispatcher.
type DispatcherConfig struct {
	// MaxCallDepth bounds the nesting of function calls.
	MaxCallDepth int
	// RestGasAmount is the bandwidth gas charged per REST notification.
	RestGasAmount int
	// Sink receives REST function notifications. If nil, REST functions
	// are not triggered.
	Sink EventSink
	// AllowedUrls lists the URL patterns REST functions may be triggered
	// for. If empty, no URL is filtered.
	AllowedUrls []string
	Logger      *slog.Logger
}

// Dispatcher runs the functions triggered by value writes. Functions may
// write values themselves, which may trigger further functions. The
// dispatcher tracks the resulting chain of calls to bound its depth and to
// skip circular calls. A Dispatcher is not thread safe.
type Dispatcher struct {
	registry *Registry
	config   DispatcherConfig
	urls     UrlFilter
	stack    []string
}

func NewDispatcher(registry *Registry, config DispatcherConfig) *Dispatcher {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Dispatcher{
		registry: registry,
		config:   config,
		urls:     NewUrlFilter(config.AllowedUrls),
	}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// CallDepth is the number of native function calls currently in progress.
func (d *Dispatcher) CallDepth() int {
	return len(d.stack)
}

// Trigger runs the functions of the config in the order of their ids. The
// execution stops at the first failing native function. The results are
// keyed by function id; ok is false if a function failed.
func (d *Dispatcher) Trigger(trigger Trigger, writer Writer) (results map[string]Result, ok bool) {
	results = map[string]Result{}
	for _, function := range ParseConfig(trigger.Config) {
		switch function.Type {
		case Native:
			result, triggered := d.runNative(function, trigger, writer)
			if !triggered {
				continue
			}
			results[function.Id] = result
			if result.Code.IsFailure() {
				return results, false
			}
		case Rest:
			if d.config.Sink == nil {
				continue
			}
			if !d.urls.Allows(function.Url) {
				d.config.Logger.Debug("skipping REST function with disallowed URL", "fid", function.Id, "url", function.Url)
				continue
			}
			d.notify(function, trigger)
			results[function.Id] = Result{
				Code:               Success,
				BandwidthGasAmount: d.config.RestGasAmount,
			}
		}
	}
	return results, true
}

func (d *Dispatcher) runNative(function Function, trigger Trigger, writer Writer) (Result, bool) {
	logger := d.config.Logger
	native, found := d.registry.Get(function.Id)
	if !found {
		return Result{}, false
	}
	if slices.Contains(d.stack, function.Id) {
		logger.Error("skipping circular function call", "fid", function.Id, "fids", d.stack, "path", trigger.ValuePath)
		return Result{}, false
	}
	if d.config.MaxCallDepth > 0 && len(d.stack) >= d.config.MaxCallDepth {
		logger.Error("function call depth exceeded", "fid", function.Id, "depth", len(d.stack))
		return Result{Code: InternalError}, true
	}

	d.stack = append(d.stack, function.Id)
	defer func() { d.stack = d.stack[:len(d.stack)-1] }()

	call := &Call{
		Function:     function,
		ValuePath:    trigger.ValuePath,
		FunctionPath: trigger.FunctionPath,
		Value:        trigger.Value,
		PrevValue:    trigger.PrevValue,
		Params:       trigger.Params,
		Timestamp:    trigger.Timestamp,
		TxHash:       trigger.TxHash,
		Auth: rules.Auth{
			Addr: trigger.Auth.Addr,
			Fid:  function.Id,
			Fids: slices.Clone(d.stack),
		},
		writer: writer,
	}
	code := native.Run(call)
	if code.IsFailure() {
		logger.Warn("native function failed", "fid", function.Id, "path", trigger.ValuePath, "code", code)
	}
	result := Result{Code: code}
	if len(call.opResults) > 0 {
		result.OpResults = make(map[string]OpResult, len(call.opResults))
		for i, op := range call.opResults {
			result.OpResults[strconv.Itoa(i)] = op
		}
	}
	return result, true
}

func (d *Dispatcher) notify(function Function, trigger Trigger) {
	fids := append(slices.Clone(d.stack), function.Id)
	call := RestCall{
		Fid:          function.Id,
		Url:          function.Url,
		ValuePath:    trigger.ValuePath.String(),
		FunctionPath: trigger.FunctionPath.String(),
		Value:        trigger.Value,
		PrevValue:    trigger.PrevValue,
		Params:       trigger.Params,
		Timestamp:    trigger.Timestamp,
		TxHash:       trigger.TxHash,
		Auth:         rules.Auth{Addr: trigger.Auth.Addr, Fid: function.Id, Fids: fids},
	}
	d.config.Logger.Info("triggering REST function", "fid", function.Id, "url", function.Url, "path", call.ValuePath)
	if err := d.config.Sink.NotifyRestFunction(call); err != nil {
		d.config.Logger.Warn("failed to notify REST function", "fid", function.Id, "url", function.Url, "err", err)
	}
}
