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
	"log/slog"
	"os"

	"github.com/ainblockchain/worldstate/database/functions"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/yaml.v3"
)

// Params configures a Database.
type Params struct {
	// MaxTreeHeight bounds the height of the state tree.
	MaxTreeHeight int `yaml:"max_tree_height"`
	// MaxChildren bounds the number of children of any state node.
	MaxChildren int `yaml:"max_children"`
	// MaxFunctionCallDepth bounds the nesting of triggered functions.
	MaxFunctionCallDepth int `yaml:"max_function_call_depth"`
	// RuleCacheSize is the number of compiled write rules kept in memory.
	RuleCacheSize int `yaml:"rule_cache_size"`
	// OwnerAddress is the address allowed to configure owner-only functions.
	OwnerAddress string `yaml:"owner_address"`
	// RestFunctionGasAmount is the bandwidth gas charged per triggered REST
	// function.
	RestFunctionGasAmount int `yaml:"rest_function_gas_amount"`
	// RestFunctionUrlWhitelist lists the URL patterns REST functions may be
	// triggered for, using '*' as wildcard. If empty, all URLs are allowed.
	RestFunctionUrlWhitelist []string `yaml:"rest_function_url_whitelist"`

	// EventSink receives notifications of triggered REST functions. If nil,
	// REST functions are not triggered.
	EventSink functions.EventSink `yaml:"-"`
	// Registerer receives the metrics of the database. If nil, metrics are
	// collected but not registered.
	Registerer prometheus.Registerer `yaml:"-"`
	// Logger is used for diagnostic output, slog.Default() if nil.
	Logger *slog.Logger `yaml:"-"`
}

// DefaultParams provides the parameters used by nodes of the network.
func DefaultParams() Params {
	return Params{
		MaxTreeHeight:         30,
		MaxChildren:           1_000_000,
		MaxFunctionCallDepth:  20,
		RuleCacheSize:         1024,
		RestFunctionGasAmount: 10,
	}
}

// LoadParams reads parameters from a YAML file. Values missing in the file
// keep their defaults.
func LoadParams(path string) (Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Params{}, fmt.Errorf("failed to read parameter file %q: %w", path, err)
	}
	res := DefaultParams()
	if err := yaml.Unmarshal(data, &res); err != nil {
		return Params{}, fmt.Errorf("failed to parse parameter file %q: %w", path, err)
	}
	if err := res.Validate(); err != nil {
		return Params{}, fmt.Errorf("invalid parameters in %q: %w", path, err)
	}
	return res, nil
}

// Validate checks the consistency of the parameters.
func (p Params) Validate() error {
	if p.MaxTreeHeight <= 0 {
		return fmt.Errorf("max tree height must be positive, got %d", p.MaxTreeHeight)
	}
	if p.MaxChildren <= 0 {
		return fmt.Errorf("max children must be positive, got %d", p.MaxChildren)
	}
	if p.MaxFunctionCallDepth <= 0 {
		return fmt.Errorf("max function call depth must be positive, got %d", p.MaxFunctionCallDepth)
	}
	if p.RuleCacheSize <= 0 {
		return fmt.Errorf("rule cache size must be positive, got %d", p.RuleCacheSize)
	}
	if p.RestFunctionGasAmount < 0 {
		return fmt.Errorf("rest function gas amount must not be negative, got %d", p.RestFunctionGasAmount)
	}
	return nil
}
