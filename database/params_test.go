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
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeParamsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "params.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write parameter file: %v", err)
	}
	return path
}

func TestParams_LoadOverridesDefaults(t *testing.T) {
	path := writeParamsFile(t, "max_tree_height: 12\nowner_address: '0xabc'\nrest_function_gas_amount: 0\nrest_function_url_whitelist: ['https://*.ainetwork.ai']\n")
	params, err := LoadParams(path)
	if err != nil {
		t.Fatalf("failed to load parameters: %v", err)
	}
	want := DefaultParams()
	want.MaxTreeHeight = 12
	want.OwnerAddress = "0xabc"
	want.RestFunctionGasAmount = 0
	want.RestFunctionUrlWhitelist = []string{"https://*.ainetwork.ai"}
	if !reflect.DeepEqual(params, want) {
		t.Errorf("unexpected parameters, wanted %+v, got %+v", want, params)
	}
}

func TestParams_LoadRejectsInvalidFiles(t *testing.T) {
	tests := map[string]string{
		"syntax":   "max_tree_height: [",
		"type":     "max_children: many",
		"negative": "max_children: -1",
		"zero":     "rule_cache_size: 0",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadParams(writeParamsFile(t, content)); err == nil {
				t.Errorf("expected an error for %q", content)
			}
		})
	}

	_, err := LoadParams(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "missing.yaml") {
		t.Errorf("expected read error naming the file, got %v", err)
	}
}

func TestParams_DefaultsAreValid(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Errorf("default parameters are invalid: %v", err)
	}
	params := DefaultParams()
	params.RestFunctionGasAmount = -1
	if err := params.Validate(); err == nil {
		t.Errorf("negative gas amount should be rejected")
	}
}
