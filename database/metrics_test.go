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
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ExecutionsAreCounted(t *testing.T) {
	registry := prometheus.NewRegistry()
	params := testParams()
	params.Registerer = registry
	db := newTestDatabaseWithParams(t, params)

	mustSucceed(t, db.SetRule("/apps/test", writeRule("auth.addr == 'abcd'"), ownerCtx()))
	checkFailure(t, db.SetValue("/apps/test/value", 1, authOf("other")), EvalRuleFalseWriteRule, "")
	mustSucceed(t, db.SetValue("/apps/test/value", 1, authOf("abcd")))

	assert.Equal(t, 2.0, testutil.ToFloat64(db.metrics.commits))
	assert.Equal(t, 1.0, testutil.ToFloat64(db.metrics.aborts))
	assert.Equal(t, 1.0, testutil.ToFloat64(db.metrics.operations.WithLabelValues(string(SetRule), "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(db.metrics.operations.WithLabelValues(string(SetValue), "0")))
	assert.Equal(t, 1.0, testutil.ToFloat64(db.metrics.operations.WithLabelValues(string(SetValue), "12103")))
	assert.Equal(t, float64(len(db.GetVersions())), testutil.ToFloat64(db.metrics.versions))
	assert.Equal(t, float64(db.forest.NumNodes()), testutil.ToFloat64(db.metrics.nodes))

	count, err := testutil.GatherAndCount(registry, "worldstate_commits_total", "worldstate_aborts_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestMetrics_BatchesAreRecordedWithFirstFailingCode(t *testing.T) {
	db := newOpenDatabase(t)
	res := db.Execute(Operation{Type: Set, OpList: []Operation{
		{Type: SetValue, Ref: "/apps/test/a", Value: 1},
		{Type: IncValue, Ref: "/apps/test/a", Value: "x"},
	}}, authOf("abcd"))
	require.True(t, res.IsFailure())
	assert.Equal(t, 1.0, testutil.ToFloat64(db.metrics.operations.WithLabelValues(string(Set), "10201")))
}

func TestMetrics_DatabasesWithoutRegistererCanCoexist(t *testing.T) {
	first := newTestDatabase(t)
	second := newTestDatabase(t)
	mustSucceed(t, first.SetRule("/apps/test", writeRule(true), ownerCtx()))
	assert.Equal(t, 1.0, testutil.ToFloat64(first.metrics.commits))
	assert.Equal(t, 0.0, testutil.ToFloat64(second.metrics.commits))
}
