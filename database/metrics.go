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
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics collects the statistics of a database. Without a registerer the
// collectors are still updated but not exported.
type metrics struct {
	operations *prometheus.CounterVec
	commits    prometheus.Counter
	aborts     prometheus.Counter
	versions   prometheus.Gauge
	nodes      prometheus.Gauge
}

func newMetrics(registerer prometheus.Registerer) *metrics {
	factory := promauto.With(registerer)
	return &metrics{
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "worldstate",
			Name:      "operations_total",
			Help:      "Number of executed write operations by type and result code.",
		}, []string{"type", "code"}),
		commits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "worldstate",
			Name:      "commits_total",
			Help:      "Number of speculative executions made writable.",
		}),
		aborts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "worldstate",
			Name:      "aborts_total",
			Help:      "Number of speculative executions discarded.",
		}),
		versions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "worldstate",
			Name:      "versions",
			Help:      "Number of live versions.",
		}),
		nodes: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "worldstate",
			Name:      "state_nodes",
			Help:      "Number of live state nodes shared by all versions.",
		}),
	}
}

func (m *metrics) recordOperation(opType OperationType, code ResultCode) {
	m.operations.WithLabelValues(string(opType), strconv.Itoa(int(code))).Inc()
}
