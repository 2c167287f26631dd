// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package logdb

import (
	"strings"

	"github.com/scalarorg/gravity-genesis-contract-sub001/metrics"
)

var (
	metricWriteDuration        = metrics.LazyLoadHistogram("logdb_write_duration_ms", metrics.Bucket10s)
	metricEventQueryParameters = metrics.LazyLoadCounterVec("logdb_query_parameters", []string{"parameters"})
	metricQueryOrderCounter    = metrics.LazyLoadCounterVec("logdb_query_order", []string{"order"})
	metricLimitBucket          = metrics.LazyLoadHistogram("logdb_query_limit_bucket", []int64{0, 5, 10, 25, 50, 100, 250, 500, 1000})
)

func metricsHandleEventsFilter(filter *EventFilter) {
	if metrics.NoOp() {
		return
	}

	order := string(ASC)
	if filter.Order == DESC {
		order = string(DESC)
	}
	metricQueryOrderCounter().AddWithLabel(1, map[string]string{"order": order})

	if filter.Options != nil {
		limit := min(filter.Options.Limit, 1001)
		metricLimitBucket().Observe(int64(limit))
	}

	for _, c := range filter.CriteriaSet {
		params := make([]string, 0, 2)
		if c.Address != nil {
			params = append(params, "address")
		}
		if c.Name != "" {
			params = append(params, "name")
		}
		metricEventQueryParameters().AddWithLabel(1, map[string]string{"parameters": strings.Join(params, ",")})
	}
}
