// Copyright (c) 2025 The Gravity Genesis developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T) map[string]*dto.MetricFamily {
	prom, ok := metrics.(*prometheusMetrics)
	require.True(t, ok)
	families, err := prom.registry.Gather()
	require.NoError(t, err)

	out := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		out[mf.GetName()] = mf
	}
	return out
}

func TestPromMetrics(t *testing.T) {
	metrics = newPrometheusMetrics()
	t.Cleanup(func() { metrics = defaultNoopMetrics() })
	assert.False(t, NoOp())

	Counter("blocks").Add(1)
	Counter("blocks").Add(2)
	CounterVec("reverts", []string{"kind"}).AddWithLabel(1, map[string]string{"kind": "validator"})
	CounterVec("reverts", []string{"kind"}).AddWithLabel(4, map[string]string{"kind": "stake"})

	Gauge("epoch").Set(7)
	Gauge("epoch").Add(1)
	GaugeVec("power", []string{"validator"}).SetWithLabel(10, map[string]string{"validator": "a"})
	GaugeVec("power", []string{"validator"}).AddWithLabel(5, map[string]string{"validator": "a"})

	hist := Histogram("prologue_ms", Bucket10s)
	for _, v := range []int64{1, 600, 12_000} {
		hist.Observe(v)
	}
	HistogramVec("dkg_ms", []string{"stage"}, nil).ObserveWithLabels(3, map[string]string{"stage": "start"})

	families := gather(t)
	assert.Equal(t, float64(3), families["gravity_blocks"].Metric[0].GetCounter().GetValue())

	var reverts float64
	for _, m := range families["gravity_reverts"].Metric {
		reverts += m.GetCounter().GetValue()
	}
	assert.Equal(t, float64(5), reverts)

	assert.Equal(t, float64(8), families["gravity_epoch"].Metric[0].GetGauge().GetValue())
	assert.Equal(t, float64(15), families["gravity_power"].Metric[0].GetGauge().GetValue())

	h := families["gravity_prologue_ms"].Metric[0].GetHistogram()
	assert.Equal(t, uint64(3), h.GetSampleCount())
	assert.Equal(t, float64(12_601), h.GetSampleSum())
	assert.Equal(t, uint64(1), families["gravity_dkg_ms"].Metric[0].GetHistogram().GetSampleCount())

	assert.Contains(t, families, "go_goroutines")
}

func TestPromHandler(t *testing.T) {
	metrics = newPrometheusMetrics()
	t.Cleanup(func() { metrics = defaultNoopMetrics() })

	Counter("scraped").Add(1)

	server := httptest.NewServer(HTTPHandler())
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "gravity_scraped 1")
	assert.Equal(t, string(expfmt.FmtText), resp.Header.Get("Content-Type"))
}

func TestLazyLoading(t *testing.T) {
	metrics = defaultNoopMetrics()
	t.Cleanup(func() { metrics = defaultNoopMetrics() })

	for _, a := range []any{
		Gauge("noopGauge"),
		GaugeVec("noopGauge", nil),
		Counter("noopCounter"),
		CounterVec("noopCounter", nil),
		Histogram("noopHist", nil),
		HistogramVec("noopHist", nil, nil),
	} {
		require.IsType(t, noop{}, a)
	}

	lazyGauge := LazyLoadGauge("lazyGauge")
	lazyGaugeVec := LazyLoadGaugeVec("lazyGaugeVec", []string{"l"})
	lazyCounter := LazyLoadCounter("lazyCounter")
	lazyCounterVec := LazyLoadCounterVec("lazyCounterVec", []string{"l"})
	lazyHistogram := LazyLoadHistogram("lazyHistogram", nil)
	lazyHistogramVec := LazyLoadHistogramVec("lazyHistogramVec", []string{"l"}, nil)

	// meters created after initialization are prometheus backed
	InitializePrometheusMetrics()

	require.IsType(t, &promGaugeMeter{}, lazyGauge())
	require.IsType(t, &promGaugeVecMeter{}, lazyGaugeVec())
	require.IsType(t, &promCountMeter{}, lazyCounter())
	require.IsType(t, &promCountVecMeter{}, lazyCounterVec())
	require.IsType(t, &promHistogramMeter{}, lazyHistogram())
	require.IsType(t, &promHistogramVecMeter{}, lazyHistogramVec())
	assert.Same(t, lazyGauge(), lazyGauge())
}
