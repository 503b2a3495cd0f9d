// Copyright (c) 2025 The Accrete developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/stretchr/testify/require"

	dto "github.com/prometheus/client_model/go"
)

func gatherFamilies(t *testing.T) map[string]*dto.MetricFamily {
	families, err := prometheus.Gatherers{prometheus.DefaultGatherer}.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily)
	for _, mf := range families {
		byName[mf.GetName()] = mf
	}
	return byName
}

func TestPromMetrics(t *testing.T) {
	InitializePrometheusMetrics()

	Counter("ops_total").Add(1)
	// a second lookup under the same name lands on the same collector
	Counter("ops_total").Add(2)

	opsVec := CounterVec("ops_by_kind", []string{"kind"})
	opsVec.AddWithLabel(4, map[string]string{"kind": "stake"})
	opsVec.AddWithLabel(6, map[string]string{"kind": "claim"})

	durations := HistogramVec("op_duration", []string{"kind"}, BucketHTTPReqs)
	histTotal := int64(0)
	for i := int64(1); i <= 10; i++ {
		durations.ObserveWithLabels(i, map[string]string{"kind": "stake"})
		histTotal += i
	}

	depth := Gauge("queue_depth")
	depth.Add(5)
	depth.Add(-2)

	byName := gatherFamilies(t)
	require.Equal(t, float64(3), byName["accrete_metrics_ops_total"].Metric[0].GetCounter().GetValue())

	sumVec := byName["accrete_metrics_ops_by_kind"].Metric[0].GetCounter().GetValue() +
		byName["accrete_metrics_ops_by_kind"].Metric[1].GetCounter().GetValue()
	require.Equal(t, float64(10), sumVec)

	require.Equal(t, float64(histTotal), byName["accrete_metrics_op_duration"].Metric[0].GetHistogram().GetSampleSum())
	require.Equal(t, float64(3), byName["accrete_metrics_queue_depth"].Metric[0].GetGauge().GetValue())
}

// the labeled gauge supports both relative moves and absolute sets.
func TestGaugeVec(t *testing.T) {
	InitializePrometheusMetrics()

	sessions := GaugeVec("session_count", []string{"subject"})
	sessions.AddWithLabel(1, map[string]string{"subject": "events"})
	sessions.AddWithLabel(1, map[string]string{"subject": "events"})
	sessions.AddWithLabel(-1, map[string]string{"subject": "events"})
	sessions.SetWithLabel(9, map[string]string{"subject": "ops"})

	byName := gatherFamilies(t)
	family := byName["accrete_metrics_session_count"]
	require.Len(t, family.Metric, 2)

	values := make(map[string]float64)
	for _, m := range family.Metric {
		values[m.Label[0].GetValue()] = m.GetGauge().GetValue()
	}
	require.Equal(t, float64(1), values["events"])
	require.Equal(t, float64(9), values["ops"])
}

func TestLazyLoading(t *testing.T) {
	metrics = defaultNoopMetrics()

	for _, meter := range []any{
		Counter("noop_counter"),
		CounterVec("noop_counter_vec", nil),
		Gauge("noop_gauge"),
		GaugeVec("noop_gauge_vec", nil),
		HistogramVec("noop_hist_vec", nil, nil),
	} {
		require.IsType(t, &noopMeters{}, meter)
	}

	lazyCounter := LazyLoadCounter("lazy_counter")
	lazyCounterVec := LazyLoadCounterVec("lazy_counter_vec", nil)
	lazyGauge := LazyLoadGauge("lazy_gauge")
	lazyGaugeVec := LazyLoadGaugeVec("lazy_gauge_vec", nil)
	lazyHistogramVec := LazyLoadHistogramVec("lazy_hist_vec", nil, nil)

	// lazy meters resolve against whichever backend is active at first use
	InitializePrometheusMetrics()

	require.IsType(t, &promCountMeter{}, lazyCounter())
	require.IsType(t, &promCountVecMeter{}, lazyCounterVec())
	require.IsType(t, &promGaugeMeter{}, lazyGauge())
	require.IsType(t, &promGaugeVecMeter{}, lazyGaugeVec())
	require.IsType(t, &promHistogramVecMeter{}, lazyHistogramVec())
}

func TestScrapeEndpoint(t *testing.T) {
	InitializePrometheusMetrics()
	Counter("scrape_count").Add(3)

	server := httptest.NewServer(HTTPHandler())
	defer server.Close()

	res, err := http.Get(server.URL)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var parser expfmt.TextParser
	families, err := parser.TextToMetricFamilies(res.Body)
	require.NoError(t, err)

	family, ok := families["accrete_metrics_scrape_count"]
	require.True(t, ok)
	require.Equal(t, float64(3), family.Metric[0].GetCounter().GetValue())
}
