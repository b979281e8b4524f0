// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ハンドラーやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordLogin()
	RecordRegistration()
	RecordWeddingCreated()
	RecordRequestLatency(duration time.Duration)
	IncRealtimeConnections()
	DecRealtimeConnections()
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus      *prometheus.CounterVec
	logins          prometheus.Counter
	registrations   prometheus.Counter
	weddingsCreated prometheus.Counter
	requestLatency  prometheus.Histogram
	realtimeConns   prometheus.Gauge
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wedplan_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		logins: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wedplan_logins_total",
			Help: "ログイン成功の合計数",
		}),
		registrations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wedplan_registrations_total",
			Help: "ユーザー登録の合計数",
		}),
		weddingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wedplan_weddings_created_total",
			Help: "作成された結婚式の合計数",
		}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "wedplan_request_latency_seconds",
			Help:    "APIリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		realtimeConns: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "wedplan_realtime_connections",
			Help: "現在アクティブなリアルタイム接続数",
		}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.logins,
		c.registrations,
		c.weddingsCreated,
		c.requestLatency,
		c.realtimeConns,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordLogin はログイン成功を記録する。
func (c *Collector) RecordLogin() {
	c.logins.Inc()
}

// RecordRegistration はユーザー登録を記録する。
func (c *Collector) RecordRegistration() {
	c.registrations.Inc()
}

// RecordWeddingCreated は結婚式の作成を記録する。
func (c *Collector) RecordWeddingCreated() {
	c.weddingsCreated.Inc()
}

// RecordRequestLatency はリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// IncRealtimeConnections はリアルタイム接続数を増やす。
func (c *Collector) IncRealtimeConnections() {
	c.realtimeConns.Inc()
}

// DecRealtimeConnections はリアルタイム接続数を減らす。
func (c *Collector) DecRealtimeConnections() {
	c.realtimeConns.Dec()
}

// compile-time interface check
var _ MetricsCollector = (*Collector)(nil)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
