// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AuthMetricsCollector は認証フローのメトリクス収集インターフェース。
// 認証サービスとセッション管理から利用する。
type AuthMetricsCollector interface {
	RecordLoginStarted()
	RecordLoginSuccess()
	RecordLoginFailure(reason string)
	RecordSessionValidation(result string)
	RecordHTTPStatus(statusCode int)
}

// ログイン失敗理由のラベル値。
const (
	FailureStateNotFound   = "state_not_found"
	FailureExchange        = "token_exchange"
	FailureUserInfo        = "userinfo_fetch"
	FailureEmailUnverified = "email_unverified"
	FailureStorage         = "storage"
)

// セッション検証結果のラベル値。
const (
	ValidationOK       = "ok"
	ValidationRejected = "rejected"
	ValidationError    = "backend_error"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	loginStarted       prometheus.Counter
	loginSuccess       prometheus.Counter
	loginFailure       *prometheus.CounterVec
	sessionValidations *prometheus.CounterVec
	httpStatus         *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_login_started_total",
			Help: "開始されたOAuthハンドシェイクの合計数",
		}),
		loginSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_login_success_total",
			Help: "セッション発行まで完了したログインの合計数",
		}),
		loginFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_login_failure_total",
			Help: "失敗理由別のログイン失敗数",
		}, []string{"reason"}),
		sessionValidations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_session_validation_total",
			Help: "結果別のセッション検証数",
		}, []string{"result"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.loginStarted,
		c.loginSuccess,
		c.loginFailure,
		c.sessionValidations,
		c.httpStatus,
	)

	return c
}

// RecordLoginStarted はハンドシェイク開始を記録する。
func (c *Collector) RecordLoginStarted() {
	c.loginStarted.Inc()
}

// RecordLoginSuccess はログイン成功を記録する。
func (c *Collector) RecordLoginSuccess() {
	c.loginSuccess.Inc()
}

// RecordLoginFailure はログイン失敗を理由付きで記録する。
func (c *Collector) RecordLoginFailure(reason string) {
	c.loginFailure.WithLabelValues(reason).Inc()
}

// RecordSessionValidation はセッション検証の結果を記録する。
func (c *Collector) RecordSessionValidation(result string) {
	c.sessionValidations.WithLabelValues(result).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface check
var _ AuthMetricsCollector = (*Collector)(nil)
