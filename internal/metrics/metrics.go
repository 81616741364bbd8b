// Package metrics — метрики Prometheus конфигуратора.
// В лейблах только ограниченные множества значений: никаких session_id и visitor_id.
package metrics

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ev-configurator-backend/internal/domain"
)

var (
	optionChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evcfg_option_changes_total",
		Help: "Accepted category option changes, by category.",
	}, []string{"category"})

	accessoryTogglesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evcfg_accessory_toggles_total",
		Help: "Accepted accessory toggles, by direction.",
	}, []string{"direction"})

	rejectedInputTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evcfg_rejected_input_total",
		Help: "Ignored untrusted input, by kind (category/option/accessory/query).",
	}, []string{"kind"})

	snapshotOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evcfg_snapshot_operations_total",
		Help: "Snapshot store operations, by operation and result.",
	}, []string{"op", "result"})

	quoteRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evcfg_quote_requests_total",
		Help: "Submitted quote requests.",
	})

	quoteTotalPrice = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "evcfg_quote_total_price",
		Help:    "Total price of submitted quotes.",
		Buckets: prometheus.LinearBuckets(5000, 2500, 10),
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evcfg_active_sessions",
		Help: "Configurator sessions currently held in memory.",
	})

	previewClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evcfg_preview_clients",
		Help: "Connected 3D preview websocket clients.",
	})
)

// IncOptionChange — принято изменение опции категории
func IncOptionChange(category string) {
	optionChangesTotal.WithLabelValues(category).Inc()
}

// IncAccessoryToggle — аксессуар добавлен или убран
func IncAccessoryToggle(present bool) {
	dir := "off"
	if present {
		dir = "on"
	}
	accessoryTogglesTotal.WithLabelValues(dir).Inc()
}

// IncRejected учитывает отклонённый ввод по ошибке движка.
func IncRejected(err error) {
	rejectedInputTotal.WithLabelValues(rejectKind(err)).Inc()
}

// AddRejectedQuery учитывает отклонённые элементы query string.
func AddRejectedQuery(n int) {
	if n <= 0 {
		return
	}
	rejectedInputTotal.WithLabelValues("query").Add(float64(n))
}

func rejectKind(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnknownCategory):
		return "category"
	case errors.Is(err, domain.ErrUnknownOption):
		return "option"
	case errors.Is(err, domain.ErrUnknownAccessory):
		return "accessory"
	default:
		return "unknown"
	}
}

// RecordSnapshot учитывает операцию со снимком: save, load, restore, clear.
func RecordSnapshot(op string, ok bool) {
	result := "ok"
	if !ok {
		result = "miss"
	}
	snapshotOpsTotal.WithLabelValues(normalizeSnapshotOp(op), result).Inc()
}

func normalizeSnapshotOp(op string) string {
	switch strings.ToLower(strings.TrimSpace(op)) {
	case "save", "load", "restore", "clear":
		return strings.ToLower(strings.TrimSpace(op))
	default:
		return "unknown"
	}
}

// RecordQuote учитывает отправленную заявку
func RecordQuote(total int64) {
	quoteRequestsTotal.Inc()
	quoteTotalPrice.Observe(float64(total))
}

// SetActiveSessions выставляет число живых сессий
func SetActiveSessions(n int) {
	activeSessions.Set(float64(n))
}

// PreviewClientConnected / PreviewClientDisconnected считают подключения превью.
func PreviewClientConnected() {
	previewClients.Inc()
}

func PreviewClientDisconnected() {
	previewClients.Dec()
}
