// Package metrics provides Prometheus metrics for the crease live service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Tick results.
const (
	TickChanged   = "changed"
	TickUnchanged = "unchanged"
	TickFailed    = "failed"
)

// Manager manages all Prometheus metrics for the crease service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Poller
	pollTicks           *prometheus.CounterVec
	fetchLatency        prometheus.Histogram
	activeSubscriptions prometheus.Gauge
	applyErrors         prometheus.Counter

	// Ledger
	ledgerWrites  *prometheus.CounterVec
	ledgerRecords prometheus.Gauge
	ledgerLatency prometheus.Histogram

	// Hub
	notificationsCreated *prometheus.CounterVec
	notificationsDup     prometheus.Counter
	subscriberFailures   prometheus.Counter
	hubSubscribers       prometheus.Gauge

	// Push queue and workers
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueUtilization   prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors prometheus.Counter
	pushDeliveries     *prometheus.CounterVec
	pushLatency        prometheus.Histogram
	workerCount        prometheus.Gauge

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	wsClients           prometheus.Gauge

	// Errors
	errorRateByComponent *prometheus.CounterVec
	errorRateByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // process registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager registered on the configured registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "crease",
		subsystem:        "live",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	}, labels)
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
	})
}

func (m *Manager) histogram(name, help string) prometheus.Histogram {
	return promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help, ConstLabels: m.constLabels,
		Buckets: m.histogramBuckets,
	})
}

func (m *Manager) initializeMetrics() {
	m.pollTicks = m.counterVec("poll_ticks_total", "Poll ticks by result (changed, unchanged, failed)", "result")
	m.fetchLatency = m.histogram("fetch_latency_milliseconds", "Upstream scorecard fetch latency in milliseconds")
	m.activeSubscriptions = m.gauge("active_subscriptions", "Number of matches with a live polling schedule")
	m.applyErrors = m.counter("apply_errors_total", "Snapshots that failed to apply to the ledger")

	m.ledgerWrites = m.counterVec("ledger_writes_total", "Ledger writes by operation", "op")
	m.ledgerRecords = m.gauge("ledger_records", "Number of score records held by the store")
	m.ledgerLatency = m.histogram("ledger_write_latency_milliseconds", "Ledger write latency in milliseconds")

	m.notificationsCreated = m.counterVec("notifications_total", "Notifications created by type", "type")
	m.notificationsDup = m.counter("notifications_duplicate_total", "Notifications suppressed as duplicates")
	m.subscriberFailures = m.counter("subscriber_delivery_failures_total", "Subscriber callbacks that failed")
	m.hubSubscribers = m.gauge("hub_subscribers", "Registered notification subscribers")

	m.queueSize = m.gauge("push_queue_size", "Current size of the push queue")
	m.queueCapacity = m.gauge("push_queue_capacity", "Maximum push queue capacity")
	m.queueUtilization = m.gauge("push_queue_utilization_ratio", "Push queue utilization ratio (size / capacity)")
	m.queueEnqueue = m.counter("push_queue_enqueue_total", "Deliveries enqueued")
	m.queueDequeue = m.counter("push_queue_dequeue_total", "Deliveries dequeued")
	m.queueEnqueueErrors = m.counter("push_queue_enqueue_errors_total", "Deliveries dropped at enqueue")
	m.pushDeliveries = m.counterVec("push_deliveries_total", "Push deliveries by result", "result")
	m.pushLatency = m.histogram("push_latency_milliseconds", "Push delivery latency in milliseconds")
	m.workerCount = m.gauge("push_worker_count", "Running push workers")

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and method",
		"endpoint", "method", "status_code")
	m.httpRequestDuration = promauto.With(m.registry).NewHistogramVec(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "http_request_duration_milliseconds",
		Help:        "HTTP request duration in milliseconds",
		ConstLabels: m.constLabels,
		Buckets:     m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
	m.wsClients = m.gauge("websocket_clients", "Connected websocket clients")

	m.errorRateByComponent = m.counterVec("errors_by_component_total", "Errors by component", "component", "error_type")
	m.errorRateByEndpoint = m.counterVec("errors_by_endpoint_total", "Errors by endpoint",
		"endpoint", "method", "error_type")

	m.systemMemoryUsage = m.gauge("system_memory_usage_bytes", "System memory usage in bytes")
	m.systemGoroutineCount = m.gauge("system_goroutine_count", "Number of goroutines")
}

// RecordTick counts a poll tick with the given result.
func RecordTick(result string) {
	globalManager.pollTicks.WithLabelValues(result).Inc()
}

// RecordFetchLatency records an upstream fetch latency in milliseconds.
func RecordFetchLatency(latencyMs float64) {
	globalManager.fetchLatency.Observe(latencyMs)
}

// UpdateActiveSubscriptions sets the number of live schedules.
func UpdateActiveSubscriptions(count int) {
	globalManager.activeSubscriptions.Set(float64(count))
}

// RecordApplyError counts a snapshot that failed to apply.
func RecordApplyError() {
	globalManager.applyErrors.Inc()
}

// RecordLedgerWrite counts a ledger write (upsert, remove).
func RecordLedgerWrite(op string, latencyMs float64) {
	globalManager.ledgerWrites.WithLabelValues(op).Inc()
	globalManager.ledgerLatency.Observe(latencyMs)
}

// UpdateLedgerRecords sets the number of stored records.
func UpdateLedgerRecords(count int) {
	globalManager.ledgerRecords.Set(float64(count))
}

// RecordNotification counts a created notification.
func RecordNotification(kind string) {
	globalManager.notificationsCreated.WithLabelValues(kind).Inc()
}

// RecordNotificationDuplicate counts a suppressed duplicate.
func RecordNotificationDuplicate() {
	globalManager.notificationsDup.Inc()
}

// RecordSubscriberFailure counts a failed subscriber callback.
func RecordSubscriberFailure() {
	globalManager.subscriberFailures.Inc()
}

// UpdateHubSubscribers sets the number of registered subscribers.
func UpdateHubSubscribers(count int) {
	globalManager.hubSubscribers.Set(float64(count))
}

// UpdateQueueSize sets the current push queue size.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the push queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// UpdateQueueUtilization sets the push queue utilization ratio.
func UpdateQueueUtilization(utilization float64) {
	globalManager.queueUtilization.Set(utilization)
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError increments the enqueue error counter.
func RecordQueueEnqueueError() {
	globalManager.queueEnqueueErrors.Inc()
}

// RecordPushDelivery counts a push delivery attempt and its latency.
func RecordPushDelivery(result string, latencyMs float64) {
	globalManager.pushDeliveries.WithLabelValues(result).Inc()
	globalManager.pushLatency.Observe(latencyMs)
}

// UpdateWorkerCount sets the number of running push workers.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateWebSocketClients adjusts the connected websocket client gauge.
func UpdateWebSocketClients(delta int) {
	globalManager.wsClients.Add(float64(delta))
}

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorRateByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
