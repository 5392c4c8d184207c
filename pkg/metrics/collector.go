// Package metrics exposes the bot's Prometheus instrumentation: command
// outcomes, workflow transitions, upload policy decisions and Bot API calls.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/botmakerhq/hostbot/internal/session"
	"github.com/botmakerhq/hostbot/internal/webhook"
)

var (
	botCommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bot_commands_total",
			Help: "Total number of bot commands received labeled by command and status",
		},
		[]string{"command", "status"},
	)
	commandDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "command_duration_seconds",
			Help:    "Duration of bot commands in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"command"},
	)
	sessionTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "session_transitions_total",
			Help: "Total number of workflow state transitions",
		},
		[]string{"from", "to"},
	)
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uploads_total",
			Help: "Total number of upload attempts labeled by outcome",
		},
		[]string{"outcome"},
	)
	uploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "upload_bytes_total",
			Help: "Total bytes accepted into the file store",
		},
	)
	webhookAPICallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "webhook_api_calls_total",
			Help: "Total number of Bot API webhook-management calls by method and status",
		},
		[]string{"method", "status"},
	)
	errorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "errors_total",
			Help: "Total number of errors split by code and severity",
		},
		[]string{"code", "severity"},
	)
	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Current number of users with a stored session record",
		},
	)
	usersByState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "users_by_state",
			Help: "Number of users per workflow state",
		},
		[]string{"state"},
	)
)

func init() {
	session.RegisterTransitionRecorder(RecordSessionTransition)
	webhook.RegisterCallRecorder(RecordWebhookAPICall)
}

// RecordCommand increments command counters and records duration.
func RecordCommand(command, status string, duration time.Duration) {
	if command == "" {
		command = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	botCommandsTotal.WithLabelValues(command, status).Inc()
	commandDurationSeconds.WithLabelValues(command).Observe(duration.Seconds())
}

// RecordSessionTransition tracks workflow state transitions.
func RecordSessionTransition(from, to string) {
	if from == "" {
		from = "unknown"
	}
	if to == "" {
		to = "unknown"
	}

	sessionTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordUpload tracks one upload attempt. Accepted uploads also add their
// size to the byte counter.
func RecordUpload(outcome string, size int64) {
	if outcome == "" {
		outcome = "unknown"
	}

	uploadsTotal.WithLabelValues(outcome).Inc()
	if outcome == "accepted" {
		uploadBytesTotal.Add(float64(size))
	}
}

// RecordWebhookAPICall tracks one outbound Bot API webhook-management call.
func RecordWebhookAPICall(method, status string) {
	if method == "" {
		method = "unknown"
	}
	if status == "" {
		status = "unknown"
	}

	webhookAPICallsTotal.WithLabelValues(method, status).Inc()
}

// RecordError increments error counters with metadata.
func RecordError(code, severity string) {
	if code == "" {
		code = "unknown"
	}
	if severity == "" {
		severity = "unknown"
	}

	errorsTotal.WithLabelValues(code, severity).Inc()
}

// SessionCollector periodically sweeps stored sessions and emits gauges.
type SessionCollector struct {
	storage session.Storage
}

// NewSessionCollector builds a collector bound to the provided session storage.
func NewSessionCollector(storage session.Storage) *SessionCollector {
	return &SessionCollector{storage: storage}
}

// Run sweeps the session store every 10 seconds until ctx is cancelled.
func (c *SessionCollector) Run(ctx context.Context) {
	if c == nil || c.storage == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		_ = c.collect(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(10 * time.Second):
		}
	}
}

func (c *SessionCollector) collect(ctx context.Context) error {
	sessions, err := c.storage.Sessions(ctx)
	if err != nil {
		return err
	}

	activeSessions.Set(float64(len(sessions)))

	counts := make(map[string]int, len(sessions))
	for _, sess := range sessions {
		label := "unknown"
		if sess != nil && sess.CurrentState != "" {
			label = string(sess.CurrentState)
		}
		counts[label]++
	}

	usersByState.Reset()

	for _, tracked := range session.All() {
		label := string(tracked)
		usersByState.WithLabelValues(label).Set(float64(counts[label]))
		delete(counts, label)
	}

	for label, count := range counts {
		usersByState.WithLabelValues(label).Set(float64(count))
	}

	return nil
}
