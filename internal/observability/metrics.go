// Package observability holds Prometheus collectors and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// NotificationsCreated counts notification rows written by type.
	NotificationsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circle_notifications_created_total",
		Help: "Total number of notifications written by type",
	}, []string{"type"})

	// NotificationFanoutFailures counts fan-out inserts that failed and were swallowed.
	NotificationFanoutFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circle_notification_fanout_failures_total",
		Help: "Total number of notification fan-out failures by type",
	}, []string{"type"})

	// NotificationsSuppressed counts events dropped because actor == recipient.
	NotificationsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circle_notifications_suppressed_total",
		Help: "Total number of self-addressed notification events suppressed",
	}, []string{"type"})

	// FriendRequestTransitions counts friend request state changes.
	FriendRequestTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circle_friend_request_transitions_total",
		Help: "Friend request transitions by kind",
	}, []string{"transition"})

	// ReadMarks counts rows flipped to read by target.
	ReadMarks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circle_read_marks_total",
		Help: "Rows marked read by target",
	}, []string{"target"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "circle_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

const queryStartKey = "observability:query_start"

// QueryMetricsPlugin is a gorm plugin that feeds DatabaseQueryLatency from
// the create/query/update/delete/row/raw callback chains.
type QueryMetricsPlugin struct{}

// Name implements gorm.Plugin.
func (QueryMetricsPlugin) Name() string { return "circle:query_metrics" }

// Initialize implements gorm.Plugin.
func (QueryMetricsPlugin) Initialize(db *gorm.DB) error {
	type chain struct {
		op     string
		before func(string, func(*gorm.DB)) error
		after  func(string, func(*gorm.DB)) error
	}
	cb := db.Callback()
	chains := []chain{
		{"create", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}

	for _, c := range chains {
		op := c.op
		if err := c.before("circle:metrics_before_"+op, startQueryTimer); err != nil {
			return err
		}
		if err := c.after("circle:metrics_after_"+op, observeQuery(op)); err != nil {
			return err
		}
	}
	return nil
}

func startQueryTimer(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func observeQuery(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		DatabaseQueryLatency.WithLabelValues(op, table).Observe(time.Since(start).Seconds())
	}
}
