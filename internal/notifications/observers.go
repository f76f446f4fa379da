package notifications

import (
	"context"
	"log/slog"

	"circle/internal/models"
	"circle/internal/observability"
)

// LogObserver writes fan-out outcomes to a structured logger.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) Delivered(ctx context.Context, n *models.Notification) {
	o.Logger.DebugContext(ctx, "notification written",
		slog.Uint64("notification_id", uint64(n.ID)),
		slog.String("type", string(n.Type)),
		slog.Uint64("recipient_id", uint64(n.UserID)),
	)
}

func (o LogObserver) Suppressed(ctx context.Context, ev Event) {
	o.Logger.DebugContext(ctx, "self notification suppressed",
		slog.String("type", string(ev.Type)),
		slog.Uint64("actor_id", uint64(ev.ActorID)),
	)
}

func (o LogObserver) Failed(ctx context.Context, ev Event, err error) {
	o.Logger.ErrorContext(ctx, "notification fan-out failed",
		slog.String("type", string(ev.Type)),
		slog.Uint64("actor_id", uint64(ev.ActorID)),
		slog.Uint64("recipient_id", uint64(ev.RecipientID)),
		slog.String("error", err.Error()),
	)
}

// MetricsObserver feeds the notification counters.
type MetricsObserver struct{}

func (MetricsObserver) Delivered(_ context.Context, n *models.Notification) {
	observability.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
}

func (MetricsObserver) Suppressed(_ context.Context, ev Event) {
	observability.NotificationsSuppressed.WithLabelValues(string(ev.Type)).Inc()
}

func (MetricsObserver) Failed(_ context.Context, ev Event, _ error) {
	observability.NotificationFanoutFailures.WithLabelValues(string(ev.Type)).Inc()
}

// DefaultObservers returns the log and metrics observers.
func DefaultObservers(logger *slog.Logger) []Observer {
	return []Observer{LogObserver{Logger: logger}, MetricsObserver{}}
}
