package syncclient

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// FetchFunc returns rows with ids greater than after, in ascending order,
// and the watermark to resume from. A zero next means the largest id in rows.
type FetchFunc[T Identified] func(ctx context.Context, after uint) (rows []T, next uint, err error)

// ListFetch adapts a plain list call, whose watermark is the largest id it
// returned, to a FetchFunc.
func ListFetch[T Identified](list func(ctx context.Context, after uint) ([]T, error)) FetchFunc[T] {
	return func(ctx context.Context, after uint) ([]T, uint, error) {
		rows, err := list(ctx, after)
		return rows, 0, err
	}
}

// Poller repeatedly fetches one stream and hands new rows to a callback.
type Poller[T Identified] struct {
	name      string
	interval  time.Duration
	fetch     FetchFunc[T]
	handle    func([]T)
	watermark *Watermark
	logger    *slog.Logger
}

// NewPoller builds a poller that starts after the given watermark. A nil
// logger falls back to slog.Default().
func NewPoller[T Identified](name string, interval time.Duration, mark *Watermark, fetch FetchFunc[T], handle func([]T), logger *slog.Logger) *Poller[T] {
	if mark == nil {
		mark = NewWatermark(0)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller[T]{
		name:      name,
		interval:  interval,
		fetch:     fetch,
		handle:    handle,
		watermark: mark,
		logger:    logger,
	}
}

// Watermark exposes the poller's position so callers can persist it.
func (p *Poller[T]) Watermark() *Watermark { return p.watermark }

// PollOnce fetches one batch after the current watermark, delivers it and
// advances the watermark.
func (p *Poller[T]) PollOnce(ctx context.Context) (int, error) {
	rows, next, err := p.fetch(ctx, p.watermark.Value())
	if err != nil {
		return 0, err
	}
	if len(rows) > 0 && p.handle != nil {
		p.handle(rows)
	}
	if next == 0 {
		next = MaxID(rows)
	}
	p.watermark.Advance(next)
	return len(rows), nil
}

// Run polls immediately and then on every tick until ctx is cancelled. A
// failed poll is logged and retried on the next tick.
func (p *Poller[T]) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if _, err := p.PollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.WarnContext(ctx, "poll failed",
				slog.String("stream", p.name),
				slog.Uint64("after", uint64(p.watermark.Value())),
				slog.String("error", err.Error()),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// IsCancelled reports whether err only signals that polling was stopped.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
