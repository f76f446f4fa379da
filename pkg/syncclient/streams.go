package syncclient

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// Streams polls the notification, feed and (optionally) message streams on
// their own cadences until the context is cancelled. Every stream goes
// through Sync, so watermarks never pass a row the server is holding back.
type Streams struct {
	Client *Client
	Logger *slog.Logger

	// Chat enables the message poller, usually while a conversation is open.
	Chat bool

	NotificationInterval time.Duration
	FeedInterval         time.Duration
	ChatInterval         time.Duration

	// Start positions. Nil starts from the newest page.
	Notifications *Watermark
	Feed          *Watermark
	Messages      *Watermark

	OnNotifications func([]Notification)
	OnPosts         func([]Post)
	OnMessages      func([]Message)

	Limit int
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Run blocks until ctx is done or a poller stops with a non-cancellation error.
func (s *Streams) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	notifs := NewPoller(StreamNotifications, orDefault(s.NotificationInterval, DefaultNotificationInterval), s.Notifications,
		s.Client.NotificationStream(s.Limit), s.OnNotifications, s.Logger)
	g.Go(func() error { return ignoreCancel(notifs.Run(ctx)) })

	feed := NewPoller(StreamPosts, orDefault(s.FeedInterval, DefaultFeedInterval), s.Feed,
		s.Client.PostStream(s.Limit), s.OnPosts, s.Logger)
	g.Go(func() error { return ignoreCancel(feed.Run(ctx)) })

	if s.Chat {
		chat := NewPoller(StreamMessages, orDefault(s.ChatInterval, DefaultChatInterval), s.Messages,
			s.Client.MessageStream(s.Limit), s.OnMessages, s.Logger)
		g.Go(func() error { return ignoreCancel(chat.Run(ctx)) })
	}

	return g.Wait()
}

func ignoreCancel(err error) error {
	if IsCancelled(err) {
		return nil
	}
	return err
}
