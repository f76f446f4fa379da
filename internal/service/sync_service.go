package service

import (
	"context"
	"fmt"
	"time"

	"circle/internal/models"
	"circle/internal/repository"
)

// PollIntervals are the cadences clients should poll at, in seconds.
type PollIntervals struct {
	Notifications int `json:"notifications"`
	Feed          int `json:"feed"`
	Chat          int `json:"chat"`
}

// Watermarks are the highest ids a client has consumed per stream.
type Watermarks struct {
	Notifications uint `json:"notifications"`
	Messages      uint `json:"messages"`
	Posts         uint `json:"posts"`
}

// Stream names a Sync caller can select.
const (
	StreamNotifications = "notifications"
	StreamMessages      = "messages"
	StreamPosts         = "posts"
)

type SyncInput struct {
	UserID uint
	After  Watermarks
	Limit  int
	// Streams restricts the poll to the named streams. Empty means all of them.
	Streams []string
}

// SyncResult is one polling round for a user.
type SyncResult struct {
	Notifications       []models.Notification `json:"notifications"`
	Messages            []models.Message      `json:"messages"`
	Posts               []models.Post         `json:"posts"`
	Next                Watermarks            `json:"next"`
	UnreadNotifications int64                 `json:"unread_notifications"`
	UnreadMessages      int64                 `json:"unread_messages"`
	PollIntervals       PollIntervals         `json:"poll_intervals"`
	ServerTime          time.Time             `json:"server_time"`
}

// SyncService answers watermark polls across the notification, message and
// feed streams.
type SyncService struct {
	notifications repository.NotificationRepository
	messages      repository.MessageRepository
	posts         repository.PostRepository
	settle        time.Duration
	intervals     PollIntervals
	now           func() time.Time
}

// NewSyncService returns a new SyncService. Rows younger than settle are
// held back until the next poll.
func NewSyncService(
	notifications repository.NotificationRepository,
	messages repository.MessageRepository,
	posts repository.PostRepository,
	settle time.Duration,
	intervals PollIntervals,
) *SyncService {
	return &SyncService{
		notifications: notifications,
		messages:      messages,
		posts:         posts,
		settle:        settle,
		intervals:     intervals,
		now:           time.Now,
	}
}

// Sync returns the selected streams' rows past the given watermarks in
// ascending id order, along with the watermarks to send next time. Streams
// that were not selected keep their incoming watermark.
func (s *SyncService) Sync(ctx context.Context, in SyncInput) (*SyncResult, error) {
	want, err := selectStreams(in.Streams)
	if err != nil {
		return nil, err
	}

	now := s.now()
	cutoff := now.Add(-s.settle)
	res := &SyncResult{Next: in.After, PollIntervals: s.intervals, ServerTime: now.UTC()}

	if want[StreamNotifications] {
		rows, err := s.notifications.ListForUser(ctx, in.UserID, in.After.Notifications, in.Limit)
		if err != nil {
			return nil, err
		}
		res.Notifications, res.Next.Notifications = settled(rows, func(n models.Notification) time.Time { return n.CreatedAt }, cutoff, in.After.Notifications)
	}
	if want[StreamMessages] {
		rows, err := s.messages.ListForUser(ctx, in.UserID, in.After.Messages, in.Limit)
		if err != nil {
			return nil, err
		}
		res.Messages, res.Next.Messages = settled(rows, func(m models.Message) time.Time { return m.CreatedAt }, cutoff, in.After.Messages)
	}
	if want[StreamPosts] {
		rows, err := s.posts.Feed(ctx, in.After.Posts, in.Limit)
		if err != nil {
			return nil, err
		}
		res.Posts, res.Next.Posts = settled(rows, func(p models.Post) time.Time { return p.CreatedAt }, cutoff, in.After.Posts)
	}

	if res.UnreadNotifications, err = s.notifications.CountUnread(ctx, in.UserID); err != nil {
		return nil, err
	}
	if res.UnreadMessages, err = s.messages.CountUnread(ctx, in.UserID); err != nil {
		return nil, err
	}
	return res, nil
}

func selectStreams(names []string) (map[string]bool, error) {
	want := map[string]bool{}
	if len(names) == 0 {
		names = []string{StreamNotifications, StreamMessages, StreamPosts}
	}
	for _, name := range names {
		switch name {
		case StreamNotifications, StreamMessages, StreamPosts:
			want[name] = true
		default:
			return nil, models.NewValidationError(fmt.Sprintf("Unknown sync stream %q", name))
		}
	}
	return want, nil
}

type identified interface {
	GetID() uint
}

// settled cuts rows at the first one created after cutoff. A row with a
// lower id may still commit after a higher one is visible, so everything
// from the first unsettled row on waits for the next poll.
func settled[T identified](rows []T, createdAt func(T) time.Time, cutoff time.Time, after uint) ([]T, uint) {
	next := after
	for i, row := range rows {
		if createdAt(row).After(cutoff) {
			return rows[:i], next
		}
		next = row.GetID()
	}
	return rows, next
}
