// Package notifications turns domain events into notification rows.
//
// Fan-out is best effort relative to the action that caused it: a failed
// insert is reported to observers and swallowed, never returned to the caller.
package notifications

import (
	"context"
	"errors"
	"fmt"

	"circle/internal/models"
	"circle/internal/repository"

	"gorm.io/gorm"
)

// Event is a domain occurrence that may address a notification to one user.
type Event struct {
	Type        models.NotificationType
	RecipientID uint
	ActorID     uint
	PostID      *uint
	CommentID   *uint
}

// Emitter writes at most one notification per event.
type Emitter interface {
	// Emit returns the written notification, or nil when the event was
	// suppressed or the insert failed.
	Emit(ctx context.Context, ev Event) *models.Notification
	// WithTx binds the emitter to an open transaction. The insert then runs
	// in a savepoint so a failure leaves the outer transaction usable.
	WithTx(tx *gorm.DB) Emitter
}

// Observer is told about every fan-out outcome.
type Observer interface {
	Delivered(ctx context.Context, n *models.Notification)
	Suppressed(ctx context.Context, ev Event)
	Failed(ctx context.Context, ev Event, err error)
}

const fallbackActorName = "Someone"

var errUnknownType = errors.New("unknown notification type")

// Fanout is the gorm-backed Emitter.
type Fanout struct {
	db        *gorm.DB
	observers []Observer
}

// NewFanout creates an emitter writing through db.
func NewFanout(db *gorm.DB, observers ...Observer) *Fanout {
	return &Fanout{db: db, observers: observers}
}

// WithTx implements Emitter.
func (f *Fanout) WithTx(tx *gorm.DB) Emitter {
	return &Fanout{db: tx, observers: f.observers}
}

// Emit implements Emitter.
func (f *Fanout) Emit(ctx context.Context, ev Event) *models.Notification {
	if ev.ActorID != 0 && ev.ActorID == ev.RecipientID {
		for _, o := range f.observers {
			o.Suppressed(ctx, ev)
		}
		return nil
	}
	if !ev.Type.Valid() {
		f.fail(ctx, ev, fmt.Errorf("%w: %q", errUnknownType, ev.Type))
		return nil
	}
	if ev.RecipientID == 0 {
		f.fail(ctx, ev, errors.New("event has no recipient"))
		return nil
	}

	n := &models.Notification{
		UserID:    ev.RecipientID,
		Type:      ev.Type,
		Message:   composeMessage(ev.Type, f.actorName(ctx, ev.ActorID)),
		PostID:    ev.PostID,
		CommentID: ev.CommentID,
	}
	if ev.ActorID != 0 {
		actor := ev.ActorID
		n.FromUserID = &actor
	}

	err := f.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return repository.NewNotificationRepository(tx).Create(ctx, n)
	})
	if err != nil {
		f.fail(ctx, ev, err)
		return nil
	}

	for _, o := range f.observers {
		o.Delivered(ctx, n)
	}
	return n
}

func (f *Fanout) fail(ctx context.Context, ev Event, err error) {
	for _, o := range f.observers {
		o.Failed(ctx, ev, err)
	}
}

func (f *Fanout) actorName(ctx context.Context, actorID uint) string {
	if actorID == 0 {
		return fallbackActorName
	}
	user, err := repository.NewUserRepository(f.db).GetByID(ctx, actorID)
	if err != nil || user.Username == "" {
		return fallbackActorName
	}
	return user.Username
}

func composeMessage(t models.NotificationType, actor string) string {
	switch t {
	case models.NotificationFriendRequestSent:
		return fmt.Sprintf("%s sent you a friend request", actor)
	case models.NotificationFriendRequestAccepted:
		return fmt.Sprintf("%s accepted your friend request", actor)
	case models.NotificationMessageSent:
		return fmt.Sprintf("%s sent you a message", actor)
	case models.NotificationPostCommented:
		return fmt.Sprintf("%s commented on your post", actor)
	}
	return ""
}
