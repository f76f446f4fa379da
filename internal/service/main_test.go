package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"circle/internal/models"
	"circle/internal/notifications"
	"circle/internal/repository"
	"circle/internal/testutil"

	"gorm.io/gorm"
)

type emitterStub struct {
	mu     sync.Mutex
	events []notifications.Event
	emitFn func(context.Context, notifications.Event) *models.Notification
}

func (s *emitterStub) Emit(ctx context.Context, ev notifications.Event) *models.Notification {
	s.mu.Lock()
	s.events = append(s.events, ev)
	s.mu.Unlock()
	if s.emitFn != nil {
		return s.emitFn(ctx, ev)
	}
	return nil
}

func (s *emitterStub) WithTx(_ *gorm.DB) notifications.Emitter { return s }

type env struct {
	db            *gorm.DB
	users         []models.User
	friendReqs    *FriendRequestService
	relationships *RelationshipService
	readState     *ReadStateService
	messages      *MessageService
	posts         *PostService
	comments      *CommentService
	sync          *SyncService
}

func newEnv(t *testing.T, userCount int) *env {
	t.Helper()
	db := testutil.NewDB(t)
	users := testutil.CreateUsers(t, db, testutil.Names("user", userCount)...)

	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewFriendRequestRepository(db)
	relationshipStore := repository.NewRelationshipStore(db)
	notificationRepo := repository.NewNotificationRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	emitter := notifications.NewFanout(db, notifications.MetricsObserver{})

	return &env{
		db:            db,
		users:         users,
		friendReqs:    NewFriendRequestService(db, requestRepo, relationshipStore, userRepo, emitter),
		relationships: NewRelationshipService(relationshipStore, requestRepo, userRepo),
		readState:     NewReadStateService(notificationRepo, messageRepo),
		messages:      NewMessageService(messageRepo, userRepo, emitter),
		posts:         NewPostService(postRepo),
		comments:      NewCommentService(commentRepo, postRepo, emitter),
		sync: NewSyncService(notificationRepo, messageRepo, postRepo, 0,
			PollIntervals{Notifications: 10, Feed: 30, Chat: 3}),
	}
}

func (e *env) countWhere(t *testing.T, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	return testutil.Count(t, e.db, model, query, args...)
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
