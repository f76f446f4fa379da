package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"circle/internal/models"
	"circle/internal/notifications"
	"circle/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFriendRequestService_CreateValidation(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()
	a, b := e.users[0].ID, e.users[1].ID

	_, err := e.friendReqs.Create(ctx, CreateFriendRequestInput{SenderID: a, ReceiverID: a})
	assert.True(t, errors.Is(err, models.ErrSelfRequest))

	_, err = e.friendReqs.Create(ctx, CreateFriendRequestInput{SenderID: a, ReceiverID: 999})
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeNotFound, appErr.Code)

	_, err = e.friendReqs.Create(ctx, CreateFriendRequestInput{SenderID: a, ReceiverID: b})
	require.NoError(t, err)

	_, err = e.friendReqs.Create(ctx, CreateFriendRequestInput{SenderID: a, ReceiverID: b})
	assert.True(t, errors.Is(err, models.ErrDuplicatePending))

	_, err = e.friendReqs.Create(ctx, CreateFriendRequestInput{SenderID: b, ReceiverID: a})
	assert.True(t, errors.Is(err, models.ErrDuplicatePending))

	assert.EqualValues(t, 1, e.countWhere(t, &models.FriendRequest{}, "status = ?", models.FriendRequestPending))
	assert.EqualValues(t, 1, e.countWhere(t, &models.Notification{}, "user_id = ? AND type = ?", b, models.NotificationFriendRequestSent))
}

func TestFriendRequestService_AcceptScenario(t *testing.T) {
	for _, reversed := range []bool{false, true} {
		e := newEnv(t, 2)
		ctx := context.Background()
		sender, receiver := e.users[0].ID, e.users[1].ID
		if reversed {
			sender, receiver = receiver, sender
		}

		req, err := e.friendReqs.Create(ctx, CreateFriendRequestInput{SenderID: sender, ReceiverID: receiver})
		require.NoError(t, err)

		status, err := e.relationships.Check(ctx, e.users[0].ID, e.users[1].ID)
		require.NoError(t, err)
		assert.False(t, status.AreFriends)
		require.NotNil(t, status.PendingRequest)
		assert.Equal(t, sender, status.PendingRequest.SenderID)

		_, err = e.friendReqs.Accept(ctx, sender, req.ID)
		var appErr *models.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, models.CodeForbidden, appErr.Code)

		accepted, err := e.friendReqs.Accept(ctx, receiver, req.ID)
		require.NoError(t, err)
		assert.Equal(t, models.FriendRequestAccepted, accepted.Status)

		status, err = e.relationships.Check(ctx, e.users[1].ID, e.users[0].ID)
		require.NoError(t, err)
		assert.True(t, status.AreFriends)
		assert.Nil(t, status.PendingRequest)

		var rows []models.Friendship
		require.NoError(t, e.db.Find(&rows).Error)
		require.Len(t, rows, 1)
		assert.Equal(t, e.users[0].ID, rows[0].UserID1)
		assert.Equal(t, e.users[1].ID, rows[0].UserID2)

		friendsOf0, err := e.relationships.ListFriends(ctx, e.users[0].ID)
		require.NoError(t, err)
		require.Len(t, friendsOf0, 1)
		assert.Equal(t, e.users[1].ID, friendsOf0[0].ID)

		friendsOf1, err := e.relationships.ListFriends(ctx, e.users[1].ID)
		require.NoError(t, err)
		require.Len(t, friendsOf1, 1)
		assert.Equal(t, e.users[0].ID, friendsOf1[0].ID)

		assert.EqualValues(t, 1, e.countWhere(t, &models.Notification{},
			"user_id = ? AND from_user_id = ? AND type = ?", sender, receiver, models.NotificationFriendRequestAccepted))

		_, err = e.friendReqs.Create(ctx, CreateFriendRequestInput{SenderID: receiver, ReceiverID: sender})
		assert.True(t, errors.Is(err, models.ErrAlreadyFriends))

		_, err = e.friendReqs.Accept(ctx, receiver, req.ID)
		assert.True(t, errors.Is(err, models.ErrRequestNotPending))
	}
}

func TestFriendRequestService_ParallelAcceptCreatesOneFriendship(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()
	sender, receiver := e.users[0].ID, e.users[1].ID

	req, err := e.friendReqs.Create(ctx, CreateFriendRequestInput{SenderID: sender, ReceiverID: receiver})
	require.NoError(t, err)

	// The test database has one connection, so these transactions queue and
	// the later caller sees the accepted row before it tries the update.
	const callers = 2
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = e.friendReqs.Accept(ctx, receiver, req.ID)
		}(i)
	}
	wg.Wait()

	var successes int
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorIs(t, err, models.ErrRequestNotPending)
	}
	assert.Equal(t, 1, successes)
	assert.EqualValues(t, 1, e.countWhere(t, &models.Friendship{}, ""))
	assert.EqualValues(t, 1, e.countWhere(t, &models.Notification{}, "type = ?", models.NotificationFriendRequestAccepted))
}

// staleRequests hands out a snapshot of one request taken before another
// caller changed it, so the service only learns about the change from the
// conditional update.
type staleRequests struct {
	repository.FriendRequestRepository
	snapshot models.FriendRequest
}

func (s staleRequests) WithTx(tx *gorm.DB) repository.FriendRequestRepository {
	return staleRequests{FriendRequestRepository: s.FriendRequestRepository.WithTx(tx), snapshot: s.snapshot}
}

func (s staleRequests) GetByID(ctx context.Context, id uint) (*models.FriendRequest, error) {
	if id == s.snapshot.ID {
		req := s.snapshot
		return &req, nil
	}
	return s.FriendRequestRepository.GetByID(ctx, id)
}

func (e *env) staleFriendRequests(snapshot models.FriendRequest) *FriendRequestService {
	return NewFriendRequestService(e.db,
		staleRequests{FriendRequestRepository: repository.NewFriendRequestRepository(e.db), snapshot: snapshot},
		repository.NewRelationshipStore(e.db),
		repository.NewUserRepository(e.db),
		notifications.NewFanout(e.db),
	)
}

func TestFriendRequestService_AcceptLosingRaceReportsAlreadyProcessed(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()
	sender, receiver := e.users[0].ID, e.users[1].ID

	req, err := e.friendReqs.Create(ctx, CreateFriendRequestInput{SenderID: sender, ReceiverID: receiver})
	require.NoError(t, err)
	pending := *req
	require.True(t, pending.IsPending())

	_, err = e.friendReqs.Accept(ctx, receiver, req.ID)
	require.NoError(t, err)

	_, err = e.staleFriendRequests(pending).Accept(ctx, receiver, req.ID)
	assert.ErrorIs(t, err, models.ErrRequestAlreadyProcessed)

	assert.EqualValues(t, 1, e.countWhere(t, &models.Friendship{}, ""))
	assert.EqualValues(t, 1, e.countWhere(t, &models.Notification{}, "type = ?", models.NotificationFriendRequestAccepted))
	stored, err := repository.NewFriendRequestRepository(e.db).GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestAccepted, stored.Status)
}

func TestFriendRequestService_RejectLosingRaceReportsAlreadyProcessed(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()
	sender, receiver := e.users[0].ID, e.users[1].ID

	req, err := e.friendReqs.Create(ctx, CreateFriendRequestInput{SenderID: sender, ReceiverID: receiver})
	require.NoError(t, err)
	pending := *req

	_, err = e.friendReqs.Accept(ctx, receiver, req.ID)
	require.NoError(t, err)

	_, err = e.staleFriendRequests(pending).Reject(ctx, receiver, req.ID)
	assert.ErrorIs(t, err, models.ErrRequestAlreadyProcessed)
	_, err = e.staleFriendRequests(pending).Cancel(ctx, sender, req.ID)
	assert.ErrorIs(t, err, models.ErrRequestAlreadyProcessed)

	stored, err := repository.NewFriendRequestRepository(e.db).GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestAccepted, stored.Status)
	assert.EqualValues(t, 1, e.countWhere(t, &models.Friendship{}, ""))
}

func TestFriendRequestService_RejectThenResubmitReusesRecord(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()
	a, b := e.users[0].ID, e.users[1].ID

	req, err := e.friendReqs.Create(ctx, CreateFriendRequestInput{SenderID: a, ReceiverID: b})
	require.NoError(t, err)

	rejected, err := e.friendReqs.Reject(ctx, b, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestRejected, rejected.Status)

	_, err = e.friendReqs.Reject(ctx, b, req.ID)
	assert.True(t, errors.Is(err, models.ErrRequestNotPending))

	again, err := e.friendReqs.Create(ctx, CreateFriendRequestInput{SenderID: b, ReceiverID: a})
	require.NoError(t, err)
	assert.Equal(t, req.ID, again.ID)
	assert.Equal(t, models.FriendRequestPending, again.Status)
	assert.Equal(t, b, again.SenderID)
	assert.Equal(t, a, again.ReceiverID)

	assert.EqualValues(t, 1, e.countWhere(t, &models.FriendRequest{}, "1 = 1"))
}

func TestFriendRequestService_CancelAndAuthorization(t *testing.T) {
	e := newEnv(t, 3)
	ctx := context.Background()
	a, b, c := e.users[0].ID, e.users[1].ID, e.users[2].ID

	req, err := e.friendReqs.Create(ctx, CreateFriendRequestInput{SenderID: a, ReceiverID: b})
	require.NoError(t, err)

	_, err = e.friendReqs.Cancel(ctx, b, req.ID)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeForbidden, appErr.Code)

	_, err = e.friendReqs.Reject(ctx, c, req.ID)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeForbidden, appErr.Code)

	cancelled, err := e.friendReqs.Cancel(ctx, a, req.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FriendRequestRejected, cancelled.Status)

	_, err = e.friendReqs.Accept(ctx, b, 999)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, models.CodeNotFound, appErr.Code)
}

func TestFriendRequestService_AfterUnfriendMintsFreshRecord(t *testing.T) {
	e := newEnv(t, 2)
	ctx := context.Background()
	a, b := e.users[0].ID, e.users[1].ID

	first, err := e.friendReqs.Create(ctx, CreateFriendRequestInput{SenderID: a, ReceiverID: b})
	require.NoError(t, err)
	_, err = e.friendReqs.Accept(ctx, b, first.ID)
	require.NoError(t, err)

	removed, err := e.relationships.Unfriend(ctx, a, a, b)
	require.NoError(t, err)
	assert.True(t, removed)

	second, err := e.friendReqs.Create(ctx, CreateFriendRequestInput{SenderID: a, ReceiverID: b})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	lists, err := e.friendReqs.ListIncoming(ctx, b)
	require.NoError(t, err)
	require.Len(t, lists, 1)
	assert.Equal(t, second.ID, lists[0].ID)

	sent, err := e.friendReqs.ListOutgoing(ctx, a)
	require.NoError(t, err)
	assert.Len(t, sent, 1)
}
