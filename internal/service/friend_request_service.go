// Package service holds the business rules on top of the repositories.
package service

import (
	"context"

	"circle/internal/models"
	"circle/internal/notifications"
	"circle/internal/observability"
	"circle/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"
)

// Transition labels for the friend request counter.
const (
	transitionCreated   = "created"
	transitionRevived   = "revived"
	transitionAccepted  = "accepted"
	transitionRejected  = "rejected"
	transitionCancelled = "cancelled"
)

// FriendRequestService runs the friend request state machine:
// pending -> accepted | rejected, and rejected -> pending on resubmission.
type FriendRequestService struct {
	db            *gorm.DB
	requests      repository.FriendRequestRepository
	relationships repository.RelationshipStore
	users         repository.UserRepository
	emitter       notifications.Emitter
}

// NewFriendRequestService returns a new FriendRequestService.
func NewFriendRequestService(
	db *gorm.DB,
	requests repository.FriendRequestRepository,
	relationships repository.RelationshipStore,
	users repository.UserRepository,
	emitter notifications.Emitter,
) *FriendRequestService {
	return &FriendRequestService{
		db:            db,
		requests:      requests,
		relationships: relationships,
		users:         users,
		emitter:       emitter,
	}
}

type CreateFriendRequestInput struct {
	SenderID   uint
	ReceiverID uint
}

// Create opens a pending request from sender to receiver, reviving a
// rejected record for the pair when one exists.
func (s *FriendRequestService) Create(ctx context.Context, in CreateFriendRequestInput) (req *models.FriendRequest, err error) {
	span, ctx := observability.StartSpan(ctx, "friend_request.create",
		attribute.Int64("sender_id", int64(in.SenderID)),
		attribute.Int64("receiver_id", int64(in.ReceiverID)),
	)
	defer func() {
		span.SetError(err)
		span.End()
	}()

	pair, err := models.NewFriendPair(in.SenderID, in.ReceiverID)
	if err != nil {
		return nil, models.ErrSelfRequest
	}
	if in.SenderID == 0 || in.ReceiverID == 0 {
		return nil, models.NewValidationError("sender_id and receiver_id are required")
	}
	for _, id := range []uint{in.SenderID, in.ReceiverID} {
		ok, err := s.users.Exists(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, models.NewNotFoundError("User", id)
		}
	}

	transition := transitionCreated
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requests := s.requests.WithTx(tx)
		relationships := s.relationships.WithTx(tx)

		friends, err := relationships.AreFriends(ctx, pair)
		if err != nil {
			return err
		}
		if friends {
			return models.ErrAlreadyFriends
		}

		rejected, err := requests.FindLatestRejected(ctx, pair)
		if err != nil {
			return err
		}
		if rejected != nil {
			revived, err := requests.Revive(ctx, rejected.ID, in.SenderID, in.ReceiverID)
			if err != nil {
				return err
			}
			if !revived {
				return models.ErrDuplicatePending
			}
			transition = transitionRevived
			if req, err = requests.GetByID(ctx, rejected.ID); err != nil {
				return err
			}
		} else {
			req = &models.FriendRequest{SenderID: in.SenderID, ReceiverID: in.ReceiverID}
			inserted, err := requests.InsertPending(ctx, req)
			if err != nil {
				return err
			}
			if !inserted {
				return models.ErrDuplicatePending
			}
		}

		// A concurrent accept may have committed a friendship after our first check.
		if friends, err = relationships.AreFriends(ctx, pair); err != nil {
			return err
		}
		if friends {
			return models.ErrAlreadyFriends
		}

		s.emitter.WithTx(tx).Emit(ctx, notifications.Event{
			Type:        models.NotificationFriendRequestSent,
			RecipientID: in.ReceiverID,
			ActorID:     in.SenderID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.FriendRequestTransitions.WithLabelValues(transition).Inc()
	span.AddAttributes(attribute.Int64("request_id", int64(req.ID)))
	return req, nil
}

// Accept moves a pending request to accepted, creates the friendship and
// notifies the original sender. Only the receiver may accept.
func (s *FriendRequestService) Accept(ctx context.Context, actorID, requestID uint) (req *models.FriendRequest, err error) {
	span, ctx := observability.StartSpan(ctx, "friend_request.accept",
		attribute.Int64("request_id", int64(requestID)),
		attribute.Int64("actor_id", int64(actorID)),
	)
	defer func() {
		span.SetError(err)
		span.End()
	}()

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		requests := s.requests.WithTx(tx)

		req, err = requests.GetByID(ctx, requestID)
		if err != nil {
			return err
		}
		if req.ReceiverID != actorID {
			return models.NewForbiddenError("Only the receiver can accept this friend request")
		}
		if !req.IsPending() {
			return models.ErrRequestNotPending
		}

		won, err := requests.Transition(ctx, req.ID, models.FriendRequestPending, models.FriendRequestAccepted)
		if err != nil {
			return err
		}
		if !won {
			return models.ErrRequestAlreadyProcessed
		}
		req.Status = models.FriendRequestAccepted

		pair, err := models.NewFriendPair(req.SenderID, req.ReceiverID)
		if err != nil {
			return err
		}
		if err := s.relationships.WithTx(tx).CreateFriendship(ctx, pair); err != nil {
			return err
		}

		s.emitter.WithTx(tx).Emit(ctx, notifications.Event{
			Type:        models.NotificationFriendRequestAccepted,
			RecipientID: req.SenderID,
			ActorID:     req.ReceiverID,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.FriendRequestTransitions.WithLabelValues(transitionAccepted).Inc()
	return req, nil
}

// Reject moves a pending request to rejected. When the sender calls it, the
// request is cancelled instead.
func (s *FriendRequestService) Reject(ctx context.Context, actorID, requestID uint) (*models.FriendRequest, error) {
	return s.close(ctx, actorID, requestID, false)
}

// Cancel withdraws a pending request. Only the sender may cancel.
func (s *FriendRequestService) Cancel(ctx context.Context, actorID, requestID uint) (*models.FriendRequest, error) {
	return s.close(ctx, actorID, requestID, true)
}

func (s *FriendRequestService) close(ctx context.Context, actorID, requestID uint, senderOnly bool) (req *models.FriendRequest, err error) {
	span, ctx := observability.StartSpan(ctx, "friend_request.close",
		attribute.Int64("request_id", int64(requestID)),
		attribute.Int64("actor_id", int64(actorID)),
	)
	defer func() {
		span.SetError(err)
		span.End()
	}()

	req, err = s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	transition := transitionRejected
	switch {
	case req.SenderID == actorID:
		transition = transitionCancelled
	case req.ReceiverID == actorID && !senderOnly:
	case senderOnly:
		return nil, models.NewForbiddenError("Only the sender can cancel this friend request")
	default:
		return nil, models.NewForbiddenError("You are not part of this friend request")
	}
	if !req.IsPending() {
		return nil, models.ErrRequestNotPending
	}

	won, err := s.requests.Transition(ctx, req.ID, models.FriendRequestPending, models.FriendRequestRejected)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, models.ErrRequestAlreadyProcessed
	}
	req.Status = models.FriendRequestRejected

	observability.FriendRequestTransitions.WithLabelValues(transition).Inc()
	span.AddAttributes(attribute.String("transition", transition))
	return req, nil
}

// ListIncoming returns pending requests addressed to userID.
func (s *FriendRequestService) ListIncoming(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.requests.ListIncomingPending(ctx, userID)
}

// ListOutgoing returns pending requests sent by userID.
func (s *FriendRequestService) ListOutgoing(ctx context.Context, userID uint) ([]models.FriendRequest, error) {
	return s.requests.ListOutgoingPending(ctx, userID)
}
