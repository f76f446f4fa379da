package service

import (
	"context"

	"circle/internal/models"
	"circle/internal/repository"
)

// RelationshipService exposes the friendship and follow graphs.
type RelationshipService struct {
	relationships repository.RelationshipStore
	requests      repository.FriendRequestRepository
	users         repository.UserRepository
}

// NewRelationshipService returns a new RelationshipService.
func NewRelationshipService(
	relationships repository.RelationshipStore,
	requests repository.FriendRequestRepository,
	users repository.UserRepository,
) *RelationshipService {
	return &RelationshipService{
		relationships: relationships,
		requests:      requests,
		users:         users,
	}
}

// FriendshipStatus describes the relationship between two users.
type FriendshipStatus struct {
	AreFriends     bool                  `json:"areFriends"`
	PendingRequest *models.FriendRequest `json:"pendingRequest"`
}

// Check reports whether the two users are friends and any pending request
// between them.
func (s *RelationshipService) Check(ctx context.Context, a, b uint) (*FriendshipStatus, error) {
	pair, err := models.NewFriendPair(a, b)
	if err != nil {
		return nil, err
	}
	friends, err := s.relationships.AreFriends(ctx, pair)
	if err != nil {
		return nil, err
	}
	pending, err := s.requests.FindPending(ctx, pair)
	if err != nil {
		return nil, err
	}
	return &FriendshipStatus{AreFriends: friends, PendingRequest: pending}, nil
}

// ListFriends returns the friends of userID.
func (s *RelationshipService) ListFriends(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	return s.relationships.ListFriends(ctx, userID)
}

// Unfriend removes the friendship between a and b. The actor must be one of
// them. Removing a friendship that does not exist is a no-op.
func (s *RelationshipService) Unfriend(ctx context.Context, actorID, a, b uint) (bool, error) {
	pair, err := models.NewFriendPair(a, b)
	if err != nil {
		return false, models.NewValidationError("Cannot unfriend yourself")
	}
	if !pair.Contains(actorID) {
		return false, models.NewForbiddenError("You can only remove your own friendships")
	}
	return s.relationships.RemoveFriendship(ctx, pair)
}

// Follow adds a directed edge from follower to following.
func (s *RelationshipService) Follow(ctx context.Context, followerID, followingID uint) error {
	if followerID == followingID {
		return models.NewValidationErrorWithReason(models.ReasonSelfFollow, "Cannot follow yourself")
	}
	ok, err := s.users.Exists(ctx, followingID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("User", followingID)
	}
	return s.relationships.Follow(ctx, followerID, followingID)
}

// Unfollow removes the directed edge; a missing edge is a no-op.
func (s *RelationshipService) Unfollow(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.relationships.Unfollow(ctx, followerID, followingID)
}

func (s *RelationshipService) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	return s.relationships.IsFollowing(ctx, followerID, followingID)
}

func (s *RelationshipService) ListFollowers(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	return s.relationships.ListFollowers(ctx, userID)
}

func (s *RelationshipService) ListFollowing(ctx context.Context, userID uint) ([]models.UserSummary, error) {
	return s.relationships.ListFollowing(ctx, userID)
}
