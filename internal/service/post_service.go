package service

import (
	"context"

	"circle/internal/models"
	"circle/internal/notifications"
	"circle/internal/repository"
	"circle/internal/validation"
)

// PostService is the thin content layer that comments hang off.
type PostService struct {
	posts repository.PostRepository
}

// NewPostService returns a new PostService.
func NewPostService(posts repository.PostRepository) *PostService {
	return &PostService{posts: posts}
}

func validateContent(content, what string) (string, error) {
	content, err := validation.Content(content, what)
	if err != nil {
		return "", models.NewValidationError(err.Error())
	}
	return content, nil
}

func (s *PostService) Create(ctx context.Context, userID uint, content string) (*models.Post, error) {
	content, err := validateContent(content, "Post")
	if err != nil {
		return nil, err
	}
	post := &models.Post{UserID: userID, Content: content}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.posts.GetByID(ctx, post.ID)
}

func (s *PostService) Feed(ctx context.Context, afterID uint, limit int) ([]models.Post, error) {
	return s.posts.Feed(ctx, afterID, limit)
}

// Delete removes a post owned by actorID. Notifications that reference it
// are left in place.
func (s *PostService) Delete(ctx context.Context, actorID, postID uint) error {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != actorID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	return s.posts.Delete(ctx, postID)
}

// CommentService creates comments and notifies post authors.
type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	emitter  notifications.Emitter
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

// NewCommentService returns a new CommentService.
func NewCommentService(comments repository.CommentRepository, posts repository.PostRepository, emitter notifications.Emitter) *CommentService {
	return &CommentService{comments: comments, posts: posts, emitter: emitter}
}

// Create stores the comment and notifies the post author unless they wrote it.
func (s *CommentService) Create(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content, err := validateContent(in.Content, "Comment")
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{PostID: post.ID, UserID: in.UserID, Content: content}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	postID, commentID := post.ID, comment.ID
	s.emitter.Emit(ctx, notifications.Event{
		Type:        models.NotificationPostCommented,
		RecipientID: post.UserID,
		ActorID:     in.UserID,
		PostID:      &postID,
		CommentID:   &commentID,
	})
	return comment, nil
}

func (s *CommentService) ListByPost(ctx context.Context, postID, afterID uint, limit int) ([]models.Comment, error) {
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	return s.comments.ListByPost(ctx, postID, afterID, limit)
}

// Delete removes a comment written by actorID.
func (s *CommentService) Delete(ctx context.Context, actorID, commentID uint) error {
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != actorID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	return s.comments.Delete(ctx, commentID)
}
