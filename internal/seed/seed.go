// Package seed provides database seeding utilities for development and testing.
// Seeded data goes through the same services as API traffic, so friendships,
// pending requests and notifications obey the usual invariants.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"circle/internal/middleware"
	"circle/internal/models"
	"circle/internal/notifications"
	"circle/internal/repository"
	"circle/internal/service"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers int
	// NumPosts is spread across random authors.
	NumPosts int
	// FriendProbability is the chance any pair of users ends up connected.
	FriendProbability float64
	MessagesPerFriend int
	CommentsPerPost   int
	ShouldClean       bool
	// Seed makes a run reproducible. Zero uses the current time.
	Seed int64
}

// DefaultOptions returns a small but well-connected data set.
func DefaultOptions() Options {
	return Options{
		NumUsers:          25,
		NumPosts:          60,
		FriendProbability: 0.2,
		MessagesPerFriend: 3,
		CommentsPerPost:   2,
		ShouldClean:       true,
	}
}

// Stats reports what a run created.
type Stats struct {
	Users          int
	Friendships    int
	PendingRequest int
	Follows        int
	Messages       int
	Posts          int
	Comments       int
}

// Seeder creates demo data through the service layer.
type Seeder struct {
	db            *gorm.DB
	users         repository.UserRepository
	friendReqs    *service.FriendRequestService
	relationships *service.RelationshipService
	messages      *service.MessageService
	posts         *service.PostService
	comments      *service.CommentService
	rng           *rand.Rand
	faker         *gofakeit.Faker
}

// NewSeeder wires a Seeder against db. seed fixes the random stream; pass 0
// for a time-based seed.
func NewSeeder(db *gorm.DB, seed int64) *Seeder {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewFriendRequestRepository(db)
	relationshipStore := repository.NewRelationshipStore(db)
	postRepo := repository.NewPostRepository(db)
	emitter := notifications.NewFanout(db, notifications.MetricsObserver{})

	//nolint:gosec // Weak random number generator is fine for seeding
	rng := rand.New(rand.NewSource(seed))
	return &Seeder{
		db:            db,
		users:         userRepo,
		friendReqs:    service.NewFriendRequestService(db, requestRepo, relationshipStore, userRepo, emitter),
		relationships: service.NewRelationshipService(relationshipStore, requestRepo, userRepo),
		messages:      service.NewMessageService(repository.NewMessageRepository(db), userRepo, emitter),
		posts:         service.NewPostService(postRepo),
		comments:      service.NewCommentService(repository.NewCommentRepository(db), postRepo, emitter),
		rng:           rng,
		faker:         gofakeit.New(seed),
	}
}

// Run populates the database according to opts.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Stats, error) {
	logger := middleware.Logger
	logger.Info("seeding database",
		slog.Int("users", opts.NumUsers),
		slog.Int("posts", opts.NumPosts),
		slog.Bool("clean", opts.ShouldClean),
	)

	if opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return nil, fmt.Errorf("clear data: %w", err)
		}
	}

	stats := &Stats{}
	users, err := s.CreateUsers(ctx, opts.NumUsers)
	if err != nil {
		return nil, fmt.Errorf("create users: %w", err)
	}
	stats.Users = len(users)

	if err := s.connect(ctx, users, opts, stats); err != nil {
		return nil, fmt.Errorf("connect users: %w", err)
	}
	if err := s.engage(ctx, users, opts, stats); err != nil {
		return nil, fmt.Errorf("create engagement: %w", err)
	}

	logger.Info("seeding completed",
		slog.Int("friendships", stats.Friendships),
		slog.Int("pending_requests", stats.PendingRequest),
		slog.Int("follows", stats.Follows),
		slog.Int("messages", stats.Messages),
		slog.Int("posts", stats.Posts),
		slog.Int("comments", stats.Comments),
	)
	return stats, nil
}

// ClearAll removes every row the seeder can create, children first.
func (s *Seeder) ClearAll(ctx context.Context) error {
	tables := []interface{}{
		&models.Notification{},
		&models.Comment{},
		&models.Post{},
		&models.Message{},
		&models.Follow{},
		&models.FriendRequest{},
		&models.Friendship{},
		&models.User{},
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range tables {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CreateUsers inserts n users with unique fake usernames.
func (s *Seeder) CreateUsers(ctx context.Context, n int) ([]models.User, error) {
	users := make([]models.User, 0, n)
	for i := 0; i < n; i++ {
		u := models.User{
			Username: fmt.Sprintf("%s%d", s.faker.Username(), i+1),
			Avatar:   fmt.Sprintf("https://i.pravatar.cc/150?u=%s", s.faker.UUID()),
		}
		if err := s.users.Create(ctx, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

// connect builds the friend and follow graph. Some requests are left pending
// so incoming lists and check results are not empty in a fresh environment.
func (s *Seeder) connect(ctx context.Context, users []models.User, opts Options, stats *Stats) error {
	for i := range users {
		for j := i + 1; j < len(users); j++ {
			if s.rng.Float64() >= opts.FriendProbability {
				continue
			}
			sender, receiver := users[i], users[j]
			if s.rng.Intn(2) == 0 {
				sender, receiver = receiver, sender
			}
			req, err := s.friendReqs.Create(ctx, service.CreateFriendRequestInput{
				SenderID:   sender.ID,
				ReceiverID: receiver.ID,
			})
			if err != nil {
				return err
			}
			if s.rng.Intn(4) == 0 {
				stats.PendingRequest++
				continue
			}
			if _, err := s.friendReqs.Accept(ctx, receiver.ID, req.ID); err != nil {
				return err
			}
			stats.Friendships++

			if s.rng.Intn(2) == 0 {
				if err := s.relationships.Follow(ctx, sender.ID, receiver.ID); err != nil {
					return err
				}
				stats.Follows++
			}
			for k := 0; k < opts.MessagesPerFriend; k++ {
				from, to := sender, receiver
				if k%2 == 1 {
					from, to = to, from
				}
				if _, err := s.messages.Send(ctx, service.SendMessageInput{
					SenderID:   from.ID,
					ReceiverID: to.ID,
					Content:    s.faker.Sentence(8),
				}); err != nil {
					return err
				}
				stats.Messages++
			}
		}
	}
	return nil
}

func (s *Seeder) engage(ctx context.Context, users []models.User, opts Options, stats *Stats) error {
	if len(users) == 0 {
		if opts.NumPosts > 0 {
			return errors.New("cannot create posts without users")
		}
		return nil
	}
	for i := 0; i < opts.NumPosts; i++ {
		author := users[s.rng.Intn(len(users))]
		post, err := s.posts.Create(ctx, author.ID, s.faker.Paragraph(1, 3, 12, " "))
		if err != nil {
			return err
		}
		stats.Posts++

		for k := 0; k < opts.CommentsPerPost; k++ {
			commenter := users[s.rng.Intn(len(users))]
			if _, err := s.comments.Create(ctx, service.CreateCommentInput{
				UserID:  commenter.ID,
				PostID:  post.ID,
				Content: s.faker.Sentence(10),
			}); err != nil {
				return err
			}
			stats.Comments++
		}
	}
	return nil
}
