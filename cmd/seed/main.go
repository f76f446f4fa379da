// Command main runs the demo data seeder.
package main

import (
	"context"
	"flag"
	"log"

	"circle/internal/config"
	"circle/internal/database"
	"circle/internal/middleware"
	"circle/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()
	numUsers := flag.Int("users", defaults.NumUsers, "Number of users to create")
	numPosts := flag.Int("posts", defaults.NumPosts, "Number of posts to create")
	friendProb := flag.Float64("friend-prob", defaults.FriendProbability, "Probability that a pair of users is connected")
	messages := flag.Int("messages", defaults.MessagesPerFriend, "Messages exchanged per friendship")
	comments := flag.Int("comments", defaults.CommentsPerPost, "Comments per post")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed (0 = time based)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatalf("Refusing to seed a %s database", cfg.Env)
	}
	middleware.ConfigureLogger(cfg.Env, cfg.LogLevel)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := seed.Options{
		NumUsers:          *numUsers,
		NumPosts:          *numPosts,
		FriendProbability: *friendProb,
		MessagesPerFriend: *messages,
		CommentsPerPost:   *comments,
		ShouldClean:       *shouldClean,
		Seed:              *randSeed,
	}
	stats, err := seed.NewSeeder(db, opts.Seed).Run(context.Background(), opts)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}
	log.Printf("Seeded %d users, %d friendships, %d pending requests, %d messages, %d posts",
		stats.Users, stats.Friendships, stats.PendingRequest, stats.Messages, stats.Posts)
}
