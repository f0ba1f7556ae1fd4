// Command main runs the database seeder for PositiveOnly.
package main

import (
	"flag"
	"log"

	"positiveonly/internal/config"
	"positiveonly/internal/database"
	"positiveonly/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	threads := flag.Int("threads", 2, "Comment threads per post")
	follows := flag.Int("follows", 8, "Accounts each user follows")
	maxLikes := flag.Int("likes", 25, "Maximum likes per post")
	maxDays := flag.Int("days", 30, "Spread post creation over this many days")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing it")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	summary, err := seed.Seed(db, seed.Options{
		NumUsers:       *numUsers,
		NumPosts:       *numPosts,
		ThreadsPerPost: *threads,
		FollowsPerUser: *follows,
		MaxLikes:       *maxLikes,
		MaxDays:        *maxDays,
		BcryptCost:     cfg.BcryptCost,
		ShouldClean:    *shouldClean,
		DryRun:         *dryRun,
	})
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d posts, %d threads, %d comments", summary.Users, summary.Posts, summary.Threads, summary.Comments)
	log.Printf("All test users have the password: %s", seed.DefaultPassword)
}
