// Command main runs the database seeder for Scribble.
package main

import (
	"flag"
	"log"

	"scribble/internal/config"
	"scribble/internal/database"
	"scribble/internal/seed"
)

func main() {
	defaults := seed.DefaultOptions()

	// Parse command line flags
	numUsers := flag.Int("users", 50, "Number of users to create")
	numPosts := flag.Int("posts", 200, "Number of posts to create")
	follows := flag.Int("follows", defaults.FollowsPerUser, "Authors each user follows")
	comments := flag.Int("comments", defaults.CommentsPerPost, "Comments per post")
	likes := flag.Int("likes", defaults.LikesPerPost, "Likes per post")
	shouldClean := flag.Bool("clean", true, "Clean database before seeding")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing to the database")
	fast := flag.Bool("fast", false, "Store plain passwords instead of bcrypt hashes (local only)")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")
	log.Printf("Target: %d users, %d posts, clean=%v\n", *numUsers, *numPosts, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("❌ Refusing to seed a production database")
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	opts := seed.Options{
		NumUsers:        *numUsers,
		NumPosts:        *numPosts,
		FollowsPerUser:  *follows,
		CommentsPerPost: *comments,
		LikesPerPost:    *likes,
		MaxDays:         defaults.MaxDays,
		ShouldClean:     *shouldClean,
		DryRun:          *dryRun,
		SkipBcrypt:      *fast,
	}
	if err := seed.Seed(db, opts); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done! Your database is now populated with test data.")
	log.Printf("📧 All test users have the password: %s", seed.DemoPassword)
}
