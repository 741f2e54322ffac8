package seed

import (
	"fmt"
	"log"

	"scribble/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers        int
	NumPosts        int
	FollowsPerUser  int
	CommentsPerPost int
	LikesPerPost    int
	MaxDays         int
	RandomSeed      int64
	ShouldClean     bool
	DryRun          bool
	SkipBcrypt      bool
}

// DefaultOptions is a small but lively demo dataset.
func DefaultOptions() Options {
	return Options{
		NumUsers:        20,
		NumPosts:        120,
		FollowsPerUser:  5,
		CommentsPerPost: 3,
		LikesPerPost:    4,
		MaxDays:         90,
	}
}

// DemoUsernames are created first so there is always a known login.
var DemoUsernames = []string{"demo", "alice", "bob"}

// Seed populates the database with demo data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	// Clear existing data to avoid conflicts if requested
	if opts.ShouldClean && !opts.DryRun {
		if err := clearData(db); err != nil {
			return fmt.Errorf("failed to clear data: %w", err)
		}
	}

	f := NewFactory(db, opts)

	var groups []models.Group
	if !opts.DryRun {
		var err error
		if groups, err = Groups(db); err != nil {
			return err
		}
	}
	log.Printf("✓ %d groups available", len(groups))

	users, err := createUsers(f, opts.NumUsers)
	if err != nil {
		return fmt.Errorf("failed to create users: %w", err)
	}
	log.Printf("✓ %d users created", len(users))
	if len(users) == 0 {
		return nil
	}

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		posts = append(posts, f.BuildPost(users[f.rng.Intn(len(users))], groups))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("✓ %d posts created", len(posts))

	follows := 0
	for _, u := range users {
		for _, author := range pick(f, users, opts.FollowsPerUser) {
			if author.ID == u.ID {
				continue
			}
			if err := f.CreateFollow(u, author); err != nil {
				return fmt.Errorf("failed to create follow: %w", err)
			}
			follows++
		}
	}
	log.Printf("✓ %d follows created", follows)

	comments := 0
	for _, p := range posts {
		for _, liker := range pick(f, users, opts.LikesPerPost) {
			if err := f.CreatePostLike(liker, p); err != nil {
				return fmt.Errorf("failed to like post: %w", err)
			}
		}
		for _, author := range pick(f, users, opts.CommentsPerPost) {
			c, err := f.CreateComment(author, p)
			if err != nil {
				return fmt.Errorf("failed to create comment: %w", err)
			}
			comments++
			if f.rng.Intn(2) == 0 {
				if err := f.CreateCommentLike(users[f.rng.Intn(len(users))], c); err != nil {
					return fmt.Errorf("failed to like comment: %w", err)
				}
			}
		}
	}
	log.Printf("✓ %d comments created", comments)

	log.Println("🎉 Database seeding completed successfully!")
	return nil
}

func createUsers(f *Factory, count int) ([]*models.User, error) {
	users := make([]*models.User, 0, count)

	for i := 0; i < count; i++ {
		var overrides []func(*models.User)
		if i < len(DemoUsernames) {
			name := DemoUsernames[i]
			overrides = append(overrides, func(u *models.User) {
				u.Username = name
				u.Email = name + "@example.com"
			})
		} else {
			// Ensure uniqueness roughly
			overrides = append(overrides, func(u *models.User) {
				u.Username = fmt.Sprintf("%s%d", u.Username, i)
				u.Email = u.Username + "@example.com"
			})
		}

		user, err := f.CreateUser(overrides...)
		if err != nil {
			log.Printf("Failed to create user %d: %v", i, err)
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// pick returns up to n distinct users in random order.
func pick(f *Factory, users []*models.User, n int) []*models.User {
	if n <= 0 {
		return nil
	}
	if n > len(users) {
		n = len(users)
	}
	out := make([]*models.User, 0, n)
	for _, idx := range f.rng.Perm(len(users))[:n] {
		out = append(out, users[idx])
	}
	return out
}

func clearData(db *gorm.DB) error {
	log.Println("🗑️  Clearing existing data...")
	// Children first so foreign keys never block a delete.
	tables := []any{
		&models.CommentLike{},
		&models.PostLike{},
		&models.Comment{},
		&models.Follow{},
		&models.Post{},
		&models.Group{},
		&models.User{},
	}
	for _, table := range tables {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(table).Error; err != nil {
			return err
		}
	}
	return nil
}
