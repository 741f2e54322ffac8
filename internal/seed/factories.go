// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"scribble/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "password123"

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by Seed and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	// synthetic ID counter when running in DryRun mode
	nextID uint
	hash   string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := opts.RandomSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gofakeit.Seed(seed)
	return &Factory{
		db:     db,
		opts:   opts,
		rng:    rand.New(rand.NewSource(seed)), // #nosec G404: acceptable for seeding
		nextID: 1000,
	}
}

func (f *Factory) passwordHash() string {
	if f.hash != "" {
		return f.hash
	}
	// Password handling: allow skipping bcrypt in dev fast mode
	if f.opts.SkipBcrypt {
		f.hash = DemoPassword
		return f.hash
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DemoPassword), bcrypt.DefaultCost)
	if err != nil {
		f.hash = DemoPassword
		return f.hash
	}
	f.hash = string(hashed)
	return f.hash
}

// createdAtSpread returns a timestamp up to MaxDays in the past.
func (f *Factory) createdAtSpread() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rng.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour +
		time.Duration(f.rng.Intn(60))*time.Minute
	return time.Now().Add(-back)
}

// CreateUser constructs and persists a sample models.User.
// Optional override functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	username := usernameFrom(first, last, gofakeit.Number(100, 999))
	user := &models.User{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: first,
		LastName:  last,
		Bio:       gofakeit.Sentence(10),
		Avatar:    fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID()),
		Password:  f.passwordHash(),
	}

	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		f.nextID++
		user.ID = f.nextID
		log.Printf("[dry-run] CreateUser: %s", user.Username)
		return user, nil
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post by user without persisting it. Roughly a third
// of the posts land in one of groups.
func (f *Factory) BuildPost(user *models.User, groups []models.Group, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		Text:      gofakeit.Paragraph(1, f.rng.Intn(4)+1, 12, " "),
		UserID:    user.ID,
		CreatedAt: f.createdAtSpread(),
	}
	if len(groups) > 0 && f.rng.Intn(3) == 0 {
		id := groups[f.rng.Intn(len(groups))].ID
		post.GroupID = &id
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists multiple posts in a single DB call when possible.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			f.nextID++
			p.ID = f.nextID
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	return f.db.Omit("User", "Group").CreateInBatches(posts, 100).Error
}

// CreateComment constructs and persists a sample models.Comment on post.
func (f *Factory) CreateComment(user *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Text:   gofakeit.Sentence(8),
		UserID: user.ID,
		PostID: post.ID,
	}

	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		f.nextID++
		comment.ID = f.nextID
		return comment, nil
	}

	if err := f.db.Omit("User", "Post").Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateFollow makes follower follow author; an existing edge is kept.
func (f *Factory) CreateFollow(follower, author *models.User) error {
	if f.opts.DryRun || follower.ID == author.ID {
		return nil
	}
	follow := &models.Follow{UserID: follower.ID, AuthorID: author.ID}
	return f.db.Omit("User", "Author").Clauses(clause.OnConflict{DoNothing: true}).Create(follow).Error
}

// CreatePostLike adds user to the post's like-set.
func (f *Factory) CreatePostLike(user *models.User, post *models.Post) error {
	if f.opts.DryRun {
		return nil
	}
	like := &models.PostLike{UserID: user.ID, PostID: post.ID}
	return f.db.Omit("User", "Post").Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error
}

// CreateCommentLike adds user to the comment's like-set.
func (f *Factory) CreateCommentLike(user *models.User, comment *models.Comment) error {
	if f.opts.DryRun {
		return nil
	}
	like := &models.CommentLike{UserID: user.ID, CommentID: comment.ID}
	return f.db.Omit("User", "Comment").Clauses(clause.OnConflict{DoNothing: true}).Create(like).Error
}

// usernameFrom keeps the name parts within the username alphabet.
func usernameFrom(first, last string, n int) string {
	clean := func(s string) string {
		return strings.Map(func(r rune) rune {
			switch {
			case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
				return r
			}
			return -1
		}, strings.ToLower(s))
	}
	return fmt.Sprintf("%s_%s%d", clean(first), clean(last), n)
}
