// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"positiveonly/internal/models"
	"positiveonly/internal/security"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "Sunshine#2024"

var nonWord = regexp.MustCompile(`\W+`)

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by Seed and tests.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
	hash string
	// synthetic ID counter when running in DryRun mode
	nextID uint
}

// NewFactory creates a new Factory bound to the provided Gorm DB. Every
// account it creates shares one password hash.
func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	// #nosec G404: acceptable for seeding
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	gofakeit.Seed(rng.Int63())

	hash, err := security.NewHasher(opts.BcryptCost).Hash(opts.password())
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	return &Factory{db: db, opts: opts, rng: rng, hash: hash, nextID: 1000}, nil
}

func (f *Factory) create(value any, describe string) error {
	if f.opts.DryRun {
		slog.Debug("dry-run create", slog.String("entity", describe))
		return nil
	}
	return f.db.Omit(clause.Associations).Create(value).Error
}

func (f *Factory) syntheticID() uint {
	f.nextID++
	return f.nextID
}

// Username returns a random name of word characters, long enough for the
// username pattern.
func (f *Factory) Username() string {
	base := strings.ToLower(nonWord.ReplaceAllString(gofakeit.FirstName()+"_"+gofakeit.LastName(), ""))
	return fmt.Sprintf("%s_%04d", base, f.rng.Intn(10000))
}

// CreateUser constructs and persists a sample user. Optional overrides may
// modify it before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	username := f.Username()
	user := &models.User{
		Identifier:         security.NewIdentifier(),
		Username:           username,
		Email:              username + "@" + gofakeit.DomainName(),
		PasswordHash:       f.hash,
		ResetCode:          models.NoResetCode,
		IdentityIsVerified: gofakeit.Bool(),
		IsAdult:            true,
	}
	for _, override := range overrides {
		override(user)
	}

	if f.opts.DryRun {
		user.ID = f.syntheticID()
	}
	if err := f.create(user, "user"); err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost returns an unsaved post by author with a created_at spread over
// the last MaxDays.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 30
	}
	age := time.Duration(f.rng.Intn(maxDays*24*60)) * time.Minute

	post := &models.Post{
		Identifier: security.NewIdentifier(),
		AuthorID:   author.ID,
		ImageURL:   fmt.Sprintf("https://picsum.photos/seed/%s/800/800.jpg", gofakeit.UUID()),
		Caption:    gofakeit.Sentence(8),
		CreatedAt:  time.Now().UTC().Add(-age),
	}
	post.UpdatedAt = post.CreatedAt
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
			p.ID = f.syntheticID()
		}
		return nil
	}
	return f.db.Omit(clause.Associations).CreateInBatches(&posts, 100).Error
}

// CreateThread starts a comment thread on post with a first comment by
// author.
func (f *Factory) CreateThread(post *models.Post, author *models.User) (*models.CommentThread, *models.Comment, error) {
	thread := &models.CommentThread{
		Identifier: security.NewIdentifier(),
		PostID:     post.ID,
		CreatedAt:  post.CreatedAt.Add(time.Duration(f.rng.Intn(120)+1) * time.Minute),
	}
	if f.opts.DryRun {
		thread.ID = f.syntheticID()
	}
	if err := f.create(thread, "comment_thread"); err != nil {
		return nil, nil, err
	}
	comment, err := f.CreateComment(thread, author)
	if err != nil {
		return nil, nil, err
	}
	return thread, comment, nil
}

// CreateComment appends a comment by author to thread.
func (f *Factory) CreateComment(thread *models.CommentThread, author *models.User) (*models.Comment, error) {
	comment := &models.Comment{
		Identifier: security.NewIdentifier(),
		ThreadID:   thread.ID,
		AuthorID:   author.ID,
		Body:       gofakeit.Sentence(12),
		CreatedAt:  thread.CreatedAt.Add(time.Duration(f.rng.Intn(60)) * time.Minute),
	}
	if f.opts.DryRun {
		comment.ID = f.syntheticID()
	}
	if err := f.create(comment, "comment"); err != nil {
		return nil, err
	}
	return comment, nil
}

// LikePost records a like by user on post.
func (f *Factory) LikePost(user *models.User, post *models.Post) error {
	return f.create(&models.PostLike{UserID: user.ID, PostID: post.ID}, "post_like")
}

// LikeComment records a like by user on comment.
func (f *Factory) LikeComment(user *models.User, comment *models.Comment) error {
	return f.create(&models.CommentLike{UserID: user.ID, CommentID: comment.ID}, "comment_like")
}

// Follow makes follower follow followee.
func (f *Factory) Follow(follower, followee *models.User) error {
	return f.create(&models.Follow{FollowerID: follower.ID, FolloweeID: followee.ID}, "follow")
}
