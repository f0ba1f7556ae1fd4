package seed

import (
	"fmt"
	"log/slog"

	"positiveonly/internal/database"
	"positiveonly/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers       int
	NumPosts       int
	ThreadsPerPost int
	FollowsPerUser int
	MaxLikes       int
	MaxDays        int
	BcryptCost     int
	Password       string
	ShouldClean    bool
	DryRun         bool
}

func (o Options) password() string {
	if o.Password == "" {
		return DefaultPassword
	}
	return o.Password
}

// Summary counts what Seed created.
type Summary struct {
	Users    int
	Posts    int
	Threads  int
	Comments int
	Likes    int
	Follows  int
}

// Seed populates the database with users, posts, comment threads, likes and
// follows. Every account shares Options.Password.
func Seed(db *gorm.DB, opts Options) (*Summary, error) {
	slog.Info("starting database seeding",
		slog.Int("users", opts.NumUsers),
		slog.Int("posts", opts.NumPosts),
		slog.Bool("dry_run", opts.DryRun))

	if opts.ShouldClean && !opts.DryRun {
		if err := clearData(db); err != nil {
			return nil, fmt.Errorf("clear existing data: %w", err)
		}
	}

	f, err := NewFactory(db, opts)
	if err != nil {
		return nil, err
	}
	summary := &Summary{}

	users, err := f.seedUsers(opts.NumUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to create users: %w", err)
	}
	summary.Users = len(users)
	if len(users) == 0 {
		return summary, nil
	}

	follows, err := f.seedFollows(users, opts.FollowsPerUser)
	if err != nil {
		return nil, fmt.Errorf("failed to create follows: %w", err)
	}
	summary.Follows = follows

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		posts = append(posts, f.BuildPost(users[f.rng.Intn(len(users))]))
	}
	if err := f.CreatePostsBatch(posts); err != nil {
		return nil, fmt.Errorf("failed to create posts: %w", err)
	}
	summary.Posts = len(posts)

	for _, post := range posts {
		if err := f.seedEngagement(post, users, summary); err != nil {
			return nil, fmt.Errorf("failed to create engagement: %w", err)
		}
	}

	slog.Info("database seeding completed",
		slog.Int("users", summary.Users),
		slog.Int("posts", summary.Posts),
		slog.Int("threads", summary.Threads),
		slog.Int("comments", summary.Comments),
		slog.Int("likes", summary.Likes),
		slog.Int("follows", summary.Follows))
	return summary, nil
}

func (f *Factory) seedUsers(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	taken := make(map[string]bool, n)
	for len(users) < n {
		user, err := f.CreateUser(func(u *models.User) {
			for taken[u.Username] {
				u.Username = f.Username()
				u.Email = u.Username + "@example.com"
			}
		})
		if err != nil {
			return nil, err
		}
		taken[user.Username] = true
		users = append(users, user)
	}
	return users, nil
}

func (f *Factory) seedFollows(users []*models.User, perUser int) (int, error) {
	count := 0
	for i, follower := range users {
		followed := 0
		for _, j := range f.rng.Perm(len(users)) {
			if followed >= perUser {
				break
			}
			if j == i {
				continue
			}
			if err := f.Follow(follower, users[j]); err != nil {
				return count, err
			}
			followed++
			count++
		}
	}
	return count, nil
}

// seedEngagement adds likes and comment threads from users other than the
// post author.
func (f *Factory) seedEngagement(post *models.Post, users []*models.User, summary *Summary) error {
	others := make([]*models.User, 0, len(users))
	for _, u := range users {
		if u.ID != post.AuthorID {
			others = append(others, u)
		}
	}
	if len(others) == 0 {
		return nil
	}

	likes := 0
	if f.opts.MaxLikes > 0 {
		likes = f.rng.Intn(min(f.opts.MaxLikes, len(others)) + 1)
	}
	for _, idx := range f.rng.Perm(len(others))[:likes] {
		if err := f.LikePost(others[idx], post); err != nil {
			return err
		}
		summary.Likes++
	}

	for t := 0; t < f.opts.ThreadsPerPost; t++ {
		starter := others[f.rng.Intn(len(others))]
		thread, first, err := f.CreateThread(post, starter)
		if err != nil {
			return err
		}
		summary.Threads++
		summary.Comments++

		if f.rng.Intn(2) == 0 {
			replier := users[f.rng.Intn(len(users))]
			if _, err := f.CreateComment(thread, replier); err != nil {
				return err
			}
			summary.Comments++
		}
		if f.rng.Intn(3) == 0 && others[0].ID != starter.ID {
			if err := f.LikeComment(others[0], first); err != nil {
				return err
			}
			summary.Likes++
		}
	}
	return nil
}

// clearData deletes every row, children first.
func clearData(db *gorm.DB) error {
	slog.Info("clearing existing data")
	all := database.PersistentModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(all[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
