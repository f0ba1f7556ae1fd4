package repository

import (
	"context"
	"time"

	"positiveonly/internal/cache"
	"positiveonly/internal/models"
	"positiveonly/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostQuery selects the posts a viewer may see. Zero fields do not filter.
type PostQuery struct {
	ViewerID        uint
	AuthorID        uint
	ExcludeAuthorID uint
	// FollowedBy restricts to authors followed by this user.
	FollowedBy uint
}

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	// GetByIdentifier returns the post with its like count and author
	// username, hidden or not.
	GetByIdentifier(ctx context.Context, identifier string) (*models.Post, error)
	// ListVisible returns non-hidden posts outside any block relation with
	// q.ViewerID. Order is unspecified; ranking happens in the caller.
	ListVisible(ctx context.Context, q PostQuery) ([]*models.Post, error)
	// DeleteByAuthor removes the post and everything under it when authorID
	// wrote it. It reports whether anything was deleted.
	DeleteByAuthor(ctx context.Context, post *models.Post, authorID uint) (bool, error)
	// Like reports false when the like already existed.
	Like(ctx context.Context, userID uint, post *models.Post) (bool, error)
	// Unlike reports false when there was no like to remove.
	Unlike(ctx context.Context, userID uint, post *models.Post) (bool, error)
}

// postRepository implements PostRepository
type postRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db, log: observability.NewRepoLogger("posts")}
}

// postRecord is the cached form of a post. models.Post hides internal
// fields from JSON, so the cache keeps its own shape.
type postRecord struct {
	ID             uint      `json:"id"`
	Identifier     string    `json:"identifier"`
	AuthorID       uint      `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	ImageURL       string    `json:"image_url"`
	Caption        string    `json:"caption"`
	Hidden         bool      `json:"hidden"`
	LikesCount     int64     `json:"likes_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (p *postRecord) fill(post *models.Post) {
	*p = postRecord{
		ID:             post.ID,
		Identifier:     post.Identifier,
		AuthorID:       post.AuthorID,
		AuthorUsername: post.AuthorUsername,
		ImageURL:       post.ImageURL,
		Caption:        post.Caption,
		Hidden:         post.Hidden,
		LikesCount:     post.LikesCount,
		CreatedAt:      post.CreatedAt,
		UpdatedAt:      post.UpdatedAt,
	}
}

func (p *postRecord) post() *models.Post {
	return &models.Post{
		ID:             p.ID,
		Identifier:     p.Identifier,
		AuthorID:       p.AuthorID,
		AuthorUsername: p.AuthorUsername,
		ImageURL:       p.ImageURL,
		Caption:        p.Caption,
		Hidden:         p.Hidden,
		LikesCount:     p.LikesCount,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// withPostDetails selects like counts and the author username in one query.
func withPostDetails(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Post{}).
		Select("posts.*, users.username AS author_username, " +
			"(SELECT COUNT(*) FROM post_likes WHERE post_likes.post_id = posts.id) AS likes_count").
		Joins("JOIN users ON users.id = posts.author_id")
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(post).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"post_id": post.ID, "author_id": post.AuthorID})
	return nil
}

func (r *postRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.Post, error) {
	var record postRecord
	err := cache.Aside(ctx, cache.PostKey(identifier), &record, cache.PostTTL, func() error {
		var post models.Post
		if err := withPostDetails(readDB(r.db).WithContext(ctx)).
			Where("posts.identifier = ?", identifier).
			Take(&post).Error; err != nil {
			return notFoundOrInternal(err, "Post", identifier)
		}
		record.fill(&post)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return record.post(), nil
}

func (r *postRepository) ListVisible(ctx context.Context, q PostQuery) ([]*models.Post, error) {
	defer observability.TrackQuery("list_visible", "posts")()
	ctx, span := observability.GetTraceLayer().TraceRepositoryMethod(ctx, "ListVisible", "posts")
	defer span.End()

	query := withPostDetails(readDB(r.db).WithContext(ctx)).
		Where("posts.hidden = ?", false)
	query = visibleAuthors(query, "posts.author_id", q.ViewerID)
	if q.AuthorID != 0 {
		query = query.Where("posts.author_id = ?", q.AuthorID)
	}
	if q.ExcludeAuthorID != 0 {
		query = query.Where("posts.author_id <> ?", q.ExcludeAuthorID)
	}
	if q.FollowedBy != 0 {
		query = query.Where("posts.author_id IN (SELECT followee_id FROM follows WHERE follower_id = ?)", q.FollowedBy)
	}

	var posts []*models.Post
	if err := query.Find(&posts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) DeleteByAuthor(ctx context.Context, post *models.Post, authorID uint) (bool, error) {
	if post.AuthorID != authorID {
		return false, nil
	}
	var deleted bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Post{}).Where("id = ? AND author_id = ?", post.ID, authorID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		deleted = true
		return deletePosts(tx, []uint{post.ID})
	})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return false, models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, post.Identifier)
	if deleted {
		r.log.LogDelete(ctx, map[string]any{"post_id": post.ID})
	}
	return deleted, nil
}

func (r *postRepository) Like(ctx context.Context, userID uint, post *models.Post) (bool, error) {
	// ON CONFLICT DO NOTHING lets exactly one concurrent like win
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.PostLike{UserID: userID, PostID: post.ID})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	cache.InvalidatePost(ctx, post.Identifier)
	return true, nil
}

func (r *postRepository) Unlike(ctx context.Context, userID uint, post *models.Post) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, post.ID).
		Delete(&models.PostLike{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	cache.InvalidatePost(ctx, post.Identifier)
	return true, nil
}
