package repository

import (
	"context"

	"positiveonly/internal/models"
	"positiveonly/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines the interface for comment thread and comment operations
type CommentRepository interface {
	// CreateThread inserts a thread together with its first comment.
	CreateThread(ctx context.Context, thread *models.CommentThread, first *models.Comment) error
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetThread(ctx context.Context, postID uint, identifier string) (*models.CommentThread, error)
	// GetThreadByIdentifier loads a thread with its post.
	GetThreadByIdentifier(ctx context.Context, identifier string) (*models.CommentThread, error)
	GetComment(ctx context.Context, threadID uint, identifier string) (*models.Comment, error)
	// ListVisibleThreads returns the threads of postID that hold at least one
	// comment visible to viewerID. LikesCount sums likes over those comments.
	ListVisibleThreads(ctx context.Context, postID, viewerID uint) ([]*models.CommentThread, error)
	ListVisibleComments(ctx context.Context, threadID, viewerID uint) ([]*models.Comment, error)
	Delete(ctx context.Context, comment *models.Comment) error
	Like(ctx context.Context, userID, commentID uint) (bool, error)
	Unlike(ctx context.Context, userID, commentID uint) (bool, error)
}

type commentRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db, log: observability.NewRepoLogger("comments")}
}

func withCommentDetails(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Comment{}).
		Select("comments.*, users.username AS author_username, " +
			"(SELECT COUNT(*) FROM comment_likes WHERE comment_likes.comment_id = comments.id) AS likes_count").
		Joins("JOIN users ON users.id = comments.author_id")
}

func (r *commentRepository) CreateThread(ctx context.Context, thread *models.CommentThread, first *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(thread).Error; err != nil {
			return err
		}
		first.ThreadID = thread.ID
		return tx.Omit(clause.Associations).Create(first).Error
	})
	if err != nil {
		r.log.LogError(ctx, err, "create_thread")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"thread_id": thread.ID, "comment_id": first.ID})
	return nil
}

func (r *commentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error; err != nil {
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]any{"thread_id": comment.ThreadID, "comment_id": comment.ID})
	return nil
}

func (r *commentRepository) GetThread(ctx context.Context, postID uint, identifier string) (*models.CommentThread, error) {
	var thread models.CommentThread
	if err := readDB(r.db).WithContext(ctx).
		Where("post_id = ? AND identifier = ?", postID, identifier).
		Take(&thread).Error; err != nil {
		return nil, notFoundOrInternal(err, "CommentThread", identifier)
	}
	return &thread, nil
}

func (r *commentRepository) GetThreadByIdentifier(ctx context.Context, identifier string) (*models.CommentThread, error) {
	var thread models.CommentThread
	if err := readDB(r.db).WithContext(ctx).
		Preload("Post").
		Where("identifier = ?", identifier).
		Take(&thread).Error; err != nil {
		return nil, notFoundOrInternal(err, "CommentThread", identifier)
	}
	return &thread, nil
}

func (r *commentRepository) GetComment(ctx context.Context, threadID uint, identifier string) (*models.Comment, error) {
	var comment models.Comment
	if err := withCommentDetails(readDB(r.db).WithContext(ctx)).
		Where("comments.thread_id = ? AND comments.identifier = ?", threadID, identifier).
		Take(&comment).Error; err != nil {
		return nil, notFoundOrInternal(err, "Comment", identifier)
	}
	return &comment, nil
}

func (r *commentRepository) ListVisibleThreads(ctx context.Context, postID, viewerID uint) ([]*models.CommentThread, error) {
	defer observability.TrackQuery("list_visible", "comment_threads")()

	query := readDB(r.db).WithContext(ctx).
		Model(&models.CommentThread{}).
		Select("comment_threads.*, COUNT(comment_likes.id) AS likes_count").
		Joins("JOIN comments ON comments.thread_id = comment_threads.id").
		Joins("LEFT JOIN comment_likes ON comment_likes.comment_id = comments.id").
		Where("comment_threads.post_id = ? AND comments.hidden = ?", postID, false)
	query = visibleAuthors(query, "comments.author_id", viewerID)

	var threads []*models.CommentThread
	if err := query.Group("comment_threads.id").Find(&threads).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return threads, nil
}

func (r *commentRepository) ListVisibleComments(ctx context.Context, threadID, viewerID uint) ([]*models.Comment, error) {
	defer observability.TrackQuery("list_visible", "comments")()

	query := withCommentDetails(readDB(r.db).WithContext(ctx)).
		Where("comments.thread_id = ? AND comments.hidden = ?", threadID, false)
	query = visibleAuthors(query, "comments.author_id", viewerID)

	var comments []*models.Comment
	if err := query.Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *commentRepository) Delete(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteComments(tx, []uint{comment.ID})
	})
	if err != nil {
		r.log.LogError(ctx, err, "delete")
		return models.NewInternalError(err)
	}
	r.log.LogDelete(ctx, map[string]any{"comment_id": comment.ID})
	return nil
}

func (r *commentRepository) Like(ctx context.Context, userID, commentID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CommentLike{UserID: userID, CommentID: commentID})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *commentRepository) Unlike(ctx context.Context, userID, commentID uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND comment_id = ?", userID, commentID).
		Delete(&models.CommentLike{})
	if result.Error != nil {
		return false, models.NewInternalError(result.Error)
	}
	return result.RowsAffected > 0, nil
}
