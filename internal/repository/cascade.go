package repository

import (
	"positiveonly/internal/models"

	"gorm.io/gorm"
)

// Hard deletes run leaf first so foreign keys hold at every step.

func revokeUserCredentials(tx *gorm.DB, userID uint) error {
	if err := tx.Where("user_id = ?", userID).Delete(&models.Session{}).Error; err != nil {
		return err
	}
	return tx.Where("user_id = ?", userID).Delete(&models.LoginCookie{}).Error
}

func deleteComments(tx *gorm.DB, commentIDs []uint) error {
	if len(commentIDs) == 0 {
		return nil
	}
	if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.CommentLike{}).Error; err != nil {
		return err
	}
	if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.CommentReport{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", commentIDs).Delete(&models.Comment{}).Error
}

func deletePosts(tx *gorm.DB, postIDs []uint) error {
	if len(postIDs) == 0 {
		return nil
	}
	var threadIDs []uint
	if err := tx.Model(&models.CommentThread{}).Where("post_id IN ?", postIDs).Pluck("id", &threadIDs).Error; err != nil {
		return err
	}
	if len(threadIDs) > 0 {
		var commentIDs []uint
		if err := tx.Model(&models.Comment{}).Where("thread_id IN ?", threadIDs).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if err := deleteComments(tx, commentIDs); err != nil {
			return err
		}
		if err := tx.Where("id IN ?", threadIDs).Delete(&models.CommentThread{}).Error; err != nil {
			return err
		}
	}
	if err := tx.Where("post_id IN ?", postIDs).Delete(&models.PostLike{}).Error; err != nil {
		return err
	}
	if err := tx.Where("post_id IN ?", postIDs).Delete(&models.PostReport{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", postIDs).Delete(&models.Post{}).Error
}

// deleteUserCascade removes userID and everything that references it. It
// returns the identifiers of posts whose cached details are now stale.
func deleteUserCascade(tx *gorm.DB, userID uint) ([]string, error) {
	if err := revokeUserCredentials(tx, userID); err != nil {
		return nil, err
	}

	var stale []string
	if err := tx.Model(&models.Post{}).
		Where("id IN (SELECT post_id FROM post_likes WHERE user_id = ?) OR author_id = ?", userID, userID).
		Pluck("identifier", &stale).Error; err != nil {
		return nil, err
	}

	steps := []struct {
		query string
		model interface{}
	}{
		{"user_id = ?", &models.PostLike{}},
		{"user_id = ?", &models.CommentLike{}},
		{"reporter_id = ?", &models.PostReport{}},
		{"reporter_id = ?", &models.CommentReport{}},
	}
	for _, step := range steps {
		if err := tx.Where(step.query, userID).Delete(step.model).Error; err != nil {
			return nil, err
		}
	}
	if err := tx.Where("follower_id = ? OR followee_id = ?", userID, userID).Delete(&models.Follow{}).Error; err != nil {
		return nil, err
	}
	if err := tx.Where("blocker_id = ? OR blocked_id = ?", userID, userID).Delete(&models.Block{}).Error; err != nil {
		return nil, err
	}

	var commentIDs []uint
	if err := tx.Model(&models.Comment{}).Where("author_id = ?", userID).Pluck("id", &commentIDs).Error; err != nil {
		return nil, err
	}
	if err := deleteComments(tx, commentIDs); err != nil {
		return nil, err
	}

	var postIDs []uint
	if err := tx.Model(&models.Post{}).Where("author_id = ?", userID).Pluck("id", &postIDs).Error; err != nil {
		return nil, err
	}
	if err := deletePosts(tx, postIDs); err != nil {
		return nil, err
	}

	if err := tx.Delete(&models.User{}, userID).Error; err != nil {
		return nil, err
	}
	return stale, nil
}
