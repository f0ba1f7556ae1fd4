package repository

import (
	"context"
	"errors"

	"positiveonly/internal/cache"
	"positiveonly/internal/models"
	"positiveonly/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReportOutcome is the result of one accepted report.
type ReportOutcome struct {
	// Count is the number of reports against the target after this one.
	Count int64
	// Hidden is true when this report flipped the target to hidden.
	Hidden bool
}

// ReportRepository records reports and hides content past a threshold.
type ReportRepository interface {
	// ReportPost inserts a report, counts reports on the post and hides it
	// when the count exceeds maxBeforeHiding, all in one transaction. A
	// repeat report by the same reporter is a CONFLICT.
	ReportPost(ctx context.Context, reporterID uint, post *models.Post, reason string, maxBeforeHiding int64) (*ReportOutcome, error)
	ReportComment(ctx context.Context, reporterID uint, comment *models.Comment, reason string, maxBeforeHiding int64) (*ReportOutcome, error)
}

type reportRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db, log: observability.NewRepoLogger("reports")}
}

var errDuplicateReport = models.NewConflictError("content already reported by this user")

// recordReport runs insert, count and hide on one target table.
func (r *reportRepository) recordReport(ctx context.Context, report interface{}, reportModel interface{}, targetColumn string, targetModel interface{}, targetID uint, maxBeforeHiding int64) (*ReportOutcome, error) {
	var outcome ReportOutcome
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(report)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errDuplicateReport
		}

		if err := tx.Model(reportModel).Where(targetColumn+" = ?", targetID).Count(&outcome.Count).Error; err != nil {
			return err
		}
		if outcome.Count <= maxBeforeHiding {
			return nil
		}

		// Hidden is one-way; only the first report past the threshold flips it.
		hide := tx.Model(targetModel).
			Where("id = ? AND hidden = ?", targetID, false).
			Update("hidden", true)
		if hide.Error != nil {
			return hide.Error
		}
		outcome.Hidden = hide.RowsAffected == 1
		return nil
	})
	if err != nil {
		if errors.Is(err, errDuplicateReport) {
			return nil, err
		}
		if isUniqueConstraintError(err) {
			return nil, errDuplicateReport
		}
		r.log.LogError(ctx, err, "report")
		return nil, models.NewInternalError(err)
	}
	return &outcome, nil
}

func (r *reportRepository) ReportPost(ctx context.Context, reporterID uint, post *models.Post, reason string, maxBeforeHiding int64) (*ReportOutcome, error) {
	report := &models.PostReport{ReporterID: reporterID, PostID: post.ID, Reason: reason}
	outcome, err := r.recordReport(ctx, report, &models.PostReport{}, "post_id", &models.Post{}, post.ID, maxBeforeHiding)
	if err != nil {
		return nil, err
	}
	if outcome.Hidden {
		cache.InvalidatePost(ctx, post.Identifier)
		r.log.LogUpdate(ctx, map[string]any{"post_id": post.ID, "hidden": true, "reports": outcome.Count})
	}
	return outcome, nil
}

func (r *reportRepository) ReportComment(ctx context.Context, reporterID uint, comment *models.Comment, reason string, maxBeforeHiding int64) (*ReportOutcome, error) {
	report := &models.CommentReport{ReporterID: reporterID, CommentID: comment.ID, Reason: reason}
	outcome, err := r.recordReport(ctx, report, &models.CommentReport{}, "comment_id", &models.Comment{}, comment.ID, maxBeforeHiding)
	if err != nil {
		return nil, err
	}
	if outcome.Hidden {
		r.log.LogUpdate(ctx, map[string]any{"comment_id": comment.ID, "hidden": true, "reports": outcome.Count})
	}
	return outcome, nil
}
