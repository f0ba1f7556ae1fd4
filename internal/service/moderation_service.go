package service

import (
	"context"
	"log/slog"

	"positiveonly/internal/models"
	"positiveonly/internal/notifications"
	"positiveonly/internal/observability"
	"positiveonly/internal/repository"
	"positiveonly/internal/validation"
)

// Reports tolerated before content is hidden. The next report hides it.
const (
	MaxReportsBeforeHidingPost    = 10
	MaxReportsBeforeHidingComment = 5
)

// ModerationService records user reports and hides content past the threshold.
type ModerationService struct {
	auth          Authenticator
	posts         repository.PostRepository
	comments      repository.CommentRepository
	relationships repository.RelationshipRepository
	reports       repository.ReportRepository
	notifier      notifications.Publisher
}

// NewModerationService returns a new ModerationService.
func NewModerationService(
	auth Authenticator,
	posts repository.PostRepository,
	comments repository.CommentRepository,
	relationships repository.RelationshipRepository,
	reports repository.ReportRepository,
	notifier notifications.Publisher,
) *ModerationService {
	return &ModerationService{
		auth:          auth,
		posts:         posts,
		comments:      comments,
		relationships: relationships,
		reports:       reports,
		notifier:      notifier,
	}
}

// ReportPost files a report against someone else's post.
func (s *ModerationService) ReportPost(ctx context.Context, sessionToken, postIdentifier, reason string) error {
	fields := (&validation.Fields{}).
		Check(validation.FieldPostIdentifier, postIdentifier, validation.UUID4).
		Check(validation.FieldReason, reason, validation.FreeText)
	reporter, err := authenticate(ctx, s.auth, sessionToken, fields)
	if err != nil {
		return err
	}
	post, err := visiblePost(ctx, s.posts, s.relationships, reporter.ID, postIdentifier)
	if err != nil {
		return err
	}
	if post.AuthorID == reporter.ID {
		return models.NewConflictError("cannot report your own post")
	}

	outcome, err := s.reports.ReportPost(ctx, reporter.ID, post, reason, MaxReportsBeforeHidingPost)
	if err != nil {
		return err
	}
	s.recordOutcome(ctx, models.ReportTargetPost, post.Identifier, outcome)
	return nil
}

// ReportComment files a report against someone else's comment.
func (s *ModerationService) ReportComment(ctx context.Context, sessionToken string, path CommentPath, reason string) error {
	fields := path.check(&validation.Fields{}).Check(validation.FieldReason, reason, validation.FreeText)
	reporter, err := authenticate(ctx, s.auth, sessionToken, fields)
	if err != nil {
		return err
	}
	post, err := s.posts.GetByIdentifier(ctx, path.PostIdentifier)
	if err != nil {
		return err
	}
	if err := checkVisible(ctx, s.relationships, reporter.ID, post); err != nil {
		return err
	}
	thread, err := s.comments.GetThread(ctx, post.ID, path.ThreadIdentifier)
	if err != nil {
		return err
	}
	comment, err := s.comments.GetComment(ctx, thread.ID, path.CommentIdentifier)
	if err != nil {
		return err
	}
	if comment.Hidden {
		return models.NewNotFoundError("Comment", path.CommentIdentifier)
	}
	if comment.AuthorID == reporter.ID {
		return models.NewConflictError("cannot report your own comment")
	}

	outcome, err := s.reports.ReportComment(ctx, reporter.ID, comment, reason, MaxReportsBeforeHidingComment)
	if err != nil {
		return err
	}
	s.recordOutcome(ctx, models.ReportTargetComment, comment.Identifier, outcome)
	return nil
}

func (s *ModerationService) recordOutcome(ctx context.Context, target, identifier string, outcome *repository.ReportOutcome) {
	observability.ModerationReports.WithLabelValues(target).Inc()
	if !outcome.Hidden {
		return
	}
	observability.ContentHidden.WithLabelValues(target).Inc()
	slog.InfoContext(ctx, "content hidden by reports",
		slog.String("target", target),
		slog.String("identifier", identifier),
		slog.Int64("reports", outcome.Count))

	publishAsync(ctx, s.notifier, "notify.content_hidden", func(ctx context.Context, p notifications.Publisher) error {
		return p.PublishModeration(ctx, notifications.ModerationEvent{
			TargetType:  target,
			Target:      identifier,
			ReportCount: outcome.Count,
		})
	})
}
