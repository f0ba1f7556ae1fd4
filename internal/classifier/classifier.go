// Package classifier decides whether submitted images and text are positive.
package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ImageClassifier judges the image behind a URL.
type ImageClassifier interface {
	IsImagePositive(ctx context.Context, imageURL string) (bool, error)
}

// TextClassifier judges a caption, comment or reason.
type TextClassifier interface {
	IsTextPositive(ctx context.Context, text string) (bool, error)
}

// Kinds label rejections in logs and metrics.
const (
	KindImage = "image"
	KindText  = "text"
)

// Static answers from a fixed list of known-positive inputs. With an empty
// list it accepts everything.
type Static struct {
	positive map[string]struct{}
}

// NewStatic returns a Static that accepts exactly the given inputs.
func NewStatic(positive ...string) *Static {
	s := &Static{positive: make(map[string]struct{}, len(positive))}
	for _, p := range positive {
		s.positive[p] = struct{}{}
	}
	return s
}

func (s *Static) matches(input string) bool {
	if len(s.positive) == 0 {
		return true
	}
	_, ok := s.positive[input]
	return ok
}

func (s *Static) IsImagePositive(_ context.Context, imageURL string) (bool, error) {
	return s.matches(imageURL), nil
}

func (s *Static) IsTextPositive(_ context.Context, text string) (bool, error) {
	return s.matches(text), nil
}

// FailClosed wraps classifiers so that errors, panics and timeouts all read
// as a negative verdict.
type FailClosed struct {
	images  ImageClassifier
	texts   TextClassifier
	timeout time.Duration
}

// NewFailClosed wraps the given classifiers. A zero timeout leaves the
// caller's deadline alone.
func NewFailClosed(images ImageClassifier, texts TextClassifier, timeout time.Duration) *FailClosed {
	return &FailClosed{images: images, texts: texts, timeout: timeout}
}

func (f *FailClosed) IsImagePositive(ctx context.Context, imageURL string) (bool, error) {
	if f.images == nil {
		return false, nil
	}
	return f.guard(ctx, KindImage, func(ctx context.Context) (bool, error) {
		return f.images.IsImagePositive(ctx, imageURL)
	}), nil
}

func (f *FailClosed) IsTextPositive(ctx context.Context, text string) (bool, error) {
	if f.texts == nil {
		return false, nil
	}
	return f.guard(ctx, KindText, func(ctx context.Context) (bool, error) {
		return f.texts.IsTextPositive(ctx, text)
	}), nil
}

func (f *FailClosed) guard(ctx context.Context, kind string, check func(context.Context) (bool, error)) (positive bool) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "classifier panicked",
				slog.String("kind", kind),
				slog.String("panic", fmt.Sprint(r)))
			positive = false
		}
	}()

	ok, err := check(ctx)
	if err != nil {
		slog.WarnContext(ctx, "classifier failed",
			slog.String("kind", kind),
			slog.String("error", err.Error()))
		return false
	}
	return ok
}
