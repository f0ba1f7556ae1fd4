package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	PostKeyPrefix = "post:%s"
)

const (
	PostTTL = 30 * time.Minute
)

// PostKey is the cache key of a post's details by its public identifier.
func PostKey(identifier string) string {
	return fmt.Sprintf(PostKeyPrefix, identifier)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidatePost(ctx context.Context, identifier string) {
	Invalidate(ctx, PostKey(identifier))
}
