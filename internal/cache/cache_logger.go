package cache

import (
	"context"
	"fmt"
	"log/slog"
)

// SafeInvalidatePattern safely invalidates cache pattern with logging
func SafeInvalidatePattern(ctx context.Context, helper *CacheHelper, pattern string) {
	if err := helper.InvalidatePattern(ctx, pattern); err != nil {
		slog.ErrorContext(ctx, "Failed to invalidate cache pattern",
			"error", err,
			"pattern", pattern)
	}
}

// SafeDelete safely deletes cache keys with logging
func SafeDelete(ctx context.Context, helper *CacheHelper, keys ...string) {
	if err := helper.Delete(ctx, keys...); err != nil {
		slog.ErrorContext(ctx, "Failed to delete cache keys",
			"error", err,
			"keys", keys)
	}
}

// InvalidateSessionCache invalidates all caches tied to one delivery session
func InvalidateSessionCache(ctx context.Context, cm *CacheManager, sessionID string) {
	SafeDelete(ctx, cm.Session, sessionID)
	SafeDelete(ctx, cm.Exists, fmt.Sprintf("session:%s", sessionID))
	SafeInvalidatePattern(ctx, cm.Fast, fmt.Sprintf("session:%s:*", sessionID))
}
