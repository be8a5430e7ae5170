package cache

import (
	"context"
	"time"

	"photoshare/internal/models"
)

const (
	UserKeyPrefix = "user:"
)

const (
	UserTTL = 5 * time.Minute
)

func UserKey(userID models.ID) string {
	return UserKeyPrefix + userID.Canonical()
}

func InvalidateUser(ctx context.Context, userID models.ID) {
	Invalidate(ctx, UserKey(userID))
}
