package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix   = "user:%d"
	LayoutKeyPrefix = "board:%d:layout"
)

const (
	UserTTL   = 5 * time.Minute
	LayoutTTL = 30 * time.Second
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func LayoutKey(boardID uint) string {
	return fmt.Sprintf(LayoutKeyPrefix, boardID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// InvalidateLayout drops the cached layout for a board. Every position shift,
// task write or column write must call this.
func InvalidateLayout(ctx context.Context, boardID uint) {
	Invalidate(ctx, LayoutKey(boardID))
}
