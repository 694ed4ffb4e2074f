package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	UserKeyPrefix      = "user:%d"
	DonationKeyPrefix  = "donation:%d"
	DashboardKeyPrefix = "dashboard:user:%d"
)

const (
	UserTTL     = 5 * time.Minute
	DonationTTL = 1 * time.Minute
)

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func DonationKey(donationID uint) string {
	return fmt.Sprintf(DonationKeyPrefix, donationID)
}

func DashboardKey(userID uint) string {
	return fmt.Sprintf(DashboardKeyPrefix, userID)
}

func Invalidate(ctx context.Context, keys ...string) {
	if client != nil && len(keys) > 0 {
		client.Del(ctx, keys...)
	}
}
