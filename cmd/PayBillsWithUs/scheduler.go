package main

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sebuszqo/PayBillsWithUs/internal/auth"
	"go.uber.org/zap"
)

const housekeepingTimeout = time.Minute

type resetTokenPurger interface {
	PurgeExpiredResetTokens(ctx context.Context) (int64, error)
}

// StartScheduler runs hourly housekeeping: expired or used reset tokens are deleted
// and idle rate limiter entries are dropped.
func StartScheduler(tokens resetTokenPurger, limiter *auth.RateLimiter, logger *zap.Logger) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc("@every 1h", func() {
		ctx, cancel := context.WithTimeout(context.Background(), housekeepingTimeout)
		defer cancel()

		purged, err := tokens.PurgeExpiredResetTokens(ctx)
		if err != nil {
			logger.Error("error purging password reset tokens", zap.Error(err))
		} else {
			logger.Info("password reset tokens purged", zap.Int64("count", purged))
		}

		if removed := limiter.Cleanup(); removed > 0 {
			logger.Debug("idle rate limiter entries removed", zap.Int("count", removed))
		}
	})
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
