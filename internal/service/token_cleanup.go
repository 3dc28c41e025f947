package service

import (
	"context"
	"log/slog"
	"time"
)

type ExpiredTokenCleaner interface {
	CleanExpired(ctx context.Context) (int64, error)
}

// RunTokenCleanup deletes expired revocation records on every tick until ctx
// is cancelled.
func RunTokenCleanup(ctx context.Context, cleaner ExpiredTokenCleaner, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := cleaner.CleanExpired(ctx)
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("failed to clean expired tokens", "error", err)
				}
				continue
			}
			if removed > 0 {
				slog.Info("expired revoked tokens removed", "count", removed)
			}
		}
	}
}
