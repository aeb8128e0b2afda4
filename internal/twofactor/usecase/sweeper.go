package usecase

import (
	"context"
	"log/slog"
	"time"
)

// StartSessionSweeper periodically deletes expired sessions. Expiry is
// enforced at verification time regardless; the sweeper only keeps the
// table from accumulating dead rows. It stops when ctx is cancelled.
func (s *Usecase) StartSessionSweeper(ctx context.Context) {
	interval := s.cfg.GetMinute("modules.twofactor.session_sweep_interval_minutes")
	if interval <= 0 {
		interval = time.Hour
	}

	s.goroutine.Go(ctx, func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				s.sweepSessions(ctx)
			}
		}
	})
}

func (s *Usecase) sweepSessions(ctx context.Context) {
	ctx, span := s.startSpan(ctx, "SweepSessions")
	defer span.End()

	deleted, err := s.repoDB.DeleteExpiredSessions(ctx, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo delete expired sessions", "error", err)
		return
	}

	if deleted > 0 {
		slog.InfoContext(ctx, "swept expired sessions", "deleted", deleted)
	}
}
