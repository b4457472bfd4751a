// workers/scheduler.go
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

// RevocationPurger drops revocation records for sessions that expired on their own.
type RevocationPurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// StartScheduler runs the stream live check and the revocation cleanup until ctx is done.
// The caller owns the returned scheduler and should Shutdown it.
func StartScheduler(ctx context.Context, stream *StreamStatusWorker, purger RevocationPurger, log logrus.FieldLogger) (gocron.Scheduler, error) {
	log = log.WithField("component", "scheduler")

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	// Every stream.interval: refresh Kick live status
	if _, err := sched.NewJob(
		gocron.DurationJob(stream.interval),
		gocron.NewTask(func() {
			checkCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
			defer cancel()
			_ = stream.Check(checkCtx)
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, fmt.Errorf("schedule stream check: %w", err)
	}

	// Hourly: purge expired session revocations
	if _, err := sched.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(func() {
			n, err := purger.PurgeExpired(ctx)
			if err != nil {
				log.WithError(err).Error("[Scheduler] revocation purge failed")
				return
			}
			if n > 0 {
				log.Infof("🧹 [Scheduler] purged %d expired session revocations", n)
			}
		}),
	); err != nil {
		return nil, fmt.Errorf("schedule revocation purge: %w", err)
	}

	sched.Start()
	log.Infof("⏱️ [Scheduler] started (stream check every %s)", stream.interval)
	return sched, nil
}
