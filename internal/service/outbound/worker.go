package outbound

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"regula-notificador/internal/domain"
)

const claimPollInterval = 250 * time.Millisecond

// Start launches the worker pool and the delayed-job promoter. Stop drains
// them. Jobs already claimed keep running until their send call returns; they
// are not pre-empted.
func (q *Queue) Start(ctx context.Context) {
	if q.stopCh != nil {
		return
	}
	q.stopCh = make(chan struct{})
	q.doneCh = make(chan struct{})

	q.recoverClaimed(ctx)

	var wg sync.WaitGroup
	for i := 0; i < q.cfg.Workers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			q.workerLoop(ctx, idx)
		}(i)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		q.promoterLoop(ctx)
	}()

	go func() {
		wg.Wait()
		close(q.doneCh)
	}()

	q.log.Info().Int("workers", q.cfg.Workers).Msg("outbound queue started")
}

func (q *Queue) Stop() {
	if q.stopCh == nil {
		return
	}
	close(q.stopCh)
	<-q.doneCh
	q.stopCh = nil
	q.log.Info().Msg("outbound queue stopped")
}

// recoverClaimed drains jobs left on the active list by a previous run that
// died mid-send, putting them back on waiting. Runs before the workers start,
// so nothing is claiming concurrently.
func (q *Queue) recoverClaimed(ctx context.Context) {
	for {
		jobID, err := q.rdb.LMove(ctx, keyActive, keyWaiting, "RIGHT", "LEFT").Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) {
				q.log.Error().Err(err).Msg("failed to recover claimed jobs")
			}
			return
		}

		if job, err := q.loadJob(ctx, jobID); err == nil {
			job.State = domain.JobWaiting
			if err := q.saveJob(ctx, job); err != nil {
				q.log.Error().Err(err).Str("job", jobID).Msg("failed to reset recovered job")
			}
		}
		q.log.Warn().Str("job", jobID).Msg("requeued job claimed by a previous run")
	}
}

func (q *Queue) workerLoop(ctx context.Context, idx int) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stopCh:
			return
		default:
		}

		jobID, err := q.rdb.LMove(ctx, keyWaiting, keyActive, "RIGHT", "LEFT").Result()
		if err != nil {
			if !errors.Is(err, redis.Nil) && !errors.Is(err, context.Canceled) {
				q.log.Error().Err(err).Int("worker", idx).Msg("failed to claim job")
			}
			select {
			case <-ctx.Done():
				return
			case <-q.stopCh:
				return
			case <-time.After(claimPollInterval):
			}
			continue
		}

		q.process(ctx, jobID)
	}
}

func (q *Queue) process(ctx context.Context, jobID string) {
	defer q.rdb.LRem(ctx, keyActive, 1, jobID)

	job, err := q.loadJob(ctx, jobID)
	if err != nil {
		q.log.Error().Err(err).Str("job", jobID).Msg("claimed job has no payload")
		return
	}

	now := time.Now()
	job.Attempts++
	job.State = domain.JobActive
	job.LastTriedAt = &now
	if err := q.saveJob(ctx, job); err != nil {
		q.log.Error().Err(err).Str("job", jobID).Msg("failed to mark job active")
	}

	provider := q.registry.Get(job.Provider)
	_, sendErr := provider.SendMessage(ctx, job.Phone, job.Message, job.InstanceName, job.Credential)
	if sendErr == nil {
		// Completed jobs are not retained.
		if err := q.rdb.Del(ctx, keyJobPrefix+job.ID).Err(); err != nil {
			q.log.Error().Err(err).Str("job", job.ID).Msg("failed to remove completed job")
		}
		q.log.Info().Str("job", job.ID).Int("attempts", job.Attempts).Msg("message sent")
		return
	}

	job.FailureReason = sendErr.Error()

	if job.Attempts < job.MaxAttempts {
		delay := q.backoff(job.Attempts)
		job.State = domain.JobDelayed
		if err := q.saveJob(ctx, job); err != nil {
			q.log.Error().Err(err).Str("job", job.ID).Msg("failed to persist delayed job")
			return
		}
		score := float64(time.Now().Add(delay).UnixMilli())
		if err := q.rdb.ZAdd(ctx, keyDelayed, redis.Z{Score: score, Member: job.ID}).Err(); err != nil {
			q.log.Error().Err(err).Str("job", job.ID).Msg("failed to schedule retry")
			return
		}
		q.log.Warn().Err(sendErr).Str("job", job.ID).Int("attempt", job.Attempts).
			Dur("delay", delay).Msg("send failed, retry scheduled")
		return
	}

	job.State = domain.JobFailed
	if err := q.saveJob(ctx, job); err != nil {
		q.log.Error().Err(err).Str("job", job.ID).Msg("failed to persist failed job")
		return
	}
	if err := q.rdb.LPush(ctx, keyFailed, job.ID).Err(); err != nil {
		q.log.Error().Err(err).Str("job", job.ID).Msg("failed to park job as failed")
		return
	}
	q.log.Error().Err(sendErr).Str("job", job.ID).Int("attempts", job.Attempts).
		Msg("job exhausted attempts")

	if q.notifier != nil {
		q.notifier.NotifyJobFailed(ctx, job)
	}
}

// backoff grows exponentially from the base: 5s, 10s, 20s with defaults.
func (q *Queue) backoff(attempt int) time.Duration {
	d := q.cfg.BackoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

func (q *Queue) promoterLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stopCh:
			return
		case <-ticker.C:
			q.promoteDue(ctx)
		}
	}
}

// promoteDue moves delayed jobs whose retry time has passed back to waiting.
func (q *Queue) promoteDue(ctx context.Context) {
	now := strconv.FormatInt(time.Now().UnixMilli(), 10)
	ids, err := q.rdb.ZRangeByScore(ctx, keyDelayed, &redis.ZRangeBy{Min: "-inf", Max: now}).Result()
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			q.log.Error().Err(err).Msg("failed to read delayed jobs")
		}
		return
	}

	for _, id := range ids {
		removed, err := q.rdb.ZRem(ctx, keyDelayed, id).Result()
		if err != nil || removed == 0 {
			continue
		}
		job, err := q.loadJob(ctx, id)
		if err == nil {
			job.State = domain.JobWaiting
			_ = q.saveJob(ctx, job)
		}
		if err := q.rdb.LPush(ctx, keyWaiting, id).Err(); err != nil {
			q.log.Error().Err(err).Str("job", id).Msg("failed to promote delayed job")
		}
	}
}
