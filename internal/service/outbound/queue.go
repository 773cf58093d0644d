package outbound

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"regula-notificador/internal/domain"
	"regula-notificador/internal/service/transport"
)

const (
	keyJobPrefix = "outbound:job:"
	keyWaiting   = "outbound:waiting"
	keyActive    = "outbound:active"
	keyDelayed   = "outbound:delayed"
	keyFailed    = "outbound:failed"
)

const defaultFailedPageSize = 50

// FailureNotifier is told about jobs that exhausted their attempt budget.
// Best-effort; the queue logs and moves on if it fails.
type FailureNotifier interface {
	NotifyJobFailed(ctx context.Context, job *domain.OutboundJob)
}

// ProviderResolver maps a job's provider key to a transport. Satisfied by
// *transport.Registry.
type ProviderResolver interface {
	Get(name string) transport.Provider
}

type Config struct {
	Workers     int
	MaxAttempts int
	BackoffBase time.Duration
}

// Queue is the durable outbound message queue. Jobs live in Redis: a JSON
// blob per job plus waiting/active/failed lists and a delayed zset, so a job
// is always in exactly one state and never lost. Completed jobs are deleted
// immediately; failed jobs are retained until an operator retries or clears
// them.
type Queue struct {
	rdb      *redis.Client
	registry ProviderResolver
	cfg      Config
	log      zerolog.Logger
	notifier FailureNotifier

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewQueue(rdb *redis.Client, registry ProviderResolver, cfg Config, log zerolog.Logger) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 5 * time.Second
	}
	return &Queue{
		rdb:      rdb,
		registry: registry,
		cfg:      cfg,
		log:      log.With().Str("component", "outbound_queue").Logger(),
	}
}

// SetFailureNotifier must be called before Start.
func (q *Queue) SetFailureNotifier(n FailureNotifier) {
	q.notifier = n
}

// Enqueue persists the job and places it on the waiting list. It returns
// immediately; callers wanting delivery state must poll via JobState.
func (q *Queue) Enqueue(ctx context.Context, job *domain.OutboundJob) (string, error) {
	job.ID = uuid.NewString()
	job.Attempts = 0
	job.MaxAttempts = q.cfg.MaxAttempts
	job.State = domain.JobWaiting
	job.CreatedAt = time.Now()

	if err := q.saveJob(ctx, job); err != nil {
		return "", fmt.Errorf("failed to persist job: %w", err)
	}
	if err := q.rdb.LPush(ctx, keyWaiting, job.ID).Err(); err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}

	q.log.Debug().Str("job", job.ID).Str("tenant", job.TenantID.String()).Msg("job enqueued")
	return job.ID, nil
}

// JobState returns the stored job, or domain.ErrNotFound when it no longer
// exists (completed jobs are deleted on success).
func (q *Queue) JobState(ctx context.Context, jobID string) (*domain.OutboundJob, error) {
	return q.loadJob(ctx, jobID)
}

// Counts aggregates the number of jobs per state.
func (q *Queue) Counts(ctx context.Context) (map[string]int64, error) {
	pipe := q.rdb.Pipeline()
	waiting := pipe.LLen(ctx, keyWaiting)
	active := pipe.LLen(ctx, keyActive)
	delayed := pipe.ZCard(ctx, keyDelayed)
	failed := pipe.LLen(ctx, keyFailed)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	return map[string]int64{
		string(domain.JobWaiting): waiting.Val(),
		string(domain.JobActive):  active.Val(),
		string(domain.JobDelayed): delayed.Val(),
		string(domain.JobFailed):  failed.Val(),
	}, nil
}

// FailedJobs lists retained failed jobs, newest first. limit <= 0 uses the
// default page size of 50.
func (q *Queue) FailedJobs(ctx context.Context, limit int) ([]domain.OutboundJob, error) {
	if limit <= 0 {
		limit = defaultFailedPageSize
	}

	ids, err := q.rdb.LRange(ctx, keyFailed, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	jobs := make([]domain.OutboundJob, 0, len(ids))
	for _, id := range ids {
		job, err := q.loadJob(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, nil
}

// RetryJob moves one failed job back onto the waiting list with a fresh
// attempt budget. Returns domain.ErrNotFound when the id is not failed.
func (q *Queue) RetryJob(ctx context.Context, jobID string) error {
	removed, err := q.rdb.LRem(ctx, keyFailed, 1, jobID).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return domain.ErrNotFound
	}

	job, err := q.loadJob(ctx, jobID)
	if err != nil {
		return err
	}

	job.Attempts = 0
	job.State = domain.JobWaiting
	job.FailureReason = ""
	if err := q.saveJob(ctx, job); err != nil {
		return err
	}

	return q.rdb.LPush(ctx, keyWaiting, jobID).Err()
}

// ClearFailed discards every retained failed job, returning how many.
func (q *Queue) ClearFailed(ctx context.Context) (int64, error) {
	ids, err := q.rdb.LRange(ctx, keyFailed, 0, -1).Result()
	if err != nil {
		return 0, err
	}

	for _, id := range ids {
		if err := q.rdb.Del(ctx, keyJobPrefix+id).Err(); err != nil {
			return 0, err
		}
	}
	if err := q.rdb.Del(ctx, keyFailed).Err(); err != nil {
		return 0, err
	}
	return int64(len(ids)), nil
}

func (q *Queue) saveJob(ctx context.Context, job *domain.OutboundJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.rdb.Set(ctx, keyJobPrefix+job.ID, data, 0).Err()
}

func (q *Queue) loadJob(ctx context.Context, jobID string) (*domain.OutboundJob, error) {
	data, err := q.rdb.Get(ctx, keyJobPrefix+jobID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}

	var job domain.OutboundJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, err
	}
	return &job, nil
}
