package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueReports = "comedybar:jobs:reports"
	QueueEmail   = "comedybar:jobs:email"

	JobSessionReport = "session_report"
	JobEmail         = "email"

	// MaxJobAttempts is how many times a job runs before it is parked.
	MaxJobAttempts = 3

	// queueRetryDelay is the pause after a failed BRPOP (Redis unreachable).
	queueRetryDelay = time.Second
)

// Job is the generic envelope for all async tasks.
type Job struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts"`
}

// Processor handles one job type. A returned error schedules a retry
// unless it is marked with Permanent.
type Processor interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// queueClient is the slice of *redis.Client the queue needs.
type queueClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying; the job is parked at once.
func Permanent(err error) error { return &permanentError{err: err} }

// Dispatcher enqueues async jobs into Redis lists.
type Dispatcher struct {
	rdb queueClient
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// SessionReportPayload identifies the session whose closing report to build.
type SessionReportPayload struct {
	SessionID string `json:"session_id"`
}

// EnqueueSessionReport schedules the closing report of a bar session.
func (d *Dispatcher) EnqueueSessionReport(ctx context.Context, sessionID uuid.UUID) error {
	return d.enqueue(ctx, QueueReports, JobSessionReport, SessionReportPayload{SessionID: sessionID.String()})
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return pushJob(ctx, d.rdb, queue, Job{ID: uuid.NewString(), Type: jobType, Payload: data})
}

func pushJob(ctx context.Context, rdb queueClient, queue string, job Job) error {
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return rdb.LPush(ctx, queue, encoded).Err()
}

// Pool consumes the job queues with a fixed number of goroutines.
type Pool struct {
	rdb        queueClient
	processors map[string]Processor
	queues     []string
	retryDelay time.Duration
}

func NewPool(rdb *redis.Client) *Pool {
	return newPool(rdb)
}

func newPool(rdb queueClient) *Pool {
	return &Pool{
		rdb:        rdb,
		processors: make(map[string]Processor),
		queues:     []string{QueueReports, QueueEmail},
		retryDelay: queueRetryDelay,
	}
}

// Register binds a processor to a job type.
func (p *Pool) Register(jobType string, proc Processor) {
	p.processors[jobType] = proc
}

// Run blocks until ctx is cancelled and every worker has returned.
// Each worker blocks on BRPOP, so idle workers cost nothing.
func (p *Pool) Run(ctx context.Context, numWorkers int) error {
	if numWorkers < 1 {
		numWorkers = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.runWorker(ctx, id)
		}(i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
	wg.Wait()
	return nil
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// waits up to 5s then loops to check ctx
			result, err := p.rdb.BRPop(ctx, 5*time.Second, p.queues...).Result()
			if err != nil && !errors.Is(err, redis.Nil) && ctx.Err() == nil {
				log.Warn().Err(err).Int("worker", id).Msg("queue unavailable, backing off")
				select {
				case <-ctx.Done():
				case <-time.After(p.retryDelay):
				}
				continue
			}
			if err != nil || len(result) < 2 {
				continue
			}
			p.processJob(ctx, result[0], result[1])
		}
	}
}

func (p *Pool) processJob(ctx context.Context, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		p.bury(ctx, queue, Job{Type: "unknown", Payload: json.RawMessage(`null`)}, "malformed job: "+err.Error())
		return
	}

	proc, ok := p.processors[job.Type]
	if !ok {
		p.bury(ctx, queue, job, "no processor registered")
		return
	}

	job.Attempts++
	err := proc.Process(ctx, job.Payload)
	if err == nil {
		log.Info().Str("job_id", job.ID).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job processed")
		return
	}

	var perm *permanentError
	if errors.As(err, &perm) || job.Attempts >= MaxJobAttempts {
		p.bury(ctx, queue, job, err.Error())
		return
	}

	log.Warn().Err(err).Str("job_id", job.ID).Str("type", job.Type).Int("attempt", job.Attempts).Msg("job failed, requeued")
	if err := pushJob(ctx, p.rdb, queue, job); err != nil {
		log.Error().Err(err).Str("type", job.Type).Msg("requeue failed")
	}
}
