package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memQueue is an in-process stand-in for the Redis lists.
type memQueue struct {
	mu    sync.Mutex
	lists map[string][]string
}

func newMemQueue() *memQueue { return &memQueue{lists: make(map[string][]string)} }

func (q *memQueue) LPush(_ context.Context, key string, values ...interface{}) *redis.IntCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, v := range values {
		var s string
		switch x := v.(type) {
		case []byte:
			s = string(x)
		case string:
			s = x
		}
		q.lists[key] = append([]string{s}, q.lists[key]...)
	}
	return redis.NewIntResult(int64(len(q.lists[key])), nil)
}

func (q *memQueue) BRPop(ctx context.Context, _ time.Duration, keys ...string) *redis.StringSliceCmd {
	q.mu.Lock()
	for _, k := range keys {
		if l := q.lists[k]; len(l) > 0 {
			v := l[len(l)-1]
			q.lists[k] = l[:len(l)-1]
			q.mu.Unlock()
			return redis.NewStringSliceResult([]string{k, v}, nil)
		}
	}
	q.mu.Unlock()
	select {
	case <-ctx.Done():
	case <-time.After(5 * time.Millisecond):
	}
	return redis.NewStringSliceResult(nil, redis.Nil)
}

func (q *memQueue) len(key string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.lists[key])
}

func (q *memQueue) LLen(_ context.Context, key string) *redis.IntCmd {
	return redis.NewIntResult(int64(q.len(key)), nil)
}

func (q *memQueue) LRange(_ context.Context, key string, start, stop int64) *redis.StringSliceCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	l := q.lists[key]
	if stop < 0 || stop >= int64(len(l)) {
		stop = int64(len(l)) - 1
	}
	if start > stop {
		return redis.NewStringSliceResult([]string{}, nil)
	}
	return redis.NewStringSliceResult(append([]string(nil), l[start:stop+1]...), nil)
}

func (q *memQueue) dead(t *testing.T, queue string) []DeadJob {
	t.Helper()
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []DeadJob
	for _, raw := range q.lists[DeadQueue(queue)] {
		var e DeadJob
		require.NoError(t, json.Unmarshal([]byte(raw), &e))
		out = append(out, e)
	}
	return out
}

func (q *memQueue) pop(t *testing.T, queue string) Job {
	t.Helper()
	res, err := q.BRPop(context.Background(), 0, queue).Result()
	require.NoError(t, err)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(res[1]), &job))
	return job
}

type procFunc func(ctx context.Context, payload json.RawMessage) error

func (f procFunc) Process(ctx context.Context, payload json.RawMessage) error { return f(ctx, payload) }

func TestDispatcher_EnqueueSessionReport(t *testing.T) {
	q := newMemQueue()
	d := &Dispatcher{rdb: q}
	id := uuid.New()

	require.NoError(t, d.EnqueueSessionReport(context.Background(), id))

	job := q.pop(t, QueueReports)
	assert.Equal(t, JobSessionReport, job.Type)
	assert.Zero(t, job.Attempts)
	_, err := uuid.Parse(job.ID)
	assert.NoError(t, err)
	var p SessionReportPayload
	require.NoError(t, json.Unmarshal(job.Payload, &p))
	assert.Equal(t, id.String(), p.SessionID)
}

func TestProcessJob_RetriesThenDeadLetters(t *testing.T) {
	q := newMemQueue()
	p := newPool(q)
	calls := 0
	p.Register(JobEmail, procFunc(func(context.Context, json.RawMessage) error {
		calls++
		return errors.New("smtp timeout")
	}))
	require.NoError(t, (&Dispatcher{rdb: q}).EnqueueEmail(context.Background(), EmailJobPayload{ToEmail: "a@b.c"}))

	for attempt := 1; attempt <= MaxJobAttempts; attempt++ {
		res, err := q.BRPop(context.Background(), 0, QueueEmail).Result()
		require.NoError(t, err, "attempt %d", attempt)
		p.processJob(context.Background(), res[0], res[1])
	}

	assert.Equal(t, MaxJobAttempts, calls)
	assert.Zero(t, q.len(QueueEmail))
	entries := q.dead(t, QueueEmail)
	require.Len(t, entries, 1)
	assert.Equal(t, MaxJobAttempts, entries[0].Attempts)
	assert.Equal(t, "smtp timeout", entries[0].Error)
	assert.Equal(t, JobEmail, entries[0].Type)
	assert.NotEmpty(t, entries[0].JobID)
}

func TestProcessJob_RequeueCarriesAttempts(t *testing.T) {
	q := newMemQueue()
	p := newPool(q)
	p.Register(JobEmail, procFunc(func(context.Context, json.RawMessage) error { return errors.New("busy") }))

	raw, _ := json.Marshal(Job{ID: "job-7", Type: JobEmail, Payload: json.RawMessage(`{}`)})
	p.processJob(context.Background(), QueueEmail, string(raw))

	job := q.pop(t, QueueEmail)
	assert.Equal(t, 1, job.Attempts)
	assert.Equal(t, "job-7", job.ID)
	assert.Empty(t, q.dead(t, QueueEmail))
}

func TestProcessJob_PermanentSkipsRetry(t *testing.T) {
	q := newMemQueue()
	p := newPool(q)
	p.Register(JobSessionReport, procFunc(func(context.Context, json.RawMessage) error {
		return Permanent(errors.New("sessão não encontrada"))
	}))

	raw, _ := json.Marshal(Job{Type: JobSessionReport, Payload: json.RawMessage(`{}`)})
	p.processJob(context.Background(), QueueReports, string(raw))

	assert.Zero(t, q.len(QueueReports))
	entries := q.dead(t, QueueReports)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Attempts)
}

func TestProcessJob_UnprocessableJobs(t *testing.T) {
	q := newMemQueue()
	p := newPool(q)

	p.processJob(context.Background(), QueueReports, "{not json")
	raw, _ := json.Marshal(Job{Type: "reindex", Payload: json.RawMessage(`{}`)})
	p.processJob(context.Background(), QueueReports, string(raw))

	entries := q.dead(t, QueueReports)
	require.Len(t, entries, 2)
	reasons := []string{entries[0].Error, entries[1].Error}
	assert.Contains(t, reasons, "no processor registered")
}

func TestPool_RunProcessesAndStops(t *testing.T) {
	q := newMemQueue()
	p := newPool(q)
	done := make(chan string, 1)
	p.Register(JobSessionReport, procFunc(func(_ context.Context, payload json.RawMessage) error {
		var sp SessionReportPayload
		_ = json.Unmarshal(payload, &sp)
		done <- sp.SessionID
		return nil
	}))

	id := uuid.New()
	require.NoError(t, (&Dispatcher{rdb: q}).EnqueueSessionReport(context.Background(), id))

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		_ = p.Run(ctx, 2)
		close(stopped)
	}()

	select {
	case got := <-done:
		assert.Equal(t, id.String(), got)
	case <-time.After(2 * time.Second):
		t.Fatal("job was not processed")
	}

	cancel()
	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop")
	}
}

func TestProcessJob_ParkedReportKeepsSession(t *testing.T) {
	q := newMemQueue()
	p := newPool(q)
	p.Register(JobSessionReport, procFunc(func(context.Context, json.RawMessage) error {
		return Permanent(errors.New("sessão não encontrada"))
	}))
	first, second := uuid.New(), uuid.New()
	d := &Dispatcher{rdb: q}
	for _, id := range []uuid.UUID{first, second, first} {
		require.NoError(t, d.EnqueueSessionReport(context.Background(), id))
		res, err := q.BRPop(context.Background(), 0, QueueReports).Result()
		require.NoError(t, err)
		p.processJob(context.Background(), res[0], res[1])
	}

	entries := q.dead(t, QueueReports)
	require.Len(t, entries, 3)
	assert.Equal(t, first.String(), entries[0].SessionID)

	stats, err := InspectDeadJobs(context.Background(), q, QueueReports, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Count)
	assert.Equal(t, []string{first.String(), second.String()}, stats.Sessions)

	empty, err := InspectDeadJobs(context.Background(), q, QueueEmail, 10)
	require.NoError(t, err)
	assert.Zero(t, empty.Count)
	assert.Empty(t, empty.Sessions)
}

// downQueue fails every BRPOP the way go-redis does when Redis is unreachable.
type downQueue struct {
	*memQueue
	pops atomic.Int32
}

func (q *downQueue) BRPop(context.Context, time.Duration, ...string) *redis.StringSliceCmd {
	q.pops.Add(1)
	return redis.NewStringSliceResult(nil, errors.New("dial tcp 127.0.0.1:6379: connect: connection refused"))
}

func TestPool_BacksOffWhileRedisIsDown(t *testing.T) {
	q := &downQueue{memQueue: newMemQueue()}
	p := newPool(q)
	p.retryDelay = 40 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	require.NoError(t, p.Run(ctx, 1))

	assert.LessOrEqual(t, q.pops.Load(), int32(5))
	assert.GreaterOrEqual(t, q.pops.Load(), int32(2))
}
