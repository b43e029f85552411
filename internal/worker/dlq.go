package worker

// Jobs that will not run again are parked on "<queue>:dead". Each entry keeps
// the job id and, for bar jobs, the session it belongs to, so the health
// endpoint can tell which sessions never got their closing report out.

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const deadSuffix = ":dead"

// DeadQueue is the list holding the parked jobs of queue.
func DeadQueue(queue string) string { return queue + deadSuffix }

// DeadJob is a parked job.
type DeadJob struct {
	JobID     string          `json:"job_id"`
	Type      string          `json:"type"`
	SessionID string          `json:"session_id,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	Error     string          `json:"error"`
	Attempts  int             `json:"attempts"`
	FailedAt  time.Time       `json:"failed_at"`
}

// DeadJobStats summarises one dead queue.
type DeadJobStats struct {
	Count int64 `json:"count"`
	// Sessions lists the bar sessions of the newest parked jobs, newest first.
	Sessions []string `json:"sessions,omitempty"`
}

type deadReader interface {
	LLen(ctx context.Context, key string) *redis.IntCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// bury parks job on the dead queue of queue.
func (p *Pool) bury(ctx context.Context, queue string, job Job, cause string) {
	dead := DeadJob{
		JobID:     job.ID,
		Type:      job.Type,
		SessionID: sessionOf(job.Payload),
		Payload:   job.Payload,
		Error:     cause,
		Attempts:  job.Attempts,
		FailedAt:  time.Now().UTC(),
	}
	data, err := json.Marshal(dead)
	if err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Msg("failed to encode dead job")
		return
	}
	if err := p.rdb.LPush(ctx, DeadQueue(queue), data).Err(); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Str("queue", queue).Msg("failed to park job")
		return
	}
	log.Warn().
		Str("job_id", job.ID).
		Str("type", job.Type).
		Str("session_id", dead.SessionID).
		Int("attempts", job.Attempts).
		Str("error", cause).
		Msg("job parked")
}

func sessionOf(payload json.RawMessage) string {
	var ref struct {
		SessionID string `json:"session_id"`
	}
	if len(payload) == 0 || json.Unmarshal(payload, &ref) != nil {
		return ""
	}
	return ref.SessionID
}

// InspectDeadJobs counts the parked jobs of queue and lists the distinct
// sessions among the newest limit entries.
func InspectDeadJobs(ctx context.Context, rdb deadReader, queue string, limit int64) (DeadJobStats, error) {
	key := DeadQueue(queue)
	n, err := rdb.LLen(ctx, key).Result()
	if err != nil {
		return DeadJobStats{}, err
	}
	stats := DeadJobStats{Count: n}
	if n == 0 || limit <= 0 {
		return stats, nil
	}
	raws, err := rdb.LRange(ctx, key, 0, limit-1).Result()
	if err != nil {
		return DeadJobStats{}, err
	}
	seen := make(map[string]bool)
	for _, raw := range raws {
		var dead DeadJob
		if json.Unmarshal([]byte(raw), &dead) != nil || dead.SessionID == "" || seen[dead.SessionID] {
			continue
		}
		seen[dead.SessionID] = true
		stats.Sessions = append(stats.Sessions, dead.SessionID)
	}
	return stats, nil
}
