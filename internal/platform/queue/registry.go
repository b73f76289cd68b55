package queue

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/hassonapp/chatter/internal/api"
)

// Fixed queue names: one queue per durable-write concern.
const (
	AuthQueue  = "auth"  // identity persistence
	UserQueue  = "user"  // profile persistence
	EmailQueue = "email" // outbound notification email
)

// Job type names, shared between producers and workers.
const (
	JobAddAuthUser = "addAuthUserToDB"
	JobAddUser     = "addUserToDB"
	JobSendEmail   = "sendEmail"
)

// QueueStats is the operator-facing snapshot of one queue. Archived jobs
// are the ones that exhausted their retries and need inspection.
type QueueStats struct {
	Queue     string `json:"queue"`
	Size      int    `json:"size"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Retry     int    `json:"retry"`
	Archived  int    `json:"archived"`
	Completed int    `json:"completed"`
	Processed int    `json:"processed"`
	Failed    int    `json:"failed"`
}

// Stats inspects every known queue. This is the administrative surface that
// replaces a queue dashboard: enough to see backlog and dead jobs.
func (r *Registry) Stats(ctx context.Context) ([]QueueStats, error) {
	inspector := asynq.NewInspector(r.redisOpt)
	defer inspector.Close()

	names, err := inspector.Queues()
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to list queues", slog.Any("error", err))
		return nil, api.ServerError()
	}

	stats := make([]QueueStats, 0, len(names))
	for _, name := range names {
		info, err := inspector.GetQueueInfo(name)
		if err != nil {
			r.logger.ErrorContext(ctx, "Failed to inspect queue",
				slog.String("queue", name), slog.Any("error", err))
			return nil, api.ServerError()
		}
		stats = append(stats, QueueStats{
			Queue:     name,
			Size:      info.Size,
			Pending:   info.Pending,
			Active:    info.Active,
			Retry:     info.Retry,
			Archived:  info.Archived,
			Completed: info.Completed,
			Processed: info.Processed,
			Failed:    info.Failed,
		})
	}
	return stats, nil
}

// SkipRetry marks a handler error as permanent. The job skips its remaining
// retries and is archived immediately.
var SkipRetry = asynq.SkipRetry
