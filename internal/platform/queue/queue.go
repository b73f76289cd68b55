package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/semaphore"

	"github.com/hassonapp/chatter/config"
	"github.com/hassonapp/chatter/internal/api"
)

// HandlerFunc processes one job payload. A job may be redelivered after a
// crash between dequeue and acknowledgment, so handlers must be idempotent.
type HandlerFunc func(ctx context.Context, payload []byte) error

// Registry owns the shared asynq client/server pair and the fixed set of
// named queues. Handler wiring happens once at process start; Start freezes
// the registration surface for the process lifetime.
type Registry struct {
	logger   *slog.Logger
	cfg      config.QueueConfig
	redisOpt asynq.RedisClientOpt

	mu      sync.Mutex
	client  *asynq.Client
	mux     *asynq.ServeMux
	server  *asynq.Server
	weights map[string]int
	queues  map[string]*JobQueue
	started bool
}

func NewRegistry(rcfg config.RedisConfig, qcfg config.QueueConfig, logger *slog.Logger) *Registry {
	return &Registry{
		logger: logger,
		cfg:    qcfg,
		redisOpt: asynq.RedisClientOpt{
			Addr:     rcfg.Addr(),
			Password: rcfg.Password,
			DB:       rcfg.DB,
		},
		client:  asynq.NewClient(asynq.RedisClientOpt{Addr: rcfg.Addr(), Password: rcfg.Password, DB: rcfg.DB}),
		mux:     asynq.NewServeMux(),
		weights: make(map[string]int),
		queues:  make(map[string]*JobQueue),
	}
}

// Queue returns the named queue, creating it on first use.
func (r *Registry) Queue(name string) *JobQueue {
	r.mu.Lock()
	defer r.mu.Unlock()
	if q, ok := r.queues[name]; ok {
		return q
	}
	q := &JobQueue{name: name, reg: r}
	r.queues[name] = q
	r.weights[name] = 1
	return q
}

// Start launches the consumer side: one worker pool serving every
// registered queue. Retries use asynq's exponential backoff; jobs that
// exhaust the retry ceiling are archived for operator inspection, never
// silently dropped.
func (r *Registry) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return fmt.Errorf("queue registry already started")
	}
	r.started = true

	r.server = asynq.NewServer(r.redisOpt, asynq.Config{
		Concurrency: r.cfg.Concurrency,
		Queues:      r.weights,
		Logger:      &asynqLogger{logger: r.logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			jobsFailed.WithLabelValues(task.Type()).Inc()
			r.logger.ErrorContext(ctx, "Job handler failed",
				slog.String("job_type", task.Type()),
				slog.Any("error", err),
			)
		}),
	})
	return r.server.Start(r.mux)
}

// Shutdown stops the consumer side. In-flight handlers get to finish;
// anything dequeued but unacknowledged is redelivered on the next start.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	server := r.server
	r.mu.Unlock()
	if server != nil {
		server.Shutdown()
	}
	if err := r.client.Close(); err != nil {
		r.logger.Warn("Error closing queue client", slog.Any("error", err))
	}
}

// JobQueue is one named, durable, at-least-once work queue.
type JobQueue struct {
	name string
	reg  *Registry
}

func (q *JobQueue) Name() string { return q.name }

// RegisterHandler binds a handler to a job-type name with a maximum number
// of simultaneously in-flight jobs of that type. The bound is per job type,
// independent of other types sharing the queue or the server-wide pool.
// Registration after Start is a programming error.
func (q *JobQueue) RegisterHandler(jobType string, concurrency int, fn HandlerFunc) {
	q.reg.mu.Lock()
	defer q.reg.mu.Unlock()
	if q.reg.started {
		panic(fmt.Sprintf("queue %s: handler registered for %q after registry start", q.name, jobType))
	}
	q.reg.mux.Handle(q.taskType(jobType), BoundHandler(concurrency, fn))
}

// Enqueue durably records the job and returns without waiting for the
// handler: fire-and-forget from the caller's perspective. A transport
// failure is logged in full and surfaced as the generic server error.
func (q *JobQueue) Enqueue(ctx context.Context, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("queue %s: marshal %s payload: %w", q.name, jobType, err)
	}
	task := asynq.NewTask(q.taskType(jobType), data)
	info, err := q.reg.client.EnqueueContext(ctx, task,
		asynq.Queue(q.name),
		asynq.MaxRetry(q.reg.cfg.MaxRetry),
		asynq.Retention(q.reg.cfg.Retention),
	)
	if err != nil {
		q.reg.logger.ErrorContext(ctx, "Failed to enqueue job",
			slog.String("queue", q.name),
			slog.String("job_type", jobType),
			slog.Any("error", err),
		)
		return api.ServerError()
	}
	q.reg.logger.DebugContext(ctx, "Job enqueued",
		slog.String("queue", q.name),
		slog.String("job_type", jobType),
		slog.String("job_id", info.ID),
	)
	return nil
}

func (q *JobQueue) taskType(jobType string) string {
	return q.name + ":" + jobType
}

// BoundHandler wraps a HandlerFunc with a weighted semaphore so at most
// concurrency invocations of this job type run at once. Jobs over the limit
// wait in the durable queue instead of running, which is the only
// backpressure mechanism bounding downstream write concurrency.
func BoundHandler(concurrency int, fn HandlerFunc) asynq.Handler {
	sem := semaphore.NewWeighted(int64(concurrency))
	return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
		if err := sem.Acquire(ctx, 1); err != nil {
			return err
		}
		defer sem.Release(1)
		if err := fn(ctx, t.Payload()); err != nil {
			return err
		}
		jobsProcessed.WithLabelValues(t.Type()).Inc()
		return nil
	})
}

// asynqLogger adapts slog to asynq's logger interface.
type asynqLogger struct {
	logger *slog.Logger
}

func (l *asynqLogger) Debug(args ...interface{}) { l.logger.Debug(fmt.Sprint(args...)) }
func (l *asynqLogger) Info(args ...interface{})  { l.logger.Info(fmt.Sprint(args...)) }
func (l *asynqLogger) Warn(args ...interface{})  { l.logger.Warn(fmt.Sprint(args...)) }
func (l *asynqLogger) Error(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }
func (l *asynqLogger) Fatal(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }
