// Package worker binds the durable-write and notification handlers to the
// job queues. Every handler is idempotent: at-least-once delivery means a
// crash between handler completion and acknowledgment replays the job.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hassonapp/chatter/internal/api"
	"github.com/hassonapp/chatter/internal/api/auth"
	"github.com/hassonapp/chatter/internal/api/user"
	"github.com/hassonapp/chatter/internal/platform/email"
	"github.com/hassonapp/chatter/internal/platform/queue"
)

// jobConcurrency bounds in-flight jobs per job type. Durable writes share
// the postgres pool with the request path, so the bound keeps bursts of
// signups from starving interactive queries.
const jobConcurrency = 5

// RegisterAll wires every worker onto its queue. Must run before the
// registry starts.
func RegisterAll(reg *queue.Registry, authRepo auth.AuthRepo, users user.Repo, mailer *email.Mailer, logger *slog.Logger) {
	reg.Queue(queue.AuthQueue).RegisterHandler(queue.JobAddAuthUser, jobConcurrency,
		addAuthUserHandler(authRepo, logger))
	reg.Queue(queue.UserQueue).RegisterHandler(queue.JobAddUser, jobConcurrency,
		addUserHandler(users, logger))
	reg.Queue(queue.EmailQueue).RegisterHandler(queue.JobSendEmail, jobConcurrency,
		sendEmailHandler(mailer))
}

func addAuthUserHandler(repo auth.AuthRepo, logger *slog.Logger) queue.HandlerFunc {
	return func(ctx context.Context, payload []byte) error {
		var rec api.AuthRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			// Retrying a payload that does not parse cannot succeed.
			return fmt.Errorf("unmarshal auth record: %v: %w", err, queue.SkipRetry)
		}
		if err := repo.UpsertAuthRecord(ctx, &rec); err != nil {
			return err
		}
		logger.InfoContext(ctx, "Credential persisted", slog.String("auth_id", rec.ID.String()))
		return nil
	}
}

func addUserHandler(repo user.Repo, logger *slog.Logger) queue.HandlerFunc {
	return func(ctx context.Context, payload []byte) error {
		var doc api.UserDocument
		if err := json.Unmarshal(payload, &doc); err != nil {
			return fmt.Errorf("unmarshal user document: %v: %w", err, queue.SkipRetry)
		}
		if err := repo.UpsertUser(ctx, &doc); err != nil {
			return err
		}
		logger.InfoContext(ctx, "Profile persisted", slog.String("user_id", doc.ID.String()))
		return nil
	}
}

func sendEmailHandler(mailer *email.Mailer) queue.HandlerFunc {
	return func(ctx context.Context, payload []byte) error {
		var msg email.Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			return fmt.Errorf("unmarshal email message: %v: %w", err, queue.SkipRetry)
		}
		return mailer.Send(ctx, msg)
	}
}
