package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hassonapp/chatter/internal/api"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// AuthRepo defines the contract for credential persistence. Lookups back
// the uniqueness and signin checks; UpsertAuthRecord is the idempotent
// write the persistence worker replays on redelivery.
type AuthRepo interface {
	GetUserByUsernameOrEmail(ctx context.Context, username, email string) (*api.AuthRecord, error)
	GetUserByUsername(ctx context.Context, username string) (*api.AuthRecord, error)
	GetUserByEmail(ctx context.Context, email string) (*api.AuthRecord, error)
	UpsertAuthRecord(ctx context.Context, rec *api.AuthRecord) error
	SetPasswordResetToken(ctx context.Context, authID uuid.UUID, token string, expires time.Time) error
	GetUserByPasswordResetToken(ctx context.Context, token string) (*api.AuthRecord, error)
	UpdatePassword(ctx context.Context, authID uuid.UUID, passwordHash string) error
}

type PostgresAuthRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresAuthRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const authRecordColumns = "id, u_id, username, email, password_hash, avatar_color, created_at"

func (r *PostgresAuthRepo) scanAuthRecord(row pgx.Row) (*api.AuthRecord, error) {
	var rec api.AuthRecord
	err := row.Scan(&rec.ID, &rec.UID, &rec.Username, &rec.Email, &rec.PasswordHash, &rec.AvatarColor, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// GetUserByUsernameOrEmail backs the signup uniqueness check. It always
// queries the durable store: the cache may hold profiles whose durable
// write has not completed yet.
func (r *PostgresAuthRepo) GetUserByUsernameOrEmail(ctx context.Context, username, email string) (*api.AuthRecord, error) {
	rec, err := r.scanAuthRecord(r.pgpool.QueryRow(ctx,
		"SELECT "+authRecordColumns+" FROM user_auth WHERE username = $1 OR email = $2",
		username, email))
	if err != nil && !errors.Is(err, api.ErrNotFound) {
		return nil, r.serverError(ctx, "get user by username or email", err)
	}
	return rec, err
}

func (r *PostgresAuthRepo) GetUserByUsername(ctx context.Context, username string) (*api.AuthRecord, error) {
	rec, err := r.scanAuthRecord(r.pgpool.QueryRow(ctx,
		"SELECT "+authRecordColumns+" FROM user_auth WHERE username = $1",
		username))
	if err != nil && !errors.Is(err, api.ErrNotFound) {
		return nil, r.serverError(ctx, "get user by username", err)
	}
	return rec, err
}

// UpsertAuthRecord writes a credential. The job queue delivers at least
// once, so the insert is an upsert keyed on id: replaying the same payload
// converges on the same row.
func (r *PostgresAuthRepo) UpsertAuthRecord(ctx context.Context, rec *api.AuthRecord) error {
	_, err := r.pgpool.Exec(ctx,
		`INSERT INTO user_auth (id, u_id, username, email, password_hash, avatar_color, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         ON CONFLICT (id) DO UPDATE SET
             username = EXCLUDED.username,
             email = EXCLUDED.email,
             password_hash = EXCLUDED.password_hash,
             avatar_color = EXCLUDED.avatar_color`,
		rec.ID, rec.UID, rec.Username, rec.Email, rec.PasswordHash, rec.AvatarColor, rec.CreatedAt)
	if err != nil {
		return r.serverError(ctx, "upsert auth record", err)
	}
	return nil
}

func (r *PostgresAuthRepo) serverError(ctx context.Context, op string, err error) error {
	r.logger.ErrorContext(ctx, "Auth repository query failed",
		slog.String("op", op),
		slog.Any("error", err),
	)
	return api.ServerError()
}

// GetUserByEmail backs the forgot-password lookup.
func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*api.AuthRecord, error) {
	rec, err := r.scanAuthRecord(r.pgpool.QueryRow(ctx,
		"SELECT "+authRecordColumns+" FROM user_auth WHERE email = $1",
		email))
	if err != nil && !errors.Is(err, api.ErrNotFound) {
		return nil, r.serverError(ctx, "get user by email", err)
	}
	return rec, err
}

// SetPasswordResetToken stores a single-use reset token with its expiry.
// A second forgot-password request simply replaces the previous token.
func (r *PostgresAuthRepo) SetPasswordResetToken(ctx context.Context, authID uuid.UUID, token string, expires time.Time) error {
	_, err := r.pgpool.Exec(ctx,
		"UPDATE user_auth SET password_reset_token = $2, password_reset_expires = $3 WHERE id = $1",
		authID, token, expires)
	if err != nil {
		return r.serverError(ctx, "set password reset token", err)
	}
	return nil
}

// GetUserByPasswordResetToken resolves an unexpired reset token. Expired and
// unknown tokens are indistinguishable to the caller.
func (r *PostgresAuthRepo) GetUserByPasswordResetToken(ctx context.Context, token string) (*api.AuthRecord, error) {
	rec, err := r.scanAuthRecord(r.pgpool.QueryRow(ctx,
		"SELECT "+authRecordColumns+" FROM user_auth WHERE password_reset_token = $1 AND password_reset_expires > now()",
		token))
	if err != nil && !errors.Is(err, api.ErrNotFound) {
		return nil, r.serverError(ctx, "get user by reset token", err)
	}
	return rec, err
}

// UpdatePassword replaces the hash and burns the reset token in one statement.
func (r *PostgresAuthRepo) UpdatePassword(ctx context.Context, authID uuid.UUID, passwordHash string) error {
	_, err := r.pgpool.Exec(ctx,
		"UPDATE user_auth SET password_hash = $2, password_reset_token = NULL, password_reset_expires = NULL WHERE id = $1",
		authID, passwordHash)
	if err != nil {
		return r.serverError(ctx, "update password", err)
	}
	return nil
}
