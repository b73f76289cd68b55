package user

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hassonapp/chatter/internal/api"
)

var _ Repo = (*PostgresUserRepo)(nil)

// Repo is the durable side of the profile store. UpsertUser is replayed by
// the persistence worker on redelivery, so it must converge.
type Repo interface {
	UpsertUser(ctx context.Context, doc *api.UserDocument) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*api.UserDocument, error)
	GetUserByAuthID(ctx context.Context, authID uuid.UUID) (*api.UserDocument, error)
}

type PostgresUserRepo struct {
	logger *slog.Logger
	pgpool *pgxpool.Pool
}

func NewPostgresUserRepo(pgpool *pgxpool.Pool, logger *slog.Logger) *PostgresUserRepo {
	return &PostgresUserRepo{
		logger: logger,
		pgpool: pgpool,
	}
}

const userColumns = `id, auth_id, u_id, username, email, avatar_color, profile_picture,
    work, location, school, quote, bg_image_id, bg_image_version,
    posts_count, followers_count, following_count, blocked, blocked_by,
    notifications, social, created_at`

func (r *PostgresUserRepo) scanUser(row pgx.Row) (*api.UserDocument, error) {
	var doc api.UserDocument
	err := row.Scan(
		&doc.ID, &doc.AuthID, &doc.UID, &doc.Username, &doc.Email, &doc.AvatarColor, &doc.ProfilePicture,
		&doc.Work, &doc.Location, &doc.School, &doc.Quote, &doc.BgImageID, &doc.BgImageVersion,
		&doc.PostsCount, &doc.FollowersCount, &doc.FollowingCount, &doc.Blocked, &doc.BlockedBy,
		&doc.Notifications, &doc.Social, &doc.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, api.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// UpsertUser writes the profile row. Replays of the same job payload land on
// the same primary key and leave the row untouched; counters are clamped at
// zero on the way in.
func (r *PostgresUserRepo) UpsertUser(ctx context.Context, doc *api.UserDocument) error {
	_, err := r.pgpool.Exec(ctx,
		`INSERT INTO users (id, auth_id, u_id, username, email, avatar_color, profile_picture,
             work, location, school, quote, bg_image_id, bg_image_version,
             posts_count, followers_count, following_count, blocked, blocked_by,
             notifications, social, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
             GREATEST($14, 0), GREATEST($15, 0), GREATEST($16, 0), $17, $18, $19, $20, $21)
         ON CONFLICT (id) DO NOTHING`,
		doc.ID, doc.AuthID, doc.UID, doc.Username, doc.Email, doc.AvatarColor, doc.ProfilePicture,
		doc.Work, doc.Location, doc.School, doc.Quote, doc.BgImageID, doc.BgImageVersion,
		doc.PostsCount, doc.FollowersCount, doc.FollowingCount, doc.Blocked, doc.BlockedBy,
		doc.Notifications, doc.Social, doc.CreatedAt)
	if err != nil {
		return r.serverError(ctx, "upsert user", err)
	}
	return nil
}

func (r *PostgresUserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*api.UserDocument, error) {
	doc, err := r.scanUser(r.pgpool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if err != nil && !errors.Is(err, api.ErrNotFound) {
		return nil, r.serverError(ctx, "get user by id", err)
	}
	return doc, err
}

// GetUserByAuthID resolves a profile from its credential. Signin takes this
// path because the session token is minted before the profile is read.
func (r *PostgresUserRepo) GetUserByAuthID(ctx context.Context, authID uuid.UUID) (*api.UserDocument, error) {
	doc, err := r.scanUser(r.pgpool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE auth_id = $1", authID))
	if err != nil && !errors.Is(err, api.ErrNotFound) {
		return nil, r.serverError(ctx, "get user by auth id", err)
	}
	return doc, err
}

func (r *PostgresUserRepo) serverError(ctx context.Context, op string, err error) error {
	r.logger.ErrorContext(ctx, "User repository query failed",
		slog.String("op", op),
		slog.Any("error", err),
	)
	return api.ServerError()
}
