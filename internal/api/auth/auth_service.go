package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hassonapp/chatter/config"
	"github.com/hassonapp/chatter/internal/api"
	"github.com/hassonapp/chatter/internal/api/user"
	"github.com/hassonapp/chatter/internal/platform/email"
	"github.com/hassonapp/chatter/internal/platform/queue"
	"github.com/hassonapp/chatter/internal/platform/upload"
)

var _ AuthService = (*ServiceImpl)(nil)

// AuthService owns the signup and signin flows. Signup is cache-first: the
// profile becomes visible the moment the cache write lands, durable
// persistence happens asynchronously through the job queues.
type AuthService interface {
	SignUp(ctx context.Context, req *api.SignUpRequest) (*api.AuthResponse, error)
	SignIn(ctx context.Context, req *api.SignInRequest) (*api.AuthResponse, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password, remoteAddr string) error
}

// Enqueuer is the slice of the job queue the service needs.
type Enqueuer interface {
	Enqueue(ctx context.Context, jobType string, payload interface{}) error
}

// ProfileCache is the slice of the profile cache the service needs.
type ProfileCache interface {
	SaveUserToCache(ctx context.Context, key string, uid int64, doc *api.UserDocument) error
}

type ServiceImpl struct {
	logger     *slog.Logger
	jwtCfg     config.JWTConfig
	storageCfg config.StorageConfig
	repo       AuthRepo
	users      user.Repo
	cache      ProfileCache
	uploader   upload.Uploader
	authQueue  Enqueuer
	userQueue  Enqueuer
	emailQueue Enqueuer
	clientURL  string
}

func NewServiceImpl(
	jwtCfg config.JWTConfig,
	storageCfg config.StorageConfig,
	repo AuthRepo,
	users user.Repo,
	cache ProfileCache,
	uploader upload.Uploader,
	authQueue, userQueue, emailQueue Enqueuer,
	clientURL string,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		jwtCfg:     jwtCfg,
		storageCfg: storageCfg,
		repo:       repo,
		users:      users,
		cache:      cache,
		uploader:   uploader,
		authQueue:  authQueue,
		userQueue:  userQueue,
		emailQueue: emailQueue,
		clientURL:  clientURL,
	}
}

// SignUp creates an identity. Order matters: uniqueness check against the
// durable store, avatar upload, cache write, then the two durable-write jobs.
// A cache failure aborts before anything is enqueued, so the queues never
// carry a profile the cache rejected.
func (s *ServiceImpl) SignUp(ctx context.Context, req *api.SignUpRequest) (*api.AuthResponse, error) {
	username := api.FirstLetterUppercase(req.Username)
	emailAddr := api.LowerCase(req.Email)

	_, err := s.repo.GetUserByUsernameOrEmail(ctx, username, emailAddr)
	if err == nil {
		return nil, api.Conflict(api.MsgUserAlreadyExists)
	}
	if !errors.Is(err, api.ErrNotFound) {
		return nil, err
	}

	authID := uuid.New()
	userID := uuid.New()
	uid := api.NewUID()
	now := time.Now().UTC()

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to hash password", slog.Any("error", err))
		return nil, api.ServerError()
	}

	uploadRes, err := s.uploader.Upload(ctx, userID.String(), req.AvatarImage)
	if err != nil {
		s.logger.ErrorContext(ctx, "Avatar upload failed",
			slog.String("user_id", userID.String()),
			slog.Any("error", err),
		)
		return nil, api.BadRequest("File upload: Error occurred. Try again.")
	}

	rec := &api.AuthRecord{
		ID:           authID,
		UID:          uid,
		Username:     username,
		Email:        emailAddr,
		PasswordHash: string(hash),
		AvatarColor:  req.AvatarColor,
		CreatedAt:    now,
	}
	doc := &api.UserDocument{
		ID:             userID,
		AuthID:         authID,
		UID:            uid,
		Username:       username,
		Email:          emailAddr,
		AvatarColor:    req.AvatarColor,
		ProfilePicture: upload.PictureURL(s.storageCfg, uploadRes),
		Blocked:        []uuid.UUID{},
		BlockedBy:      []uuid.UUID{},
		Notifications:  api.DefaultNotificationSettings(),
		CreatedAt:      now,
	}

	if err := s.cache.SaveUserToCache(ctx, userID.String(), uid, doc); err != nil {
		return nil, err
	}
	if err := s.authQueue.Enqueue(ctx, queue.JobAddAuthUser, rec); err != nil {
		return nil, err
	}
	if err := s.userQueue.Enqueue(ctx, queue.JobAddUser, doc); err != nil {
		return nil, err
	}

	token, err := IssueToken(s.jwtCfg, userID, rec)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to issue session token", slog.Any("error", err))
		return nil, api.ServerError()
	}

	return &api.AuthResponse{
		Message: "User created successfully",
		User:    doc,
		Token:   token,
	}, nil
}

// SignIn verifies credentials against the durable store. Unknown username and
// wrong password produce the same message, so the response is not a username
// oracle. Denormalized identity fields on the profile are overlaid from the
// credential, which is the fresher source.
func (s *ServiceImpl) SignIn(ctx context.Context, req *api.SignInRequest) (*api.AuthResponse, error) {
	username := api.FirstLetterUppercase(req.Username)

	rec, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return nil, api.BadRequest(api.MsgInvalidCredentials)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(req.Password)); err != nil {
		return nil, api.BadRequest(api.MsgInvalidCredentials)
	}

	doc, err := s.users.GetUserByAuthID(ctx, rec.ID)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			// Credential landed but the profile write is still in flight.
			s.logger.WarnContext(ctx, "Credential exists without durable profile",
				slog.String("auth_id", rec.ID.String()),
			)
			return nil, api.ServerError()
		}
		return nil, err
	}

	doc.UID = rec.UID
	doc.Username = rec.Username
	doc.Email = rec.Email
	doc.AvatarColor = rec.AvatarColor
	doc.CreatedAt = rec.CreatedAt

	token, err := IssueToken(s.jwtCfg, doc.ID, rec)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to issue session token", slog.Any("error", err))
		return nil, api.ServerError()
	}

	return &api.AuthResponse{
		Message: "User login successfully",
		User:    doc,
		Token:   token,
	}, nil
}

const resetTokenTTL = time.Hour

// ForgotPassword issues a single-use reset token and queues the reset email.
// An unknown email gets the generic invalid-credentials message so the
// endpoint is not an address oracle.
func (s *ServiceImpl) ForgotPassword(ctx context.Context, emailAddr string) error {
	rec, err := s.repo.GetUserByEmail(ctx, api.LowerCase(emailAddr))
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return api.BadRequest(api.MsgInvalidCredentials)
		}
		return err
	}

	token, err := newResetToken()
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to generate reset token", slog.Any("error", err))
		return api.ServerError()
	}
	if err := s.repo.SetPasswordResetToken(ctx, rec.ID, token, time.Now().Add(resetTokenTTL)); err != nil {
		return err
	}

	return s.emailQueue.Enqueue(ctx, queue.JobSendEmail, email.Message{
		To:       rec.Email,
		Subject:  "Reset your password",
		Template: email.TemplateForgotPassword,
		Data: map[string]string{
			"username":  rec.Username,
			"resetLink": fmt.Sprintf("%s/reset-password?token=%s", s.clientURL, token),
		},
	})
}

// ResetPassword burns the token, replaces the hash and queues a confirmation
// email carrying when and from where the change happened.
func (s *ServiceImpl) ResetPassword(ctx context.Context, token, password, remoteAddr string) error {
	rec, err := s.repo.GetUserByPasswordResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			return api.BadRequest("Reset token has expired.")
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to hash password", slog.Any("error", err))
		return api.ServerError()
	}
	if err := s.repo.UpdatePassword(ctx, rec.ID, string(hash)); err != nil {
		return err
	}

	return s.emailQueue.Enqueue(ctx, queue.JobSendEmail, email.Message{
		To:       rec.Email,
		Subject:  "Password reset confirmation",
		Template: email.TemplateResetConfirm,
		Data: map[string]string{
			"username":  rec.Username,
			"email":     rec.Email,
			"date":      time.Now().UTC().Format(time.RFC1123),
			"ipaddress": remoteAddr,
		},
	})
}

// newResetToken draws 20 random bytes, hex encoded, same shape as the
// tokens clients already handle.
func newResetToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
