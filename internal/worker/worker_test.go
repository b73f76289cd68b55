package worker

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hassonapp/chatter/internal/api"
	"github.com/hassonapp/chatter/internal/platform/queue"
	"github.com/hassonapp/chatter/testutil"
)

type mockAuthRepo struct{ mock.Mock }

func (m *mockAuthRepo) GetUserByUsernameOrEmail(ctx context.Context, username, email string) (*api.AuthRecord, error) {
	args := m.Called(ctx, username, email)
	rec, _ := args.Get(0).(*api.AuthRecord)
	return rec, args.Error(1)
}

func (m *mockAuthRepo) GetUserByUsername(ctx context.Context, username string) (*api.AuthRecord, error) {
	args := m.Called(ctx, username)
	rec, _ := args.Get(0).(*api.AuthRecord)
	return rec, args.Error(1)
}

func (m *mockAuthRepo) UpsertAuthRecord(ctx context.Context, rec *api.AuthRecord) error {
	return m.Called(ctx, rec).Error(0)
}

func (m *mockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*api.AuthRecord, error) {
	args := m.Called(ctx, email)
	rec, _ := args.Get(0).(*api.AuthRecord)
	return rec, args.Error(1)
}

func (m *mockAuthRepo) SetPasswordResetToken(ctx context.Context, authID uuid.UUID, token string, expires time.Time) error {
	return m.Called(ctx, authID, token, expires).Error(0)
}

func (m *mockAuthRepo) GetUserByPasswordResetToken(ctx context.Context, token string) (*api.AuthRecord, error) {
	args := m.Called(ctx, token)
	rec, _ := args.Get(0).(*api.AuthRecord)
	return rec, args.Error(1)
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, authID uuid.UUID, passwordHash string) error {
	return m.Called(ctx, authID, passwordHash).Error(0)
}

type mockUserRepo struct{ mock.Mock }

func (m *mockUserRepo) UpsertUser(ctx context.Context, doc *api.UserDocument) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *mockUserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*api.UserDocument, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(*api.UserDocument)
	return doc, args.Error(1)
}

func (m *mockUserRepo) GetUserByAuthID(ctx context.Context, authID uuid.UUID) (*api.UserDocument, error) {
	args := m.Called(ctx, authID)
	doc, _ := args.Get(0).(*api.UserDocument)
	return doc, args.Error(1)
}

func TestAddAuthUserHandlerPersistsRecord(t *testing.T) {
	repo := &mockAuthRepo{}
	handler := addAuthUserHandler(repo, testutil.DiscardLogger())

	rec := &api.AuthRecord{
		ID:           uuid.New(),
		UID:          42,
		Username:     "John",
		Email:        "john@example.com",
		PasswordHash: "$2a$04$fakehash",
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	payload, err := json.Marshal(rec)
	require.NoError(t, err)

	var persisted *api.AuthRecord
	repo.On("UpsertAuthRecord", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { persisted = args.Get(1).(*api.AuthRecord) }).
		Return(nil)

	require.NoError(t, handler(context.Background(), payload))
	require.NotNil(t, persisted)
	assert.Equal(t, rec.ID, persisted.ID)
	assert.Equal(t, rec.PasswordHash, persisted.PasswordHash, "the hash must survive the queue round trip")
}

func TestAddUserHandlerPersistsDocument(t *testing.T) {
	repo := &mockUserRepo{}
	handler := addUserHandler(repo, testutil.DiscardLogger())

	doc := &api.UserDocument{ID: uuid.New(), AuthID: uuid.New(), Username: "Mary"}
	payload, err := json.Marshal(doc)
	require.NoError(t, err)

	repo.On("UpsertUser", mock.Anything, mock.Anything).Return(nil)
	require.NoError(t, handler(context.Background(), payload))
	repo.AssertExpectations(t)
}

func TestHandlersSkipRetryOnMalformedPayload(t *testing.T) {
	authRepo := &mockAuthRepo{}
	userRepo := &mockUserRepo{}

	handlers := map[string]queue.HandlerFunc{
		"auth": addAuthUserHandler(authRepo, testutil.DiscardLogger()),
		"user": addUserHandler(userRepo, testutil.DiscardLogger()),
	}
	for name, handler := range handlers {
		t.Run(name, func(t *testing.T) {
			err := handler(context.Background(), []byte("{not json"))
			require.Error(t, err)
			assert.ErrorIs(t, err, queue.SkipRetry, "retrying an unparsable payload cannot succeed")
		})
	}

	authRepo.AssertNotCalled(t, "UpsertAuthRecord", mock.Anything, mock.Anything)
	userRepo.AssertNotCalled(t, "UpsertUser", mock.Anything, mock.Anything)
}

func TestHandlersPropagateRepoErrors(t *testing.T) {
	repo := &mockUserRepo{}
	handler := addUserHandler(repo, testutil.DiscardLogger())

	payload, err := json.Marshal(&api.UserDocument{ID: uuid.New()})
	require.NoError(t, err)

	repo.On("UpsertUser", mock.Anything, mock.Anything).Return(api.ServerError())

	err = handler(context.Background(), payload)
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrServer)
	assert.NotErrorIs(t, err, queue.SkipRetry, "transient store faults must stay retryable")
}
