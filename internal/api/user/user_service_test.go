package user

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hassonapp/chatter/internal/api"
	"github.com/hassonapp/chatter/testutil"
)

type mockRepo struct{ mock.Mock }

func (m *mockRepo) UpsertUser(ctx context.Context, doc *api.UserDocument) error {
	return m.Called(ctx, doc).Error(0)
}

func (m *mockRepo) GetUserByID(ctx context.Context, id uuid.UUID) (*api.UserDocument, error) {
	args := m.Called(ctx, id)
	doc, _ := args.Get(0).(*api.UserDocument)
	return doc, args.Error(1)
}

func (m *mockRepo) GetUserByAuthID(ctx context.Context, authID uuid.UUID) (*api.UserDocument, error) {
	args := m.Called(ctx, authID)
	doc, _ := args.Get(0).(*api.UserDocument)
	return doc, args.Error(1)
}

func claimsFor(doc *api.UserDocument) *api.Claims {
	return &api.Claims{
		UserID:   doc.ID.String(),
		UID:      doc.UID,
		Email:    doc.Email,
		Username: doc.Username,
	}
}

func TestGetCurrentUserServedFromCache(t *testing.T) {
	c, _ := newTestCache(t)
	repo := &mockRepo{}
	svc := NewServiceImpl(repo, c, testutil.DiscardLogger())

	doc := sampleDocument()
	require.NoError(t, c.SaveUserToCache(context.Background(), doc.ID.String(), doc.UID, doc))

	got, err := svc.GetCurrentUser(context.Background(), claimsFor(doc))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, doc.ID, got.ID)

	// The durable store stays untouched on a cache hit.
	repo.AssertNotCalled(t, "GetUserByID", mock.Anything, mock.Anything)
}

func TestGetCurrentUserFallsBackToDurableStore(t *testing.T) {
	c, _ := newTestCache(t)
	repo := &mockRepo{}
	svc := NewServiceImpl(repo, c, testutil.DiscardLogger())

	doc := sampleDocument()
	repo.On("GetUserByID", mock.Anything, doc.ID).Return(doc, nil)

	got, err := svc.GetCurrentUser(context.Background(), claimsFor(doc))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, doc.ID, got.ID)
	repo.AssertExpectations(t)
}

func TestGetCurrentUserUnknownEverywhere(t *testing.T) {
	c, _ := newTestCache(t)
	repo := &mockRepo{}
	svc := NewServiceImpl(repo, c, testutil.DiscardLogger())

	doc := sampleDocument()
	repo.On("GetUserByID", mock.Anything, doc.ID).Return(nil, api.ErrNotFound)

	got, err := svc.GetCurrentUser(context.Background(), claimsFor(doc))
	require.NoError(t, err, "a missing profile is not an error on the current-user path")
	assert.Nil(t, got)
}

func TestGetCurrentUserMalformedSubject(t *testing.T) {
	c, _ := newTestCache(t)
	repo := &mockRepo{}
	svc := NewServiceImpl(repo, c, testutil.DiscardLogger())

	got, err := svc.GetCurrentUser(context.Background(), &api.Claims{UserID: "not-a-uuid"})
	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, api.ErrUnauthenticated)
}
