package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/musicstore-support/internal/models"
)

type recordingCodeRemover struct {
	removed []uuid.UUID
}

func (r *recordingCodeRemover) DeleteBySession(_ context.Context, sessionID uuid.UUID) error {
	r.removed = append(r.removed, sessionID)
	return nil
}

func newSessionFixture() (*SessionService, *recordingCodeRemover) {
	customers := &fakeCustomers{customer: &models.Customer{ID: 58}}
	codes := &recordingCodeRemover{}
	return NewSessionService(customers, codes), codes
}

func TestSessionService_Create_StartsUnverified(t *testing.T) {
	svc, _ := newSessionFixture()

	session, err := svc.Create(context.Background(), 58)
	require.NoError(t, err)

	assert.Equal(t, int64(58), session.CustomerID)
	assert.False(t, session.Verified)
	assert.Equal(t, models.VerificationStateUnverified, session.State)
	assert.Empty(t, session.Messages)
}

func TestSessionService_Create_UnknownCustomer(t *testing.T) {
	svc, _ := newSessionFixture()

	_, err := svc.Create(context.Background(), 999)
	assert.Error(t, err)
}

func TestSessionService_Get_ReturnsSnapshot(t *testing.T) {
	svc, _ := newSessionFixture()
	session, err := svc.Create(context.Background(), 58)
	require.NoError(t, err)

	snapshot, err := svc.Get(session.ID)
	require.NoError(t, err)

	// Изменение снимка не задевает хранимую сессию.
	snapshot.Messages = append(snapshot.Messages, models.ChatMessage{Role: models.ChatRoleUser, Content: "hi"})
	fresh, err := svc.Get(session.ID)
	require.NoError(t, err)
	assert.Empty(t, fresh.Messages)
}

func TestSessionService_Get_NotFound(t *testing.T) {
	svc, _ := newSessionFixture()

	_, err := svc.Get(uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSessionService_AppendMessages_KeepsOrder(t *testing.T) {
	svc, _ := newSessionFixture()
	session, err := svc.Create(context.Background(), 58)
	require.NoError(t, err)

	require.NoError(t, svc.AppendMessages(session.ID,
		models.ChatMessage{Role: models.ChatRoleUser, Content: "find me some rock"},
		models.ChatMessage{Role: models.ChatRoleAssistant, Content: "Sure."},
	))

	history, err := svc.History(session.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.ChatRoleUser, history[0].Role)
	assert.Equal(t, models.ChatRoleAssistant, history[1].Role)
}

func TestSessionService_VerificationLifecycle(t *testing.T) {
	svc, _ := newSessionFixture()
	session, err := svc.Create(context.Background(), 58)
	require.NoError(t, err)

	require.NoError(t, svc.MarkCodeSent(session.ID))
	s, _ := svc.Get(session.ID)
	assert.Equal(t, models.VerificationStateCodeSent, s.State)
	assert.False(t, s.Verified)

	require.NoError(t, svc.MarkVerified(session.ID))
	s, _ = svc.Get(session.ID)
	assert.Equal(t, models.VerificationStateVerified, s.State)
	assert.True(t, s.Verified)

	require.NoError(t, svc.ResetVerification(session.ID))
	s, _ = svc.Get(session.ID)
	assert.Equal(t, models.VerificationStateUnverified, s.State)
	assert.False(t, s.Verified)
}

func TestSessionService_Clear_ResetsEverything(t *testing.T) {
	svc, codes := newSessionFixture()
	ctx := context.Background()
	session, err := svc.Create(ctx, 58)
	require.NoError(t, err)

	require.NoError(t, svc.AppendMessages(session.ID, models.ChatMessage{Role: models.ChatRoleUser, Content: "hi"}))
	require.NoError(t, svc.MarkVerified(session.ID))

	require.NoError(t, svc.Clear(ctx, session.ID))

	s, err := svc.Get(session.ID)
	require.NoError(t, err)
	assert.Empty(t, s.Messages)
	assert.False(t, s.Verified)
	assert.Equal(t, models.VerificationStateUnverified, s.State)
	// Коды сессии удалены вместе с историей.
	assert.Equal(t, []uuid.UUID{session.ID}, codes.removed)
}

func TestSessionService_Destroy(t *testing.T) {
	svc, codes := newSessionFixture()
	ctx := context.Background()
	session, err := svc.Create(ctx, 58)
	require.NoError(t, err)

	require.NoError(t, svc.Destroy(ctx, session.ID))
	_, err = svc.Get(session.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Len(t, codes.removed, 1)
}
