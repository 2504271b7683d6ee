package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesisflow/thesisflow-api/internal/models"
	appErrors "github.com/thesisflow/thesisflow-api/pkg/errors"
)

type mockMessageRepo struct {
	messages       []models.MessageDetail
	created        *models.Message
	markedThesisID string
	markedReaderID string
	unread         int
}

func (m *mockMessageRepo) ListByThesis(ctx context.Context, thesisID string) ([]models.MessageDetail, error) {
	return m.messages, nil
}

func (m *mockMessageRepo) Create(ctx context.Context, message *models.Message) error {
	message.ID = "m1"
	m.created = message
	return nil
}

func (m *mockMessageRepo) MarkReadForReader(ctx context.Context, thesisID, readerID string, readAt time.Time) error {
	m.markedThesisID = thesisID
	m.markedReaderID = readerID
	return nil
}

func (m *mockMessageRepo) UnreadCount(ctx context.Context, thesisID, readerID string) (int, error) {
	return m.unread, nil
}

type mockNotificationSink struct {
	created []*models.Notification
	err     error
}

func (m *mockNotificationSink) Create(ctx context.Context, notification *models.Notification) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, notification)
	return nil
}

type mockThesisLookup struct {
	detail *models.ThesisDetail
	err    error
}

func (m *mockThesisLookup) FindByID(ctx context.Context, id string) (*models.ThesisDetail, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.detail, nil
}

func newMessageService(repo *mockMessageRepo, sink *mockNotificationSink, detail *models.ThesisDetail) *MessageService {
	return NewMessageService(repo, sink, &mockThesisLookup{detail: detail}, nil)
}

func TestMessageListMarksCounterpartRead(t *testing.T) {
	repo := &mockMessageRepo{messages: []models.MessageDetail{{Message: models.Message{ID: "m1", Body: "hello"}}}}
	svc := newMessageService(repo, &mockNotificationSink{}, thesisDetail(models.StatusPendingApproval))

	messages, err := svc.List(context.Background(), models.Actor{ID: "student-1", Role: models.RoleStudent}, "t1")
	require.NoError(t, err)
	assert.Len(t, messages, 1)
	assert.Equal(t, "t1", repo.markedThesisID)
	assert.Equal(t, "student-1", repo.markedReaderID)
}

func TestMessageListForbiddenForOutsiders(t *testing.T) {
	repo := &mockMessageRepo{}
	svc := newMessageService(repo, &mockNotificationSink{}, thesisDetail(models.StatusDraft))

	_, err := svc.List(context.Background(), models.Actor{ID: "student-9", Role: models.RoleStudent}, "t1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.markedThesisID)
}

func TestMessageCreateNotifiesSupervisor(t *testing.T) {
	repo := &mockMessageRepo{}
	sink := &mockNotificationSink{}
	svc := newMessageService(repo, sink, thesisDetail(models.StatusPendingApproval))

	message, err := svc.Create(context.Background(), models.Actor{ID: "student-1", Name: "Ana Novak", Role: models.RoleStudent}, "t1", "please review chapter 2")
	require.NoError(t, err)
	assert.Equal(t, "please review chapter 2", message.Body)

	require.Len(t, sink.created, 1)
	notification := sink.created[0]
	assert.Equal(t, "supervisor-1", notification.UserID)
	assert.Equal(t, models.NotificationNewMessage, notification.Type)
	assert.Equal(t, `Ana Novak sent a message about "Distributed Consensus"`, notification.Message)
	assert.Equal(t, "💬", notification.Icon)
	assert.Equal(t, "blue", notification.Color)
	require.NotNil(t, notification.RelatedMessageID)
	assert.Equal(t, "m1", *notification.RelatedMessageID)
}

func TestMessageCreateNotifiesStudent(t *testing.T) {
	sink := &mockNotificationSink{}
	svc := newMessageService(&mockMessageRepo{}, sink, thesisDetail(models.StatusPendingApproval))

	_, err := svc.Create(context.Background(), models.Actor{ID: "supervisor-1", Name: "Prof. Horvat", Role: models.RoleSupervisor}, "t1", "see my notes")
	require.NoError(t, err)

	require.Len(t, sink.created, 1)
	assert.Equal(t, "student-1", sink.created[0].UserID)
}

func TestMessageCreateRejectsEmptyBody(t *testing.T) {
	repo := &mockMessageRepo{}
	svc := newMessageService(repo, &mockNotificationSink{}, thesisDetail(models.StatusDraft))

	_, err := svc.Create(context.Background(), models.Actor{ID: "student-1", Role: models.RoleStudent}, "t1", "   ")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestMessageCreateRejectsOversizedBody(t *testing.T) {
	repo := &mockMessageRepo{}
	svc := newMessageService(repo, &mockNotificationSink{}, thesisDetail(models.StatusDraft))

	_, err := svc.Create(context.Background(), models.Actor{ID: "student-1", Role: models.RoleStudent}, "t1", strings.Repeat("a", maxMessageLength+1))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestMessageCreateSurvivesNotificationFailure(t *testing.T) {
	repo := &mockMessageRepo{}
	sink := &mockNotificationSink{err: assert.AnError}
	svc := newMessageService(repo, sink, thesisDetail(models.StatusDraft))

	message, err := svc.Create(context.Background(), models.Actor{ID: "student-1", Role: models.RoleStudent}, "t1", "hello")
	require.NoError(t, err)
	assert.NotNil(t, message)
	assert.NotNil(t, repo.created)
}

func TestMessageUnreadCount(t *testing.T) {
	repo := &mockMessageRepo{unread: 3}
	svc := newMessageService(repo, &mockNotificationSink{}, thesisDetail(models.StatusDraft))

	count, err := svc.UnreadCount(context.Background(), models.Actor{ID: "supervisor-1", Role: models.RoleSupervisor}, "t1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
