package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"churchadmin/internal/access"
	apperrors "churchadmin/internal/errors"
	"churchadmin/internal/model"
	"churchadmin/internal/notify"
)

var messageNow = time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC)

type messageMocks struct {
	messages   *MockMessageRepository
	users      *MockUserRepository
	ministries *MockMinistryRepository
	publisher  *recordingPublisher
}

func newTestMessageService() (MessageService, messageMocks) {
	m := messageMocks{
		messages:   new(MockMessageRepository),
		users:      new(MockUserRepository),
		ministries: new(MockMinistryRepository),
		publisher:  &recordingPublisher{},
	}
	return NewMessageService(m.messages, m.users, m.ministries, m.publisher, fixedClock(messageNow)), m
}

func uptr(v uint) *uint { return &v }

func TestMessageService_SendPersonal(t *testing.T) {
	tests := []struct {
		name      string
		input     MessageInput
		setupMock func(m messageMocks)
		wantField string
		wantErr   bool
	}{
		{
			name:      "missing recipient",
			input:     MessageInput{Subject: "Hi", Content: "hello"},
			setupMock: func(m messageMocks) {},
			wantField: "recipient_id",
			wantErr:   true,
		},
		{
			name:  "unknown recipient",
			input: MessageInput{Subject: "Hi", Content: "hello", RecipientID: uptr(9)},
			setupMock: func(m messageMocks) {
				m.users.On("FindByID", mock.Anything, uint(9)).Return(nil, gorm.ErrRecordNotFound)
			},
			wantField: "recipient_id",
			wantErr:   true,
		},
		{
			name:  "delivered",
			input: MessageInput{Subject: " Hi ", Content: "hello", RecipientID: uptr(2)},
			setupMock: func(m messageMocks) {
				m.users.On("FindByID", mock.Anything, uint(2)).Return(&model.User{ID: 2}, nil)
				m.messages.On("Create", mock.Anything, mock.MatchedBy(func(msg *model.Message) bool {
					return msg.SenderID == 1 && *msg.RecipientID == 2 && msg.Subject == "Hi" &&
						msg.Type == model.MessagePersonal && msg.Priority == model.MessageNormal
				})).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newTestMessageService()
			tt.setupMock(m)

			delivery, err := svc.Send(context.Background(), identity(1, access.RoleMember), tt.input)
			if tt.wantErr {
				var verr *apperrors.ValidationError
				require.True(t, errors.As(err, &verr))
				assert.Contains(t, verr.Fields, tt.wantField)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, 1, delivery.Recipients)
			m.messages.AssertExpectations(t)
		})
	}
}

func TestMessageService_SendMinistryFansOut(t *testing.T) {
	svc, m := newTestMessageService()
	ctx := context.Background()
	ministry := &model.Ministry{ID: 4, Name: "Choir"}

	m.ministries.On("FindByID", mock.Anything, uint(4)).Return(ministry, nil)
	m.ministries.On("FindMember", mock.Anything, uint(4), uint(1)).Return(&model.MinistryMember{MinistryID: 4, UserID: 1, IsActive: true}, nil)
	m.ministries.On("ActiveMemberIDs", mock.Anything, uint(4)).Return([]uint{1, 2, 3}, nil)
	m.messages.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	m.messages.On("CreateBatch", mock.Anything, mock.MatchedBy(func(msgs []model.Message) bool {
		if len(msgs) != 2 {
			return false
		}
		for _, msg := range msgs {
			if *msg.MinistryID != 4 || *msg.RecipientID == 1 {
				return false
			}
		}
		return true
	})).Return(nil)

	delivery, err := svc.Send(ctx, identity(1, access.RoleMember), MessageInput{
		Subject: "Rehearsal", Content: "Thursday 7pm", Type: "ministry", MinistryID: uptr(4),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, delivery.Recipients)
	m.messages.AssertExpectations(t)
}

func TestMessageService_SendMinistryRequiresMembership(t *testing.T) {
	svc, m := newTestMessageService()
	m.ministries.On("FindByID", mock.Anything, uint(4)).Return(&model.Ministry{ID: 4}, nil)
	m.ministries.On("FindMember", mock.Anything, uint(4), uint(7)).Return(nil, gorm.ErrRecordNotFound)

	_, err := svc.Send(context.Background(), identity(7, access.RoleMember), MessageInput{
		Subject: "x", Content: "y", Type: "ministry", MinistryID: uptr(4),
	})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	m.messages.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestMessageService_Broadcast(t *testing.T) {
	svc, m := newTestMessageService()
	ctx := context.Background()

	_, err := svc.Broadcast(ctx, identity(3, access.RoleMember), BroadcastInput{Subject: "s", Content: "c"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	m.users.On("ActiveIDs", mock.Anything).Return([]uint{1, 2, 3, 4}, nil)
	m.messages.On("WithTransaction", mock.Anything, mock.Anything).Return(nil)
	m.messages.On("CreateBatch", mock.Anything, mock.Anything).Return(nil)

	delivery, err := svc.Broadcast(ctx, identity(1, access.RolePastor), BroadcastInput{Subject: "Easter", Content: "Service at 9", Priority: "high"})
	require.NoError(t, err)
	assert.Equal(t, 3, delivery.Recipients)
	assert.Equal(t, model.MessageBroadcast, delivery.Message.Type)
	assert.Equal(t, []string{notify.EventMessageBroadcast}, m.publisher.types())
}

func TestMessageService_MarkReadIsIdempotent(t *testing.T) {
	svc, m := newTestMessageService()
	ctx := context.Background()
	firstRead := messageNow.Add(-48 * time.Hour)

	unread := &model.Message{ID: 10, SenderID: 1, RecipientID: uptr(2)}
	read := &model.Message{ID: 11, SenderID: 1, RecipientID: uptr(2), IsRead: true, ReadAt: &firstRead}
	m.messages.On("FindByID", mock.Anything, uint(10)).Return(unread, nil)
	m.messages.On("FindByID", mock.Anything, uint(11)).Return(read, nil)
	m.messages.On("Update", mock.Anything, unread).Return(nil).Once()

	got, err := svc.MarkRead(ctx, identity(2, access.RoleMember), 10)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	require.NotNil(t, got.ReadAt)
	assert.Equal(t, messageNow, *got.ReadAt)

	got, err = svc.MarkRead(ctx, identity(2, access.RoleMember), 11)
	require.NoError(t, err)
	assert.Equal(t, firstRead, *got.ReadAt)

	// only the recipient can change read state
	_, err = svc.MarkRead(ctx, identity(1, access.RoleMember), 10)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	m.messages.AssertNumberOfCalls(t, "Update", 1)
}

func TestMessageService_ParticipantsOnly(t *testing.T) {
	svc, m := newTestMessageService()
	ctx := context.Background()
	msg := &model.Message{ID: 20, SenderID: 1, RecipientID: uptr(2), Subject: "Lunch"}
	m.messages.On("FindByID", mock.Anything, uint(20)).Return(msg, nil)

	_, err := svc.Get(ctx, identity(3, access.RoleAdministrator), 20)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = svc.Update(ctx, identity(2, access.RoleMember), 20, MessageUpdateInput{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	m.messages.On("FindByID", mock.Anything, uint(99)).Return(nil, gorm.ErrRecordNotFound)
	_, err = svc.Get(ctx, identity(2, access.RoleMember), 99)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestMessageService_Reply(t *testing.T) {
	svc, m := newTestMessageService()
	ctx := context.Background()
	parent := &model.Message{ID: 30, SenderID: 1, RecipientID: uptr(2), Subject: "Lunch", Priority: model.MessageHigh}
	m.messages.On("FindByID", mock.Anything, uint(30)).Return(parent, nil)
	m.messages.On("Create", mock.Anything, mock.Anything).Return(nil)

	reply, err := svc.Reply(ctx, identity(2, access.RoleMember), 30, ReplyInput{Content: "Sure"})
	require.NoError(t, err)
	assert.Equal(t, "Re: Lunch", reply.Subject)
	assert.Equal(t, uint(1), *reply.RecipientID)
	assert.Equal(t, uint(30), *reply.ParentMessageID)
	assert.Equal(t, model.MessageHigh, reply.Priority)

	own, err := svc.Reply(ctx, identity(1, access.RoleMember), 30, ReplyInput{Content: "Also"})
	require.NoError(t, err)
	assert.Equal(t, uint(2), *own.RecipientID)
}
