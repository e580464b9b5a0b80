package service

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"churchadmin/internal/access"
	apperrors "churchadmin/internal/errors"
	"churchadmin/internal/model"
	"churchadmin/internal/notify"
	"churchadmin/internal/repository"
)

// MessageInput sends a personal or ministry message.
type MessageInput struct {
	Subject     string `json:"subject" validate:"required,max=255"`
	Content     string `json:"content" validate:"required"`
	Type        string `json:"type" validate:"omitempty,oneof=personal ministry"`
	Priority    string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
	RecipientID *uint  `json:"recipient_id"`
	MinistryID  *uint  `json:"ministry_id"`
}

// MessageUpdateInput edits a sent message. Nil fields are left untouched.
type MessageUpdateInput struct {
	Subject  *string `json:"subject" validate:"omitempty,min=1,max=255"`
	Content  *string `json:"content" validate:"omitempty,min=1"`
	Priority *string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
}

// ReplyInput answers a message.
type ReplyInput struct {
	Subject  string `json:"subject" validate:"omitempty,max=255"`
	Content  string `json:"content" validate:"required"`
	Priority string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
}

// BroadcastInput is a message to every active member.
type BroadcastInput struct {
	Subject  string `json:"subject" validate:"required,max=255"`
	Content  string `json:"content" validate:"required"`
	Priority string `json:"priority" validate:"omitempty,oneof=low normal high urgent"`
}

// Delivery reports a sent message and how many copies were stored.
type Delivery struct {
	Message    *model.Message `json:"message"`
	Recipients int            `json:"recipients"`
}

// MessageService delivers and manages messages.
type MessageService interface {
	List(ctx context.Context, actor *access.Identity, filter repository.MessageFilter, page repository.Pagination) ([]model.Message, int64, error)
	Get(ctx context.Context, actor *access.Identity, id uint) (*model.Message, error)
	Send(ctx context.Context, actor *access.Identity, in MessageInput) (*Delivery, error)
	Update(ctx context.Context, actor *access.Identity, id uint, in MessageUpdateInput) (*model.Message, error)
	Delete(ctx context.Context, actor *access.Identity, id uint) error
	MarkRead(ctx context.Context, actor *access.Identity, id uint) (*model.Message, error)
	MarkUnread(ctx context.Context, actor *access.Identity, id uint) (*model.Message, error)
	Reply(ctx context.Context, actor *access.Identity, id uint, in ReplyInput) (*model.Message, error)
	Broadcast(ctx context.Context, actor *access.Identity, in BroadcastInput) (*Delivery, error)
}

type messageService struct {
	messages   repository.MessageRepository
	users      repository.UserRepository
	ministries repository.MinistryRepository
	publisher  notify.Publisher
	now        Clock
}

// NewMessageService creates a new message service.
func NewMessageService(
	messages repository.MessageRepository,
	users repository.UserRepository,
	ministries repository.MinistryRepository,
	publisher notify.Publisher,
	now Clock,
) MessageService {
	return &messageService{
		messages:   messages,
		users:      users,
		ministries: ministries,
		publisher:  publisher,
		now:        now,
	}
}

func (s *messageService) List(ctx context.Context, actor *access.Identity, filter repository.MessageFilter, page repository.Pagination) ([]model.Message, int64, error) {
	if err := access.Check(actor, access.Authenticated()); err != nil {
		return nil, 0, err
	}
	filter.UserID = actor.UserID
	return s.messages.List(ctx, filter, page)
}

// Get returns a message to its sender or recipient. A recipient opening an
// unread message marks it read.
func (s *messageService) Get(ctx context.Context, actor *access.Identity, id uint) (*model.Message, error) {
	msg, err := s.participantView(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if isRecipient(msg, actor) && !msg.IsRead {
		s.markRead(msg)
		if err := s.messages.Update(ctx, msg); err != nil {
			return nil, err
		}
	}
	return msg, nil
}

func (s *messageService) Send(ctx context.Context, actor *access.Identity, in MessageInput) (*Delivery, error) {
	if err := access.Check(actor, access.Authenticated()); err != nil {
		return nil, err
	}
	msgType := model.MessageType(in.Type)
	if msgType == "" {
		msgType = model.MessagePersonal
	}

	base := model.Message{
		Subject:  strings.TrimSpace(in.Subject),
		Content:  in.Content,
		Type:     msgType,
		Priority: messagePriority(in.Priority),
		SenderID: actor.UserID,
	}

	switch msgType {
	case model.MessagePersonal:
		if in.RecipientID == nil {
			return nil, apperrors.NewValidationError("recipient_id", "a recipient is required for personal messages")
		}
		if _, err := s.users.FindByID(ctx, *in.RecipientID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NewValidationError("recipient_id", "the selected recipient does not exist")
			}
			return nil, err
		}
		msg := base
		msg.RecipientID = in.RecipientID
		if err := s.messages.Create(ctx, &msg); err != nil {
			return nil, err
		}
		return &Delivery{Message: &msg, Recipients: 1}, nil

	case model.MessageMinistry:
		if in.MinistryID == nil {
			return nil, apperrors.NewValidationError("ministry_id", "a ministry is required for ministry messages")
		}
		ministry, err := s.ministries.FindByID(ctx, *in.MinistryID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperrors.NewValidationError("ministry_id", "the selected ministry does not exist")
			}
			return nil, err
		}
		if err := s.checkMinistrySender(ctx, actor, ministry); err != nil {
			return nil, err
		}
		ids, err := s.ministries.ActiveMemberIDs(ctx, ministry.ID)
		if err != nil {
			return nil, err
		}
		base.MinistryID = &ministry.ID
		return s.fanOut(ctx, base, ids)
	}
	return nil, apperrors.NewValidationError("type", "the selected type is invalid")
}

// Broadcast stores one copy per active user in a single transaction.
func (s *messageService) Broadcast(ctx context.Context, actor *access.Identity, in BroadcastInput) (*Delivery, error) {
	if err := access.Check(actor, access.AnyRole(access.RolePastor, access.RoleAdministrator)); err != nil {
		return nil, err
	}
	ids, err := s.users.ActiveIDs(ctx)
	if err != nil {
		return nil, err
	}
	base := model.Message{
		Subject:  strings.TrimSpace(in.Subject),
		Content:  in.Content,
		Type:     model.MessageBroadcast,
		Priority: messagePriority(in.Priority),
		SenderID: actor.UserID,
	}
	delivery, err := s.fanOut(ctx, base, ids)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(ctx, notify.New(notify.EventMessageBroadcast, actor.UserID, map[string]interface{}{
		"subject":    base.Subject,
		"priority":   string(base.Priority),
		"recipients": delivery.Recipients,
	}))
	return delivery, nil
}

func (s *messageService) Update(ctx context.Context, actor *access.Identity, id uint, in MessageUpdateInput) (*model.Message, error) {
	msg, err := s.sent(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Subject != nil {
		msg.Subject = strings.TrimSpace(*in.Subject)
	}
	if in.Content != nil {
		msg.Content = *in.Content
	}
	if in.Priority != nil {
		msg.Priority = messagePriority(*in.Priority)
	}
	if err := s.messages.Update(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *messageService) Delete(ctx context.Context, actor *access.Identity, id uint) error {
	if _, err := s.sent(ctx, actor, id); err != nil {
		return err
	}
	return notFound(s.messages.Delete(ctx, id), "message")
}

// MarkRead is idempotent: a message already read keeps its original read_at.
func (s *messageService) MarkRead(ctx context.Context, actor *access.Identity, id uint) (*model.Message, error) {
	msg, err := s.received(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if msg.IsRead && msg.ReadAt != nil {
		return msg, nil
	}
	s.markRead(msg)
	if err := s.messages.Update(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *messageService) MarkUnread(ctx context.Context, actor *access.Identity, id uint) (*model.Message, error) {
	msg, err := s.received(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !msg.IsRead {
		return msg, nil
	}
	msg.IsRead = false
	msg.ReadAt = nil
	if err := s.messages.Update(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// Reply sends a personal message back to the parent's sender. Only the
// parent's participants may reply.
func (s *messageService) Reply(ctx context.Context, actor *access.Identity, id uint, in ReplyInput) (*model.Message, error) {
	parent, err := s.participantView(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	recipient := parent.SenderID
	if recipient == actor.UserID && parent.RecipientID != nil {
		// replying to one's own message continues the thread with the other side
		recipient = *parent.RecipientID
	}

	subject := strings.TrimSpace(in.Subject)
	if subject == "" {
		subject = parent.Subject
		if !strings.HasPrefix(subject, "Re: ") {
			subject = "Re: " + subject
		}
	}
	priority := in.Priority
	if priority == "" {
		priority = string(parent.Priority)
	}

	parentID := parent.ID
	reply := &model.Message{
		Subject:         subject,
		Content:         in.Content,
		Type:            model.MessagePersonal,
		Priority:        messagePriority(priority),
		SenderID:        actor.UserID,
		RecipientID:     &recipient,
		ParentMessageID: &parentID,
	}
	if err := s.messages.Create(ctx, reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (s *messageService) fanOut(ctx context.Context, base model.Message, recipientIDs []uint) (*Delivery, error) {
	copies := make([]model.Message, 0, len(recipientIDs))
	for _, id := range recipientIDs {
		if id == base.SenderID {
			continue
		}
		msg := base
		rid := id
		msg.RecipientID = &rid
		copies = append(copies, msg)
	}
	if len(copies) == 0 {
		return nil, apperrors.NewValidationError("recipients", "there are no active recipients for this message")
	}
	err := s.messages.WithTransaction(ctx, func(ctx context.Context, repo repository.MessageRepository) error {
		return repo.CreateBatch(ctx, copies)
	})
	if err != nil {
		return nil, err
	}
	return &Delivery{Message: &copies[0], Recipients: len(copies)}, nil
}

func (s *messageService) checkMinistrySender(ctx context.Context, actor *access.Identity, ministry *model.Ministry) error {
	if ministry.LeaderID != nil && *ministry.LeaderID == actor.UserID {
		return nil
	}
	if actor.HasPermission(access.PermManageMessageGroups) {
		return nil
	}
	member, err := s.ministries.FindMember(ctx, ministry.ID, actor.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Forbidden("you are not a member of this ministry")
		}
		return err
	}
	if !member.IsActive {
		return apperrors.Forbidden("you are not a member of this ministry")
	}
	return nil
}

func (s *messageService) participantView(ctx context.Context, actor *access.Identity, id uint) (*model.Message, error) {
	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "message")
	}
	var recipient uint
	if msg.RecipientID != nil {
		recipient = *msg.RecipientID
	}
	if err := access.Check(actor, access.OwnedByAny(msg.SenderID, recipient)); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *messageService) sent(ctx context.Context, actor *access.Identity, id uint) (*model.Message, error) {
	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "message")
	}
	if err := access.Check(actor, access.OwnedBy(msg.SenderID)); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *messageService) received(ctx context.Context, actor *access.Identity, id uint) (*model.Message, error) {
	msg, err := s.messages.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "message")
	}
	var recipient uint
	if msg.RecipientID != nil {
		recipient = *msg.RecipientID
	}
	if err := access.Check(actor, access.OwnedBy(recipient)); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *messageService) markRead(msg *model.Message) {
	msg.IsRead = true
	if msg.ReadAt == nil {
		now := s.now()
		msg.ReadAt = &now
	}
}

func isRecipient(msg *model.Message, actor *access.Identity) bool {
	return actor != nil && msg.RecipientID != nil && *msg.RecipientID == actor.UserID
}

func messagePriority(p string) model.MessagePriority {
	if p == "" {
		return model.MessageNormal
	}
	return model.MessagePriority(p)
}
