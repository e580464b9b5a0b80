package repository

import (
	"context"

	"gorm.io/gorm"

	"churchadmin/internal/model"
)

// Mailbox selects which side of a conversation a listing shows.
type Mailbox string

const (
	MailboxInbox Mailbox = "inbox"
	MailboxSent  Mailbox = "sent"
	MailboxAll   Mailbox = "all"
)

// MessageFilter restricts a message listing to what UserID may see.
type MessageFilter struct {
	UserID   uint
	Box      Mailbox
	Type     string
	Priority string
	Unread   *bool
	Search   string
}

// MessageRepository defines message persistence operations.
type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	// CreateBatch inserts fan-out copies in chunks.
	CreateBatch(ctx context.Context, msgs []model.Message) error
	Update(ctx context.Context, msg *model.Message) error
	Delete(ctx context.Context, id uint) error
	FindByID(ctx context.Context, id uint) (*model.Message, error)
	List(ctx context.Context, filter MessageFilter, page Pagination) ([]model.Message, int64, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	Count(ctx context.Context) (int64, error)
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo MessageRepository) error) error
}

const messageBatchSize = 100

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository creates a new message repository.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Omit("Sender", "Recipient", "Ministry", "Parent").Create(msg).Error
}

func (r *messageRepository) CreateBatch(ctx context.Context, msgs []model.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit("Sender", "Recipient", "Ministry", "Parent").
		CreateInBatches(msgs, messageBatchSize).Error
}

func (r *messageRepository) Update(ctx context.Context, msg *model.Message) error {
	return r.db.WithContext(ctx).Omit("Sender", "Recipient", "Ministry", "Parent").Save(msg).Error
}

func (r *messageRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Message{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *messageRepository) FindByID(ctx context.Context, id uint) (*model.Message, error) {
	var msg model.Message
	if err := r.db.WithContext(ctx).
		Preload("Sender").Preload("Recipient").Preload("Ministry").
		First(&msg, id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) List(ctx context.Context, filter MessageFilter, page Pagination) ([]model.Message, int64, error) {
	scope := func(db *gorm.DB) *gorm.DB {
		switch filter.Box {
		case MailboxSent:
			db = db.Where("sender_id = ?", filter.UserID)
		case MailboxAll:
			db = db.Where("sender_id = ? OR recipient_id = ?", filter.UserID, filter.UserID)
		default:
			db = db.Where("recipient_id = ?", filter.UserID)
		}
		if filter.Type != "" {
			db = db.Where("type = ?", filter.Type)
		}
		if filter.Priority != "" {
			db = db.Where("priority = ?", filter.Priority)
		}
		if filter.Unread != nil {
			db = db.Where("is_read = ?", !*filter.Unread)
		}
		if filter.Search != "" {
			p := likePattern(filter.Search)
			db = db.Where("LOWER(subject) LIKE ? OR LOWER(content) LIKE ?", p, p)
		}
		return db
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.Message{}).Scopes(scope).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var msgs []model.Message
	if err := r.db.WithContext(ctx).Scopes(scope, page.scope).
		Preload("Sender").Preload("Recipient").
		Order("created_at DESC, id DESC").
		Find(&msgs).Error; err != nil {
		return nil, 0, err
	}
	return msgs, total, nil
}

func (r *messageRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Message{}).
		Where("recipient_id = ? AND is_read = ?", userID, false).
		Count(&n).Error
	return n, err
}

func (r *messageRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	return n, r.db.WithContext(ctx).Model(&model.Message{}).Count(&n).Error
}

// WithTransaction executes fn against a repository bound to a single transaction.
func (r *messageRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo MessageRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, &messageRepository{db: tx})
	})
}
