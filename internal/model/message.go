package model

import "time"

type MessageType string

const (
	MessagePersonal  MessageType = "personal"
	MessageMinistry  MessageType = "ministry"
	MessageBroadcast MessageType = "broadcast"
)

type MessagePriority string

const (
	MessageLow    MessagePriority = "low"
	MessageNormal MessagePriority = "normal"
	MessageHigh   MessagePriority = "high"
	MessageUrgent MessagePriority = "urgent"
)

// Message is one delivered copy of a message. Ministry messages and broadcasts
// are stored as one row per recipient.
type Message struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	Subject         string          `json:"subject" gorm:"size:255;not null"`
	Content         string          `json:"content" gorm:"type:text;not null"`
	Type            MessageType     `json:"type" gorm:"type:varchar(20);not null;default:personal;index"`
	Priority        MessagePriority `json:"priority" gorm:"type:varchar(20);not null;default:normal"`
	IsRead          bool            `json:"is_read" gorm:"default:false;index"`
	ReadAt          *time.Time      `json:"read_at,omitempty"`
	SenderID        uint            `json:"sender_id" gorm:"not null;index"`
	RecipientID     *uint           `json:"recipient_id,omitempty" gorm:"index"`
	MinistryID      *uint           `json:"ministry_id,omitempty" gorm:"index"`
	ParentMessageID *uint           `json:"parent_message_id,omitempty" gorm:"index"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Sender    *User     `json:"sender,omitempty" gorm:"foreignKey:SenderID;constraint:OnDelete:CASCADE"`
	Recipient *User     `json:"recipient,omitempty" gorm:"foreignKey:RecipientID;constraint:OnDelete:CASCADE"`
	Ministry  *Ministry `json:"ministry,omitempty" gorm:"foreignKey:MinistryID;constraint:OnDelete:SET NULL"`
	Parent    *Message  `json:"parent,omitempty" gorm:"foreignKey:ParentMessageID;constraint:OnDelete:SET NULL"`
}

// IsParticipant reports whether userID sent or received the message.
func (m *Message) IsParticipant(userID uint) bool {
	return m.SenderID == userID || (m.RecipientID != nil && *m.RecipientID == userID)
}
