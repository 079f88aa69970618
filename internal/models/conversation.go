package models

import (
	"time"

	"gorm.io/datatypes"
)

type Conversation struct {
	ID         string    `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID     string    `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	Title      string    `gorm:"column:title;type:text" json:"title"`
	IsArchived bool      `gorm:"column:is_archived" json:"is_archived"`
	CreatedAt  time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;index" json:"updated_at"`
}

func (Conversation) TableName() string { return "conversations" }

// Message is one persisted turn of a conversation. Immutable once created;
// ordered by created_at within its conversation.
type Message struct {
	ID             string         `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	ConversationID string         `gorm:"column:conversation_id;type:uuid;index" json:"conversation_id"`
	Role           string         `gorm:"column:role;type:text" json:"role"` // "user" | "assistant" | "system"
	Content        string         `gorm:"column:content;type:text" json:"content"`
	Metadata       datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`
	CreatedAt      time.Time      `gorm:"column:created_at;index" json:"created_at"`
}

func (Message) TableName() string { return "messages" }
