package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ConversationMessage is one encrypted stored turn. Chat and the role are
// stored ciphertext; plaintext never touches the database.
type ConversationMessage struct {
	Id        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserId    string    `gorm:"index:idx_conversation_user_session"`
	SessionId string    `gorm:"index:idx_conversation_user_session"`
	Role      string
	Content   string         `gorm:"type:text"`
	Metadata  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time
}

func (ConversationMessage) TableName() string {
	return "conversation_messages"
}
