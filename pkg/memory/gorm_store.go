package memory

import (
	"context"
	"fmt"
	"time"

	"lumir-agentic-be/internal/entity"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GormStore persists conversation history in Postgres with per-session
// encrypted content. The *gorm.DB carries the connection pool; it is
// constructed once at process start and shared by reference.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&entity.ConversationMessage{}); err != nil {
		return nil, fmt.Errorf("migrate conversation messages: %w", err)
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) GetHistory(ctx context.Context, userID, sessionID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []entity.ConversationMessage
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND session_id = ?", userID, sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	// Rows come newest-first; callers want oldest-first.
	out := make([]Message, 0, len(rows))
	for i := len(rows) - 1; i >= 0; i-- {
		row := rows[i]
		content, err := decryptMessage(sessionID, row.Content)
		if err != nil {
			// An undecryptable row is skipped, not fatal; the rest of
			// the history is still useful.
			continue
		}
		out = append(out, Message{
			Role:      row.Role,
			Content:   content,
			Timestamp: row.CreatedAt,
		})
	}
	return out, nil
}

func (s *GormStore) SaveHistory(ctx context.Context, userID, sessionID, userMessage, assistantMessage string) error {
	now := time.Now()

	userContent, err := encryptMessage(sessionID, userMessage)
	if err != nil {
		return fmt.Errorf("encrypt user message: %w", err)
	}
	assistantContent, err := encryptMessage(sessionID, assistantMessage)
	if err != nil {
		return fmt.Errorf("encrypt assistant message: %w", err)
	}

	rows := []entity.ConversationMessage{
		{
			Id:        uuid.New(),
			UserId:    userID,
			SessionId: sessionID,
			Role:      "user",
			Content:   userContent,
			Metadata:  datatypes.JSON([]byte(`{}`)),
			CreatedAt: now,
		},
		{
			Id:        uuid.New(),
			UserId:    userID,
			SessionId: sessionID,
			Role:      "assistant",
			Content:   assistantContent,
			Metadata:  datatypes.JSON([]byte(`{}`)),
			CreatedAt: now.Add(time.Millisecond),
		},
	}

	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return fmt.Errorf("save history: %w", err)
	}
	return nil
}
