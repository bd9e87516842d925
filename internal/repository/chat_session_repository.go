package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"studyassist/internal/model"
)

type ChatSessionRepository struct {
	db *gorm.DB
}

func NewChatSessionRepository(db *gorm.DB) *ChatSessionRepository {
	return &ChatSessionRepository{db: db}
}

func (r *ChatSessionRepository) Create(session *model.ChatSession) error {
	if err := r.db.Create(session).Error; err != nil {
		return fmt.Errorf("create chat session failed: %w", err)
	}
	return nil
}

// GetByUserAndDocument finds the session for a (user, document) pair. An
// empty documentID targets the user's general chat session.
func (r *ChatSessionRepository) GetByUserAndDocument(userID, documentID string) (*model.ChatSession, error) {
	var session model.ChatSession
	if err := r.db.Where("user_id = ? AND document_id = ?", userID, documentID).First(&session).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get chat session failed: %w", err)
	}
	return &session, nil
}

func (r *ChatSessionRepository) ListByUserID(userID string) ([]model.ChatSession, error) {
	var list []model.ChatSession
	if err := r.db.Where("user_id = ?", userID).Order("updated_at DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("list chat sessions failed: %w", err)
	}
	return list, nil
}

func (r *ChatSessionRepository) Touch(id string) error {
	if err := r.db.Model(&model.ChatSession{}).Where("id = ?", id).Update("updated_at", gorm.Expr("NOW()")).Error; err != nil {
		return fmt.Errorf("touch chat session failed: %w", err)
	}
	return nil
}

func (r *ChatSessionRepository) DeleteByDocumentID(documentID string) error {
	if err := r.db.Where("document_id = ?", documentID).Delete(&model.ChatSession{}).Error; err != nil {
		return fmt.Errorf("delete chat sessions by document failed: %w", err)
	}
	return nil
}
