package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SenderUser = "user"
	SenderBot  = "bot"
)

// ChatSession groups messages between a user and the assistant. A session
// with an empty DocumentID is the user's general chat.
type ChatSession struct {
	ID         string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;index" json:"user_id"`
	DocumentID string    `gorm:"type:uuid;index" json:"document_id,omitempty"`
	Name       string    `gorm:"size:256" json:"name"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (s *ChatSession) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// SourceChunk is a citation attached to a bot message: the chunk the answer
// was grounded on.
type SourceChunk struct {
	ChunkID string  `json:"chunk_id"`
	Text    string  `json:"text"`
	Page    int     `json:"page,omitempty"`
	Score   float32 `json:"score"`
}

type ChatMessage struct {
	ID            string    `gorm:"type:uuid;primaryKey" json:"id"`
	ChatSessionID string    `gorm:"type:uuid;not null;index" json:"chat_session_id"`
	Sender        string    `gorm:"size:16;not null" json:"sender"` // user, bot
	Text          string    `gorm:"type:text;not null" json:"text"`
	SourceChunks  string    `gorm:"type:text" json:"source_chunks,omitempty"` // JSON array of SourceChunk
	Timestamp     time.Time `gorm:"autoCreateTime" json:"timestamp"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Sources returns the parsed citations; nil when the message has none.
func (m *ChatMessage) Sources() []SourceChunk {
	if m.SourceChunks == "" {
		return nil
	}
	var v []SourceChunk
	_ = json.Unmarshal([]byte(m.SourceChunks), &v)
	return v
}

// SetSources stores the citations as JSON.
func (m *ChatMessage) SetSources(chunks []SourceChunk) {
	if len(chunks) == 0 {
		m.SourceChunks = ""
		return
	}
	b, _ := json.Marshal(chunks)
	m.SourceChunks = string(b)
}
