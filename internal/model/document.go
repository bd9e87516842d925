package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Document struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     string    `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name        string    `gorm:"size:256;not null" json:"name"`
	FilePath    string    `gorm:"size:512;not null" json:"-"`
	FileType    string    `gorm:"size:16;not null" json:"file_type"` // pdf, docx
	FileSize    int64     `gorm:"not null" json:"file_size"`
	NumPages    int       `json:"num_pages,omitempty"`
	TextContent string    `gorm:"type:text" json:"-"`
	Title       string    `gorm:"size:256" json:"title,omitempty"`
	Author      string    `gorm:"size:256" json:"author,omitempty"`
	IsProcessed bool      `gorm:"default:false" json:"is_processed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// DocumentChunk stores one text chunk of a document and its embedding.
// The embedding is kept as a JSON array of float32 for portability.
type DocumentChunk struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID  string    `gorm:"type:uuid;not null;index" json:"document_id"`
	ChunkIndex  int       `gorm:"not null" json:"chunk_index"`
	TextContent string    `gorm:"type:text;not null" json:"text_content"`
	PageNumber  int       `json:"page_number,omitempty"`
	Embedding   string    `gorm:"type:text" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c *DocumentChunk) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (c *DocumentChunk) EmbeddingVector() []float32 {
	if c.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(c.Embedding), &v)
	return v
}

// SetEmbedding stores the embedding as JSON.
func (c *DocumentChunk) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		c.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	c.Embedding = string(b)
}
