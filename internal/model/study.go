package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Summary struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID  string    `gorm:"type:uuid;not null;index" json:"document_id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	SummaryType string    `gorm:"size:32;not null" json:"summary_type"` // brief, general, detailed
	CreatedAt   time.Time `json:"created_at"`
}

func (s *Summary) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

type FlashcardSet struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID  string    `gorm:"type:uuid;not null;index" json:"document_id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (s *FlashcardSet) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

type Flashcard struct {
	ID             string    `gorm:"type:uuid;primaryKey" json:"id"`
	FlashcardSetID string    `gorm:"type:uuid;not null;index" json:"flashcard_set_id"`
	Front          string    `gorm:"type:text;not null" json:"front"`
	Back           string    `gorm:"type:text;not null" json:"back"`
	Difficulty     string    `gorm:"size:16" json:"difficulty,omitempty"` // easy, medium, hard
	CreatedAt      time.Time `json:"created_at"`
}

func (f *Flashcard) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

type Quiz struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	DocumentID  string    `gorm:"type:uuid;not null;index" json:"document_id"`
	Title       string    `gorm:"size:256;not null" json:"title"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	QuizType    string    `gorm:"size:32;not null" json:"quiz_type"`   // multiple-choice, true-false, short-answer, mixed
	Difficulty  string    `gorm:"size:16;not null" json:"difficulty"`  // easy, medium, hard
	TimeLimit   int       `json:"time_limit,omitempty"`                // seconds
	CreatedAt   time.Time `json:"created_at"`
}

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

type QuizQuestion struct {
	ID            string `gorm:"type:uuid;primaryKey" json:"id"`
	QuizID        string `gorm:"type:uuid;not null;index" json:"quiz_id"`
	QuestionText  string `gorm:"type:text;not null" json:"question_text"`
	QuestionType  string `gorm:"size:32;not null" json:"question_type"` // multiple-choice, true-false, short-answer
	Options       string `gorm:"type:text" json:"-"`                    // JSON array of option strings
	CorrectAnswer string `gorm:"type:text;not null" json:"correct_answer"`
	Explanation   string `gorm:"type:text" json:"explanation,omitempty"`
	SourceChunkID string `gorm:"type:uuid" json:"source_chunk_id,omitempty"`
}

func (q *QuizQuestion) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// OptionList returns the parsed options; nil for non-multiple-choice questions.
func (q *QuizQuestion) OptionList() []string {
	if q.Options == "" {
		return nil
	}
	var v []string
	_ = json.Unmarshal([]byte(q.Options), &v)
	return v
}

// SetOptions stores the options as JSON.
func (q *QuizQuestion) SetOptions(options []string) {
	if len(options) == 0 {
		q.Options = ""
		return
	}
	b, _ := json.Marshal(options)
	q.Options = string(b)
}
