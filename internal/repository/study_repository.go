package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"studyassist/internal/model"
)

// StudyRepository persists generated study material: summaries, flashcard
// sets and quizzes, each tied to a document.
type StudyRepository struct {
	db *gorm.DB
}

func NewStudyRepository(db *gorm.DB) *StudyRepository {
	return &StudyRepository{db: db}
}

func (r *StudyRepository) CreateSummary(summary *model.Summary) error {
	if err := r.db.Create(summary).Error; err != nil {
		return fmt.Errorf("create summary failed: %w", err)
	}
	return nil
}

func (r *StudyRepository) CreateFlashcardSet(set *model.FlashcardSet, cards []model.Flashcard) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(set).Error; err != nil {
			return err
		}
		for i := range cards {
			cards[i].FlashcardSetID = set.ID
		}
		if len(cards) > 0 {
			if err := tx.Create(&cards).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create flashcard set failed: %w", err)
	}
	return nil
}

func (r *StudyRepository) CreateQuiz(quiz *model.Quiz, questions []model.QuizQuestion) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(quiz).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].QuizID = quiz.ID
		}
		if len(questions) > 0 {
			if err := tx.Create(&questions).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("create quiz failed: %w", err)
	}
	return nil
}

func (r *StudyRepository) GetFlashcardSetByDocumentID(documentID string) (*model.FlashcardSet, error) {
	var set model.FlashcardSet
	if err := r.db.Where("document_id = ?", documentID).First(&set).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get flashcard set failed: %w", err)
	}
	return &set, nil
}

func (r *StudyRepository) GetSummaryByDocumentIDAndType(documentID, summaryType string) (*model.Summary, error) {
	var summary model.Summary
	if err := r.db.Where("document_id = ? AND summary_type = ?", documentID, summaryType).First(&summary).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get summary failed: %w", err)
	}
	return &summary, nil
}

func (r *StudyRepository) GetLatestQuizByDocumentID(documentID string) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := r.db.Where("document_id = ?", documentID).Order("created_at DESC").First(&quiz).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest quiz failed: %w", err)
	}
	return &quiz, nil
}

func (r *StudyRepository) ListFlashcards(setID string) ([]model.Flashcard, error) {
	var cards []model.Flashcard
	if err := r.db.Where("flashcard_set_id = ?", setID).Find(&cards).Error; err != nil {
		return nil, fmt.Errorf("list flashcards failed: %w", err)
	}
	return cards, nil
}

func (r *StudyRepository) ListQuizQuestions(quizID string) ([]model.QuizQuestion, error) {
	var questions []model.QuizQuestion
	if err := r.db.Where("quiz_id = ?", quizID).Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("list quiz questions failed: %w", err)
	}
	return questions, nil
}

func (r *StudyRepository) DeleteByDocumentID(documentID string) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var setIDs []string
		if err := tx.Model(&model.FlashcardSet{}).Where("document_id = ?", documentID).Pluck("id", &setIDs).Error; err != nil {
			return err
		}
		if len(setIDs) > 0 {
			if err := tx.Where("flashcard_set_id IN ?", setIDs).Delete(&model.Flashcard{}).Error; err != nil {
				return err
			}
		}
		var quizIDs []string
		if err := tx.Model(&model.Quiz{}).Where("document_id = ?", documentID).Pluck("id", &quizIDs).Error; err != nil {
			return err
		}
		if len(quizIDs) > 0 {
			if err := tx.Where("quiz_id IN ?", quizIDs).Delete(&model.QuizQuestion{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("document_id = ?", documentID).Delete(&model.FlashcardSet{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", documentID).Delete(&model.Quiz{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", documentID).Delete(&model.Summary{}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete study material by document failed: %w", err)
	}
	return nil
}
