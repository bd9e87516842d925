package app

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"studyassist/internal/model"
	"studyassist/internal/study"
)

var (
	ErrDocumentNotProcessed = errors.New("document is not processed yet")
	ErrQuizNotFound         = errors.New("no quiz generated for this document")
)

// DocumentGetter resolves a document scoped to its owner;
// *repository.DocumentRepository satisfies it.
type DocumentGetter interface {
	GetByIDAndOwnerID(id, ownerID string) (*model.Document, error)
}

// StudyStore persists generated study material;
// *repository.StudyRepository satisfies it.
type StudyStore interface {
	CreateSummary(summary *model.Summary) error
	CreateFlashcardSet(set *model.FlashcardSet, cards []model.Flashcard) error
	CreateQuiz(quiz *model.Quiz, questions []model.QuizQuestion) error
	GetFlashcardSetByDocumentID(documentID string) (*model.FlashcardSet, error)
	GetSummaryByDocumentIDAndType(documentID, summaryType string) (*model.Summary, error)
	GetLatestQuizByDocumentID(documentID string) (*model.Quiz, error)
	ListFlashcards(setID string) ([]model.Flashcard, error)
	ListQuizQuestions(quizID string) ([]model.QuizQuestion, error)
}

// StudyService generates and persists flashcards, summaries and quizzes
// for a document.
type StudyService struct {
	docRepo   DocumentGetter
	studyRepo StudyStore
	rng       *rand.Rand
	opts      ProcessingOptions
}

type FlashcardsInput struct {
	UserID     string
	DocumentID string
	NumCards   int
	Difficulty string
}

type FlashcardSetResult struct {
	Set        *model.FlashcardSet `json:"set"`
	Flashcards []model.Flashcard   `json:"flashcards"`
}

type SummaryInput struct {
	UserID      string
	DocumentID  string
	SummaryType string // brief, general, detailed
	MaxLength   int
}

type QuizInput struct {
	UserID       string
	DocumentID   string
	NumQuestions int
	QuizType     string
	Difficulty   string
	TimeLimit    int
}

type QuizResult struct {
	Quiz      *model.Quiz          `json:"quiz"`
	Questions []model.QuizQuestion `json:"questions"`
}

func NewStudyService(docRepo DocumentGetter, studyRepo StudyStore, opts ProcessingOptions) *StudyService {
	return &StudyService{
		docRepo:   docRepo,
		studyRepo: studyRepo,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		opts:      opts,
	}
}

// GenerateFlashcards is idempotent per document: an existing set is
// returned instead of generating a new one.
func (s *StudyService) GenerateFlashcards(input FlashcardsInput) (*FlashcardSetResult, error) {
	doc, err := s.loadDocument(input.UserID, input.DocumentID)
	if err != nil {
		return nil, err
	}

	existing, err := s.studyRepo.GetFlashcardSetByDocumentID(doc.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		cards, err := s.studyRepo.ListFlashcards(existing.ID)
		if err != nil {
			return nil, err
		}
		return &FlashcardSetResult{Set: existing, Flashcards: cards}, nil
	}

	generated := study.GenerateFlashcards(doc.TextContent, input.NumCards, input.Difficulty)

	set := &model.FlashcardSet{
		DocumentID:  doc.ID,
		Title:       fmt.Sprintf("Flashcards for %s", doc.Name),
		Description: fmt.Sprintf("Generated flashcards for %s", doc.Name),
	}
	cards := make([]model.Flashcard, len(generated))
	for i, c := range generated {
		cards[i] = model.Flashcard{
			Front:      c.Front,
			Back:       c.Back,
			Difficulty: c.Difficulty,
		}
	}
	if err := s.studyRepo.CreateFlashcardSet(set, cards); err != nil {
		return nil, err
	}
	return &FlashcardSetResult{Set: set, Flashcards: cards}, nil
}

// GenerateSummary persists one summary per (document, type); repeat
// requests for the same type return the stored one.
func (s *StudyService) GenerateSummary(input SummaryInput) (*model.Summary, error) {
	doc, err := s.loadDocument(input.UserID, input.DocumentID)
	if err != nil {
		return nil, err
	}

	summaryType := strings.TrimSpace(input.SummaryType)
	if summaryType == "" {
		summaryType = "general"
	}

	existing, err := s.studyRepo.GetSummaryByDocumentIDAndType(doc.ID, summaryType)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	result := study.GenerateSummary(doc.TextContent, summaryType, input.MaxLength, s.opts.Multilingual)
	summary := &model.Summary{
		DocumentID:  doc.ID,
		Title:       result.Title,
		Content:     result.Render(),
		SummaryType: result.SummaryType,
	}
	if err := s.studyRepo.CreateSummary(summary); err != nil {
		return nil, err
	}
	return summary, nil
}

func (s *StudyService) GenerateQuiz(input QuizInput) (*QuizResult, error) {
	doc, err := s.loadDocument(input.UserID, input.DocumentID)
	if err != nil {
		return nil, err
	}

	result := study.GenerateQuiz(doc.TextContent, input.NumQuestions, input.QuizType, input.Difficulty, s.rng, s.opts.Multilingual)

	quiz := &model.Quiz{
		DocumentID:  doc.ID,
		Title:       fmt.Sprintf("Quiz for %s", doc.Name),
		Description: result.Description,
		QuizType:    result.QuizType,
		Difficulty:  result.Difficulty,
		TimeLimit:   input.TimeLimit,
	}
	questions := make([]model.QuizQuestion, len(result.Questions))
	for i, q := range result.Questions {
		questions[i] = model.QuizQuestion{
			QuestionText:  q.Text,
			QuestionType:  q.Type,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
		questions[i].SetOptions(q.Options)
	}
	if err := s.studyRepo.CreateQuiz(quiz, questions); err != nil {
		return nil, err
	}
	return &QuizResult{Quiz: quiz, Questions: questions}, nil
}

// GetQuiz returns the most recently generated quiz for a document with
// its stored questions. Fetching does not require the document text, so
// an unprocessed document is not an error here.
func (s *StudyService) GetQuiz(userID, documentID string) (*QuizResult, error) {
	if userID == "" || documentID == "" {
		return nil, ErrInvalidInput
	}
	doc, err := s.docRepo.GetByIDAndOwnerID(documentID, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	quiz, err := s.studyRepo.GetLatestQuizByDocumentID(doc.ID)
	if err != nil {
		return nil, err
	}
	if quiz == nil {
		return nil, ErrQuizNotFound
	}
	questions, err := s.studyRepo.ListQuizQuestions(quiz.ID)
	if err != nil {
		return nil, err
	}
	return &QuizResult{Quiz: quiz, Questions: questions}, nil
}

func (s *StudyService) loadDocument(userID, documentID string) (*model.Document, error) {
	if userID == "" || documentID == "" {
		return nil, ErrInvalidInput
	}
	doc, err := s.docRepo.GetByIDAndOwnerID(documentID, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	if !doc.IsProcessed || strings.TrimSpace(doc.TextContent) == "" {
		return nil, ErrDocumentNotProcessed
	}
	return doc, nil
}
