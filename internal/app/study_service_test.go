package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"studyassist/internal/model"
)

type fakeDocGetter struct {
	doc *model.Document
}

func (f *fakeDocGetter) GetByIDAndOwnerID(id, ownerID string) (*model.Document, error) {
	if f.doc != nil && f.doc.ID == id && f.doc.OwnerID == ownerID {
		return f.doc, nil
	}
	return nil, nil
}

type fakeStudyStore struct {
	flashcardSet *model.FlashcardSet
	flashcards   []model.Flashcard
	summary      *model.Summary
	quiz         *model.Quiz
	questions    []model.QuizQuestion

	createdSets      int
	createdSummaries int
	createdQuizzes   int
}

func (f *fakeStudyStore) CreateSummary(summary *model.Summary) error {
	f.createdSummaries++
	return nil
}

func (f *fakeStudyStore) CreateFlashcardSet(set *model.FlashcardSet, cards []model.Flashcard) error {
	f.createdSets++
	return nil
}

func (f *fakeStudyStore) CreateQuiz(quiz *model.Quiz, questions []model.QuizQuestion) error {
	f.createdQuizzes++
	return nil
}

func (f *fakeStudyStore) GetFlashcardSetByDocumentID(documentID string) (*model.FlashcardSet, error) {
	return f.flashcardSet, nil
}

func (f *fakeStudyStore) GetSummaryByDocumentIDAndType(documentID, summaryType string) (*model.Summary, error) {
	return f.summary, nil
}

func (f *fakeStudyStore) GetLatestQuizByDocumentID(documentID string) (*model.Quiz, error) {
	return f.quiz, nil
}

func (f *fakeStudyStore) ListFlashcards(setID string) ([]model.Flashcard, error) {
	return f.flashcards, nil
}

func (f *fakeStudyStore) ListQuizQuestions(quizID string) ([]model.QuizQuestion, error) {
	return f.questions, nil
}

func processedDoc() *model.Document {
	return &model.Document{
		ID:          "doc-1",
		OwnerID:     "user-1",
		Name:        "Biology Notes",
		IsProcessed: true,
		TextContent: "Photosynthesis is the process plants use to convert light into energy.",
	}
}

func TestGetQuizReturnsLatestWithQuestions(t *testing.T) {
	store := &fakeStudyStore{
		quiz: &model.Quiz{ID: "quiz-1", DocumentID: "doc-1", Title: "Quiz for Biology Notes"},
		questions: []model.QuizQuestion{
			{ID: "q-1", QuizID: "quiz-1", QuestionText: "What is photosynthesis?"},
			{ID: "q-2", QuizID: "quiz-1", QuestionText: "Plants have roots."},
		},
	}
	s := NewStudyService(&fakeDocGetter{doc: processedDoc()}, store, ProcessingOptions{})

	result, err := s.GetQuiz("user-1", "doc-1")
	require.NoError(t, err)
	require.Equal(t, "quiz-1", result.Quiz.ID)
	require.Len(t, result.Questions, 2)
	require.Equal(t, "What is photosynthesis?", result.Questions[0].QuestionText)
}

func TestGetQuizWithoutStoredQuiz(t *testing.T) {
	s := NewStudyService(&fakeDocGetter{doc: processedDoc()}, &fakeStudyStore{}, ProcessingOptions{})

	_, err := s.GetQuiz("user-1", "doc-1")
	require.ErrorIs(t, err, ErrQuizNotFound)
}

func TestGetQuizUnknownDocument(t *testing.T) {
	s := NewStudyService(&fakeDocGetter{}, &fakeStudyStore{}, ProcessingOptions{})

	_, err := s.GetQuiz("user-1", "doc-missing")
	require.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestGenerateFlashcardsReturnsExistingSet(t *testing.T) {
	store := &fakeStudyStore{
		flashcardSet: &model.FlashcardSet{ID: "set-1", DocumentID: "doc-1"},
		flashcards:   []model.Flashcard{{ID: "card-1", FlashcardSetID: "set-1"}},
	}
	s := NewStudyService(&fakeDocGetter{doc: processedDoc()}, store, ProcessingOptions{})

	result, err := s.GenerateFlashcards(FlashcardsInput{UserID: "user-1", DocumentID: "doc-1"})
	require.NoError(t, err)
	require.Equal(t, "set-1", result.Set.ID)
	require.Len(t, result.Flashcards, 1)
	require.Zero(t, store.createdSets)
}

func TestGenerateSummaryNotProcessed(t *testing.T) {
	doc := processedDoc()
	doc.IsProcessed = false
	s := NewStudyService(&fakeDocGetter{doc: doc}, &fakeStudyStore{}, ProcessingOptions{})

	_, err := s.GenerateSummary(SummaryInput{UserID: "user-1", DocumentID: "doc-1"})
	require.ErrorIs(t, err, ErrDocumentNotProcessed)
}
