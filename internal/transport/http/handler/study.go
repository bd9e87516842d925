package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studyassist/internal/app"
	"studyassist/internal/model"
	"studyassist/internal/transport/http/middleware"
	"studyassist/internal/transport/http/response"
)

type StudyHandler struct {
	studyService *app.StudyService
}

type FlashcardsRequest struct {
	DocumentID string `json:"document_id" binding:"required"`
	NumCards   int    `json:"num_cards"`
	Difficulty string `json:"difficulty"`
}

type SummaryRequest struct {
	DocumentID  string `json:"document_id" binding:"required"`
	SummaryType string `json:"summary_type"`
	MaxLength   int    `json:"max_length"`
}

type QuizRequest struct {
	DocumentID   string `json:"document_id" binding:"required"`
	NumQuestions int    `json:"num_questions"`
	QuizType     string `json:"quiz_type"`
	Difficulty   string `json:"difficulty"`
	TimeLimit    int    `json:"time_limit"`
}

func NewStudyHandler(studyService *app.StudyService) *StudyHandler {
	return &StudyHandler{studyService: studyService}
}

func (h *StudyHandler) GenerateFlashcards(c *gin.Context) {
	var req FlashcardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.studyService.GenerateFlashcards(app.FlashcardsInput{
		UserID:     middleware.UserID(c),
		DocumentID: req.DocumentID,
		NumCards:   req.NumCards,
		Difficulty: req.Difficulty,
	})
	if err != nil {
		h.writeStudyError(c, err, "generate flashcards failed")
		return
	}
	response.OK(c, result)
}

func (h *StudyHandler) GenerateSummary(c *gin.Context) {
	var req SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	summary, err := h.studyService.GenerateSummary(app.SummaryInput{
		UserID:      middleware.UserID(c),
		DocumentID:  req.DocumentID,
		SummaryType: req.SummaryType,
		MaxLength:   req.MaxLength,
	})
	if err != nil {
		h.writeStudyError(c, err, "generate summary failed")
		return
	}
	response.OK(c, summary)
}

func (h *StudyHandler) GenerateQuiz(c *gin.Context) {
	var req QuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.studyService.GenerateQuiz(app.QuizInput{
		UserID:       middleware.UserID(c),
		DocumentID:   req.DocumentID,
		NumQuestions: req.NumQuestions,
		QuizType:     req.QuizType,
		Difficulty:   req.Difficulty,
		TimeLimit:    req.TimeLimit,
	})
	if err != nil {
		h.writeStudyError(c, err, "generate quiz failed")
		return
	}

	questions := make([]gin.H, len(result.Questions))
	for i := range result.Questions {
		questions[i] = questionView(&result.Questions[i])
	}
	response.OK(c, gin.H{
		"quiz":      result.Quiz,
		"questions": questions,
	})
}

// GetQuiz returns the latest stored quiz for a document without
// generating a new one.
func (h *StudyHandler) GetQuiz(c *gin.Context) {
	result, err := h.studyService.GetQuiz(middleware.UserID(c), c.Param("documentID"))
	if err != nil {
		h.writeStudyError(c, err, "fetch quiz failed")
		return
	}

	questions := make([]gin.H, len(result.Questions))
	for i := range result.Questions {
		questions[i] = questionView(&result.Questions[i])
	}
	response.OK(c, gin.H{
		"quiz":      result.Quiz,
		"questions": questions,
	})
}

func (h *StudyHandler) writeStudyError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrDocumentNotFound), errors.Is(err, app.ErrQuizNotFound):
		response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
	case errors.Is(err, app.ErrDocumentNotProcessed), errors.Is(err, app.ErrInvalidInput):
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
	default:
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

// questionView expands the stored option JSON so clients get a real
// list instead of an encoded string.
func questionView(q *model.QuizQuestion) gin.H {
	return gin.H{
		"id":             q.ID,
		"quiz_id":        q.QuizID,
		"question_text":  q.QuestionText,
		"question_type":  q.QuestionType,
		"options":        q.OptionList(),
		"correct_answer": q.CorrectAnswer,
		"explanation":    q.Explanation,
	}
}
