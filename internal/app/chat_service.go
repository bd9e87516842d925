package app

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyassist/internal/ai"
	"studyassist/internal/logger"
	"studyassist/internal/model"
	"studyassist/internal/repository"
	"studyassist/internal/textutil"
	"studyassist/internal/vectorstore"
)

var (
	ErrSessionNotFound   = errors.New("chat session not found")
	ErrNoChatHistory     = errors.New("no chat history found")
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// Intent patterns checked before retrieval, original order preserved:
// summary first, then flashcards, then quiz.
var (
	summaryIntentRe   = regexp.MustCompile(`\b(summarize|summary|summarization)\b`)
	flashcardIntentRe = regexp.MustCompile(`\b(flashcard|flash card|card)\b`)
	quizIntentRe      = regexp.MustCompile(`\b(quiz|question|test)\b`)
)

const emptyQueryReply = "I'm sorry, I couldn't understand your query. Could you please rephrase it?"

type AsyncMessagePublisher interface {
	Publish(ctx context.Context, msg model.ChatMessage) error
}

type HistoryCache interface {
	GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, bool, error)
	SetHistory(ctx context.Context, sessionID string, messages []model.ChatMessage) error
	DeleteHistory(ctx context.Context, sessionID string) error
	MarkDirty(ctx context.Context, sessionID string) error
	IsDirty(ctx context.Context, sessionID string) (bool, error)
}

// ChatMessageStore is the message persistence surface the chat service
// needs; *repository.ChatMessageRepository satisfies it.
type ChatMessageStore interface {
	Create(message *model.ChatMessage) error
	CreateBatch(messages []model.ChatMessage) error
	ListBySessionID(sessionID string, limit int) ([]model.ChatMessage, error)
	ListRecentBySessionID(sessionID string, limit int) ([]model.ChatMessage, error)
	DeleteBySessionID(sessionID string) error
}

type ChatService struct {
	sessionRepo  *repository.ChatSessionRepository
	messageRepo  ChatMessageStore
	docRepo      *repository.DocumentRepository
	store        vectorstore.Store
	embedder     ai.Embedder
	completer    ai.Completer // nil when the provider is local
	publisher    AsyncMessagePublisher
	historyCache HistoryCache
	opts         ProcessingOptions
	maxContext   int
	multilingual bool
}

type SendMessageInput struct {
	UserID     string
	DocumentID string // empty = general chat
	Message    string
}

type SendMessageResult struct {
	SessionID    string              `json:"session_id"`
	Message      string              `json:"message"`
	SourceChunks []model.SourceChunk `json:"source_chunks,omitempty"`
	DocumentID   string              `json:"document_id,omitempty"`
}

// HistoryResult is a session with its messages; the session may be
// synthesized when the user never chatted about the document.
type HistoryResult struct {
	Session  *model.ChatSession  `json:"session"`
	Messages []model.ChatMessage `json:"messages"`
}

type SaveHistoryInput struct {
	UserID     string
	DocumentID string
	Messages   []SavedMessage
}

type SavedMessage struct {
	Sender       string              `json:"sender"`
	Text         string              `json:"text"`
	SourceChunks []model.SourceChunk `json:"source_chunks,omitempty"`
	Timestamp    time.Time           `json:"timestamp,omitempty"`
}

// Transcript is an export-ready plain text rendering of a session.
type Transcript struct {
	Filename string
	Content  string
}

func NewChatService(
	sessionRepo *repository.ChatSessionRepository,
	messageRepo ChatMessageStore,
	docRepo *repository.DocumentRepository,
	store vectorstore.Store,
	embedder ai.Embedder,
	completer ai.Completer,
	publisher AsyncMessagePublisher,
	historyCache HistoryCache,
	opts ProcessingOptions,
	maxContext int,
) *ChatService {
	if maxContext <= 0 {
		maxContext = 10
	}
	return &ChatService{
		sessionRepo:  sessionRepo,
		messageRepo:  messageRepo,
		docRepo:      docRepo,
		store:        store,
		embedder:     embedder,
		completer:    completer,
		publisher:    publisher,
		historyCache: historyCache,
		opts:         opts,
		maxContext:   maxContext,
		multilingual: opts.Multilingual,
	}
}

// SendMessage persists the user's message, builds a reply and persists
// it. Persistence goes through the queue when a publisher is wired.
func (s *ChatService) SendMessage(ctx context.Context, input SendMessageInput) (*SendMessageResult, error) {
	return s.send(ctx, input, nil)
}

// StreamMessage is SendMessage with the reply delivered through onChunk
// as it is generated. Replies that never reach the LLM produce no
// deltas and are emitted whole at the end.
func (s *ChatService) StreamMessage(ctx context.Context, input SendMessageInput, onChunk func(string) error) (*SendMessageResult, error) {
	streamed := false
	result, err := s.send(ctx, input, func(chunk string) error {
		streamed = true
		return onChunk(chunk)
	})
	if err != nil {
		return nil, err
	}
	if !streamed {
		if err := onChunk(result.Message); err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (s *ChatService) send(ctx context.Context, input SendMessageInput, onChunk func(string) error) (*SendMessageResult, error) {
	if input.UserID == "" {
		return nil, ErrInvalidInput
	}

	var doc *model.Document
	if input.DocumentID != "" {
		var err error
		doc, err = s.docRepo.GetByIDAndOwnerID(input.DocumentID, input.UserID)
		if err != nil {
			return nil, err
		}
		if doc == nil {
			return nil, ErrDocumentNotFound
		}
	}

	session, err := s.resolveSession(input.UserID, doc)
	if err != nil {
		return nil, err
	}

	userMsg := model.ChatMessage{
		ID:            uuid.NewString(),
		ChatSessionID: session.ID,
		Sender:        model.SenderUser,
		Text:          input.Message,
		Timestamp:     time.Now(),
	}
	if err := s.persistMessage(ctx, session.ID, userMsg); err != nil {
		return nil, err
	}

	reply, sources := s.buildReply(ctx, input.UserID, session.ID, doc, input.Message, onChunk)

	botMsg := model.ChatMessage{
		ID:            uuid.NewString(),
		ChatSessionID: session.ID,
		Sender:        model.SenderBot,
		Text:          reply,
		Timestamp:     time.Now(),
	}
	botMsg.SetSources(sources)
	if err := s.persistMessage(ctx, session.ID, botMsg); err != nil {
		return nil, err
	}
	_ = s.sessionRepo.Touch(session.ID)

	return &SendMessageResult{
		SessionID:    session.ID,
		Message:      reply,
		SourceChunks: sources,
		DocumentID:   input.DocumentID,
	}, nil
}

// GetHistory returns the session and messages for a document chat. When
// no session exists yet an unsaved empty one is returned.
func (s *ChatService) GetHistory(ctx context.Context, userID, documentID string, limit int) (*HistoryResult, error) {
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

	session, err := s.sessionRepo.GetByUserAndDocument(userID, documentID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return &HistoryResult{
			Session: &model.ChatSession{
				UserID:     userID,
				DocumentID: documentID,
				Name:       fmt.Sprintf("Chat with %s", doc.Name),
			},
			Messages: []model.ChatMessage{},
		}, nil
	}

	messages, err := s.historyMessages(ctx, session.ID, limit)
	if err != nil {
		return nil, err
	}
	return &HistoryResult{Session: session, Messages: messages}, nil
}

// historyMessages serves a session's messages through the cache. Only
// the full fetch is cached; a limited request must not leave a
// truncated copy behind for later readers.
func (s *ChatService) historyMessages(ctx context.Context, sessionID string, limit int) ([]model.ChatMessage, error) {
	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx, sessionID)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx, sessionID); cacheErr == nil && hit {
				return trimMessages(cached, limit), nil
			}
		}
	}

	messages, err := s.messageRepo.ListBySessionID(sessionID, 0)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx, sessionID); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, sessionID, messages)
		}
	}
	return trimMessages(messages, limit), nil
}

// SaveHistory replaces a document session's messages wholesale.
func (s *ChatService) SaveHistory(ctx context.Context, input SaveHistoryInput) error {
	if input.UserID == "" || input.DocumentID == "" {
		return ErrInvalidInput
	}
	doc, err := s.docRepo.GetByIDAndOwnerID(input.DocumentID, input.UserID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	session, err := s.resolveSession(input.UserID, doc)
	if err != nil {
		return err
	}

	if err := s.messageRepo.DeleteBySessionID(session.ID); err != nil {
		return err
	}

	messages := make([]model.ChatMessage, 0, len(input.Messages))
	for _, m := range input.Messages {
		msg := model.ChatMessage{
			ChatSessionID: session.ID,
			Sender:        m.Sender,
			Text:          m.Text,
			Timestamp:     m.Timestamp,
		}
		if msg.Timestamp.IsZero() {
			msg.Timestamp = time.Now()
		}
		msg.SetSources(m.SourceChunks)
		messages = append(messages, msg)
	}
	if err := s.messageRepo.CreateBatch(messages); err != nil {
		return err
	}

	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(ctx, session.ID)
	}
	return nil
}

// ExportTranscript renders the session as a plain text attachment. Only
// the txt format is supported.
func (s *ChatService) ExportTranscript(userID, documentID, format string) (*Transcript, error) {
	if userID == "" || documentID == "" {
		return nil, ErrInvalidInput
	}
	if format == "" {
		format = "txt"
	}
	if strings.ToLower(format) != "txt" {
		return nil, ErrUnsupportedFormat
	}

	doc, err := s.docRepo.GetByIDAndOwnerID(documentID, userID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}

	session, err := s.sessionRepo.GetByUserAndDocument(userID, documentID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrNoChatHistory
	}

	messages, err := s.messageRepo.ListBySessionID(session.ID, 0)
	if err != nil {
		return nil, err
	}
	if len(messages) == 0 {
		return nil, ErrNoChatHistory
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Chat Transcript: %s\n", session.Name))
	sb.WriteString(fmt.Sprintf("Document: %s\n", doc.Name))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().UTC().Format("2006-01-02 15:04:05")))
	for _, m := range messages {
		sender := "You"
		if m.Sender == model.SenderBot {
			sender = "AI"
		}
		sb.WriteString(fmt.Sprintf("[%s] %s: %s\n\n", m.Timestamp.Format("2006-01-02 15:04:05"), sender, m.Text))
	}

	return &Transcript{
		Filename: fmt.Sprintf("chat_transcript_%s.txt", documentID),
		Content:  sb.String(),
	}, nil
}

// resolveSession finds the session for (user, document), creating one
// with the conventional name on first use. A nil doc is the general
// chat.
func (s *ChatService) resolveSession(userID string, doc *model.Document) (*model.ChatSession, error) {
	documentID := ""
	name := "General Chat"
	if doc != nil {
		documentID = doc.ID
		name = fmt.Sprintf("Chat with %s", doc.Name)
	}

	session, err := s.sessionRepo.GetByUserAndDocument(userID, documentID)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}

	session = &model.ChatSession{
		UserID:     userID,
		DocumentID: documentID,
		Name:       name,
	}
	if err := s.sessionRepo.Create(session); err != nil {
		return nil, err
	}
	return session, nil
}

// persistMessage enqueues the message and invalidates the cached
// history; without a publisher it writes straight to the database.
func (s *ChatService) persistMessage(ctx context.Context, sessionID string, msg model.ChatMessage) error {
	if s.historyCache != nil {
		_ = s.historyCache.MarkDirty(ctx, sessionID)
		_ = s.historyCache.DeleteHistory(ctx, sessionID)
	}
	if s.publisher != nil {
		err := s.publisher.Publish(ctx, msg)
		if err == nil {
			return nil
		}
		logger.Warnf("enqueue chat message failed, writing directly: %v", err)
	}
	return s.messageRepo.Create(&msg)
}

// buildReply routes the query: intent shortcuts first, then retrieval.
// A non-nil onChunk receives completion deltas as they arrive; replies
// that never reach the LLM produce no deltas.
func (s *ChatService) buildReply(ctx context.Context, userID, sessionID string, doc *model.Document, query string, onChunk func(string) error) (string, []model.SourceChunk) {
	cleaned := textutil.CleanText(query)
	if cleaned == "" {
		return emptyQueryReply, nil
	}
	lower := strings.ToLower(cleaned)

	switch {
	case summaryIntentRe.MatchString(lower):
		return s.summaryReply(doc), nil
	case flashcardIntentRe.MatchString(lower):
		return "I can create flashcards from this document. Use the flashcard study tool to generate a set of cards from its key concepts and definitions.", nil
	case quizIntentRe.MatchString(lower):
		return "I can quiz you on this document. Use the quiz study tool to generate multiple-choice, true/false, or short-answer questions from its content.", nil
	}

	return s.retrievalReply(ctx, userID, sessionID, doc, cleaned, onChunk)
}

func (s *ChatService) summaryReply(doc *model.Document) string {
	if doc == nil || strings.TrimSpace(doc.TextContent) == "" {
		return "Upload a document and ask again, and I'll summarize it for you."
	}
	summary := textutil.ExtractiveSummary(doc.TextContent, 500, s.multilingual)
	return "Here's a summary of the document:\n\n" + summary
}

// retrievalReply embeds the query, searches the vector store and asks
// the LLM for an answer over the retrieved context. With no completer
// configured (or on failure) it falls back to an extractive answer.
func (s *ChatService) retrievalReply(ctx context.Context, userID, sessionID string, doc *model.Document, query string, onChunk func(string) error) (string, []model.SourceChunk) {
	var docIDs []string
	if doc != nil {
		docIDs = []string{doc.ID}
	} else {
		docs, err := s.docRepo.ListByOwnerID(userID)
		if err != nil || len(docs) == 0 {
			return "I don't have any documents to search yet. Upload a PDF or Word document and ask me about it.", nil
		}
		for _, d := range docs {
			docIDs = append(docIDs, d.ID)
		}
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		logger.Errorf("embed query failed: %v", err)
		return "I ran into a problem searching the documents. Please try again.", nil
	}

	hits, err := s.store.Search(ctx, queryVec, docIDs, s.opts.TopK)
	if err != nil {
		logger.Errorf("vector search failed: %v", err)
		return "I ran into a problem searching the documents. Please try again.", nil
	}

	var sources []model.SourceChunk
	var contextTexts []string
	for _, hit := range hits {
		for _, c := range hit.Chunks {
			sources = append(sources, model.SourceChunk{
				ChunkID: c.ChunkID,
				Text:    c.Text,
				Page:    c.Page,
				Score:   c.Score,
			})
			contextTexts = append(contextTexts, c.Text)
		}
	}
	if len(contextTexts) == 0 {
		return "I couldn't find anything relevant in the documents for that question.", nil
	}

	if s.completer != nil {
		answer, err := s.complete(ctx, sessionID, query, contextTexts, onChunk)
		if err == nil && strings.TrimSpace(answer) != "" {
			return strings.TrimSpace(answer), sources
		}
		if err != nil {
			logger.Warnf("llm completion failed, falling back to extractive answer: %v", err)
		}
	}
	return s.extractiveAnswer(contextTexts), sources
}

// complete folds up to maxContext recent session messages into the
// prompt so follow-up questions keep their conversational context.
func (s *ChatService) complete(ctx context.Context, sessionID, query string, contextTexts []string, onChunk func(string) error) (string, error) {
	recent, err := s.messageRepo.ListRecentBySessionID(sessionID, s.maxContext)
	if err != nil {
		logger.Warnf("load chat context failed, answering without history: %v", err)
		recent = nil
	}
	messages := promptMessages(recent, query, contextTexts)

	if onChunk != nil {
		if streamer, ok := s.completer.(ai.StreamCompleter); ok {
			return streamer.StreamComplete(ctx, messages, onChunk)
		}
	}
	return s.completer.Complete(ctx, messages)
}

// promptMessages assembles the completion request: system prompt,
// recent turns, then the retrieved context with the current question.
// The current query is already persisted, so a trailing copy of it is
// dropped from the history.
func promptMessages(recent []model.ChatMessage, query string, contextTexts []string) []ai.ChatMessage {
	if n := len(recent); n > 0 && recent[n-1].Sender == model.SenderUser && textutil.CleanText(recent[n-1].Text) == query {
		recent = recent[:n-1]
	}

	var block strings.Builder
	for _, t := range contextTexts {
		block.WriteString("\n---\n")
		block.WriteString(t)
	}
	block.WriteString("\n---")

	messages := make([]ai.ChatMessage, 0, len(recent)+2)
	messages = append(messages, ai.ChatMessage{
		Role:    ai.RoleSystem,
		Content: "You are a helpful study assistant. Answer the user's question based only on the following context. If the context does not contain enough information, say so. Do not make up facts.",
	})
	for _, m := range recent {
		role := ai.RoleUser
		if m.Sender == model.SenderBot {
			role = ai.RoleAssistant
		}
		messages = append(messages, ai.ChatMessage{Role: role, Content: m.Text})
	}
	messages = append(messages, ai.ChatMessage{
		Role:    ai.RoleUser,
		Content: "Context:" + block.String() + "\n\nQuestion: " + query + "\n\nAnswer:",
	})
	return messages
}

// extractiveAnswer condenses the retrieved chunks into a short answer.
func (s *ChatService) extractiveAnswer(contextTexts []string) string {
	joined := strings.Join(contextTexts, " ")
	answer := textutil.ExtractiveSummary(joined, 500, s.multilingual)
	if answer == "" {
		return "I couldn't find anything relevant in the documents for that question."
	}
	return "Based on the document:\n\n" + answer
}

func trimMessages(messages []model.ChatMessage, limit int) []model.ChatMessage {
	if limit <= 0 || limit >= len(messages) {
		return messages
	}
	return messages[len(messages)-limit:]
}
