package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"studyassist/internal/ai"
	"studyassist/internal/logger"
	"studyassist/internal/model"
	"studyassist/internal/pkg/docparse"
	"studyassist/internal/repository"
	"studyassist/internal/textutil"
	"studyassist/internal/vectorstore"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrFileTooLarge     = errors.New("file exceeds the maximum upload size")
	ErrUnsupportedType  = errors.New("unsupported file format, only pdf and docx are supported")
	ErrEmptyDocument    = errors.New("document has no extractable text")
)

const embeddingBatchSize = 10

// ProcessingOptions carries the chunking knobs from config.
type ProcessingOptions struct {
	ChunkSize    int
	ChunkOverlap int
	TopK         int
	Multilingual bool
}

type DocumentService struct {
	docRepo     *repository.DocumentRepository
	chunkRepo   *repository.ChunkRepository
	sessionRepo *repository.ChatSessionRepository
	messageRepo *repository.ChatMessageRepository
	studyRepo   *repository.StudyRepository
	store       vectorstore.Store
	embedder    ai.Embedder
	uploadDir   string
	maxSize     int64
	opts        ProcessingOptions
}

type UploadInput struct {
	UserID   string
	Filename string
	Data     []byte
}

type UploadResult struct {
	Document   *model.Document `json:"document"`
	ChunkCount int             `json:"chunk_count"`
}

// DocumentDetail is a document with its ordered chunks.
type DocumentDetail struct {
	Document *model.Document       `json:"document"`
	Chunks   []model.DocumentChunk `json:"chunks"`
}

type SearchInput struct {
	UserID      string
	Query       string
	DocumentIDs []string
	TopK        int
}

func NewDocumentService(
	docRepo *repository.DocumentRepository,
	chunkRepo *repository.ChunkRepository,
	sessionRepo *repository.ChatSessionRepository,
	messageRepo *repository.ChatMessageRepository,
	studyRepo *repository.StudyRepository,
	store vectorstore.Store,
	embedder ai.Embedder,
	uploadDir string,
	maxSize int64,
	opts ProcessingOptions,
) *DocumentService {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1000
	}
	if opts.ChunkOverlap < 0 {
		opts.ChunkOverlap = 0
	}
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	return &DocumentService{
		docRepo:     docRepo,
		chunkRepo:   chunkRepo,
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		studyRepo:   studyRepo,
		store:       store,
		embedder:    embedder,
		uploadDir:   uploadDir,
		maxSize:     maxSize,
		opts:        opts,
	}
}

// Upload runs the full ingestion pipeline: validate, save to disk,
// extract text, chunk, embed, persist and index.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	if input.UserID == "" || strings.TrimSpace(input.Filename) == "" {
		return nil, ErrInvalidInput
	}
	if s.maxSize > 0 && int64(len(input.Data)) > s.maxSize {
		return nil, ErrFileTooLarge
	}

	name := filepath.Base(strings.TrimSpace(input.Filename))
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
	if !docparse.SupportedType(ext) {
		return nil, ErrUnsupportedType
	}

	parsed, err := docparse.Parse(input.Data, ext)
	if err != nil {
		return nil, fmt.Errorf("parse %s failed: %w", ext, err)
	}

	cleaned := textutil.CleanText(parsed.Text)
	if cleaned == "" {
		return nil, ErrEmptyDocument
	}

	userDir := filepath.Join(s.uploadDir, input.UserID)
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir failed: %w", err)
	}
	filePath := filepath.Join(userDir, uuid.NewString()+"_"+name)
	if err := os.WriteFile(filePath, input.Data, 0o644); err != nil {
		return nil, fmt.Errorf("save upload failed: %w", err)
	}

	doc := &model.Document{
		OwnerID:     input.UserID,
		Name:        name,
		FilePath:    filePath,
		FileType:    ext,
		FileSize:    int64(len(input.Data)),
		NumPages:    parsed.NumPages,
		TextContent: cleaned,
		Title:       parsed.Title,
		Author:      parsed.Author,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, err
	}

	chunkTexts := textutil.ChunkText(cleaned, s.opts.ChunkSize, s.opts.ChunkOverlap, s.opts.Multilingual)
	pages := attributePages(cleaned, chunkTexts, parsed.Pages)

	embeddings, err := s.embedBatches(ctx, chunkTexts)
	if err != nil {
		return nil, err
	}

	chunks := make([]model.DocumentChunk, len(chunkTexts))
	entries := make([]vectorstore.Entry, len(chunkTexts))
	for i, text := range chunkTexts {
		chunks[i] = model.DocumentChunk{
			DocumentID:  doc.ID,
			ChunkIndex:  i,
			TextContent: text,
			PageNumber:  pages[i],
		}
		chunks[i].ID = uuid.NewString()
		chunks[i].SetEmbedding(embeddings[i])

		entries[i] = vectorstore.Entry{
			ChunkID:    chunks[i].ID,
			DocumentID: doc.ID,
			Text:       text,
			Page:       pages[i],
			Embedding:  embeddings[i],
		}
	}
	if err := s.chunkRepo.CreateBatch(chunks); err != nil {
		return nil, err
	}
	if err := s.store.AddBatch(ctx, entries); err != nil {
		return nil, err
	}

	doc.IsProcessed = true
	if err := s.docRepo.Update(doc); err != nil {
		return nil, err
	}

	logger.Infow("document ingested",
		"document_id", doc.ID,
		"owner_id", doc.OwnerID,
		"file_type", doc.FileType,
		"chunks", len(chunks),
	)
	return &UploadResult{Document: doc, ChunkCount: len(chunks)}, nil
}

func (s *DocumentService) List(userID string) ([]model.Document, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.docRepo.ListByOwnerID(userID)
}

func (s *DocumentService) Get(userID, documentID string) (*DocumentDetail, error) {
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
	chunks, err := s.chunkRepo.ListByDocumentID(documentID)
	if err != nil {
		return nil, err
	}
	return &DocumentDetail{Document: doc, Chunks: chunks}, nil
}

// Delete removes the document row, its chunks, chat sessions, study
// material, vector-store entries and the stored file.
func (s *DocumentService) Delete(ctx context.Context, userID, documentID string) error {
	if userID == "" || documentID == "" {
		return ErrInvalidInput
	}
	doc, err := s.docRepo.GetByIDAndOwnerID(documentID, userID)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}

	sessions, err := s.sessionRepo.ListByUserID(userID)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		if session.DocumentID != documentID {
			continue
		}
		if err := s.messageRepo.DeleteBySessionID(session.ID); err != nil {
			return err
		}
	}
	if err := s.sessionRepo.DeleteByDocumentID(documentID); err != nil {
		return err
	}
	if err := s.studyRepo.DeleteByDocumentID(documentID); err != nil {
		return err
	}
	if err := s.chunkRepo.DeleteByDocumentID(documentID); err != nil {
		return err
	}
	if err := s.store.DeleteDocument(ctx, documentID); err != nil {
		return err
	}
	if err := s.docRepo.DeleteByIDAndOwnerID(documentID, userID); err != nil {
		return err
	}

	if doc.FilePath != "" {
		if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
			logger.Warnf("remove uploaded file %s failed: %v", doc.FilePath, err)
		}
	}
	return nil
}

// Search embeds the query and runs a vector search restricted to the
// user's documents.
func (s *DocumentService) Search(ctx context.Context, input SearchInput) ([]vectorstore.DocumentHit, error) {
	if input.UserID == "" {
		return nil, ErrInvalidInput
	}
	query := textutil.CleanText(input.Query)
	if query == "" {
		return nil, ErrInvalidInput
	}

	docIDs, err := s.ownedDocumentIDs(input.UserID, input.DocumentIDs)
	if err != nil {
		return nil, err
	}
	if len(docIDs) == 0 {
		return nil, nil
	}

	queryVec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	topK := input.TopK
	if topK <= 0 {
		topK = s.opts.TopK
	}
	return s.store.Search(ctx, queryVec, docIDs, topK)
}

// ownedDocumentIDs filters requested IDs down to documents the user
// owns; with no filter it returns all of the user's document IDs.
func (s *DocumentService) ownedDocumentIDs(userID string, requested []string) ([]string, error) {
	if len(requested) > 0 {
		var out []string
		for _, id := range requested {
			doc, err := s.docRepo.GetByIDAndOwnerID(id, userID)
			if err != nil {
				return nil, err
			}
			if doc != nil {
				out = append(out, id)
			}
		}
		return out, nil
	}

	docs, err := s.docRepo.ListByOwnerID(userID)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.ID
	}
	return out, nil
}

func (s *DocumentService) embedBatches(ctx context.Context, texts []string) ([][]float32, error) {
	var embeddings [][]float32
	for i := 0; i < len(texts); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := s.embedder.EmbedBatch(ctx, texts[i:end])
		if err != nil {
			return nil, err
		}
		embeddings = append(embeddings, batch...)
	}
	if len(embeddings) != len(texts) {
		return nil, errors.New("embedding count mismatch")
	}
	return embeddings, nil
}

// attributePages maps each chunk to the page its first sentence falls
// on. Without per-page text (DOCX) pages are estimated by offset.
func attributePages(cleaned string, chunks []string, pageTexts []string) []int {
	pages := make([]int, len(chunks))
	if len(chunks) == 0 {
		return pages
	}

	// Page boundaries as offsets into the cleaned full text.
	var boundaries []int
	if len(pageTexts) > 0 {
		offset := 0
		for _, p := range pageTexts {
			cleanedPage := textutil.CleanText(p)
			offset += len(cleanedPage)
			if len(cleanedPage) > 0 {
				offset++ // joining space
			}
			boundaries = append(boundaries, offset)
		}
	} else {
		const charsPerPage = 3000
		for offset := charsPerPage; offset < len(cleaned)+charsPerPage; offset += charsPerPage {
			boundaries = append(boundaries, offset)
		}
	}

	searchFrom := 0
	for i, chunk := range chunks {
		prefix := chunk
		if len(prefix) > 50 {
			prefix = prefix[:50]
		}
		idx := strings.Index(cleaned[searchFrom:], prefix)
		start := searchFrom
		if idx >= 0 {
			start = searchFrom + idx
			searchFrom = start + 1
		}
		pages[i] = pageForOffset(boundaries, start)
	}
	return pages
}

func pageForOffset(boundaries []int, offset int) int {
	for i, b := range boundaries {
		if offset < b {
			return i + 1
		}
	}
	if len(boundaries) == 0 {
		return 1
	}
	return len(boundaries)
}
