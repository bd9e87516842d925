package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"studyassist/internal/ai"
	"studyassist/internal/model"
)

func TestIntentDetection(t *testing.T) {
	cases := []struct {
		query     string
		summary   bool
		flashcard bool
		quiz      bool
	}{
		{query: "please summarize this document", summary: true},
		{query: "give me a summary", summary: true},
		{query: "make some flashcards for me", flashcard: true},
		{query: "i want a flash card set", flashcard: true},
		{query: "quiz me on chapter two", quiz: true},
		{query: "ask me a question about this", quiz: true},
		{query: "what does the author say about mitochondria?"},
		{query: "explain the main argument"},
	}

	for _, tc := range cases {
		lower := strings.ToLower(tc.query)
		require.Equal(t, tc.summary, summaryIntentRe.MatchString(lower), "summary: %q", tc.query)
		require.Equal(t, tc.flashcard, flashcardIntentRe.MatchString(lower), "flashcard: %q", tc.query)
		require.Equal(t, tc.quiz, quizIntentRe.MatchString(lower), "quiz: %q", tc.query)
	}
}

func TestIntentRequiresWholeWords(t *testing.T) {
	// "testing" and "cardboard" must not trip the quiz and flashcard
	// intents.
	require.False(t, quizIntentRe.MatchString("i am testing my setup"))
	require.False(t, flashcardIntentRe.MatchString("the cardboard box"))
}

func TestBuildReplyEmptyQuery(t *testing.T) {
	s := &ChatService{}
	reply, sources := s.buildReply(context.Background(), "user-1", "sess-1", nil, "   ", nil)
	require.Equal(t, emptyQueryReply, reply)
	require.Nil(t, sources)
}

func TestBuildReplySummaryIntentWithDocument(t *testing.T) {
	s := &ChatService{}
	doc := &model.Document{
		ID:          "doc-1",
		TextContent: "Photosynthesis is the process plants use to convert light into energy.",
	}

	reply, sources := s.buildReply(context.Background(), "user-1", "sess-1", doc, "summarize this for me", nil)
	require.True(t, strings.HasPrefix(reply, "Here's a summary of the document:"))
	require.Contains(t, reply, "Photosynthesis")
	require.Nil(t, sources)
}

func TestBuildReplySummaryIntentWithoutDocument(t *testing.T) {
	s := &ChatService{}
	reply, _ := s.buildReply(context.Background(), "user-1", "sess-1", nil, "summary please", nil)
	require.Contains(t, reply, "Upload a document")
}

func TestBuildReplyStudyToolHints(t *testing.T) {
	s := &ChatService{}
	doc := &model.Document{ID: "doc-1", TextContent: "some text"}

	reply, _ := s.buildReply(context.Background(), "user-1", "sess-1", doc, "make flashcards", nil)
	require.Contains(t, reply, "flashcard study tool")

	reply, _ = s.buildReply(context.Background(), "user-1", "sess-1", doc, "quiz me", nil)
	require.Contains(t, reply, "quiz study tool")
}

func TestTrimMessages(t *testing.T) {
	messages := []model.ChatMessage{{ID: "1"}, {ID: "2"}, {ID: "3"}}

	require.Len(t, trimMessages(messages, 0), 3)
	require.Len(t, trimMessages(messages, 5), 3)

	trimmed := trimMessages(messages, 2)
	require.Len(t, trimmed, 2)
	require.Equal(t, "2", trimmed[0].ID)
	require.Equal(t, "3", trimmed[1].ID)
}

func TestExtractiveAnswerFallback(t *testing.T) {
	s := &ChatService{}
	answer := s.extractiveAnswer([]string{
		"The cell membrane controls what enters and leaves the cell.",
		"Proteins embedded in the membrane act as channels and pumps.",
	})
	require.True(t, strings.HasPrefix(answer, "Based on the document:"))
	require.Contains(t, answer, "cell membrane")
}

type fakeMessageStore struct {
	recent      []model.ChatMessage
	all         []model.ChatMessage
	recentLimit int
	listCalls   int
}

func (f *fakeMessageStore) Create(*model.ChatMessage) error { return nil }

func (f *fakeMessageStore) CreateBatch([]model.ChatMessage) error { return nil }

func (f *fakeMessageStore) ListBySessionID(sessionID string, limit int) ([]model.ChatMessage, error) {
	f.listCalls++
	return f.all, nil
}

func (f *fakeMessageStore) ListRecentBySessionID(sessionID string, limit int) ([]model.ChatMessage, error) {
	f.recentLimit = limit
	return f.recent, nil
}

func (f *fakeMessageStore) DeleteBySessionID(string) error { return nil }

type fakeHistoryCache struct {
	hit    []model.ChatMessage
	stored []model.ChatMessage
}

func (f *fakeHistoryCache) GetHistory(ctx context.Context, sessionID string) ([]model.ChatMessage, bool, error) {
	if f.hit == nil {
		return nil, false, nil
	}
	return f.hit, true, nil
}

func (f *fakeHistoryCache) SetHistory(ctx context.Context, sessionID string, messages []model.ChatMessage) error {
	f.stored = messages
	return nil
}

func (f *fakeHistoryCache) DeleteHistory(context.Context, string) error { return nil }
func (f *fakeHistoryCache) MarkDirty(context.Context, string) error { return nil }
func (f *fakeHistoryCache) IsDirty(context.Context, string) (bool, error) {
	return false, nil
}

type fakeCompleter struct {
	prompt []ai.ChatMessage
	reply  string
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	f.prompt = messages
	return f.reply, nil
}

type fakeStreamCompleter struct {
	fakeCompleter
	chunks []string
}

func (f *fakeStreamCompleter) StreamComplete(ctx context.Context, messages []ai.ChatMessage, onChunk func(string) error) (string, error) {
	f.prompt = messages
	var full strings.Builder
	for _, chunk := range f.chunks {
		if err := onChunk(chunk); err != nil {
			return "", err
		}
		full.WriteString(chunk)
	}
	return full.String(), nil
}

func TestCompleteFoldsRecentHistory(t *testing.T) {
	store := &fakeMessageStore{recent: []model.ChatMessage{
		{Sender: model.SenderUser, Text: "What is the cell membrane?"},
		{Sender: model.SenderBot, Text: "It is the outer boundary of the cell."},
	}}
	completer := &fakeCompleter{reply: "It controls transport."}
	s := &ChatService{messageRepo: store, completer: completer, maxContext: 7}

	answer, err := s.complete(context.Background(), "sess-1", "what does it control?", []string{"The membrane controls transport."}, nil)
	require.NoError(t, err)
	require.Equal(t, "It controls transport.", answer)
	require.Equal(t, 7, store.recentLimit)

	require.Len(t, completer.prompt, 4)
	require.Equal(t, ai.RoleSystem, completer.prompt[0].Role)
	require.Equal(t, ai.RoleUser, completer.prompt[1].Role)
	require.Equal(t, "What is the cell membrane?", completer.prompt[1].Content)
	require.Equal(t, ai.RoleAssistant, completer.prompt[2].Role)
	require.Equal(t, ai.RoleUser, completer.prompt[3].Role)
	require.Contains(t, completer.prompt[3].Content, "The membrane controls transport.")
	require.Contains(t, completer.prompt[3].Content, "what does it control?")
}

func TestPromptMessagesDropEchoedQuery(t *testing.T) {
	// The current user message is persisted before the reply is built,
	// so the history may end with a copy of the query.
	recent := []model.ChatMessage{
		{Sender: model.SenderUser, Text: "earlier question"},
		{Sender: model.SenderBot, Text: "earlier answer"},
		{Sender: model.SenderUser, Text: "what  does it   control?"},
	}
	messages := promptMessages(recent, "what does it control?", []string{"ctx"})

	require.Len(t, messages, 4)
	require.Equal(t, "earlier question", messages[1].Content)
	require.Equal(t, "earlier answer", messages[2].Content)
	require.Contains(t, messages[3].Content, "Question: what does it control?")
}

func TestCompleteStreamsChunks(t *testing.T) {
	store := &fakeMessageStore{}
	completer := &fakeStreamCompleter{chunks: []string{"The membrane ", "controls transport."}}
	s := &ChatService{messageRepo: store, completer: completer, maxContext: 10}

	var received []string
	answer, err := s.complete(context.Background(), "sess-1", "question", []string{"ctx"}, func(chunk string) error {
		received = append(received, chunk)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "The membrane controls transport.", answer)
	require.Equal(t, []string{"The membrane ", "controls transport."}, received)
}

func TestHistoryMessagesCachesFullFetch(t *testing.T) {
	all := []model.ChatMessage{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}, {ID: "5"}}
	store := &fakeMessageStore{all: all}
	hc := &fakeHistoryCache{}
	s := &ChatService{messageRepo: store, historyCache: hc}

	messages, err := s.historyMessages(context.Background(), "sess-1", 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, "4", messages[0].ID)
	require.Equal(t, "5", messages[1].ID)

	// A limited request must still cache the full list.
	require.Len(t, hc.stored, 5)
}

func TestHistoryMessagesTrimsCacheHit(t *testing.T) {
	hc := &fakeHistoryCache{hit: []model.ChatMessage{{ID: "1"}, {ID: "2"}, {ID: "3"}}}
	store := &fakeMessageStore{}
	s := &ChatService{messageRepo: store, historyCache: hc}

	messages, err := s.historyMessages(context.Background(), "sess-1", 2)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, "2", messages[0].ID)
	require.Equal(t, 0, store.listCalls)
}
