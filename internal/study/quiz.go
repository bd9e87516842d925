package study

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"

	"studyassist/internal/textutil"
)

const (
	QuestionMultipleChoice = "multiple-choice"
	QuestionTrueFalse      = "true-false"
	QuestionShortAnswer    = "short-answer"
	QuizMixed              = "mixed"
)

// Question is one generated quiz question. CorrectAnswer is the option
// index for multiple choice, "true"/"false" for true/false, and the
// reference answer text for short answer.
type Question struct {
	Text          string
	Type          string
	Options       []string
	CorrectAnswer string
	Explanation   string
}

type QuizResult struct {
	Title       string
	Description string
	QuizType    string
	Difficulty  string
	Questions   []Question
}

var factSentenceRe = regexp.MustCompile(`\b(is|are|has|have)\b`)

// GenerateQuiz builds a quiz of numQuestions questions. Mixed quizzes
// use half multiple choice, a quarter true/false and the rest short
// answer, shuffled. rng drives option shuffling and true/false flips.
func GenerateQuiz(text string, numQuestions int, quizType, difficulty string, rng *rand.Rand, multilingual bool) QuizResult {
	if numQuestions <= 0 {
		numQuestions = 10
	}
	if quizType == "" {
		quizType = QuizMixed
	}
	if difficulty == "" {
		difficulty = "medium"
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	questionTypes := planQuestionTypes(quizType, numQuestions, rng)

	pools := newQuestionPools(text, numQuestions, multilingual)
	var questions []Question
	for _, qt := range questionTypes {
		var q *Question
		switch qt {
		case QuestionMultipleChoice:
			q = pools.nextMultipleChoice(rng)
		case QuestionTrueFalse:
			q = pools.nextTrueFalse(rng)
		default:
			q = pools.nextShortAnswer()
		}
		if q != nil {
			questions = append(questions, *q)
		}
	}

	for _, sample := range sampleQuestions() {
		if len(questions) >= numQuestions {
			break
		}
		if quizType != QuizMixed && sample.Type != quizType {
			continue
		}
		questions = append(questions, sample)
	}

	return QuizResult{
		Title:       "Quiz on Document Content",
		Description: fmt.Sprintf("A %s difficulty %s quiz with %d questions", difficulty, quizType, len(questions)),
		QuizType:    quizType,
		Difficulty:  difficulty,
		Questions:   questions,
	}
}

func planQuestionTypes(quizType string, n int, rng *rand.Rand) []string {
	switch quizType {
	case QuestionMultipleChoice, QuestionTrueFalse, QuestionShortAnswer:
		types := make([]string, n)
		for i := range types {
			types[i] = quizType
		}
		return types
	}

	types := make([]string, 0, n)
	for i := 0; i < n/2; i++ {
		types = append(types, QuestionMultipleChoice)
	}
	for i := 0; i < n/4; i++ {
		types = append(types, QuestionTrueFalse)
	}
	for len(types) < n {
		types = append(types, QuestionShortAnswer)
	}
	rng.Shuffle(len(types), func(i, j int) {
		types[i], types[j] = types[j], types[i]
	})
	return types
}

// questionPools hold the mined material each generator consumes, so a
// quiz never repeats a term or fact sentence.
type questionPools struct {
	text          string
	definitions   []definition
	factSentences []string
	keywords      []string
	multilingual  bool
}

func newQuestionPools(text string, numQuestions int, multilingual bool) *questionPools {
	// The colon pattern produces too many false positives for quiz
	// questions, so only the verb patterns are used here.
	defs := mineDefinitions(text, definitionPatterns[:3])

	seen := map[string]bool{}
	deduped := defs[:0]
	for _, d := range defs {
		key := strings.ToLower(d.Term)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, d)
	}

	var facts []string
	for _, s := range textutil.SplitSentences(text, multilingual) {
		if len(s) > 20 && len(s) < 150 && factSentenceRe.MatchString(s) {
			facts = append(facts, s)
		}
	}

	return &questionPools{
		text:          text,
		definitions:   deduped,
		factSentences: facts,
		keywords:      textutil.ExtractKeywords(text, numQuestions*3),
		multilingual:  multilingual,
	}
}

func (p *questionPools) nextMultipleChoice(rng *rand.Rand) *Question {
	if len(p.definitions) == 0 {
		return nil
	}
	def := p.definitions[0]
	p.definitions = p.definitions[1:]

	options := []string{
		def.Definition,
		fmt.Sprintf("A type of %s used in specialized applications", def.Term),
		fmt.Sprintf("The process of analyzing %s in different contexts", def.Term),
		fmt.Sprintf("A framework for understanding %s relationships", def.Term),
	}
	rng.Shuffle(len(options), func(i, j int) {
		options[i], options[j] = options[j], options[i]
	})

	correct := 0
	for i, o := range options {
		if o == def.Definition {
			correct = i
			break
		}
	}

	return &Question{
		Text:          fmt.Sprintf("What is %s?", def.Term),
		Type:          QuestionMultipleChoice,
		Options:       options,
		CorrectAnswer: strconv.Itoa(correct),
		Explanation:   fmt.Sprintf("The correct definition of %s is: %s", def.Term, def.Definition),
	}
}

func (p *questionPools) nextTrueFalse(rng *rand.Rand) *Question {
	for len(p.factSentences) > 0 {
		sentence := p.factSentences[0]
		p.factSentences = p.factSentences[1:]

		isTrue := rng.Intn(2) == 0
		questionText := sentence
		if !isTrue {
			negated, ok := negate(sentence)
			if !ok {
				continue
			}
			questionText = negated
		}

		answer := "true"
		if !isTrue {
			answer = "false"
		}
		return &Question{
			Text:          questionText,
			Type:          QuestionTrueFalse,
			CorrectAnswer: answer,
			Explanation:   "Based on information from the document.",
		}
	}
	return nil
}

func (p *questionPools) nextShortAnswer() *Question {
	for len(p.keywords) > 0 {
		keyword := p.keywords[0]
		p.keywords = p.keywords[1:]

		sentences := keywordSentences(p.text, keyword, 20, 200)
		if len(sentences) == 0 {
			continue
		}
		return &Question{
			Text:          fmt.Sprintf("What is %s? Provide a brief definition.", keyword),
			Type:          QuestionShortAnswer,
			CorrectAnswer: sentences[0],
			Explanation:   "This is a key term from the document.",
		}
	}
	return nil
}

// negate flips the first linking verb it finds. Sentences without one
// cannot be turned into a false statement.
func negate(sentence string) (string, bool) {
	lower := strings.ToLower(sentence)
	switch {
	case strings.Contains(lower, " is "):
		return strings.Replace(lower, " is ", " is not ", 1), true
	case strings.Contains(lower, " are "):
		return strings.Replace(lower, " are ", " are not ", 1), true
	case strings.Contains(lower, " has "):
		return strings.Replace(lower, " has ", " does not have ", 1), true
	case strings.Contains(lower, " have "):
		return strings.Replace(lower, " have ", " do not have ", 1), true
	}
	return "", false
}

func sampleQuestions() []Question {
	return []Question{
		{
			Text: "What is a Retrieval Augmented Generation (RAG) system?",
			Type: QuestionMultipleChoice,
			Options: []string{
				"A system that generates random text",
				"A system that combines retrieval and generation for accurate answers",
				"A system for editing and correcting text",
				"A system for translating text between languages",
			},
			CorrectAnswer: "1",
			Explanation:   "RAG systems combine information retrieval with text generation to create responses that are grounded in specific documents.",
		},
		{
			Text: "Which file formats are supported for document upload?",
			Type: QuestionMultipleChoice,
			Options: []string{
				"PDF only",
				"Word (DOCX) only",
				"PDF and Word (DOCX)",
				"PDF, Word, and Excel",
			},
			CorrectAnswer: "2",
			Explanation:   "PDF and Word document formats are supported.",
		},
		{
			Text:          "Vector embeddings are used to represent text as numerical values.",
			Type:          QuestionTrueFalse,
			CorrectAnswer: "true",
			Explanation:   "Vector embeddings convert text into numerical representations that capture semantic meaning.",
		},
		{
			Text:          "What is the purpose of chunking in document processing?",
			Type:          QuestionShortAnswer,
			CorrectAnswer: "Chunking breaks documents into smaller pieces to improve search precision and processing efficiency.",
			Explanation:   "Chunking is important for managing large documents and enabling precise retrieval.",
		},
	}
}
