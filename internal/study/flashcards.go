// Package study generates flashcards, summaries and quizzes from
// document text. The generators are pure: they take text and knobs and
// return plain values, persistence lives in the service layer.
package study

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"studyassist/internal/textutil"
)

// Card is one generated flashcard.
type Card struct {
	Front      string
	Back       string
	Difficulty string
}

// definition is a mined term/definition pair shared by the flashcard and
// quiz generators.
type definition struct {
	Term       string
	Definition string
}

var definitionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+is\s+(?:defined\s+as\s+)?([^.!?]+)`),
	regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+refers\s+to\s+([^.!?]+)`),
	regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)\s+means\s+([^.!?]+)`),
	regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*):([^.!?]+)`),
}

// mineDefinitions extracts term/definition pairs with sane length bounds.
func mineDefinitions(text string, patterns []*regexp.Regexp) []definition {
	var defs []definition
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			term := strings.TrimSpace(m[1])
			def := strings.TrimSpace(m[2])
			if len(term) > 3 && len(term) < 50 && len(def) > 10 && len(def) < 200 {
				defs = append(defs, definition{Term: term, Definition: def})
			}
		}
	}
	return defs
}

// keywordSentences returns sentences containing the keyword whose length
// is inside (minLen, maxLen).
func keywordSentences(text, keyword string, minLen, maxLen int) []string {
	re, err := regexp.Compile(`(?i)[^.!?]*\b` + regexp.QuoteMeta(keyword) + `\b[^.!?]*[.!?]`)
	if err != nil {
		return nil
	}
	var out []string
	for _, m := range re.FindAllString(text, -1) {
		s := strings.TrimSpace(m)
		if len(s) > minLen && len(s) < maxLen {
			out = append(out, s)
		}
	}
	return out
}

var sampleCards = []Card{
	{
		Front:      "What is a Retrieval-Augmented Generation (RAG) system?",
		Back:       "A system that combines information retrieval with text generation to create responses grounded in specific documents or knowledge bases.",
		Difficulty: "medium",
	},
	{
		Front:      "What are embeddings in the context of document search?",
		Back:       "Embeddings are numerical representations of text that capture semantic meaning, allowing for similarity searches based on content rather than just keywords.",
		Difficulty: "medium",
	},
	{
		Front:      "What is the purpose of chunking in document processing?",
		Back:       "Chunking breaks down documents into smaller, manageable pieces that can be processed individually, improving search precision and handling large documents efficiently.",
		Difficulty: "easy",
	},
}

// GenerateFlashcards mines definition sentences first, then keyword
// questions, then pads with built-in samples up to numCards.
func GenerateFlashcards(text string, numCards int, difficulty string) []Card {
	if numCards <= 0 {
		numCards = 10
	}
	if difficulty == "" {
		difficulty = "medium"
	}

	keywords := textutil.ExtractKeywords(text, numCards*2)

	var cards []Card
	for _, def := range mineDefinitions(text, definitionPatterns) {
		if len(cards) >= numCards {
			break
		}
		cards = append(cards, Card{Front: def.Term, Back: def.Definition, Difficulty: difficulty})
	}

	for _, keyword := range keywords {
		if len(cards) >= numCards {
			break
		}
		if coveredByCard(cards, keyword) {
			continue
		}
		sentences := keywordSentences(text, keyword, 10, 200)
		if len(sentences) == 0 {
			continue
		}
		front := fmt.Sprintf("What is %s?", keyword)
		if len(keyword) > 0 && unicode.IsUpper(rune(keyword[0])) {
			front = fmt.Sprintf("What is a %s?", keyword)
		}
		cards = append(cards, Card{Front: front, Back: sentences[0], Difficulty: difficulty})
	}

	for _, sample := range sampleCards {
		if len(cards) >= numCards {
			break
		}
		cards = append(cards, sample)
	}
	return cards
}

func coveredByCard(cards []Card, keyword string) bool {
	for _, c := range cards {
		if strings.Contains(strings.ToLower(c.Front), strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
