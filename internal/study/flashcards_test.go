package study

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const flashcardText = `Photosynthesis is the process plants use to convert light into chemical energy.
Chlorophyll refers to the green pigment that absorbs light in plant cells.
Respiration means the release of stored energy from glucose molecules.
Plants produce oxygen during photosynthesis and consume carbon dioxide from the air.
The chloroplast contains the machinery for photosynthesis inside plant cells.`

func TestGenerateFlashcardsMinesDefinitions(t *testing.T) {
	cards := GenerateFlashcards(flashcardText, 5, "easy")
	require.Len(t, cards, 5)

	fronts := make([]string, len(cards))
	for i, c := range cards {
		fronts[i] = c.Front
	}
	require.Contains(t, fronts, "Photosynthesis")
	require.Contains(t, fronts, "Chlorophyll")
	require.Contains(t, fronts, "Respiration")

	for _, c := range cards {
		require.NotEmpty(t, c.Front)
		require.NotEmpty(t, c.Back)
		require.Equal(t, "easy", c.Difficulty)
	}
}

func TestGenerateFlashcardsPadsWithSamples(t *testing.T) {
	cards := GenerateFlashcards("short text with nothing to mine", 3, "")
	require.Len(t, cards, 3)
	require.Equal(t, sampleCards[0].Front, cards[0].Front)
}

func TestGenerateFlashcardsCapsAtNumCards(t *testing.T) {
	cards := GenerateFlashcards(flashcardText, 2, "medium")
	require.Len(t, cards, 2)
}

func TestMineDefinitionsBounds(t *testing.T) {
	// Term too short and definition too short are both rejected.
	text := "Ab is x. Gravity is the force that attracts two bodies toward each other."
	defs := mineDefinitions(text, definitionPatterns)
	require.Len(t, defs, 1)
	require.Equal(t, "Gravity", defs[0].Term)
	require.True(t, strings.HasPrefix(defs[0].Definition, "the force"))
}

func TestKeywordSentencesMatchesWholeWords(t *testing.T) {
	text := "The catalog lists items. The cat sat on the warm mat near the door."
	got := keywordSentences(text, "cat", 10, 200)
	require.Len(t, got, 1)
	require.Contains(t, got[0], "cat sat")
}
