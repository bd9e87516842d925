package study

import (
	"math/rand"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

const quizText = `Photosynthesis is the process plants use to convert light into chemical energy.
Chlorophyll refers to the green pigment that absorbs light in plant cells.
Respiration means the release of stored energy from glucose molecules.
Plants have specialized cells for transporting water through the stem.
The mitochondria are the organelles that produce most cellular energy.`

func TestGenerateQuizMixedPlan(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	result := GenerateQuiz(quizText, 8, QuizMixed, "hard", rng, false)

	require.Equal(t, QuizMixed, result.QuizType)
	require.Equal(t, "hard", result.Difficulty)
	require.Len(t, result.Questions, 8)

	counts := map[string]int{}
	for _, q := range result.Questions {
		counts[q.Type]++
	}
	// Half multiple choice, a quarter true/false, the rest short answer.
	// Sample padding preserves the mix only roughly, so just check every
	// type is present.
	require.Greater(t, counts[QuestionMultipleChoice], 0)
	require.Greater(t, counts[QuestionTrueFalse], 0)
	require.Greater(t, counts[QuestionShortAnswer], 0)
}

func TestGenerateQuizMultipleChoiceAnswerIndex(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	result := GenerateQuiz(quizText, 4, QuestionMultipleChoice, "medium", rng, false)

	require.NotEmpty(t, result.Questions)
	for _, q := range result.Questions {
		require.Equal(t, QuestionMultipleChoice, q.Type)
		require.Len(t, q.Options, 4)

		idx, err := strconv.Atoi(q.CorrectAnswer)
		require.NoError(t, err)
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, len(q.Options))
	}
}

func TestGenerateQuizDoesNotRepeatTerms(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	result := GenerateQuiz(quizText, 3, QuestionMultipleChoice, "medium", rng, false)

	seen := map[string]bool{}
	for _, q := range result.Questions {
		require.False(t, seen[q.Text], "repeated question %q", q.Text)
		seen[q.Text] = true
	}
}

func TestGenerateQuizTrueFalseAnswers(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	result := GenerateQuiz(quizText, 4, QuestionTrueFalse, "easy", rng, false)

	require.NotEmpty(t, result.Questions)
	for _, q := range result.Questions {
		require.Equal(t, QuestionTrueFalse, q.Type)
		require.Contains(t, []string{"true", "false"}, q.CorrectAnswer)
		require.Empty(t, q.Options)
	}
}

func TestNegate(t *testing.T) {
	got, ok := negate("Water is essential for life.")
	require.True(t, ok)
	require.Equal(t, "water is not essential for life.", got)

	got, ok = negate("Plants have roots.")
	require.True(t, ok)
	require.Equal(t, "plants do not have roots.", got)

	_, ok = negate("No linking verb here.")
	require.False(t, ok)
}

func TestPlanQuestionTypesSingleType(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	types := planQuestionTypes(QuestionShortAnswer, 5, rng)
	require.Len(t, types, 5)
	for _, qt := range types {
		require.Equal(t, QuestionShortAnswer, qt)
	}
}

func TestPlanQuestionTypesMixedRatio(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	types := planQuestionTypes(QuizMixed, 8, rng)
	require.Len(t, types, 8)

	counts := map[string]int{}
	for _, qt := range types {
		counts[qt]++
	}
	require.Equal(t, 4, counts[QuestionMultipleChoice])
	require.Equal(t, 2, counts[QuestionTrueFalse])
	require.Equal(t, 2, counts[QuestionShortAnswer])
}

func TestGenerateQuizEmptyTextFallsBackToSamples(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	result := GenerateQuiz("", 4, QuizMixed, "", rng, false)
	require.Len(t, result.Questions, 4)
}
