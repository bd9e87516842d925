package study

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const summaryText = `Machine learning is a field of study concerned with algorithms that improve through experience.
The most important concept in supervised learning is the labeled training example.
Models are trained on data and evaluated on held-out test sets to measure generalization.
A critical step in any pipeline is feature engineering, which shapes what the model can learn.
Overfitting happens when a model memorizes training data instead of learning patterns.
Regularization techniques reduce overfitting by penalizing model complexity during training.
Cross validation is an essential technique for estimating performance on unseen data.`

func TestSummaryLengthFor(t *testing.T) {
	require.Equal(t, BriefSummaryLength, SummaryLengthFor("brief"))
	require.Equal(t, GeneralSummaryLength, SummaryLengthFor("general"))
	require.Equal(t, DetailedSummaryLength, SummaryLengthFor("detailed"))
	require.Equal(t, GeneralSummaryLength, SummaryLengthFor("unknown"))
}

func TestGenerateSummaryFields(t *testing.T) {
	result := GenerateSummary(summaryText, "brief", 0, false)

	require.Equal(t, "Document Summary", result.Title)
	require.Equal(t, "brief", result.SummaryType)
	require.NotEmpty(t, result.Content)
	require.LessOrEqual(t, len(result.Content), BriefSummaryLength)
	require.NotEmpty(t, result.KeyConcepts)
	require.LessOrEqual(t, len(result.KeyConcepts), 8)
	require.NotEmpty(t, result.MainPoints)
	require.LessOrEqual(t, len(result.MainPoints), 5)
}

func TestGenerateSummaryDefaultsType(t *testing.T) {
	result := GenerateSummary(summaryText, "", 0, false)
	require.Equal(t, "general", result.SummaryType)
}

func TestExtractMainPointsPrefersIndicatorSentences(t *testing.T) {
	points := extractMainPoints(summaryText, 5, false)
	require.Len(t, points, 5)
	require.Contains(t, points[0], "important")
}

func TestRenderIncludesSections(t *testing.T) {
	result := SummaryResult{
		Content:     "Body text.",
		KeyConcepts: []string{"alpha", "beta"},
		MainPoints:  []string{"first point", "second point"},
	}
	rendered := result.Render()

	require.True(t, strings.HasPrefix(rendered, "Body text."))
	require.Contains(t, rendered, "Key Concepts: alpha, beta")
	require.Contains(t, rendered, "Main Points:\n- first point\n- second point")
	require.False(t, strings.HasSuffix(rendered, "\n"))
}

func TestRenderOmitsEmptySections(t *testing.T) {
	rendered := SummaryResult{Content: "Just the body."}.Render()
	require.Equal(t, "Just the body.", rendered)
}
