package study

import (
	"fmt"
	"regexp"
	"strings"

	"studyassist/internal/textutil"
)

// SummaryResult is a structured summary: the extractive body plus the
// key-concept and main-point sections.
type SummaryResult struct {
	Title       string
	Content     string
	SummaryType string
	KeyConcepts []string
	MainPoints  []string
}

// Length presets per summary type.
const (
	BriefSummaryLength    = 500
	GeneralSummaryLength  = 1000
	DetailedSummaryLength = 2000
)

var mainPointIndicators = regexp.MustCompile(
	`(?i)\b(important|significant|key|main|critical|essential|fundamental|primary|crucial|notable)\b`)

// SummaryLengthFor maps a summary type to its character budget.
func SummaryLengthFor(summaryType string) int {
	switch summaryType {
	case "brief":
		return BriefSummaryLength
	case "detailed":
		return DetailedSummaryLength
	default:
		return GeneralSummaryLength
	}
}

// GenerateSummary builds the extractive summary with key concepts and
// main points. maxLength <= 0 uses the preset for summaryType.
func GenerateSummary(text string, summaryType string, maxLength int, multilingual bool) SummaryResult {
	if summaryType == "" {
		summaryType = "general"
	}
	if maxLength <= 0 {
		maxLength = SummaryLengthFor(summaryType)
	}

	return SummaryResult{
		Title:       "Document Summary",
		Content:     textutil.ExtractiveSummary(text, maxLength, multilingual),
		SummaryType: summaryType,
		KeyConcepts: textutil.ExtractKeywords(text, 8),
		MainPoints:  extractMainPoints(text, 5, multilingual),
	}
}

// Render formats the structured summary as the text stored and returned
// to clients.
func (s SummaryResult) Render() string {
	var sb strings.Builder
	sb.WriteString(s.Content)
	if len(s.KeyConcepts) > 0 {
		sb.WriteString("\n\nKey Concepts: ")
		sb.WriteString(strings.Join(s.KeyConcepts, ", "))
	}
	if len(s.MainPoints) > 0 {
		sb.WriteString("\n\nMain Points:\n")
		for _, p := range s.MainPoints {
			sb.WriteString(fmt.Sprintf("- %s\n", p))
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// extractMainPoints prefers sentences with indicator words, padded from
// the document head when too few match.
func extractMainPoints(text string, maxPoints int, multilingual bool) []string {
	sentences := textutil.SplitSentences(text, multilingual)

	var long []string
	for _, s := range sentences {
		if len(s) > 30 {
			long = append(long, s)
		}
	}

	var points []string
	for _, s := range long {
		if mainPointIndicators.MatchString(s) {
			points = append(points, s)
		}
	}

	if len(points) < maxPoints {
		head := long
		if len(head) > 10 {
			head = head[:10]
		}
		for _, s := range head {
			if len(points) >= maxPoints {
				break
			}
			if !containsString(points, s) {
				points = append(points, s)
			}
		}
	}

	if len(points) > maxPoints {
		points = points[:maxPoints]
	}
	return points
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
