// Package textutil provides the plain-text processing primitives used by
// ingestion, retrieval and study material generation: cleaning, sentence
// splitting, chunking, keyword extraction and extractive summaries.
package textutil

import (
	"regexp"
	"sort"
	"strings"
)

var (
	multiSpaceRe = regexp.MustCompile(`\s+`)
	wordRe       = regexp.MustCompile(`[\p{L}\p{N}_]+`)

	// Sentence terminators followed by whitespace. The CJK variant also
	// splits after fullwidth terminators, which need no trailing space.
	sentenceEndRe    = regexp.MustCompile(`([.!?])\s+`)
	sentenceEndCJKRe = regexp.MustCompile(`([.!?])\s+|([。！？])`)
)

var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(
		"a an the and or but if then else when at from by for with about against between " +
			"into through during before after above below to of in on off over under again further " +
			"once here there where why how all any both each few more most other some such no " +
			"nor not only own same so than too very s t can will just don don't should now " +
			"is are was were be been being have has had having do does did doing would could " +
			"shall might may must i me my myself we our ours ourselves you your yours yourself " +
			"yourselves he him his himself she her hers herself it its itself they them their theirs " +
			"themselves what which who whom this that these those am as also") {
		stopWords[w] = struct{}{}
	}
}

// CleanText collapses runs of whitespace into single spaces and trims the
// result.
func CleanText(text string) string {
	return strings.TrimSpace(multiSpaceRe.ReplaceAllString(text, " "))
}

// SplitSentences splits cleaned text on sentence terminators. With
// multilingual enabled, fullwidth CJK terminators also end a sentence.
func SplitSentences(text string, multilingual bool) []string {
	text = CleanText(text)
	if text == "" {
		return nil
	}

	re := sentenceEndRe
	if multilingual {
		re = sentenceEndCJKRe
	}

	var sentences []string
	last := 0
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		// Keep the terminator with its sentence; drop only the whitespace.
		end := m[3]
		if end < 0 {
			end = m[5]
		}
		s := strings.TrimSpace(text[last:end])
		if s != "" {
			sentences = append(sentences, s)
		}
		last = m[1]
	}
	if rest := strings.TrimSpace(text[last:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// ChunkText packs sentences into chunks of at most chunkSize characters,
// carrying roughly chunkOverlap characters of trailing sentences into the
// next chunk. Overlap is sentence-granular so no sentence is ever split.
func ChunkText(text string, chunkSize, chunkOverlap int, multilingual bool) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}

	sentences := SplitSentences(text, multilingual)

	var chunks []string
	var current []string
	currentSize := 0

	for _, sentence := range sentences {
		sentenceSize := len(sentence)

		if currentSize+sentenceSize > chunkSize && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))

			if chunkOverlap > 0 {
				overlapSize := 0
				var overlap []string
				for i := len(current) - 1; i >= 0; i-- {
					s := current[i]
					if overlapSize+len(s) <= chunkOverlap {
						overlap = append([]string{s}, overlap...)
						overlapSize += len(s) + 1
					} else {
						break
					}
				}
				current = overlap
				currentSize = overlapSize
			} else {
				current = nil
				currentSize = 0
			}
		}

		current = append(current, sentence)
		currentSize += sentenceSize + 1
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// ExtractKeywords returns the most frequent non-stop-words longer than
// three characters, most frequent first. Ties keep first-seen order.
func ExtractKeywords(text string, maxKeywords int) []string {
	if maxKeywords <= 0 {
		maxKeywords = 10
	}
	text = strings.ToLower(CleanText(text))

	freq := map[string]int{}
	var order []string
	for _, word := range wordRe.FindAllString(text, -1) {
		if len(word) <= 3 {
			continue
		}
		if _, ok := stopWords[word]; ok {
			continue
		}
		if _, seen := freq[word]; !seen {
			order = append(order, word)
		}
		freq[word]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})

	if len(order) > maxKeywords {
		order = order[:maxKeywords]
	}
	return order
}

// ExtractiveSummary selects the first sentence plus the highest-scoring
// others up to maxLength characters, then re-orders the picks back into
// document order.
func ExtractiveSummary(text string, maxLength int, multilingual bool) string {
	if maxLength <= 0 {
		maxLength = 500
	}
	text = CleanText(text)
	if text == "" {
		return ""
	}
	if len(text) <= maxLength {
		return text
	}

	sentences := SplitSentences(text, multilingual)
	if len(sentences) <= 3 {
		if len(sentences) <= 2 {
			return strings.Join(sentences, " ")
		}
		return strings.Join(sentences[:2], " ")
	}

	keywords := ExtractKeywords(text, 20)

	type scored struct {
		index int
		score float64
	}
	var ranked []scored
	for i, sentence := range sentences {
		if i == 0 {
			continue
		}
		positionScore := 1.0 / float64(i+1)

		lower := strings.ToLower(sentence)
		keywordScore := 0.0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				keywordScore++
			}
		}

		lengthScore := 0.5
		if n := len(sentence); n >= 10 && n <= 30 {
			lengthScore = 1.0
		}

		ranked = append(ranked, scored{
			index: i,
			score: positionScore*0.3 + keywordScore*0.6 + lengthScore*0.1,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	picked := map[int]bool{0: true}
	currentLength := len(sentences[0])
	for _, s := range ranked {
		if currentLength+len(sentences[s.index])+1 > maxLength {
			break
		}
		picked[s.index] = true
		currentLength += len(sentences[s.index]) + 1
	}

	var out []string
	for i, sentence := range sentences {
		if picked[i] {
			out = append(out, sentence)
		}
	}
	return strings.Join(out, " ")
}
