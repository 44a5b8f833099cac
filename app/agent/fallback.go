package agent

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// fallbackStopWords is a shorter list than the index's, tuned for question
// keyword extraction.
var fallbackStopWords = map[string]struct{}{}

func init() {
	for _, w := range []string{
		"a", "an", "the", "and", "or", "but", "if", "because", "as", "what",
		"when", "where", "how", "why", "which", "who", "whom", "this", "that",
		"these", "those", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did", "can", "could", "will",
		"would", "shall", "should", "may", "might", "must", "to", "of", "in",
		"for", "on", "by", "at", "with", "about", "against", "between", "into",
	} {
		fallbackStopWords[w] = struct{}{}
	}
}

var wordRe = regexp.MustCompile(`\b\w+\b`)

// FallbackAnswer builds an extractive answer from the evidence context when
// generation is unavailable: it scores context sentences by query keyword
// overlap and stitches the best ones into a short reply.
func FallbackAnswer(question, contextText string) string {
	keywords := extractKeywords(question)
	sentences := relevantSentences(splitSentences(contextText), keywords)
	return simpleAnswer(question, sentences)
}

func extractKeywords(text string) []string {
	var out []string
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if len(w) <= 2 {
			continue
		}
		if _, stop := fallbackStopWords[w]; stop {
			continue
		}
		out = append(out, w)
	}
	return out
}

// splitSentences cuts on terminal punctuation followed by whitespace.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}

// relevantSentences returns up to five sentences ranked by how many keywords
// they contain, keeping the original order among equal scores.
func relevantSentences(sentences, keywords []string) []string {
	type scored struct {
		text  string
		score int
	}
	var hits []scored
	for _, s := range sentences {
		lower := strings.ToLower(s)
		score := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > 0 {
			hits = append(hits, scored{text: s, score: score})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > 5 {
		hits = hits[:5]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.text
	}
	return out
}

func simpleAnswer(question string, sentences []string) string {
	if len(sentences) == 0 {
		return "I don't have enough information to answer this question."
	}

	q := strings.ToLower(strings.TrimSpace(question))
	switch {
	case hasAnyPrefix(q, "what", "who", "when", "where", "why", "how"):
		return sentences[0]
	case hasAnyPrefix(q, "is", "are", "was", "were", "do", "does", "did", "can", "could", "will", "would"):
		if containsNegation(sentences[0]) {
			return "Based on the information, no. " + sentences[0]
		}
		return "Based on the information, yes. " + sentences[0]
	default:
		return strings.Join(sentences, " ")
	}
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}

func containsNegation(sentence string) bool {
	lower := strings.ToLower(sentence)
	for _, neg := range []string{"not", "no", "n't", "never"} {
		if strings.Contains(lower, neg) {
			return true
		}
	}
	return false
}
