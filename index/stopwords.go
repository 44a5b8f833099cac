package index

// stopWords are common English function words excluded from tokenization.
var stopWords = map[string]struct{}{}

func init() {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "because", "as", "what",
		"when", "where", "how", "why", "which", "who", "whom", "this", "that",
		"these", "those", "is", "are", "was", "were", "be", "been", "being",
		"have", "has", "had", "do", "does", "did", "can", "could", "will",
		"would", "shall", "should", "may", "might", "must", "to", "of", "in",
		"for", "on", "by", "at", "with", "about", "against", "between", "into",
		"through", "during", "before", "after", "above", "below", "from", "up",
		"down", "out", "off", "over", "under", "again", "further", "then",
		"once", "here", "there", "all", "any", "both", "each", "few", "more",
		"most", "other", "some", "such", "no", "nor", "not", "only", "own",
		"same", "so", "than", "too", "very", "s", "t", "just", "don", "now",
	}
	for _, w := range words {
		stopWords[w] = struct{}{}
	}
}
