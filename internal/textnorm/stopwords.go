package textnorm

// englishStopwords is the embedded stopword set used by the optional
// stopword-removal pass. Matching is case-insensitive.
var englishStopwords = func() map[string]struct{} {
	words := []string{
		"a", "an", "and", "are", "as", "at", "be", "been", "but", "by",
		"did", "do", "does", "for", "from", "had", "has", "have", "he",
		"her", "hers", "him", "his", "i", "if", "in", "into", "is", "it",
		"its", "me", "my", "no", "not", "of", "on", "or", "our", "she",
		"so", "that", "the", "their", "them", "then", "there", "these",
		"they", "this", "those", "to", "was", "we", "were", "what", "when",
		"which", "who", "will", "with", "would", "you", "your",
	}
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}()
