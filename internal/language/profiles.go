package language

// languageProfiles holds the embedded frequency profiles used by the heuristic
// fallback tier: the highest-frequency function words of each language the
// heuristic can vouch for. A token found in a profile counts as valid for
// that language.
var languageProfiles = map[string]map[string]struct{}{
	"en": wordSet(
		"the", "be", "is", "are", "was", "were", "to", "of", "and", "a",
		"an", "in", "that", "have", "has", "had", "it", "for", "not", "on",
		"with", "he", "she", "as", "you", "do", "at", "this", "but", "his",
		"her", "by", "from", "they", "we", "say", "said", "or", "will",
		"my", "one", "all", "would", "there", "their", "what", "so", "up",
		"out", "if", "about", "who", "get", "which", "go", "me", "when",
		"can", "like", "time", "no", "just", "him", "know", "take", "into",
		"your", "some", "could", "them", "see", "other", "than", "then",
		"now", "look", "only", "come", "its", "over", "think", "also",
		"how", "our", "work", "well", "way", "even", "new", "want", "because",
		"any", "these", "us", "i", "let",
	),
	"es": wordSet(
		"el", "la", "de", "que", "y", "a", "en", "un", "ser", "se", "no",
		"haber", "por", "con", "su", "para", "como", "estar", "tener",
		"le", "lo", "todo", "pero", "más", "hacer", "o", "poder", "decir",
		"este", "ir", "otro", "ese", "si", "me", "ya", "ver", "porque",
		"dar", "cuando", "muy", "sin", "vez", "mucho", "saber", "qué",
		"sobre", "mi", "alguno", "mismo", "yo", "también", "hasta", "una",
		"los", "las", "del", "al", "es", "son", "está", "fue", "había",
		"nos", "les", "está", "están", "entre", "años", "día",
	),
	"fr": wordSet(
		"le", "la", "de", "un", "une", "être", "et", "à", "il", "elle",
		"avoir", "ne", "je", "son", "que", "se", "qui", "ce", "dans", "en",
		"du", "pas", "pour", "sur", "faire", "plus", "dire", "me", "on",
		"mon", "lui", "nous", "comme", "mais", "pouvoir", "avec", "tout",
		"y", "aller", "voir", "bien", "où", "sans", "tu", "ou", "leur",
		"si", "deux", "moi", "vouloir", "te", "femme", "venir", "quand",
		"grand", "celui", "des", "les", "est", "sont", "était", "été",
		"cette", "ces", "aux", "au", "très", "aussi", "être",
	),
	"de": wordSet(
		"der", "die", "das", "und", "sein", "in", "ein", "eine", "zu",
		"haben", "ich", "werden", "sie", "von", "nicht", "mit", "es",
		"sich", "auch", "auf", "für", "an", "er", "so", "dass", "können",
		"dies", "als", "ihr", "ja", "wie", "bei", "oder", "wir", "aber",
		"dann", "man", "da", "sein", "noch", "nach", "was", "also", "aus",
		"all", "wenn", "nur", "müssen", "sagen", "um", "über", "machen",
		"kein", "ist", "sind", "war", "waren", "wird", "dem", "den", "des",
		"einen", "einem", "einer", "im", "am", "zum", "zur", "hat", "hatte",
	),
}

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
