package fallback

func wordSet(words ...string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

var stopWords = map[Language]map[string]bool{
	English: wordSet(
		"the", "and", "for", "are", "but", "not", "you", "all", "any", "can", "had", "her", "was", "one",
		"our", "out", "has", "have", "him", "his", "how", "its", "may", "new", "now", "old", "see", "two",
		"who", "did", "get", "let", "say", "she", "too", "use", "that", "with", "this", "from", "they",
		"will", "would", "there", "their", "what", "about", "which", "when", "were", "been", "than",
		"them", "then", "into", "more", "some", "such", "only", "over", "also", "after", "before",
		"could", "should", "other", "these", "those", "while", "where", "being", "because", "very",
		"just", "said", "says", "year", "years", "most", "many", "much", "each", "between", "through",
		"during", "under", "again", "does", "done", "here", "your", "yours", "upon", "within", "without",
	),
	Spanish: wordSet(
		"los", "las", "del", "que", "por", "con", "una", "para", "como", "más", "pero", "sus", "les",
		"este", "esta", "estos", "estas", "ese", "esa", "eso", "fue", "son", "era", "han", "hay", "ser",
		"sin", "sobre", "entre", "cuando", "muy", "también", "desde", "hasta", "donde", "quien", "todo",
		"todos", "todas", "uno", "unos", "unas", "porque", "está", "están", "estaba", "había", "según",
		"tras", "ante", "bajo", "cada", "dos", "tres", "año", "años", "dijo", "aseguró", "explicó",
		"afirmó", "señaló", "mientras", "durante", "otro", "otra", "otros", "otras", "mismo", "misma",
		"ya", "aún", "así", "sólo", "solo", "puede", "pueden", "tiene", "tienen", "hace", "sea", "ella",
		"ellos", "nos", "nuestro", "nuestra", "parte", "vez", "además", "luego", "antes", "después",
	),
}

// reportingVerbs open paragraphs that quote someone rather than state the news.
var reportingVerbs = map[Language]map[string]bool{
	English: wordSet("said", "says", "according", "reported", "told", "added", "noted", "explained", "stated", "announced"),
	Spanish: wordSet("dijo", "según", "afirmó", "aseguró", "explicó", "señaló", "indicó", "informó", "agregó", "manifestó", "expresó", "sostuvo"),
}

func isStopWord(lang Language, w string) bool {
	if set, ok := stopWords[lang]; ok && set[w] {
		return true
	}
	return false
}
