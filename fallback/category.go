package fallback

import (
	"strings"
)

// DefaultCategory is used when no topic keyword matches.
const DefaultCategory = "General"

// Topic is a fixed category with the keywords that vote for it.
type Topic struct {
	Name     string
	Emoji    string
	Keywords []string
}

// Topics is the fixed topic vocabulary, in tie-break order.
var Topics = []Topic{
	{Name: "Sport", Emoji: "⚽", Keywords: []string{
		"football", "soccer", "match", "tournament", "league", "goal", "coach", "player", "championship", "olympic",
		"fútbol", "partido", "torneo", "liga", "gol", "entrenador", "jugador", "campeonato", "club", "deportivo",
	}},
	{Name: "Economy", Emoji: "💰", Keywords: []string{
		"economy", "inflation", "market", "prices", "dollar", "bank", "investment", "exports", "salary", "tax",
		"economía", "inflación", "mercado", "precios", "dólar", "banco", "inversión", "exportaciones", "salario", "impuestos",
	}},
	{Name: "Politics", Emoji: "🏛️", Keywords: []string{
		"government", "minister", "election", "congress", "senate", "president", "mayor", "party", "law", "vote",
		"gobierno", "ministro", "elecciones", "congreso", "senado", "presidente", "intendente", "legislatura", "ley", "concejo",
	}},
	{Name: "Entertainment", Emoji: "🎬", Keywords: []string{
		"film", "movie", "actor", "actress", "series", "concert", "festival", "celebrity", "television", "show",
		"película", "cine", "actriz", "serie", "concierto", "espectáculo", "televisión", "famoso", "estreno", "artista",
	}},
	{Name: "Technology", Emoji: "💻", Keywords: []string{
		"technology", "software", "internet", "app", "digital", "artificial", "intelligence", "startup", "cyber", "smartphone",
		"tecnología", "aplicación", "digitales", "inteligencia", "plataforma", "redes", "datos", "ciberseguridad", "celular", "innovación",
	}},
	{Name: "Health", Emoji: "🩺", Keywords: []string{
		"health", "hospital", "doctor", "patients", "vaccine", "disease", "medical", "treatment", "virus", "clinic",
		"salud", "médico", "pacientes", "vacuna", "enfermedad", "tratamiento", "sanitario", "clínica", "dengue", "epidemia",
	}},
	{Name: "Agriculture", Emoji: "🌾", Keywords: []string{
		"agriculture", "farm", "farmers", "crop", "harvest", "cattle", "wheat", "soybean", "corn", "livestock",
		"campo", "agro", "productores", "cosecha", "siembra", "ganadería", "trigo", "soja", "maíz", "rural",
	}},
	{Name: "Culture", Emoji: "🎭", Keywords: []string{
		"culture", "museum", "book", "literature", "theatre", "exhibition", "music", "heritage", "library", "art",
		"cultura", "museo", "libro", "literatura", "teatro", "muestra", "música", "patrimonio", "biblioteca", "arte",
	}},
}

// Category picks the topic whose keywords occur most often in text.
func Category(text string) string {
	counts := make(map[string]int, len(Topics))
	for _, w := range Words(strings.ToLower(text)) {
		if topic, ok := topicIndex[w]; ok {
			counts[topic]++
		}
	}

	best, bestCount := DefaultCategory, 0
	for _, t := range Topics {
		if counts[t.Name] > bestCount {
			best, bestCount = t.Name, counts[t.Name]
		}
	}
	return best
}

// EmojiFor returns the emoji of a topic name, or a newspaper for unknown categories.
func EmojiFor(category string) string {
	for _, t := range Topics {
		if strings.EqualFold(t.Name, category) {
			return t.Emoji
		}
	}
	return "📰"
}

var topicIndex = keywordIndex()

func keywordIndex() map[string]string {
	index := make(map[string]string)
	for _, t := range Topics {
		for _, k := range t.Keywords {
			index[k] = t.Name
		}
	}
	return index
}
