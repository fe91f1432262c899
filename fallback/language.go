package fallback

import (
	"sync"

	"github.com/pemistahl/lingua-go"
)

// Language selects stop words, reporting verbs and section labels.
type Language string

const (
	English Language = "en"
	Spanish Language = "es"
)

// LanguageDetector guesses the language of a text.
type LanguageDetector interface {
	Detect(text string) Language
}

type linguaDetector struct {
	once     sync.Once
	detector lingua.LanguageDetector
	fallback Language
}

// NewLinguaDetector returns a detector restricted to the languages the fallback rules cover.
// Models are loaded on first use.
func NewLinguaDetector(defaultLanguage Language) LanguageDetector {
	return &linguaDetector{fallback: defaultLanguage}
}

func (d *linguaDetector) Detect(text string) Language {
	d.once.Do(func() {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.English, lingua.Spanish).
			WithLowAccuracyMode().
			Build()
	})

	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return d.fallback
	}
	switch lang {
	case lingua.Spanish:
		return Spanish
	case lingua.English:
		return English
	default:
		return d.fallback
	}
}

// FixedLanguage always reports the same language.
type FixedLanguage Language

func (f FixedLanguage) Detect(string) Language {
	return Language(f)
}

type labels struct {
	keyFacts     string
	keyFactsOnly string
	context      string
	contextOnly  string
	inBrief      string
}

var sectionLabels = map[Language]labels{
	English: {
		keyFacts:     "Key facts about %s",
		keyFactsOnly: "Key facts",
		context:      "Context: %s",
		contextOnly:  "Context",
		inBrief:      "In brief:",
	},
	Spanish: {
		keyFacts:     "Claves sobre %s",
		keyFactsOnly: "Claves",
		context:      "Contexto: %s",
		contextOnly:  "Contexto",
		inBrief:      "En síntesis:",
	},
}

func labelsFor(lang Language) labels {
	if l, ok := sectionLabels[lang]; ok {
		return l
	}
	return sectionLabels[English]
}
