package service

import (
	"fmt"

	"feed-enricher/domain"
	"feed-enricher/validator"
)

// maxPromptChars keeps prompts inside the model context window.
const maxPromptChars = 12000

func clip(text string) string {
	runes := []rune(text)
	if len(runes) <= maxPromptChars {
		return text
	}
	return string(runes[:maxPromptChars])
}

func bodyPrompt(title, text string) string {
	return fmt.Sprintf(`You are an editor rewriting a news article for publication.

Rewrite the article below in the same language as the source. Rules:
- Between %d and %d words.
- Use markdown. Include at least two section headings starting with "## ".
- Include one bulleted list whose items start with "- ".
- Emphasize at least three key phrases with **double asterisks**.
- Keep every fact from the source. Do not invent quotes, names or numbers.
- Output only the article body, with no preamble and no title line.

TITLE: %s

ARTICLE:
---
%s
---`, validator.BodyMinWords, validator.BodyMaxWords, title, clip(text))
}

func metadataPrompt(title, text string) string {
	return fmt.Sprintf(`Read the article below and answer with exactly three lines, in the article's language:

TITLE: a headline of at most %d characters
SUMMARY: a summary of %d to %d words
CATEGORY: a section name of at most %d words

Do not add anything else.

ORIGINAL TITLE: %s

ARTICLE:
---
%s
---`, validator.TitleMaxChars, validator.SummaryMinWords, validator.SummaryMaxWords, validator.CategoryMaxWords, title, clip(text))
}

func tagsPrompt(meta domain.GeneratedMetadata, body string) string {
	return fmt.Sprintf(`List between %d and %d tags for the article below, in the article's language.
Each tag has at most %d words. Answer with one comma-separated line and nothing else.

TITLE: %s
SUMMARY: %s

BODY:
---
%s
---`, validator.MinTags, validator.MaxTags, validator.TagMaxWords, meta.Title, meta.Summary, clip(body))
}

func socialPrompt(meta domain.GeneratedMetadata, tags string) string {
	return fmt.Sprintf(`Write a social media post announcing the article below, in the article's language.
It must be plain prose between %d and %d characters, may start with one emoji, and may end with hashtags.
Answer with the post only.

TITLE: %s
SUMMARY: %s
TOPICS: %s`, validator.SocialMinChars, validator.SocialMaxChars, meta.Title, meta.Summary, tags)
}
