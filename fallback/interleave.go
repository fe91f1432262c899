package fallback

import (
	"strings"

	"feed-enricher/domain"
)

// InterleaveImages inserts image annotations into an existing markdown body,
// spreading them across its prose paragraphs in their original order.
// Headings and list blocks never receive an image directly after them.
func InterleaveImages(body string, images []domain.Image) string {
	if len(images) == 0 {
		return body
	}

	blocks := strings.Split(strings.TrimSpace(body), "\n\n")
	var prose []int
	for i, b := range blocks {
		if isProseBlock(b) {
			prose = append(prose, i)
		}
	}
	if len(prose) == 0 {
		prose = []int{len(blocks) - 1}
	}

	placements := imagePlacements(len(prose), len(images))
	out := make([]string, 0, len(blocks)+len(images))
	for i, b := range blocks {
		out = append(out, b)
		for p, blockIdx := range prose {
			if blockIdx != i {
				continue
			}
			for _, idx := range placements[p] {
				out = append(out, ImageAnnotation(images[idx]))
			}
		}
	}
	return strings.Join(out, "\n\n")
}

func isProseBlock(block string) bool {
	trimmed := strings.TrimSpace(block)
	if trimmed == "" {
		return false
	}
	switch trimmed[0] {
	case '#', '-', '*', '+', '>', '!', '|':
		return strings.HasPrefix(trimmed, "**")
	}
	return !(trimmed[0] >= '0' && trimmed[0] <= '9' && strings.Contains(trimmed[:min(4, len(trimmed))], "."))
}
