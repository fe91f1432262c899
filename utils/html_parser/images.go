package html_parser

import (
	"net/url"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"feed-enricher/domain"
)

// MinImageDimension is the smallest declared width or height accepted for content images.
const MinImageDimension = 100

var blockedImageFragments = []string{
	"doubleclick", "googlesyndication", "adservice", "/ads/", "/ad/", "/adserver",
	"/pixel", "tracking", "/beacon", "analytics",
	"favicon", "/icon", "icons/", "sprite", "spacer", "1x1", "blank.gif",
	"/logo", "gravatar", "/avatar", "/emoji",
}

type foundImage struct {
	position int
	image    domain.Image
}

// ExtractImages returns captioned images in document order.
// Figures with an image and a non-empty caption are taken first; remaining images are kept only
// when an adjacent emphasis, small or caption-class sibling supplies a caption.
func ExtractImages(raw, pageURL string) []domain.Image {
	if !strings.Contains(raw, "<img") {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return nil
	}

	var base *url.URL
	if pageURL != "" {
		base, _ = url.Parse(pageURL)
	}

	positions := make(map[*html.Node]int)
	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		positions[s.Get(0)] = i
	})

	seen := make(map[string]bool)
	var found []foundImage

	doc.Find("figure").Each(func(_ int, fig *goquery.Selection) {
		img := fig.Find("img").First()
		if img.Length() == 0 {
			return
		}
		caption := normalizeWhitespace(fig.Find("figcaption").First().Text())
		if caption == "" {
			return
		}
		src := resolveURL(base, imageSource(img))
		if seen[src] || !acceptImage(img, src) {
			return
		}
		seen[src] = true
		found = append(found, foundImage{
			position: positions[img.Get(0)],
			image:    domain.Image{URL: src, AltText: altText(img), Caption: caption},
		})
	})

	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		src := resolveURL(base, imageSource(img))
		if src == "" || seen[src] {
			return
		}
		caption := siblingCaption(img)
		if caption == "" || !acceptImage(img, src) {
			return
		}
		seen[src] = true
		found = append(found, foundImage{
			position: positions[img.Get(0)],
			image:    domain.Image{URL: src, AltText: altText(img), Caption: caption},
		})
	})

	sort.SliceStable(found, func(i, j int) bool { return found[i].position < found[j].position })

	images := make([]domain.Image, len(found))
	for i, f := range found {
		images[i] = f.image
	}
	return images
}

func imageSource(img *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-lazy-src", "data-original"} {
		if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" && !strings.HasPrefix(strings.TrimSpace(v), "data:image/gif") {
			return strings.TrimSpace(v)
		}
	}
	if srcset, ok := img.Attr("srcset"); ok {
		first := strings.TrimSpace(strings.Split(srcset, ",")[0])
		if fields := strings.Fields(first); len(fields) > 0 {
			return fields[0]
		}
	}
	return ""
}

func altText(img *goquery.Selection) string {
	alt, _ := img.Attr("alt")
	return normalizeWhitespace(alt)
}

// acceptImage rejects vector images, data URIs, ad/tracking/icon paths and declared sizes under the minimum.
func acceptImage(img *goquery.Selection, src string) bool {
	if IsBlockedImageURL(src) {
		return false
	}
	for _, attr := range []string{"width", "height"} {
		if v, ok := img.Attr(attr); ok {
			if n, ok := parseDimension(v); ok && n > 0 && n < MinImageDimension {
				return false
			}
		}
	}
	return true
}

// IsBlockedImageURL reports whether src can never be a content image.
func IsBlockedImageURL(src string) bool {
	lower := strings.ToLower(strings.TrimSpace(src))
	if lower == "" || strings.HasPrefix(lower, "data:") {
		return true
	}

	p := lower
	if u, err := url.Parse(lower); err == nil {
		p = u.Path
	}
	if path.Ext(p) == ".svg" {
		return true
	}

	for _, fragment := range blockedImageFragments {
		if strings.Contains(lower, fragment) {
			return true
		}
	}
	return false
}

func parseDimension(v string) (int, bool) {
	v = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(v)), "px")
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// siblingCaption reads the caption from the element next to the image, or next to its link or picture wrapper.
func siblingCaption(img *goquery.Selection) string {
	anchors := []*goquery.Selection{img}
	if parent := img.Parent(); parent.Is("picture") || (parent.Is("a") && parent.Children().Length() == 1) {
		anchors = append(anchors, parent)
	}

	for _, anchor := range anchors {
		for _, sib := range []*goquery.Selection{anchor.Next(), anchor.Prev()} {
			if sib.Length() == 0 || !isCaptionElement(sib) {
				continue
			}
			if text := normalizeWhitespace(sib.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

func isCaptionElement(s *goquery.Selection) bool {
	if s.Is("em, i, small, figcaption") {
		return true
	}
	class, _ := s.Attr("class")
	return strings.Contains(strings.ToLower(class), "caption")
}
