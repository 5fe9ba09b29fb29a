package extract

import (
	"net/url"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"

	"image-scanner/pkg/parse"
)

// Pre-compiled regex for CSS url(...) references in style attributes and blocks.
var cssURLRe = regexp.MustCompile(`url\(([^)]+)\)`)

// DefaultImageExtensions are the recognized image file extensions.
var DefaultImageExtensions = []string{"jpg", "jpeg", "png", "gif", "webp", "svg"}

// DefaultExcludeKeywords are substrings that always disqualify an image URL.
var DefaultExcludeKeywords = []string{"logo", "icon", "favicon"}

// lazyAttrs are the <img> attributes checked for a source, in priority order.
var lazyAttrs = []string{"src", "data-src", "data-original", "data-lazy"}

// Result holds the candidate sets extracted from one page, sorted for
// deterministic iteration.
type Result struct {
	Images []string
	Links  []string
}

// Extractor scans page markup for candidate image URLs and crawlable links.
// It is stateless and safe for concurrent use.
type Extractor struct {
	imageExts       map[string]struct{}
	excludeKeywords []string
	log             *logrus.Entry
}

// NewExtractor creates an Extractor. Empty extension or exclude lists fall
// back to the package defaults.
func NewExtractor(imageExts, excludeKeywords []string, log *logrus.Entry) *Extractor {
	if len(imageExts) == 0 {
		imageExts = DefaultImageExtensions
	}
	if len(excludeKeywords) == 0 {
		excludeKeywords = DefaultExcludeKeywords
	}
	extSet := make(map[string]struct{}, len(imageExts))
	for _, ext := range imageExts {
		extSet[strings.ToLower(ext)] = struct{}{}
	}
	lowered := make([]string, len(excludeKeywords))
	for i, kw := range excludeKeywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &Extractor{
		imageExts:       extSet,
		excludeKeywords: lowered,
		log:             log,
	}
}

// Extract returns the image and link candidate sets found in rawHTML.
// keywords, when non-empty, restrict images to those matching by URL substring
// or by the element's associated text (alt+title for <img>, element text for
// styled elements, title for <video>). Absent or empty HTML yields empty
// sets; malformed markup degrades to whatever goquery can recover.
func (e *Extractor) Extract(baseURL, rawHTML string, keywords []string) Result {
	result := Result{}
	if rawHTML == "" {
		return result
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		// goquery's html parser is lenient; an error here means the input was
		// unreadable, which maps to the empty-page fallback.
		e.log.WithField("url", baseURL).Warnf("Unparseable HTML, extracting nothing: %v", err)
		return result
	}

	base, baseErr := url.Parse(baseURL)
	if baseErr != nil {
		base = nil // Resolve falls back to parsing candidates standalone
	}

	images := make(map[string]struct{})
	links := make(map[string]struct{})

	addImage := func(rawRef, contextText string) {
		candidate := e.resolveImage(base, rawRef)
		if candidate == "" {
			return
		}
		if !keywordMatch(keywords, candidate) && !keywordMatch(keywords, contextText) {
			return
		}
		images[candidate] = struct{}{}
	}

	// <img>: first non-empty lazy-loading attribute, plus every srcset candidate
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		alt, _ := img.Attr("alt")
		title, _ := img.Attr("title")
		contextText := alt + " " + title

		for _, attr := range lazyAttrs {
			if src, ok := img.Attr(attr); ok && strings.TrimSpace(src) != "" {
				addImage(src, contextText)
				break
			}
		}

		if srcset, ok := img.Attr("srcset"); ok {
			for _, candidate := range strings.Split(srcset, ",") {
				// First whitespace-delimited token of each candidate is the URL
				fields := strings.Fields(candidate)
				if len(fields) > 0 {
					addImage(fields[0], contextText)
				}
			}
		}
	})

	// Inline style attributes on any element
	doc.Find("[style]").Each(func(_ int, sel *goquery.Selection) {
		style, _ := sel.Attr("style")
		contextText := sel.Text()
		for _, ref := range cssURLRefs(style) {
			addImage(ref, contextText)
		}
	})

	// <style> block contents
	doc.Find("style").Each(func(_ int, sel *goquery.Selection) {
		for _, ref := range cssURLRefs(sel.Text()) {
			addImage(ref, "")
		}
	})

	// <meta content=...> (heuristic: only kept when the extension test passes)
	doc.Find("meta[content]").Each(func(_ int, sel *goquery.Selection) {
		if content, ok := sel.Attr("content"); ok && content != "" {
			addImage(content, "")
		}
	})

	// <link href=...> (same heuristic)
	doc.Find("link[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok && href != "" {
			addImage(href, "")
		}
	})

	// <video poster=...>
	doc.Find("video[poster]").Each(func(_ int, sel *goquery.Selection) {
		poster, _ := sel.Attr("poster")
		title, _ := sel.Attr("title")
		if poster != "" {
			addImage(poster, title)
		}
	})

	// <a href>: resolved and normalized, no extension or keyword filtering
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" {
			return
		}
		resolved, resolveErr := parse.Resolve(base, href)
		if resolveErr != nil {
			return
		}
		links[parse.NormalizeURL(resolved)] = struct{}{}
	})

	result.Images = sortedKeys(images)
	result.Links = sortedKeys(links)
	return result
}

// resolveImage resolves and normalizes one image candidate, returning "" when
// the candidate fails the extension test or contains an excluded keyword.
func (e *Extractor) resolveImage(base *url.URL, rawRef string) string {
	ref := strings.Trim(strings.TrimSpace(rawRef), `"'`)
	if ref == "" {
		return ""
	}
	resolved, err := parse.Resolve(base, ref)
	if err != nil {
		return ""
	}
	full := parse.NormalizeURL(resolved)

	if !e.hasImageExtension(full) {
		return ""
	}
	lowerFull := strings.ToLower(full)
	for _, kw := range e.excludeKeywords {
		if strings.Contains(lowerFull, kw) {
			return ""
		}
	}
	return full
}

// hasImageExtension applies the case-insensitive extension test after query
// stripping.
func (e *Extractor) hasImageExtension(rawURL string) bool {
	ext := strings.TrimPrefix(path.Ext(strings.ToLower(parse.StripQuery(rawURL))), ".")
	if ext == "" {
		return false
	}
	_, ok := e.imageExts[ext]
	return ok
}

// keywordMatch reports whether text contains any of the lowercase keywords.
// An empty keyword list trivially matches.
func keywordMatch(keywords []string, text string) bool {
	if len(keywords) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// cssURLRefs extracts the unquoted references from every url(...) in css.
func cssURLRefs(css string) []string {
	matches := cssURLRe.FindAllStringSubmatch(css, -1)
	refs := make([]string, 0, len(matches))
	for _, match := range matches {
		if len(match) >= 2 {
			refs = append(refs, strings.Trim(strings.TrimSpace(match[1]), `"'`))
		}
	}
	return refs
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
