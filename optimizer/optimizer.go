package optimizer

import (
	"fmt"
	"html"
	"math"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Optimizer rewrites HTML fragments into complete, SEO-optimized documents.
// It holds only immutable configuration and is safe for concurrent use.
type Optimizer struct {
	siteBaseURL string
}

// New creates an Optimizer. siteBaseURL is used for canonical URLs and for
// classifying links as internal; empty falls back to a placeholder domain.
func New(siteBaseURL string) *Optimizer {
	if siteBaseURL == "" {
		siteBaseURL = "https://example.com"
	}
	return &Optimizer{siteBaseURL: strings.TrimRight(siteBaseURL, "/")}
}

// Optimize runs the full transformation pipeline: title and meta description
// normalization, keyword density adjustment, structural enrichment, head
// assembly and score recomputation. It never fails on malformed HTML; missing
// elements are treated as absent and synthesized.
func (o *Optimizer) Optimize(req Request) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("optimization panic: %v", r)
		}
	}()

	if req.Schema == "" {
		req.Schema = "Article"
	}
	if len(req.Categories) == 0 {
		req.Categories = []string{"Blog"}
	}
	keyword := collapseSpaces(req.FocusKeyword)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(req.HTMLCode))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	body := doc.Find("body")
	sentences := splitSentences(body.Text())

	applied := make([]string, 0, 10)

	title, titleChanged := o.optimizeTitle(existingTitle(doc), keyword, sentences)
	if titleChanged {
		applied = append(applied, "Optimized title tag")
	}

	meta, metaChanged := o.optimizeMetaDescription(existingMetaDescription(doc), keyword, sentences)
	if metaChanged {
		applied = append(applied, "Generated meta description")
	}

	if doc.Find("h1").Length() == 0 {
		body.PrependHtml("<h1>" + html.EscapeString(title) + "</h1>")
		applied = append(applied, "Added H1 heading")
	}

	if o.adjustKeywordDensity(body, keyword) {
		applied = append(applied, "Adjusted keyword density")
	}

	if o.insertHeadings(doc, body, keyword, sentences) {
		applied = append(applied, "Added H2 headings")
	}

	internal, external := countLinks(body, o.siteBaseURL)
	if internal == 0 {
		o.insertInternalLinks(body, keyword, sentences)
		applied = append(applied, "Added internal links")
	}
	if external == 0 {
		o.insertExternalLink(body, keyword)
		applied = append(applied, "Added external link")
	}

	if fillImageAltText(body, keyword) {
		applied = append(applied, "Added image alt text")
	}

	applied = append(applied, o.assembleHead(doc, req, title, meta)...)

	rendered, err := renderDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("render document: %w", err)
	}

	after := o.scoreDocument(doc, keyword)
	density := math.Round(keywordDensity(doc.Find("body").Text(), keyword)*100) / 100

	return &Result{
		SEOScoreBefore:         req.SEOScore,
		SEOScoreAfter:          after,
		Improvement:            after - req.SEOScore,
		OptimizedHTMLWordPress: rendered,
		KeywordDensity:         density,
		TitleLength:            runeLen(title),
		MetaLength:             runeLen(meta),
		Optimizations:          applied,
	}, nil
}

// existingTitle prefers the <title> tag and falls back to the first <h1>.
func existingTitle(doc *goquery.Document) string {
	if t := collapseSpaces(doc.Find("title").First().Text()); t != "" {
		return t
	}
	return collapseSpaces(doc.Find("h1").First().Text())
}

func existingMetaDescription(doc *goquery.Document) string {
	content, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	return collapseSpaces(content)
}

const titleFiller = " | Complete Guide with Proven Tips and Expert Advice"

// optimizeTitle keeps compliant titles untouched and reworks everything else
// into the 55-60 character window. Returns the final title and whether it
// differs from the input.
func (o *Optimizer) optimizeTitle(existing, keyword string, sentences []string) (string, bool) {
	if l := runeLen(existing); l >= titleMinLen && l <= titleMaxLen {
		return existing, false
	}

	candidate := existing
	if candidate == "" {
		candidate = keyword
		if len(sentences) > 0 {
			candidate = keyword + " — " + sentences[0]
		}
	} else if !containsFold(candidate, keyword) {
		candidate = candidate + " | " + keyword
	}
	return fitToWindow(candidate, titleMinLen, titleMaxLen, titleFiller), true
}

const (
	metaCTA    = " Discover practical tips and proven strategies you can apply today!"
	metaFiller = " Learn what works, avoid common mistakes and get real results faster"
)

// optimizeMetaDescription keeps compliant descriptions and otherwise builds
// one from the first two body sentences plus a call-to-action suffix, fitted
// to the 140-160 character window.
func (o *Optimizer) optimizeMetaDescription(existing, keyword string, sentences []string) (string, bool) {
	if l := runeLen(existing); l >= metaMinLen && l <= metaMaxLen {
		return existing, false
	}

	base := ""
	if len(sentences) > 0 {
		n := len(sentences)
		if n > 2 {
			n = 2
		}
		base = strings.Join(sentences[:n], ". ") + "."
	}
	if base == "" {
		base = fmt.Sprintf("Discover everything you need to know about %s.", keyword)
	}
	if !containsFold(base, keyword) {
		base = titleCase(keyword) + ": " + base
	}
	return fitToWindow(base+metaCTA, metaMinLen, metaMaxLen, metaFiller), true
}

// keywordSentenceTemplates each mention the focus keyword exactly once, so a
// single insertion raises the occurrence count by one.
var keywordSentenceTemplates = []string{
	"When it comes to %s, small consistent steps beat big occasional pushes.",
	"Many readers find that %s becomes much easier with a clear plan.",
	"A solid grasp of %s pays off quickly in practice.",
	"Keep %s in mind as you work through the sections below.",
}

// adjustKeywordDensity appends keyword-bearing sentences to body paragraphs
// until the density reaches the target band or the insertion cap is hit.
// Density above the band is left alone; content is never removed.
func (o *Optimizer) adjustKeywordDensity(body *goquery.Selection, keyword string) bool {
	if keyword == "" || keywordDensity(body.Text(), keyword) >= densityMin {
		return false
	}

	inserted := 0
	for inserted < maxKeywordInserts && keywordDensity(body.Text(), keyword) < densityMin {
		sentence := fmt.Sprintf(keywordSentenceTemplates[inserted%len(keywordSentenceTemplates)], html.EscapeString(keyword))
		paragraphs := body.Find("p")
		if paragraphs.Length() == 0 {
			body.AppendHtml("<p>" + sentence + "</p>")
		} else {
			paragraphs.Eq(inserted % paragraphs.Length()).AppendHtml(" " + sentence)
		}
		inserted++
	}
	return inserted > 0
}

var headingTemplates = []string{
	"Understanding %s",
	"Why %s Matters",
	"Getting the Most Out of %s",
}

// insertHeadings tops the document up to minH2Count secondary headings,
// deriving heading text from sentences sampled at even intervals and placing
// the new headings at even paragraph intervals.
func (o *Optimizer) insertHeadings(doc *goquery.Document, body *goquery.Selection, keyword string, sentences []string) bool {
	need := minH2Count - doc.Find("h2").Length()
	if need <= 0 {
		return false
	}

	paragraphs := body.Find("p")
	used := make(map[string]bool, need)
	for i := 0; i < need; i++ {
		heading := ""
		if len(sentences) > 0 {
			topic := firstWords(sentences[i*len(sentences)/need], 6)
			if len(strings.Fields(topic)) >= 2 && !used[topic] {
				heading = titleCase(topic)
				used[topic] = true
			}
		}
		if heading == "" {
			heading = fmt.Sprintf(headingTemplates[i%len(headingTemplates)], titleCase(keyword))
		}

		tag := "<h2>" + html.EscapeString(heading) + "</h2>"
		if paragraphs.Length() == 0 {
			body.AppendHtml(tag)
			continue
		}
		idx := (i + 1) * paragraphs.Length() / (need + 1)
		if idx >= paragraphs.Length() {
			idx = paragraphs.Length() - 1
		}
		paragraphs.Eq(idx).AfterHtml(tag)
	}
	return true
}

// countLinks classifies anchors: root-relative hrefs and hrefs under the
// configured site base count as internal, other absolute URLs as external.
func countLinks(body *goquery.Selection, siteBaseURL string) (internal, external int) {
	body.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		switch {
		case href == "" || strings.HasPrefix(href, "#"):
		case strings.HasPrefix(href, "/") || strings.HasPrefix(href, siteBaseURL):
			internal++
		case strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://"):
			external++
		default:
			internal++ // relative path within the site
		}
	})
	return internal, external
}

var anchorTemplates = []string{"%s guide", "%s tips", "%s examples"}

// insertInternalLinks adds placeholder internal links with anchor text drawn
// from nearby sentence words, appended to body paragraphs round-robin.
func (o *Optimizer) insertInternalLinks(body *goquery.Selection, keyword string, sentences []string) {
	for i := 0; i < internalLinkCount; i++ {
		anchor := ""
		if i < len(sentences) {
			anchor = firstWords(sentences[i], 3)
		}
		if len(strings.Fields(anchor)) < 2 {
			anchor = fmt.Sprintf(anchorTemplates[i%len(anchorTemplates)], keyword)
		}
		link := fmt.Sprintf(`Related reading: <a href="/%s/">%s</a>.`, slugify(anchor), html.EscapeString(anchor))

		paragraphs := body.Find("p")
		if paragraphs.Length() == 0 {
			body.AppendHtml("<p>" + link + "</p>")
		} else {
			paragraphs.Eq(i % paragraphs.Length()).AppendHtml(" " + link)
		}
	}
}

// insertExternalLink appends one authoritative external reference.
func (o *Optimizer) insertExternalLink(body *goquery.Selection, keyword string) {
	display := titleCase(keyword)
	link := fmt.Sprintf(
		`For more background, see <a href="https://en.wikipedia.org/wiki/%s" target="_blank" rel="noopener">%s on Wikipedia</a>.`,
		url.PathEscape(strings.ReplaceAll(display, " ", "_")), html.EscapeString(display))

	paragraphs := body.Find("p")
	if paragraphs.Length() == 0 {
		body.AppendHtml("<p>" + link + "</p>")
	} else {
		paragraphs.Last().AppendHtml(" " + link)
	}
}

// fillImageAltText injects keyword-based alt text into images lacking it.
func fillImageAltText(body *goquery.Selection, keyword string) bool {
	filled := false
	body.Find("img").Each(func(i int, s *goquery.Selection) {
		if alt, ok := s.Attr("alt"); !ok || strings.TrimSpace(alt) == "" {
			s.SetAttr("alt", fmt.Sprintf("%s illustration %d", keyword, i+1))
			filled = true
		}
	})
	return filled
}

// scoreDocument rebuilds the score from zero against the final document
// using the fixed point table, capped at maxScore. The prior score is
// reported back but never feeds into this computation.
func (o *Optimizer) scoreDocument(doc *goquery.Document, keyword string) int {
	score := 0

	if collapseSpaces(doc.Find("title").First().Text()) != "" {
		score += pointsTitle
	}
	if content, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok && content != "" {
		score += pointsMeta
	}
	if doc.Find("h1").Length() > 0 {
		score += pointsH1
	}

	h2 := doc.Find("h2").Length()
	if h2 > maxScoredH2 {
		h2 = maxScoredH2
	}
	score += h2 * pointsPerH2

	body := doc.Find("body")
	if d := keywordDensity(body.Text(), keyword); d >= densityMin && d <= densityMax {
		score += pointsDensity
	}

	internal, external := countLinks(body, o.siteBaseURL)
	if internal > 0 {
		score += pointsInternalLinks
	}
	if external > 0 {
		score += pointsExternalLink
	}

	missingAlt := false
	body.Find("img").Each(func(_ int, s *goquery.Selection) {
		if alt, ok := s.Attr("alt"); !ok || strings.TrimSpace(alt) == "" {
			missingAlt = true
		}
	})
	if !missingAlt {
		score += pointsAltText
	}

	if doc.Find(`script[type="application/ld+json"]`).Length() > 0 {
		score += pointsSchema
	}
	if doc.Find(`link[rel="canonical"]`).Length() > 0 {
		score += pointsCanonical
	}

	if score > maxScore {
		score = maxScore
	}
	return score
}
