package optimizer

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// schemaArticle is the JSON-LD structured data block embedded in the head.
type schemaArticle struct {
	Context        string   `json:"@context"`
	Type           string   `json:"@type"`
	Headline       string   `json:"headline"`
	Description    string   `json:"description"`
	Keywords       string   `json:"keywords,omitempty"`
	ArticleSection []string `json:"articleSection,omitempty"`
	Image          string   `json:"image,omitempty"`
}

// assembleHead completes the document head: charset and viewport metas,
// title, meta description, meta keywords, canonical link and schema markup.
// Elements already present are updated, never duplicated, so re-running the
// transformer on its own output is stable. Returns the applied-change labels.
func (o *Optimizer) assembleHead(doc *goquery.Document, req Request, title, meta string) []string {
	head := doc.Find("head")
	applied := make([]string, 0, 4)

	if head.Find("meta[charset]").Length() == 0 {
		head.PrependHtml(`<meta charset="utf-8">`)
	}
	if head.Find(`meta[name="viewport"]`).Length() == 0 {
		head.AppendHtml(`<meta name="viewport" content="width=device-width, initial-scale=1">`)
	}

	if head.Find("title").Length() == 0 {
		head.AppendHtml("<title></title>")
	}
	head.Find("title").First().SetText(title)

	if head.Find(`meta[name="description"]`).Length() == 0 {
		head.AppendHtml(`<meta name="description" content="">`)
	}
	head.Find(`meta[name="description"]`).First().SetAttr("content", meta)

	if len(req.Tags) > 0 && head.Find(`meta[name="keywords"]`).Length() == 0 {
		head.AppendHtml(fmt.Sprintf(`<meta name="keywords" content="%s">`,
			html.EscapeString(strings.Join(req.Tags, ", "))))
		applied = append(applied, "Added meta keywords")
	}

	if head.Find(`link[rel="canonical"]`).Length() == 0 {
		canonical := o.siteBaseURL + "/" + slugify(req.FocusKeyword) + "/"
		head.AppendHtml(fmt.Sprintf(`<link rel="canonical" href="%s">`, html.EscapeString(canonical)))
		applied = append(applied, "Added canonical URL")
	}

	if doc.Find(`script[type="application/ld+json"]`).Length() == 0 {
		block, err := json.Marshal(schemaArticle{
			Context:        "https://schema.org",
			Type:           req.Schema,
			Headline:       title,
			Description:    meta,
			Keywords:       strings.Join(req.Tags, ", "),
			ArticleSection: req.Categories,
			Image:          req.Image,
		})
		// a flat struct of strings cannot fail to marshal
		if err == nil {
			head.AppendHtml(`<script type="application/ld+json">` + string(block) + `</script>`)
			applied = append(applied, "Added schema markup")
		}
	}

	return applied
}

// renderDocument serializes the document with a doctype, ready to paste into
// a content editor.
func renderDocument(doc *goquery.Document) (string, error) {
	out, err := goquery.OuterHtml(doc.Find("html"))
	if err != nil {
		return "", err
	}
	return "<!DOCTYPE html>\n" + out, nil
}
