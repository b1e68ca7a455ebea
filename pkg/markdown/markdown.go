// Package markdown turns article HTML into compact markdown.
package markdown

import (
	"fmt"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
)

// removedSelector matches elements dropped together with their content.
const removedSelector = "figure, iframe, audio, video, img, script, style, noscript"

// keptSelector matches the only elements that survive cleaning.
// Everything else is replaced by its children.
const keptSelector = "h1, h2, h3, h4, h5, h6, p, a, ul, ol, li"

// Converter cleans HTML down to headings, paragraphs, links and lists and
// renders the result as markdown with ATX headings.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			// ATX headings are the commonmark plugin default.
			commonmark.NewCommonmarkPlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into clean markdown.
// Blank input yields an empty string and no error.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}

	cleaned, err := Clean(html)
	if err != nil {
		return "", err
	}

	result, err := c.conv.ConvertString(cleaned)
	if err != nil {
		return "", fmt.Errorf("convert html: %w", err)
	}

	return strings.TrimSpace(result), nil
}

// Clean removes media elements and unwraps every element outside the kept
// set, returning the resulting body HTML.
func Clean(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	body := doc.Find("body")
	body.Find(removedSelector).Remove()

	body.Find("*").Not(keptSelector).Each(func(_ int, sel *goquery.Selection) {
		sel.ReplaceWithSelection(sel.Contents())
	})

	out, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return out, nil
}

// TitleFromHTML returns the whitespace-normalized text of <head><title>, or
// "" when the document has none.
func TitleFromHTML(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	title := doc.Find("head > title").First()
	if title.Length() == 0 {
		return ""
	}
	return strings.Join(strings.Fields(title.Text()), " ")
}
