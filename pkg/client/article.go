package client

import (
	"context"
	"time"

	"github.com/Sternrassler/zyte-api-client/pkg/markdown"
)

// PublishedLayout is the date format of ArticleMeta.PublishedOn.
const PublishedLayout = "2 January 2006"

// ArticleMeta describes an extracted article.
type ArticleMeta struct {
	URL         string   `json:"url,omitempty"`
	Headline    string   `json:"headline,omitempty"`
	HTMLTitle   string   `json:"html_title,omitempty"`
	PublishedOn string   `json:"published_on,omitempty"`
	Authors     []string `json:"authors,omitempty"`
}

// ArticleContent is an article body as markdown plus its metadata.
// Both are empty when the page has no article body.
type ArticleContent struct {
	Meta    ArticleMeta `json:"meta"`
	Content string      `json:"content"`
}

// ExtractArticleContent returns the article of url as clean markdown.
func (c *Client) ExtractArticleContent(ctx context.Context, url string) (ArticleContent, error) {
	return single(url, c.ExtractArticleContents(ctx, []string{url}))
}

// ExtractArticleContents returns the article of every URL as clean markdown.
func (c *Client) ExtractArticleContents(ctx context.Context, urls []string) map[string]Extracted[ArticleContent] {
	results := c.ExtractMany(ctx, urls, Options{OptionArticle: true, OptionBrowserHTML: true})
	return pick(results, c.articleContent)
}

func (c *Client) articleContent(p *Payload) (ArticleContent, error) {
	if p.Article == nil || p.Article.ArticleBodyHTML == "" {
		return ArticleContent{}, nil
	}

	content, err := c.converter.Convert(p.Article.ArticleBodyHTML)
	if err != nil {
		return ArticleContent{}, &DecodeError{Field: "articleBodyHtml", Err: err}
	}
	if content == "" {
		return ArticleContent{}, nil
	}

	meta := ArticleMeta{
		URL:         p.URL,
		Headline:    p.Article.Headline,
		HTMLTitle:   markdown.TitleFromHTML(p.BrowserHTML),
		PublishedOn: formatPublished(p.Article.DatePublished),
	}
	for _, a := range p.Article.Authors {
		if a.Name != "" {
			meta.Authors = append(meta.Authors, a.Name)
		}
	}

	return ArticleContent{Meta: meta, Content: content}, nil
}

var publishedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// formatPublished renders an ISO-8601 date as "2 January 2006", or "" when
// the value cannot be parsed.
func formatPublished(value string) string {
	if value == "" {
		return ""
	}
	for _, layout := range publishedLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(PublishedLayout)
		}
	}
	return ""
}
