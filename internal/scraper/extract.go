package scraper

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/iiviie/liveblog-watch/internal/models"
)

const (
	// TitleWidth is the maximum length of a post title, in characters
	TitleWidth = 100
	// TitlePlaceholder marks a shortened title
	TitlePlaceholder = "..."
)

var postIDPattern = regexp.MustCompile(`^post-\d+$`)

// IsPostID reports whether id names a live blog post element
func IsPostID(id string) bool {
	return postIDPattern.MatchString(id)
}

// Extract finds every post element in the markup, in document order.
//
// A post element is any element whose id is exactly "post-<digits>". Its
// first text fragment is the timestamp label and is dropped; the remaining
// fragments form the title.
func Extract(markup string) ([]*models.Post, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse markup: %w", err)
	}

	var posts []*models.Post
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		id := s.AttrOr("id", "")
		if !IsPostID(id) {
			return
		}

		var fragments []string
		for _, n := range s.Nodes {
			fragments = appendStrippedStrings(fragments, n)
		}
		if len(fragments) > 0 {
			fragments = fragments[1:]
		}

		posts = append(posts, &models.Post{
			ID:    id,
			Title: Shorten(strings.Join(fragments, " "), TitleWidth, TitlePlaceholder),
		})
	})

	return posts, nil
}

// appendStrippedStrings collects the non-empty, trimmed text nodes under n
func appendStrippedStrings(out []string, n *html.Node) []string {
	switch n.Type {
	case html.TextNode:
		if s := strings.TrimSpace(n.Data); s != "" {
			out = append(out, s)
		}
		return out
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "template":
			return out
		}
	case html.CommentNode:
		return out
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		out = appendStrippedStrings(out, child)
	}
	return out
}

// Shorten collapses whitespace in text and fits it into width characters.
// Whole words are kept while they fit alongside the placeholder; a first
// word that is too long on its own is cut mid-word.
func Shorten(text string, width int, placeholder string) string {
	words := strings.Fields(text)
	full := strings.Join(words, " ")
	if utf8.RuneCountInString(full) <= width {
		return full
	}
	if width <= 0 {
		return ""
	}

	room := width - utf8.RuneCountInString(placeholder)
	if room <= 0 {
		return string([]rune(placeholder)[:width])
	}

	var b strings.Builder
	n := 0
	for _, w := range words {
		wl := utf8.RuneCountInString(w)
		sep := 0
		if n > 0 {
			sep = 1
		}
		if n+sep+wl > room {
			break
		}
		if sep == 1 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		n += sep + wl
	}
	if n == 0 {
		return string([]rune(words[0])[:room]) + placeholder
	}

	return b.String() + placeholder
}
