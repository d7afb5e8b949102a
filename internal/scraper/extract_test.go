package scraper_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/iiviie/liveblog-watch/internal/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPostID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id   string
		want bool
	}{
		{id: "post-123", want: true},
		{id: "post-0", want: true},
		{id: "post-abc", want: false},
		{id: "posts-123", want: false},
		{id: "xpost-123", want: false},
		{id: "post-123x", want: false},
		{id: "Post-123", want: false},
		{id: "post-", want: false},
		{id: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, scraper.IsPostID(tt.id))
		})
	}
}

func TestExtract(t *testing.T) {
	t.Parallel()

	markup := `<html><body>
	<div id="header">Live updates</div>
	<div id="post-5">
		<span class="time">10:02</span>
		<h3>Restock at Argos</h3>
		<p>Consoles are <b>available</b> now</p>
	</div>
	<div id="post-abc"><span>10:03</span><p>not a post</p></div>
	<section id="posts-7"><span>10:04</span><p>not a post</p></section>
	<div id="xpost-8"><span>10:05</span><p>not a post</p></div>
	<article id="post-6"><time>10:06</time></article>
	</body></html>`

	posts, err := scraper.Extract(markup)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "post-5", posts[0].ID)
	assert.Equal(t, "Restock at Argos Consoles are available now", posts[0].Title)

	assert.Equal(t, "post-6", posts[1].ID)
	assert.Empty(t, posts[1].Title)
}

func TestExtract_SkipsScriptsAndComments(t *testing.T) {
	t.Parallel()

	markup := `<div id="post-1">
		<span>09:00</span>
		<!-- editor note -->
		<script>var tracking = 1;</script>
		<style>.x{color:red}</style>
		<p>Headline</p>
	</div>`

	posts, err := scraper.Extract(markup)
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "Headline", posts[0].Title)
}

func TestExtract_ShortensLongTitles(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("restock ", 30)
	posts, err := scraper.Extract(`<div id="post-9"><span>11:00</span><p>` + long + `</p></div>`)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	assert.LessOrEqual(t, utf8.RuneCountInString(posts[0].Title), scraper.TitleWidth)
	assert.True(t, strings.HasSuffix(posts[0].Title, scraper.TitlePlaceholder))
}

func TestExtract_NoPosts(t *testing.T) {
	t.Parallel()

	posts, err := scraper.Extract(`<html><body><p>nothing</p></body></html>`)
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestShorten(t *testing.T) {
	t.Parallel()

	fifty := strings.Repeat("a", 50)
	assert.Equal(t, fifty, scraper.Shorten(fifty, 100, "..."))

	// 30 words of 4 letters plus single spaces: 149 characters.
	words := strings.TrimSpace(strings.Repeat("word ", 30))
	got := scraper.Shorten(words, 100, "...")
	assert.Equal(t, strings.TrimSpace(strings.Repeat("word ", 19))+"...", got)
	assert.LessOrEqual(t, len(got), 100)

	oneWord := strings.Repeat("x", 150)
	got = scraper.Shorten(oneWord, 100, "...")
	assert.Len(t, got, 100)
	assert.True(t, strings.HasSuffix(got, "..."))

	assert.Equal(t, "a b c", scraper.Shorten("  a \n\t b   c ", 100, "..."))
	assert.Equal(t, "", scraper.Shorten("", 100, "..."))
}

func TestShorten_CountsCharactersNotBytes(t *testing.T) {
	t.Parallel()

	title := strings.Repeat("é", 100)
	assert.Equal(t, title, scraper.Shorten(title, 100, "..."))
}
