package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsgraph/backend/internal/ingest"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Fallback title | Daily Mirror</title>
  <meta property="og:title" content="Biden meets Zelensky">
  <meta property="og:site_name" content="Daily Mirror">
  <meta property="article:section" content="Politics">
  <meta property="article:published_time" content="2024-03-01T12:00:00Z">
  <style>p { color: red; }</style>
</head>
<body>
  <nav><p>Home | World | Sport</p></nav>
  <article>
    <h1>Biden meets Zelensky</h1>
    <p>Joe Biden met   Ukraine's president
       at the White House.</p>
    <script>var tracking = "<p>not text</p>";</script>
    <p>Talks focused on aid.</p>
  </article>
  <footer><p>Copyright</p></footer>
</body>
</html>`

func TestFromHTML(t *testing.T) {
	got, err := FromHTML(samplePage, ingest.ArticleInput{Source: "ignored", Category: "ignored"})
	require.NoError(t, err)

	assert.Equal(t, "Biden meets Zelensky", got.Title)
	assert.Equal(t, "Daily Mirror", got.Source)
	assert.Equal(t, "Politics", got.Category)
	assert.Equal(t, "2024-03-01T12:00:00Z", got.Timestamp)
	assert.Equal(t, "Joe Biden met Ukraine's president at the White House.\n\nTalks focused on aid.", got.Text)
}

func TestFromHTML_FallbackFields(t *testing.T) {
	page := `<html><head><title> Plain page </title></head>
<body><p>First.</p><div><p>Second.</p></div><footer><p>Footer</p></footer></body></html>`

	got, err := FromHTML(page, ingest.ArticleInput{Source: "Reuters", Category: "World", Timestamp: "t0"})
	require.NoError(t, err)

	assert.Equal(t, "Plain page", got.Title)
	assert.Equal(t, "Reuters", got.Source)
	assert.Equal(t, "World", got.Category)
	assert.Equal(t, "t0", got.Timestamp)
	assert.Equal(t, "First.\n\nSecond.", got.Text)
}

func TestFromHTML_TimeElementAndH1(t *testing.T) {
	page := `<html><body><article><h1>Headline</h1><time datetime="2024-05-02">May 2</time>
<p>Body.</p></article></body></html>`

	got, err := FromHTML(page, ingest.ArticleInput{})
	require.NoError(t, err)
	assert.Equal(t, "Headline", got.Title)
	assert.Equal(t, "2024-05-02", got.Timestamp)
	assert.Equal(t, "Body.", got.Text)
}

func TestFromHTML_NoText(t *testing.T) {
	_, err := FromHTML(`<html><body><script>x()</script><nav>menu</nav></body></html>`, ingest.ArticleInput{})
	assert.ErrorIs(t, err, ErrNoArticleText)
}
