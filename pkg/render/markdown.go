package render

import (
	"html"
	"regexp"
	"strings"

	"github.com/russross/blackfriday"
)

const sourcesMarker = "**Fontes consultadas:**"

const (
	htmlFlags = blackfriday.HTML_USE_XHTML |
		blackfriday.HTML_SKIP_HTML |
		blackfriday.HTML_SKIP_STYLE |
		blackfriday.HTML_SKIP_IMAGES |
		blackfriday.HTML_SAFELINK

	extensions = blackfriday.EXTENSION_NO_INTRA_EMPHASIS |
		blackfriday.EXTENSION_FENCED_CODE |
		blackfriday.EXTENSION_AUTOLINK |
		blackfriday.EXTENSION_STRIKETHROUGH
)

// Telegram accepts only a handful of inline tags, so block elements are flattened.
var replacements = []struct {
	re   *regexp.Regexp
	with string
}{
	{regexp.MustCompile(`<p>`), ""},
	{regexp.MustCompile(`</p>`), "\n\n"},
	{regexp.MustCompile(`<h[1-6][^>]*>`), "<b>"},
	{regexp.MustCompile(`</h[1-6]>`), "</b>\n\n"},
	{regexp.MustCompile(`<(ul|ol)>\n?`), ""},
	{regexp.MustCompile(`</(ul|ol)>`), "\n"},
	{regexp.MustCompile(`<li>`), "• "},
	{regexp.MustCompile(`</li>\n?`), "\n"},
	{regexp.MustCompile(`<br ?/?>`), "\n"},
	{regexp.MustCompile(`<hr ?/?>`), "\n"},
	{regexp.MustCompile(`<del>`), "<s>"},
	{regexp.MustCompile(`</del>`), "</s>"},
	{regexp.MustCompile(`<a href="([^"]*)"[^>]*>`), `<a href="$1">`},
	{regexp.MustCompile(`</?(table|thead|tbody|tr|th|td|blockquote|div|span)[^>]*>`), ""},
	{regexp.MustCompile(`<code class="[^"]*">`), "<code>"},
	{regexp.MustCompile(`\n{3,}`), "\n\n"},
	{regexp.MustCompile(`• \n+`), "• "},
}

// Markdown converts model output to the HTML subset Telegram accepts.
func Markdown(text string) string {
	out := string(blackfriday.Markdown([]byte(text), blackfriday.HtmlRenderer(htmlFlags, "", ""), extensions))
	for _, r := range replacements {
		out = r.re.ReplaceAllString(out, r.with)
	}
	return strings.TrimSpace(out)
}

// SplitSources separates the answer body from its trailing sources section.
func SplitSources(text string) (body, sources string) {
	before, after, found := strings.Cut(text, sourcesMarker)
	if !found {
		return text, ""
	}
	return strings.TrimSpace(before), strings.TrimSpace(after)
}

// BotMessage renders an answer with its sources set apart under a heading.
func BotMessage(text string) string {
	body, sources := SplitSources(text)
	out := Markdown(body)
	if sources != "" {
		out += "\n\n<b>Fontes</b>\n" + Markdown(sources)
	}
	return out
}

// UserMessage escapes text typed by a user.
func UserMessage(text string) string {
	return html.EscapeString(text)
}

// Chunks splits rendered text on paragraph boundaries so each piece fits in limit runes.
func Chunks(text string, limit int) []string {
	if limit <= 0 || len([]rune(text)) <= limit {
		return []string{text}
	}

	var (
		chunks []string
		cur    strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			chunks = append(chunks, strings.TrimSpace(cur.String()))
			cur.Reset()
		}
	}

	for _, para := range strings.Split(text, "\n\n") {
		for len([]rune(para)) > limit {
			flush()
			runes := []rune(para)
			chunks = append(chunks, string(runes[:limit]))
			para = string(runes[limit:])
		}
		if len([]rune(cur.String()))+len([]rune(para))+2 > limit {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(para)
	}
	flush()
	return chunks
}
