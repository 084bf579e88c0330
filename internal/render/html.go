package render

import (
	"html"
	"strings"

	xhtml "golang.org/x/net/html"
)

// HTMLToText converts an HTML error page to plain text.  The page title is
// prepended unless the body repeats it.  Scripts and styles are dropped, and
// block elements start new lines.
func HTMLToText(raw string, width int) string {
	if raw == "" {
		return ""
	}

	tokenizer := xhtml.NewTokenizer(strings.NewReader(raw))
	var sb strings.Builder
	var title string
	var inTitle, skip bool

	for {
		tt := tokenizer.Next()
		switch tt {
		case xhtml.ErrorToken:
			body := collapse(sb.String())
			if title != "" && !strings.Contains(body, title) {
				body = title + "\n" + body
			}
			return wrapText(strings.TrimSpace(body), width)

		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			t := tokenizer.Token()
			switch t.Data {
			case "title":
				inTitle = true
			case "script", "style":
				skip = true
			case "p", "div", "h1", "h2", "h3", "li", "tr":
				sb.WriteString("\n\n")
			case "br":
				sb.WriteString("\n")
			}

		case xhtml.EndTagToken:
			switch tokenizer.Token().Data {
			case "title":
				inTitle = false
			case "script", "style":
				skip = false
			}

		case xhtml.TextToken:
			text := html.UnescapeString(tokenizer.Token().Data)
			switch {
			case inTitle:
				title = strings.TrimSpace(text)
			case skip:
				// Not shown.
			default:
				sb.WriteString(text)
			}
		}
	}
}

// collapse squeezes runs of blank space in each paragraph of text.
func collapse(text string) string {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.Join(strings.Fields(p), " "); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return strings.Join(paragraphs, "\n")
}

// wrapText performs simple word wrapping to the given width.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	var result strings.Builder
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}
		lineLen := 0
		for i, word := range words {
			wlen := len(word)
			if i > 0 && lineLen+1+wlen > width {
				result.WriteString("\n")
				lineLen = 0
			} else if i > 0 {
				result.WriteString(" ")
				lineLen++
			}
			result.WriteString(word)
			lineLen += wlen
		}
		result.WriteString("\n")
	}
	return strings.TrimRight(result.String(), "\n")
}
