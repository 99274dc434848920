package generator

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// DefaultTitleMaxLen caps synthesized session titles, in characters.
const DefaultTitleMaxLen = 50

var markdown = goldmark.New()

// CleanTitle turns a raw model reply into a plain single-line title of at most
// maxLen characters. Markdown emphasis, headings and surrounding quotes are removed.
func CleanTitle(raw string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultTitleMaxLen
	}
	src := []byte(firstLine(raw))
	doc := markdown.Parser().Parse(text.NewReader(src))

	var sb strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})

	title := strings.Join(strings.Fields(sb.String()), " ")
	title = strings.Trim(title, "\"'`“”‘’ ")
	title = strings.TrimPrefix(title, "Title: ")
	return truncateRunes(title, maxLen)
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			return strings.TrimSpace(line)
		}
	}
	return ""
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}
