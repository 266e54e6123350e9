package ingest

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// contentSelectors are tried in order when stripping an HTML course export;
// the first match wins.
var contentSelectors = []string{
	"main",
	"article",
	".content",
	"#content",
	".documentation",
	"#documentation",
}

// ExtractHTMLText strips markup from an HTML course export so the result can
// be fed to Parse. Pre-formatted blocks keep their own line breaks;
// paragraph-per-line exports get one line per block element.
func ExtractHTMLText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", err
	}

	root := doc.Find("body")
	for _, selector := range contentSelectors {
		if selected := doc.Find(selector); selected.Length() > 0 {
			root = selected.First()
			break
		}
	}

	if pre := root.Find("pre"); pre.Length() > 0 {
		return pre.Text(), nil
	}

	blocks := root.Find("p, h1, h2, h3, li, div")
	if blocks.Length() == 0 {
		return root.Text(), nil
	}

	var b strings.Builder
	blocks.Each(func(_ int, s *goquery.Selection) {
		// Skip containers so nested text is not emitted twice.
		if s.Children().Length() > 0 {
			return
		}
		b.WriteString(strings.TrimSpace(s.Text()))
		b.WriteByte('\n')
	})
	if b.Len() == 0 {
		return root.Text(), nil
	}
	return b.String(), nil
}
