package jobform

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// VisibleText returns the text a reader sees in a rich-text description, with
// markup removed and whitespace collapsed. Input that fails to parse is treated
// as plain text.
func VisibleText(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}
