package places

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainAttributions converts html_attributions fragments into display text,
// dropping empties and duplicates while keeping first-seen order.
func PlainAttributions(fragments []string) []string {
	var out []string
	seen := make(map[string]struct{}, len(fragments))
	for _, frag := range fragments {
		text := attributionText(frag)
		if text == "" {
			continue
		}
		if _, dup := seen[text]; dup {
			continue
		}
		seen[text] = struct{}{}
		out = append(out, text)
	}
	return out
}

func attributionText(fragment string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	// collapse the whitespace left behind by markup
	return strings.Join(strings.Fields(doc.Text()), " ")
}
