package loader

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	"codeberg.org/readeck/go-readability/v2"
)

// extractHTML runs readability over the document and renders the main
// article content as plain text. Pages readability cannot make sense of
// fall back to a sentinel rather than raw markup.
func (p *Processor) extractHTML(_ context.Context, data []byte) (string, string, bool) {
	base, _ := url.Parse("http://localhost/")

	article, err := readability.FromReader(bytes.NewReader(data), base)
	if err != nil {
		return sentinel(".html", "unreadable document"), "readability", false
	}

	var sb strings.Builder
	if err := article.RenderText(&sb); err != nil {
		return sentinel(".html", "unreadable document"), "readability", false
	}
	return strings.TrimSpace(sb.String()), "readability", true
}
