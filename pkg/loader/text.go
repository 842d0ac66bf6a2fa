package loader

import (
	"context"
	"strings"
	"unicode/utf8"
)

// extractText decodes plain text and markdown. Valid UTF-8 passes through
// untouched; anything else is decoded byte-per-rune as latin-1 so no upload
// is ever rejected for its encoding.
func (p *Processor) extractText(_ context.Context, data []byte) (string, string, bool) {
	if utf8.Valid(data) {
		return string(data), "utf-8", true
	}

	var b strings.Builder
	b.Grow(len(data))
	for _, c := range data {
		b.WriteRune(rune(c))
	}
	return b.String(), "latin-1", true
}
