package loader

import (
	"context"
	"path/filepath"
	"sort"
	"strings"
)

// Result is the outcome of processing one document. Failed results carry an
// error message instead of text; processing never panics or returns a Go
// error to the caller.
type Result struct {
	Filename       string   `json:"filename,omitempty"`
	FileType       string   `json:"file_type,omitempty"`
	Text           string   `json:"text"`
	Method         string   `json:"method,omitempty"`
	Lines          int      `json:"lines,omitempty"`
	Success        bool     `json:"success"`
	Error          string   `json:"error,omitempty"`
	SupportedTypes []string `json:"supported_types,omitempty"`
}

// TextExtractor maps raw bytes plus a declared file extension to plain text.
// Implementations never fail: when extraction is impossible they return a
// bracketed sentinel string such as "[PDF: extraction unavailable]".
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, ext string) string
}

type extractFunc func(ctx context.Context, data []byte) (text string, method string, ok bool)

// Processor dispatches document bytes to a per-extension extractor. The
// capability table is built once at construction; unknown extensions produce
// a structured failure result rather than a fallback guess.
type Processor struct {
	table map[string]extractFunc
}

// NewProcessor creates a Processor with the default extension table.
func NewProcessor() *Processor {
	p := &Processor{}
	p.table = map[string]extractFunc{
		".txt":  p.extractText,
		".md":   p.extractText,
		".pdf":  p.extractPDF,
		".docx": p.extractDocx,
		".html": p.extractHTML,
		".htm":  p.extractHTML,
		".png":  p.extractImage,
		".jpg":  p.extractImage,
		".jpeg": p.extractImage,
		".gif":  p.extractImage,
		".bmp":  p.extractImage,
	}
	return p
}

// SupportedTypes returns the known extensions, sorted.
func (p *Processor) SupportedTypes() []string {
	types := make([]string, 0, len(p.table))
	for ext := range p.table {
		types = append(types, ext)
	}
	sort.Strings(types)
	return types
}

// Process extracts text from one uploaded document. The extension is taken
// from the filename; unsupported types yield a failed result listing the
// supported extensions.
func (p *Processor) Process(ctx context.Context, filename string, data []byte) Result {
	ext := strings.ToLower(filepath.Ext(filename))

	fn, ok := p.table[ext]
	if !ok {
		return Result{
			Filename:       filename,
			FileType:       ext,
			Error:          "Unsupported file type: " + ext,
			SupportedTypes: p.SupportedTypes(),
		}
	}

	text, method, extracted := fn(ctx, data)
	res := Result{
		Filename: filename,
		FileType: ext,
		Text:     text,
		Method:   method,
		Success:  extracted,
	}
	if extracted {
		res.Lines = strings.Count(text, "\n") + 1
	} else {
		res.Error = text
	}
	return res
}

// Extract implements TextExtractor. It never fails: extraction problems and
// unsupported extensions are reported as a bracketed sentinel string.
func (p *Processor) Extract(ctx context.Context, data []byte, ext string) string {
	ext = strings.ToLower(ext)
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	fn, ok := p.table[ext]
	if !ok {
		return sentinel(ext, "unsupported file type")
	}

	text, _, extracted := fn(ctx, data)
	if !extracted {
		return text
	}
	return text
}

func sentinel(ext, reason string) string {
	tag := strings.ToUpper(strings.TrimPrefix(ext, "."))
	if tag == "" {
		tag = "FILE"
	}
	return "[" + tag + ": " + reason + "]"
}
