package loader

import (
	"archive/zip"
	"bytes"
	"context"
	"strings"
	"testing"
)

func makeDocx(t *testing.T, documentXML string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("creating zip entry: %v", err)
	}
	if _, err := w.Write([]byte(documentXML)); err != nil {
		t.Fatalf("writing zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

func TestProcess_PlainTextUTF8(t *testing.T) {
	p := NewProcessor()
	res := p.Process(context.Background(), "notes.txt", []byte("line one\nline two"))

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Text != "line one\nline two" {
		t.Fatalf("unexpected text %q", res.Text)
	}
	if res.Method != "utf-8" {
		t.Fatalf("expected method utf-8, got %s", res.Method)
	}
	if res.Lines != 2 {
		t.Fatalf("expected 2 lines, got %d", res.Lines)
	}
	if res.FileType != ".txt" {
		t.Fatalf("expected file type .txt, got %s", res.FileType)
	}
}

func TestProcess_Latin1Fallback(t *testing.T) {
	p := NewProcessor()
	// 0xE9 is é in latin-1 but invalid UTF-8 on its own
	res := p.Process(context.Background(), "legacy.txt", []byte{'c', 'a', 'f', 0xE9})

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if res.Method != "latin-1" {
		t.Fatalf("expected latin-1 fallback, got %s", res.Method)
	}
	if res.Text != "café" {
		t.Fatalf("expected café, got %q", res.Text)
	}
}

func TestProcess_UnsupportedType(t *testing.T) {
	p := NewProcessor()
	res := p.Process(context.Background(), "data.xyz", []byte("whatever"))

	if res.Success {
		t.Fatal("expected failure for unsupported extension")
	}
	if !strings.Contains(res.Error, ".xyz") {
		t.Fatalf("error should name the extension, got %q", res.Error)
	}
	if len(res.SupportedTypes) == 0 {
		t.Fatal("failure should list supported types")
	}
}

func TestProcess_CaseInsensitiveExtension(t *testing.T) {
	p := NewProcessor()
	res := p.Process(context.Background(), "NOTES.TXT", []byte("ok"))
	if !res.Success {
		t.Fatalf("uppercase extension should work, got error %q", res.Error)
	}
}

func TestProcess_Docx(t *testing.T) {
	doc := `<?xml version="1.0"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Hello world</w:t></w:r></w:p>
    <w:p><w:r><w:t>Second paragraph</w:t></w:r></w:p>
  </w:body>
</w:document>`

	p := NewProcessor()
	res := p.Process(context.Background(), "report.docx", makeDocx(t, doc))

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if !strings.Contains(res.Text, "Hello world") {
		t.Fatalf("missing first paragraph: %q", res.Text)
	}
	if !strings.Contains(res.Text, "Second paragraph") {
		t.Fatalf("missing second paragraph: %q", res.Text)
	}
}

func TestProcess_DocxSkipsDeletions(t *testing.T) {
	doc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>kept</w:t></w:r><w:del><w:r><w:t>removed</w:t></w:r></w:del></w:p>
  </w:body>
</w:document>`

	p := NewProcessor()
	res := p.Process(context.Background(), "tracked.docx", makeDocx(t, doc))

	if !res.Success {
		t.Fatalf("expected success, got error %q", res.Error)
	}
	if strings.Contains(res.Text, "removed") {
		t.Fatalf("tracked deletion leaked into text: %q", res.Text)
	}
	if !strings.Contains(res.Text, "kept") {
		t.Fatalf("kept text missing: %q", res.Text)
	}
}

func TestProcess_DocxInvalidArchive(t *testing.T) {
	p := NewProcessor()
	res := p.Process(context.Background(), "broken.docx", []byte("not a zip"))

	if res.Success {
		t.Fatal("expected failure for invalid archive")
	}
	if !strings.HasPrefix(res.Error, "[DOCX:") {
		t.Fatalf("expected bracketed sentinel, got %q", res.Error)
	}
}

func TestProcess_ImageSentinel(t *testing.T) {
	p := NewProcessor()
	res := p.Process(context.Background(), "photo.png", []byte{0x89, 0x50})

	if res.Success {
		t.Fatal("image extraction should report unavailable")
	}
	if res.Error != "[IMAGE: extraction unavailable]" {
		t.Fatalf("unexpected sentinel %q", res.Error)
	}
}

func TestExtract_NeverFails(t *testing.T) {
	p := NewProcessor()

	if got := p.Extract(context.Background(), []byte("plain"), ".txt"); got != "plain" {
		t.Fatalf("expected pass-through, got %q", got)
	}
	if got := p.Extract(context.Background(), []byte("plain"), "txt"); got != "plain" {
		t.Fatalf("extension without dot should work, got %q", got)
	}

	got := p.Extract(context.Background(), []byte("x"), ".xyz")
	if !strings.HasPrefix(got, "[XYZ:") {
		t.Fatalf("unsupported type should yield sentinel, got %q", got)
	}

	got = p.Extract(context.Background(), []byte("not a zip"), ".docx")
	if !strings.HasPrefix(got, "[DOCX:") {
		t.Fatalf("failed extraction should yield sentinel, got %q", got)
	}
}

func TestSupportedTypes_Sorted(t *testing.T) {
	p := NewProcessor()
	types := p.SupportedTypes()
	if len(types) == 0 {
		t.Fatal("expected supported types")
	}
	for i := 1; i < len(types); i++ {
		if types[i-1] >= types[i] {
			t.Fatalf("types not sorted: %v", types)
		}
	}
	found := false
	for _, ext := range types {
		if ext == ".docx" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected .docx in supported types")
	}
}
