package loader

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"regexp"
	"strings"
)

// docXMLMax caps the uncompressed size of word/document.xml.
const docXMLMax = 64 << 20

var multiNewline = regexp.MustCompile(`\n{3,}`)

// extractDocx pulls the visible text out of a docx archive. Tracked
// deletions are skipped, tabs and breaks are preserved, and table cells are
// separated with tabs so row structure survives.
func (p *Processor) extractDocx(_ context.Context, data []byte) (string, string, bool) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return sentinel(".docx", "not a valid docx archive"), "docx", false
	}

	var doc *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return sentinel(".docx", "document.xml missing"), "docx", false
	}
	if doc.UncompressedSize64 > docXMLMax {
		return sentinel(".docx", "document.xml too large"), "docx", false
	}

	rc, err := doc.Open()
	if err != nil {
		return sentinel(".docx", "cannot read document.xml"), "docx", false
	}
	defer rc.Close()

	text, err := docxText(io.LimitReader(rc, docXMLMax))
	if err != nil {
		return sentinel(".docx", "malformed document.xml"), "docx", false
	}
	return text, "docx", true
}

func docxText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	var sb strings.Builder
	inText := false
	delDepth := 0
	cellIdx := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "del":
				delDepth++
			case "t":
				inText = true
			case "tab":
				if delDepth == 0 {
					sb.WriteByte('\t')
				}
			case "br", "cr":
				if delDepth == 0 {
					sb.WriteByte('\n')
				}
			case "tr":
				cellIdx = 0
			case "tc":
				if delDepth == 0 {
					if cellIdx > 0 {
						sb.WriteByte('\t')
					}
					cellIdx++
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p", "tr":
				if delDepth == 0 {
					sb.WriteByte('\n')
				}
			case "del":
				if delDepth > 0 {
					delDepth--
				}
			}

		case xml.CharData:
			if inText && delDepth == 0 {
				sb.Write(t)
			}
		}
	}

	text := strings.TrimSpace(sb.String())
	text = multiNewline.ReplaceAllString(text, "\n\n")
	return text, nil
}
