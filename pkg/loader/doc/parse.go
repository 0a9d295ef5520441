package doc

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
)

var collapseNewlines = regexp.MustCompile(`\n{3,}`)

func parseDocx(content []byte) ([]byte, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open docx: %w", err)
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return nil, fmt.Errorf("document.xml not found in docx")
	}
	if docFile.UncompressedSize64 > docXMLMax {
		return nil, fmt.Errorf("document.xml too large: %d bytes",
			docFile.UncompressedSize64)
	}

	rc, err := docFile.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open document.xml: %w", err)
	}
	defer rc.Close()

	dec := xml.NewDecoder(io.LimitReader(rc, int64(docXMLMax)))

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
			return nil, fmt.Errorf("failed to parse XML: %w", err)
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
					sb.WriteRune('\t')
				}
			case "br", "cr":
				if delDepth == 0 {
					sb.WriteByte('\n')
				}
			case "noBreakHyphen":
				if delDepth == 0 {
					sb.WriteRune('-')
				}
			case "tr":
				cellIdx = 0
			case "tc":
				if delDepth == 0 {
					if cellIdx > 0 {
						sb.WriteRune('\t')
					}
					cellIdx++
				}
			}

		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p", "tr", "tbl":
				if delDepth == 0 {
					sb.WriteByte('\n')
				}
			case "del":
				if delDepth > 0 {
					delDepth--
				}
			}

		case xml.CharData:
			if delDepth != 0 || !inText {
				continue
			}
			sb.Write(t)
		}
	}

	text := strings.TrimSpace(sb.String())
	text = collapseNewlines.ReplaceAllString(text, "\n\n")

	if text != "" && !strings.HasSuffix(text, "\n") {
		text += "\n"
	}

	return []byte(text), nil
}
