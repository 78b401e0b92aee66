package ingest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"code.sajari.com/docconv/v2"
	"github.com/ledongthuc/pdf"
)

// Loader extracts plain text from one downloaded file.
type Loader interface {
	Load(filePath string) (string, error)
}

// GetLoader dispatches on the stored content type. Unsupported types fail
// immediately.
func GetLoader(contentType string) (Loader, error) {
	switch strings.ToLower(strings.TrimSpace(contentType)) {
	case "pdf":
		return &pdfLoader{}, nil
	case "docx":
		return &docxLoader{}, nil
	case "txt":
		return &textLoader{}, nil
	default:
		return nil, fmt.Errorf("unsupported content type: %q", contentType)
	}
}

type pdfLoader struct{}

func (l *pdfLoader) Load(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read pdf: %w", err)
	}

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for pageIndex := 1; pageIndex <= reader.NumPage(); pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract pdf page %d: %w", pageIndex, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("no text content extracted from pdf")
	}
	return b.String(), nil
}

type docxLoader struct{}

const docxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

func (l *docxLoader) Load(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer f.Close()

	res, err := docconv.Convert(io.Reader(f), docxMimeType, false)
	if err != nil {
		return "", fmt.Errorf("convert docx: %w", err)
	}
	if strings.TrimSpace(res.Body) == "" {
		return "", fmt.Errorf("no text content extracted from docx")
	}
	return res.Body, nil
}

type textLoader struct{}

func (l *textLoader) Load(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read text file: %w", err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", fmt.Errorf("text file is empty")
	}
	return string(data), nil
}
