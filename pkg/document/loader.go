package document

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/xuri/excelize/v2"
)

var ErrEmptyDocument = errors.New("document has no extractable text")

// Document is the plain-text rendition of an uploaded file.
type Document struct {
	Path     string
	Name     string
	Content  string
	Metadata map[string]string
}

// Load extracts text from path based on its extension. Unknown extensions
// are read as UTF-8 text.
func Load(ctx context.Context, path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	doc := &Document{
		Path: path,
		Name: filepath.Base(path),
		Metadata: map[string]string{
			"file_name": filepath.Base(path),
			"file_size": fmt.Sprintf("%d", info.Size()),
		},
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		doc.Content, err = loadPDF(ctx, path, info.Size(), doc.Metadata)
	case ".docx":
		doc.Content, err = loadDOCX(path)
	case ".xlsx":
		doc.Content, err = loadXLSX(ctx, path, doc.Metadata)
	default:
		var raw []byte
		raw, err = os.ReadFile(path)
		doc.Content = string(raw)
	}
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(doc.Content) == "" {
		return nil, fmt.Errorf("%s: %w", doc.Name, ErrEmptyDocument)
	}
	return doc, nil
}

func loadPDF(ctx context.Context, path string, size int64, meta map[string]string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF file: %w", err)
	}
	defer file.Close()

	reader, err := pdf.NewReader(file, size)
	if err != nil {
		return "", fmt.Errorf("failed to parse PDF: %w", err)
	}

	total := reader.NumPage()
	meta["pages"] = fmt.Sprintf("%d", total)

	var parts []string
	for n := 1; n <= total; n++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(n)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// one bad page should not sink the whole document
			continue
		}
		if strings.TrimSpace(text) != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), nil
}

var (
	paragraphEnd = regexp.MustCompile(`</w:p>`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
)

func loadDOCX(path string) (string, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to parse Word document: %w", err)
	}
	defer doc.Close()

	// GetContent returns the raw document.xml body
	raw := doc.Editable().GetContent()
	text := paragraphEnd.ReplaceAllString(raw, "\n")
	text = xmlTag.ReplaceAllString(text, "")
	text = blankRuns.ReplaceAllString(text, "\n\n")
	return unescapeXML(text), nil
}

var xmlEntities = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")

func unescapeXML(s string) string {
	return xmlEntities.Replace(s)
}

func loadXLSX(ctx context.Context, path string, meta map[string]string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to parse Excel document: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	meta["sheets"] = fmt.Sprintf("%d", len(sheets))

	var parts []string
	for _, sheet := range sheets {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("read sheet %s: %w", sheet, err)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Sheet: %s\n", sheet)
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, cell := range row {
				if c := strings.TrimSpace(cell); c != "" {
					cells = append(cells, c)
				}
			}
			if len(cells) > 0 {
				b.WriteString(strings.Join(cells, " | "))
				b.WriteString("\n")
			}
		}
		parts = append(parts, strings.TrimSpace(b.String()))
	}
	return strings.Join(parts, "\n\n"), nil
}
