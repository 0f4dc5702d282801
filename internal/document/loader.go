package document

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// Loader reads PDF files from a directory and produces per-page Documents.
type Loader struct {
	logger *zap.Logger
}

// NewLoader creates a Loader.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{logger: logger}
}

// LoadDir loads every *.pdf file in dir (non-recursive, sorted by name) and
// returns one Document per page. A single unreadable file is skipped with a
// warning; only an unreadable directory is fatal. Pages with no extractable
// text produce no Document.
func (l *Loader) LoadDir(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory %s: %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var docs []Document
	for _, name := range names {
		pages, err := l.loadFile(filepath.Join(dir, name))
		if err != nil {
			l.logger.Warn("skipping unreadable document",
				zap.String("file", name),
				zap.Error(err),
			)
			continue
		}
		docs = append(docs, pages...)
	}

	l.logger.Info("loaded documents",
		zap.String("dir", dir),
		zap.Int("files", len(names)),
		zap.Int("pages", len(docs)),
	)

	return docs, nil
}

// loadFile extracts text from each page of one PDF.
func (l *Loader) loadFile(path string) ([]Document, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	source := filepath.Base(path)

	var docs []Document
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// One broken page should not lose the rest of the file.
			l.logger.Warn("skipping unreadable page",
				zap.String("file", source),
				zap.Int("page", pageNum),
				zap.Error(err),
			)
			continue
		}

		if strings.TrimSpace(text) == "" {
			continue
		}

		docs = append(docs, Document{
			Text:     text,
			Metadata: Metadata{Source: source, Page: pageNum},
		})
	}

	return docs, nil
}
