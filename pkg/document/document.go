// Package document turns an uploaded file into the plain text sent to the
// AI service.
//
// Plain text (.txt, text/plain) is used as is. PDF (.pdf, application/pdf)
// is read page by page with github.com/ledongthuc/pdf and the pages are
// joined by a blank line. A PDF that cannot be read fails as a whole with
// DOCUMENT_PARSE; partial text is never returned. Anything else fails with
// UNSUPPORTED_FILE.
package document

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"github.com/gabriel-vasile/mimetype"
	"github.com/ledongthuc/pdf"

	"github.com/matzehuels/mindgraph/pkg/cache"
	errs "github.com/matzehuels/mindgraph/pkg/errors"
	"github.com/matzehuels/mindgraph/pkg/observability"
)

// MaxSize bounds an upload.
const MaxSize = 20 << 20

// PageSeparator joins the text of consecutive PDF pages.
const PageSeparator = "\n\n"

// Kind is a supported document format.
type Kind string

const (
	KindText Kind = "text/plain"
	KindPDF  Kind = "application/pdf"
)

// Detect decides how to read a document from its name and content. The
// extension wins when it is supported; otherwise the sniffed type decides.
func Detect(filename string, data []byte) (Kind, error) {
	if err := errs.ValidateFilename(filepath.Base(filename)); err != nil {
		return "", err
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return KindPDF, nil
	case ".txt", ".text":
		return KindText, nil
	}

	m := mimetype.Detect(data)
	for p := m; p != nil; p = p.Parent() {
		switch {
		case p.Is(string(KindPDF)):
			return KindPDF, nil
		case p.Is(string(KindText)):
			return KindText, nil
		}
	}
	return "", errs.New(errs.ErrCodeUnsupportedFile, "unsupported file type %s (use a text or PDF file)", m.String())
}

// Extract returns the text of the document named filename.
func Extract(ctx context.Context, filename string, data []byte) (text string, err error) {
	kind := Kind("unknown")
	defer func() {
		observability.Generation().OnDocumentExtracted(ctx, string(kind), len(text), err)
	}()

	if len(data) > MaxSize {
		return "", errs.New(errs.ErrCodeInvalidInput, "document is larger than %d MB", MaxSize>>20)
	}
	detected, err := Detect(filename, data)
	if err != nil {
		return "", err
	}
	kind = detected

	switch kind {
	case KindPDF:
		text, err = extractPDF(ctx, data)
	default:
		text, err = extractText(data)
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", errs.New(errs.ErrCodeDocumentParse, "%s contains no readable text", filepath.Base(filename))
	}
	return text, nil
}

func extractText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", errs.New(errs.ErrCodeDocumentParse, "text document is not valid UTF-8")
	}
	return string(data), nil
}

// extractPDF reads every page. The parser panics on some malformed files;
// a panic is reported as a parse failure.
func extractPDF(ctx context.Context, data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = errs.New(errs.ErrCodeDocumentParse, "could not read the PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errs.Wrap(errs.ErrCodeDocumentParse, err, "could not read the PDF")
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", errs.Wrap(errs.ErrCodeTimeout, err, "reading the PDF took too long")
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		s, err := p.GetPlainText(nil)
		if err != nil {
			return "", errs.Wrap(errs.ErrCodeDocumentParse, err, "could not read page %d of the PDF", i)
		}
		pages = append(pages, strings.TrimSpace(s))
	}
	return strings.Join(pages, PageSeparator), nil
}

// Extractor caches extracted text by content hash.
type Extractor struct {
	cache  cache.Cache
	keyer  cache.Keyer
	ttl    time.Duration
	logger *log.Logger
}

// NewExtractor returns an extractor backed by c. A nil cache disables
// caching.
func NewExtractor(c cache.Cache, keyer cache.Keyer, ttl time.Duration, logger *log.Logger) *Extractor {
	if c == nil {
		c = cache.NewNullCache()
	}
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Extractor{cache: c, keyer: keyer, ttl: ttl, logger: logger}
}

// Extract is [Extract] with a cache in front. Cache failures only cost the
// cache; they never fail an extraction.
func (e *Extractor) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	key := e.keyer.DocumentKey(filename, data)
	cached, ok, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Debug("cache read failed", "kind", cache.KeyType(key), "error", err)
	} else if ok {
		return string(cached), nil
	}
	text, err := Extract(ctx, filename, data)
	if err != nil {
		return "", err
	}
	if err := e.cache.Set(ctx, key, []byte(text), e.ttl); err != nil {
		e.logger.Debug("cache write failed", "kind", cache.KeyType(key), "error", err)
	}
	return text, nil
}
