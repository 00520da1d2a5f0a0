package ocr

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/rezonia/docingest/internal/model"
)

// Parser is the in-process fallback used when ocr_mode=skip, when the
// scanned-document detector says a document doesn't need OCR, and as the
// degraded fallback when the GPU OCR client is unavailable. It only ever
// extracts whatever text layer the document already carries; running an
// actual OCR model in-process is out of scope.
type Parser struct{}

func NewParser() *Parser { return &Parser{} }

// textOperator matches the parenthesized-string operands of PDF Tj text
// showing operators in a decompressed content stream. Array operands of TJ
// operators are not matched.
var textOperator = regexp.MustCompile(`\(((?:[^()\\]|\\.)*)\)\s*Tj`)

// ParsePDF extracts the page count and a best-effort text body from a PDF's
// content streams.
func (p *Parser) ParsePDF(data []byte) (text string, pageCount int, err error) {
	rs := bytes.NewReader(data)

	pageCount, err = api.PageCount(rs, nil)
	if err != nil {
		return "", 0, &model.OCRFatalError{Message: "failed to read PDF page count", Cause: err}
	}

	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return "", 0, &model.OCRFatalError{Message: "failed to rewind PDF reader", Cause: err}
	}

	streams, err := api.ExtractContent(rs, nil, nil)
	if err != nil {
		// Content extraction is best-effort: a structurally valid PDF with
		// an unusual content stream encoding still yields a page count.
		return "", pageCount, nil
	}

	var buf bytes.Buffer
	for _, stream := range streams {
		if stream == nil {
			continue
		}
		io.Copy(&buf, stream) //nolint:errcheck
	}
	return decodeTextOperators(buf.Bytes()), pageCount, nil
}

// decodeTextOperators pulls literal string operands out of Tj show-text
// operators and joins them with newlines, approximating a plain text body
// from a raw content stream.
func decodeTextOperators(content []byte) string {
	matches := textOperator.FindAllSubmatch(content, -1)
	lines := make([]string, 0, len(matches))
	for _, m := range matches {
		lines = append(lines, unescapePDFString(string(m[1])))
	}
	return strings.Join(lines, "\n")
}

func unescapePDFString(s string) string {
	replacer := strings.NewReplacer(`\(`, "(", `\)`, ")", `\\`, `\`)
	return replacer.Replace(s)
}

// IsScanned is the default scanned-document detector: a pluggable predicate
// that flags a document as likely-scanned when its extractable text density
// is far too low to account for its page count.
func IsScanned(text string, pageCount int) bool {
	if pageCount <= 0 {
		return false
	}
	const minCharsPerPage = 200
	return len(text) < pageCount*minCharsPerPage
}
