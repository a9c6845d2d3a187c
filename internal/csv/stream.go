package csv

// stream.go cleans raw export bytes before they reach Parse:
//
//   - BOMSkippingReader drops the UTF-8 byte order mark Excel prepends
//   - ReadText enforces a size ceiling and replaces invalid UTF-8 so the
//     tokenizer only ever sees valid text

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrFileTooLarge is returned by ReadText when the input exceeds the limit.
var ErrFileTooLarge = errors.New("file too large")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader wraps an io.Reader and skips a leading UTF-8 BOM.
type BOMSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{r: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (b *BOMSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.r.Peek(len(utf8BOM))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			_, _ = b.r.Discard(len(utf8BOM))
		}
	}
	return b.r.Read(p)
}

// ReadText reads r to the end and returns its content as valid UTF-8 text.
// A leading BOM is removed and invalid byte sequences become U+FFFD.
// maxBytes <= 0 disables the size check.
func ReadText(r io.Reader, maxBytes int64) (string, error) {
	src := io.Reader(NewBOMSkippingReader(r))
	if maxBytes > 0 {
		src = io.LimitReader(src, maxBytes+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}

	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, maxBytes)
	}

	if utf8.Valid(data) {
		return string(data), nil
	}
	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}
