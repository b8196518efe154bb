package original

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"
)

// ErrEncoding is returned when content cannot be decoded with any of the
// candidate encodings.
var ErrEncoding = errors.New("content could not be decoded")

// Normalize decodes data with the first candidate encoding that accepts it
// and converts line endings to LF. With no candidates, valid UTF-8 is
// accepted as is.
func Normalize(data []byte, encodings []string) ([]byte, error) {
	if len(encodings) == 0 {
		encodings = []string{"utf-8"}
	}

	var tried []string
	for _, name := range encodings {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		tried = append(tried, name)

		enc, err := htmlindex.Get(name)
		if err != nil {
			continue
		}
		if canonical, _ := htmlindex.Name(enc); canonical == "utf-8" {
			if utf8.Valid(data) {
				return convertLineEndings(data), nil
			}
			continue
		}
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil || !utf8.Valid(decoded) {
			continue
		}
		return convertLineEndings(decoded), nil
	}

	return nil, fmt.Errorf("%w with %s", ErrEncoding, strings.Join(tried, ", "))
}

// convertLineEndings turns CRLF and lone CR into LF.
func convertLineEndings(data []byte) []byte {
	if !bytes.ContainsRune(data, '\r') {
		return data
	}
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	return bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))
}
