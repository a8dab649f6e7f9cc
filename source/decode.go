package source

import (
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Decode converts raw bytes to text as UTF-8. A leading byte order mark is
// dropped and invalid sequences become U+FFFD; decoding never fails.
func Decode(b []byte) string {
	s, _, err := transform.String(unicode.UTF8BOM.NewDecoder(), string(b))
	if err != nil {
		return strings.ToValidUTF8(strings.TrimPrefix(string(b), "\ufeff"), "\ufffd")
	}
	return s
}
