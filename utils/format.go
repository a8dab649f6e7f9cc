package utils

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var countPrinter = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators, e.g. 12345 -> "12,345".
func FormatCount(n int) string {
	return countPrinter.Sprintf("%d", n)
}
