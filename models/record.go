package models

import (
	"fmt"
	"strings"
	"time"
)

// Record is one normalized access-log row: request path, optional timestamp
// and user-agent. Records are built by the parser and never mutated.
type Record struct {
	Path      string
	Timestamp *time.Time // nil when no known layout matched
	UserAgent string
}

// HasTimestamp reports whether the row's timestamp parsed.
func (r Record) HasTimestamp() bool {
	return r.Timestamp != nil
}

// Delimiter is the field separator chosen for a whole input.
type Delimiter rune

const (
	Comma     Delimiter = ','
	Semicolon Delimiter = ';'
	Tab       Delimiter = '\t'
	Pipe      Delimiter = '|'
)

// Delimiters lists the supported separators in sniffing preference order.
var Delimiters = []Delimiter{Comma, Semicolon, Tab, Pipe}

func (d Delimiter) String() string {
	switch d {
	case Tab:
		return "tab"
	case 0:
		return "auto"
	default:
		return string(rune(d))
	}
}

// ParseDelimiter maps a config value to a Delimiter. "auto" and "" yield 0,
// meaning the delimiter is sniffed from the input.
func ParseDelimiter(s string) (Delimiter, error) {
	if s == "\t" {
		return Tab, nil
	}
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return 0, nil
	case ",", "comma":
		return Comma, nil
	case ";", "semicolon":
		return Semicolon, nil
	case `\t`, "tab":
		return Tab, nil
	case "|", "pipe":
		return Pipe, nil
	}
	return 0, fmt.Errorf("unsupported delimiter %q", s)
}

// ParseMode selects how strictly rows are accepted.
type ParseMode string

const (
	// ModeTolerant keeps every row with a path; bad timestamps become absent.
	ModeTolerant ParseMode = "tolerant"
	// ModeStrict also drops rows with fewer than three fields or an
	// unparseable timestamp.
	ModeStrict ParseMode = "strict"
)

// LookupParseMode maps a config value to a ParseMode; "" means tolerant.
func LookupParseMode(s string) (ParseMode, error) {
	switch ParseMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeTolerant:
		return ModeTolerant, nil
	case ModeStrict:
		return ModeStrict, nil
	}
	return "", fmt.Errorf("unsupported parse mode %q", s)
}

// ParseStats counts what happened to each tokenized row.
type ParseStats struct {
	Rows         int // rows produced by the tokenizer
	Kept         int
	Empty        int // zero fields or blank path
	Short        int // strict mode: fewer than three fields
	BadTimestamp int // strict mode: timestamp did not parse
	Malformed    int // tokenizer reported a quoting error
}

// Dropped is the number of rows that did not become records.
func (s ParseStats) Dropped() int {
	return s.Empty + s.Short + s.BadTimestamp + s.Malformed
}
