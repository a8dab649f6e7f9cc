package services

import (
	"encoding/csv"
	"errors"
	"io"
	"iter"
	"regexp"
	"strconv"
	"strings"
	"time"

	"weblog-stats/models"
	"weblog-stats/utils"
)

// Reasons a row does not become a record.
var (
	ErrEmptyRow     = errors.New("row has no path")
	ErrShortRow     = errors.New("row has fewer than three fields")
	ErrBadTimestamp = errors.New("timestamp matches no known layout")
)

// timestampPatterns are tried in order; the first that matches wins.
// Every field but the year takes one or two digits.
var timestampPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^(?P<mon>\d{1,2})/(?P<day>\d{1,2})/(?P<year>\d{4})\s+(?P<hour>\d{1,2}):(?P<min>\d{1,2}):(?P<sec>\d{1,2})$`),
	regexp.MustCompile(`^(?P<year>\d{4})-(?P<mon>\d{1,2})-(?P<day>\d{1,2})\s+(?P<hour>\d{1,2}):(?P<min>\d{1,2}):(?P<sec>\d{1,2})$`),
	regexp.MustCompile(`^(?P<mon>\d{1,2})/(?P<day>\d{1,2})/(?P<yy>\d{2})\s+(?P<hour>\d{1,2}):(?P<min>\d{1,2}):(?P<sec>\d{1,2})$`),
}

// ParseTimestamp trims raw and parses it with the first matching pattern.
func ParseTimestamp(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	for _, re := range timestampPatterns {
		if t, ok := matchTimestamp(re, s); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// matchTimestamp builds a UTC time from the named groups of re. Fields out
// of range, such as month 13 or minute 60, do not match.
func matchTimestamp(re *regexp.Regexp, s string) (time.Time, bool) {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	field := func(name string) int {
		i := re.SubexpIndex(name)
		if i < 0 {
			return -1
		}
		n, _ := strconv.Atoi(m[i])
		return n
	}

	year := field("year")
	if yy := field("yy"); yy >= 0 {
		// Same pivot as the "06" layout: 69-99 is 19xx, 00-68 is 20xx.
		year = 2000 + yy
		if yy >= 69 {
			year = 1900 + yy
		}
	}
	mon, day := field("mon"), field("day")
	hour, minute, sec := field("hour"), field("min"), field("sec")

	t := time.Date(year, time.Month(mon), day, hour, minute, sec, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != mon || t.Day() != day ||
		t.Hour() != hour || t.Minute() != minute || t.Second() != sec {
		return time.Time{}, false
	}
	return t, true
}

// Tokenize splits text into rows using delim with standard CSV quoting.
// Quoting errors are yielded alongside a nil row and do not stop iteration.
func Tokenize(text string, delim models.Delimiter) iter.Seq2[[]string, error] {
	return func(yield func([]string, error) bool) {
		r := csv.NewReader(strings.NewReader(text))
		r.Comma = rune(delim)
		r.FieldsPerRecord = -1
		r.LazyQuotes = true

		for {
			row, err := r.Read()
			if err == io.EOF {
				return
			}
			var perr *csv.ParseError
			if err != nil && !errors.As(err, &perr) {
				yield(nil, err)
				return
			}
			if !yield(row, err) {
				return
			}
		}
	}
}

// NormalizeRow turns a tokenized row into a Record. In tolerant mode only
// rows without a path are rejected; an unparseable timestamp leaves
// Record.Timestamp nil. Strict mode also rejects short rows and bad
// timestamps.
func NormalizeRow(row []string, mode models.ParseMode) (models.Record, error) {
	if len(row) == 0 {
		return models.Record{}, ErrEmptyRow
	}
	path := strings.TrimSpace(row[0])
	if path == "" {
		return models.Record{}, ErrEmptyRow
	}
	if mode == models.ModeStrict && len(row) < 3 {
		return models.Record{}, ErrShortRow
	}

	rec := models.Record{Path: path}
	if len(row) > 1 {
		if ts, ok := ParseTimestamp(row[1]); ok {
			rec.Timestamp = &ts
		}
	}
	if rec.Timestamp == nil && mode == models.ModeStrict {
		return models.Record{}, ErrBadTimestamp
	}
	if len(row) > 2 {
		rec.UserAgent = strings.TrimSpace(row[2])
	}
	return rec, nil
}

// ParserOptions configures a RecordParser.
type ParserOptions struct {
	Mode models.ParseMode
	// Delimiter forces a separator; zero means sniff it from the input.
	Delimiter  models.Delimiter
	SampleSize int
}

// RecordParser turns raw access-log text into Records.
type RecordParser struct {
	logger *utils.Logger
	opts   ParserOptions
	stats  models.ParseStats
}

// NewRecordParser creates a RecordParser with the given logger.
func NewRecordParser(logger *utils.Logger, opts ParserOptions) *RecordParser {
	if opts.Mode == "" {
		opts.Mode = models.ModeTolerant
	}
	if opts.SampleSize <= 0 {
		opts.SampleSize = DefaultSniffSampleSize
	}
	return &RecordParser{logger: logger, opts: opts}
}

// Delimiter returns the forced delimiter or the one sniffed from text.
func (p *RecordParser) Delimiter(text string) models.Delimiter {
	if p.opts.Delimiter != 0 {
		return p.opts.Delimiter
	}
	return DetectDelimiter(text, p.opts.SampleSize)
}

// Records lazily yields one Record per acceptable row of text. Stats are
// reset at the start of each iteration and complete once it finishes.
func (p *RecordParser) Records(text string) iter.Seq[models.Record] {
	return func(yield func(models.Record) bool) {
		p.stats = models.ParseStats{}
		delim := p.Delimiter(text)
		p.logger.Debug("[parser] Delimiter %q, mode %s", delim.String(), p.opts.Mode)

		for row, err := range Tokenize(text, delim) {
			if err != nil {
				var perr *csv.ParseError
				if !errors.As(err, &perr) {
					p.logger.Error("[parser] Tokenizer stopped: %v", err)
					return
				}
				p.stats.Rows++
				p.stats.Malformed++
				p.logger.Debug("[parser] Skipping malformed row: %v", err)
				continue
			}

			p.stats.Rows++
			rec, err := NormalizeRow(row, p.opts.Mode)
			switch {
			case errors.Is(err, ErrEmptyRow):
				p.stats.Empty++
				continue
			case errors.Is(err, ErrShortRow):
				p.stats.Short++
				continue
			case errors.Is(err, ErrBadTimestamp):
				p.stats.BadTimestamp++
				continue
			}

			p.stats.Kept++
			if !yield(rec) {
				return
			}
		}

		p.logger.Info("[parser] Parsed %s rows, kept %s (dropped %s)",
			utils.FormatCount(p.stats.Rows), utils.FormatCount(p.stats.Kept),
			utils.FormatCount(p.stats.Dropped()))
	}
}

// Stats returns the counts gathered by the last completed Records iteration.
func (p *RecordParser) Stats() models.ParseStats {
	return p.stats
}
