package services

import (
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weblog-stats/models"
)

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		raw  string
		want time.Time
		ok   bool
	}{
		{"01/02/2023 10:15:00", time.Date(2023, 1, 2, 10, 15, 0, 0, time.UTC), true},
		{"  1/2/2023 9:05:07 ", time.Date(2023, 1, 2, 9, 5, 7, 0, time.UTC), true},
		{"2023-01-02 23:59:59", time.Date(2023, 1, 2, 23, 59, 59, 0, time.UTC), true},
		{"12/31/99 00:00:01", time.Date(1999, 12, 31, 0, 0, 1, 0, time.UTC), true},
		{"01/02/23 10:15:00", time.Date(2023, 1, 2, 10, 15, 0, 0, time.UTC), true},
		{"01/02/2023 10:5:7", time.Date(2023, 1, 2, 10, 5, 7, 0, time.UTC), true},
		{"2023-01-02 10:05:7", time.Date(2023, 1, 2, 10, 5, 7, 0, time.UTC), true},
		{"1/2/23 9:5:07", time.Date(2023, 1, 2, 9, 5, 7, 0, time.UTC), true},
		{"2023-1-2  0:0:0", time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"3/4/68 1:2:3", time.Date(2068, 3, 4, 1, 2, 3, 0, time.UTC), true},
		{"3/4/69 1:2:3", time.Date(1969, 3, 4, 1, 2, 3, 0, time.UTC), true},
		{"02/30/2023 10:15:00", time.Time{}, false},
		{"01/02/2023 24:00:00", time.Time{}, false},
		{"01/02/2023 10:60:00", time.Time{}, false},
		{"01/02/2023 10:15:60", time.Time{}, false},
		{"0/02/2023 10:15:00", time.Time{}, false},
		{"01/02/2023 10:15:123", time.Time{}, false},
		{"01/02/2023 10:15", time.Time{}, false},
		{"bad-date", time.Time{}, false},
		{"", time.Time{}, false},
		{"2023-01-02T10:15:00Z", time.Time{}, false},
		{"13/02/2023 10:15:00", time.Time{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseTimestamp(tt.raw)
		assert.Equal(t, tt.ok, ok, "ParseTimestamp(%q) ok", tt.raw)
		if tt.ok {
			assert.True(t, tt.want.Equal(got), "ParseTimestamp(%q) = %v; want %v", tt.raw, got, tt.want)
		}
	}
}

func TestTokenizeHonoursQuoting(t *testing.T) {
	text := "/a,\"01/02/2023 10:15:00\",\"Mozilla, \"\"quoted\"\"\nsecond line\"\n/b,x\n"

	var rows [][]string
	for row, err := range Tokenize(text, models.Comma) {
		require.NoError(t, err)
		rows = append(rows, row)
	}

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"/a", "01/02/2023 10:15:00", "Mozilla, \"quoted\"\nsecond line"}, rows[0])
	assert.Equal(t, []string{"/b", "x"}, rows[1])
}

func TestNormalizeRowTolerant(t *testing.T) {
	tests := []struct {
		name    string
		row     []string
		wantErr error
		want    models.Record
		hasTime bool
	}{
		{"no fields", []string{}, ErrEmptyRow, models.Record{}, false},
		{"blank path", []string{"   ", "01/02/2023 10:15:00", "UA"}, ErrEmptyRow, models.Record{}, false},
		{"path only", []string{" /a "}, nil, models.Record{Path: "/a"}, false},
		{"bad timestamp kept", []string{"/b", "nope", " Firefox "}, nil, models.Record{Path: "/b", UserAgent: "Firefox"}, false},
		{"full row", []string{"/c", "2023-01-02 10:15:00", "UA", "extra"}, nil, models.Record{Path: "/c", UserAgent: "UA"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, err := NormalizeRow(tt.row, models.ModeTolerant)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Path, rec.Path)
			assert.Equal(t, tt.want.UserAgent, rec.UserAgent)
			assert.Equal(t, tt.hasTime, rec.HasTimestamp())
		})
	}
}

func TestNormalizeRowStrict(t *testing.T) {
	_, err := NormalizeRow([]string{"/a", "01/02/2023 10:15:00"}, models.ModeStrict)
	assert.ErrorIs(t, err, ErrShortRow)

	_, err = NormalizeRow([]string{"/a", "garbage", "UA"}, models.ModeStrict)
	assert.ErrorIs(t, err, ErrBadTimestamp)

	rec, err := NormalizeRow([]string{"/a", "01/02/2023 10:15:00", "UA"}, models.ModeStrict)
	require.NoError(t, err)
	assert.True(t, rec.HasTimestamp())
}

func TestRecordsKeepsRowsWithBadTimestamps(t *testing.T) {
	text := strings.Join([]string{
		"/a,01/02/2023 10:15:00,UA1",
		"/b,not a date,UA2",
		"/c,,UA3",
		"/d",
		",01/02/2023 10:15:00,UA5",
		"",
		"   ,x,y",
	}, "\n")

	p := NewRecordParser(newTestLogger(), ParserOptions{})
	records := slices.Collect(p.Records(text))

	require.Len(t, records, 4)
	assert.Equal(t, []string{"/a", "/b", "/c", "/d"}, paths(records))
	assert.True(t, records[0].HasTimestamp())
	assert.False(t, records[1].HasTimestamp())

	stats := p.Stats()
	assert.Equal(t, 4, stats.Kept)
	assert.Equal(t, 2, stats.Empty)
	assert.Equal(t, 6, stats.Rows)
	assert.Equal(t, 2, stats.Dropped())
}

func TestRecordsStrictMode(t *testing.T) {
	text := "/a,01/02/2023 10:15:00,UA\n/b,bad,UA\n/c,01/02/2023 10:15:00\n"

	p := NewRecordParser(newTestLogger(), ParserOptions{Mode: models.ModeStrict})
	records := slices.Collect(p.Records(text))

	assert.Equal(t, []string{"/a"}, paths(records))
	assert.Equal(t, 1, p.Stats().BadTimestamp)
	assert.Equal(t, 1, p.Stats().Short)
}

func TestRecordsSameAcrossDelimiters(t *testing.T) {
	rows := [][]string{
		{"/img/a.png", "01/02/2023 10:15:00", "Mozilla/5.0 Chrome/99"},
		{"/index.html", "01/02/2023 10:20:00", "Mozilla/5.0 Firefox/90"},
		{"/img/b.gif", "bad-date", "Mozilla/5.0 Firefox/90"},
	}
	render := func(sep string) string {
		var b strings.Builder
		for _, r := range rows {
			b.WriteString(strings.Join(r, sep) + "\n")
		}
		return b.String()
	}

	p := NewRecordParser(newTestLogger(), ParserOptions{})
	want := slices.Collect(p.Records(render(",")))
	require.Len(t, want, 3)

	for _, sep := range []string{";", "\t", "|"} {
		got := slices.Collect(p.Records(render(sep)))
		assert.Equal(t, want, got, "delimiter %q", sep)
	}
}

func TestRecordsForcedDelimiter(t *testing.T) {
	// A single column with commas in it would be sniffed as comma-separated.
	text := "/a,b;01/02/2023 10:15:00;UA\n"

	p := NewRecordParser(newTestLogger(), ParserOptions{Delimiter: models.Semicolon})
	records := slices.Collect(p.Records(text))

	require.Len(t, records, 1)
	assert.Equal(t, "/a,b", records[0].Path)
	assert.Equal(t, "UA", records[0].UserAgent)
}

func TestRecordsStopsEarly(t *testing.T) {
	text := "/a\n/b\n/c\n"
	p := NewRecordParser(newTestLogger(), ParserOptions{})

	var got []string
	for rec := range p.Records(text) {
		got = append(got, rec.Path)
		if len(got) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"/a", "/b"}, got)
}

func paths(records []models.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Path
	}
	return out
}
