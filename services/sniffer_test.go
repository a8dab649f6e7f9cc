package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"weblog-stats/models"
)

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		name   string
		sample string
		want   models.Delimiter
	}{
		{"comma", "/a,01/02/2023 10:15:00,UA\n/b,01/02/2023 11:00:00,UA\n", models.Comma},
		{"semicolon", "/a;01/02/2023 10:15:00;UA\n/b;01/02/2023 11:00:00;UA\n", models.Semicolon},
		{"tab", "/a\t01/02/2023 10:15:00\tUA\n/b\t01/02/2023 11:00:00\tUA\n", models.Tab},
		{"pipe", "/a|01/02/2023 10:15:00|UA\n/b|01/02/2023 11:00:00|UA\n", models.Pipe},
		{"crlf", "/a;x;UA\r\n/b;y;UA\r\n", models.Semicolon},
		{"empty falls back to comma", "", models.Comma},
		{"single column falls back to comma", "/a\n/b\n/c\n", models.Comma},
		{"inconsistent falls back to comma", "a;b\nc;d;e;f\ng\nh|i\n", models.Comma},
		{
			"quoted commas inside semicolon file",
			"/a;01/02/2023 10:15:00;\"Mozilla/5.0 (KHTML, like Gecko, x)\"\n/b;01/02/2023 10:16:00;\"curl, 8\"\n",
			models.Semicolon,
		},
		{
			"comma preferred when equally consistent",
			"/a,ts,Mozilla/5.0 (X11; Linux)\n/b,ts,Mozilla/5.0 (X11; Linux)\n",
			models.Comma,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectDelimiter(tt.sample, DefaultSniffSampleSize))
		})
	}
}

func TestDetectDelimiterOnlyReadsSample(t *testing.T) {
	head := strings.Repeat("/a;b;c\n", 10)
	tail := strings.Repeat("/a,b,c,d,e\n", 1000)
	assert.Equal(t, models.Semicolon, DetectDelimiter(head+tail, len(head)))
}

func TestDetectDelimiterIgnoresCutRow(t *testing.T) {
	text := "/a|b|c\n/d|e|f\n/g|h,i,j,k,l,m"
	// The sample ends inside the third row; its commas must not count.
	assert.Equal(t, models.Pipe, DetectDelimiter(text, len(text)-2))
}

func TestDetectDelimiterZeroSampleUsesDefault(t *testing.T) {
	assert.Equal(t, models.Tab, DetectDelimiter("a\tb\nc\td\n", 0))
}

func TestConsistency(t *testing.T) {
	mode, score := consistency([]int{2, 2, 2, 3})
	assert.Equal(t, 2, mode)
	assert.InDelta(t, 0.75, score, 1e-9)

	mode, score = consistency([]int{1, 2})
	assert.Equal(t, 2, mode)
	assert.InDelta(t, 0.5, score, 1e-9)

	mode, score = consistency(nil)
	assert.Equal(t, 0, mode)
	assert.Zero(t, score)
}
