package services

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"weblog-stats/models"
)

const (
	MsgNoRequests = "No requests found."
	MsgNoBrowsers = "No recognized browsers found."
	MsgNoHours    = "Note: timestamps didn't match known formats; no per-hour stats."

	peekUALimit = 60
	maxBarWidth = 40
)

// Reporter renders a StatsReport as text lines. When styled, values are
// highlighted and hour lines get a proportional bar; the wording of each
// line is the same either way.
type Reporter struct {
	w      io.Writer
	styled bool
	value  lipgloss.Style
	bar    lipgloss.Style
}

func NewReporter(w io.Writer, styled bool) *Reporter {
	r := lipgloss.NewRenderer(w)
	return &Reporter{
		w:      w,
		styled: styled,
		value:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("5")),
		bar:    r.NewStyle().Foreground(lipgloss.Color("2")),
	}
}

func (r *Reporter) em(s string) string {
	if !r.styled {
		return s
	}
	return r.value.Render(s)
}

// Print writes the report. An empty report prints only MsgNoRequests.
func (r *Reporter) Print(rep *models.StatsReport, showHours bool) error {
	if rep.TotalRequests == 0 {
		_, err := fmt.Fprintln(r.w, MsgNoRequests)
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Image requests account for %s of all requests\n",
		r.em(fmt.Sprintf("%.1f%%", rep.ImagePercent)))

	if rep.MostPopular != "" {
		fmt.Fprintf(&b, "The most popular browser is %s\n", r.em(string(rep.MostPopular)))
	} else {
		fmt.Fprintln(&b, MsgNoBrowsers)
	}

	if showHours {
		if len(rep.Hours) == 0 {
			fmt.Fprintln(&b, MsgNoHours)
		}
		peak := 0
		if len(rep.Hours) > 0 {
			peak = rep.Hours[0].Hits
		}
		for _, hc := range rep.Hours {
			fmt.Fprintf(&b, "Hour %02d has %d hits", hc.Hour, hc.Hits)
			if r.styled {
				b.WriteString("  " + r.bar.Render(strings.Repeat("█", barWidth(hc.Hits, peak))))
			}
			b.WriteByte('\n')
		}
	}

	_, err := io.WriteString(r.w, b.String())
	return err
}

// PrintPeek writes the first n records for debugging.
func (r *Reporter) PrintPeek(records []models.Record, n int) error {
	if n > len(records) {
		n = len(records)
	}
	for i, rec := range records[:n] {
		dt := "absent"
		if rec.HasTimestamp() {
			dt = rec.Timestamp.Format("2006-01-02 15:04:05")
		}
		if _, err := fmt.Fprintf(r.w, "[%d] path=%q dt=%s ua=%q\n",
			i+1, rec.Path, dt, truncate(rec.UserAgent, peekUALimit)); err != nil {
			return err
		}
	}
	return nil
}

func barWidth(hits, peak int) int {
	if peak <= maxBarWidth {
		return hits
	}
	w := hits * maxBarWidth / peak
	if w == 0 {
		w = 1
	}
	return w
}

// truncate cuts s to max characters and appends "..." when it was longer.
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
