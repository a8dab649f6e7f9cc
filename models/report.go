package models

// Browser is the coarse browser family derived from a user-agent.
type Browser string

const (
	BrowserChrome  Browser = "Chrome"
	BrowserFirefox Browser = "Firefox"
	BrowserIE      Browser = "Internet Explorer"
	BrowserSafari  Browser = "Safari"
	BrowserOther   Browser = "Other"
)

// NamedBrowsers are the families eligible for "most popular", in tie-break order.
var NamedBrowsers = []Browser{BrowserChrome, BrowserFirefox, BrowserIE, BrowserSafari}

// HourCount is one bar of the per-hour histogram.
type HourCount struct {
	Hour int
	Hits int
}

// StatsReport holds the counters computed over one input.
type StatsReport struct {
	TotalRequests int
	ImageRequests int
	ImagePercent  float64
	ByBrowser     map[Browser]int
	ByHour        map[int]int

	// MostPopular is empty when no record fell into a named family.
	MostPopular Browser
	// Hours is ByHour sorted by hits descending, then hour ascending.
	Hours []HourCount
}
