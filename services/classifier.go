package services

import (
	"regexp"
	"strings"

	"weblog-stats/models"
)

// imageRegexp matches image requests by suffix only.
var imageRegexp = regexp.MustCompile(`(?i)\.(jpg|gif|png)$`)

// IsImage reports whether path ends in .jpg, .gif or .png, ignoring case.
func IsImage(path string) bool {
	return imageRegexp.MatchString(path)
}

// ClassifyBrowser maps a user-agent to a browser family. Checks run in a
// fixed order and the first hit wins: Chrome user-agents also carry
// "Safari", so Safari is tested last and excludes Chrome/Chromium.
func ClassifyBrowser(ua string) models.Browser {
	hasChrome := strings.Contains(ua, "Chrome")
	hasChromium := strings.Contains(ua, "Chromium")

	switch {
	case hasChrome && !hasChromium:
		return models.BrowserChrome
	case strings.Contains(ua, "Firefox"):
		return models.BrowserFirefox
	case strings.Contains(ua, "MSIE") || strings.Contains(ua, "Trident"):
		return models.BrowserIE
	case strings.Contains(ua, "Safari") && !hasChrome && !hasChromium:
		return models.BrowserSafari
	default:
		return models.BrowserOther
	}
}
