package analytics

import "strings"

// Device classes.
const (
	DeviceDesktop = "desktop"
	DeviceMobile  = "mobile"
	DeviceTablet  = "tablet"
	DeviceBot     = "bot"
)

// UserAgent is the coarse classification of a User-Agent header.
type UserAgent struct {
	Device  string `json:"device"`
	Browser string `json:"browser"`
	OS      string `json:"os"`
}

// IsBot reports whether the agent is a crawler or a script.
func (ua UserAgent) IsBot() bool { return ua.Device == DeviceBot }

var botMarkers = []string{
	"bot", "crawl", "spider", "slurp", "curl/", "wget/", "python-requests", "python-urllib",
	"go-http-client", "headless", "facebookexternalhit", "preview", "monitor", "lighthouse",
}

// browsers are checked in order; Chromium forks advertise "Chrome" too.
var browsers = []struct{ marker, name string }{
	{"edg/", "Edge"},
	{"edga/", "Edge"},
	{"edgios/", "Edge"},
	{"opr/", "Opera"},
	{"samsungbrowser/", "Samsung Internet"},
	{"firefox/", "Firefox"},
	{"fxios/", "Firefox"},
	{"crios/", "Chrome"},
	{"chrome/", "Chrome"},
	{"safari/", "Safari"},
}

// ParseUserAgent classifies a User-Agent header. An empty header counts as a bot.
func ParseUserAgent(header string) UserAgent {
	s := strings.ToLower(strings.TrimSpace(header))
	if s == "" {
		return UserAgent{Device: DeviceBot, Browser: "Other", OS: "Other"}
	}

	ua := UserAgent{Browser: "Other", OS: parseOS(s)}
	for _, b := range browsers {
		if strings.Contains(s, b.marker) {
			ua.Browser = b.name
			break
		}
	}

	for _, m := range botMarkers {
		if strings.Contains(s, m) {
			ua.Device = DeviceBot
			return ua
		}
	}

	switch {
	case strings.Contains(s, "ipad") || strings.Contains(s, "tablet") ||
		(strings.Contains(s, "android") && !strings.Contains(s, "mobile")):
		ua.Device = DeviceTablet
	case strings.Contains(s, "mobi") || strings.Contains(s, "iphone") || strings.Contains(s, "ipod"):
		ua.Device = DeviceMobile
	default:
		ua.Device = DeviceDesktop
	}
	return ua
}

func parseOS(s string) string {
	switch {
	case strings.Contains(s, "windows"):
		return "Windows"
	case strings.Contains(s, "iphone") || strings.Contains(s, "ipad") || strings.Contains(s, "ipod"):
		return "iOS"
	case strings.Contains(s, "android"):
		return "Android"
	case strings.Contains(s, "cros"):
		return "ChromeOS"
	case strings.Contains(s, "mac os x") || strings.Contains(s, "macintosh"):
		return "macOS"
	case strings.Contains(s, "linux"):
		return "Linux"
	}
	return "Other"
}
