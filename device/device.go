package device

import (
	"strings"

	"github.com/mssola/user_agent"
)

// Platform is the coarse device class inferred from a User-Agent string.
type Platform string

const (
	// PlatformDesktop represents a desktop or laptop computer.
	PlatformDesktop Platform = "Desktop"
	// PlatformMobile represents a phone-class device.
	PlatformMobile Platform = "Mobile"
	// PlatformTablet represents a tablet-class device.
	PlatformTablet Platform = "Tablet"
)

// Browser is the browser family inferred from a User-Agent string.
type Browser string

const (
	BrowserChrome  Browser = "Chrome"
	BrowserFirefox Browser = "Firefox"
	BrowserSafari  Browser = "Safari"
	BrowserEdge    Browser = "Edge"
	BrowserUnknown Browser = "Unknown"
)

// Info is a best-effort classification of the client device. It is
// informational session metadata only and is never consulted for an
// authorization decision.
type Info struct {
	Platform Platform `json:"platform"`
	Browser  Browser  `json:"browser"`
}

// Classify infers platform and browser family from a raw User-Agent
// header. An empty or unrecognized string classifies as Desktop/Unknown.
func Classify(userAgent string) Info {
	ua := user_agent.New(userAgent)

	platform := PlatformDesktop
	lower := strings.ToLower(userAgent)
	if strings.Contains(lower, "tablet") || strings.Contains(lower, "ipad") {
		platform = PlatformTablet
	} else if ua.Mobile() {
		platform = PlatformMobile
	}

	browserName, _ := ua.Browser()
	browser := BrowserUnknown
	switch {
	// Edge first: its User-Agent also advertises Chrome and Safari.
	case strings.Contains(lower, "edg/") || strings.Contains(lower, "edge/"):
		browser = BrowserEdge
	case strings.EqualFold(browserName, "Chrome"):
		browser = BrowserChrome
	case strings.EqualFold(browserName, "Firefox"):
		browser = BrowserFirefox
	case strings.EqualFold(browserName, "Safari"):
		browser = BrowserSafari
	}

	return Info{Platform: platform, Browser: browser}
}

// String renders the classification for logs and session listings.
func (i Info) String() string {
	return string(i.Browser) + " on " + string(i.Platform)
}
