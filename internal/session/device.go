package session

import (
	"regexp"
	"strings"

	"github.com/mssola/useragent"
)

var tabletUA = regexp.MustCompile(`(?i)(ipad|tablet|playbook|silk|kindle)`)

// Device is the coarse device class plus browser and OS names.
type Device struct {
	IsMobile  bool
	IsTablet  bool
	IsDesktop bool
	Browser   string
	OS        string
}

// DeviceClass parses a user agent string.
func DeviceClass(userAgent string) Device {
	ua := useragent.New(userAgent)
	d := Device{OS: ua.OS()}
	d.Browser, _ = ua.Browser()

	switch {
	case isTablet(userAgent):
		d.IsTablet = true
	case ua.Mobile():
		d.IsMobile = true
	default:
		d.IsDesktop = true
	}
	return d
}

// Android tablets omit "Mobile" from the user agent.
func isTablet(userAgent string) bool {
	if tabletUA.MatchString(userAgent) {
		return true
	}
	lower := strings.ToLower(userAgent)
	return strings.Contains(lower, "android") && !strings.Contains(lower, "mobile")
}
