package heuristics

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/gosight/gosight/tracker/internal/dom"
)

var downloadExt = regexp.MustCompile(`(?i)\.(pdf|zip|rar|7z|tar|gz|dmg|exe|msi|pkg|deb|rpm|apk|doc|docx|xls|xlsx|ppt|pptx|csv|txt|rtf|odt|mp3|wav|mp4|mov|avi|mkv|epub|iso)$`)

var sharePatterns = []struct {
	platform string
	pattern  *regexp.Regexp
}{
	{"facebook", regexp.MustCompile(`facebook\.com/(sharer|share\.php|dialog/share)`)},
	{"twitter", regexp.MustCompile(`(twitter|x)\.com/(intent/tweet|share)`)},
	{"linkedin", regexp.MustCompile(`linkedin\.com/(sharing|shareArticle)`)},
	{"pinterest", regexp.MustCompile(`pinterest\.com/pin/create`)},
	{"reddit", regexp.MustCompile(`reddit\.com/submit`)},
	{"whatsapp", regexp.MustCompile(`(wa\.me/|api\.whatsapp\.com/send|whatsapp://send)`)},
	{"telegram", regexp.MustCompile(`t\.me/share`)},
	{"email", regexp.MustCompile(`^mailto:.*[?&](subject|body)=`)},
}

// LinkInfo is what ClassifyLink found about a link.
type LinkInfo struct {
	Href string

	Outbound   bool
	TargetHost string

	Download  bool
	FileName  string
	Extension string

	Share         bool
	SharePlatform string
}

// ClassifyLink classifies the link enclosing el against the page URL. Any
// parse failure leaves the affected classification unset.
func ClassifyLink(el dom.Element, pageURL string) (LinkInfo, bool) {
	if el == nil {
		return LinkInfo{}, false
	}
	if platform, ok := shareAttribute(el); ok {
		info := LinkInfo{Share: true, SharePlatform: platform}
		if a := dom.Closest(el, "a[href]"); a != nil {
			info.Href = dom.Attr(a, "href")
		}
		return info, true
	}

	a := dom.Closest(el, "a[href]")
	if a == nil {
		return LinkInfo{}, false
	}
	href := dom.Attr(a, "href")
	info := LinkInfo{Href: href}

	for _, sp := range sharePatterns {
		if sp.pattern.MatchString(href) {
			info.Share = true
			info.SharePlatform = sp.platform
			break
		}
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return info, info.Share
	}
	target, err := base.Parse(href)
	if err != nil {
		return info, info.Share
	}

	_, hasDownloadAttr := a.Attribute("download")
	if hasDownloadAttr || downloadExt.MatchString(target.Path) {
		info.Download = true
		info.FileName = dom.Attr(a, "download")
		if info.FileName == "" {
			info.FileName = path.Base(target.Path)
		}
		info.Extension = strings.TrimPrefix(strings.ToLower(path.Ext(info.FileName)), ".")
	}

	if (target.Scheme == "http" || target.Scheme == "https") && !strings.EqualFold(target.Host, base.Host) {
		info.Outbound = true
		info.TargetHost = target.Host
	}
	return info, info.Share || info.Download || info.Outbound
}

func shareAttribute(el dom.Element) (string, bool) {
	host := dom.Closest(el, `[data-share], [data-share-platform], .share, .share-button, [class*="share-"]`)
	if host == nil {
		return "", false
	}
	for _, attr := range []string{"data-share-platform", "data-share"} {
		if v, ok := host.Attribute(attr); ok && v != "" {
			return strings.ToLower(v), true
		}
	}
	return "unknown", true
}
