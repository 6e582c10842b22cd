package session

import (
	"net/url"
	"strings"

	"github.com/gosight/gosight/tracker/internal/event"
)

var (
	searchDomains = []string{"google.", "bing.com", "yahoo.", "duckduckgo.com", "baidu.com", "yandex.", "ecosia.org", "ask.com"}
	socialDomains = []string{"facebook.com", "fb.com", "twitter.com", "t.co", "x.com", "linkedin.com", "lnkd.in", "instagram.com", "pinterest.", "reddit.com", "tiktok.com", "youtube.com", "whatsapp.com", "t.me"}

	paidHints   = []string{"paid", "cpc", "ppc", "ads", "adwords", "cpm"}
	emailHints  = []string{"email", "newsletter", "mailchimp"}
	socialHints = []string{"facebook", "twitter", "linkedin", "instagram", "pinterest", "reddit", "tiktok", "youtube", "social"}
	searchHints = []string{"google", "bing", "yahoo", "duckduckgo", "baidu", "yandex"}
)

// Attribution is where the visit came from.
type Attribution struct {
	ReferrerHost  string
	UTMSource     string
	UTMMedium     string
	UTMCampaign   string
	UTMTerm       string
	UTMContent    string
	TrafficSource event.TrafficSource
}

// Attribute classifies a landing. Parse failures leave the affected part
// unclassified.
func Attribute(pageURL, referrer string) Attribution {
	var a Attribution
	page, pageErr := url.Parse(pageURL)
	if pageErr == nil {
		q := page.Query()
		a.UTMSource = q.Get("utm_source")
		a.UTMMedium = q.Get("utm_medium")
		a.UTMCampaign = q.Get("utm_campaign")
		a.UTMTerm = q.Get("utm_term")
		a.UTMContent = q.Get("utm_content")
	}
	if referrer != "" {
		if ref, err := url.Parse(referrer); err == nil {
			a.ReferrerHost = ref.Hostname()
		}
	}

	a.TrafficSource = trafficSource(a, page)
	return a
}

func trafficSource(a Attribution, page *url.URL) event.TrafficSource {
	if a.UTMSource != "" || a.UTMMedium != "" {
		utm := strings.ToLower(a.UTMSource + " " + a.UTMMedium)
		switch {
		case containsAny(utm, paidHints):
			return event.TrafficPaid
		case containsAny(utm, emailHints):
			return event.TrafficEmail
		case containsAny(utm, socialHints):
			return event.TrafficSocial
		case containsAny(utm, searchHints):
			return event.TrafficOrganic
		}
		return event.TrafficOther
	}

	host := strings.ToLower(a.ReferrerHost)
	if host == "" {
		return event.TrafficDirect
	}
	if page != nil && strings.EqualFold(page.Hostname(), host) {
		return event.TrafficDirect
	}
	switch {
	case containsAny(host, searchDomains):
		return event.TrafficOrganic
	case matchesDomain(host, socialDomains):
		return event.TrafficSocial
	}
	return event.TrafficReferral
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

// matchesDomain is a suffix match so that "t.co" does not match "reddit.com".
func matchesDomain(host string, domains []string) bool {
	for _, d := range domains {
		if strings.HasSuffix(d, ".") {
			if strings.Contains(host, d) {
				return true
			}
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// ResolveReferrer picks the referrer for an event: utm_source, then the
// ref/referrer/source query params, then the previous SPA page, then the
// document referrer.
func ResolveReferrer(pageURL, previousPage, documentReferrer string) string {
	if page, err := url.Parse(pageURL); err == nil {
		q := page.Query()
		for _, key := range []string{"utm_source", "ref", "referrer", "source"} {
			if v := q.Get(key); v != "" {
				return v
			}
		}
	}
	if previousPage != "" {
		return previousPage
	}
	return documentReferrer
}
