package heuristics

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gosight/gosight/tracker/internal/dom"
	"github.com/gosight/gosight/tracker/internal/event"
)

const mobileBreakpoint = 768

var (
	resultCountSelectors = []string{
		"[data-results-count]",
		"[data-result-count]",
		".results-count",
		".result-count",
		".search-results-count",
		".search-count",
	}
	resultItemSelector = `.search-result, .result-item, .search-results li, [data-search-result]`
	firstNumber        = regexp.MustCompile(`\d[\d,.]*`)
)

// LastSearch is the session-scoped marker used to detect refinements.
type LastSearch struct {
	Query string
	At    time.Time
}

// SearchInput describes where a search was triggered.
type SearchInput struct {
	Document      dom.Document
	Form          dom.Element
	ViewportWidth float64
	Last          *LastSearch
}

// SearchResult is what DetectSearch found.
type SearchResult struct {
	Query         string
	ResultCount   int
	Location      event.SearchLocation
	IsRefinement  bool
	PreviousQuery string
}

// FindSearchField returns the first search-like input inside scope:
// type=search, or a name containing "search" or "query".
func FindSearchField(scope interface {
	QuerySelectorAll(string) []dom.Element
}) dom.Element {
	for _, in := range scope.QuerySelectorAll("input") {
		if strings.EqualFold(dom.Attr(in, "type"), "search") {
			return in
		}
		name := strings.ToLower(dom.Attr(in, "name"))
		if strings.Contains(name, "search") || strings.Contains(name, "query") {
			return in
		}
	}
	return nil
}

// DetectSearch reports a search when the form (or the page, without a form)
// holds a search field with a non-empty value.
func DetectSearch(in SearchInput) (SearchResult, bool) {
	var field dom.Element
	if in.Form != nil {
		field = FindSearchField(in.Form)
	} else if in.Document != nil {
		field = FindSearchField(in.Document)
	}
	if field == nil {
		return SearchResult{}, false
	}
	query := strings.TrimSpace(field.Value())
	if query == "" {
		return SearchResult{}, false
	}

	res := SearchResult{
		Query:       query,
		ResultCount: resultCount(in.Document),
	}

	anchor := in.Form
	if anchor == nil {
		anchor = field
	}
	res.Location = searchLocation(anchor.Rect(), in.ViewportWidth)

	if in.Last != nil && in.Last.Query != "" {
		res.PreviousQuery = in.Last.Query
		res.IsRefinement = isRefinement(in.Last.Query, query)
	}
	return res, true
}

func resultCount(doc dom.Document) int {
	if doc == nil {
		return 0
	}
	for _, sel := range resultCountSelectors {
		el := doc.QuerySelector(sel)
		if el == nil {
			continue
		}
		for _, attr := range []string{"data-results-count", "data-result-count"} {
			if v, ok := el.Attribute(attr); ok {
				if n, ok := parseCount(v); ok {
					return n
				}
			}
		}
		if n, ok := parseCount(el.TextContent()); ok {
			return n
		}
	}
	return len(doc.QuerySelectorAll(resultItemSelector))
}

func parseCount(s string) (int, bool) {
	m := firstNumber.FindString(s)
	if m == "" {
		return 0, false
	}
	m = strings.NewReplacer(",", "", ".", "").Replace(m)
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}
	return n, true
}

func searchLocation(r dom.Rect, viewportWidth float64) event.SearchLocation {
	switch {
	case viewportWidth > 0 && viewportWidth < mobileBreakpoint:
		return event.SearchLocationMobile
	case r.Height > 0 && r.Y < 150:
		return event.SearchLocationHeader
	case r.Width > 0 && viewportWidth > 0 && r.X+r.Width <= viewportWidth*0.3:
		return event.SearchLocationSidebar
	}
	return event.SearchLocationMain
}

// isRefinement reports whether next narrows or rewords prev: it differs but
// shares a word with it or contains it.
func isRefinement(prev, next string) bool {
	p, n := strings.ToLower(prev), strings.ToLower(next)
	if p == n {
		return false
	}
	if strings.Contains(n, p) || strings.Contains(p, n) {
		return true
	}
	words := make(map[string]bool)
	for _, w := range strings.Fields(p) {
		words[w] = true
	}
	for _, w := range strings.Fields(n) {
		if words[w] {
			return true
		}
	}
	return false
}
