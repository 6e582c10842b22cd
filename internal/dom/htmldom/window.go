// Package htmldom implements dom.Environment over a parsed HTML page. It backs
// the scenario simulator and the tracker tests: events are dispatched
// explicitly and mutations are reported synchronously.
//
// A Window is not safe for concurrent mutation.
package htmldom

import (
	"fmt"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"github.com/gosight/gosight/tracker/internal/dom"
)

const defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Option configures a Window.
type Option func(*Window)

// WithURL sets the initial location.
func WithURL(u string) Option { return func(w *Window) { w.url = u } }

// WithReferrer sets document.referrer.
func WithReferrer(r string) Option { return func(w *Window) { w.doc.referrer = r } }

// WithUserAgent sets navigator.userAgent.
func WithUserAgent(ua string) Option { return func(w *Window) { w.ua = ua } }

// WithViewport sets the inner window size.
func WithViewport(width, height float64) Option {
	return func(w *Window) { w.width, w.height = width, height }
}

// WithDocumentHeight sets the scrollable document height.
func WithDocumentHeight(h float64) Option { return func(w *Window) { w.doc.scrollHeight = h } }

// Unavailable makes Available report false, as in a server render.
func Unavailable() Option { return func(w *Window) { w.available = false } }

// Window is a simulated browser window.
type Window struct {
	url       string
	ua        string
	lang      string
	width     float64
	height    float64
	available bool

	doc       *Document
	listeners listenerSet
	observers []*observer

	mu        sync.Mutex
	elements  map[*html.Node]*Element
	rects     map[*html.Node]dom.Rect
	values    map[*html.Node]string
	selectors map[string]cascadia.Selector
}

type observer struct {
	root   *Element
	fn     func([]dom.MutationRecord)
	active bool
}

// New parses page and returns a window showing it.
func New(page string, opts ...Option) (*Window, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse page: %w", err)
	}

	w := &Window{
		url:       "http://localhost/",
		ua:        defaultUserAgent,
		lang:      "en-US",
		width:     1280,
		height:    800,
		available: true,
		elements:  make(map[*html.Node]*Element),
		rects:     make(map[*html.Node]dom.Rect),
		values:    make(map[*html.Node]string),
		selectors: make(map[string]cascadia.Selector),
	}
	w.doc = &Document{win: w, root: root, visibility: "visible"}
	for _, opt := range opts {
		opt(w)
	}
	if w.doc.scrollHeight == 0 {
		w.doc.scrollHeight = w.height
	}
	return w, nil
}

// MustNew is New for fixtures known to parse.
func MustNew(page string, opts ...Option) *Window {
	w, err := New(page, opts...)
	if err != nil {
		panic(err)
	}
	return w
}

func (w *Window) AddEventListener(eventType string, fn dom.Listener, opts dom.Options) func() {
	return w.listeners.add(eventType, fn, opts)
}

func (w *Window) Available() bool        { return w.available }
func (w *Window) Document() dom.Document { return w.doc }
func (w *Window) Location() string       { return w.url }
func (w *Window) UserAgent() string      { return w.ua }
func (w *Window) Language() string       { return w.lang }
func (w *Window) InnerWidth() float64    { return w.width }
func (w *Window) InnerHeight() float64   { return w.height }

func (w *Window) ObserveMutations(root dom.Element, fn func([]dom.MutationRecord)) func() {
	el, ok := root.(*Element)
	if !ok {
		return func() {}
	}
	o := &observer{root: el, fn: fn, active: true}
	w.observers = append(w.observers, o)
	return func() { o.active = false }
}

// ListenerCount reports how many listeners of eventType are attached to the
// window and the document together.
func (w *Window) ListenerCount(eventType string) int {
	return w.listeners.count(eventType) + w.doc.listeners.count(eventType)
}

func (w *Window) notify(rec dom.MutationRecord) {
	target, _ := rec.Target.(*Element)
	for _, o := range w.observers {
		if !o.active {
			continue
		}
		if target != nil && !dom.Contains(o.root, target) {
			continue
		}
		o.fn([]dom.MutationRecord{rec})
	}
}

func (w *Window) wrap(n *html.Node) *Element {
	if n == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if el, ok := w.elements[n]; ok {
		return el
	}
	el := &Element{n: n, win: w}
	w.elements[n] = el
	return el
}

func (w *Window) compile(selector string) (cascadia.Selector, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if sel, ok := w.selectors[selector]; ok {
		return sel, sel != nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		w.selectors[selector] = nil
		return nil, false
	}
	w.selectors[selector] = sel
	return sel, true
}

// Document is the simulated page document.
type Document struct {
	win          *Window
	root         *html.Node
	referrer     string
	visibility   string
	scrollTop    float64
	scrollHeight float64
	selection    string
	listeners    listenerSet
}

func (d *Document) AddEventListener(eventType string, fn dom.Listener, opts dom.Options) func() {
	return d.listeners.add(eventType, fn, opts)
}

func (d *Document) Body() dom.Element {
	if el := d.query("body"); el != nil {
		return el
	}
	return nil
}

func (d *Document) Title() string {
	if el := d.query("title"); el != nil {
		return strings.TrimSpace(el.TextContent())
	}
	return ""
}

func (d *Document) Referrer() string        { return d.referrer }
func (d *Document) VisibilityState() string { return d.visibility }
func (d *Document) ScrollTop() float64      { return d.scrollTop }
func (d *Document) ScrollHeight() float64   { return d.scrollHeight }
func (d *Document) SelectionText() string   { return d.selection }

func (d *Document) QuerySelector(selector string) dom.Element {
	if el := d.query(selector); el != nil {
		return el
	}
	return nil
}

func (d *Document) QuerySelectorAll(selector string) []dom.Element {
	sel, ok := d.win.compile(selector)
	if !ok {
		return nil
	}
	var out []dom.Element
	for _, n := range sel.MatchAll(d.root) {
		out = append(out, d.win.wrap(n))
	}
	return out
}

func (d *Document) query(selector string) *Element {
	sel, ok := d.win.compile(selector)
	if !ok {
		return nil
	}
	return d.win.wrap(sel.MatchFirst(d.root))
}

type listenerEntry struct {
	eventType string
	fn        dom.Listener
	capture   bool
	removed   bool
}

type listenerSet struct {
	mu      sync.Mutex
	entries []*listenerEntry
}

func (s *listenerSet) add(eventType string, fn dom.Listener, opts dom.Options) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := &listenerEntry{eventType: eventType, fn: fn, capture: opts.Capture}
	s.entries = append(s.entries, e)
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		e.removed = true
	}
}

func (s *listenerSet) count(eventType string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.entries {
		if e.eventType == eventType && !e.removed {
			n++
		}
	}
	return n
}

// matching snapshots the live listeners for one phase. phase is "capture",
// "bubble" or "target".
func (s *listenerSet) matching(eventType, phase string) []dom.Listener {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []dom.Listener
	for _, e := range s.entries {
		if e.removed || e.eventType != eventType {
			continue
		}
		if phase == "capture" && !e.capture {
			continue
		}
		if phase == "bubble" && e.capture {
			continue
		}
		out = append(out, e.fn)
	}
	return out
}
