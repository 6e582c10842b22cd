// Package dom describes the browser surface the tracker listens to. The tracker
// never touches a real window; it is handed an Environment.
package dom

// Listener handles a dispatched event.
type Listener func(*Event)

// Options mirrors addEventListener options.
type Options struct {
	Capture bool
	Passive bool
}

// Target can have listeners attached. The returned func detaches the listener.
type Target interface {
	AddEventListener(eventType string, fn Listener, opts Options) (remove func())
}

// Rect is an element's bounding box in viewport coordinates.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Element is a read-only view of a DOM element.
type Element interface {
	TagName() string
	ID() string
	ClassName() string
	Classes() []string
	Attribute(name string) (string, bool)
	Attributes() map[string]string
	TextContent() string
	Value() string
	Checked() bool
	Parent() Element
	Children() []Element
	Matches(selector string) bool
	QuerySelectorAll(selector string) []Element
	Rect() Rect
}

// Document is the page document.
type Document interface {
	Target
	Body() Element
	Title() string
	Referrer() string
	VisibilityState() string
	ScrollTop() float64
	ScrollHeight() float64
	SelectionText() string
	QuerySelector(selector string) Element
	QuerySelectorAll(selector string) []Element
}

// MutationRecord describes one observed DOM change.
type MutationRecord struct {
	Type   string
	Target Element
}

// Environment is the window plus the few globals the tracker reads.
type Environment interface {
	Target
	// Available reports whether browser globals exist. A server-side render
	// environment returns false.
	Available() bool
	Document() Document
	Location() string
	UserAgent() string
	Language() string
	InnerWidth() float64
	InnerHeight() float64
	ObserveMutations(root Element, fn func([]MutationRecord)) (disconnect func())
}

// MediaState is the playback state of a media element at dispatch time.
type MediaState struct {
	Src         string
	CurrentTime float64
	Duration    float64
}

// Event is a dispatched browser event. Only the fields relevant to its type
// are populated.
type Event struct {
	Type    string
	Target  Element
	PageX   float64
	PageY   float64
	ClientX float64
	ClientY float64

	Key  string
	Code string

	Message  string
	Filename string
	Line     int
	Column   int
	Stack    string
	Reason   string

	Media *MediaState
}

// Closest returns el or its nearest ancestor matching selector, or nil.
func Closest(el Element, selector string) Element {
	for cur := el; cur != nil; cur = cur.Parent() {
		if cur.Matches(selector) {
			return cur
		}
	}
	return nil
}

// Contains reports whether el is ancestor or equal to other.
func Contains(ancestor, el Element) bool {
	for cur := el; cur != nil; cur = cur.Parent() {
		if cur == ancestor {
			return true
		}
	}
	return false
}

// Attr returns the attribute value or "" when absent.
func Attr(el Element, name string) string {
	v, _ := el.Attribute(name)
	return v
}
