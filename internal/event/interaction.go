package event

// Click is a pointer click, captured before page handlers run.
type Click struct {
	Base
	Element ElementInfo `json:"element"`
	PageX   float64     `json:"page_x"`
	PageY   float64     `json:"page_y"`
	ClientX float64     `json:"client_x"`
	ClientY float64     `json:"client_y"`
}

// Scroll is a debounced scroll position sample.
type Scroll struct {
	Base
	ScrollTop        float64 `json:"scroll_top"`
	ScrollPercentage float64 `json:"scroll_percentage"`
	DocumentHeight   float64 `json:"document_height"`
	ViewportHeight   float64 `json:"viewport_height"`
}

// PageView fires on load and on every in-page URL change.
type PageView struct {
	Base
	Title        string `json:"title,omitempty"`
	Path         string `json:"path"`
	PreviousPage string `json:"previous_page,omitempty"`
}

// Keystroke records a key press outside sensitive inputs.
type Keystroke struct {
	Base
	Key     string      `json:"key"`
	Code    string      `json:"code,omitempty"`
	Element ElementInfo `json:"element"`
}

// MouseMove is a throttled pointer position sample.
type MouseMove struct {
	Base
	ClientX float64 `json:"client_x"`
	ClientY float64 `json:"client_y"`
}

// Resize records a debounced viewport change.
type Resize struct {
	Base
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// VisibilityChange records the document visibility state.
type VisibilityChange struct {
	Base
	VisibilityState string `json:"visibility_state"`
}

// Copy records a copy action. The copied text itself is never captured.
type Copy struct {
	Base
	Element    ElementInfo `json:"element"`
	TextLength int         `json:"text_length"`
}

// Print records a print request.
type Print struct {
	Base
	Title string `json:"title,omitempty"`
}
