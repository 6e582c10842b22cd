package event

// Type is the discriminant of an event record.
type Type string

const (
	TypeClick            Type = "click"
	TypeScroll           Type = "scroll"
	TypePageView         Type = "page_view"
	TypeFormSubmit       Type = "form_submit"
	TypeInputChange      Type = "input_change"
	TypeKeystroke        Type = "keystroke"
	TypeMouseMove        Type = "mouse_move"
	TypeResize           Type = "resize"
	TypeVisibilityChange Type = "visibility_change"
	TypeError            Type = "error"
	TypeCustom           Type = "custom"
	TypeSessionStart     Type = "session_start"
	TypeSessionEnd       Type = "session_end"
	TypeRageClick        Type = "rage_click"
	TypeDeadClick        Type = "dead_click"
	TypeErrorClick       Type = "error_click"
	TypeSearch           Type = "search"
	TypeShare            Type = "share"
	TypeOutboundLink     Type = "outbound_link"
	TypeDownload         Type = "download"
	TypePrint            Type = "print"
	TypeCopy             Type = "copy"
	TypeScrollDepth      Type = "scroll_depth"
	TypeIdleStart        Type = "idle_start"
	TypeIdleEnd          Type = "idle_end"
	TypeFormAbandon      Type = "form_abandon"
	TypeMediaPlay        Type = "media_play"
	TypeMediaPause       Type = "media_pause"
	TypeMediaComplete    Type = "media_complete"
	TypeMediaProgress    Type = "media_progress"
)

// Event is implemented by every variant. Variants are flat structs that embed
// Base; shared fields come only from the envelope.
type Event interface {
	Envelope() *Base
}

// Base is the envelope shared by all variants.
type Base struct {
	EventID   string `json:"event_id"`
	Type      Type   `json:"type"`
	Timestamp int64  `json:"timestamp"`
	URL       string `json:"url"`
	UserAgent string `json:"user_agent"`
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Referrer  string `json:"referrer,omitempty"`
}

// Envelope returns the shared envelope.
func (b *Base) Envelope() *Base { return b }

// EnvelopeKeys lists the JSON keys that belong to Base.
var EnvelopeKeys = []string{
	"event_id", "type", "timestamp", "url", "user_agent", "session_id", "user_id", "referrer",
}

// ElementInfo is a detached copy of the element an event happened on.
type ElementInfo struct {
	TagName     string            `json:"tag_name"`
	ID          string            `json:"id,omitempty"`
	ClassName   string            `json:"class_name,omitempty"`
	TextContent string            `json:"text_content,omitempty"`
	Selector    string            `json:"selector,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}
