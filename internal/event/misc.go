package event

// ErrorKind distinguishes the two browser error sources.
type ErrorKind string

const (
	ErrorKindError              ErrorKind = "error"
	ErrorKindUnhandledRejection ErrorKind = "unhandledrejection"
)

// Error normalizes window errors and unhandled promise rejections.
type Error struct {
	Base
	Message   string    `json:"message"`
	Filename  string    `json:"filename,omitempty"`
	Line      int       `json:"line,omitempty"`
	Column    int       `json:"column,omitempty"`
	Stack     string    `json:"stack,omitempty"`
	ErrorKind ErrorKind `json:"error_type"`
}

// Custom is emitted by Track rules and TrackCustom.
type Custom struct {
	Base
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
	Element    *ElementInfo   `json:"element,omitempty"`
}

// Media covers media_play, media_pause, media_complete and media_progress.
type Media struct {
	Base
	MediaType   string      `json:"media_type"`
	Source      string      `json:"source,omitempty"`
	CurrentTime float64     `json:"current_time"`
	Duration    float64     `json:"duration"`
	Progress    int         `json:"progress,omitempty"`
	Element     ElementInfo `json:"element"`
}
