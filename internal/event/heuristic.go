package event

// RageClick is emitted when the same element is clicked repeatedly in a short window.
type RageClick struct {
	Base
	Element      ElementInfo `json:"element"`
	ClickCount   int         `json:"click_count"`
	TimeWindowMs int64       `json:"time_window_ms"`
	ClientX      float64     `json:"client_x"`
	ClientY      float64     `json:"client_y"`
}

// DeadClick is a click on a non-interactive element that produced no visible change.
type DeadClick struct {
	Base
	Element          ElementInfo `json:"element"`
	ExpectedBehavior string      `json:"expected_behavior"`
	ActualBehavior   string      `json:"actual_behavior"`
	WaitMs           int64       `json:"wait_ms"`
	ClientX          float64     `json:"client_x"`
	ClientY          float64     `json:"client_y"`
}

// ErrorCategory classifies an error message.
type ErrorCategory string

const (
	ErrorCategoryValidation ErrorCategory = "validation"
	ErrorCategoryNetwork    ErrorCategory = "network"
	ErrorCategoryTimeout    ErrorCategory = "timeout"
	ErrorCategoryJavaScript ErrorCategory = "javascript"
	ErrorCategoryOther      ErrorCategory = "other"
)

// ErrorClick correlates a click with an error that followed it.
type ErrorClick struct {
	Base
	Element       ElementInfo   `json:"element"`
	ErrorMessage  string        `json:"error_message"`
	ErrorCategory ErrorCategory `json:"error_category"`
	TimeToErrorMs int64         `json:"time_to_error_ms"`
}

// ScrollDepth fires once per threshold per page load.
type ScrollDepth struct {
	Base
	Depth         int   `json:"depth"`
	TimeToReachMs int64 `json:"time_to_reach_ms"`
}

// IdleStart is emitted after the configured period without activity.
type IdleStart struct {
	Base
	IdleTimeoutMs int64 `json:"idle_timeout_ms"`
}

// IdleEnd is emitted on the first activity after IdleStart.
type IdleEnd struct {
	Base
	IdleDuration int64 `json:"idle_duration"`
}

// Share records a share intent, from a share link or the Share wrapper.
type Share struct {
	Base
	Platform string      `json:"platform"`
	Method   string      `json:"method"`
	Content  string      `json:"content,omitempty"`
	Element  ElementInfo `json:"element"`
}

// OutboundLink records a click on a link to another host.
type OutboundLink struct {
	Base
	Href       string      `json:"href"`
	TargetHost string      `json:"target_host"`
	Element    ElementInfo `json:"element"`
}

// Download records a click on a downloadable resource.
type Download struct {
	Base
	Href      string      `json:"href"`
	FileName  string      `json:"file_name"`
	Extension string      `json:"extension"`
	Element   ElementInfo `json:"element"`
}
