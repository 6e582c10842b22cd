package event

// TrafficSource is the attribution class of a session.
type TrafficSource string

const (
	TrafficDirect   TrafficSource = "direct"
	TrafficOrganic  TrafficSource = "organic"
	TrafficSocial   TrafficSource = "social"
	TrafficReferral TrafficSource = "referral"
	TrafficPaid     TrafficSource = "paid"
	TrafficEmail    TrafficSource = "email"
	TrafficOther    TrafficSource = "other"
)

// SessionStart is emitted once per tracker.
type SessionStart struct {
	Base
	LandingPage   string        `json:"landing_page"`
	ReferrerHost  string        `json:"referrer_host,omitempty"`
	UTMSource     string        `json:"utm_source,omitempty"`
	UTMMedium     string        `json:"utm_medium,omitempty"`
	UTMCampaign   string        `json:"utm_campaign,omitempty"`
	UTMTerm       string        `json:"utm_term,omitempty"`
	UTMContent    string        `json:"utm_content,omitempty"`
	TrafficSource TrafficSource `json:"traffic_source"`
	IsMobile      bool          `json:"is_mobile"`
	IsTablet      bool          `json:"is_tablet"`
	IsDesktop     bool          `json:"is_desktop"`
	Browser       string        `json:"browser,omitempty"`
	OS            string        `json:"os,omitempty"`
	IsNewVisitor  bool          `json:"is_new_visitor"`
	LastVisitAt   int64         `json:"last_visit_at,omitempty"`
}

// ExitType says how a session ended.
type ExitType string

const (
	ExitUnload    ExitType = "unload"
	ExitTabHidden ExitType = "tab_hidden"
)

// SessionEnd is emitted at most once per tracker.
type SessionEnd struct {
	Base
	DurationMs   int64    `json:"duration_ms"`
	ActiveTimeMs int64    `json:"active_time_ms"`
	PageViews    int      `json:"page_views"`
	TotalClicks  int      `json:"total_clicks"`
	TotalScrolls int      `json:"total_scrolls"`
	ExitType     ExitType `json:"exit_type"`
	ExitPage     string   `json:"exit_page"`
	IsBounce     bool     `json:"is_bounce"`
	Converted    bool     `json:"converted"`
}
