package event

// FormSubmit carries the non-sensitive fields of a submitted form.
type FormSubmit struct {
	Base
	FormID     string            `json:"form_id"`
	Action     string            `json:"action,omitempty"`
	Method     string            `json:"method,omitempty"`
	FormData   map[string]string `json:"form_data"`
	FieldCount int               `json:"field_count"`
}

// InputChange records that a field changed. Only the value length is kept.
type InputChange struct {
	Base
	Element     ElementInfo `json:"element"`
	FieldName   string      `json:"field_name"`
	FieldType   string      `json:"field_type"`
	ValueLength int         `json:"value_length"`
}

// FormAbandon is emitted on unload for forms that were started but never submitted.
type FormAbandon struct {
	Base
	FormID          string `json:"form_id"`
	CompletedFields int    `json:"completed_fields"`
	TotalFields     int    `json:"total_fields"`
	TimeSpentMs     int64  `json:"time_spent_ms"`
	LastField       string `json:"last_field,omitempty"`
}

// SearchLocation is where on the page a search form sits.
type SearchLocation string

const (
	SearchLocationHeader  SearchLocation = "header"
	SearchLocationSidebar SearchLocation = "sidebar"
	SearchLocationMain    SearchLocation = "main"
	SearchLocationMobile  SearchLocation = "mobile"
)

// Search is a detected site search.
type Search struct {
	Base
	Query         string         `json:"query"`
	ResultCount   int            `json:"result_count"`
	HasResults    bool           `json:"has_results"`
	Location      SearchLocation `json:"search_location"`
	IsRefinement  bool           `json:"is_refinement"`
	PreviousQuery string         `json:"previous_query,omitempty"`
	Trigger       string         `json:"trigger"`
}
