package heuristics

import (
	"sort"
	"strings"
	"time"

	"github.com/gosight/gosight/tracker/internal/dom"
)

// FormStaleAfter is how long a form must have been in use before leaving
// the page counts as abandoning it.
const FormStaleAfter = 5 * time.Second

// Abandonment describes a form left without submitting.
type Abandonment struct {
	FormID          string
	CompletedFields int
	TotalFields     int
	TimeSpent       time.Duration
	LastField       string
}

type formState struct {
	firstInteraction time.Time
	touched          map[string]bool
	lastField        string
	totalFields      int
	submitted        bool
}

// FormAbandonment tracks interaction per form key.
type FormAbandonment struct {
	forms map[string]*formState
}

func NewFormAbandonment() *FormAbandonment {
	return &FormAbandonment{forms: make(map[string]*formState)}
}

// Touch records an interaction with field on form key.
func (f *FormAbandonment) Touch(key, field string, totalFields int, now time.Time) {
	st, ok := f.forms[key]
	if !ok {
		st = &formState{firstInteraction: now, touched: make(map[string]bool)}
		f.forms[key] = st
	}
	if field != "" {
		st.touched[field] = true
		st.lastField = field
	}
	if totalFields > st.totalFields {
		st.totalFields = totalFields
	}
}

// Submitted marks key as submitted; it is never reported as abandoned.
func (f *FormAbandonment) Submitted(key string) {
	if st, ok := f.forms[key]; ok {
		st.submitted = true
	}
}

// Abandoned lists forms that were touched, not submitted, and first used
// more than FormStaleAfter before now. Results are sorted by form id.
func (f *FormAbandonment) Abandoned(now time.Time) []Abandonment {
	var out []Abandonment
	for key, st := range f.forms {
		if st.submitted || len(st.touched) == 0 {
			continue
		}
		spent := now.Sub(st.firstInteraction)
		if spent <= FormStaleAfter {
			continue
		}
		out = append(out, Abandonment{
			FormID:          key,
			CompletedFields: len(st.touched),
			TotalFields:     max(st.totalFields, len(st.touched)),
			TimeSpent:       spent,
			LastField:       st.lastField,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FormID < out[j].FormID })
	return out
}

// Reset forgets every form.
func (f *FormAbandonment) Reset() { f.forms = make(map[string]*formState) }

// FormKey identifies a form by id, falling back to its derived selector.
func FormKey(form dom.Element) string {
	if form == nil {
		return ""
	}
	if id := form.ID(); id != "" {
		return id
	}
	return SelectorFor(form)
}

// FieldName names a form control by name, then id.
func FieldName(el dom.Element) string {
	if name := dom.Attr(el, "name"); name != "" {
		return name
	}
	return el.ID()
}

var nonFieldInputTypes = map[string]bool{
	"hidden": true, "submit": true, "button": true, "reset": true, "image": true,
}

// TotalFields counts the user-editable controls in form.
func TotalFields(form dom.Element) int {
	n := 0
	for _, el := range form.QuerySelectorAll("input, select, textarea") {
		if el.TagName() == "input" && nonFieldInputTypes[strings.ToLower(dom.Attr(el, "type"))] {
			continue
		}
		n++
	}
	return n
}
