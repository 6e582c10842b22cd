package tracker

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gosight/gosight/tracker/internal/dom"
	"github.com/gosight/gosight/tracker/internal/event"
	"github.com/gosight/gosight/tracker/internal/heuristics"
)

// A click on a search button followed by the form's submit is one search.
const searchDedupWindow = time.Second

var sensitiveFieldNames = []string{"password", "secret", "token"}

// IsSensitiveField reports whether a field name must never be captured.
func IsSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, s := range sensitiveFieldNames {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func (t *Tracker) handleSubmitLocked(ev *dom.Event) {
	form := dom.Closest(ev.Target, "form")
	if form == nil {
		return
	}
	key := heuristics.FormKey(form)
	t.forms.Submitted(key)

	if t.cfg.TrackFormSubmits {
		data := formData(form)
		method := strings.ToLower(dom.Attr(form, "method"))
		if method == "" {
			method = "get"
		}
		t.logLocked(&event.FormSubmit{
			Base:       base(event.TypeFormSubmit),
			FormID:     key,
			Action:     dom.Attr(form, "action"),
			Method:     method,
			FormData:   data,
			FieldCount: len(data),
		})
	}
	if t.cfg.TrackSearch {
		t.detectSearchLocked(form, "form_submit")
	}
}

// formData collects named, non-sensitive field values.
func formData(form dom.Element) map[string]string {
	data := make(map[string]string)
	for _, field := range form.QuerySelectorAll("input, select, textarea") {
		name := dom.Attr(field, "name")
		if name == "" || IsSensitiveField(name) {
			continue
		}
		typ := strings.ToLower(dom.Attr(field, "type"))
		switch typ {
		case "password", "submit", "button", "reset", "image", "file":
			continue
		case "checkbox", "radio":
			if !field.Checked() {
				continue
			}
		}
		data[name] = field.Value()
	}
	return data
}

func (t *Tracker) handleInputLocked(ev *dom.Event) {
	t.touchFormLocked(ev.Target)
}

func (t *Tracker) handleChangeLocked(ev *dom.Event) {
	field := ev.Target
	if field == nil {
		return
	}
	t.touchFormLocked(field)
	if !t.cfg.TrackInputChanges {
		return
	}
	fieldType := strings.ToLower(dom.Attr(field, "type"))
	if fieldType == "" {
		fieldType = field.TagName()
	}
	t.logLocked(&event.InputChange{
		Base:        base(event.TypeInputChange),
		Element:     t.describeLocked(field),
		FieldName:   heuristics.FieldName(field),
		FieldType:   fieldType,
		ValueLength: utf8.RuneCountInString(field.Value()),
	})
}

func (t *Tracker) touchFormLocked(field dom.Element) {
	if !t.cfg.TrackFormAbandonment || field == nil {
		return
	}
	form := dom.Closest(field, "form")
	if form == nil {
		return
	}
	t.forms.Touch(heuristics.FormKey(form), heuristics.FieldName(field), heuristics.TotalFields(form), t.now())
}

func (t *Tracker) detectSearchLocked(form dom.Element, trigger string) {
	now := t.now()
	res, ok := heuristics.DetectSearch(heuristics.SearchInput{
		Document:      t.env.Document(),
		Form:          form,
		ViewportWidth: t.env.InnerWidth(),
		Last:          t.lastSearch,
	})
	if !ok {
		return
	}
	if t.lastSearch != nil && t.lastSearch.Query == res.Query && now.Sub(t.lastSearch.At) < searchDedupWindow {
		return
	}
	t.lastSearch = &heuristics.LastSearch{Query: res.Query, At: now}
	t.logLocked(&event.Search{
		Base:          base(event.TypeSearch),
		Query:         res.Query,
		ResultCount:   res.ResultCount,
		HasResults:    res.ResultCount > 0,
		Location:      res.Location,
		IsRefinement:  res.IsRefinement,
		PreviousQuery: res.PreviousQuery,
		Trigger:       trigger,
	})
}
