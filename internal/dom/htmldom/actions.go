package htmldom

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/gosight/gosight/tracker/internal/dom"
)

// Element returns the first element matching selector.
func (w *Window) Element(selector string) (*Element, error) {
	el := w.doc.query(selector)
	if el == nil {
		return nil, fmt.Errorf("no element matches %q", selector)
	}
	return el, nil
}

// DispatchElement sends ev to its target: capture listeners on window and
// document first, then bubble listeners when bubbles is set.
func (w *Window) DispatchElement(ev *dom.Event, bubbles bool) {
	fire(w.listeners.matching(ev.Type, "capture"), ev)
	fire(w.doc.listeners.matching(ev.Type, "capture"), ev)
	if !bubbles {
		return
	}
	fire(w.doc.listeners.matching(ev.Type, "bubble"), ev)
	fire(w.listeners.matching(ev.Type, "bubble"), ev)
}

// DispatchDocument sends an event targeted at the document.
func (w *Window) DispatchDocument(ev *dom.Event) {
	fire(w.listeners.matching(ev.Type, "capture"), ev)
	fire(w.doc.listeners.matching(ev.Type, "target"), ev)
	fire(w.listeners.matching(ev.Type, "bubble"), ev)
}

// DispatchWindow sends an event targeted at the window.
func (w *Window) DispatchWindow(ev *dom.Event) {
	fire(w.listeners.matching(ev.Type, "target"), ev)
}

func fire(listeners []dom.Listener, ev *dom.Event) {
	for _, fn := range listeners {
		fn(ev)
	}
}

// SetRect fixes the bounding box reported for the first match of selector.
func (w *Window) SetRect(selector string, r dom.Rect) error {
	el, err := w.Element(selector)
	if err != nil {
		return err
	}
	w.mu.Lock()
	w.rects[el.n] = r
	w.mu.Unlock()
	return nil
}

// SetDocumentHeight changes the scrollable height.
func (w *Window) SetDocumentHeight(h float64) { w.doc.scrollHeight = h }

// Click dispatches a click at the center of the matched element.
func (w *Window) Click(selector string) error {
	el, err := w.Element(selector)
	if err != nil {
		return err
	}
	r := el.Rect()
	x, y := r.X+r.Width/2, r.Y+r.Height/2
	w.DispatchElement(&dom.Event{Type: "mousedown", Target: el, ClientX: x, ClientY: y}, true)
	w.DispatchElement(&dom.Event{
		Type:    "click",
		Target:  el,
		ClientX: x,
		ClientY: y,
		PageX:   x,
		PageY:   y + w.doc.scrollTop,
	}, true)
	return nil
}

// ScrollTo moves the document scroll position and fires scroll.
func (w *Window) ScrollTo(top float64) {
	w.doc.scrollTop = top
	w.DispatchWindow(&dom.Event{Type: "scroll"})
}

// MoveMouse fires a mousemove over the body.
func (w *Window) MoveMouse(x, y float64) {
	var target dom.Element = w.doc.Body()
	w.DispatchElement(&dom.Event{Type: "mousemove", Target: target, ClientX: x, ClientY: y, PageX: x, PageY: y + w.doc.scrollTop}, true)
}

// KeyDown fires a keydown on the matched element.
func (w *Window) KeyDown(selector, key string) error {
	el, err := w.Element(selector)
	if err != nil {
		return err
	}
	w.DispatchElement(&dom.Event{Type: "keydown", Target: el, Key: key, Code: keyCode(key)}, true)
	return nil
}

// Type focuses the matched field, presses each key, sets its value and fires
// input and change.
func (w *Window) Type(selector, value string) error {
	el, err := w.Element(selector)
	if err != nil {
		return err
	}
	w.DispatchElement(&dom.Event{Type: "focusin", Target: el}, true)
	for _, r := range value {
		w.DispatchElement(&dom.Event{Type: "keydown", Target: el, Key: string(r), Code: keyCode(string(r))}, true)
	}
	w.mu.Lock()
	w.values[el.n] = value
	w.mu.Unlock()
	w.DispatchElement(&dom.Event{Type: "input", Target: el}, true)
	w.DispatchElement(&dom.Event{Type: "change", Target: el}, true)
	return nil
}

// Submit fires submit on the matched form.
func (w *Window) Submit(selector string) error {
	el, err := w.Element(selector)
	if err != nil {
		return err
	}
	w.DispatchElement(&dom.Event{Type: "submit", Target: el}, true)
	return nil
}

// Navigate changes the URL without a reload and re-renders the body, the way
// a client-side router does.
func (w *Window) Navigate(u string) {
	w.url = u
	body, ok := w.doc.Body().(*Element)
	if !ok {
		return
	}
	body.setAttr("data-route", u)
	w.notify(dom.MutationRecord{Type: "attributes", Target: body})
}

// Back changes the URL and fires popstate.
func (w *Window) Back(u string) {
	w.url = u
	w.DispatchWindow(&dom.Event{Type: "popstate"})
}

// Mutate appends a text node under the matched element and reports it.
func (w *Window) Mutate(selector, text string) error {
	el, err := w.Element(selector)
	if err != nil {
		return err
	}
	el.n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	w.notify(dom.MutationRecord{Type: "childList", Target: el})
	return nil
}

// SetVisibility changes document.visibilityState and fires visibilitychange.
func (w *Window) SetVisibility(state string) {
	w.doc.visibility = state
	w.DispatchDocument(&dom.Event{Type: "visibilitychange"})
}

// Unload fires beforeunload.
func (w *Window) Unload() { w.DispatchWindow(&dom.Event{Type: "beforeunload"}) }

// Print fires beforeprint.
func (w *Window) Print() { w.DispatchWindow(&dom.Event{Type: "beforeprint"}) }

// Resize changes the viewport and fires resize.
func (w *Window) Resize(width, height float64) {
	w.width, w.height = width, height
	w.DispatchWindow(&dom.Event{Type: "resize"})
}

// Copy selects text inside the matched element and fires copy.
func (w *Window) Copy(selector, text string) error {
	el, err := w.Element(selector)
	if err != nil {
		return err
	}
	w.doc.selection = text
	w.DispatchElement(&dom.Event{Type: "copy", Target: el}, true)
	return nil
}

// RaiseError fires a window error event.
func (w *Window) RaiseError(message, filename string, line, column int) {
	w.DispatchWindow(&dom.Event{Type: "error", Message: message, Filename: filename, Line: line, Column: column})
}

// RejectPromise fires unhandledrejection.
func (w *Window) RejectPromise(reason string) {
	w.DispatchWindow(&dom.Event{Type: "unhandledrejection", Reason: reason})
}

// Media fires a media event (play, pause, ended, timeupdate) on the matched
// element. Media events do not bubble.
func (w *Window) Media(selector, eventType string, currentTime, duration float64) error {
	el, err := w.Element(selector)
	if err != nil {
		return err
	}
	src := el.attr("src")
	w.DispatchElement(&dom.Event{
		Type:   eventType,
		Target: el,
		Media:  &dom.MediaState{Src: src, CurrentTime: currentTime, Duration: duration},
	}, false)
	return nil
}

func keyCode(key string) string {
	if len(key) == 1 {
		c := key[0]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
			return "Key" + strings.ToUpper(key)
		case c >= '0' && c <= '9':
			return "Digit" + key
		case c == ' ':
			return "Space"
		}
		return ""
	}
	return key
}
