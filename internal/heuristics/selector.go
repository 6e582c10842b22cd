// Package heuristics holds the detectors that infer higher-level behavior
// from raw events. Every detector owns its state and takes the current time
// as an argument, so a detector can be replayed against a fixed event
// sequence without a clock.
package heuristics

import (
	"fmt"
	"strings"

	"github.com/gosight/gosight/tracker/internal/dom"
)

// SelectorFor derives the key used to group events by element: "#id" when the
// element has an id, otherwise "tag.class1.class2", with ":nth-child(n)"
// appended when an earlier sibling has the same tag and classes.
func SelectorFor(el dom.Element) string {
	if el == nil {
		return ""
	}
	if id := el.ID(); id != "" {
		return "#" + id
	}

	var b strings.Builder
	b.WriteString(el.TagName())
	for _, c := range el.Classes() {
		b.WriteByte('.')
		b.WriteString(c)
	}
	sel := b.String()

	parent := el.Parent()
	if parent == nil {
		return sel
	}
	earlierMatch := false
	for i, sib := range parent.Children() {
		if sib == el {
			if earlierMatch {
				return fmt.Sprintf("%s:nth-child(%d)", sel, i+1)
			}
			return sel
		}
		if sameCompound(sib, el) {
			earlierMatch = true
		}
	}
	return sel
}

func sameCompound(a, b dom.Element) bool {
	if a.TagName() != b.TagName() {
		return false
	}
	ac, bc := a.Classes(), b.Classes()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if ac[i] != bc[i] {
			return false
		}
	}
	return true
}
