package event

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownType is returned by Decode for a type outside the taxonomy.
var ErrUnknownType = errors.New("unknown event type")

var variants = map[Type]func() Event{
	TypeClick:            func() Event { return &Click{} },
	TypeScroll:           func() Event { return &Scroll{} },
	TypePageView:         func() Event { return &PageView{} },
	TypeFormSubmit:       func() Event { return &FormSubmit{} },
	TypeInputChange:      func() Event { return &InputChange{} },
	TypeKeystroke:        func() Event { return &Keystroke{} },
	TypeMouseMove:        func() Event { return &MouseMove{} },
	TypeResize:           func() Event { return &Resize{} },
	TypeVisibilityChange: func() Event { return &VisibilityChange{} },
	TypeError:            func() Event { return &Error{} },
	TypeCustom:           func() Event { return &Custom{} },
	TypeSessionStart:     func() Event { return &SessionStart{} },
	TypeSessionEnd:       func() Event { return &SessionEnd{} },
	TypeRageClick:        func() Event { return &RageClick{} },
	TypeDeadClick:        func() Event { return &DeadClick{} },
	TypeErrorClick:       func() Event { return &ErrorClick{} },
	TypeSearch:           func() Event { return &Search{} },
	TypeShare:            func() Event { return &Share{} },
	TypeOutboundLink:     func() Event { return &OutboundLink{} },
	TypeDownload:         func() Event { return &Download{} },
	TypePrint:            func() Event { return &Print{} },
	TypeCopy:             func() Event { return &Copy{} },
	TypeScrollDepth:      func() Event { return &ScrollDepth{} },
	TypeIdleStart:        func() Event { return &IdleStart{} },
	TypeIdleEnd:          func() Event { return &IdleEnd{} },
	TypeFormAbandon:      func() Event { return &FormAbandon{} },
	TypeMediaPlay:        func() Event { return &Media{} },
	TypeMediaPause:       func() Event { return &Media{} },
	TypeMediaComplete:    func() Event { return &Media{} },
	TypeMediaProgress:    func() Event { return &Media{} },
}

// Known reports whether t is part of the taxonomy.
func Known(t Type) bool {
	_, ok := variants[t]
	return ok
}

// Decode parses a JSON-encoded event into its concrete variant.
func Decode(data []byte) (Event, error) {
	var head struct {
		Type Type `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	newFn, ok := variants[head.Type]
	if !ok {
		return nil, fmt.Errorf("decode event %q: %w", head.Type, ErrUnknownType)
	}
	e := newFn()
	if err := json.Unmarshal(data, e); err != nil {
		return nil, fmt.Errorf("decode %s event: %w", head.Type, err)
	}
	return e, nil
}

// DecodeAll decodes a list of raw events, stopping at the first failure.
func DecodeAll(raw []json.RawMessage) ([]Event, error) {
	events := make([]Event, 0, len(raw))
	for _, r := range raw {
		e, err := Decode(r)
		if err != nil {
			return events, err
		}
		events = append(events, e)
	}
	return events, nil
}

// EncodeAll marshals each event separately.
func EncodeAll(events []Event) ([]json.RawMessage, error) {
	raw := make([]json.RawMessage, 0, len(events))
	for _, e := range events {
		data, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("encode %s event: %w", e.Envelope().Type, err)
		}
		raw = append(raw, data)
	}
	return raw, nil
}
