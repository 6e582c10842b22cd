package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeRestoresVariant(t *testing.T) {
	in := &RageClick{
		Base: Base{
			EventID:   "e1",
			Type:      TypeRageClick,
			Timestamp: 1700000000000,
			URL:       "https://shop.example/cart",
			SessionID: "sess_1",
			UserID:    "u1",
		},
		Element:      ElementInfo{TagName: "div", Selector: "div.promo"},
		ClickCount:   3,
		TimeWindowMs: 2000,
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)

	out, err := Decode(data)
	require.NoError(t, err)

	rage, ok := out.(*RageClick)
	require.True(t, ok, "expected *RageClick, got %T", out)
	assert.Equal(t, in, rage)
}

func TestEnvelopeIsFlatInJSON(t *testing.T) {
	data, err := json.Marshal(&Scroll{Base: Base{Type: TypeScroll, SessionID: "s"}, ScrollPercentage: 50})
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Equal(t, "scroll", m["type"])
	assert.Equal(t, "s", m["session_id"])
	assert.Equal(t, 50.0, m["scroll_percentage"])
	assert.NotContains(t, m, "Base")
}

func TestDecodeMediaFamilySharesShape(t *testing.T) {
	for _, typ := range []Type{TypeMediaPlay, TypeMediaPause, TypeMediaComplete, TypeMediaProgress} {
		out, err := Decode([]byte(`{"type":"` + string(typ) + `","media_type":"video","progress":50}`))
		require.NoError(t, err)
		m, ok := out.(*Media)
		require.True(t, ok)
		assert.Equal(t, typ, m.Type)
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode([]byte(`{"type":"teleport"}`))
	assert.ErrorIs(t, err, ErrUnknownType)
	assert.False(t, Known("teleport"))
	assert.True(t, Known(TypeSessionEnd))
}

func TestDecodeAllStopsAtFailure(t *testing.T) {
	raw := []json.RawMessage{
		json.RawMessage(`{"type":"click"}`),
		json.RawMessage(`{"type":"nope"}`),
		json.RawMessage(`{"type":"scroll"}`),
	}
	events, err := DecodeAll(raw)
	require.Error(t, err)
	assert.Len(t, events, 1)
}
