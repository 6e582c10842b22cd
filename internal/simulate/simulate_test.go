package simulate

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosight/gosight/tracker/internal/event"
	"github.com/gosight/gosight/tracker/internal/storage"
	"github.com/gosight/gosight/tracker/internal/transport"
	"github.com/gosight/gosight/tracker/internal/wire"
)

const shopPage = `<html><head><title>Shop</title></head><body>
<button id="buy">Buy</button>
<span class="price">10</span>
<form id="search"><input type="search" name="q"><button type="submit">Go</button></form>
</body></html>`

const checkout = `
name: checkout
url: https://shop.test/?utm_source=google&utm_medium=cpc
document_height: 2800
viewport: {width: 1280, height: 800}
tracker:
  batch_size: 100
rules:
  - selector: "#buy"
    name: buy_clicked
steps:
  - action: click
    selector: "#buy"
  - action: click
    selector: span.price
    repeat: 3
    duration: 200ms
  - action: advance
    duration: 1s
  - action: scroll
    top: 2000
  - action: advance
    duration: 100ms
  - action: type
    selector: input[name=q]
    value: shoes
  - action: submit
    selector: "#search"
  - action: custom
    name: order_converted
  - action: unload
`

func parse(t *testing.T, doc string) *Scenario {
	t.Helper()
	sc, err := Parse([]byte(doc))
	require.NoError(t, err)
	sc.Page = shopPage
	return sc
}

func types(events []event.Event) map[event.Type]int {
	out := make(map[event.Type]int)
	for _, e := range events {
		out[e.Envelope().Type]++
	}
	return out
}

func TestParseAppliesTrackerDefaults(t *testing.T) {
	sc := parse(t, checkout)
	assert.Equal(t, "checkout", sc.Name)
	assert.Equal(t, 100, sc.Tracker.BatchSize)
	assert.True(t, sc.Tracker.TrackClicks)
	assert.Equal(t, "pk_simulated", sc.Tracker.APIKey)
	require.Len(t, sc.Steps, 9)
	assert.Equal(t, 3, sc.Steps[1].Repeat)
	assert.Equal(t, "200ms", sc.Steps[1].Duration.String())
	require.Len(t, sc.Rules, 1)
	assert.Equal(t, "buy_clicked", sc.Rules[0].Name)
}

func TestParseRejectsUnknownAction(t *testing.T) {
	_, err := Parse([]byte("steps:\n  - action: teleport\n"))
	assert.ErrorContains(t, err, `unknown action "teleport"`)
}

func TestRunCheckout(t *testing.T) {
	res, err := Run(context.Background(), parse(t, checkout), Options{Logger: zerolog.Nop()})
	require.NoError(t, err)

	got := types(res.Events)
	assert.Equal(t, 1, got[event.TypeSessionStart])
	assert.Equal(t, 1, got[event.TypeRageClick])
	assert.Equal(t, 3, got[event.TypeDeadClick])
	assert.Equal(t, 2, got[event.TypeCustom])
	assert.Equal(t, 1, got[event.TypeSearch])
	assert.Equal(t, 4, got[event.TypeScrollDepth])
	assert.Equal(t, 1, got[event.TypeSessionEnd])

	for _, e := range res.Events {
		if start, ok := e.(*event.SessionStart); ok {
			assert.Equal(t, event.TrafficPaid, start.TrafficSource)
		}
		if end, ok := e.(*event.SessionEnd); ok {
			assert.True(t, end.Converted)
			assert.Equal(t, event.ExitUnload, end.ExitType)
		}
	}

	assert.Equal(t, 1, res.Batches)
	assert.Equal(t, len(res.Events), res.Delivered)
	assert.Zero(t, res.Dropped)
	assert.Regexp(t, `^sess_`, res.SessionID)
	assert.NotEmpty(t, res.UserID)
}

type downSender struct{}

func (downSender) Send(context.Context, transport.Message) error { return errors.New("offline") }
func (downSender) Close() error                                  { return nil }

func TestRunPersistsWhenDeliveryFails(t *testing.T) {
	store := storage.NewMemory()
	res, err := Run(context.Background(), parse(t, checkout), Options{Sender: downSender{}, Store: store, Logger: zerolog.Nop()})
	require.NoError(t, err)

	assert.Zero(t, res.Delivered)
	assert.Equal(t, len(res.Events), res.Dropped)
	n, err := store.Size(context.Background())
	require.NoError(t, err)
	assert.Equal(t, len(res.Events), n)
}

func TestRunReportsFailingStep(t *testing.T) {
	sc := parse(t, "steps:\n  - action: advance\n    duration: 1s\n  - action: click\n    selector: '#missing'\n")
	_, err := Run(context.Background(), sc, Options{Logger: zerolog.Nop()})
	assert.ErrorContains(t, err, "step 2 (click)")
}

func TestLoadResolvesPageFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop.html"), []byte(shopPage), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "visit.yaml"), []byte("page_file: shop.html\nsteps:\n  - action: click\n    selector: '#buy'\n"), 0o644))

	sc, err := Load(filepath.Join(dir, "visit.yaml"))
	require.NoError(t, err)
	assert.Contains(t, sc.Page, `id="buy"`)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.yaml"), []byte("name: nothing\n"), 0o644))
	_, err = Load(filepath.Join(dir, "empty.yaml"))
	assert.ErrorIs(t, err, ErrNoPage)
}

func TestWriteText(t *testing.T) {
	res, err := Run(context.Background(), parse(t, checkout), Options{Logger: zerolog.Nop()})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, FormatText))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "checkout: session sess_"))
	assert.Contains(t, out, "span.price x3")
	assert.Contains(t, out, `"shoes" via form_submit`)
	assert.Contains(t, out, "events captured")
}

func TestWriteJSONLines(t *testing.T) {
	res, err := Run(context.Background(), parse(t, checkout), Options{Logger: zerolog.Nop()})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, res, FormatJSON))

	lines := 0
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var rec wire.Record
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		e, err := wire.Unflatten(rec)
		require.NoError(t, err)
		assert.Equal(t, res.Events[lines].Envelope().EventID, e.Envelope().EventID)
		lines++
	}
	assert.Equal(t, len(res.Events), lines)

	assert.Error(t, Write(&buf, res, "xml"))
}

func TestSampleScenario(t *testing.T) {
	t.Setenv("GOSIGHT_ENDPOINT", "")
	t.Setenv("GOSIGHT_API_KEY", "")

	sc, err := Load(filepath.Join("..", "..", "scenarios", "checkout.yaml"))
	require.NoError(t, err)
	res, err := Run(context.Background(), sc, Options{Logger: zerolog.Nop()})
	require.NoError(t, err)

	got := types(res.Events)
	assert.Equal(t, 1, got[event.TypeRageClick])
	assert.Equal(t, 1, got[event.TypeSearch])
	assert.Equal(t, 1, got[event.TypeErrorClick])
	assert.Equal(t, 1, got[event.TypeDownload])
	assert.Equal(t, 1, got[event.TypeIdleStart])
	assert.Equal(t, 1, got[event.TypeIdleEnd])
	assert.Equal(t, 1, got[event.TypeFormAbandon])
	assert.Equal(t, 1, got[event.TypeSessionEnd])

	for _, e := range res.Events {
		switch e := e.(type) {
		case *event.ErrorClick:
			assert.Equal(t, "add-to-cart", e.Element.ID)
			assert.Equal(t, event.ErrorCategoryNetwork, e.ErrorCategory)
			assert.EqualValues(t, 50, e.TimeToErrorMs)
		case *event.IdleEnd:
			assert.EqualValues(t, 13500, e.IdleDuration)
		case *event.FormAbandon:
			assert.Equal(t, "checkout", e.FormID)
			assert.Equal(t, 1, e.CompletedFields)
			assert.Equal(t, 3, e.TotalFields)
			assert.Equal(t, "email", e.LastField)
		case *event.Custom:
			if e.Name == "add_to_cart" {
				assert.Equal(t, "shoe-42", e.Properties["sku"])
			}
		}
	}
}
