package simulate

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gosight/gosight/tracker/internal/event"
	"github.com/gosight/gosight/tracker/internal/wire"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Write prints res. The text format is one aligned line per event with its
// offset from the start of the run; the json format is one wire record per
// line.
func Write(w io.Writer, res *Result, format string) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, res)
	case "", FormatText:
		return writeText(w, res)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func writeJSON(w io.Writer, res *Result) error {
	enc := json.NewEncoder(w)
	for _, e := range res.Events {
		rec, err := wire.Flatten(e)
		if err != nil {
			return err
		}
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func writeText(w io.Writer, res *Result) error {
	name := res.Scenario
	if name == "" {
		name = "scenario"
	}
	fmt.Fprintf(w, "%s: session %s, visitor %s\n", name, res.SessionID, res.UserID)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	start := res.Start.UnixMilli()
	for _, e := range res.Events {
		b := e.Envelope()
		fmt.Fprintf(tw, "+%dms\t%s\t%s\n", b.Timestamp-start, b.Type, Describe(e))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d events captured, %d delivered in %d batches, %d undelivered\n",
		len(res.Events), res.Delivered, res.Batches, res.Dropped)
	return err
}

// Describe summarizes the fields that matter for each event type.
func Describe(e event.Event) string {
	switch v := e.(type) {
	case *event.Click:
		return v.Element.Selector
	case *event.RageClick:
		return fmt.Sprintf("%s x%d", v.Element.Selector, v.ClickCount)
	case *event.DeadClick:
		return fmt.Sprintf("%s expected=%s", v.Element.Selector, v.ExpectedBehavior)
	case *event.ErrorClick:
		return fmt.Sprintf("%s -> %s (%s, %dms)", v.Element.Selector, v.ErrorMessage, v.ErrorCategory, v.TimeToErrorMs)
	case *event.Scroll:
		return fmt.Sprintf("%.0f%%", v.ScrollPercentage)
	case *event.ScrollDepth:
		return fmt.Sprintf("%d%% after %dms", v.Depth, v.TimeToReachMs)
	case *event.PageView:
		return fmt.Sprintf("%s referrer=%q", v.Path, v.Referrer)
	case *event.SessionStart:
		return fmt.Sprintf("source=%s new=%t", v.TrafficSource, v.IsNewVisitor)
	case *event.SessionEnd:
		return fmt.Sprintf("%s after %dms, bounce=%t", v.ExitType, v.DurationMs, v.IsBounce)
	case *event.FormSubmit:
		return fmt.Sprintf("%s (%d fields)", v.FormID, v.FieldCount)
	case *event.FormAbandon:
		return fmt.Sprintf("%s %d/%d fields", v.FormID, v.CompletedFields, v.TotalFields)
	case *event.Search:
		return fmt.Sprintf("%q via %s", v.Query, v.Trigger)
	case *event.Error:
		return v.Message
	case *event.Custom:
		return v.Name
	case *event.IdleEnd:
		return fmt.Sprintf("%dms", v.IdleDuration)
	case *event.OutboundLink:
		return v.TargetHost
	case *event.Download:
		return v.FileName
	case *event.Share:
		return v.Platform
	case *event.Media:
		if v.Progress > 0 {
			return fmt.Sprintf("%s %d%%", v.MediaType, v.Progress)
		}
		return v.MediaType
	case *event.Keystroke:
		return v.Key
	case *event.InputChange:
		return fmt.Sprintf("%s len=%d", v.FieldName, v.ValueLength)
	case *event.VisibilityChange:
		return v.VisibilityState
	}
	return ""
}
