package session

import (
	"context"
	"errors"
	"regexp"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosight/gosight/tracker/internal/event"
	"github.com/gosight/gosight/tracker/internal/storage"
)

func TestNewID(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	id := NewID(now)
	assert.Regexp(t, regexp.MustCompile(`^sess_[0-9a-z]+_[0-9a-f]{9}$`), id)
	assert.Contains(t, id, "_"+strconv.FormatInt(now.UnixMilli(), 36)+"_")
	assert.NotEqual(t, id, NewID(now))
}

func TestTrafficSource(t *testing.T) {
	cases := []struct {
		name     string
		page     string
		referrer string
		want     event.TrafficSource
	}{
		{"direct", "https://shop.test/", "", event.TrafficDirect},
		{"internal", "https://shop.test/b", "https://shop.test/a", event.TrafficDirect},
		{"organic", "https://shop.test/", "https://www.google.com/search?q=x", event.TrafficOrganic},
		{"social", "https://shop.test/", "https://t.co/abc", event.TrafficSocial},
		{"referral", "https://shop.test/", "https://blog.example.net/post", event.TrafficReferral},
		{"utm paid", "https://shop.test/?utm_source=google&utm_medium=cpc", "https://www.google.com/", event.TrafficPaid},
		{"utm email", "https://shop.test/?utm_source=newsletter", "", event.TrafficEmail},
		{"utm social", "https://shop.test/?utm_source=facebook", "", event.TrafficSocial},
		{"utm organic", "https://shop.test/?utm_source=bing", "", event.TrafficOrganic},
		{"utm other", "https://shop.test/?utm_source=partner-42", "", event.TrafficOther},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Attribute(tc.page, tc.referrer).TrafficSource)
		})
	}
}

func TestAttributeCopiesUTM(t *testing.T) {
	a := Attribute("https://shop.test/?utm_source=nl&utm_medium=email&utm_campaign=spring&utm_term=shoes&utm_content=hero",
		"https://mail.example.com/inbox")
	assert.Equal(t, "nl", a.UTMSource)
	assert.Equal(t, "email", a.UTMMedium)
	assert.Equal(t, "spring", a.UTMCampaign)
	assert.Equal(t, "shoes", a.UTMTerm)
	assert.Equal(t, "hero", a.UTMContent)
	assert.Equal(t, "mail.example.com", a.ReferrerHost)
}

func TestAttributeBadURLs(t *testing.T) {
	a := Attribute("://bad", "::also bad")
	assert.Empty(t, a.UTMSource)
	assert.Empty(t, a.ReferrerHost)
	assert.Equal(t, event.TrafficDirect, a.TrafficSource)
}

func TestResolveReferrerPriority(t *testing.T) {
	doc := "https://google.com/"
	prev := "https://shop.test/cart"

	assert.Equal(t, "newsletter", ResolveReferrer("https://shop.test/?utm_source=newsletter&ref=x", prev, doc))
	assert.Equal(t, "partner", ResolveReferrer("https://shop.test/?ref=partner", prev, doc))
	assert.Equal(t, "blog", ResolveReferrer("https://shop.test/?source=blog", prev, doc))
	assert.Equal(t, prev, ResolveReferrer("https://shop.test/", prev, doc))
	assert.Equal(t, doc, ResolveReferrer("https://shop.test/", "", doc))
	assert.Equal(t, "", ResolveReferrer("https://shop.test/", "", ""))
	assert.Equal(t, prev, ResolveReferrer("://bad", prev, doc))
}

func TestDeviceClass(t *testing.T) {
	desktop := DeviceClass("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.True(t, desktop.IsDesktop)
	assert.False(t, desktop.IsMobile)
	assert.Equal(t, "Chrome", desktop.Browser)

	phone := DeviceClass("Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
	assert.True(t, phone.IsMobile)
	assert.False(t, phone.IsTablet)

	ipad := DeviceClass("Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1")
	assert.True(t, ipad.IsTablet)
	assert.False(t, ipad.IsMobile)

	androidTab := DeviceClass("Mozilla/5.0 (Linux; Android 13; SM-X700) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	assert.True(t, androidTab.IsTablet)
}

type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) { return "", false, errors.New("down") }
func (failingKV) Set(context.Context, string, string) error       { return errors.New("down") }

func TestVisitsTouch(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	v := NewVisits(kv, zerolog.Nop())

	first := time.UnixMilli(1700000000000)
	visit := v.Touch(ctx, first)
	assert.True(t, visit.IsNewVisitor)
	assert.True(t, visit.LastVisitAt.IsZero())

	stored, err := kv.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, stored, "the visit marker is a key, not a pending event")

	visit = v.Touch(ctx, first.Add(time.Hour))
	assert.False(t, visit.IsNewVisitor)
	assert.Equal(t, first.UnixMilli(), visit.LastVisitAt.UnixMilli())

	broken := NewVisits(failingKV{}, zerolog.Nop())
	assert.True(t, broken.Touch(ctx, first).IsNewVisitor)
}

func TestSummarize(t *testing.T) {
	start := time.UnixMilli(1700000000000)
	s := Summarize(Timeline{
		Start:        start,
		LastActivity: start.Add(50 * time.Second),
		End:          start.Add(60 * time.Second),
		TotalIdle:    20 * time.Second,
	}, Counters{PageViews: 1})
	assert.Equal(t, 60*time.Second, s.Duration)
	assert.Equal(t, 30*time.Second, s.ActiveTime)
	assert.True(t, s.IsBounce)

	s = Summarize(Timeline{
		Start:        start,
		LastActivity: start.Add(10 * time.Second),
		End:          start.Add(5 * time.Second),
	}, Counters{PageViews: 2})
	assert.Equal(t, 5*time.Second, s.ActiveTime)
	assert.False(t, s.IsBounce)

	s = Summarize(Timeline{Start: start, LastActivity: start.Add(time.Second), End: start.Add(time.Minute), TotalIdle: time.Hour}, Counters{})
	assert.Zero(t, s.ActiveTime)
}

func TestIsConversion(t *testing.T) {
	assert.True(t, IsConversion("checkout_converted"))
	assert.True(t, IsConversion("Conversion"))
	assert.False(t, IsConversion("add_to_cart"))
}
