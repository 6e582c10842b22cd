package fingerprint

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosight/gosight/tracker/internal/dom/htmldom"
)

func TestLocalIsStable(t *testing.T) {
	ctx := context.Background()
	w := htmldom.MustNew(`<html></html>`, htmldom.WithUserAgent("ua-1"))

	a, err := Resolve(ctx, Local{Env: w})
	require.NoError(t, err)
	b, err := Resolve(ctx, Local{Env: htmldom.MustNew(`<p></p>`, htmldom.WithUserAgent("ua-1"))})
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 32)

	c, err := Resolve(ctx, Local{Env: htmldom.MustNew(`<p></p>`, htmldom.WithUserAgent("ua-2"))})
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestResolveFallsBack(t *testing.T) {
	ctx := context.Background()

	id, err := Resolve(ctx, Local{Env: htmldom.MustNew(`<p></p>`, htmldom.Unavailable())})
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Regexp(t, `^anon_[0-9a-f-]{36}$`, id)

	failing := LoaderFunc(func(context.Context) (Agent, error) { return nil, errors.New("blocked") })
	id, err = Resolve(ctx, failing)
	assert.Error(t, err)
	assert.Contains(t, id, "anon_")

	id, err = Resolve(ctx, nil)
	assert.NoError(t, err)
	assert.Contains(t, id, "anon_")
}
