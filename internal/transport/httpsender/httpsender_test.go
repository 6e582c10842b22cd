package httpsender

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosight/gosight/tracker/internal/transport"
)

func TestSendPostsJSON(t *testing.T) {
	var gotMethod, gotType, gotKey, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		gotKey = r.Header.Get("X-Project-Key")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := New(srv.URL, "pk_live", srv.Client())
	err := s.Send(context.Background(), transport.Message{Body: []byte(`{"events":[]}`)})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "pk_live", gotKey)
	assert.Equal(t, `{"events":[]}`, gotBody)
}

func TestSendNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	s := New(srv.URL, "pk", srv.Client())
	err := s.Send(context.Background(), transport.Message{Body: []byte(`{}`)})
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, "bad key", statusErr.Body)
}

func TestConfigureSwitchesEndpoint(t *testing.T) {
	var mu sync.Mutex
	hits := map[string]int{}
	mk := func(name string) *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			hits[name+":"+r.Header.Get("X-Project-Key")]++
			mu.Unlock()
		}))
	}
	a, b := mk("a"), mk("b")
	defer a.Close()
	defer b.Close()

	s := New(a.URL, "k1", nil)
	require.NoError(t, s.Send(context.Background(), transport.Message{Body: []byte(`{}`)}))
	s.Configure(b.URL, "k2")
	require.NoError(t, s.Send(context.Background(), transport.Message{Body: []byte(`{}`)}))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{"a:k1": 1, "b:k2": 1}, hits)
}

func TestSendTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := New(url, "pk", nil).Send(context.Background(), transport.Message{Body: []byte(`{}`)})
	assert.Error(t, err)
}
