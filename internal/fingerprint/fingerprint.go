// Package fingerprint resolves a stable visitor id.
package fingerprint

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/gosight/gosight/tracker/internal/dom"
)

var ErrUnavailable = errors.New("fingerprint: environment unavailable")

// Result is a resolved visitor id.
type Result struct {
	VisitorID  string
	Confidence float64
}

// Agent computes fingerprints.
type Agent interface {
	Get(ctx context.Context) (Result, error)
}

// Loader prepares an Agent. Loading may be slow, e.g. when it fetches a
// remote script in a browser.
type Loader interface {
	Load(ctx context.Context) (Agent, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context) (Agent, error)

func (f LoaderFunc) Load(ctx context.Context) (Agent, error) { return f(ctx) }

// Resolve loads an agent and asks it for a visitor id. Any failure yields a
// random "anon_" id; the error is returned alongside it for logging.
func Resolve(ctx context.Context, loader Loader) (string, error) {
	if loader == nil {
		return Fallback(), nil
	}
	agent, err := loader.Load(ctx)
	if err != nil {
		return Fallback(), err
	}
	res, err := agent.Get(ctx)
	if err != nil {
		return Fallback(), err
	}
	if res.VisitorID == "" {
		return Fallback(), errors.New("fingerprint: empty visitor id")
	}
	return res.VisitorID, nil
}

// Fallback returns a random anonymous id.
func Fallback() string {
	return "anon_" + uuid.NewString()
}

// Local hashes stable traits of the environment.
type Local struct {
	Env dom.Environment
}

func (l Local) Load(ctx context.Context) (Agent, error) {
	if l.Env == nil || !l.Env.Available() {
		return nil, ErrUnavailable
	}
	return l, ctx.Err()
}

func (l Local) Get(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	traits := []string{
		l.Env.UserAgent(),
		l.Env.Language(),
		strconv.FormatFloat(l.Env.InnerWidth(), 'f', 0, 64),
		strconv.FormatFloat(l.Env.InnerHeight(), 'f', 0, 64),
	}
	sum := sha256.Sum256([]byte(strings.Join(traits, "|")))
	return Result{VisitorID: hex.EncodeToString(sum[:16]), Confidence: 0.5}, nil
}
