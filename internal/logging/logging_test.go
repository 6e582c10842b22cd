package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gosight/gosight/tracker/internal/config"
)

func TestLevelFloor(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LogConfig{Enabled: true, Level: "warn"}, &buf)

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), `"component":"tracker"`)
}

func TestDisabled(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LogConfig{Enabled: false, Level: "debug"}, &buf)
	log.Error().Msg("nothing")
	assert.Empty(t, buf.String())
}

func TestUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(config.LogConfig{Enabled: true, Level: "chatty"}, &buf)
	log.Debug().Msg("debug")
	log.Info().Msg("info")
	assert.NotContains(t, buf.String(), `"message":"debug"`)
	assert.Contains(t, buf.String(), `"message":"info"`)
}
