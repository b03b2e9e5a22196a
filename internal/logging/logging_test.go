// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/label-organizer/pkg/types"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(types.LogConfig{Level: "debug", Format: "json"}, &buf)

	log.Debug().Str("label", "KS-100").Msg("pair filed")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "KS-100", entry["label"])
	assert.Equal(t, "label-organizer", entry["service"])
}

func TestNew_LevelFiltering(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantLog bool
	}{
		{name: "default is info", level: "", wantLog: false},
		{name: "unknown falls back to info", level: "chatty", wantLog: false},
		{name: "debug enabled", level: "DEBUG", wantLog: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(types.LogConfig{Level: tt.level, Format: "json"}, &buf)
			log.Debug().Msg("detail")
			assert.Equal(t, tt.wantLog, buf.Len() > 0)
		})
	}
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log := New(types.LogConfig{}, &buf)
	log.Info().Msg("ready")
	assert.Contains(t, buf.String(), "ready")
	assert.False(t, json.Valid(buf.Bytes()))
}
