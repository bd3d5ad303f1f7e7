// Copyright 2025 The NMO Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewJSONLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	logger, err := New(buf, "info", FormatJSON)
	require.NoError(t, err)

	logger.Debug().Msg("dropped")
	logger.Info().Str("file", "a.nmo").Msg("loaded")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	require.Equal(t, "loaded", entry["message"])
	require.Equal(t, "a.nmo", entry["file"])
}

func TestNewPlainLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	logger, err := New(buf, "warn", FormatPlain)
	require.NoError(t, err)

	logger.Info().Msg("dropped")
	logger.Warn().Msg("watch out")

	out := buf.String()
	require.Contains(t, out, "WARN")
	require.Contains(t, out, "watch out")
	require.NotContains(t, out, "dropped")
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(new(bytes.Buffer), "loud", FormatPlain)
	require.Error(t, err)
	_, err = New(new(bytes.Buffer), "info", "xml")
	require.Error(t, err)
}
