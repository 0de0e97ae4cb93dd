// MIT License
//
// Copyright (c) 2024-2026 Lockstep Team
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package log

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// extractField pulls a top-level string field out of the last JSON log line.
func extractField(t *testing.T, raw []byte, field string) string {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(raw), []byte("\n"))
	require.NotEmpty(t, lines)
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &m))
	var value string
	require.NoError(t, json.Unmarshal(m[field], &value))
	return value
}

func TestZapLogger(t *testing.T) {
	t.Run("With info level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		require.Equal(t, InfoLevel, logger.LogLevel())

		logger.Info("engine started")
		assert.Equal(t, "engine started", extractField(t, buffer.Bytes(), "msg"))
		assert.Equal(t, "info", extractField(t, buffer.Bytes(), "level"))
	})

	t.Run("With formatted messages", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(DebugLevel, buffer)
		require.Equal(t, DebugLevel, logger.LogLevel())

		logger.Debugf("phase %d started", 3)
		assert.Equal(t, "phase 3 started", extractField(t, buffer.Bytes(), "msg"))

		logger.Warnf("element %s suspended", "cells[1]")
		assert.Equal(t, "element cells[1] suspended", extractField(t, buffer.Bytes(), "msg"))

		logger.Errorf("run failed: %v", "boom")
		assert.Equal(t, "run failed: boom", extractField(t, buffer.Bytes(), "msg"))
		assert.Equal(t, "error", extractField(t, buffer.Bytes(), "level"))
	})

	t.Run("With level filtering", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(ErrorLevel, buffer)

		logger.Info("dropped")
		logger.Debug("dropped")
		assert.Zero(t, buffer.Len())

		logger.Error("kept")
		assert.Positive(t, buffer.Len())
	})

	t.Run("With structured fields", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)

		logger.With("component", "cells", "workers", 4).Info("registered")

		var m map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(bytes.TrimSpace(buffer.Bytes()), &m))
		require.Contains(t, m, "component")
		require.Contains(t, m, "workers")
		assert.Equal(t, "registered", extractField(t, buffer.Bytes(), "msg"))
	})

	t.Run("With empty With", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		assert.Equal(t, logger, logger.With())
	})

	t.Run("With non-string keys skipped", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		sub := logger.With(42, "ignored")
		assert.Equal(t, logger, sub)
	})

	t.Run("With log output", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		outputs := logger.LogOutput()
		require.Len(t, outputs, 1)
		assert.Equal(t, buffer, outputs[0])
	})

	t.Run("With flush on non-file outputs", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		logger.Info("before flush")
		require.NoError(t, logger.Flush())
	})

	t.Run("With std logger", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		std := logger.StdLogger()
		require.NotNil(t, std)
		std.Println("via std logger")
		assert.Equal(t, "via std logger", extractField(t, buffer.Bytes(), "msg"))
	})

	t.Run("With panic level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		logger := NewZap(InfoLevel, buffer)
		assert.Panics(t, func() { logger.Panic("boom") })
		assert.Panics(t, func() { logger.Panicf("boom %d", 2) })
	})
}

func TestLevelString(t *testing.T) {
	assert.Equal(t, "INFO", InfoLevel.String())
	assert.Equal(t, "WARNING", WarningLevel.String())
	assert.Equal(t, "ERROR", ErrorLevel.String())
	assert.Equal(t, "FATAL", FatalLevel.String())
	assert.Equal(t, "PANIC", PanicLevel.String())
	assert.Equal(t, "DEBUG", DebugLevel.String())
	assert.Empty(t, InvalidLevel.String())
	assert.Empty(t, Disabled.String())
}
