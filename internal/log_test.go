package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected LogLevel
	}{
		{"ERROR", LogLevelError},
		{"warn", LogLevelWarn},
		{" DEBUG ", LogLevelDebug},
		{"TRACE", LogLevelTrace},
		{"", LogLevelInfo},
		{"verbose", LogLevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseLogLevel(tt.input))
		})
	}
}

func TestNopLoggerAcceptsEverything(t *testing.T) {
	l := NewNopLogger().With("component", "test")
	l.Error("e %d", 1)
	l.Warn("w")
	l.Info("i")
	l.Debug("d")
	l.Trace("t")
	assert.Equal(t, LogLevelError, l.GetLevel())
}
