package cmd

import (
	"testing"

	"github.com/danielolaszy/release-pr/internal/logging"
	"github.com/stretchr/testify/assert"
)

func TestLogSettings(t *testing.T) {
	tests := []struct {
		name       string
		envLevel   string
		envFormat  string
		level      string
		format     string
		wantLevel  logging.LogLevel
		wantFormat logging.LogFormat
	}{
		{name: "Level flag keeps env format", envLevel: "warn", envFormat: "json", level: "debug", wantLevel: logging.LevelDebug, wantFormat: logging.FormatJSON},
		{name: "Format flag keeps env level", envLevel: "error", envFormat: "text", format: "JSON", wantLevel: logging.LevelError, wantFormat: logging.FormatJSON},
		{name: "Flags override env", envLevel: "error", envFormat: "json", level: "info", format: "text", wantLevel: logging.LevelInfo, wantFormat: logging.FormatText},
		{name: "Nothing set", wantLevel: logging.LevelInfo, wantFormat: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.envLevel)
			t.Setenv("LOG_FORMAT", tt.envFormat)

			level, format := logSettings(tt.level, tt.format)
			assert.Equal(t, tt.wantLevel, level)
			assert.Equal(t, tt.wantFormat, format)
		})
	}
}
