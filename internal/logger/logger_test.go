package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr string
		enabled zapcore.Level
	}{
		{name: "json info", level: "info", format: "json", enabled: zapcore.InfoLevel},
		{name: "console debug", level: "DEBUG", format: "console", enabled: zapcore.DebugLevel},
		{name: "empty format defaults to json", level: "warn", enabled: zapcore.WarnLevel},
		{name: "bad level", level: "loud", format: "json", wantErr: "invalid LOG_LEVEL"},
		{name: "bad format", level: "info", format: "xml", wantErr: "invalid LOG_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer zap.ReplaceGlobals(zap.NewNop())

			log, err := New(tt.level, tt.format)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, log)
			assert.True(t, log.Desugar().Core().Enabled(tt.enabled))
			assert.False(t, log.Desugar().Core().Enabled(tt.enabled-1))
			assert.True(t, zap.L().Core().Enabled(tt.enabled))
		})
	}
}
