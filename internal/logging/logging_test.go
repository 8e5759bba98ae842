package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{name: "defaults valid", config: NewDefaultConfig(), wantErr: false},
		{name: "console format valid", config: Config{Level: "debug", Format: "console"}, wantErr: false},
		{name: "bad format", config: Config{Level: "info", Format: "xml"}, wantErr: true},
		{name: "bad level", config: Config{Level: "loud", Format: "json"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewLoggerRejectsInvalidConfig(t *testing.T) {
	_, err := NewLogger(Config{Level: "info", Format: "pretty"})
	require.Error(t, err)
}

func TestContextFields(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, ContextFields(ctx))

	ctx = WithSessionID(ctx, "sess-1")
	ctx = WithRequestID(ctx, "req-9")
	fields := ContextFields(ctx)
	require.Len(t, fields, 2)
	assert.Equal(t, "session.id", fields[0].Key)
	assert.Equal(t, "request.id", fields[1].Key)
}

func TestContextFieldsFlowThroughLogger(t *testing.T) {
	logger := NewTestLogger()
	ctx := WithSessionID(context.Background(), "sess-42")

	logger.Info(ctx, "handling message")

	entries := logger.All()
	require.Len(t, entries, 1)
	require.Len(t, entries[0].Context, 1)
	assert.Equal(t, "sess-42", entries[0].Context[0].String)
	logger.AssertLogged(t, zapcore.InfoLevel, "handling")
}
