package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWriterSplitsLines(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	w := NewWriter(zap.New(core), zapcore.InfoLevel)

	n, err := w.Write([]byte("Updating (dev)\n\n   + network created\r\npart"))
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	var messages []string
	for _, e := range logs.All() {
		messages = append(messages, e.Message)
		assert.Equal(t, zapcore.InfoLevel, e.Level)
	}
	assert.Equal(t, []string{"Updating (dev)", "   + network created"}, messages)

	_, err = w.Write([]byte("ial line\n"))
	require.NoError(t, err)
	assert.Equal(t, "partial line", logs.All()[2].Message)
}

func TestWriterFlush(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	w := NewWriter(zap.New(core), zapcore.WarnLevel)

	_, err := w.Write([]byte("no newline"))
	require.NoError(t, err)
	assert.Equal(t, 0, logs.Len())

	w.Flush()
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "no newline", logs.All()[0].Message)
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)

	w.Flush()
	assert.Equal(t, 1, logs.Len())
}

func TestWriterRespectsLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	w := NewWriter(zap.New(core), zapcore.DebugLevel)

	_, err := w.Write([]byte("hidden\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, logs.Len())
}

func TestEncoder(t *testing.T) {
	tests := []struct {
		name    string
		opts    LogOpts
		wantErr bool
	}{
		{name: "default", opts: LogOpts{Color: "never"}},
		{name: "console", opts: LogOpts{Encoding: "console", Color: "always"}},
		{name: "json", opts: LogOpts{Encoding: "json"}},
		{name: "json verbose", opts: LogOpts{Encoding: "json", Verbose: true}},
		{name: "unknown", opts: LogOpts{Encoding: "logfmt"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := tt.opts.Encoder()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, enc)
		})
	}
}

func TestNewCoreLevel(t *testing.T) {
	var buf bytes.Buffer

	core, err := LogOpts{Encoding: "json"}.NewCore(zapcore.AddSync(&buf))
	require.NoError(t, err)
	logger := zap.New(core)
	logger.Debug("quiet")
	logger.Info("loud")
	assert.NotContains(t, buf.String(), "quiet")
	assert.Contains(t, buf.String(), `"msg":"loud"`)

	buf.Reset()
	core, err = LogOpts{Encoding: "json", Verbose: true}.NewCore(zapcore.AddSync(&buf))
	require.NoError(t, err)
	zap.New(core).Debug("quiet")
	assert.Contains(t, buf.String(), "quiet")
}
