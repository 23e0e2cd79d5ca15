package log

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kochabx/carelink/errors"
	"github.com/kochabx/carelink/log/desensitize"
	"github.com/kochabx/carelink/log/writer"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	return out
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, WithLevel(zerolog.InfoLevel))

	logger.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn().Err(errors.Forbidden("forbidden")).Str("path", "/observations").Msg("request failed")
	out := decode(t, &buf)
	assert.Equal(t, "warn", out["level"])
	assert.Equal(t, "/observations", out["path"])
	assert.Contains(t, out["error"], "code=403")
	assert.NotEmpty(t, out["time"])
}

func TestLoggerWithField(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriter(&buf, WithField("component", "httpclient"))

	logger.Info().Msg("hello")
	assert.Equal(t, "httpclient", decode(t, &buf)["component"])
}

func TestLoggerDesensitize(t *testing.T) {
	var buf bytes.Buffer
	hook := desensitize.NewHook(desensitize.BuiltinRules()...)
	logger := NewWriter(&buf, WithDesensitize(hook))

	logger.Info().Str("body", `{"email":"a@b.io","password":"hunter22"}`).Msg("request")
	out := decode(t, &buf)
	assert.NotContains(t, buf.String(), "hunter22")
	assert.Contains(t, out["body"], `"password":"******"`)

	buf.Reset()
	logger.Info().RawJSON("body", []byte(logger.Redact(`{"token":"abc"}`))).Msg("raw")
	out = decode(t, &buf)
	assert.Equal(t, map[string]any{"token": "******"}, out["body"])
}

func TestRedactWithoutHook(t *testing.T) {
	logger := NewWriter(&bytes.Buffer{})
	assert.Nil(t, logger.Hook())
	assert.Equal(t, `{"password":"x"}`, logger.Redact(`{"password":"x"}`))
}

func TestFileLog(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewFile(FileConfig{
		Filepath:   dir,
		Filename:   "test",
		RotateMode: writer.RotateModeSize,
		LumberjackConfig: LumberjackConfig{
			MaxSize:    1,
			MaxBackups: 1,
		},
	})
	require.NoError(t, err)

	logger.Info().Msg("to file")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestFileLogUnsupportedMode(t *testing.T) {
	_, err := NewFile(FileConfig{Filepath: t.TempDir(), RotateMode: "weekly"})
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	logger, err := FromConfig(Config{Level: "debug"})
	require.NoError(t, err)
	assert.Equal(t, zerolog.DebugLevel, logger.GetLevel())
	assert.NotNil(t, logger.Hook(), "redaction is on by default")

	_, err = FromConfig(Config{Level: "loud"})
	assert.Error(t, err)
}

func TestGlobalLogger(t *testing.T) {
	prev := G
	t.Cleanup(func() { SetGlobalLogger(prev) })

	var buf bytes.Buffer
	SetGlobalLogger(NewWriter(&buf))
	SetGlobalLogger(nil)

	Infof("refresh %s", "succeeded")
	assert.Equal(t, "refresh succeeded", decode(t, &buf)["message"])
}
