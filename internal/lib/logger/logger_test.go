package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger_ProdIsJSONInfo(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(EnvProd, &buf)

	log.Debug("skipped")
	assert.Empty(t, buf.String())

	log.Info("server started")
	var rec map[string]any
	assert.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "server started", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])
}

func TestNewLogger_DevelopmentLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	newLogger(EnvDevelopment, &buf).Debug("details")
	assert.Contains(t, buf.String(), `"msg":"details"`)
}
