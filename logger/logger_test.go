package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew_TeesToExtraWriter(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("production", &buf)
	require.NoError(t, err)

	log.Info("order status updated", zap.String("order_id", "o-1"))
	_ = log.Sync()

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "order status updated", line["msg"])
	assert.Equal(t, "o-1", line["order_id"])
	assert.Equal(t, "info", line["level"])
}

func TestNew_Development(t *testing.T) {
	log, err := New("development", nil)
	require.NoError(t, err)
	assert.NotNil(t, log)
}
