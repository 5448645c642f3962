package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newWithOutput(&buf, "debug", "json")

	log.WithField("item_id", "1").Info("catalog saved")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "catalog saved", entry["msg"])
	assert.Equal(t, "1", entry["item_id"])
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	log := newWithOutput(&bytes.Buffer{}, "loud", "text")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
