package core

import (
	"math"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestDefaultSettingsValidate(t *testing.T) {
	settings := DefaultSettings()
	assert.NoError(t, settings.validate())
	assert.Equal(t, 4, settings.Count)
	assert.Equal(t, uint32(log.WarnLevel), settings.LoggingLevel)
}

func TestSettingsNegativeTTL(t *testing.T) {
	settings := DefaultSettings()
	settings.TTL = -1
	assert.Error(t, settings.validate())
}

func TestSettingsZeroTTL(t *testing.T) {
	settings := DefaultSettings()
	settings.TTL = 0
	assert.Error(t, settings.validate())
}

func TestSettingsPositiveTTL(t *testing.T) {
	settings := DefaultSettings()
	settings.TTL = 1
	assert.NoError(t, settings.validate())
}

func TestSettingsTooLargeTTL(t *testing.T) {
	settings := DefaultSettings()
	settings.TTL = 256
	assert.Error(t, settings.validate())
}

func TestSettingsNegativeCount(t *testing.T) {
	settings := DefaultSettings()
	settings.Count = -1
	assert.Error(t, settings.validate())
}

func TestSettingsZeroCount(t *testing.T) {
	settings := DefaultSettings()
	settings.Count = 0
	assert.Error(t, settings.validate())
}

func TestSettingsPositiveCount(t *testing.T) {
	settings := DefaultSettings()
	settings.Count = 5
	assert.NoError(t, settings.validate())
}

// TestSettingsMaxCount checks that the count is bounded by the width of the sequence number
func TestSettingsMaxCount(t *testing.T) {
	settings := DefaultSettings()
	settings.Count = math.MaxUint16
	assert.NoError(t, settings.validate())

	settings.Count = math.MaxUint16 + 1
	err := settings.validate()
	assert.True(t, errors.Is(err, ErrInvalidSettings))
}

func TestSettingsNegativeTimeout(t *testing.T) {
	settings := DefaultSettings()
	settings.Timeout = -time.Second
	assert.Error(t, settings.validate())
}

func TestSettingsZeroTimeout(t *testing.T) {
	settings := DefaultSettings()
	settings.Timeout = 0
	assert.Error(t, settings.validate())
}

func TestSettingsPositiveTimeout(t *testing.T) {
	settings := DefaultSettings()
	settings.Timeout = time.Millisecond
	assert.NoError(t, settings.validate())
}

func TestSettingsUnknownLoggingLevel(t *testing.T) {
	settings := DefaultSettings()
	settings.LoggingLevel = 8
	assert.True(t, errors.Is(settings.validate(), ErrInvalidSettings))
}
