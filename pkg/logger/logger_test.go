package logger

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew(t *testing.T) {
	t.Run("production logs JSON", func(t *testing.T) {
		log := New("debug", "production")
		assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)
		assert.Equal(t, logrus.DebugLevel, log.GetLevel())
	})

	t.Run("unknown level falls back to info", func(t *testing.T) {
		log := New("loud", "development")
		assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
		assert.Equal(t, logrus.InfoLevel, log.GetLevel())
	})
}
