//go:build windows

package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestDebugRaisesLevel(t *testing.T) {
	New("windows-test")
	New("windows-other")
	Debug("windows-test")
	assert.Equal(t, logrus.DebugLevel, loggers["windows-test"].GetLevel())
	assert.Equal(t, logrus.InfoLevel, loggers["windows-other"].GetLevel())
}
