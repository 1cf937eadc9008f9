package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLogger(t *testing.T) {
	lg := New("logging-test")
	assert.NotNil(t, lg)
	assert.NotPanics(t, func() {
		lg.Debugf("hidden %d", 1)
		Debug("logging-test", "not-registered")
		lg.Debugf("shown %d", 2)
	})
}
