package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_LevelFollowsVerbose(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, false).Debug("hidden")
	New(&buf, false).Info("shown", "run_id", "abc")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `msg=shown run_id=abc`)

	buf.Reset()
	New(&buf, true).Debug("detail")
	assert.Contains(t, buf.String(), "level=DEBUG msg=detail")
}

func TestDiscard(t *testing.T) {
	Discard().Error("dropped")
}
