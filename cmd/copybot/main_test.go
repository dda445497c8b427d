package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_UsageErrors(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, exitUsage, run(nil, &buf))
	assert.Contains(t, buf.String(), "Usage:")

	buf.Reset()
	assert.Equal(t, exitUsage, run([]string{"scan"}, &buf))
	assert.Contains(t, buf.String(), `unknown command "scan"`)

	assert.Equal(t, exitUsage, run([]string{"trade", "--no-such-flag"}, &buf))
	assert.Equal(t, exitUsage, run([]string{"analyze", "extra"}, &buf))
	assert.Equal(t, exitOK, run([]string{"help"}, &buf))
	assert.Equal(t, exitOK, run([]string{"trade", "-h"}, &buf))
}

func TestRun_MissingConfigIsSetupFailure(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, exitSetup, run([]string{"analyze", "--config", "/nonexistent/config.yaml"}, &buf))
}

func TestEffectiveSampleSize(t *testing.T) {
	assert.Equal(t, 50, effectiveSampleSize(0, false))
	assert.Equal(t, 80, effectiveSampleSize(80, false))
	assert.Equal(t, 500, effectiveSampleSize(50, true))
	assert.Equal(t, 800, effectiveSampleSize(800, true))
	assert.Equal(t, 1000, effectiveSampleSize(5000, false))
}
