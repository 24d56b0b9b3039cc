package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionCmd_Use(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
}

func TestVersionCmd_PrintsVersion(t *testing.T) {
	oldVersion := version
	version = "1.2.3"
	defer func() { version = oldVersion }()

	out, err := executeCommand("version")

	assert.NoError(t, err)
	assert.Equal(t, "difyrun version 1.2.3\n", out)
}

func TestWatchCmd_ErrorsWithoutScheduler(t *testing.T) {
	oldScheduler := catalogScheduler
	catalogScheduler = nil
	defer func() { catalogScheduler = oldScheduler }()

	_, err := executeCommand("watch")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}
