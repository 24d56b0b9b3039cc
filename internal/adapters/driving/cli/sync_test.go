package cli

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSyncCmd_Use(t *testing.T) {
	assert.Equal(t, "sync [source-id]", syncCmd.Use)
}

func TestSyncCmd_AcceptsMaxOneArg(t *testing.T) {
	_, _, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("sync", "hub", "extra-arg")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "accepts at most 1 arg(s)")
}

func TestSyncCmd_ErrorsWithoutServices(t *testing.T) {
	oldSyncer := catalogSyncer
	catalogSyncer = nil
	defer func() { catalogSyncer = oldSyncer }()

	_, err := executeCommand("sync")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestSyncCmd_AllSources(t *testing.T) {
	syncer, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("sync")

	assert.NoError(t, err)
	assert.Equal(t, 1, syncer.allCalls)
	assert.Contains(t, out, "Synchronising all sources...")
	assert.Contains(t, out, "Added 2, updated 1, unchanged 3")
}

func TestSyncCmd_SingleSource(t *testing.T) {
	syncer, _, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("sync", "hub")

	assert.NoError(t, err)
	assert.Equal(t, "hub", syncer.lastSource)
	assert.Zero(t, syncer.allCalls)
	assert.Contains(t, out, "Synchronising source: hub...")
	assert.Contains(t, out, "Added 2, updated 1, unchanged 3")
}

func TestSyncCmd_ReportsFileErrors(t *testing.T) {
	syncer, _, cleanup := setupTestServices()
	defer cleanup()
	syncer.result.Errors = 4
	syncer.result.Deleted = 1

	out, err := executeCommand("sync")

	assert.NoError(t, err)
	assert.Contains(t, out, "pruned 1")
	assert.Contains(t, out, "4 errors")
}

func TestSyncCmd_ReportsSourceFailures(t *testing.T) {
	syncer, _, cleanup := setupTestServices()
	defer cleanup()
	syncer.result.Success = false

	out, err := executeCommand("sync")

	assert.NoError(t, err)
	assert.Contains(t, out, "One or more sources failed")
}

func TestSyncCmd_PropagatesError(t *testing.T) {
	syncer, _, cleanup := setupTestServices()
	defer cleanup()
	syncer.result = nil
	syncer.err = errors.New("listing blew up")

	_, err := executeCommand("sync", "hub")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "listing blew up")
}
