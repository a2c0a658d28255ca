package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadCredentials_RequiresTwoNonEmptyLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.txt")
	require.NoError(t, os.WriteFile(path, []byte("onlyone\n"), 0o644))

	_, err := LoadCredentials(path)
	assert.Error(t, err)
}

func TestLoadCredentials_Success(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.txt")
	require.NoError(t, os.WriteFile(path, []byte("sharedkey123\n\nadvisorkey456\n"), 0o644))

	creds, err := LoadCredentials(path)
	require.NoError(t, err)
	assert.Equal(t, "sharedkey123", creds.SharedKey)
	assert.Equal(t, "advisorkey456", creds.AdvisorAPIKey)
}

func TestQueueConfig_DurationParsing(t *testing.T) {
	q := QueueConfig{PollInterval: "not-a-duration", PauseSleep: "not-a-duration"}
	assert.Equal(t, 200*1000000, int(q.Poll()))
	assert.Equal(t, 3000*1000000, int(q.Pause()))
}
