package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("ENABLE_EVENTS", "false")

	ownerFlag, backendFlag, dataFileFlag, dsnFlag = "", "", "", ""
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestScoreCommand(t *testing.T) {
	out, err := run(t, "score", "--step", "1", "first", "I", "measured", "the", "baseline")
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Contains(t, got, "breakdown")

	_, err = run(t, "score", "--step", "9", "text")
	assert.Error(t, err)
}

func TestCommandsRequireOwner(t *testing.T) {
	for _, name := range []string{"stats", "analyze", "export", "clear", "token"} {
		t.Run(name, func(t *testing.T) {
			_, err := run(t, name)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "--owner")
		})
	}
}

func TestClearRequiresConfirmation(t *testing.T) {
	_, err := run(t, "clear", "-o", "alice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestFileBackendRoundTrip(t *testing.T) {
	dataFile := filepath.Join(t.TempDir(), "data.json")

	out, err := run(t, "stats", "-o", "alice", "-b", "file", "-f", dataFile)
	require.NoError(t, err)
	assert.Contains(t, out, "total")

	out, err = run(t, "export", "-o", "alice", "-b", "file", "-f", dataFile)
	require.NoError(t, err)

	var snapshot map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &snapshot))
	assert.Equal(t, "alice", snapshot["owner"])

	out, err = run(t, "clear", "-o", "alice", "-y", "-b", "file", "-f", dataFile)
	require.NoError(t, err)
	assert.Equal(t, "deleted 0 documents\n", out)
}
