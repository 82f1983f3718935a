package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestDecode(t *testing.T) {
	id := int64(1760659200123)<<22 | 5<<12 | 42

	out, err := run(t, "decode", strconv.FormatInt(id, 10))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.EqualValues(t, 1760659200123, got["timestamp"])
	assert.EqualValues(t, 5, got["worker"])
	assert.EqualValues(t, 42, got["sequence"])
	assert.Equal(t, "2025-10-17T00:00:00.123Z", got["time"])
}

func TestDecodeWorkerBits(t *testing.T) {
	id := int64(1000)<<22 | 3<<20 | 7

	out, err := run(t, "decode", "--worker-bits", "2", strconv.FormatInt(id, 10))
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.EqualValues(t, 3, got["worker"])
	assert.EqualValues(t, 7, got["sequence"])
}

func TestDecodeInvalid(t *testing.T) {
	_, err := run(t, "decode", "abc")
	assert.Error(t, err)

	_, err = run(t, "decode", "-5")
	assert.Error(t, err)

	_, err = run(t, "decode", "--worker-bits", "23", "1")
	assert.Error(t, err)

	_, err = run(t, "decode")
	assert.Error(t, err)
}

func TestReleaseMemoryStore(t *testing.T) {
	dir := t.TempDir()
	yaml := "log:\n  level: error\n  output: stderr\nmetrics:\n  enabled: false\nstore:\n  driver: memory\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "leaseflake.yaml"), []byte(yaml), 0o600))

	out, err := run(t, "--config-dir", dir, "release", "orders", "3")
	require.NoError(t, err)
	assert.Equal(t, "snow_flake_worker_orders_3 was not held\n", out)

	_, err = run(t, "--config-dir", dir, "release", "orders", "4096")
	assert.Error(t, err)

	_, err = run(t, "--config-dir", dir, "release", "orders", "x")
	assert.Error(t, err)
}
