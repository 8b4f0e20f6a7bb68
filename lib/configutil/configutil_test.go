package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl string `json:"base_url"`
	Timeout int    `json:"timeout"`
}

func TestLoadMissing(t *testing.T) {
	_, err := Load[testConfig](filepath.Join(t.TempDir(), "nope.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	err := os.WriteFile(path, []byte(`{base_url: "http://example.com", timeout: 10}`), 0644)
	require.NoError(t, err)

	config, err := Load[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "http://example.com", config.BaseUrl)
	require.Equal(t, 10, config.Timeout)
}

func TestLoadLocalOverride(t *testing.T) {
	dir := t.TempDir()
	err := os.WriteFile(
		filepath.Join(dir, "config.json5"),
		[]byte(`{base_url: "http://example.com", timeout: 10}`),
		0644,
	)
	require.NoError(t, err)
	err = os.WriteFile(
		filepath.Join(dir, "config.local.json5"),
		[]byte(`{base_url: "http://localhost:8000"}`),
		0644,
	)
	require.NoError(t, err)

	config, err := Load[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8000", config.BaseUrl)
	require.Equal(t, 10, config.Timeout)
}
