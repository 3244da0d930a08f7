package configutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	ApiKey     string `json:"api_key"`
	BaseApiUrl string `json:"base_api_url"`
	Timeout    int    `json:"timeout"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "scrapeless.json5")

	_, err := ReadConfig[testConfig](name)
	require.True(t, errors.Is(err, os.ErrNotExist))

	err = os.WriteFile(name, []byte(`{
		// comments and trailing commas are allowed
		"api_key": "from-default",
		"base_api_url": "https://api.example.test",
		"timeout": 30,
	}`), 0600)
	require.NoError(t, err)

	cfg, err := ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, testConfig{
		ApiKey:     "from-default",
		BaseApiUrl: "https://api.example.test",
		Timeout:    30,
	}, cfg)

	err = os.WriteFile(
		filepath.Join(dir, "scrapeless.local.json5"),
		[]byte(`{"api_key": "from-local"}`),
		0600,
	)
	require.NoError(t, err)

	cfg, err = ReadConfig[testConfig](name)
	require.NoError(t, err)
	require.Equal(t, "from-local", cfg.ApiKey)
	require.Equal(t, "https://api.example.test", cfg.BaseApiUrl)
	require.Equal(t, 30, cfg.Timeout)
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, "a/b/telemetry.local.json5", localPath("a/b/telemetry.json5"))
	require.Equal(t, "config.local", localPath("config"))
}
