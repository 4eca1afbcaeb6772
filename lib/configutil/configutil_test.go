package configutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port     int    `json:"port"`
	Database string `json:"database"`
	Nested   struct {
		Selector string `json:"selector"`
	} `json:"nested"`
}

type validatedConfig struct {
	Port int `json:"port"`
}

func (c *validatedConfig) Validate() error {
	if c.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func write(t testing.TB, path, contents string) {
	err := os.WriteFile(path, []byte(contents), 0600)
	if err != nil {
		t.Fatal(err)
	}
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "config.json5"), `{
		// comments are allowed
		port: 8000,
		database: "dividend.db",
		nested: { selector: "table.a" },
	}`)
	write(t, filepath.Join(dir, "config.local.json5"), `{ port: 9000 }`)

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, 9000, cfg.Port)
	require.Equal(t, "dividend.db", cfg.Database)
	require.Equal(t, "table.a", cfg.Nested.Selector)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestReadConfigValidates(t *testing.T) {
	dir := t.TempDir()
	write(t, filepath.Join(dir, "config.json5"), `{ port: 0 }`)

	_, err := ReadConfig[validatedConfig](filepath.Join(dir, "config.json5"))
	require.ErrorContains(t, err, "port must be positive")
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0777))
	write(t, filepath.Join(root, "settings.json5"), `{ port: 1234 }`)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	defer os.Chdir(wd)

	cfg, err := ReadRecursively[testConfig]("settings.json5")
	require.NoError(t, err)
	require.Equal(t, 1234, cfg.Port)

	_, err = ReadRecursively[testConfig]("does-not-exist.json5")
	require.True(t, os.IsNotExist(err))
}
