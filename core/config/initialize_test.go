package config

import (
	"io"
	"log"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	tempDir := t.TempDir()
	if _, err := Initialize(tempDir, log.New(io.Discard, "", 0)); err != nil {
		t.Fatal(err)
	}

	// Check that the config is valid
	cfg, err := Load(tempDir)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("OpenHistoryLog", func(t *testing.T) {
		fd, err := cfg.OpenHistoryLog()
		assert.Nil(t, err)
		fd.Close()
	})

	t.Run("ReadHistoryLog", func(t *testing.T) {
		fd, err := cfg.ReadHistoryLog()
		assert.Nil(t, err)
		fd.Close()
	})

	t.Run("HostKeyPem", func(t *testing.T) {
		require.NoError(t, cfg.WriteHostKeyPem([]byte("key material")))

		keyPem, err := cfg.HostKeyPem()
		assert.Nil(t, err)
		assert.Equal(t, []byte("key material"), keyPem)
	})
}

func TestInitializeFsKeepsEdits(t *testing.T) {
	memFs := afero.NewMemMapFs()
	logger := log.New(io.Discard, "", 0)

	_, err := InitializeFs(memFs, logger)
	require.NoError(t, err)

	// Hand edit the config between runs.
	content, err := afero.ReadFile(memFs, ConfigurationName)
	require.NoError(t, err)
	edited := strings.Replace(string(content), "name: gosh", "name: keepme", 1)
	require.NoError(t, afero.WriteFile(memFs, ConfigurationName, []byte(edited), 0600))

	cfg, err := InitializeFs(memFs, logger)
	require.NoError(t, err)
	assert.Equal(t, "keepme", cfg.Name)
}
