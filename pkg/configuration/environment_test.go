package configuration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_LoadsExistingFiles(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, ".env.local"), []byte("CARGOFLOW_TEST_ENV_LOAD=ok\n"), 0o644))

	origWd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(origWd) })
	require.NoError(t, os.Chdir(tmp))

	_ = os.Unsetenv("CARGOFLOW_TEST_ENV_LOAD")

	n, err := LoadEnv([]string{".env", ".env.local"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "ok", os.Getenv("CARGOFLOW_TEST_ENV_LOAD"))
}

func TestImportOptions_Validate(t *testing.T) {
	opts := ImportOptions{BatchSize: 25, ErrorCap: 100, SuggestionLimit: 5, Workers: 2}
	require.NoError(t, opts.Validate())

	bad := opts
	bad.BatchSize = 0
	assert.Error(t, bad.Validate())

	bad = opts
	bad.ErrorCap = -1
	assert.Error(t, bad.Validate())

	bad = opts
	bad.Workers = 0
	assert.Error(t, bad.Validate())
}
