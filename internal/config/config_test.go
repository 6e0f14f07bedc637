package config

import (
	"os"
	"path/filepath"
	"testing"

	"form4qa/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"HTTP_ADDR", "MAX_UPLOAD_MB", "STORE_BACKEND", "DATA_DIR", "LOG_LEVEL", "LOG_FORMAT", "FORM4_HEADER_ROW", "TESTING_CONFIG_FILE"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, int64(20<<20), cfg.HTTP.MaxUploadBytes)
	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, "./data", cfg.Store.DataDir)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Ingest.HeaderRow)
	assert.Equal(t, domain.DefaultTestConfiguration(), cfg.Testing)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", "127.0.0.1:9000")
	t.Setenv("MAX_UPLOAD_MB", "5")
	t.Setenv("STORE_BACKEND", "memory")
	t.Setenv("FORM4_HEADER_ROW", "not-a-number")
	t.Setenv("TESTING_CONFIG_FILE", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.HTTP.Addr)
	assert.Equal(t, int64(5<<20), cfg.HTTP.MaxUploadBytes)
	assert.Equal(t, BackendMemory, cfg.Store.Backend)
	assert.Equal(t, 10, cfg.Ingest.HeaderRow)
}

func TestLoad_TestingConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "testing.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compaction_method: sand\ninclude_ucs: true\nmin_area_for_testing: 50\n"), 0o644))
	t.Setenv("TESTING_CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, domain.CompactionSand, cfg.Testing.CompactionMethod)
	assert.True(t, cfg.Testing.IncludeUCS)
	assert.Equal(t, 50.0, cfg.Testing.MinAreaForTesting)
	// untouched keys keep defaults
	assert.Equal(t, 2, cfg.Testing.MinTestsPerLine)
	assert.Equal(t, 5000.0, cfg.Testing.UCS28DayThreshold)
}

func TestLoad_TestingConfigFileInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("compaction_method: [\n"), 0o644))
	t.Setenv("TESTING_CONFIG_FILE", bad)
	_, err := Load()
	assert.Error(t, err)

	unknown := filepath.Join(dir, "unknown.yaml")
	require.NoError(t, os.WriteFile(unknown, []byte("compaction_method: rubber\n"), 0o644))
	t.Setenv("TESTING_CONFIG_FILE", unknown)
	_, err = Load()
	assert.ErrorIs(t, err, domain.ErrInvalidConfig)

	t.Setenv("TESTING_CONFIG_FILE", filepath.Join(dir, "missing.yaml"))
	_, err = Load()
	assert.Error(t, err)
}
