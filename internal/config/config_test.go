package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"SONGDNA_CONFIG", "SONGDNA_DB_PATH", "SONGDNA_UPLOAD_DIR", "SONGDNA_PORT",
		"SONGDNA_THRESHOLD", "SONGDNA_MAX_RESULTS", "SONGDNA_WORKERS",
		"SONGDNA_PYTHON", "SONGDNA_SCRIPT_DIR", "SONGDNA_ALLOWED_ORIGINS", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	// Keep a stray .env in the package dir out of the picture.
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "songdna.sqlite3", cfg.DBPath)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 0.7, cfg.Match.Threshold)
	assert.Equal(t, 5, cfg.Match.MaxResults)
	assert.GreaterOrEqual(t, cfg.Match.Workers, 1)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Equal(t, "python3", cfg.Extractor.Python)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "songdna.yaml")
	yml := `
db_path: /data/catalog.db
port: "9000"
match:
  threshold: 0.5
  max_results: 10
extractor:
  script_dir: /opt/extractor
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))
	t.Setenv("SONGDNA_CONFIG", path)
	t.Setenv("SONGDNA_MAX_RESULTS", "3")
	t.Setenv("SONGDNA_ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/catalog.db", cfg.DBPath)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 0.5, cfg.Match.Threshold)
	assert.Equal(t, 3, cfg.Match.MaxResults)
	assert.Equal(t, "/opt/extractor", cfg.Extractor.ScriptDir)
	assert.Equal(t, "python3", cfg.Extractor.Python)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestLoadDotEnv(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is set, even to "". The
	// t.Setenv in clearEnv restores it afterwards.
	os.Unsetenv("SONGDNA_PORT")
	require.NoError(t, os.WriteFile(".env", []byte("SONGDNA_PORT=7070\n"), 0o644))

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.Port)
}

func TestLoadBadFile(t *testing.T) {
	clearEnv(t)

	t.Setenv("SONGDNA_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("match: [unclosed"), 0o644))
	t.Setenv("SONGDNA_CONFIG", bad)
	_, err = Load()
	assert.Error(t, err)
}

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("SONGDNA_TEST_INT", "notanint")
	t.Setenv("SONGDNA_TEST_FLOAT", "0.25")

	if got := getEnvInt("SONGDNA_TEST_INT", 4); got != 4 {
		t.Errorf("Expected fallback 4, got %d", got)
	}
	if got := getEnvFloat("SONGDNA_TEST_FLOAT", 1); got != 0.25 {
		t.Errorf("Expected 0.25, got %v", got)
	}
	if got := getEnv("SONGDNA_TEST_UNSET", "x"); got != "x" {
		t.Errorf("Expected x, got %q", got)
	}
}
