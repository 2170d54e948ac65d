package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profile-screener/internal/schema"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "screener.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 100, cfg.Limit)
	assert.Equal(t, 5, cfg.SampleSize)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, []string{"./data"}, cfg.DataDirs)

	th := cfg.ScoreThresholds()
	assert.InDelta(t, 0.5, th.Floor, 1e-9)
	assert.InDelta(t, 0.95, th.Exact, 1e-9)
	assert.InDelta(t, 0.85, th.Group, 1e-9)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
data-dirs:
  - /srv/screening/csv
  - /srv/screening/json
limit: 25
timeout: 45s
thresholds:
  floor: 0.6
  group: 0.9
weights:
  date_of_birth: 2.5
ai:
  enabled: true
  model: gemini-2.0-pro
database:
  dsn: postgres://localhost/screening?sslmode=disable
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/srv/screening/csv", "/srv/screening/json"}, cfg.DataDirs)
	assert.Equal(t, 25, cfg.Limit)
	assert.Equal(t, 45*time.Second, cfg.Timeout)
	assert.InDelta(t, 0.6, cfg.ScoreThresholds().Floor, 1e-9)
	assert.InDelta(t, 0.9, cfg.ScoreThresholds().Group, 1e-9)
	// Unset keys keep their defaults.
	assert.InDelta(t, 0.95, cfg.ScoreThresholds().Exact, 1e-9)

	require.NotNil(t, cfg.AI)
	assert.True(t, cfg.AI.Enabled)
	assert.Equal(t, "gemini-2.0-pro", cfg.AI.Model)
	require.NotNil(t, cfg.Database)
	assert.Equal(t, "postgres://localhost/screening?sslmode=disable", cfg.Database.DSN)

	w, err := cfg.ScoreWeights()
	require.NoError(t, err)
	assert.InDelta(t, 2.5, w[schema.FieldDOB], 1e-9)
	// Untouched fields keep the default table.
	assert.InDelta(t, 2.0, w[schema.FieldName], 1e-9)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SCREENER_LIMIT", "7")
	t.Setenv("SCREENER_THRESHOLDS_FLOOR", "0.75")
	t.Setenv("DATABASE_URL", "postgres://db:5432/screening")
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Limit)
	assert.InDelta(t, 0.75, cfg.ScoreThresholds().Floor, 1e-9)
	require.NotNil(t, cfg.Database)
	assert.Equal(t, "postgres://db:5432/screening", cfg.Database.DSN)
	require.NotNil(t, cfg.AI)
	assert.Equal(t, "test-key", cfg.AI.APIKey)
}

func TestLoadRejectsBadValues(t *testing.T) {
	_, err := Load(writeConfig(t, "thresholds:\n  floor: 1.4\n"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "weights:\n  name: -1\n"))
	require.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestScoreWeightsRejectsUnknownField(t *testing.T) {
	cfg := &Config{Weights: map[string]float64{"shoe_size": 4}}
	_, err := cfg.ScoreWeights()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shoe_size")
}
