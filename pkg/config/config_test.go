package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TOKEN_SECRET_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 3000, cfg.Port)
	assert.Empty(t, cfg.JWT.Secret)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, RecomputeOnRead, cfg.Ratings.RecomputeMode)
	assert.Equal(t, int64(5*1024*1024), cfg.Uploads.MaxFileSizeBytes)
	assert.Equal(t, []string{"image/jpeg", "image/png"}, cfg.Uploads.AllowedMIMEs)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("TOKEN_SECRET_KEY", "s3cret")
	t.Setenv("JWT_EXPIRATION", "30m")
	t.Setenv("RATING_RECOMPUTE_MODE", "WRITE")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 30*time.Minute, cfg.JWT.Expiration)
	assert.Equal(t, RecomputeOnWrite, cfg.Ratings.RecomputeMode)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("nope", time.Minute))
	assert.Equal(t, 2*time.Second, parseDuration("2s", time.Minute))
}

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
