package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "")
	t.Setenv("PORT", "")
	t.Setenv("UPLOAD_DIR", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("SOURCE_EXTENSIONS", "")
	t.Setenv("REMOTE_FETCH_ENABLED", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("ARTIFACT_MINIO_ENDPOINT", "")

	cfg, err := load(nil)
	require.NoError(t, err)
	assert.Equal(t, ":8000", cfg.Port)
	assert.Equal(t, "local", cfg.Env)
	assert.Equal(t, "uploads", cfg.UploadDir)
	assert.Equal(t, int64(defaultMaxUploadBytes), cfg.MaxUploadBytes)
	assert.Equal(t, []string{".php"}, cfg.SourceExtensions)
	assert.True(t, cfg.RemoteFetchEnabled)
	assert.Contains(t, cfg.AllowedOrigins, "http://localhost:3000")
	assert.False(t, cfg.Artifact.CanUseS3())
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("APP_ENV", "production")
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_UPLOAD_BYTES", "1024")
	t.Setenv("SOURCE_EXTENSIONS", "php, .inc ,")
	t.Setenv("REMOTE_FETCH_ENABLED", "")
	t.Setenv("REMOTE_FETCH_TIMEOUT", "30s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com")
	t.Setenv("ARTIFACT_S3_ENDPOINT", "s3.example.com")
	t.Setenv("ARTIFACT_S3_ACCESS_KEY", "key")
	t.Setenv("ARTIFACT_S3_SECRET_KEY", "secret")
	t.Setenv("ARTIFACT_S3_USE_SSL", "")

	cfg, err := load([]string{"-port", ":1234"})
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, int64(1024), cfg.MaxUploadBytes)
	assert.Equal(t, []string{"php", ".inc"}, cfg.SourceExtensions)
	assert.False(t, cfg.RemoteFetchEnabled)
	assert.Equal(t, 30*time.Second, cfg.RemoteFetchTimeout)
	assert.Equal(t, []string{"https://app.example.com"}, cfg.AllowedOrigins)
	assert.True(t, cfg.Artifact.CanUseS3())
	assert.True(t, cfg.Artifact.UseSSL)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MAX_UPLOAD_BYTES", "lots")
	t.Setenv("REMOTE_FETCH_TIMEOUT", "soon")
	t.Setenv("PORT", "")

	cfg, err := load(nil)
	require.NoError(t, err)
	assert.Equal(t, int64(defaultMaxUploadBytes), cfg.MaxUploadBytes)
	assert.Equal(t, defaultFetchTimeout, cfg.RemoteFetchTimeout)
}
