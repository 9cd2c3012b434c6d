package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	v := New()
	v.Set("token-secret", "s3cret")

	cfg, err := Load(v, true)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:80", cfg.Addr)
	assert.Equal(t, "parish.sqlite", cfg.DBUrl)
	assert.Equal(t, 120*time.Second, cfg.TokenTTL)
	assert.Equal(t, "local", cfg.Upload.Backend)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, "http://localhost:80", cfg.Url())
	assert.Equal(t, "http://localhost:80/uploads", cfg.UploadBaseURL())
}

func TestLoad_MissingSecret(t *testing.T) {
	_, err := Load(New(), true)
	assert.EqualError(t, err, "missing parameter token-secret")

	_, err = Load(New(), false)
	assert.NoError(t, err)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PARISH_TOKEN_SECRET", "from-env")
	t.Setenv("PARISH_UPLOAD_BASE_URL", "https://cdn.example.org/")
	t.Setenv("PARISH_PORT", "8080")

	cfg, err := Load(New(), true)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.TokenSecret)
	assert.Equal(t, "https://cdn.example.org", cfg.UploadBaseURL())
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr)
}

func TestLoad_S3RequiresBucket(t *testing.T) {
	v := New()
	v.Set("upload.backend", "s3")
	_, err := Load(v, false)
	assert.Error(t, err)

	v.Set("s3.bucket", "parish-media")
	cfg, err := Load(v, false)
	require.NoError(t, err)
	assert.Equal(t, "parish-media", cfg.S3.Bucket)

	v.Set("upload.backend", "ftp")
	_, err = Load(v, false)
	assert.Error(t, err)
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parish.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 9000\ntoken-secret: abc\nnats:\n  url: nats://127.0.0.1:4222\n"), 0o644))

	v := New()
	require.NoError(t, ReadFile(v, path))
	cfg, err := Load(v, true)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Addr)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NatsURL)

	assert.Error(t, ReadFile(New(), filepath.Join(t.TempDir(), "missing.yaml")))
}
