package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadReadsFileThenEnv(t *testing.T) {
	path := writeConfig(t, `
[app]
port = 9090

[storage]
driver = "s3"
materials_bucket = "materials"
artifacts_bucket = "artifacts"

[bedrock]
knowledge_base_id = "kb-file"

[reindex]
mode = "queue"
`)
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("BEDROCK_KNOWLEDGE_BASE_ID", "kb-env")
	t.Setenv("S3_BUCKET_NAME", "")

	cfg, err := Load()
	require.Error(t, err, "empty S3_BUCKET_NAME override leaves the s3 driver without a bucket")

	t.Setenv("S3_BUCKET_NAME", "materials-env")
	cfg, err = Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.Equal(t, "materials-env", cfg.Storage.MaterialsBucket)
	assert.Equal(t, "artifacts", cfg.Storage.ArtifactsBucket)
	assert.Equal(t, "kb-env", cfg.Bedrock.KnowledgeBaseID)
	assert.Equal(t, "queue", cfg.Reindex.Mode)
	assert.Equal(t, "0.0.0.0:9090", cfg.HTTPAddr())
}

func TestValidateRejectsUnknownModes(t *testing.T) {
	cfg := defaultConfig()
	cfg.Storage.Driver = "ftp"
	cfg.Reindex.Mode = "sometimes"
	cfg.LLM.Provider = "carrier-pigeon"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown driver "ftp"`)
	assert.Contains(t, err.Error(), `unknown mode "sometimes"`)
	assert.Contains(t, err.Error(), `unknown provider "carrier-pigeon"`)
}

func TestMemoryDriverNeedsNoBuckets(t *testing.T) {
	cfg := defaultConfig()
	cfg.Storage.Driver = "memory"
	assert.NoError(t, cfg.Validate())
}

func TestEnvBoolAndList(t *testing.T) {
	t.Setenv("OTEL_ENABLED", "yes")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")
	cfg := defaultConfig()
	overrideByEnv(cfg)

	assert.True(t, cfg.Tracing.Enabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.App.CORSOrigins)
}
