package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/chatline")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, PresenceStorePostgres, cfg.PresenceStore)
	assert.Equal(t, 5*time.Second, cfg.PresenceWriteTimeout)
	assert.Equal(t, "allow", cfg.UnknownVisibility)
	assert.False(t, cfg.AvatarsEnabled())
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "secret")

	_, err := LoadConfig()
	assert.EqualError(t, err, "DATABASE_URL is required")
}

func TestLoadConfig_RejectsUnknownPolicy(t *testing.T) {
	setRequired(t)
	t.Setenv("UNKNOWN_VISIBILITY_POLICY", "maybe")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_RedisPresence(t *testing.T) {
	setRequired(t)
	t.Setenv("PRESENCE_STORE", "Redis")
	t.Setenv("PRESENCE_TTL", "90s")
	t.Setenv("S3_BUCKET", "avatars")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, PresenceStoreRedis, cfg.PresenceStore)
	assert.Equal(t, 90*time.Second, cfg.PresenceTTL)
	assert.True(t, cfg.AvatarsEnabled())
}

func TestLoadConfig_S3Credentials(t *testing.T) {
	setRequired(t)
	t.Setenv("S3_BUCKET", "avatars")
	t.Setenv("S3_ACCESS_KEY_ID", "minio")

	_, err := LoadConfig()
	assert.Error(t, err, "a key without a secret is rejected")

	t.Setenv("S3_SECRET_ACCESS_KEY", "minio-secret")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "minio", cfg.S3AccessKeyID)
	assert.Equal(t, "minio-secret", cfg.S3SecretAccessKey)
}
