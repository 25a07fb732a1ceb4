package config

import (
	"encoding/base64"
	"testing"
	"time"

	"voice_motto/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validKey() string {
	return base64.URLEncoding.EncodeToString(make([]byte, 32))
}

func TestLoadFromMap_Defaults(t *testing.T) {
	cfg, err := LoadFromMap(map[string]string{"ENCRYPTION_KEY": validKey()})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.APIPort)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, DriverRedis, cfg.QueueDriver)
	assert.Equal(t, TranscriberStatic, cfg.Transcriber)
	assert.Equal(t, []string{"webm"}, cfg.AllowedExtensions)
	assert.Equal(t, 72*time.Hour, cfg.JWTExp)
	assert.Equal(t, "1.2.0", cfg.MinAppVersion)
	assert.Len(t, cfg.EncryptionKey, 32)
	assert.Equal(t, "host=localhost port=5432 user=user password=password dbname=voice_motto sslmode=disable", cfg.DB.ConnString())
}

func TestLoadFromMap_MissingEncryptionKeyIsFatal(t *testing.T) {
	_, err := LoadFromMap(map[string]string{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrConfiguration)
	assert.Contains(t, err.Error(), "ENCRYPTION_KEY")
}

func TestLoadFromMap_InvalidEncryptionKey(t *testing.T) {
	_, err := LoadFromMap(map[string]string{"ENCRYPTION_KEY": "not-a-key"})
	assert.ErrorIs(t, err, common.ErrConfiguration)
}

func TestLoadFromMap_Overrides(t *testing.T) {
	cfg, err := LoadFromMap(map[string]string{
		"ENCRYPTION_KEY":     validKey(),
		"STORE_DRIVER":       "memory",
		"QUEUE_DRIVER":       "memory",
		"ALLOWED_EXTENSIONS": " .WEBM, ogg ,",
		"WORKER_CONCURRENCY": "0",
		"DB_URL":             "postgres://u:p@db:5432/motto",
		"REDIS_ADDR":         "redis:6379",
		"REDIS_DB":           "3",
	})
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, []string{"webm", "ogg"}, cfg.AllowedExtensions)
	assert.Equal(t, 1, cfg.WorkerConcurrency)
	assert.Equal(t, "postgres://u:p@db:5432/motto", cfg.DB.ConnString())
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
}

func TestLoadFromMap_RejectsUnknownDrivers(t *testing.T) {
	for _, key := range []string{"STORE_DRIVER", "QUEUE_DRIVER", "TRANSCRIBER"} {
		t.Run(key, func(t *testing.T) {
			_, err := LoadFromMap(map[string]string{"ENCRYPTION_KEY": validKey(), key: "carrier-pigeon"})
			assert.ErrorIs(t, err, common.ErrConfiguration)
		})
	}
}

func TestLoadFromMap_WhisperNeedsModel(t *testing.T) {
	_, err := LoadFromMap(map[string]string{"ENCRYPTION_KEY": validKey(), "TRANSCRIBER": "whisper"})
	assert.ErrorIs(t, err, common.ErrConfiguration)

	cfg, err := LoadFromMap(map[string]string{
		"ENCRYPTION_KEY":     validKey(),
		"TRANSCRIBER":        "whisper",
		"WHISPER_MODEL_PATH": "/models/ggml-base.en.bin",
	})
	require.NoError(t, err)
	assert.Equal(t, "ffmpeg", cfg.Whisper.FFmpegPath)
}
