package config

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	tempDir := t.TempDir()

	originalWD, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = os.Chdir(originalWD)
	})
	require.NoError(t, os.Chdir(tempDir))
	return tempDir
}

func TestLoadConfig_HappyPath(t *testing.T) {
	tempDir := chdirTemp(t)

	configsDir := filepath.Join(tempDir, "configs")
	require.NoError(t, os.Mkdir(configsDir, 0755))

	envContent := fmt.Sprintf(
		"APP_NAME=%s\nSERVER_PORT=%d\nLOG_LEVEL=%s\nKAFKA_BROKERS=%s\nSTORAGE_URL=%s\nUPLOADS_ALLOWED_EXTENSIONS=%s\n",
		"BillingTest", 9090, "debug", "kafka1:9092,kafka2:9092", "https://storage.example.com/", "PDF, png",
	)
	require.NoError(t, os.WriteFile(filepath.Join(configsDir, "test_happy.env"), []byte(envContent), 0644))

	cfg, err := LoadConfig("test_happy")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "BillingTest", cfg.Application.Name)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "kafka1:9092,kafka2:9092", cfg.Kafka.Brokers)
	assert.Equal(t, "https://storage.example.com", cfg.Storage.URL)
	assert.Equal(t, []string{"pdf", "png"}, cfg.Uploads.AllowedExtensions)

	// defaults
	assert.Equal(t, "development", cfg.Application.Env)
	assert.Equal(t, 30*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "ledger_events", cfg.Kafka.LedgerTopic)
	assert.Equal(t, "ledger_events_dlq", cfg.Kafka.DLQTopic)
	assert.Equal(t, "receipts", cfg.Storage.ReceiptsBucket)
	assert.Equal(t, 5*time.Minute, cfg.Storage.SignedURLTTL)
	assert.Equal(t, "@daily", cfg.Rent.AccrualCron)
	assert.True(t, cfg.Rent.RunOnStartup)
	assert.Equal(t, int64(3*1024*1024), cfg.Uploads.MaxRequestBytes)
	assert.Equal(t, 8, cfg.WorkerPool.Size)
	assert.Equal(t, int32(20), cfg.Postgres.MaxConns)
	assert.Equal(t, uint64(50), cfg.MongoDB.MaxPoolSize)
	assert.Equal(t, "test_happy.env", filepath.Base(cfg.Source))
}

func TestLoadConfig_NoFile(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadConfig("absent")
	require.NoError(t, err)
	assert.Empty(t, cfg.Source)
	assert.Equal(t, "billing-ledger", cfg.Application.Name)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	tempDir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "override.env"), []byte("RENT_ACCRUAL_CRON=@hourly\n"), 0644))
	t.Setenv("RENT_ACCRUAL_CRON", "0 3 * * *")

	cfg, err := LoadConfig("override")
	require.NoError(t, err)
	assert.Equal(t, "0 3 * * *", cfg.Rent.AccrualCron)
}

func TestLoadConfig_InvalidValues(t *testing.T) {
	chdirTemp(t)
	t.Setenv("SERVER_PORT", "0")
	t.Setenv("RENT_ACCRUAL_CRON", "every tuesday")

	cfg, err := LoadConfig("missing")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "SERVER_PORT must be greater than 0")
	assert.Contains(t, err.Error(), "RENT_ACCRUAL_CRON must be a valid cron spec")
}

func TestConfig_Validate_Defaults(t *testing.T) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := buildConfig(v)
	assert.NoError(t, cfg.validate(), "Default config should be valid")
	assert.Equal(t, []string{"http://localhost:8080"}, cfg.Server.CORSAllowedOrigins)
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{}

	err := cfg.validate()
	require.Error(t, err)
	for _, msg := range []string{
		"KAFKA_LEDGER_TOPIC is required",
		"POSTGRES_URL is required",
		"STORAGE_RECEIPTS_BUCKET is required",
		"UPLOADS_ALLOWED_EXTENSIONS is required",
		"SERVER_PORT must be greater than 0",
		"RENT_ACCRUAL_CRON must be a valid cron spec",
	} {
		assert.Contains(t, err.Error(), msg)
	}
}

func TestBuildConfig_Normalises(t *testing.T) {
	v := viper.New()
	v.Set("STORAGE_URL", "https://storage.example.com//")
	v.Set("UPLOADS_ALLOWED_EXTENSIONS", ".JPG, png")
	v.Set("POSTGRES_MAX_CONN_LIFETIME", "90m")

	cfg := buildConfig(v)

	assert.Equal(t, "https://storage.example.com", cfg.Storage.URL)
	assert.Equal(t, []string{"jpg", "png"}, cfg.Uploads.AllowedExtensions)
	assert.Equal(t, 90*time.Minute, cfg.Postgres.ConnMaxLifetime)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b ,"))
	assert.Nil(t, splitList(""))
}
