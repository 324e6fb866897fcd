package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, DriverS3, cfg.Storage.Driver)
	assert.Equal(t, "stamped/", cfg.Storage.OutputPrefix)
	assert.Equal(t, time.Hour, cfg.Storage.URLExpiry.Duration())
	assert.Equal(t, ModeHeader, cfg.Watermark.Mode)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("PDF_BUCKET", "books")
	t.Setenv("MASTER_KEY", "masters/book.pdf")
	t.Setenv("URL_EXPIRY", "600")
	t.Setenv("WATERMARK_MODE", "diagonal")
	t.Setenv("LEDGER_TABLE", "issuances")
	t.Setenv("SERVER_PORT", "9090")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "books", cfg.Storage.Bucket)
	assert.Equal(t, "masters/book.pdf", cfg.Storage.MasterKey)
	assert.Equal(t, 10*time.Minute, cfg.Storage.URLExpiry.Duration())
	assert.Equal(t, ModeDiagonal, cfg.Watermark.Mode)
	assert.Equal(t, "issuances", cfg.Ledger.Table)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"storage": {"bucket": "from-file", "master_key": "master.pdf", "output_prefix": "out/"},
		"logging": {"level": "debug"}
	}`), 0o600))
	t.Setenv("PDF_BUCKET", "from-env")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.Storage.Bucket)
	assert.Equal(t, "master.pdf", cfg.Storage.MasterKey)
	assert.Equal(t, "out/", cfg.Storage.OutputPrefix)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, time.Hour, cfg.Storage.URLExpiry.Duration())
}

func TestLoadConfigFileExpiry(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{`3600`, time.Hour},
		{`"600"`, 10 * time.Minute},
		{`"90m"`, 90 * time.Minute},
	}

	for _, tt := range tests {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"storage": {"url_expiry": `+tt.value+`}}`), 0o600))

		cfg, err := LoadConfig(path)
		require.NoError(t, err, tt.value)
		assert.Equal(t, tt.want, cfg.Storage.URLExpiry.Duration(), tt.value)
	}

	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"storage": {"url_expiry": "soon"}}`), 0o600))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigMissingFileIsIgnored(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.json"))
	assert.NoError(t, err)
}

func TestLoadConfigInvalidValues(t *testing.T) {
	t.Run("bad json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
		_, err := LoadConfig(path)
		assert.Error(t, err)
	})

	t.Run("bad expiry", func(t *testing.T) {
		t.Setenv("URL_EXPIRY", "soon")
		_, err := LoadConfig("")
		assert.Error(t, err)
	})

	t.Run("bad port", func(t *testing.T) {
		t.Setenv("SERVER_PORT", "http")
		_, err := LoadConfig("")
		assert.Error(t, err)
	})
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PDF_BUCKET")
	assert.Contains(t, err.Error(), "MASTER_KEY")

	cfg.Storage.Bucket = "b"
	cfg.Storage.MasterKey = "k"
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Driver = "ftp"
	assert.ErrorContains(t, cfg.Validate(), "ftp")

	cfg.Storage.Driver = DriverMemory
	cfg.Watermark.Mode = "spiral"
	assert.ErrorContains(t, cfg.Validate(), "spiral")
}

func TestParseExpiry(t *testing.T) {
	d, err := parseExpiry("3600")
	require.NoError(t, err)
	assert.Equal(t, time.Hour, d)

	d, err = parseExpiry("90m")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, d)
}
