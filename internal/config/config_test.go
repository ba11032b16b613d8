package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twoLoop-40/hwp-transformer/internal/host"
	"github.com/twoLoop-40/hwp-transformer/internal/transform"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultsAreValid(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"$$", "$"}, cfg.MathFences)
	assert.Equal(t, "HancomEQN", cfg.EquationFont)
	assert.Equal(t, transform.DefaultEquationStyle(), cfg.EquationStyle())
	assert.Equal(t, transform.PolicyBestEffort, cfg.ImagePolicy())
	assert.Equal(t, host.ImageOptions{Mode: host.SizeFixed, WidthMM: 60, HeightMM: 60}, cfg.ImageOptions())
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("WORKER_COUNT", "2")
	t.Setenv("MATH_FENCES", " $$ , $ ,")
	t.Setenv("IMAGE_WIDTH_MM", "42.5")
	t.Setenv("JOB_TTL", "15m")
	t.Setenv("IMAGE_MISMATCH_POLICY", "strict")

	cfg := Load()
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 2, cfg.WorkerCount)
	assert.Equal(t, []string{"$$", "$"}, cfg.MathFences)
	assert.Equal(t, 42.5, cfg.ImageWidthMM)
	assert.Equal(t, 15*time.Minute, cfg.JobTTL)
	assert.Equal(t, transform.PolicyStrict, cfg.ImagePolicy())
}

func TestLoad_BadEnvKeepsDefault(t *testing.T) {
	t.Setenv("WORKER_COUNT", "many")
	t.Setenv("JOB_TTL", "soon")
	cfg := Load()
	assert.Equal(t, 4, cfg.WorkerCount)
	assert.Equal(t, time.Hour, cfg.JobTTL)
}

func TestLoadFile_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
port = "7000"
equation_font = "Cambria Math"
math_fences = ["\\[", "$"]
image_size_mode = "original"
job_ttl = "30m"
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "7000", cfg.Port)
	assert.Equal(t, "Cambria Math", cfg.EquationFont)
	assert.Equal(t, []string{`\[`, "$"}, cfg.MathFences)
	assert.Equal(t, host.SizeOriginal, cfg.ImageOptions().Mode)
	assert.Equal(t, 30*time.Minute, cfg.JobTTL)
	// untouched keys keep their defaults
	assert.Equal(t, 60.0, cfg.ImageHeightMM)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "config.yml", `
worker_count: 8
output_suffix: "_eq"
image_mismatch_policy: strict
job_ttl: 2h
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.WorkerCount)
	assert.Equal(t, "_eq", cfg.OutputSuffix)
	assert.Equal(t, transform.PolicyStrict, cfg.ImagePolicy())
	assert.Equal(t, 2*time.Hour, cfg.JobTTL)
}

func TestLoadFile_EnvWins(t *testing.T) {
	path := writeFile(t, "config.toml", `port = "7000"`)
	t.Setenv("PORT", "7100")
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "7100", cfg.Port)
}

func TestLoadFile_Errors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = LoadFile(writeFile(t, "config.ini", "port=1"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = LoadFile(writeFile(t, "config.toml", `job_ttl = "later"`))
	assert.ErrorContains(t, err, "job_ttl")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty fences", func(c *Config) { c.MathFences = nil }},
		{"blank fence", func(c *Config) { c.MathFences = []string{"$", ""} }},
		{"bad size mode", func(c *Config) { c.ImageSizeMode = "huge" }},
		{"bad policy", func(c *Config) { c.ImageMismatchPolicy = "ignore" }},
		{"zero width", func(c *Config) { c.ImageWidthMM = 0 }},
		{"zero workers", func(c *Config) { c.WorkerCount = 0 }},
		{"port not numeric", func(c *Config) { c.Port = "http" }},
		{"no font", func(c *Config) { c.EquationFont = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateServer(t *testing.T) {
	cfg := Defaults()
	assert.ErrorContains(t, cfg.ValidateServer(), "TRANSCRIBE_API_KEY")

	cfg.APIKey = "secret"
	assert.NoError(t, cfg.ValidateServer())
}
