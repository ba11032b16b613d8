package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"github.com/twoLoop-40/hwp-transformer/internal/host"
	"github.com/twoLoop-40/hwp-transformer/internal/transform"
	"github.com/twoLoop-40/hwp-transformer/internal/workspace"
)

type Config struct {
	Port string `toml:"port" yaml:"port" validate:"required,numeric"`

	// Auth
	APIKey string `toml:"api_key" yaml:"api_key"`

	// Output
	DownloadDir  string `toml:"download_dir" yaml:"download_dir"`
	OutputSuffix string `toml:"output_suffix" yaml:"output_suffix"`

	// Equations
	EquationFont      string   `toml:"equation_font" yaml:"equation_font" validate:"required"`
	EquationBaseUnit  float64  `toml:"equation_base_unit" yaml:"equation_base_unit" validate:"gt=0"`
	EquationSeparator string   `toml:"equation_separator" yaml:"equation_separator"`
	MathFences        []string `toml:"math_fences" yaml:"math_fences" validate:"min=1,dive,required"`

	// Images
	ImagePlaceholder    string  `toml:"image_placeholder" yaml:"image_placeholder" validate:"required"`
	ImageSizeMode       string  `toml:"image_size_mode" yaml:"image_size_mode" validate:"oneof=original fixed"`
	ImageWidthMM        float64 `toml:"image_width_mm" yaml:"image_width_mm" validate:"gt=0"`
	ImageHeightMM       float64 `toml:"image_height_mm" yaml:"image_height_mm" validate:"gt=0"`
	ImageMismatchPolicy string  `toml:"image_mismatch_policy" yaml:"image_mismatch_policy" validate:"oneof=best-effort strict"`

	// Worker pool
	WorkerCount  int `toml:"worker_count" yaml:"worker_count" validate:"gt=0"`
	MaxQueueSize int `toml:"max_queue_size" yaml:"max_queue_size" validate:"gt=0"`

	// Upload limits
	MaxUploadBytes int64 `toml:"max_upload_bytes" yaml:"max_upload_bytes" validate:"gt=0"`

	// Job state
	JobTTL  time.Duration `toml:"-" yaml:"-" validate:"gt=0"`
	WorkDir string        `toml:"work_dir" yaml:"work_dir"`
}

// DefaultImagePlaceholder matches "<!-- image -->" with any inner spacing.
const DefaultImagePlaceholder = `<!--\s*image\s*-->`

// Defaults returns the configuration used when neither a file nor the
// environment says otherwise.
func Defaults() Config {
	return Config{
		Port: "8090",

		DownloadDir:  workspace.DownloadDir(),
		OutputSuffix: workspace.DefaultSuffix,

		EquationFont:      "HancomEQN",
		EquationBaseUnit:  10,
		EquationSeparator: transform.DefaultSeparator,
		MathFences:        []string{"$$", "$"},

		ImagePlaceholder:    DefaultImagePlaceholder,
		ImageSizeMode:       string(host.SizeFixed),
		ImageWidthMM:        60,
		ImageHeightMM:       60,
		ImageMismatchPolicy: string(transform.PolicyBestEffort),

		WorkerCount:  4,
		MaxQueueSize: 100,

		MaxUploadBytes: 52428800, // 50MB

		JobTTL:  1 * time.Hour,
		WorkDir: filepath.Join(os.TempDir(), "hwp-transformer"),
	}
}

// Load reads the configuration from the environment on top of Defaults.
func Load() Config {
	cfg := Defaults()
	cfg.applyEnv()
	return cfg
}

// fileConfig is what a config file decodes into. The TTL is written as a
// duration string ("30m") in files.
type fileConfig struct {
	Config `yaml:",inline"`
	JobTTL string `toml:"job_ttl" yaml:"job_ttl"`
}

// LoadFile layers a TOML or YAML file (picked by extension) over Defaults,
// then the environment over that.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	fc := fileConfig{Config: Defaults()}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &fc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		return Config{}, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}
	if err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", filepath.Base(path), err)
	}

	cfg := fc.Config
	if fc.JobTTL != "" {
		d, err := time.ParseDuration(fc.JobTTL)
		if err != nil {
			return Config{}, fmt.Errorf("parse job_ttl: %w", err)
		}
		cfg.JobTTL = d
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)
	c.APIKey = envOr("TRANSCRIBE_API_KEY", c.APIKey)

	c.DownloadDir = envOr("DOWNLOAD_DIR", c.DownloadDir)
	c.OutputSuffix = envOr("OUTPUT_SUFFIX", c.OutputSuffix)

	c.EquationFont = envOr("EQUATION_FONT", c.EquationFont)
	c.EquationBaseUnit = envFloat("EQUATION_BASE_UNIT", c.EquationBaseUnit)
	c.EquationSeparator = envOr("EQUATION_SEPARATOR", c.EquationSeparator)
	c.MathFences = envList("MATH_FENCES", c.MathFences)

	c.ImagePlaceholder = envOr("IMAGE_PLACEHOLDER", c.ImagePlaceholder)
	c.ImageSizeMode = envOr("IMAGE_SIZE_MODE", c.ImageSizeMode)
	c.ImageWidthMM = envFloat("IMAGE_WIDTH_MM", c.ImageWidthMM)
	c.ImageHeightMM = envFloat("IMAGE_HEIGHT_MM", c.ImageHeightMM)
	c.ImageMismatchPolicy = envOr("IMAGE_MISMATCH_POLICY", c.ImageMismatchPolicy)

	c.WorkerCount = envInt("WORKER_COUNT", c.WorkerCount)
	c.MaxQueueSize = envInt("MAX_QUEUE_SIZE", c.MaxQueueSize)
	c.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", c.MaxUploadBytes)

	c.JobTTL = envDuration("JOB_TTL", c.JobTTL)
	c.WorkDir = envOr("WORK_DIR", c.WorkDir)
}

var validate = validator.New()

func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// ValidateServer also requires what only the HTTP service needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("TRANSCRIBE_API_KEY is required")
	}
	return nil
}

func (c Config) ImageOptions() host.ImageOptions {
	return host.ImageOptions{
		Mode:     host.SizeMode(c.ImageSizeMode),
		WidthMM:  c.ImageWidthMM,
		HeightMM: c.ImageHeightMM,
	}
}

func (c Config) EquationStyle() transform.EquationStyle {
	return transform.EquationStyle{
		Font:      c.EquationFont,
		BaseUnit:  c.EquationBaseUnit,
		Separator: c.EquationSeparator,
	}
}

func (c Config) ImagePolicy() transform.ImagePolicy {
	return transform.ImagePolicy(c.ImageMismatchPolicy)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
