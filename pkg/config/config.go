package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/gemini-media-kit/pkg/domain"
	"github.com/shouni/gemini-media-kit/pkg/generator"
)

const defaultHTTPAddr = ":8080"

// Config は環境変数と .env から読み込んだ実行時の設定です。
type Config struct {
	APIKey          string
	EditModel       string
	ImageModel      string
	VideoModel      string
	AspectRatio     string
	PollInterval    time.Duration
	MaxPollAttempts int
	OutputDir       string
	Compress        bool
	CompressQuality int
	HTTPAddr        string
	LogLevel        slog.Level
}

// LoadConfig は .env（存在すれば）を読み込んだ後、環境変数から Config を組み立てます。
// 値の形式が不正な場合は generator.ErrConfiguration を返します。
// API キーの有無は Validate で確認します。
func LoadConfig(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	// ファイルが無くてもエラーにしない
	_ = godotenv.Load(files...)

	var errs []error
	cfg := &Config{
		APIKey:      firstEnv("GEMINI_API_KEY", "API_KEY"),
		EditModel:   getEnv("GEMINI_EDIT_MODEL", generator.DefaultEditModel),
		ImageModel:  getEnv("GEMINI_IMAGE_MODEL", generator.DefaultImageModel),
		VideoModel:  getEnv("GEMINI_VIDEO_MODEL", generator.DefaultVideoModel),
		AspectRatio: getEnv("GEMINI_IMAGE_ASPECT_RATIO", generator.DefaultAspectRatio),
		OutputDir:   getEnv("VIDEO_OUTPUT_DIR", os.TempDir()),
		HTTPAddr:    getEnv("HTTP_ADDR", defaultHTTPAddr),
	}

	var err error
	if cfg.PollInterval, err = getEnvDuration("VIDEO_POLL_INTERVAL", generator.DefaultPollInterval); err != nil {
		errs = append(errs, err)
	}
	if cfg.MaxPollAttempts, err = getEnvInt("VIDEO_MAX_POLL_ATTEMPTS", generator.DefaultMaxPollAttempts); err != nil {
		errs = append(errs, err)
	}
	if cfg.Compress, err = getEnvBool("IMAGE_COMPRESSION", false); err != nil {
		errs = append(errs, err)
	}
	if cfg.CompressQuality, err = getEnvInt("IMAGE_COMPRESSION_QUALITY", generator.DefaultCompressQuality); err != nil {
		errs = append(errs, err)
	}
	if cfg.LogLevel, err = getEnvLevel("LOG_LEVEL", slog.LevelInfo); err != nil {
		errs = append(errs, err)
	}

	if cfg.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("VIDEO_POLL_INTERVAL must be positive"))
	}
	if cfg.MaxPollAttempts <= 0 {
		errs = append(errs, fmt.Errorf("VIDEO_MAX_POLL_ATTEMPTS must be positive"))
	}
	if cfg.CompressQuality < 1 || cfg.CompressQuality > 100 {
		errs = append(errs, fmt.Errorf("IMAGE_COMPRESSION_QUALITY must be between 1 and 100"))
	}
	if !domain.IsSupportedAspectRatio(cfg.AspectRatio) {
		errs = append(errs, fmt.Errorf("GEMINI_IMAGE_ASPECT_RATIO %q is not supported", cfg.AspectRatio))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", generator.ErrConfiguration, errors.Join(errs...))
	}
	return cfg, nil
}

// Validate はリクエストを送る前に必要な資格情報がそろっているかを確認します。
func (c *Config) Validate() error {
	if c == nil || strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY is required", generator.ErrConfiguration)
	}
	return nil
}

// StudioOptions は generator.Studio 向けの生成ポリシーを返します。
func (c *Config) StudioOptions() generator.Options {
	return generator.Options{
		EditModel:       c.EditModel,
		ImageModel:      c.ImageModel,
		VideoModel:      c.VideoModel,
		AspectRatio:     c.AspectRatio,
		PollInterval:    c.PollInterval,
		MaxPollAttempts: c.MaxPollAttempts,
		OutputDir:       c.OutputDir,
	}
}

// Encoder は入力画像の再圧縮設定を反映した Encoder を返します。
func (c *Config) Encoder() generator.Encoder {
	return generator.Encoder{Compress: c.Compress, Quality: c.CompressQuality}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := getEnv(k, ""); v != "" {
			return v
		}
	}
	return ""
}

func getEnvInt(key string, fallback int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return i, nil
}

func getEnvBool(key string, fallback bool) (bool, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getEnvLevel(key string, fallback slog.Level) (slog.Level, error) {
	v := getEnv(key, "")
	if v == "" {
		return fallback, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return fallback, fmt.Errorf("%s: %w", key, err)
	}
	return level, nil
}
