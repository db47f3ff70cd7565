package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sdejongh/camarchive/pkg/models"
)

// EnvPrefix prefixes every environment override
const EnvPrefix = "CAMARCHIVE_"

// DefaultEnvFile is read from the working directory when present
const DefaultEnvFile = ".env"

// LoadEnvFile loads variables from path into the process environment.
// Variables already set are left alone. With an empty path the default
// .env is loaded if it exists.
func LoadEnvFile(path string) error {
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		path = DefaultEnvFile
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with CAMARCHIVE_* variables
func ApplyEnv(cfg *Config) error {
	r := &envReader{}

	cfg.Paths.Source = r.str("SOURCE", cfg.Paths.Source)
	cfg.Paths.Output = r.str("OUTPUT", cfg.Paths.Output)
	cfg.Paths.Trash = r.str("TRASH", cfg.Paths.Trash)
	cfg.Paths.Journal = r.str("JOURNAL", cfg.Paths.Journal)

	cfg.Policy.AgeDays = r.integer("AGE_DAYS", cfg.Policy.AgeDays)
	cfg.Policy.PermanentDelete = r.boolean("PERMANENT_DELETE", cfg.Policy.PermanentDelete)
	cfg.Policy.CleanupOnly = r.boolean("CLEANUP_ONLY", cfg.Policy.CleanupOnly)
	cfg.Policy.CleanOutput = r.boolean("CLEAN_OUTPUT", cfg.Policy.CleanOutput)
	cfg.Policy.SkipIfArchived = r.boolean("SKIP_IF_ARCHIVED", cfg.Policy.SkipIfArchived)
	cfg.Policy.MinArchiveSize = r.int64("MIN_ARCHIVE_SIZE", cfg.Policy.MinArchiveSize)
	cfg.Policy.MaxSizeGB = r.float("MAX_SIZE_GB", cfg.Policy.MaxSizeGB)

	cfg.Transcode.FFmpeg = r.str("FFMPEG", cfg.Transcode.FFmpeg)
	cfg.Transcode.FFprobe = r.str("FFPROBE", cfg.Transcode.FFprobe)
	cfg.Transcode.HWAccel = r.str("HWACCEL", cfg.Transcode.HWAccel)
	cfg.Transcode.VideoCodec = r.str("VIDEO_CODEC", cfg.Transcode.VideoCodec)
	cfg.Transcode.GlobalQuality = r.integer("GLOBAL_QUALITY", cfg.Transcode.GlobalQuality)
	cfg.Transcode.TerminateTimeout = r.duration("TERMINATE_TIMEOUT", cfg.Transcode.TerminateTimeout)

	cfg.Output.Format = r.str("OUTPUT_FORMAT", cfg.Output.Format)

	cfg.Logging.File = r.str("LOG_FILE", cfg.Logging.File)
	cfg.Logging.Format = r.str("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.Level = r.str("LOG_LEVEL", cfg.Logging.Level)

	return r.err
}

// envReader keeps the first malformed variable it meets
type envReader struct {
	err error
}

func (r *envReader) lookup(key string) (string, bool) {
	value, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func (r *envReader) fail(key, value, kind string) {
	if r.err != nil {
		return
	}
	r.err = &models.ValidationError{
		Field:   EnvPrefix + key,
		Message: fmt.Sprintf("invalid %s %q", kind, value),
	}
}

func (r *envReader) str(key, defaultValue string) string {
	if value, ok := r.lookup(key); ok {
		return value
	}
	return defaultValue
}

func (r *envReader) integer(key string, defaultValue int) int {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		r.fail(key, value, "integer")
		return defaultValue
	}
	return n
}

func (r *envReader) int64(key string, defaultValue int64) int64 {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		r.fail(key, value, "integer")
		return defaultValue
	}
	return n
}

func (r *envReader) float(key string, defaultValue float64) float64 {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		r.fail(key, value, "number")
		return defaultValue
	}
	return f
}

func (r *envReader) boolean(key string, defaultValue bool) bool {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		r.fail(key, value, "boolean")
		return defaultValue
	}
	return b
}

func (r *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	value, ok := r.lookup(key)
	if !ok {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		r.fail(key, value, "duration")
		return defaultValue
	}
	return d
}
