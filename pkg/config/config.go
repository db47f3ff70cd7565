package config

import (
	"path/filepath"
	"time"

	"github.com/sdejongh/camarchive/pkg/journal"
	"github.com/sdejongh/camarchive/pkg/logging"
	"github.com/sdejongh/camarchive/pkg/models"
	"github.com/sdejongh/camarchive/pkg/transcode"
)

// Names derived from the source directory when a path is not configured
const (
	DefaultOutputDir = "archived"
	DefaultTrashDir  = ".deleted"
	DefaultLogFile   = "archiver.log"
	DefaultAgeDays   = 30
)

// Config represents the application configuration
type Config struct {
	Paths     PathsConfig     `yaml:"paths"`
	Policy    PolicyConfig    `yaml:"policy"`
	Transcode TranscodeConfig `yaml:"transcode"`
	Output    OutputConfig    `yaml:"output"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// PathsConfig holds the directories a run works on
type PathsConfig struct {
	Source  string `yaml:"source"`
	Output  string `yaml:"output"`
	Trash   string `yaml:"trash"`
	Journal string `yaml:"journal"`
}

// PolicyConfig holds archiving rules
type PolicyConfig struct {
	AgeDays         int     `yaml:"age_days"`
	PermanentDelete bool    `yaml:"permanent_delete"`
	CleanupOnly     bool    `yaml:"cleanup_only"`
	CleanOutput     bool    `yaml:"clean_output"`
	SkipIfArchived  bool    `yaml:"skip_if_archived"`
	MinArchiveSize  int64   `yaml:"min_archive_size"`
	MaxSizeGB       float64 `yaml:"max_size_gb"` // 0 = unlimited
	ArchiveExt      string  `yaml:"archive_ext"`
}

// TranscodeConfig holds the encoder invocation
type TranscodeConfig struct {
	FFmpeg              string        `yaml:"ffmpeg"`
	FFprobe             string        `yaml:"ffprobe"`
	HWAccel             string        `yaml:"hwaccel"`
	HWAccelOutputFormat string        `yaml:"hwaccel_output_format"`
	Filter              string        `yaml:"filter"`
	GlobalQuality       int           `yaml:"global_quality"`
	VideoCodec          string        `yaml:"video_codec"`
	DropAudio           bool          `yaml:"drop_audio"`
	TerminateTimeout    time.Duration `yaml:"terminate_timeout"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format    string `yaml:"format"`   // "human" or "json"
	Progress  bool   `yaml:"progress"` // Show progress bars
	Quiet     bool   `yaml:"quiet"`    // Suppress non-error output
	Confirm   bool   `yaml:"confirm"`  // Ask before executing a plan
	PlanLimit int    `yaml:"plan_limit"`
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Format     string `yaml:"format"` // "json" or "text"
	Level      string `yaml:"level"`  // "debug", "info", "warn", "error"
	File       string `yaml:"file"`   // empty = <source>/archiver.log
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the default configuration
func Default() *Config {
	ts := transcode.DefaultSettings()
	return &Config{
		Policy: PolicyConfig{
			AgeDays:        DefaultAgeDays,
			SkipIfArchived: true,
			MinArchiveSize: models.DefaultMinArchiveSize,
			ArchiveExt:     ".mp4",
		},
		Transcode: TranscodeConfig{
			FFmpeg:              ts.FFmpegPath,
			FFprobe:             ts.FFprobePath,
			HWAccel:             ts.HWAccel,
			HWAccelOutputFormat: ts.HWAccelOutputFormat,
			Filter:              ts.Filter,
			GlobalQuality:       ts.GlobalQuality,
			VideoCodec:          ts.VideoCodec,
			DropAudio:           ts.DropAudio,
			TerminateTimeout:    ts.TerminateTimeout,
		},
		Output: OutputConfig{
			Format:    "human",
			Progress:  true,
			Confirm:   true,
			PlanLimit: 10,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Format:     "text",
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 5,
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Policy.AgeDays < 0 {
		return &models.ValidationError{
			Field:   "policy.age_days",
			Message: "must not be negative",
		}
	}

	if c.Policy.MinArchiveSize < 0 {
		return &models.ValidationError{
			Field:   "policy.min_archive_size",
			Message: "must not be negative",
		}
	}

	if c.Policy.MaxSizeGB < 0 {
		return &models.ValidationError{
			Field:   "policy.max_size_gb",
			Message: "must not be negative",
		}
	}

	if c.Transcode.FFmpeg == "" {
		return &models.ValidationError{
			Field:   "transcode.ffmpeg",
			Message: "ffmpeg binary is required",
		}
	}

	if c.Transcode.TerminateTimeout < 0 {
		return &models.ValidationError{
			Field:   "transcode.terminate_timeout",
			Message: "must not be negative",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	return nil
}

// ApplySourceDefaults sets the source directory and fills every path left
// empty with its location relative to it. The trash stays empty when files
// are deleted permanently.
func (c *Config) ApplySourceDefaults(source string) {
	if source != "" {
		c.Paths.Source = source
	}
	if c.Paths.Source == "" {
		return
	}
	dir := c.Paths.Source

	if c.Paths.Output == "" {
		c.Paths.Output = filepath.Join(dir, DefaultOutputDir)
	}
	if c.Policy.PermanentDelete {
		c.Paths.Trash = ""
	} else if c.Paths.Trash == "" {
		c.Paths.Trash = filepath.Join(dir, DefaultTrashDir)
	}
	if c.Paths.Journal == "" && c.Paths.Trash != "" {
		c.Paths.Journal = filepath.Join(c.Paths.Trash, journal.FileName)
	}
	if c.Logging.File == "" {
		c.Logging.File = filepath.Join(dir, DefaultLogFile)
	}
}

// ToPolicy builds the run policy from the configuration
func (c *Config) ToPolicy(dryRun bool) *models.Policy {
	return &models.Policy{
		SourceRoot:      c.Paths.Source,
		OutputRoot:      c.Paths.Output,
		TrashRoot:       c.Paths.Trash,
		PermanentDelete: c.Policy.PermanentDelete,
		AgeDays:         c.Policy.AgeDays,
		CleanupOnly:     c.Policy.CleanupOnly,
		CleanOutput:     c.Policy.CleanOutput,
		SkipIfArchived:  c.Policy.SkipIfArchived,
		DryRun:          dryRun,
		MinArchiveSize:  c.Policy.MinArchiveSize,
		ArchiveQuota:    int64(c.Policy.MaxSizeGB * (1 << 30)),
		ArchiveExt:      c.Policy.ArchiveExt,
	}
}

// TranscodeSettings returns the encoder settings
func (c *Config) TranscodeSettings() transcode.Settings {
	return transcode.Settings{
		FFmpegPath:          c.Transcode.FFmpeg,
		FFprobePath:         c.Transcode.FFprobe,
		HWAccel:             c.Transcode.HWAccel,
		HWAccelOutputFormat: c.Transcode.HWAccelOutputFormat,
		Filter:              c.Transcode.Filter,
		GlobalQuality:       c.Transcode.GlobalQuality,
		VideoCodec:          c.Transcode.VideoCodec,
		DropAudio:           c.Transcode.DropAudio,
		TerminateTimeout:    c.Transcode.TerminateTimeout,
	}
}

// FileLoggerConfig returns the file sink settings
func (c *Config) FileLoggerConfig() logging.FileLoggerConfig {
	return logging.FileLoggerConfig{
		Path:       c.Logging.File,
		Format:     logging.Format(c.Logging.Format),
		Level:      logging.ParseLevel(c.Logging.Level),
		MaxSize:    int64(c.Logging.MaxSizeMB) * 1024 * 1024,
		MaxBackups: c.Logging.MaxBackups,
	}
}
