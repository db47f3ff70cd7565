package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sdejongh/camarchive/internal/platform"
	"github.com/sdejongh/camarchive/pkg/config"
)

// loadConfig builds the effective configuration: defaults, then the YAML
// file, then CAMARCHIVE_* variables (after loading the env file)
func loadConfig() (*config.Config, error) {
	if err := config.LoadEnvFile(globalFlags.EnvFile); err != nil {
		return nil, err
	}

	var (
		cfg *config.Config
		err error
	)
	if globalFlags.ConfigFile != "" {
		cfg, err = config.LoadFromFile(globalFlags.ConfigFile)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	return cfg, nil
}

// validateSource checks that dir is an existing directory and returns its
// absolute form
func validateSource(dir string) (string, error) {
	abs, err := platform.NormalizePath(dir)
	if err != nil {
		return "", fmt.Errorf("invalid source path: %w", err)
	}

	info, err := os.Stat(abs)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("source path does not exist: %s", abs)
	} else if err != nil {
		return "", fmt.Errorf("failed to access source path: %w", err)
	} else if !info.IsDir() {
		return "", fmt.Errorf("source path is not a directory: %s", abs)
	}

	return abs, nil
}

// validatePaths normalizes the configured roots and rejects layouts the
// archiver cannot work with
func validatePaths(cfg *config.Config) error {
	paths := &cfg.Paths

	for _, p := range []*string{&paths.Output, &paths.Trash, &paths.Journal} {
		if *p == "" {
			continue
		}
		abs, err := platform.NormalizePath(*p)
		if err != nil {
			return err
		}
		*p = abs
	}

	if paths.Output == "" {
		return fmt.Errorf("output path is required")
	}
	if paths.Output == paths.Source {
		return fmt.Errorf("output and source cannot be the same: %s", paths.Source)
	}
	if platform.IsWithin(paths.Output, paths.Source) {
		return fmt.Errorf("source cannot be inside the output directory")
	}

	if cfg.Policy.PermanentDelete {
		return nil
	}
	if paths.Trash == "" {
		return fmt.Errorf("trash path is required unless --delete is set")
	}
	if paths.Trash == paths.Source || paths.Trash == paths.Output {
		return fmt.Errorf("trash cannot be the source or output directory: %s", paths.Trash)
	}
	if platform.IsWithin(paths.Trash, paths.Source) || platform.IsWithin(paths.Trash, paths.Output) {
		return fmt.Errorf("source and output cannot be inside the trash directory")
	}
	if platform.IsWithin(paths.Output, paths.Trash) {
		return fmt.Errorf("trash cannot be inside the output directory")
	}

	return nil
}
