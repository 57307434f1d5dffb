package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alexflint/go-arg"
	"github.com/fatih/color"
	"gopkg.in/yaml.v2"
)

// arguments holds the command-line arguments
type arguments struct {
	SourceDir          string `arg:"positional" help:"Folder containing the media files to rename (default: current directory)"`
	ConfigFile         string `arg:"--config" help:"Path to config file"`
	Flat               bool   `arg:"--flat" help:"Only rename files directly inside the folder"`
	DryRun             bool   `arg:"--dry-run" help:"Report renames without performing them"`
	Verbose            bool   `arg:"-v,--verbose" help:"Enable verbose output"`
	KeepExtensionCase  bool   `arg:"--keep-extension-case" help:"Keep the original case of file extensions"`
	Conflict           string `arg:"--conflict" help:"Action when a different file already has the target name (suffix/skip)" default:"suffix"`
	ChecksumDuplicates bool   `arg:"--checksum-duplicates" help:"Compare checksums to identify duplicates (default true; =false compares sizes only)"`
	VideoLocalTime     bool   `arg:"--video-local-time" help:"Name videos by local time instead of UTC"`
	FFprobePath        string `arg:"--ffprobe" help:"ffprobe binary used for containers go-mp4 cannot read"`
	NoColor            bool   `arg:"--no-color" help:"Disable colored output"`
}

var args arguments

type ConflictAction string

const (
	ConflictSuffix ConflictAction = "suffix"
	ConflictSkip   ConflictAction = "skip"
)

func isValidConflictAction(a ConflictAction) bool {
	return a == ConflictSuffix || a == ConflictSkip
}

// config holds the application configuration
type config struct {
	SourceDir          string         `yaml:"source_directory"`
	ConfigFile         string         `yaml:"-"`
	ImageExtensions    []string       `yaml:"image_extensions"`
	VideoExtensions    []string       `yaml:"video_extensions"`
	Flat               bool           `yaml:"flat"`
	DryRun             bool           `yaml:"dry_run"`
	Verbose            bool           `yaml:"verbose"`
	KeepExtensionCase  bool           `yaml:"keep_extension_case"`
	Conflict           ConflictAction `yaml:"conflict"`
	ChecksumDuplicates bool           `yaml:"checksum_duplicates"`
	VideoLocalTime     bool           `yaml:"video_local_time"`
	FFprobePath        string         `yaml:"ffprobe_path"`
	NoColor            bool           `yaml:"no_color"`
}

// setDefaults initializes the config with default values. Without a home
// directory there is no default config file.
func setDefaults(cfg *config) {
	cfg.ConfigFile = ""
	if homeDir, err := os.UserHomeDir(); err == nil {
		cfg.ConfigFile = filepath.Join(homeDir, ".gomediarenamerc")
	}
	cfg.ImageExtensions = append([]string(nil), defaultImageExtensions...)
	cfg.VideoExtensions = append([]string(nil), defaultVideoExtensions...)
	cfg.Flat = false
	cfg.DryRun = false
	cfg.Verbose = false
	cfg.KeepExtensionCase = false
	cfg.Conflict = ConflictSuffix
	cfg.ChecksumDuplicates = true
	cfg.VideoLocalTime = false
	cfg.FFprobePath = "ffprobe"
	cfg.NoColor = false
}

// parseConfigFile reads and parses the YAML configuration file
func parseConfigFile(cfg *config) error {
	if cfg.ConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(cfg.ConfigFile)
	if err != nil {
		if os.IsNotExist(err) {
			// Config file doesn't exist, just return without an error
			return nil
		}
		return fmt.Errorf("failed to read config file: %v", err)
	}

	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		return fmt.Errorf("failed to parse config file: %v", err)
	}

	return nil
}

// validateConfig checks if the configuration is valid
func validateConfig(cfg *config) error {
	if cfg.SourceDir == "" {
		return fmt.Errorf("source directory is not specified")
	}

	info, err := os.Stat(cfg.SourceDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("source directory does not exist: %s", cfg.SourceDir)
	}
	if err != nil {
		return fmt.Errorf("cannot access source directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source is not a directory: %s", cfg.SourceDir)
	}

	if len(cfg.ImageExtensions) == 0 && len(cfg.VideoExtensions) == 0 {
		return fmt.Errorf("no image or video extensions configured")
	}

	if !isValidConflictAction(cfg.Conflict) {
		return fmt.Errorf("invalid conflict action: %q (must be suffix or skip)", cfg.Conflict)
	}

	return nil
}

// wasFlagProvided checks if a CLI flag was explicitly provided
func wasFlagProvided(flagName string) bool {
	for _, a := range os.Args[1:] {
		if a == flagName || strings.HasPrefix(a, flagName+"=") {
			return true
		}
	}
	return false
}

// applyArgs overrides config values with flags that were given explicitly.
func applyArgs(cfg *config) {
	if args.SourceDir != "" {
		cfg.SourceDir = args.SourceDir
	}
	if wasFlagProvided("--flat") {
		cfg.Flat = args.Flat
	}
	if wasFlagProvided("--dry-run") {
		cfg.DryRun = args.DryRun
	}
	if wasFlagProvided("-v") || wasFlagProvided("--verbose") {
		cfg.Verbose = args.Verbose
	}
	if wasFlagProvided("--keep-extension-case") {
		cfg.KeepExtensionCase = args.KeepExtensionCase
	}
	if wasFlagProvided("--conflict") {
		cfg.Conflict = ConflictAction(args.Conflict)
	}
	if wasFlagProvided("--checksum-duplicates") {
		cfg.ChecksumDuplicates = args.ChecksumDuplicates
	}
	if wasFlagProvided("--video-local-time") {
		cfg.VideoLocalTime = args.VideoLocalTime
	}
	if args.FFprobePath != "" {
		cfg.FFprobePath = args.FFprobePath
	}
	if wasFlagProvided("--no-color") {
		cfg.NoColor = args.NoColor
	}
}

func run() error {
	// Create an instance of the config struct
	cfg := config{}

	// Set default values first
	setDefaults(&cfg)

	// Parse command-line arguments
	arg.MustParse(&args)

	// Apply config file path from command-line argument if provided
	if args.ConfigFile != "" {
		cfg.ConfigFile = args.ConfigFile
	}

	// Parse configuration file
	if err := parseConfigFile(&cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	applyArgs(&cfg)

	// Without a folder the current working directory is renamed
	if cfg.SourceDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("getting working directory: %w", err)
		}
		cfg.SourceDir = wd
	}

	// Validate the configuration
	if err := validateConfig(&cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cls, err := newClassifier(cfg.ImageExtensions, cfg.VideoExtensions)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if cfg.NoColor {
		color.NoColor = true
	}

	rep := newReporter(color.Output, cfg.Verbose)
	if _, err := renameMedia(cfg, cls, newMetadataExtractor(cfg), rep); err != nil {
		return fmt.Errorf("renaming media: %w", err)
	}

	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
