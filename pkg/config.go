package dupfilehash

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-ini/ini"
)

// Settings are the engine values read once at scan start. Treat a Settings value as immutable.
type Settings struct {
	CeilingBytes uint64         // largest file size that will be hashed; 0 means no ceiling
	Workers      int            // hash worker count; <= 0 means runtime.NumCPU()
	BufferSize   int            // per-worker read buffer; <= 0 means DefaultBufferSize
	Algorithm    *HashAlgorithm // nil means DefaultHashAlgorithm
}

// DefaultSettings returns the settings used when no configuration is available
func DefaultSettings() Settings {
	return Settings{CeilingBytes: DefaultCeilingBytes}.withDefaults()
}

// withDefaults fills unset fields
func (s Settings) withDefaults() Settings {
	if s.Workers <= 0 {
		s.Workers = runtime.NumCPU()
	}
	if s.BufferSize <= 0 {
		s.BufferSize = DefaultBufferSize
	}
	if s.Algorithm == nil {
		s.Algorithm, _ = GetHashAlgorithm(DefaultHashAlgorithm)
	}
	return s
}

// Config represents the dupfind configuration file
type Config struct {
	configPath string
	ini        *ini.File
}

// HashConfig represents hash algorithm configuration
type HashConfig struct {
	Default string // Default hash algorithm
}

// PerformanceConfig represents performance-related configuration
type PerformanceConfig struct {
	Threads       int    // Hash workers, 0 = one per CPU
	MaxHashSizeMB uint64 // Ceiling for hashing in MiB, 0 = unlimited
	HashBuffer    string // Read buffer per worker (default: "8K")
}

// OutputConfig represents output format configuration
type OutputConfig struct {
	Format string // Default report format: human, json, fdupes
}

// VerboseConfig represents verbosity configuration
type VerboseConfig struct {
	Level int    // Default verbose level (0=quiet, 1=basic, 2=detailed, 3=trace)
	Debug string // Default debug flags (comma-separated)
}

// ScanConfig represents default walk options
type ScanConfig struct {
	Recursive  bool
	SkipHidden bool
	MinSize    string // human size, empty = no minimum
}

// AllConfig represents all configuration options
type AllConfig struct {
	Hash        *HashConfig
	Performance *PerformanceConfig
	Output      *OutputConfig
	Verbose     *VerboseConfig
	Scan        *ScanConfig
}

// DefaultConfigPath returns $XDG_CONFIG_HOME/dupfind/config, falling back to ~/.config/dupfind/config
func DefaultConfigPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "dupfind", "config"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not find home directory: %w", err)
	}
	return filepath.Join(home, ".config", "dupfind", "config"), nil
}

// LoadConfig loads configuration from configPath.
// A missing file yields the in-memory defaults; nothing is written.
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{
		configPath: configPath,
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg.ini = ini.Empty()
		if err := cfg.setDefaults(); err != nil {
			return nil, fmt.Errorf("failed to set default config: %w", err)
		}
		return cfg, nil
	}

	iniFile, err := ini.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	cfg.ini = iniFile

	return cfg, nil
}

// InitConfig writes a default configuration file at configPath, replacing any existing one
func InitConfig(configPath string) (*Config, error) {
	cfg := &Config{
		configPath: configPath,
		ini:        ini.Empty(),
	}
	if err := cfg.setDefaults(); err != nil {
		return nil, fmt.Errorf("failed to set default config: %w", err)
	}
	if err := cfg.Save(); err != nil {
		return nil, fmt.Errorf("failed to save default config: %w", err)
	}
	return cfg, nil
}

// setDefaults sets default configuration values
func (c *Config) setDefaults() error {
	defaults := []struct {
		section string
		key     string
		value   string
	}{
		{"filehash", "default", DefaultHashAlgorithm},
		{"performance", "threads", "0"},
		{"performance", "max_hash_size_mb", fmt.Sprintf("%d", DefaultMaxHashSizeMB)},
		{"performance", "hash_buffer", "8K"},
		{"output", "format", DefaultOutputFormat},
		{"verbose", "level", "0"},
		{"verbose", "debug", ""},
		{"scan", "recursive", "true"},
		{"scan", "skip_hidden", "false"},
		{"scan", "min_size", ""},
	}

	for _, d := range defaults {
		section, err := c.ini.NewSection(d.section)
		if err != nil {
			return fmt.Errorf("failed to create %s section: %w", d.section, err)
		}
		if _, err := section.NewKey(d.key, d.value); err != nil {
			return fmt.Errorf("failed to set default %s.%s: %w", d.section, d.key, err)
		}
	}

	return nil
}

// Path returns the file this configuration is read from and saved to
func (c *Config) Path() string {
	return c.configPath
}

// GetHashConfig returns the hash configuration
func (c *Config) GetHashConfig() *HashConfig {
	hashConfig := &HashConfig{
		Default: DefaultHashAlgorithm,
	}

	if c.ini.HasSection("filehash") {
		section := c.ini.Section("filehash")
		if section.HasKey("default") {
			hashConfig.Default = section.Key("default").String()
		}
	}

	return hashConfig
}

// GetPerformanceConfig returns the performance configuration
func (c *Config) GetPerformanceConfig() *PerformanceConfig {
	performanceConfig := &PerformanceConfig{
		Threads:       0,
		MaxHashSizeMB: DefaultMaxHashSizeMB,
		HashBuffer:    "8K",
	}

	if c.ini.HasSection("performance") {
		section := c.ini.Section("performance")
		if section.HasKey("threads") {
			if threads, err := section.Key("threads").Int(); err == nil {
				performanceConfig.Threads = threads
			}
		}
		if section.HasKey("max_hash_size_mb") {
			if maxMB, err := section.Key("max_hash_size_mb").Uint64(); err == nil {
				performanceConfig.MaxHashSizeMB = maxMB
			}
		}
		if section.HasKey("hash_buffer") {
			if bufferSize := section.Key("hash_buffer").String(); bufferSize != "" {
				performanceConfig.HashBuffer = bufferSize
			}
		}
	}

	return performanceConfig
}

// GetOutputConfig returns the output configuration
func (c *Config) GetOutputConfig() *OutputConfig {
	outputConfig := &OutputConfig{
		Format: DefaultOutputFormat,
	}

	if c.ini.HasSection("output") {
		section := c.ini.Section("output")
		if section.HasKey("format") {
			outputConfig.Format = section.Key("format").String()
		}
	}

	return outputConfig
}

// GetVerboseConfig returns the verbose configuration
func (c *Config) GetVerboseConfig() *VerboseConfig {
	verboseConfig := &VerboseConfig{}

	if c.ini.HasSection("verbose") {
		section := c.ini.Section("verbose")
		if section.HasKey("level") {
			if level, err := section.Key("level").Int(); err == nil {
				verboseConfig.Level = level
			}
		}
		if section.HasKey("debug") {
			verboseConfig.Debug = section.Key("debug").String()
		}
	}

	return verboseConfig
}

// GetScanConfig returns the default walk options
func (c *Config) GetScanConfig() *ScanConfig {
	scanConfig := &ScanConfig{
		Recursive: true,
	}

	if c.ini.HasSection("scan") {
		section := c.ini.Section("scan")
		if section.HasKey("recursive") {
			if recursive, err := section.Key("recursive").Bool(); err == nil {
				scanConfig.Recursive = recursive
			}
		}
		if section.HasKey("skip_hidden") {
			if skipHidden, err := section.Key("skip_hidden").Bool(); err == nil {
				scanConfig.SkipHidden = skipHidden
			}
		}
		if section.HasKey("min_size") {
			scanConfig.MinSize = section.Key("min_size").String()
		}
	}

	return scanConfig
}

// GetAllConfig returns all configuration options
func (c *Config) GetAllConfig() *AllConfig {
	return &AllConfig{
		Hash:        c.GetHashConfig(),
		Performance: c.GetPerformanceConfig(),
		Output:      c.GetOutputConfig(),
		Verbose:     c.GetVerboseConfig(),
		Scan:        c.GetScanConfig(),
	}
}

// Settings validates the configuration and builds the engine settings from it
func (c *Config) Settings() (Settings, error) {
	hashConfig := c.GetHashConfig()
	if err := ValidateHashAlgorithm(hashConfig.Default); err != nil {
		return Settings{}, err
	}
	algorithm, err := GetHashAlgorithm(hashConfig.Default)
	if err != nil {
		return Settings{}, err
	}

	perf := c.GetPerformanceConfig()
	if perf.Threads != 0 {
		if err := ValidateHashWorkers(perf.Threads); err != nil {
			return Settings{}, err
		}
	}

	if err := ValidateMaxHashSizeMB(perf.MaxHashSizeMB); err != nil {
		return Settings{}, err
	}

	bufferSize, err := ParseHumanSize(perf.HashBuffer)
	if err != nil {
		return Settings{}, fmt.Errorf("invalid hash_buffer: %w", err)
	}

	settings := Settings{
		CeilingBytes: perf.MaxHashSizeMB << 20,
		Workers:      perf.Threads,
		BufferSize:   int(bufferSize),
		Algorithm:    algorithm,
	}
	return settings.withDefaults(), nil
}

// Save saves the configuration to disk, creating its directory if needed
func (c *Config) Save() error {
	if err := os.MkdirAll(filepath.Dir(c.configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return c.ini.SaveTo(c.configPath)
}

// overrideKeys maps override keys to their section
var overrideKeys = map[string]string{
	"default":          "filehash",
	"threads":          "performance",
	"max_hash_size_mb": "performance",
	"hash_buffer":      "performance",
	"format":           "output",
	"level":            "verbose",
	"debug":            "verbose",
	"recursive":        "scan",
	"skip_hidden":      "scan",
	"min_size":         "scan",
}

// ApplyOverrides applies command-line overrides to the configuration
// Accepts strings like "default:sha512", "format:json", "threads:8", "max_hash_size_mb:2048"
func (c *Config) ApplyOverrides(overrides []string) error {
	for _, override := range overrides {
		parts := strings.SplitN(override, ":", 2)
		if len(parts) != 2 {
			return fmt.Errorf("invalid override format '%s', expected 'key:value'", override)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		sectionName, ok := overrideKeys[key]
		if !ok {
			return fmt.Errorf("unsupported override key '%s' (supported: default, threads, max_hash_size_mb, hash_buffer, format, level, debug, recursive, skip_hidden, min_size)", key)
		}
		c.ini.Section(sectionName).Key(key).SetValue(value)
	}

	return nil
}

// ValidateHashAlgorithm validates that a hash algorithm is supported.
// SHA-1 is refused: duplicate detection trusts digests, so collisions must be infeasible.
func ValidateHashAlgorithm(algorithm string) error {
	switch strings.ToLower(algorithm) {
	case "sha256", "sha512", "blake3":
		return nil
	default:
		return fmt.Errorf("unsupported hash algorithm: %s (supported: sha256, sha512, blake3)", algorithm)
	}
}

// ValidateOutputFormat validates that an output format is supported
func ValidateOutputFormat(format string) error {
	switch strings.ToLower(format) {
	case FormatHuman, FormatJSON, FormatFdupes:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %s (supported: human, json, fdupes)", format)
	}
}

// ValidateVerboseLevel validates that a verbose level is valid
func ValidateVerboseLevel(level int) error {
	if level < 0 || level > 3 {
		return fmt.Errorf("invalid verbose level: %d (supported: 0-3)", level)
	}
	return nil
}

// maxHashSizeMBLimit is the largest max_hash_size_mb whose byte count fits in a uint64
const maxHashSizeMBLimit = math.MaxUint64 >> 20

// ValidateMaxHashSizeMB rejects ceilings that overflow when converted to bytes
func ValidateMaxHashSizeMB(mb uint64) error {
	if mb > maxHashSizeMBLimit {
		return fmt.Errorf("max_hash_size_mb too large: %d (maximum: %d)", mb, uint64(maxHashSizeMBLimit))
	}
	return nil
}

// ValidateMinSize validates a human-readable minimum file size; empty means no minimum
func ValidateMinSize(minSize string) error {
	if minSize == "" {
		return nil
	}
	if _, err := ParseHumanSize(minSize); err != nil {
		return fmt.Errorf("invalid min_size: %w", err)
	}
	return nil
}

// ValidateHashWorkers validates that the hash worker count is reasonable
func ValidateHashWorkers(workers int) error {
	if workers < 1 {
		return fmt.Errorf("hash workers must be at least 1, got: %d", workers)
	}
	if workers > 256 {
		return fmt.Errorf("hash workers should not exceed 256, got: %d", workers)
	}
	return nil
}
