// Package config reads and writes the optional persisted defaults for
// fsarc, decoded with the same TOML library and Manager shape the teacher
// codebase uses for its own configuration file.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for fsarc. The archive-mode
// fields (CompLevel through SizeFilter) mirror CLI flags and supply their
// defaults; flags passed on the command line always override whatever the
// config file says. BaseDir, LogDir and Encryption have no flag.
type Config struct {
	BaseDir     string           `toml:"base_dir"`
	LogDir      string           `toml:"log_dir"`
	CompLevel   int              `toml:"comp_level"`
	NoComp      bool             `toml:"no_comp"`
	CompFilter  []string         `toml:"comp_filter"`
	UseBsdiff   bool             `toml:"use_bsdiff"`
	Exclude     []string         `toml:"exclude"`
	BuiltinExcl bool             `toml:"builtin_excl"`
	SizeFilter  string           `toml:"size_filter"`
	Encryption  EncryptionConfig `toml:"encryption"`
}

// EncryptionConfig holds paths to the age key pair used for the optional
// --encrypt extension, which encrypts each whole snapshot file.
type EncryptionConfig struct {
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// NewConfig creates a new Config with default key paths under baseDir.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "fsarc.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "fsarc.key"),
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from path. A missing file is not an error: it
// returns a zero-value Config so the caller's own flag defaults apply.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
