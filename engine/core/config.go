package core

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// DefaultMaxStringLength bounds null-terminated strings read from a stream.
const DefaultMaxStringLength int = 1 << 16

/** @brief Logging configuration. */
type LogConfig struct {
	/** @brief One of debug, info, warn, error, fatal. */
	Level string `toml:"level"`
}

/** @brief Removable storage configuration. */
type StorageConfig struct {
	/** @brief Absolute directory used to resolve relative storage paths. */
	Root string `toml:"root"`
}

/** @brief Stream decoding configuration. */
type ParserConfig struct {
	/** @brief Maximum number of bytes in a null-terminated string. */
	MaxStringLength int `toml:"max_string_length"`
}

/** @brief Asset sources configuration. */
type AssetsConfig struct {
	/** @brief Watch the storage root for changes and invalidate cached meshes. */
	Watch bool `toml:"watch"`
	/** @brief Optional zip bundle serving bundled assets. */
	Bundle string `toml:"bundle"`
	/** @brief Optional TOML manifest describing raw resources. */
	Manifest string `toml:"manifest"`
}

/** @brief Worker pool configuration. */
type JobsConfig struct {
	Workers   int `toml:"workers"`
	QueueSize int `toml:"queue_size"`
}

/** @brief Texture system configuration. */
type TexturesConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxCount uint32 `toml:"max_count"`
}

// Config is the loader configuration, usually read from anima.toml.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Storage  StorageConfig  `toml:"storage"`
	Parser   ParserConfig   `toml:"parser"`
	Assets   AssetsConfig   `toml:"assets"`
	Jobs     JobsConfig     `toml:"jobs"`
	Textures TexturesConfig `toml:"textures"`
}

func DefaultConfig() *Config {
	wd, err := os.Getwd()
	if err != nil {
		wd = string(filepath.Separator)
	}
	return &Config{
		Log:      LogConfig{Level: "info"},
		Storage:  StorageConfig{Root: wd},
		Parser:   ParserConfig{MaxStringLength: DefaultMaxStringLength},
		Jobs:     JobsConfig{Workers: 1, QueueSize: 16},
		Textures: TexturesConfig{MaxCount: 1024},
	}
}

// LoadConfig reads a TOML file on top of DefaultConfig. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg, err := DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	// Relative storage roots are taken relative to the config file.
	if !filepath.IsAbs(cfg.Storage.Root) {
		cfg.Storage.Root = filepath.Join(filepath.Dir(path), cfg.Storage.Root)
	}
	if abs, err := filepath.Abs(cfg.Storage.Root); err == nil {
		cfg.Storage.Root = abs
	}
	return cfg, nil
}

func DecodeConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Parser.MaxStringLength <= 0 {
		return fmt.Errorf("parser.max_string_length must be > 0")
	}
	if c.Jobs.Workers <= 0 {
		return fmt.Errorf("jobs.workers must be > 0")
	}
	if c.Jobs.QueueSize < 0 {
		return fmt.Errorf("jobs.queue_size must be >= 0")
	}
	if c.Textures.MaxCount == 0 {
		return fmt.Errorf("textures.max_count must be > 0")
	}
	return nil
}
