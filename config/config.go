// Package config loads toolchain settings from a TOML file.
//
//	[modules]
//	search-paths = ["lib", "/usr/share/slang"]
//	extension = "cmod"
//	byte-order = "little"
//
//	[link]
//	delimiter = "::"
//	max-macro-passes = 16
//
//	[log]
//	level = "info"
//	encoding = "console"
package config

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wippyai/slang/errors"
	"github.com/wippyai/slang/files"
	"github.com/wippyai/slang/linker"
	"github.com/wippyai/slang/module"
)

// FileName is the configuration file looked up in the working directory.
const FileName = "slang.toml"

// Config is the decoded configuration file.
type Config struct {
	Modules Modules `toml:"modules"`
	Link    Link    `toml:"link"`
	Log     Log     `toml:"log"`
}

// Modules configures module lookup and encoding.
type Modules struct {
	Extension   string   `toml:"extension"`
	ByteOrder   string   `toml:"byte-order"`
	SearchPaths []string `toml:"search-paths,omitempty"`
}

// Link configures import resolution.
type Link struct {
	Delimiter      string `toml:"delimiter"`
	MaxMacroPasses int    `toml:"max-macro-passes"`
}

// Log configures the logger.
type Log struct {
	Level    string `toml:"level"`
	Encoding string `toml:"encoding"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Modules: Modules{
			Extension: module.Extension,
			ByteOrder: "little",
		},
		Link: Link{
			Delimiter:      linker.DefaultDelimiter,
			MaxMacroPasses: linker.DefaultMaxMacroPasses,
		},
		Log: Log{
			Level:    "warn",
			Encoding: "console",
		},
	}
}

// Load reads path from fs. Settings missing from the file keep their
// defaults; relative search paths are taken relative to the file. A
// missing file yields the defaults.
func Load(fs afero.Fs, path string) (*Config, error) {
	buff, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read "+path)
	}
	cfg, err := Parse(buff)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	for i, p := range cfg.Modules.SearchPaths {
		if !filepath.IsAbs(p) {
			cfg.Modules.SearchPaths[i] = filepath.Join(dir, p)
		}
	}
	return cfg, nil
}

// Parse decodes a TOML document, fills unset settings with defaults and
// validates the result.
func Parse(buff []byte) (*Config, error) {
	cfg := &Config{}
	if err := toml.Unmarshal(buff, cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parse configuration")
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	def := Default()
	if c.Modules.Extension == "" {
		c.Modules.Extension = def.Modules.Extension
	}
	if c.Modules.ByteOrder == "" {
		c.Modules.ByteOrder = def.Modules.ByteOrder
	}
	if c.Link.Delimiter == "" {
		c.Link.Delimiter = def.Link.Delimiter
	}
	if c.Link.MaxMacroPasses == 0 {
		c.Link.MaxMacroPasses = def.Link.MaxMacroPasses
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Encoding == "" {
		c.Log.Encoding = def.Log.Encoding
	}
}

func invalid(key string, format string, args ...any) error {
	return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
		Path(strings.Split(key, ".")...).
		Detail(format, args...).
		Build()
}

// Validate checks every setting.
func (c *Config) Validate() error {
	if c.Modules.Extension == "" || strings.ContainsAny(c.Modules.Extension, "./\\") {
		return invalid("modules.extension", "invalid extension %q", c.Modules.Extension)
	}
	if _, err := parseByteOrder(c.Modules.ByteOrder); err != nil {
		return err
	}
	if c.Link.Delimiter == "" {
		return invalid("link.delimiter", "empty delimiter")
	}
	if c.Link.MaxMacroPasses <= 0 {
		return invalid("link.max-macro-passes", "must be positive, got %d", c.Link.MaxMacroPasses)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return invalid("log.level", "unknown level %q", c.Log.Level)
	}
	switch c.Log.Encoding {
	case "console", "json":
	default:
		return invalid("log.encoding", "unknown encoding %q", c.Log.Encoding)
	}
	return nil
}

func parseByteOrder(s string) (binary.ByteOrder, error) {
	switch strings.ToLower(s) {
	case "little", "le":
		return binary.LittleEndian, nil
	case "big", "be":
		return binary.BigEndian, nil
	}
	return nil, invalid("modules.byte-order", "unknown byte order %q", s)
}

// ByteOrder returns the configured archive byte order.
func (c *Config) ByteOrder() binary.ByteOrder {
	order, err := parseByteOrder(c.Modules.ByteOrder)
	if err != nil {
		return binary.LittleEndian
	}
	return order
}

// FileOptions returns the file manager options for this configuration.
func (c *Config) FileOptions() []files.Option {
	return []files.Option{
		files.WithByteOrder(c.ByteOrder()),
		files.WithSearchPaths(c.Modules.SearchPaths...),
	}
}

// LinkerOptions returns the linker options for this configuration.
func (c *Config) LinkerOptions() linker.Options {
	return linker.Options{
		Extension:      c.Modules.Extension,
		Delimiter:      c.Link.Delimiter,
		MaxMacroPasses: c.Link.MaxMacroPasses,
	}
}

// NewLogger builds a logger writing to stderr.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, invalid("log.level", "unknown level %q", c.Log.Level)
	}
	zc := zap.NewDevelopmentConfig()
	if c.Log.Encoding == "json" {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level
	zc.Encoding = c.Log.Encoding
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

// Marshal encodes c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(*c)
}
