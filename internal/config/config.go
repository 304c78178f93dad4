// Package config loads filterplay settings from TOML.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/gogpu/filterplay/binding"
	"github.com/gogpu/filterplay/internal/exttool"
	"github.com/gogpu/filterplay/kernel"
)

// ErrInvalid is returned for settings that parse but make no sense.
var ErrInvalid = errors.New("config: invalid settings")

// Duration is a time.Duration written as a Go duration string ("30s").
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Metal configures the external compiler used for compute kernels.
type Metal struct {
	// Command may use the {src} and {out} placeholders.
	Command string   `toml:"command"`
	Timeout Duration `toml:"timeout"`
}

// Settings are the user preferences.
type Settings struct {
	// Indent is the number of spaces per indent level; zero means a tab.
	Indent        int      `toml:"indent"`
	AutoCompile   bool     `toml:"auto_compile"`
	KernelType    string   `toml:"kernel_type"`
	FrameInterval Duration `toml:"frame_interval"`
	LogLevel      string   `toml:"log_level"`
	Metal         Metal    `toml:"metal"`
}

// Default returns the built-in settings.
func Default() Settings {
	return Settings{
		Indent:        4,
		AutoCompile:   true,
		KernelType:    string(kernel.TypeColor),
		FrameInterval: Duration(binding.DefaultFrameInterval),
		LogLevel:      "info",
		Metal: Metal{
			Command: exttool.DefaultMetalCommand,
			Timeout: Duration(exttool.DefaultTimeout),
		},
	}
}

// Load reads settings from path over the defaults. A missing file yields
// the defaults.
func Load(path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Settings{}, err
	}
	return Parse(data)
}

// Parse decodes TOML over the defaults and validates the result.
func Parse(data []byte) (Settings, error) {
	s := Default()
	if err := toml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("config: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Marshal encodes s as TOML.
func (s Settings) Marshal() ([]byte, error) {
	return toml.Marshal(s)
}

// Validate checks value ranges and names.
func (s Settings) Validate() error {
	if s.Indent < 0 || s.Indent > 16 {
		return fmt.Errorf("%w: indent %d out of range", ErrInvalid, s.Indent)
	}
	if !kernel.Type(s.KernelType).IsValid() {
		return fmt.Errorf("%w: kernel_type %q", ErrInvalid, s.KernelType)
	}
	if s.FrameInterval <= 0 {
		return fmt.Errorf("%w: frame_interval must be positive", ErrInvalid)
	}
	if _, err := s.Level(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Spacing returns the indent string of one level.
func (s Settings) Spacing() string {
	if s.Indent == 0 {
		return "\t"
	}
	return strings.Repeat(" ", s.Indent)
}

// Type returns the default kernel type.
func (s Settings) Type() kernel.Type { return kernel.Type(s.KernelType) }

// Level parses LogLevel.
func (s Settings) Level() (slog.Level, error) {
	var l slog.Level
	err := l.UnmarshalText([]byte(s.LogLevel))
	return l, err
}

// Toolchain returns the external toolchain described by s.Metal.
func (s Settings) Toolchain(logger *slog.Logger) kernel.ExternalToolchain {
	return kernel.NewExternalToolchain(s.Metal.Command, logger).
		WithTimeout(time.Duration(s.Metal.Timeout))
}
