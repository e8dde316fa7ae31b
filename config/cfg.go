// Package config loads program configuration: an embedded YAML template
// with defaults, optionally overlaid by a user file.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"github.com/ByLCY/furigana/ruby"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	EngineConfig struct {
		MaxDepth    int    `yaml:"max_depth" validate:"min=1,max=1024"`
		Granularity string `yaml:"granularity" validate:"oneof=codepoint grapheme"`
		FillGaps    bool   `yaml:"fill_gaps"`
	}

	RenderConfig struct {
		Format        string `yaml:"format" validate:"oneof=pdf svg trace"`
		DefaultFont   string `yaml:"default_font" validate:"required"`
		DebugRawUnits bool   `yaml:"debug_raw_units"`
	}

	Config struct {
		Version int           `yaml:"version" validate:"eq=1"`
		Logging LoggingConfig `yaml:"logging"`
		Engine  EngineConfig  `yaml:"engine"`
		Render  RenderConfig  `yaml:"render"`
	}
)

// Options converts the engine section into ruby engine options.
func (c EngineConfig) Options() ruby.Options {
	opts := ruby.Options{
		MaxDepth:       c.MaxDepth,
		DisableGapFill: !c.FillGaps,
	}
	if c.Granularity == "grapheme" {
		opts.Granularity = ruby.Grapheme
	}
	return opts
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration returns defaults from the embedded template, overlaid
// with path when it is not empty.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, options...)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	cfg, err := unmarshalConfig(data, &Config{}, !haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration template: %w", err)
	}
	if !haveFile {
		return cfg, nil
	}

	data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err = unmarshalConfig(data, cfg, haveFile)
	if err != nil {
		return nil, fmt.Errorf("failed to process configuration file: %w", err)
	}
	return cfg, nil
}

// Prepare returns the processed default configuration.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl)
}

// Dump marshals the active configuration.
func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
