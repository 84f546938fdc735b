// Package config loads program configuration from embedded YAML template and
// optional user supplied file.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"

	"pstyle/css"
)

//go:embed config.yaml.tmpl
var ConfigTmpl []byte

type (
	TemplateFieldName string

	MediumConfig struct {
		Type   string  `yaml:"type" validate:"required"`
		Width  float64 `yaml:"width" validate:"gte=0"`
		Height float64 `yaml:"height" validate:"gte=0"`
	}

	EngineConfig struct {
		Medium MediumConfig `yaml:"medium"`
		// UserAgent enables user agent stylesheet, built-in one unless
		// UserAgentPath is set.
		UserAgent     bool   `yaml:"user_agent"`
		UserAgentPath string `yaml:"user_agent_path" sanitize:"assure_file_access"`
		// Stylesheets are added after the user agent sheet and before
		// stylesheets found in documents.
		Stylesheets []string `yaml:"stylesheets" validate:"dive,required"`
		// Embedded controls whether <style> and FB2 <stylesheet> content of
		// the document is used.
		Embedded bool `yaml:"embedded"`
	}

	OutputConfig struct {
		Format OutputFormat `yaml:"format"`
		// Template is text/template applied to styling results instead of
		// YAML output when not empty.
		Template string `yaml:"template"`
		// Properties limits reported properties, empty means all cascaded.
		Properties []string `yaml:"properties" validate:"dive,required"`
	}

	Config struct {
		Version   int            `yaml:"version" validate:"eq=1"`
		Engine    EngineConfig   `yaml:"engine"`
		Output    OutputConfig   `yaml:"output"`
		Logging   LoggingConfig  `yaml:"logging"`
		Reporting ReporterConfig `yaml:"reporting"`
	}
)

const (
	// NOTE: must match yaml field name above
	OutputTemplateFieldName TemplateFieldName = "template"
)

var requiredOptions = append([]func(*gencfg.ProcessingOptions){},
	gencfg.WithDoNotExpandField(string(OutputTemplateFieldName)),
)

// Medium converts configuration into medium stylesheets are evaluated for.
func (conf *EngineConfig) Medium() css.Medium {
	return css.Medium{Type: conf.Medium.Type, Width: conf.Medium.Width, Height: conf.Medium.Height}
}

func unmarshalConfig(data []byte, cfg *Config, process bool) (*Config, error) {
	// only fields we defined are allowed
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}
	if process {
		if err := gencfg.Sanitize(cfg); err != nil {
			return nil, err
		}
		if err := gencfg.Validate(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// LoadConfiguration reads the configuration from the file at the given path,
// superimposes its values on top of expanded configuration template to provide
// sane defaults and performs validation.
func LoadConfiguration(path string, options ...func(*gencfg.ProcessingOptions)) (*Config, error) {
	haveFile := len(path) > 0

	data, err := gencfg.Process(ConfigTmpl, append(requiredOptions, options...)...)
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

// Prepare generates configuration file from template and returns it as a byte
// slice.
func Prepare() ([]byte, error) {
	return gencfg.Process(ConfigTmpl, requiredOptions...)
}

func Dump(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config to yaml: %w", err)
	}
	return data, nil
}
