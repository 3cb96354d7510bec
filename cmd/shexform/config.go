package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	theme "github.com/goliatone/go-theme"
	"gopkg.in/yaml.v3"
)

// Config is the optional YAML file named by --config. Flags win over it.
type Config struct {
	Schema   string        `yaml:"schema"`
	Start    string        `yaml:"start"`
	Root     string        `yaml:"root"`
	Base     string        `yaml:"base"`
	Renderer string        `yaml:"renderer"`
	Overlays []string      `yaml:"overlays"`
	Depth    int           `yaml:"depth"`
	Theme    ThemeConfig   `yaml:"theme"`
	Server   ServerConfig  `yaml:"server"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ThemeConfig selects a theme and declares the manifests to choose from.
type ThemeConfig struct {
	Name      string           `yaml:"name"`
	Variant   string           `yaml:"variant"`
	Manifests []ManifestConfig `yaml:"manifests"`
}

// ManifestConfig mirrors a go-theme manifest.
type ManifestConfig struct {
	Name      string                   `yaml:"name"`
	Version   string                   `yaml:"version"`
	Tokens    map[string]string        `yaml:"tokens"`
	Templates map[string]string        `yaml:"templates"`
	Assets    AssetsConfig             `yaml:"assets"`
	Variants  map[string]VariantConfig `yaml:"variants"`
}

// VariantConfig mirrors a go-theme variant.
type VariantConfig struct {
	Tokens    map[string]string `yaml:"tokens"`
	Templates map[string]string `yaml:"templates"`
	Assets    AssetsConfig      `yaml:"assets"`
}

// AssetsConfig mirrors go-theme asset declarations.
type AssetsConfig struct {
	Prefix string            `yaml:"prefix"`
	Files  map[string]string `yaml:"files"`
}

// ServerConfig holds the serve command defaults.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	BasePath      string        `yaml:"basePath"`
	IdleTimeout   time.Duration `yaml:"idleTimeout"`
	SweepInterval time.Duration `yaml:"sweepInterval"`
	MaxSessions   int           `yaml:"maxSessions"`
	Origins       []string      `yaml:"origins"`
	DisableLive   bool          `yaml:"disableLive"`
}

// LoadConfig reads path. An empty path yields an empty config.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return ParseConfig(data, path)
}

// ParseConfig decodes a config document. Unknown keys are rejected.
func ParseConfig(data []byte, source string) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: parse %s: %w", source, err)
	}
	return cfg, nil
}

// ThemeManifests converts the configured manifests to go-theme values.
func (c ThemeConfig) ThemeManifests() []*theme.Manifest {
	out := make([]*theme.Manifest, 0, len(c.Manifests))
	for _, m := range c.Manifests {
		manifest := &theme.Manifest{
			Name:      m.Name,
			Version:   m.Version,
			Tokens:    m.Tokens,
			Templates: m.Templates,
			Assets:    theme.Assets{Prefix: m.Assets.Prefix, Files: m.Assets.Files},
		}
		if len(m.Variants) > 0 {
			manifest.Variants = make(map[string]theme.Variant, len(m.Variants))
			for name, v := range m.Variants {
				manifest.Variants[name] = theme.Variant{
					Tokens:    v.Tokens,
					Templates: v.Templates,
					Assets:    theme.Assets{Prefix: v.Assets.Prefix, Files: v.Assets.Files},
				}
			}
		}
		out = append(out, manifest)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
