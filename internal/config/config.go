package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"

	"github.com/marcin-skalski/progress-tracker/internal/fsutil"
)

// FileName is the config file looked up in the manuscript repository root.
const FileName = ".progress-tracker.config"

const (
	AutoMainFile = "auto"

	DefaultStartMarker = "<!-- PROGRESS-TRACKER-START -->"
	DefaultEndMarker   = "<!-- PROGRESS-TRACKER-END -->"
)

type Config struct {
	MainTexFile     string       `json:"main_tex_file" yaml:"main_tex_file"`
	TexcountOptions string       `json:"texcount_options" yaml:"texcount_options"`
	PlotStyle       PlotStyle    `json:"plot_style" yaml:"plot_style"`
	Readme          ReadmeConfig `json:"readme" yaml:"readme"`
	Output          OutputConfig `json:"output" yaml:"output"`
	Log             LogConfig    `json:"log" yaml:"log"`
}

type PlotStyle struct {
	FigureSize       []float64           `json:"figure_size" yaml:"figure_size"`
	DPI              int                 `json:"dpi" yaml:"dpi"`
	LineColor        string              `json:"line_color" yaml:"line_color"`
	AnnotationHeight int                 `json:"annotation_height" yaml:"annotation_height"`
	Categories       map[string]Category `json:"categories" yaml:"categories"`
}

// Category is how commits tagged "Name: ..." are drawn.
type Category struct {
	Icon  string `json:"icon" yaml:"icon"`
	Color string `json:"color" yaml:"color"`
}

type ReadmeConfig struct {
	Path        string `json:"path" yaml:"path"`
	StartMarker string `json:"start_marker" yaml:"start_marker"`
	EndMarker   string `json:"end_marker" yaml:"end_marker"`
}

type OutputConfig struct {
	DataFile string `json:"data_file" yaml:"data_file"`
	PlotFile string `json:"plot_file" yaml:"plot_file"`
}

type LogConfig struct {
	Level string `json:"level" yaml:"level"`
	File  string `json:"file" yaml:"file"`
}

// Error reports a config file that could not be used. It is never fatal:
// Load returns the defaults alongside it.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("config %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func DefaultCategories() map[string]Category {
	return map[string]Category{
		"Notes":     {Icon: "📝", Color: "#4CAF50"},
		"Milestone": {Icon: "🎯", Color: "#FF9800"},
		"Revisions": {Icon: "✏️", Color: "#F44336"},
		"Progress":  {Icon: "📈", Color: "#2196F3"},
		"Fix":       {Icon: "🔧", Color: "#9C27B0"},
		"Reference": {Icon: "📚", Color: "#795548"},
		"Other":     {Icon: "•", Color: "#607D8B"},
	}
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	cfg.setDefaults()
	return cfg
}

// Load reads the config at path. A missing file yields the defaults and no error.
// An unreadable or invalid file yields the defaults and an *Error.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return Default(), &Error{Path: path, Err: fmt.Errorf("read config: %w", err)}
	}

	var cfg Config
	if err := decode(path, data, &cfg); err != nil {
		return Default(), &Error{Path: path, Err: fmt.Errorf("parse config: %w", err)}
	}

	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return Default(), &Error{Path: path, Err: fmt.Errorf("validate config: %w", err)}
	}

	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return json.Unmarshal(data, cfg)
	}
}

// Save writes cfg to path atomically, as YAML for .yaml/.yml paths and JSON otherwise.
func Save(path string, cfg Config) error {
	data, err := encode(path, cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func encode(path string, cfg Config) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Marshal(cfg)
	default:
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
}

func (c *Config) setDefaults() {
	if c.MainTexFile == "" {
		c.MainTexFile = AutoMainFile
	}
	if c.TexcountOptions == "" {
		c.TexcountOptions = "-inc -chinese -japanese -korean -total"
	}

	p := &c.PlotStyle
	if len(p.FigureSize) != 2 {
		p.FigureSize = []float64{10, 6}
	}
	if p.DPI == 0 {
		p.DPI = 150
	}
	if p.LineColor == "" {
		p.LineColor = "#2E86AB"
	}
	if p.AnnotationHeight == 0 {
		p.AnnotationHeight = 2
	}
	if p.Categories == nil {
		p.Categories = DefaultCategories()
	}
	for name, cat := range p.Categories {
		if cat.Icon == "" {
			cat.Icon = "•"
		}
		if cat.Color == "" {
			cat.Color = "#607D8B"
		}
		p.Categories[name] = cat
	}

	if c.Readme.Path == "" {
		c.Readme.Path = "README.md"
	}
	if c.Readme.StartMarker == "" {
		c.Readme.StartMarker = DefaultStartMarker
	}
	if c.Readme.EndMarker == "" {
		c.Readme.EndMarker = DefaultEndMarker
	}

	if c.Output.DataFile == "" {
		c.Output.DataFile = filepath.Join(".progress-data", "progress.json")
	}
	if c.Output.PlotFile == "" {
		c.Output.PlotFile = "progress_plot.png"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func (c *Config) validate() error {
	p := c.PlotStyle
	if p.FigureSize[0] <= 0 || p.FigureSize[1] <= 0 {
		return fmt.Errorf("plot_style.figure_size must be positive, got %v", p.FigureSize)
	}
	if p.DPI < 0 {
		return fmt.Errorf("plot_style.dpi must be positive, got %d", p.DPI)
	}
	if p.AnnotationHeight < 0 {
		return fmt.Errorf("plot_style.annotation_height must be positive, got %d", p.AnnotationHeight)
	}
	if _, err := colorful.Hex(p.LineColor); err != nil {
		return fmt.Errorf("plot_style.line_color %q: %w", p.LineColor, err)
	}
	for name, cat := range p.Categories {
		if _, err := colorful.Hex(cat.Color); err != nil {
			return fmt.Errorf("plot_style.categories[%s].color %q: %w", name, cat.Color, err)
		}
	}
	if c.Readme.StartMarker == c.Readme.EndMarker {
		return fmt.Errorf("readme markers must differ, both are %q", c.Readme.StartMarker)
	}
	return nil
}
