// Package config loads hsl project files.
//
// A project file is hsl.yaml, hsl.yml, hsl.toml or hsl.json. Whatever the
// format, the document is validated against one embedded JSON schema and
// its version is checked against the language version before any value is
// used. Keys left out keep their defaults.
//
//	version: 1.0.0
//	lexer:
//	  number_separator: "'"
//	  keywords: { fun: fn }
//	runtime:
//	  mode: strict
//	  max_steps: 100000
//	  modules: [math]
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// LanguageVersion is the newest language version this build understands.
// Project files may ask for any earlier version with the same major.
const LanguageVersion = "v1.0.0"

// FileNames are the project file names Find looks for, in order.
var FileNames = []string{"hsl.yaml", "hsl.yml", "hsl.toml", "hsl.json"}

// ErrNotFound is returned by Find when a directory has no project file.
var ErrNotFound = errors.New("no hsl project file found")

// Format is a project file encoding.
type Format int

const (
	YAML Format = iota
	TOML
	JSON
)

func (f Format) String() string {
	switch f {
	case YAML:
		return "yaml"
	case TOML:
		return "toml"
	case JSON:
		return "json"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	case ".json":
		return JSON, nil
	default:
		return 0, fmt.Errorf("unsupported config file extension %q", filepath.Ext(path))
	}
}

// Config is a decoded project file.
type Config struct {
	Version string        `json:"version"`
	Lexer   LexerConfig   `json:"lexer"`
	Runtime RuntimeConfig `json:"runtime"`
}

// LexerConfig adjusts the token registry.
type LexerConfig struct {
	// NumberSeparator groups digits; empty disables grouping.
	NumberSeparator  string         `json:"number_separator"`
	DecimalDelimiter string         `json:"decimal_delimiter"`
	LineComments     []string       `json:"line_comments"`
	BlockComments    []BlockComment `json:"block_comments"`
	// Keywords maps a default keyword spelling to its replacement.
	Keywords map[string]string `json:"keywords"`
}

// BlockComment is one block comment delimiter pair.
type BlockComment struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// RuntimeConfig adjusts the executor.
type RuntimeConfig struct {
	Mode     string `json:"mode"`
	MaxSteps int64  `json:"max_steps"`
	// Modules lists the standard modules to load. Nil loads all of them.
	Modules []string `json:"modules"`
}

// Default is the configuration used without a project file.
func Default() *Config {
	return &Config{
		Version: LanguageVersion,
		Lexer: LexerConfig{
			NumberSeparator:  "_",
			DecimalDelimiter: ".",
			LineComments:     []string{"#", "//"},
			BlockComments:    []BlockComment{{Open: "/*", Close: "*/"}},
		},
		Runtime: RuntimeConfig{Mode: "execute"},
	}
}

// Find returns the first project file in dir.
func Find(dir string) (string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("stat %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNotFound, dir)
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes, validates and version-checks a project document.
func Parse(data []byte, format Format) (*Config, error) {
	doc, err := decode(data, format)
	if err != nil {
		return nil, err
	}

	// Every format is normalized to JSON so that the schema sees the same
	// value types regardless of the source encoding.
	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", format, err)
	}
	var instance interface{}
	decoder := json.NewDecoder(bytes.NewReader(normalized))
	decoder.UseNumber()
	if err := decoder.Decode(&instance); err != nil {
		return nil, fmt.Errorf("normalize %s: %w", format, err)
	}
	if err := configSchema().Validate(instance); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(normalized, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := checkVersion(cfg.Version); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(data []byte, format Format) (interface{}, error) {
	var doc interface{}
	switch format {
	case YAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	case TOML:
		var table map[string]interface{}
		if _, err := toml.Decode(string(data), &table); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
		doc = table
	case JSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse json: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported format %s", format)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return doc, nil
}

// checkVersion accepts versions with the language's major that are not
// newer than the language itself.
func checkVersion(v string) error {
	canonical := withPrefix(v)
	if !semver.IsValid(canonical) {
		return fmt.Errorf("invalid version %q", v)
	}
	if semver.Major(canonical) != semver.Major(LanguageVersion) {
		return fmt.Errorf("version %s is not supported (language is %s)", v, LanguageVersion)
	}
	if semver.Compare(canonical, LanguageVersion) > 0 {
		return fmt.Errorf("version %s is newer than language version %s", v, LanguageVersion)
	}
	return nil
}

// withPrefix adds the "v" semver requires; files may omit it.
func withPrefix(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

//go:embed schema.json
var schemaJSON string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
)

func configSchema() *jsonschema.Schema {
	schemaOnce.Do(func() { compiledSchema = mustCompileSchema() })
	return compiledSchema
}

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	compiler.Formats = map[string]func(interface{}) bool{
		"semver": func(v interface{}) bool {
			s, ok := v.(string)
			if !ok {
				return true // type validation happens separately
			}
			return semver.IsValid(withPrefix(s))
		},
	}
	// The schema is self-contained; nothing may be fetched.
	compiler.LoadURL = func(url string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("schema references are not allowed: %s", url)
	}

	const url = "schema://hsl-config.json"
	if err := compiler.AddResource(url, strings.NewReader(schemaJSON)); err != nil {
		panic(fmt.Sprintf("config schema: %v", err))
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		panic(fmt.Sprintf("config schema: %v", err))
	}
	return schema
}
