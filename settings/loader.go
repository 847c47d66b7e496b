// Package settings loads structured preference files into generic value
// trees. It recognizes the formats metadata ships in: XML/binary property
// lists (.tmPreferences, .plist), JSON, TOML, and YAML. Every document is
// normalized to map[string]any with nested maps, []any slices, and scalar
// leaves, so callers never see format-specific container types.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
	"howett.net/plist"
)

// Map is a parsed settings document: string keys with normalized values.
type Map = map[string]any

// ErrUnknownFormat is returned when a path's extension maps to no supported
// settings format.
var ErrUnknownFormat = errors.New("unknown settings format")

// Format identifies a supported settings file format.
type Format int

// Supported formats.
const (
	FormatUnknown Format = iota
	FormatPlist
	FormatJSON
	FormatTOML
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatPlist:
		return "plist"
	case FormatJSON:
		return "json"
	case FormatTOML:
		return "toml"
	case FormatYAML:
		return "yaml"
	default:
		return "unknown"
	}
}

// FormatForPath reports the format implied by the path's extension.
func FormatForPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tmpreferences", ".plist":
		return FormatPlist, true
	case ".json":
		return FormatJSON, true
	case ".toml":
		return FormatTOML, true
	case ".yaml", ".yml":
		return FormatYAML, true
	default:
		return FormatUnknown, false
	}
}

// ParseError describes a failure to parse a settings file.
type ParseError struct {
	Path    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parse %s: %s", e.Path, e.Message)
	}
	return fmt.Sprintf("parse settings: %s", e.Message)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// Loader reads and parses settings files through a FileSystem.
type Loader struct {
	fs FileSystem
}

// NewLoader creates a loader backed by the OS file system.
func NewLoader() *Loader {
	return &Loader{fs: DefaultFS()}
}

// NewLoaderWithFS creates a loader backed by the given file system.
func NewLoaderWithFS(fsys FileSystem) *Loader {
	return &Loader{fs: fsys}
}

// FS returns the loader's file system.
func (l *Loader) FS() FileSystem {
	return l.fs
}

// LoadFile reads the file at path, picks the format from its extension, and
// parses it. The returned map always has string keys at every level.
func (l *Loader) LoadFile(path string) (Map, error) {
	format, ok := FormatForPath(path)
	if !ok {
		return nil, &ParseError{
			Path:    path,
			Message: fmt.Sprintf("unsupported extension %q", filepath.Ext(path)),
			Err:     ErrUnknownFormat,
		}
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading settings file %s: %w", path, err)
	}

	return parse(path, data, format)
}

// LoadReader parses a settings document from r in the given format.
func (l *Loader) LoadReader(r io.Reader, format Format) (Map, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	return parse("", data, format)
}

// Parse parses data in the given format. Path is used in error messages only
// and may be empty.
func Parse(path string, data []byte, format Format) (Map, error) {
	return parse(path, data, format)
}

func parse(path string, data []byte, format Format) (Map, error) {
	var (
		root any
		err  error
	)

	switch format {
	case FormatPlist:
		_, err = plist.Unmarshal(data, &root)
	case FormatJSON:
		err = json.Unmarshal(data, &root)
	case FormatTOML:
		var m map[string]any
		err = toml.Unmarshal(data, &m)
		root = m
	case FormatYAML:
		err = yaml.Unmarshal(data, &root)
	default:
		return nil, &ParseError{
			Path:    path,
			Message: fmt.Sprintf("unsupported format %v", format),
			Err:     ErrUnknownFormat,
		}
	}
	if err != nil {
		return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
	}

	normalized, err := normalizeValue(root)
	if err != nil {
		return nil, &ParseError{Path: path, Message: err.Error(), Err: err}
	}

	doc, ok := normalized.(map[string]any)
	if !ok {
		return nil, &ParseError{
			Path:    path,
			Message: fmt.Sprintf("top-level value is %T, want a dictionary", normalized),
		}
	}
	return doc, nil
}

// normalizeValue rewrites format-specific containers into map[string]any and
// []any so downstream code can switch on a single shape. Scalars pass
// through untouched.
func normalizeValue(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			nv, err := normalizeValue(item)
			if err != nil {
				return nil, err
			}
			m[k] = nv
		}
		return m, nil
	case map[any]any:
		m := make(map[string]any, len(val))
		for k, item := range val {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("non-string key %v (%T)", k, k)
			}
			nv, err := normalizeValue(item)
			if err != nil {
				return nil, err
			}
			m[ks] = nv
		}
		return m, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			nv, err := normalizeValue(item)
			if err != nil {
				return nil, err
			}
			out[i] = nv
		}
		return out, nil
	default:
		return v, nil
	}
}
