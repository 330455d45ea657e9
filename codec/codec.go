// Package codec centralizes the encodings used for symmetry tables, volume
// tables and JSON reports.
//
// Every codec is addressable by a stable name so that configuration files and
// command-line flags can select one.
package codec

import (
	"fmt"
	"path"
	"strings"
)

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	case "yaml":
		return YAML{}, true
	default:
		return nil, false
	}
}

// ForPath picks a codec from a file name extension (".json", ".yaml", ".yml").
// Compression suffixes must be stripped by the caller.
func ForPath(name string) (Codec, bool) {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return Default, true
	case ".yaml", ".yml":
		return YAML{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for tests and fixtures.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
