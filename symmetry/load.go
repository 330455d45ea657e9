package symmetry

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/hupe1980/dehnvol/blobstore"
	"github.com/hupe1980/dehnvol/codec"
	"github.com/hupe1980/dehnvol/internal/compress"
	"github.com/hupe1980/dehnvol/model"
)

// Format is a table file layout.
type Format string

const (
	FormatYAML   Format = "yaml"
	FormatJSON   Format = "json"
	FormatLegacy Format = "legacy"
)

// FormatOf picks the format from a file name, ignoring a compression suffix.
// ok is false for names that are not table files.
func FormatOf(name string) (Format, bool) {
	_, base := compress.FromName(name)
	switch strings.ToLower(path.Ext(base)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	case ".txt", ".list", ".py":
		return FormatLegacy, true
	default:
		return "", false
	}
}

// Parse decodes data in the given format.
func Parse(source string, data []byte, f Format) (*Table, []model.Warning, error) {
	switch f {
	case FormatYAML:
		return ParseDocument(source, data, codec.YAML{})
	case FormatJSON:
		return ParseDocument(source, data, codec.Default)
	case FormatLegacy:
		return ParseLegacy(source, data)
	default:
		return nil, nil, fmt.Errorf("symmetry: unknown format %q", f)
	}
}

// LoadOption configures Load and LoadAll.
type LoadOption func(*loadOptions)

type loadOptions struct {
	known  func(string) bool
	format Format
}

// WithKnownManifolds skips, with an unknown-manifold warning, entries whose
// manifold known rejects.
func WithKnownManifolds(known func(name string) bool) LoadOption {
	return func(o *loadOptions) {
		o.known = known
	}
}

// WithFormat overrides format detection from the file name.
func WithFormat(f Format) LoadOption {
	return func(o *loadOptions) {
		o.format = f
	}
}

// Load reads one table from store. A ".zst" or ".lz4" suffix is
// decompressed transparently.
func Load(ctx context.Context, store blobstore.BlobStore, name string, opts ...LoadOption) (*Table, []model.Warning, error) {
	var o loadOptions
	for _, fn := range opts {
		fn(&o)
	}

	f := o.format
	if f == "" {
		var ok bool
		if f, ok = FormatOf(name); !ok {
			return nil, nil, fmt.Errorf("symmetry: cannot infer format of %s", name)
		}
	}

	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, nil, fmt.Errorf("symmetry: read %s: %w", name, err)
	}
	if ct, _ := compress.FromName(name); ct != compress.None {
		if data, err = compress.Decode(data, ct); err != nil {
			return nil, nil, fmt.Errorf("symmetry: decompress %s: %w", name, err)
		}
	}

	t, warnings, err := Parse(name, data, f)
	if err != nil {
		return nil, nil, err
	}
	warnings = append(warnings, t.Restrict(o.known)...)
	return t, warnings, nil
}

type prefetcher interface {
	Prefetch(ctx context.Context, names ...string) error
}

// LoadAll reads and merges every table file under prefix, in name order.
// Files that fail to decode are reported as warnings; the call fails only
// when the store cannot be listed or read.
func LoadAll(ctx context.Context, store blobstore.BlobStore, prefix string, opts ...LoadOption) (*Table, []model.Warning, error) {
	names, err := store.List(ctx, prefix)
	if err != nil {
		return nil, nil, fmt.Errorf("symmetry: list %q: %w", prefix, err)
	}
	var tables []string
	for _, name := range names {
		if _, ok := FormatOf(name); ok {
			tables = append(tables, name)
		}
	}

	if p, ok := store.(prefetcher); ok {
		if err := p.Prefetch(ctx, tables...); err != nil {
			return nil, nil, fmt.Errorf("symmetry: prefetch: %w", err)
		}
	}

	out := NewTable()
	var warnings []model.Warning
	for _, name := range tables {
		t, ws, err := Load(ctx, store, name, opts...)
		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			warnings = append(warnings, model.Warning{
				Kind:    model.WarningMalformedSymmetry,
				Message: err.Error(),
			})
			continue
		}
		warnings = append(warnings, ws...)
		warnings = append(warnings, out.Merge(t)...)
	}
	return out, warnings, nil
}
