package oracle

import (
	"cmp"
	"context"
	"fmt"
	"math/big"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/hupe1980/dehnvol/blobstore"
	"github.com/hupe1980/dehnvol/codec"
	"github.com/hupe1980/dehnvol/internal/compress"
	"github.com/hupe1980/dehnvol/slope"
)

// Status is the recorded outcome of a solve in a volume table.
type Status string

const (
	StatusOK            Status = "ok"
	StatusNonHyperbolic Status = "nonhyperbolic"
	StatusNoConvergence Status = "noconvergence"
)

// Entry is one recorded solve. Volume is kept as decimal text so that
// extended-precision values survive the round trip.
type Entry struct {
	Manifold string     `json:"manifold" yaml:"manifold"`
	Pair     slope.Pair `json:"pair" yaml:"pair"`
	Volume   string     `json:"volume,omitempty" yaml:"volume,omitempty"`
	Status   Status     `json:"status,omitempty" yaml:"status,omitempty"`
}

// TableFile is the serialized layout of a volume table.
type TableFile struct {
	Volumes []Entry `json:"volumes" yaml:"volumes"`
}

type tableKey struct {
	manifold string
	pair     slope.Pair
}

// Table replays precomputed volumes. It implements PreciseOracle: precise
// requests parse the recorded decimal at the requested precision, so a
// table recorded with enough digits serves every refinement stage.
type Table struct {
	mu      sync.RWMutex
	entries map[tableKey]Entry
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[tableKey]Entry)}
}

// Set records a volume given as decimal text.
func (t *Table) Set(manifold string, p slope.Pair, volume string) {
	t.put(Entry{Manifold: manifold, Pair: p, Volume: volume, Status: StatusOK})
}

// SetFloat records a float64 volume.
func (t *Table) SetFloat(manifold string, p slope.Pair, volume float64) {
	t.Set(manifold, p, strconv.FormatFloat(volume, 'g', -1, 64))
}

// SetStatus records a failed solve.
func (t *Table) SetStatus(manifold string, p slope.Pair, s Status) {
	t.put(Entry{Manifold: manifold, Pair: p, Status: s})
}

func (t *Table) put(e Entry) {
	e.Pair = e.Pair.Canonical()
	if e.Status == "" {
		e.Status = StatusOK
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[tableKey{manifold: e.Manifold, pair: e.Pair}] = e
}

// Len returns the number of recorded solves.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

// Has reports whether the table holds entries for name.
func (t *Table) Has(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for k := range t.entries {
		if k.manifold == name {
			return true
		}
	}
	return false
}

func (t *Table) lookup(req Request) (Entry, error) {
	t.mu.RLock()
	e, ok := t.entries[tableKey{manifold: req.Manifold.Name, pair: req.Pair.Canonical()}]
	t.mu.RUnlock()
	if !ok {
		return Entry{}, fmt.Errorf("%w for %s%v", ErrNoEntry, req.Manifold.Name, req.Pair)
	}
	switch e.Status {
	case StatusOK:
		return e, nil
	case StatusNonHyperbolic:
		return Entry{}, ErrNonHyperbolic
	default:
		return Entry{}, ErrNotConverged
	}
}

// Volume implements Oracle.
func (t *Table) Volume(ctx context.Context, req Request) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	e, err := t.lookup(req)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(e.Volume), 64)
	if err != nil {
		return 0, fmt.Errorf("oracle: bad volume %q for %s%v: %w", e.Volume, e.Manifold, e.Pair, err)
	}
	return v, nil
}

// PreciseVolume implements PreciseOracle.
func (t *Table) PreciseVolume(ctx context.Context, req Request) (*big.Float, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e, err := t.lookup(req)
	if err != nil {
		return nil, err
	}
	bits := max(req.Precision, 53)
	v, _, err := big.ParseFloat(strings.TrimSpace(e.Volume), 10, bits, big.ToNearestEven)
	if err != nil {
		return nil, fmt.Errorf("oracle: bad volume %q for %s%v: %w", e.Volume, e.Manifold, e.Pair, err)
	}
	return v, nil
}

// File returns the serializable form of the table.
func (t *Table) File() TableFile {
	t.mu.RLock()
	defer t.mu.RUnlock()
	f := TableFile{Volumes: make([]Entry, 0, len(t.entries))}
	for _, e := range t.entries {
		f.Volumes = append(f.Volumes, e)
	}
	sortEntries(f.Volumes)
	return f
}

// ParseTable decodes a volume table with c.
func ParseTable(data []byte, c codec.Codec) (*Table, error) {
	var f TableFile
	if err := c.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("oracle: decode volume table: %w", err)
	}
	t := NewTable()
	for i, e := range f.Volumes {
		if e.Manifold == "" {
			return nil, fmt.Errorf("oracle: volume table entry %d: missing manifold", i)
		}
		t.put(e)
	}
	return t, nil
}

// LoadTable reads a volume table from store. The codec is chosen by
// extension; ".zst" and ".lz4" suffixes are decompressed.
func LoadTable(ctx context.Context, store blobstore.BlobStore, name string) (*Table, error) {
	ct, base := compress.FromName(name)
	c, ok := codec.ForPath(base)
	if !ok {
		return nil, fmt.Errorf("oracle: cannot infer codec of %s", name)
	}
	data, err := blobstore.ReadAll(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("oracle: read %s: %w", name, err)
	}
	if ct != compress.None {
		if data, err = compress.Decode(data, ct); err != nil {
			return nil, fmt.Errorf("oracle: decompress %s: %w", name, err)
		}
	}
	return ParseTable(data, c)
}

func sortEntries(es []Entry) {
	slices.SortFunc(es, func(a, b Entry) int {
		if c := cmp.Compare(a.Manifold, b.Manifold); c != 0 {
			return c
		}
		return slope.Compare(a.Pair, b.Pair)
	})
}
