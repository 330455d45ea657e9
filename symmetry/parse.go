package symmetry

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/dehnvol/codec"
	"github.com/hupe1980/dehnvol/model"
)

// EntryError describes one rejected table entry.
type EntryError struct {
	// Source names the file the entry came from.
	Source string
	// Line is the 1-based line of a legacy record; 0 for documents.
	Line int
	// Record is the 0-based record position in a document; -1 for legacy
	// input.
	Record   int
	Manifold string
	// Transform is the 0-based transform position in the record, or -1 when
	// the whole record was rejected.
	Transform int
	Err       error
}

func (e *EntryError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Source)
	if e.Line > 0 {
		fmt.Fprintf(&sb, ":%d", e.Line)
	}
	if e.Record >= 0 {
		fmt.Fprintf(&sb, " record %d", e.Record)
	}
	if e.Manifold != "" {
		fmt.Fprintf(&sb, " (%s)", e.Manifold)
	}
	if e.Transform >= 0 {
		fmt.Fprintf(&sb, " transform %d", e.Transform)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Warning converts the error to a report warning.
func (e *EntryError) Warning() model.Warning {
	return model.Warning{
		Kind:     model.WarningMalformedSymmetry,
		Manifold: e.Manifold,
		Message:  e.Error(),
	}
}

// Descriptor is the serialized form of a transform in YAML and JSON tables.
// Either Kind names a transform, or Matrix holds [a, b, c, d] with a separate
// Denominator (default 1), or the five-integer form [a, b, c, d, n].
type Descriptor struct {
	Kind        string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Matrix      []int  `json:"matrix,omitempty" yaml:"matrix,omitempty,flow"`
	Denominator int    `json:"denominator,omitempty" yaml:"denominator,omitempty"`
}

// Record is one manifold's entry in a YAML or JSON table.
type Record struct {
	Name       string       `json:"name" yaml:"name"`
	Transforms []Descriptor `json:"transforms" yaml:"transforms"`
}

// Document is the YAML/JSON table layout.
type Document struct {
	Manifolds []Record `json:"manifolds" yaml:"manifolds"`
}

// Transform compiles and validates the descriptor.
func (d Descriptor) Transform() (Transform, error) {
	if d.Kind != "" && Kind(strings.ToLower(d.Kind)) != KindMatrix {
		if len(d.Matrix) > 0 {
			return Transform{}, fmt.Errorf("%w: kind %q takes no matrix", ErrMalformedEntry, d.Kind)
		}
		t, err := Named(Kind(d.Kind))
		if err != nil {
			return Transform{}, fmt.Errorf("%w: %w", ErrMalformedEntry, err)
		}
		t.Name = d.Name
		return t, nil
	}

	var t Transform
	switch len(d.Matrix) {
	case 4:
		n := d.Denominator
		if n == 0 {
			n = 1
		}
		t = Matrix(d.Matrix[0], d.Matrix[1], d.Matrix[2], d.Matrix[3], n)
	case 5:
		if d.Denominator != 0 && d.Denominator != d.Matrix[4] {
			return Transform{}, fmt.Errorf("%w: denominator %d contradicts matrix %v", ErrMalformedEntry, d.Denominator, d.Matrix)
		}
		t = Matrix(d.Matrix[0], d.Matrix[1], d.Matrix[2], d.Matrix[3], d.Matrix[4])
	default:
		return Transform{}, fmt.Errorf("%w: matrix needs 4 or 5 entries, got %d", ErrMalformedEntry, len(d.Matrix))
	}
	t.Name = d.Name
	if err := t.Validate(); err != nil {
		return Transform{}, err
	}
	return t, nil
}

// DescriptorOf returns the serialized form of t.
func DescriptorOf(t Transform) Descriptor {
	if t.Kind != "" && t.Kind != KindMatrix {
		return Descriptor{Kind: string(t.Kind), Name: t.Name}
	}
	d := t.Descriptor()
	return Descriptor{Name: t.Name, Matrix: d[:]}
}

// ParseDocument parses a YAML or JSON table with c. Only a document that
// cannot be decoded at all is an error; bad records and transforms become
// warnings.
func ParseDocument(source string, data []byte, c codec.Codec) (*Table, []model.Warning, error) {
	var raw struct {
		Manifolds []any `json:"manifolds" yaml:"manifolds"`
	}
	if err := c.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("symmetry: decode %s: %w", source, err)
	}

	t := NewTable()
	var warnings []model.Warning
	reject := func(e *EntryError) {
		warnings = append(warnings, e.Warning())
	}

	for i, item := range raw.Manifolds {
		var rec struct {
			Name       string `json:"name"`
			Transforms []any  `json:"transforms"`
		}
		if err := recode(item, &rec); err != nil {
			reject(&EntryError{Source: source, Record: i, Transform: -1, Err: fmt.Errorf("%w: %w", ErrMalformedEntry, err)})
			continue
		}
		if strings.TrimSpace(rec.Name) == "" {
			reject(&EntryError{Source: source, Record: i, Transform: -1, Err: fmt.Errorf("%w: missing manifold name", ErrMalformedEntry)})
			continue
		}

		var ts []Transform
		for j, rt := range rec.Transforms {
			var d Descriptor
			if err := recode(rt, &d); err != nil {
				reject(&EntryError{Source: source, Record: i, Manifold: rec.Name, Transform: j, Err: fmt.Errorf("%w: %w", ErrMalformedEntry, err)})
				continue
			}
			tr, err := d.Transform()
			if err != nil {
				reject(&EntryError{Source: source, Record: i, Manifold: rec.Name, Transform: j, Err: err})
				continue
			}
			ts = append(ts, tr)
		}
		warnings = append(warnings, t.Add(rec.Name, ts...)...)
	}
	return t, warnings, nil
}

// recode moves a generically decoded value into a typed one through JSON.
func recode(in any, out any) error {
	data, err := codec.Default.Marshal(in)
	if err != nil {
		return err
	}
	return codec.Default.Unmarshal(data, out)
}

// ParseLegacy parses the line format
//
//	['m136', [0, 4, 1, 0, 2], [1, 0, 0, -1, 1]]
//
// one manifold per line. Blank lines and lines starting with '#' are
// ignored.
func ParseLegacy(source string, data []byte) (*Table, []model.Warning, error) {
	t := NewTable()
	var warnings []model.Warning
	reject := func(e *EntryError) {
		warnings = append(warnings, e.Warning())
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var items []any
		if err := codec.Default.Unmarshal([]byte(strings.ReplaceAll(text, "'", `"`)), &items); err != nil {
			reject(&EntryError{Source: source, Line: line, Record: -1, Transform: -1, Err: fmt.Errorf("%w: %w", ErrMalformedEntry, err)})
			continue
		}
		name, ok := firstString(items)
		if !ok {
			reject(&EntryError{Source: source, Line: line, Record: -1, Transform: -1, Err: fmt.Errorf("%w: record must start with a manifold name", ErrMalformedEntry)})
			continue
		}

		var ts []Transform
		for j, item := range items[1:] {
			tr, err := legacyTransform(item)
			if err != nil {
				reject(&EntryError{Source: source, Line: line, Record: -1, Manifold: name, Transform: j, Err: err})
				continue
			}
			ts = append(ts, tr)
		}
		warnings = append(warnings, t.Add(name, ts...)...)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("symmetry: read %s: %w", source, err)
	}
	return t, warnings, nil
}

func firstString(items []any) (string, bool) {
	if len(items) == 0 {
		return "", false
	}
	s, ok := items[0].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

var errNotInteger = errors.New("entries must be integers")

func legacyTransform(item any) (Transform, error) {
	list, ok := item.([]any)
	if !ok || len(list) != 5 {
		return Transform{}, fmt.Errorf("%w: want [a, b, c, d, n], got %v", ErrMalformedEntry, item)
	}
	var v [5]int
	for i, x := range list {
		f, ok := x.(float64)
		if !ok || f != math.Trunc(f) || math.Abs(f) > 1<<31 {
			return Transform{}, fmt.Errorf("%w: %w: %v", ErrMalformedEntry, errNotInteger, list)
		}
		v[i] = int(f)
	}
	t := Matrix(v[0], v[1], v[2], v[3], v[4])
	if err := t.Validate(); err != nil {
		return Transform{}, err
	}
	return t, nil
}

// EncodeLegacy renders the table in the line format. Named transforms are
// written as their matrices.
func EncodeLegacy(t *Table) []byte {
	var buf bytes.Buffer
	for _, name := range t.Manifolds() {
		fmt.Fprintf(&buf, "['%s'", name)
		ts, _ := t.Lookup(name)
		for _, tr := range ts {
			d := tr.Descriptor()
			fmt.Fprintf(&buf, ", [%d, %d, %d, %d, %d]", d[0], d[1], d[2], d[3], d[4])
		}
		buf.WriteString("]\n")
	}
	return buf.Bytes()
}

// DocumentOf returns the YAML/JSON layout of t.
func DocumentOf(t *Table) Document {
	doc := Document{Manifolds: make([]Record, 0, t.Len())}
	for _, name := range t.Manifolds() {
		ts, _ := t.Lookup(name)
		rec := Record{Name: name, Transforms: make([]Descriptor, 0, len(ts))}
		for _, tr := range ts {
			rec.Transforms = append(rec.Transforms, DescriptorOf(tr))
		}
		doc.Manifolds = append(doc.Manifolds, rec)
	}
	return doc
}
