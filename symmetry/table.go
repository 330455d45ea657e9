package symmetry

import (
	"fmt"
	"slices"
	"sort"

	"github.com/hupe1980/dehnvol/model"
)

// Table maps manifold names to their declared transforms, in declaration
// order.
type Table struct {
	entries map[string][]Transform
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[string][]Transform)}
}

// Add appends transforms for manifold. Transforms that fail validation, and
// transforms equal in action to one already declared for the manifold, are
// skipped one at a time and reported; the remaining ones are kept.
func (t *Table) Add(manifold string, ts ...Transform) []model.Warning {
	var warnings []model.Warning
	cur, ok := t.entries[manifold]
	if !ok {
		// A record without transforms still declares the manifold.
		cur = []Transform{}
	}
	for _, tr := range ts {
		if err := tr.Validate(); err != nil {
			warnings = append(warnings, model.Warning{
				Kind:     model.WarningMalformedSymmetry,
				Manifold: manifold,
				Message:  fmt.Sprintf("transform %v skipped: %v", tr, err),
			})
			continue
		}
		if slices.ContainsFunc(cur, tr.Equal) {
			warnings = append(warnings, model.Warning{
				Kind:     model.WarningMalformedSymmetry,
				Manifold: manifold,
				Message:  fmt.Sprintf("duplicate transform %v skipped", tr),
			})
			continue
		}
		cur = append(cur, tr)
	}
	t.entries[manifold] = cur
	return warnings
}

// Lookup returns the transforms declared for manifold.
func (t *Table) Lookup(manifold string) ([]Transform, bool) {
	ts, ok := t.entries[manifold]
	return ts, ok
}

// Group returns the group of manifold. Manifolds without entries get the
// trivial group.
func (t *Table) Group(manifold string) *Group {
	ts, ok := t.entries[manifold]
	if !ok || len(ts) == 0 {
		return Trivial()
	}
	// Add only stores valid transforms, so NewGroup cannot fail here.
	g, err := NewGroup(ts...)
	if err != nil {
		panic(fmt.Sprintf("symmetry: invalid transform stored for %s: %v", manifold, err))
	}
	return g
}

// Manifolds returns the declared manifold names, sorted.
func (t *Table) Manifolds() []string {
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of declared manifolds.
func (t *Table) Len() int {
	return len(t.entries)
}

// Merge adds every entry of other to t.
func (t *Table) Merge(other *Table) []model.Warning {
	if other == nil {
		return nil
	}
	var warnings []model.Warning
	for _, name := range other.Manifolds() {
		warnings = append(warnings, t.Add(name, other.entries[name]...)...)
	}
	return warnings
}

// Restrict removes manifolds for which known returns false and reports each
// one as an unknown-manifold warning.
func (t *Table) Restrict(known func(name string) bool) []model.Warning {
	if known == nil {
		return nil
	}
	var warnings []model.Warning
	for _, name := range t.Manifolds() {
		if known(name) {
			continue
		}
		delete(t.entries, name)
		warnings = append(warnings, model.Warning{
			Kind:     model.WarningUnknownManifold,
			Manifold: name,
			Message:  "symmetry entry for unknown manifold skipped",
		})
	}
	return warnings
}
