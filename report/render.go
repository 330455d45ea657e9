package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/dehnvol/classify"
	"github.com/hupe1980/dehnvol/codec"
	"github.com/hupe1980/dehnvol/slope"
)

// Renderer writes reports.
type Renderer interface {
	RenderBatch(w io.Writer, b *Batch) error
	RenderChecks(w io.Writer, cs []*Check) error
}

// ByName returns the renderer for "text" or "json".
func ByName(name string) (Renderer, error) {
	switch name {
	case "", "text":
		return Text{}, nil
	case "json":
		return JSON{Indent: true}, nil
	default:
		return nil, fmt.Errorf("report: unknown format %q", name)
	}
}

// JSON renders reports as JSON documents.
type JSON struct {
	Indent bool
}

// RenderBatch implements Renderer.
func (j JSON) RenderBatch(w io.Writer, b *Batch) error {
	return j.write(w, b)
}

// RenderChecks implements Renderer.
func (j JSON) RenderChecks(w io.Writer, cs []*Check) error {
	return j.write(w, cs)
}

func (j JSON) write(w io.Writer, v any) error {
	var (
		data []byte
		err  error
	)
	if j.Indent {
		data, err = codec.GoJSON{}.MarshalIndent(v)
	} else {
		data, err = codec.Default.Marshal(v)
	}
	if err != nil {
		return fmt.Errorf("report: encode: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Text renders reports for humans.
type Text struct {
	// Verbose adds explained and inconsistent coincidences and every
	// excluded slope.
	Verbose bool
}

// RenderBatch implements Renderer.
func (t Text) RenderBatch(w io.Writer, b *Batch) error {
	ew := &errWriter{w: w}
	ew.printf("run %s  bound %d  tolerance %s  coverage %s\n", b.RunID, b.Bound, b.Tolerance, b.Coverage)
	for _, warn := range b.Warnings {
		ew.printf("warning: %s\n", warn)
	}
	for _, m := range b.Manifolds {
		t.manifold(ew, m)
	}
	ew.printf("%d manifolds, %d unexplained coincidences, %d failed, %s\n",
		len(b.Manifolds), b.Unexplained(), b.Failed(), b.Finished.Sub(b.Started).Round(1e6))
	return ew.err
}

func (t Text) manifold(ew *errWriter, m Manifold) {
	ew.printf("\n%s", m.Name)
	if len(m.Symmetries) > 0 {
		ew.printf("  symmetries: %s", strings.Join(m.Symmetries, " "))
	}
	ew.printf("\n")
	if m.Err != "" {
		ew.printf("  aborted: %s\n", m.Err)
	}
	ew.printf("  slopes: %d admissible, %d sampled, %d non-hyperbolic, %d inconclusive\n",
		m.Admissible, m.Sampled, len(m.NonHyperbolic), len(m.Inconclusive))

	for _, co := range m.Unexplained {
		ew.printf("  unexplained %.12f: %s\n", co.Group.Volume(), pairs(co.Group.Members))
		for _, blk := range co.Blocks {
			ew.printf("    by symmetry: %s\n", pairs(blk))
		}
		if len(co.Blocks) > 0 && len(co.Unaccounted) > 0 {
			ew.printf("    unaccounted: %s\n", pairs(co.Unaccounted))
		}
	}
	if m.Truncated {
		ew.printf("  stopped after %d unexplained coincidences\n", len(m.Unexplained))
	}
	ew.printf("  explained: %d\n", m.Explained)
	if len(m.Inconsistent) > 0 {
		ew.printf("  inconsistent: %d\n", len(m.Inconsistent))
	}

	if t.Verbose {
		for _, co := range m.Inconsistent {
			ew.printf("  inconsistent %.12f: %s\n", co.Group.Volume(), pairs(co.Group.Members))
		}
		if len(m.NonHyperbolic) > 0 {
			ew.printf("  non-hyperbolic: %s\n", pairs(m.NonHyperbolic))
		}
		for _, f := range m.Inconclusive {
			ew.printf("  inconclusive %v after %d attempts: %s\n", f.Pair, f.Attempts, f.Err)
		}
	} else if len(m.Inconclusive) > 0 {
		ps := make([]slope.Pair, len(m.Inconclusive))
		for i, f := range m.Inconclusive {
			ps[i] = f.Pair
		}
		ew.printf("  inconclusive: %s\n", pairs(ps))
	}

	for _, warn := range m.Warnings {
		ew.printf("  warning: %s\n", warn)
	}
}

// RenderChecks implements Renderer.
func (t Text) RenderChecks(w io.Writer, cs []*Check) error {
	ew := &errWriter{w: w}
	for _, c := range cs {
		ew.printf("%s %v (bound %d): ", c.Manifold, c.Pair, c.Bound)
		if c.Equivalent {
			ew.printf("equivalent to %s\n", pairs(without(c.Orbit, c.Pair)))
		} else {
			ew.printf("not equivalent to any other slope\n")
		}
		ew.printf("  orbit: %s\n", pairs(c.Orbit))
		for _, v := range c.Verifications {
			ew.printf("  %s -> %v: %s", v.Transform, v.Image, v.Status)
			if v.Reason != "" {
				ew.printf(" (%s)", v.Reason)
			}
			ew.printf("\n")
		}
		if c.Confirmed() {
			ew.printf("  all symmetries verified for %v\n", c.Pair)
		}
		for _, warn := range c.Warnings {
			ew.printf("  warning: %s\n", warn)
		}
	}
	return ew.err
}

// Summary is a one-line description of a coincidence.
func Summary(co classify.Coincidence) string {
	return fmt.Sprintf("%s %.12f %s", co.Class, co.Group.Volume(), pairs(co.Group.Members))
}

func pairs(ps []slope.Pair) string {
	parts := make([]string, len(ps))
	for i, p := range ps {
		parts[i] = p.String()
	}
	return strings.Join(parts, " ")
}

func without(ps []slope.Pair, x slope.Pair) []slope.Pair {
	c := x.Canonical()
	out := make([]slope.Pair, 0, len(ps))
	for _, p := range ps {
		if p != c {
			out = append(out, p)
		}
	}
	return out
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
