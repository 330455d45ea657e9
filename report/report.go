package report

import (
	"time"

	"github.com/hupe1980/dehnvol/classify"
	"github.com/hupe1980/dehnvol/model"
	"github.com/hupe1980/dehnvol/slope"
)

// Batch is the result of one search over several manifolds.
type Batch struct {
	RunID     string          `json:"run_id"`
	Started   time.Time       `json:"started"`
	Finished  time.Time       `json:"finished"`
	Bound     int             `json:"bound"`
	Tolerance string          `json:"tolerance"`
	Coverage  string          `json:"coverage"`
	Manifolds []Manifold      `json:"manifolds"`
	Warnings  []model.Warning `json:"warnings,omitempty"`
}

// Manifold is the report for one manifold.
type Manifold struct {
	Name string `json:"name"`
	// Symmetries lists the declared transforms used for classification.
	Symmetries []string `json:"symmetries,omitempty"`

	Admissible    int             `json:"admissible"`
	Sampled       int             `json:"sampled"`
	NonHyperbolic []slope.Pair    `json:"non_hyperbolic,omitempty"`
	Inconclusive  []model.Failure `json:"inconclusive,omitempty"`

	Unexplained  []classify.Coincidence `json:"unexplained,omitempty"`
	Explained    int                    `json:"explained"`
	Inconsistent []classify.Coincidence `json:"inconsistent,omitempty"`
	// Truncated is set when the search stopped early after reaching the
	// unexplained-coincidence limit.
	Truncated bool `json:"truncated,omitempty"`

	Warnings []model.Warning `json:"warnings,omitempty"`
	// Err is set when the manifold's pipeline was aborted.
	Err     string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

// Accounted reports whether every admissible slope is sampled,
// non-hyperbolic or inconclusive. Aborted and truncated pipelines are not
// required to account for every slope.
func (m Manifold) Accounted() bool {
	if m.Err != "" || m.Truncated {
		return true
	}
	return m.Admissible == m.Sampled+len(m.NonHyperbolic)+len(m.Inconclusive)
}

// Failed reports whether the manifold's pipeline was aborted.
func (m Manifold) Failed() bool {
	return m.Err != ""
}

// Unexplained returns the total number of unexplained coincidences.
func (b *Batch) Unexplained() int {
	n := 0
	for _, m := range b.Manifolds {
		n += len(m.Unexplained)
	}
	return n
}

// Failed returns the number of aborted manifolds.
func (b *Batch) Failed() int {
	n := 0
	for _, m := range b.Manifolds {
		if m.Failed() {
			n++
		}
	}
	return n
}

// Check is the result of a targeted equivalence check of one slope.
type Check struct {
	Manifold string     `json:"manifold"`
	Pair     slope.Pair `json:"pair"`
	Bound    int        `json:"bound"`
	// Orbit is the orbit of Pair inside the bound, in enumeration order.
	Orbit []slope.Pair `json:"orbit"`
	// Equivalent is true when Pair is equivalent to another admissible slope.
	Equivalent bool `json:"equivalent"`
	// Verifications are present when volumes were checked.
	Verifications []Verification  `json:"verifications,omitempty"`
	Warnings      []model.Warning `json:"warnings,omitempty"`
}

// Holds reports whether every verified transform preserved volume.
func (c *Check) Holds() bool {
	for _, v := range c.Verifications {
		if v.Status == VerifyViolated {
			return false
		}
	}
	return true
}

// Confirmed reports whether every transform was verified and none was left
// unconfirmed by a failed refinement.
func (c *Check) Confirmed() bool {
	if len(c.Verifications) == 0 {
		return false
	}
	for _, v := range c.Verifications {
		if v.Status != VerifyHolds {
			return false
		}
	}
	return true
}

// VerifyStatus is the outcome of verifying one transform on one slope.
type VerifyStatus string

const (
	VerifyHolds    VerifyStatus = "holds"
	VerifyViolated VerifyStatus = "violated"
	// VerifySkipped marks a transform whose image is not a slope, or whose
	// volumes could not both be computed.
	VerifySkipped VerifyStatus = "skipped"
	// VerifyUnconfirmed marks a transform whose volumes agree at standard
	// precision but could not be solved at some refinement stage.
	VerifyUnconfirmed VerifyStatus = "unconfirmed"
)

// Verification compares the volume of a slope with the volume of its image.
type Verification struct {
	Transform   string       `json:"transform"`
	Image       slope.Pair   `json:"image"`
	Volume      string       `json:"volume,omitempty"`
	ImageVolume string       `json:"image_volume,omitempty"`
	Bits        uint         `json:"bits,omitempty"`
	Status      VerifyStatus `json:"status"`
	Reason      string       `json:"reason,omitempty"`
}
