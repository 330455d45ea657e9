// Package exec runs an external geometry engine as a subprocess per solve.
//
// The engine is invoked as
//
//	<command> <args...> <manifold> <p> <q>
//
// with DEHNVOL_ATTEMPT and DEHNVOL_BITS set in its environment. It must print
// a single decimal volume, or one of the words "nonhyperbolic" and
// "noconvergence", on stdout and exit zero.
package exec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math/big"
	"os"
	osexec "os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/hupe1980/dehnvol/oracle"
)

const (
	// EnvAttempt carries the zero-based retry count.
	EnvAttempt = "DEHNVOL_ATTEMPT"
	// EnvBits carries the requested precision; 0 means standard precision.
	EnvBits = "DEHNVOL_BITS"
)

// ErrBadOutput is returned when the engine prints something unparseable.
var ErrBadOutput = errors.New("exec: unrecognized engine output")

// Oracle runs Command for every solve.
type Oracle struct {
	Command string
	Args    []string
	// Env is appended to the current process environment.
	Env []string
	// WaitDelay bounds how long a cancelled engine may keep its output
	// pipes open. Defaults to one second.
	WaitDelay time.Duration
}

// New returns an oracle for command with fixed leading args.
func New(command string, args ...string) *Oracle {
	return &Oracle{Command: command, Args: args}
}

// Volume implements oracle.Oracle.
func (o *Oracle) Volume(ctx context.Context, req oracle.Request) (float64, error) {
	out, err := o.run(ctx, req)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(out, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadOutput, out)
	}
	return v, nil
}

// PreciseVolume implements oracle.PreciseOracle.
func (o *Oracle) PreciseVolume(ctx context.Context, req oracle.Request) (*big.Float, error) {
	out, err := o.run(ctx, req)
	if err != nil {
		return nil, err
	}
	v, _, err := big.ParseFloat(out, 10, max(req.Precision, 53), big.ToNearestEven)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrBadOutput, out)
	}
	return v, nil
}

func (o *Oracle) run(ctx context.Context, req oracle.Request) (string, error) {
	if o.Command == "" {
		return "", errors.New("exec: no engine command configured")
	}
	args := append([]string{}, o.Args...)
	args = append(args, req.Manifold.Name, strconv.Itoa(req.Pair.P), strconv.Itoa(req.Pair.Q))

	cmd := osexec.CommandContext(ctx, o.Command, args...)
	cmd.Env = append(os.Environ(), o.Env...)
	cmd.Env = append(cmd.Env,
		EnvAttempt+"="+strconv.Itoa(req.Attempt),
		EnvBits+"="+strconv.FormatUint(uint64(req.Precision), 10),
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = o.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = time.Second
	}

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", fmt.Errorf("%w: engine failed: %s", oracle.ErrNotConverged, msg)
	}

	out := strings.TrimSpace(stdout.String())
	switch strings.ToLower(out) {
	case "nonhyperbolic":
		return "", oracle.ErrNonHyperbolic
	case "noconvergence":
		return "", oracle.ErrNotConverged
	}
	return out, nil
}
