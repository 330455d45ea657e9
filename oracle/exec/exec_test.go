package exec

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/hupe1980/dehnvol/model"
	"github.com/hupe1980/dehnvol/oracle"
	"github.com/hupe1980/dehnvol/slope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const engine = `#!/bin/sh
case "$2/$3" in
  1/0) echo nonhyperbolic ;;
  2/1) if [ "$DEHNVOL_ATTEMPT" = "0" ]; then echo noconvergence; else echo 2.5689706009; fi ;;
  5/1) exec sleep 5 ;;
  9/1) echo "engine crashed" >&2; exit 3 ;;
  7/1) echo garbage ;;
  *) if [ "$DEHNVOL_BITS" = "0" ]; then echo 2.0298832128; else echo 2.02988321281930725004240510854904057188337861506059958403497821; fi ;;
esac
`

func newEngine(t *testing.T) *Oracle {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell engine stub needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "engine.sh")
	require.NoError(t, os.WriteFile(path, []byte(engine), 0o755))
	return New("/bin/sh", path)
}

func request(p, q, attempt int, bits uint) oracle.Request {
	return oracle.Request{Manifold: model.Named("m004"), Pair: slope.New(p, q), Attempt: attempt, Precision: bits}
}

func TestOracle(t *testing.T) {
	o := newEngine(t)
	ctx := context.Background()

	t.Run("Volume", func(t *testing.T) {
		v, err := o.Volume(ctx, request(3, 1, 0, 0))
		require.NoError(t, err)
		assert.InDelta(t, 2.0298832128, v, 1e-12)
	})

	t.Run("Precise", func(t *testing.T) {
		v, err := o.PreciseVolume(ctx, request(3, 1, 0, 212))
		require.NoError(t, err)
		assert.Equal(t, uint(212), v.Prec())
		assert.Equal(t, "2.0298832128193072500424", v.Text('f', 22))
	})

	t.Run("NonHyperbolic", func(t *testing.T) {
		_, err := o.Volume(ctx, request(1, 0, 0, 0))
		assert.ErrorIs(t, err, oracle.ErrNonHyperbolic)
	})

	t.Run("RetryByAttempt", func(t *testing.T) {
		_, err := o.Volume(ctx, request(2, 1, 0, 0))
		assert.ErrorIs(t, err, oracle.ErrNotConverged)
		v, err := o.Volume(ctx, request(2, 1, 1, 0))
		require.NoError(t, err)
		assert.InDelta(t, 2.5689706009, v, 1e-12)
	})

	t.Run("Crash", func(t *testing.T) {
		_, err := o.Volume(ctx, request(9, 1, 0, 0))
		assert.ErrorIs(t, err, oracle.ErrNotConverged)
		assert.Contains(t, err.Error(), "engine crashed")
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := o.Volume(ctx, request(7, 1, 0, 0))
		assert.ErrorIs(t, err, ErrBadOutput)
	})

	t.Run("Timeout", func(t *testing.T) {
		tctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		_, err := o.Volume(tctx, request(5, 1, 0, 0))
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("NoCommand", func(t *testing.T) {
		_, err := (&Oracle{}).Volume(ctx, request(3, 1, 0, 0))
		assert.Error(t, err)
	})
}
