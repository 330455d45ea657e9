// Command dehnvol searches Dehn fillings for volume coincidences that the
// declared symmetries of the volume function do not explain.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "dehnvol:", err)
		os.Exit(1)
	}
}
