// Command arcade plays serverless two-player games over a WebRTC data
// channel. Connection setup is negotiated by hand: the host shares an
// offer code (link or QR), the guest pastes back an answer code, and
// gameplay runs peer to peer with no relay in between.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const releaseVersion = "0.1.0"

func main() {
	log.SetFlags(0)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &Config{}
	cobra.CheckErr(newCmd(cfg).ExecuteContext(ctx))
}
