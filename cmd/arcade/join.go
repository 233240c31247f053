package main

import (
	"bufio"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/matejkoncal/p2p-arcade/internal/negotiate"
	"github.com/matejkoncal/p2p-arcade/internal/protocol"
	"github.com/matejkoncal/p2p-arcade/internal/signal"
)

func newJoinCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "join <offer code or link>",
		Short: "Join a session from a shared offer code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return runJoin(cmd, cfg, args[0])
		},
	}
}

func runJoin(cmd *cobra.Command, cfg *Config, raw string) error {
	token := signal.TokenFromURL(raw)
	if token == "" {
		return fmt.Errorf("empty offer code")
	}

	peer, err := negotiate.New(negotiateConfig(cfg))
	if err != nil {
		return err
	}
	defer peer.Close()

	sess, err := wireSession(cfg, protocol.RoleGuest, peer)
	if err != nil {
		return err
	}

	answer, err := peer.AcceptOffer(cmd.Context(), token)
	if err != nil {
		return fmt.Errorf("negotiation failed: %w", err)
	}

	log.Printf("🔑 send this answer code back to the host:\n\n%s\n", answer)
	log.Printf("⏳ waiting for the channel to open...")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	return runSession(cmd, cfg, sess, peer, scanner)
}
