package main

import (
	"bufio"
	"fmt"
	"log"

	"github.com/skip2/go-qrcode"
	"github.com/spf13/cobra"

	"github.com/matejkoncal/p2p-arcade/internal/negotiate"
	"github.com/matejkoncal/p2p-arcade/internal/protocol"
	"github.com/matejkoncal/p2p-arcade/internal/signal"
)

func newHostCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "host",
		Short: "Create a session, share the offer code and run the authoritative game",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return runHost(cmd, cfg)
		},
	}
}

func runHost(cmd *cobra.Command, cfg *Config) error {
	peer, err := negotiate.New(negotiateConfig(cfg))
	if err != nil {
		return err
	}
	defer peer.Close()

	sess, err := wireSession(cfg, protocol.RoleHost, peer)
	if err != nil {
		return err
	}

	token, err := peer.CreateOffer(cmd.Context())
	if err != nil {
		return fmt.Errorf("negotiation failed: %w", err)
	}

	link := fmt.Sprintf("%s?%s=%s", cfg.linkBase, signal.QueryKey, token)
	log.Printf("🔗 share this link with your opponent:\n\n%s\n", link)
	if cfg.qr {
		if qr, err := qrcode.New(link, qrcode.Low); err == nil {
			log.Print(qr.ToSmallString(false))
		}
	}

	scanner := bufio.NewScanner(cmd.InOrStdin())
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	// The answer code comes back out of band; a bad paste leaves the
	// offer standing so the user can simply paste again.
	for {
		log.Print("📋 paste the answer code and press enter:")
		if !scanner.Scan() {
			return fmt.Errorf("no answer code received")
		}
		answer := signal.TokenFromURL(scanner.Text())
		if answer == "" {
			continue
		}
		if err := peer.AcceptAnswer(answer); err != nil {
			log.Printf("⚠️  invalid code: %v", err)
			continue
		}
		break
	}

	log.Printf("🤝 answer accepted, waiting for the channel to open...")
	return runSession(cmd, cfg, sess, peer, scanner)
}
