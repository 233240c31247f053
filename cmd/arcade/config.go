package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config collects the flags shared by the host and join commands.
type Config struct {
	game          string
	stunServers   []string
	gatherTimeout time.Duration
	tickInterval  time.Duration
	countdownFrom int
	linkBase      string
	viewAddr      string
	qr            bool
	skinPath      string
}

func (c *Config) validate() error {
	if c.game != "pong" && c.game != "snake" {
		return fmt.Errorf("unknown game %q (want pong or snake)", c.game)
	}
	if c.countdownFrom < 1 {
		return fmt.Errorf("countdown must start at 1 or higher: %d", c.countdownFrom)
	}
	if c.tickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive: %v", c.tickInterval)
	}
	if c.gatherTimeout <= 0 {
		return fmt.Errorf("gather timeout must be positive: %v", c.gatherTimeout)
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ARCADE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "arcade",
		Short:         "Serverless two-player arcade games over a peer-to-peer data channel.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
	}

	fs := cmd.PersistentFlags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.game, "game", "g", "pong", "game to play: pong or snake (env: ARCADE_GAME)")
	fs.StringSliceVar(&cfg.stunServers, "stun", []string{
		"stun:stun.l.google.com:19302",
		"stun:stun1.l.google.com:19302",
	}, "STUN servers for candidate discovery (env: ARCADE_STUN)")
	fs.DurationVar(&cfg.gatherTimeout, "gather-timeout", 3*time.Second, "bound on ICE candidate gathering (env: ARCADE_GATHER_TIMEOUT)")
	fs.DurationVar(&cfg.tickInterval, "tick", 50*time.Millisecond, "simulation tick interval (env: ARCADE_TICK)")
	fs.IntVar(&cfg.countdownFrom, "countdown", 3, "countdown start value before play (env: ARCADE_COUNTDOWN)")
	fs.StringVar(&cfg.linkBase, "link-base", "https://play.p2p-arcade.dev", "base URL the offer code is embedded in (env: ARCADE_LINK_BASE)")
	fs.StringVar(&cfg.viewAddr, "view", "", "address for the read-only renderer feed, e.g. localhost:8090 (env: ARCADE_VIEW)")
	fs.BoolVar(&cfg.qr, "qr", true, "render the share link as a terminal QR code (env: ARCADE_QR)")
	fs.StringVar(&cfg.skinPath, "skin", "", "image file sent to the opponent as your paddle skin (env: ARCADE_SKIN)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(newHostCmd(cfg), newJoinCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("arcade v{{.Version}}\n")

	return cmd
}
