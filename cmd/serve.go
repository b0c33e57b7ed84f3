package main

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/daikw/colorcommentary/internal/server"
)

func handleServe(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	// The server is the endpoint; never proxy to another one.
	cfg.Vision.Endpoint, cfg.Speech.Endpoint = "", ""

	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithVisionKeyName(cfg.Vision.APIKeyVariable),
		server.WithShutdownTimeout(cfg.Server.ShutdownTimeout()),
	}

	analyzer, err := newAnalyzer(ctx, cfg, registry)
	if err = optional(err, "Vision"); err != nil {
		return err
	}
	if analyzer != nil {
		opts = append(opts, server.WithAnalyzer(analyzer))
	}

	if cfg.Speech.Enabled {
		synth, err := newSynthesizer(ctx, cfg, registry)
		if err = optional(err, "Speech"); err != nil {
			return err
		}
		if synth != nil {
			opts = append(opts, server.WithSynthesizer(synth))
		}
	}

	addr := cfg.Server.Addr
	if c.String("addr") != "" {
		addr = c.String("addr")
	}
	log.Debug().Int("personalities", len(registry.List())).Msg("Loaded personalities")
	return server.New(registry, opts...).ListenAndServe(ctx, addr)
}
