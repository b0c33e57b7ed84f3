package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/daikw/colorcommentary/internal/mcptools"
)

func handleMCP(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	analyzer, err := newAnalyzer(ctx, cfg, registry)
	if err = optional(err, "Vision"); err != nil {
		return err
	}
	return mcptools.Serve(mcptools.NewServer(version, registry, analyzer))
}
