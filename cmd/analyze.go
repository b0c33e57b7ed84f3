package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/daikw/colorcommentary/internal/camera"
	"github.com/daikw/colorcommentary/internal/commentary"
	"github.com/daikw/colorcommentary/internal/vision"
)

func handleAnalyze(ctx context.Context, c *cli.Command) error {
	path := c.Args().Get(0)
	if path == "" {
		return fmt.Errorf("image path is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	analyzer, err := newAnalyzer(ctx, cfg, registry)
	if err != nil {
		return err
	}

	src := camera.NewFileSource(path)
	if err := src.Open(ctx); err != nil {
		return err
	}
	defer src.Close()
	img, err := src.Frame(ctx)
	if err != nil {
		return err
	}
	encoder := &camera.Encoder{Width: cfg.Camera.Width, Height: cfg.Camera.Height, Quality: cfg.Camera.Quality}
	image, err := encoder.Encode(img)
	if err != nil {
		return err
	}

	personalityID := c.String("personality")
	if personalityID == "" {
		personalityID = cfg.Broadcast.Personality
	}
	raw, err := analyzer.Analyze(ctx, vision.Request{
		Image:              image,
		PreviousCommentary: c.String("previous"),
		Personality:        personalityID,
		People:             c.StringSlice("person"),
	})
	if err != nil {
		return fmt.Errorf("failed to analyze image: %w", err)
	}

	if c.Bool("raw") {
		fmt.Fprintf(os.Stderr, "%s\n\n", raw)
	}

	out, err := json.MarshalIndent(commentary.Normalize(raw), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode update: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
