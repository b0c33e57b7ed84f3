package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/daikw/colorcommentary/internal/personality"
	"github.com/daikw/colorcommentary/internal/vision"
)

func handlePersonalityList(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	manager, err := personalityManager(cfg)
	if err != nil {
		return err
	}
	registry, err := manager.Registry()
	if err != nil {
		return err
	}

	custom, err := manager.List()
	if err != nil {
		return err
	}
	isCustom := make(map[string]bool, len(custom))
	for _, id := range custom {
		isCustom[id] = true
	}

	bold := color.New(color.Bold)
	fmt.Println("Available personalities:")
	for _, p := range registry.List() {
		marker := " "
		if p.ID == cfg.Broadcast.Personality {
			marker = "*"
		}
		suffix := ""
		if isCustom[p.ID] {
			suffix = color.New(color.Faint).Sprint(" (custom)")
		}
		fmt.Printf(" %s %-14s %s  %s%s\n", marker, p.ID, bold.Sprint(p.Name), p.Description, suffix)
	}
	fmt.Printf("\nCustom personalities live in %s\n", manager.Dir())
	return nil
}

func handlePersonalityShow(ctx context.Context, c *cli.Command) error {
	id := c.Args().Get(0)
	if id == "" {
		return fmt.Errorf("personality id is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	p, ok := registry.Lookup(id)
	if !ok {
		return fmt.Errorf("personality '%s' does not exist (known: %s)", id, strings.Join(registry.IDs(), ", "))
	}

	fmt.Printf("%s: %s\n", color.New(color.Bold).Sprint(p.Name), p.Description)
	if p.Voice != "" {
		fmt.Printf("Voice: %s\n", p.Voice)
	}
	fmt.Println()
	fmt.Println(vision.SystemPrompt(p))
	return nil
}

func handlePersonalityCreate(ctx context.Context, c *cli.Command) error {
	id := c.Args().Get(0)
	if id == "" {
		return fmt.Errorf("personality id is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	manager, err := personalityManager(cfg)
	if err != nil {
		return err
	}

	path, err := manager.Create(id)
	if err != nil {
		if errors.Is(err, personality.ErrInvalidID) {
			return fmt.Errorf("%w (use lowercase letters, digits and dashes)", err)
		}
		return err
	}

	fmt.Printf("Created new personality: %s\n", path)
	fmt.Printf("Edit it with: colorcommentary personalities edit %s\n", id)
	return nil
}

func handlePersonalityEdit(ctx context.Context, c *cli.Command) error {
	id := c.Args().Get(0)
	if id == "" {
		return fmt.Errorf("personality id is required")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	manager, err := personalityManager(cfg)
	if err != nil {
		return err
	}
	if !manager.Exists(id) {
		if _, err := manager.Create(id); err != nil {
			return err
		}
	}

	// Get editor from environment
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vi" // Default to vi
	}

	cmd := exec.CommandContext(ctx, editor, manager.Path(id))
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run editor: %w", err)
	}

	if _, err := manager.Load(id); err != nil {
		return fmt.Errorf("personality saved but invalid: %w", err)
	}
	fmt.Printf("Saved personality: %s\n", id)
	return nil
}
