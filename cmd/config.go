package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/daikw/colorcommentary/internal/config"
)

func handleConfigShow(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	data, err := cfg.MaskSecrets().Marshal()
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}

func handleConfigValidate(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	problems := cfg.Validate()
	if len(problems) == 0 {
		fmt.Println("✅ Configuration is valid")
		return nil
	}
	fmt.Fprintln(os.Stderr, "Configuration problems:")
	for _, p := range problems {
		fmt.Fprintf(os.Stderr, "  - %s\n", p)
	}
	return fmt.Errorf("%d configuration problem(s)", len(problems))
}

func handleConfigExample(ctx context.Context, c *cli.Command) error {
	data, err := config.Example()
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}
