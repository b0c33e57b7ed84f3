package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/daikw/colorcommentary/internal/config"
)

var (
	version  = "dev"
	revision = "none"
)

func main() {
	// Setup logger
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	app := &cli.Command{
		Name:  "colorcommentary",
		Usage: "Live sports-style commentary on your webcam",
		Description: `colorcommentary watches a camera, asks a vision model to call the action
like a broadcast commentator and reads the lines aloud with crowd sound cues.
Run 'serve' on a machine holding the API keys and point 'broadcast' at it, or
let 'broadcast' call the model directly.`,
		Version: fmt.Sprintf("%s (rev: %s)", version, revision),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"V"},
				Usage:   "Enable verbose logging",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to colorcommentary.toml (default: ./colorcommentary.toml, then ~/.colorcommentary/)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Serve the analysis and speech endpoints so keys stay on this machine",
				Action: handleServe,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "Listen address (overrides config)",
					},
				},
			},
			{
				Name:    "broadcast",
				Aliases: []string{"b", "live"},
				Usage:   "Go live: capture frames, commentate and speak",
				Action:  handleBroadcast,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "personality",
						Aliases: []string{"p"},
						Usage:   "Commentator personality id",
					},
					&cli.StringFlag{
						Name:  "input",
						Usage: "Replay an image file or directory instead of the camera",
					},
					&cli.StringFlag{
						Name:  "device",
						Usage: "Camera device passed to ffmpeg",
					},
					&cli.StringFlag{
						Name:  "endpoint",
						Usage: "Base URL of a 'colorcommentary serve' instance",
					},
					&cli.BoolFlag{
						Name:  "mute",
						Usage: "Start with speech off",
					},
					&cli.BoolFlag{
						Name:  "no-sounds",
						Usage: "Disable crowd sound cues",
					},
				},
			},
			{
				Name:      "analyze",
				Usage:     "Commentate a single image and print the normalized update",
				ArgsUsage: "<image>",
				Action:    handleAnalyze,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "personality",
						Aliases: []string{"p"},
						Usage:   "Commentator personality id",
					},
					&cli.StringFlag{
						Name:  "previous",
						Usage: "Previous commentary line to avoid repeating",
					},
					&cli.StringSliceFlag{
						Name:  "person",
						Usage: "Known participant name (repeatable)",
					},
					&cli.BoolFlag{
						Name:  "raw",
						Usage: "Print the model reply before normalization",
					},
				},
			},
			{
				Name:    "personalities",
				Aliases: []string{"personality", "ls"},
				Usage:   "Manage commentator personalities",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List available personalities",
						Action: handlePersonalityList,
					},
					{
						Name:      "show",
						Usage:     "Show a personality's prompt and voice",
						ArgsUsage: "<id>",
						Action:    handlePersonalityShow,
					},
					{
						Name:      "create",
						Usage:     "Create a custom personality file",
						ArgsUsage: "<id>",
						Action:    handlePersonalityCreate,
					},
					{
						Name:      "edit",
						Usage:     "Edit a custom personality in $EDITOR",
						ArgsUsage: "<id>",
						Action:    handlePersonalityEdit,
					},
				},
				Action: handlePersonalityList,
			},
			{
				Name:      "speak",
				Usage:     "Speak text in a personality's voice (stdin when no argument)",
				ArgsUsage: "[text]",
				Action:    handleSpeak,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "personality",
						Aliases: []string{"p"},
						Usage:   "Commentator personality id",
					},
					&cli.StringFlag{
						Name:  "provider",
						Usage: "TTS provider: elevenlabs, openai, polly, gcp (overrides config)",
					},
					&cli.StringFlag{
						Name:  "voice",
						Usage: "Voice ID or name for providers other than ElevenLabs",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Write audio to a file instead of playing it",
					},
				},
			},
			{
				Name:   "voices",
				Usage:  "List voices for the configured TTS provider",
				Action: handleVoices,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "provider",
						Usage: "TTS provider (overrides config)",
					},
				},
			},
			{
				Name:   "sounds",
				Usage:  "Check which crowd sound cues are installed",
				Action: handleSounds,
			},
			{
				Name:   "mcp",
				Usage:  "Serve commentary tools over MCP (stdio)",
				Action: handleMCP,
			},
			{
				Name:  "config",
				Usage: "Inspect configuration",
				Commands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the effective configuration with secrets masked",
						Action: handleConfigShow,
					},
					{
						Name:   "validate",
						Usage:  "Report configuration problems",
						Action: handleConfigValidate,
					},
					{
						Name:   "example",
						Usage:  "Print an example colorcommentary.toml",
						Action: handleConfigExample,
					},
				},
			},
		},
		Before: func(ctx context.Context, c *cli.Command) error {
			if c.Bool("verbose") {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
			return nil
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal().Err(err).Msg("Failed to run application")
	}
}

// loadConfig reads the file named by --config, or the first one found.
func loadConfig(c *cli.Command) (*config.Config, error) {
	path := c.String("config")
	if path == "" {
		path = config.Find()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}
