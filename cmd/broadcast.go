package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/daikw/colorcommentary/internal/broadcast"
	"github.com/daikw/colorcommentary/internal/camera"
	"github.com/daikw/colorcommentary/internal/config"
	"github.com/daikw/colorcommentary/internal/voice"
)

func handleBroadcast(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	applyBroadcastFlags(cfg, c)

	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	if _, ok := registry.Lookup(cfg.Broadcast.Personality); !ok {
		log.Warn().Str("personality", cfg.Broadcast.Personality).Msg("Unknown personality, using default")
		cfg.Broadcast.Personality = registry.Get(cfg.Broadcast.Personality).ID
	}

	analyzer, err := newAnalyzer(ctx, cfg, registry)
	if err != nil {
		return fmt.Errorf("cannot broadcast without a vision model: %w", err)
	}

	var frames broadcast.FrameSource
	if cfg.Camera.Input != "" {
		frames = camera.NewFileSource(cfg.Camera.Input)
	} else {
		frames = camera.NewFFmpegSource(cfg.Camera.Device)
	}
	encoder := &camera.Encoder{Width: cfg.Camera.Width, Height: cfg.Camera.Height, Quality: cfg.Camera.Quality}

	opts := []broadcast.ControllerOption{broadcast.WithInterval(cfg.Broadcast.Interval())}

	player, playerErr := voice.DetectPlayer()
	if playerErr != nil {
		log.Warn().Err(playerErr).Msg("Audio disabled")
	}

	var speaker *voice.Speaker
	if player != nil && cfg.Speech.Enabled {
		synth, err := newSynthesizer(ctx, cfg, registry)
		if err = optional(err, "Speech"); err != nil {
			return err
		}
		if synth != nil {
			speaker = voice.NewSpeaker(synth, player)
			speaker.SetEnabled(!c.Bool("mute"))
			opts = append(opts, broadcast.WithNarrator(speaker))
		}
	}
	if player != nil && cfg.Sounds.Enabled {
		cues := voice.NewCuePlayer(cfg.Sounds.Dir, player)
		defer cues.Close()
		opts = append(opts, broadcast.WithCuePlayer(cues))
	}

	state := broadcast.NewState(cfg.Broadcast.Personality)
	controller := broadcast.NewController(state, frames, encoder, analyzer, opts...)
	session := broadcast.NewSession(controller,
		broadcast.WithCountdown(cfg.Broadcast.CountdownFrom, cfg.Broadcast.CountdownTick()))

	view := newRenderer(os.Stdout, registry, cfg.Broadcast.RevealStep())
	state.Observe(view.observe)
	defer view.close()

	log.Debug().Str("session_id", session.ID).Msg("Starting broadcast session")
	if err := session.Start(ctx); err != nil {
		log.Debug().Err(err).Msg("Session did not go live")
	}
	fmt.Println(infoStyle.Sprint("Type 'help' for commands."))

	con := &console{ctx: ctx, session: session, registry: registry, out: os.Stdout}
	if speaker != nil {
		con.speech = speaker
	}
	con.run(os.Stdin)

	session.Stop()
	return nil
}

// applyBroadcastFlags lets flags override the file.
func applyBroadcastFlags(cfg *config.Config, c *cli.Command) {
	if v := c.String("personality"); v != "" {
		cfg.Broadcast.Personality = v
	}
	if v := c.String("input"); v != "" {
		cfg.Camera.Input = v
	}
	if v := c.String("device"); v != "" {
		cfg.Camera.Device = v
	}
	if v := c.String("endpoint"); v != "" {
		cfg.Vision.Endpoint = v
		cfg.Speech.Endpoint = v
	}
	if c.Bool("no-sounds") {
		cfg.Sounds.Enabled = false
	}
}
