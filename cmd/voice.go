package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"

	"github.com/daikw/colorcommentary/internal/commentary"
	"github.com/daikw/colorcommentary/internal/voice"
)

func handleSpeak(ctx context.Context, c *cli.Command) error {
	text := strings.Join(c.Args().Slice(), " ")
	if text == "" {
		textBytes, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read from stdin: %w", err)
		}
		text = string(textBytes)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("no text provided")
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if p := c.String("provider"); p != "" {
		cfg.Speech.Provider = p
		cfg.Speech.Endpoint = ""
	}
	if v := c.String("voice"); v != "" {
		cfg.Speech.Voice = v
	}
	registry, err := loadRegistry(cfg)
	if err != nil {
		return err
	}
	synth, err := newSynthesizer(ctx, cfg, registry)
	if err != nil {
		return err
	}

	personalityID := c.String("personality")
	if personalityID == "" {
		personalityID = cfg.Broadcast.Personality
	}

	if output := c.String("output"); output != "" {
		audio, err := synth.Synthesize(ctx, text, personalityID)
		if err != nil {
			if errors.Is(err, voice.ErrNoContent) {
				return fmt.Errorf("personality '%s' has no voice", personalityID)
			}
			return fmt.Errorf("failed to synthesize voice: %w", err)
		}
		defer audio.Close()

		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		if _, err := io.Copy(f, audio); err != nil {
			return fmt.Errorf("failed to write audio: %w", err)
		}
		fmt.Fprintf(os.Stderr, "🎵 Audio saved to: %s\n", output)
		return nil
	}

	player, err := voice.DetectPlayer()
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "📢 Reading text: %s\n", text)
	speaker := voice.NewSpeaker(synth, player)
	speaker.Speak(text, personalityID)
	go func() {
		<-ctx.Done()
		speaker.Stop()
	}()
	speaker.Wait()
	return nil
}

func handleVoices(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if p := c.String("provider"); p != "" {
		cfg.Speech.Provider = p
	}

	p, err := newProvider(ctx, cfg)
	if err != nil {
		return err
	}
	voices, err := p.ListVoices(ctx)
	if err != nil {
		return fmt.Errorf("failed to list voices: %w", err)
	}
	if len(voices) == 0 {
		fmt.Println("No voices available")
		return nil
	}

	fmt.Printf("Available voices for provider '%s':\n", p.Name())
	for _, v := range voices {
		fmt.Printf("  - %s (%s) - %s\n", v.ID, v.Language, v.Description)
	}
	return nil
}

func handleSounds(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	cues := voice.NewCuePlayer(cfg.Sounds.Dir, nil)
	missing := 0
	fmt.Printf("Sound cues in %s:\n", cfg.Sounds.Dir)
	for _, s := range commentary.Sounds {
		path := cues.Path(s)
		status := color.GreenString("ok")
		if _, err := os.Stat(path); err != nil {
			status = color.RedString("missing")
			missing++
		}
		fmt.Printf("  %-7s %-40s %s\n", s, path, status)
	}
	if _, err := voice.DetectPlayer(); err != nil {
		fmt.Println(color.YellowString("No audio player found; install mpg123 or ffmpeg"))
	}
	if missing > 0 {
		fmt.Println("Missing cues are skipped during a broadcast.")
	}
	return nil
}
