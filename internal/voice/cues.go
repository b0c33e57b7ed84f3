package voice

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/daikw/colorcommentary/internal/commentary"
)

// CueVolume is the playback volume for crowd cues.
const CueVolume = 0.3

// CueFiles maps each cue to its file name in the sounds directory.
var CueFiles = map[commentary.Sound]string{
	commentary.SoundCheer:  "crowd-cheer.mp3",
	commentary.SoundGasp:   "crowd-gasp.mp3",
	commentary.SoundOrgan:  "organ-hit.mp3",
	commentary.SoundBuzzer: "buzzer.mp3",
}

// CuePlayer plays crowd sound cues. A new cue restarts playback, the way
// an audio element rewinds when played again.
type CuePlayer struct {
	dir    string
	player Player
	volume float64

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewCuePlayer plays cues from dir.
func NewCuePlayer(dir string, player Player) *CuePlayer {
	return &CuePlayer{dir: dir, player: player, volume: CueVolume}
}

// Path returns the file for sound, or "" when there is none.
func (c *CuePlayer) Path(sound commentary.Sound) string {
	name, ok := CueFiles[sound]
	if !ok {
		return ""
	}
	return filepath.Join(c.dir, name)
}

// Play starts the cue in the background. Missing files are skipped.
func (c *CuePlayer) Play(sound commentary.Sound) {
	path := c.Path(sound)
	if path == "" {
		return
	}
	if _, err := os.Stat(path); err != nil {
		log.Debug().Str("sound", string(sound)).Str("path", path).Msg("Sound cue file missing")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.cancel = cancel
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		defer cancel()
		if err := c.player.Play(ctx, path, c.volume); err != nil && ctx.Err() == nil {
			log.Debug().Err(err).Str("sound", string(sound)).Msg("Sound cue failed")
		}
	}()
}

// Close stops any playing cue and waits for it to end.
func (c *CuePlayer) Close() {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.mu.Unlock()
	c.wg.Wait()
}
