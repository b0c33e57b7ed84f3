// Package config loads colorcommentary.toml. The file names environment
// variables for secrets instead of holding them.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"

	"github.com/daikw/colorcommentary/internal/voice/provider"
)

const (
	DefaultConfigFilename = "colorcommentary.toml"
	HomeDir               = ".colorcommentary"

	FilePermission = 0600
	DirPermission  = 0755
)

// ErrInvalidPath is returned for config paths that are not allowed.
var ErrInvalidPath = errors.New("invalid config path")

type Config struct {
	Server    ServerSettings    `toml:"server"`
	Vision    VisionSettings    `toml:"vision"`
	Speech    SpeechSettings    `toml:"speech"`
	Broadcast BroadcastSettings `toml:"broadcast"`
	Camera    CameraSettings    `toml:"camera"`
	Sounds    SoundSettings     `toml:"sounds"`
}

type ServerSettings struct {
	Addr              string `toml:"addr"`
	ShutdownTimeoutMs int    `toml:"shutdown_timeout_ms"`
}

type VisionSettings struct {
	APIKeyVariable  string  `toml:"api_key_variable"`
	APIKey          string  `toml:"api_key,omitempty"`
	Model           string  `toml:"model"`
	Temperature     float64 `toml:"temperature"`
	MaxOutputTokens int     `toml:"max_output_tokens"`
	// Endpoint is a remote proxy base URL. Empty calls the model directly.
	Endpoint string `toml:"endpoint,omitempty"`
}

type SpeechSettings struct {
	Enabled        bool   `toml:"enabled"`
	Provider       string `toml:"provider"`
	APIKeyVariable string `toml:"api_key_variable,omitempty"`
	APIKey         string `toml:"api_key,omitempty"`
	Voice          string `toml:"voice,omitempty"`
	Language       string `toml:"language,omitempty"`
	Region         string `toml:"region,omitempty"`
	BaseURL        string `toml:"base_url,omitempty"`
	Endpoint       string `toml:"endpoint,omitempty"`
}

type BroadcastSettings struct {
	Personality      string `toml:"personality"`
	PersonalitiesDir string `toml:"personalities_dir,omitempty"`
	IntervalMs       int    `toml:"interval_ms"`
	CountdownFrom    int    `toml:"countdown_from"`
	CountdownTickMs  int    `toml:"countdown_tick_ms"`
	RevealStepMs     int    `toml:"reveal_step_ms"`
}

type CameraSettings struct {
	// Device is passed to ffmpeg. Input, when set, replays image files instead.
	Device  string `toml:"device,omitempty"`
	Input   string `toml:"input,omitempty"`
	Width   int    `toml:"width"`
	Height  int    `toml:"height"`
	Quality int    `toml:"quality"`
}

type SoundSettings struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerSettings{
			Addr:              "127.0.0.1:3000",
			ShutdownTimeoutMs: 5000,
		},
		Vision: VisionSettings{
			APIKeyVariable:  "GEMINI_API_KEY",
			Model:           "gemini-3-flash-preview",
			Temperature:     0.9,
			MaxOutputTokens: 2000,
		},
		Speech: SpeechSettings{
			Enabled:  true,
			Provider: "elevenlabs",
		},
		Broadcast: BroadcastSettings{
			Personality:     "default",
			IntervalMs:      3000,
			CountdownFrom:   3,
			CountdownTickMs: 800,
			RevealStepMs:    25,
		},
		Camera: CameraSettings{
			Width:   768,
			Height:  576,
			Quality: 70,
		},
		Sounds: SoundSettings{
			Enabled: true,
			Dir:     "sounds",
		},
	}
}

// Find returns the first existing config file: ./colorcommentary.toml, then
// ~/.colorcommentary/colorcommentary.toml. It returns "" when there is none.
func Find() string {
	candidates := []string{DefaultConfigFilename}
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, HomeDir, DefaultConfigFilename))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Load reads the file at path over the defaults. An empty path or a missing
// file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		log.Debug().Msg("No config file, using defaults")
		return cfg, nil
	}
	if err := validatePath(path); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("path", path).Msg("Config file not found, using defaults")
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expanded := expandEnvVars(string(data))
	if err := toml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	checkFilePermissions(path)
	log.Debug().Str("path", path).Msg("Loaded config")
	return cfg, nil
}

func validatePath(path string) error {
	if strings.Contains(path, "..") {
		return fmt.Errorf("%w: path traversal not allowed", ErrInvalidPath)
	}
	if filepath.Ext(filepath.Clean(path)) != ".toml" {
		return fmt.Errorf("%w: must be a .toml file", ErrInvalidPath)
	}
	return nil
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} with the variable's value, or "" when unset.
func expandEnvVars(input string) string {
	return envPattern.ReplaceAllStringFunc(input, func(match string) string {
		if value, ok := os.LookupEnv(match[2 : len(match)-1]); ok {
			return value
		}
		// Don't log variable names
		log.Debug().Msg("Referenced environment variable not set in config")
		return ""
	})
}

func checkFilePermissions(path string) {
	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if mode := info.Mode().Perm(); mode&0077 != 0 {
		log.Warn().
			Str("permissions", fmt.Sprintf("%04o", mode)).
			Msg("Config file may contain secrets but has permissive permissions. Consider: chmod 600")
	}
}

// Key returns the Gemini API key, preferring an inline value.
func (v VisionSettings) Key() string {
	if v.APIKey != "" {
		return v.APIKey
	}
	if v.APIKeyVariable == "" {
		return ""
	}
	return os.Getenv(v.APIKeyVariable)
}

// KeyVariable is the environment variable holding the speech provider key.
func (s SpeechSettings) KeyVariable() string {
	if s.APIKeyVariable != "" {
		return s.APIKeyVariable
	}
	switch s.Provider {
	case "openai":
		return "OPENAI_API_KEY"
	case "elevenlabs", "":
		return "ELEVENLABS_API_KEY"
	}
	return ""
}

// Key returns the speech provider key, preferring an inline value.
func (s SpeechSettings) Key() string {
	if s.APIKey != "" {
		return s.APIKey
	}
	if name := s.KeyVariable(); name != "" {
		return os.Getenv(name)
	}
	return ""
}

// ProviderConfig returns the map understood by provider.CreateProvider.
func (s SpeechSettings) ProviderConfig() map[string]interface{} {
	m := map[string]interface{}{}
	set := func(key, value string) {
		if value != "" {
			m[key] = value
		}
	}
	set("api_key", s.Key())
	set("base_url", s.BaseURL)
	set("region", s.Region)
	set("voice", s.Voice)
	set("language", s.Language)
	return m
}

func (b BroadcastSettings) Interval() time.Duration {
	return time.Duration(b.IntervalMs) * time.Millisecond
}

func (b BroadcastSettings) CountdownTick() time.Duration {
	return time.Duration(b.CountdownTickMs) * time.Millisecond
}

func (b BroadcastSettings) RevealStep() time.Duration {
	return time.Duration(b.RevealStepMs) * time.Millisecond
}

func (s ServerSettings) ShutdownTimeout() time.Duration {
	return time.Duration(s.ShutdownTimeoutMs) * time.Millisecond
}

// Validate returns human-readable problems. Missing keys are reported
// because the matching endpoint will answer "unavailable".
func (c *Config) Validate() []string {
	var problems []string

	if c.Server.Addr == "" {
		problems = append(problems, "server: addr is required")
	}
	if c.Vision.Model == "" {
		problems = append(problems, "vision: model is required")
	}
	if c.Vision.Temperature < 0 || c.Vision.Temperature > 2 {
		problems = append(problems, "vision: temperature must be between 0.0 and 2.0")
	}
	if c.Vision.MaxOutputTokens <= 0 {
		problems = append(problems, "vision: max_output_tokens must be positive")
	}
	if c.Vision.Endpoint == "" && c.Vision.Key() == "" {
		problems = append(problems, fmt.Sprintf("vision: %s is not set", c.Vision.APIKeyVariable))
	}

	if c.Speech.Enabled {
		known := false
		for _, name := range provider.NewFactory().ListProviders() {
			if name == c.Speech.Provider {
				known = true
			}
		}
		if !known {
			problems = append(problems, fmt.Sprintf("speech: unknown provider '%s'", c.Speech.Provider))
		} else if c.Speech.Endpoint == "" && c.Speech.KeyVariable() != "" && c.Speech.Key() == "" {
			problems = append(problems, fmt.Sprintf("speech: %s is not set", c.Speech.KeyVariable()))
		}
	}

	if c.Broadcast.IntervalMs <= 0 {
		problems = append(problems, "broadcast: interval_ms must be positive")
	}
	if c.Broadcast.CountdownFrom < 0 {
		problems = append(problems, "broadcast: countdown_from must not be negative")
	}
	if c.Broadcast.CountdownTickMs < 0 || c.Broadcast.RevealStepMs < 0 {
		problems = append(problems, "broadcast: durations must not be negative")
	}

	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		problems = append(problems, "camera: width and height must be positive")
	}
	if c.Camera.Quality < 1 || c.Camera.Quality > 100 {
		problems = append(problems, "camera: quality must be between 1 and 100")
	}

	if c.Sounds.Enabled && c.Sounds.Dir == "" {
		problems = append(problems, "sounds: dir is required when enabled")
	}
	return problems
}

// MaskSecrets returns a copy with inline keys hidden, for display.
func (c *Config) MaskSecrets() *Config {
	masked := *c
	masked.Vision.APIKey = mask(c.Vision.APIKey)
	masked.Speech.APIKey = mask(c.Speech.APIKey)
	return &masked
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****"
}

// Marshal encodes c as TOML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := toml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}

// Example returns a commented example file built from the defaults.
func Example() ([]byte, error) {
	cfg := Default()
	cfg.Camera.Device = "/dev/video0"
	data, err := cfg.Marshal()
	if err != nil {
		return nil, err
	}
	header := "# colorcommentary configuration\n" +
		"# Keys are read from the environment variables named here.\n" +
		"# ${VAR} references are expanded when the file is loaded.\n\n"
	return append([]byte(header), data...), nil
}
