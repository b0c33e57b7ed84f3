package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultConfigFilename)
	require.NoError(t, os.WriteFile(path, []byte(content), FilePermission))
	return path
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_API_KEY", "sk-test-12345")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"expand ${VAR} pattern", `api_key = "${TEST_API_KEY}"`, `api_key = "sk-test-12345"`},
		{"missing env var returns empty", `api_key = "${NONEXISTENT_VAR_FOR_TEST}"`, `api_key = ""`},
		{"no variables to expand", `api_key = "literal"`, `api_key = "literal"`},
		{"multiple variables", `a = "${TEST_API_KEY}" b = "${TEST_API_KEY}"`, `a = "sk-test-12345" b = "sk-test-12345"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("empty path yields defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("missing file yields defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
		require.NoError(t, err)
		assert.Equal(t, Default(), cfg)
	})

	t.Run("partial file keeps other defaults", func(t *testing.T) {
		t.Setenv("TEST_ELEVEN_KEY", "eleven-secret")
		path := writeConfig(t, `
[speech]
provider = "elevenlabs"
api_key = "${TEST_ELEVEN_KEY}"

[broadcast]
personality = "jets"
interval_ms = 1500
`)
		cfg, err := Load(path)
		require.NoError(t, err)

		assert.Equal(t, "jets", cfg.Broadcast.Personality)
		assert.Equal(t, 1500*time.Millisecond, cfg.Broadcast.Interval())
		assert.Equal(t, 800*time.Millisecond, cfg.Broadcast.CountdownTick())
		assert.Equal(t, "eleven-secret", cfg.Speech.Key())
		assert.Equal(t, "GEMINI_API_KEY", cfg.Vision.APIKeyVariable)
		assert.True(t, cfg.Speech.Enabled)
	})

	t.Run("rejects traversal", func(t *testing.T) {
		_, err := Load("../colorcommentary.toml")
		assert.ErrorIs(t, err, ErrInvalidPath)
	})

	t.Run("rejects other extensions", func(t *testing.T) {
		_, err := Load("config.json")
		assert.ErrorIs(t, err, ErrInvalidPath)
	})

	t.Run("parse error", func(t *testing.T) {
		path := writeConfig(t, "[broadcast\ninterval_ms = ")
		_, err := Load(path)
		assert.ErrorContains(t, err, "failed to parse config file")
	})
}

func TestKeys(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "gemini-env")
	t.Setenv("OPENAI_API_KEY", "openai-env")
	t.Setenv("ELEVENLABS_API_KEY", "")

	cfg := Default()
	assert.Equal(t, "gemini-env", cfg.Vision.Key())

	cfg.Vision.APIKey = "inline"
	assert.Equal(t, "inline", cfg.Vision.Key())

	assert.Equal(t, "ELEVENLABS_API_KEY", cfg.Speech.KeyVariable())
	assert.Equal(t, "", cfg.Speech.Key())

	cfg.Speech.Provider = "openai"
	assert.Equal(t, "openai-env", cfg.Speech.Key())

	cfg.Speech.Provider = "polly"
	assert.Equal(t, "", cfg.Speech.KeyVariable())

	cfg.Speech.APIKeyVariable = "CUSTOM_SPEECH_KEY"
	t.Setenv("CUSTOM_SPEECH_KEY", "custom")
	assert.Equal(t, "custom", cfg.Speech.Key())
}

func TestProviderConfig(t *testing.T) {
	s := SpeechSettings{Provider: "polly", Region: "us-west-2", Voice: "Joanna"}
	assert.Equal(t, map[string]interface{}{"region": "us-west-2", "voice": "Joanna"}, s.ProviderConfig())

	s = SpeechSettings{Provider: "openai", APIKey: "k", BaseURL: "http://localhost"}
	assert.Equal(t, map[string]interface{}{"api_key": "k", "base_url": "http://localhost"}, s.ProviderConfig())
}

func TestValidate(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "g")
	t.Setenv("ELEVENLABS_API_KEY", "e")

	assert.Empty(t, Default().Validate())

	cfg := Default()
	cfg.Broadcast.IntervalMs = 0
	cfg.Camera.Quality = 0
	cfg.Speech.Provider = "voicevox"
	cfg.Vision.Temperature = 3
	problems := cfg.Validate()
	assert.Contains(t, problems, "broadcast: interval_ms must be positive")
	assert.Contains(t, problems, "camera: quality must be between 1 and 100")
	assert.Contains(t, problems, "speech: unknown provider 'voicevox'")
	assert.Contains(t, problems, "vision: temperature must be between 0.0 and 2.0")

	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("ELEVENLABS_API_KEY", "")
	problems = Default().Validate()
	assert.Equal(t, []string{
		"vision: GEMINI_API_KEY is not set",
		"speech: ELEVENLABS_API_KEY is not set",
	}, problems)

	cfg = Default()
	cfg.Vision.Endpoint = "http://proxy:3000"
	cfg.Speech.Enabled = false
	assert.Empty(t, cfg.Validate())
}

func TestMaskSecrets(t *testing.T) {
	cfg := Default()
	cfg.Vision.APIKey = "AIzaSyExampleKey"
	cfg.Speech.APIKey = "short"

	masked := cfg.MaskSecrets()
	assert.Equal(t, "AIza****", masked.Vision.APIKey)
	assert.Equal(t, "****", masked.Speech.APIKey)
	assert.Equal(t, "AIzaSyExampleKey", cfg.Vision.APIKey)
}

func TestExample(t *testing.T) {
	data, err := Example()
	require.NoError(t, err)
	assert.Contains(t, string(data), "[broadcast]")
	assert.Contains(t, string(data), "GEMINI_API_KEY")

	path := writeConfig(t, string(data))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/video0", cfg.Camera.Device)
	assert.Equal(t, Default().Broadcast, cfg.Broadcast)
}
