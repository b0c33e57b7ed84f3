package personality

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	// ErrNotFound is returned when a personality file does not exist.
	ErrNotFound = errors.New("personality not found")
	// ErrInvalidID is returned for identifiers that cannot name a file.
	ErrInvalidID = errors.New("invalid personality id")
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Manager handles user-defined personality files. Each file is
// <dir>/<id>.md in the form:
//
//	# Name: Description
//	Voice: <elevenlabs voice id>
//
//	Prompt text...
//
// The Voice line is optional. Prompts that do not mention detectedNames get
// the shared base instructions appended.
type Manager struct {
	dir string
}

// NewManager creates a manager rooted at dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// DefaultDir returns ~/.colorcommentary/personalities.
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".colorcommentary", "personalities"), nil
}

// Dir returns the directory the manager reads from.
func (m *Manager) Dir() string {
	return m.dir
}

// Path returns the file path for id.
func (m *Manager) Path(id string) string {
	return filepath.Join(m.dir, id+".md")
}

// Exists checks if a personality file exists
func (m *Manager) Exists(id string) bool {
	_, err := os.Stat(m.Path(id))
	return err == nil
}

// List returns the ids of all personality files.
func (m *Manager) List() ([]string, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Debug().Str("dir", m.dir).Msg("Personalities directory does not exist")
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read personalities directory: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ".md")
		if !idPattern.MatchString(id) {
			log.Warn().Str("file", entry.Name()).Msg("Skipping personality file with invalid name")
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Load reads and parses the personality file for id.
func (m *Manager) Load(id string) (Personality, error) {
	if !idPattern.MatchString(id) {
		return Personality{}, fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	content, err := os.ReadFile(m.Path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Personality{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Personality{}, fmt.Errorf("failed to read personality file: %w", err)
	}
	p, err := Parse(id, string(content))
	if err != nil {
		return Personality{}, fmt.Errorf("failed to parse %s: %w", m.Path(id), err)
	}
	return p, nil
}

// LoadAll loads every valid personality file. Broken files are logged and skipped.
func (m *Manager) LoadAll() ([]Personality, error) {
	ids, err := m.List()
	if err != nil {
		return nil, err
	}
	var out []Personality
	for _, id := range ids {
		p, err := m.Load(id)
		if err != nil {
			log.Warn().Err(err).Str("personality", id).Msg("Skipping personality")
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Create writes a template file for id.
func (m *Manager) Create(id string) (string, error) {
	if !idPattern.MatchString(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	if m.Exists(id) {
		return "", fmt.Errorf("personality '%s' already exists", id)
	}
	if err := os.MkdirAll(m.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create personalities directory: %w", err)
	}

	template := fmt.Sprintf(`# %s: Describe your commentator in a few words

You are a sports commentator providing LIVE color commentary. You are watching real people through a webcam right now.

Your style:
- Describe the voice, slang and references you want to hear
`, id)

	path := m.Path(id)
	if err := os.WriteFile(path, []byte(template), 0644); err != nil {
		return "", fmt.Errorf("failed to create personality file: %w", err)
	}

	log.Info().Str("personality", id).Str("path", path).Msg("Created new personality")
	return path, nil
}

// Registry builds a registry of the built-ins plus every file in the directory.
func (m *Manager) Registry() (*Registry, error) {
	extra, err := m.LoadAll()
	if err != nil {
		return nil, err
	}
	return NewRegistry(extra...), nil
}

// Parse reads the personality markdown format.
func Parse(id, content string) (Personality, error) {
	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i == len(lines) || !strings.HasPrefix(lines[i], "# ") {
		return Personality{}, errors.New("missing '# Name: Description' header")
	}

	p := Personality{ID: id}
	header := strings.TrimSpace(strings.TrimPrefix(lines[i], "# "))
	name, description, _ := strings.Cut(header, ":")
	p.Name = strings.TrimSpace(name)
	p.Description = strings.TrimSpace(description)
	if p.Name == "" {
		p.Name = id
	}
	i++

	for ; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if v, ok := strings.CutPrefix(line, "Voice:"); ok {
			p.Voice = strings.TrimSpace(v)
			continue
		}
		break
	}

	p.Prompt = strings.TrimSpace(strings.Join(lines[i:], "\n"))
	if p.Prompt == "" {
		return Personality{}, errors.New("empty prompt")
	}
	if !strings.Contains(p.Prompt, "detectedNames") {
		p.Prompt += "\n" + BaseInstructions
	}
	return p, nil
}
