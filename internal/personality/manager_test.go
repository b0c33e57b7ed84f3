package personality

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManagerList(t *testing.T) {
	tmpDir := t.TempDir()
	m := NewManager(filepath.Join(tmpDir, "personalities"))

	t.Run("MissingDirectory", func(t *testing.T) {
		ids, err := m.List()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(ids) != 0 {
			t.Errorf("Expected empty list, got %v", ids)
		}
	})

	t.Run("WithFiles", func(t *testing.T) {
		if err := os.MkdirAll(m.Dir(), 0755); err != nil {
			t.Fatal(err)
		}
		for _, name := range []string{"pirate.md", "Bad Name.md", "notes.txt"} {
			if err := os.WriteFile(filepath.Join(m.Dir(), name), []byte("# x\nprompt"), 0644); err != nil {
				t.Fatal(err)
			}
		}

		ids, err := m.List()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if len(ids) != 1 || ids[0] != "pirate" {
			t.Errorf("Expected [pirate], got %v", ids)
		}
	})
}

func TestManagerCreateAndLoad(t *testing.T) {
	m := NewManager(t.TempDir())

	path, err := m.Create("pirate")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if !strings.HasSuffix(path, "pirate.md") {
		t.Errorf("unexpected path %s", path)
	}
	if _, err := m.Create("pirate"); err == nil {
		t.Error("Expected error creating duplicate personality")
	}

	p, err := m.Load("pirate")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if p.Name != "pirate" || p.ID != "pirate" {
		t.Errorf("unexpected personality %+v", p)
	}
	if !strings.Contains(p.Prompt, BaseInstructions) {
		t.Error("Expected base instructions appended to prompt")
	}

	r, err := m.Registry()
	if err != nil {
		t.Fatalf("Registry failed: %v", err)
	}
	if _, ok := r.Lookup("pirate"); !ok {
		t.Error("Expected pirate in registry")
	}
}

func TestManagerLoadErrors(t *testing.T) {
	m := NewManager(t.TempDir())

	if _, err := m.Load("../etc"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID, got %v", err)
	}
	if _, err := m.Load("ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if _, err := m.Create("Has Spaces"); !errors.Is(err, ErrInvalidID) {
		t.Errorf("Expected ErrInvalidID, got %v", err)
	}
}

func TestParse(t *testing.T) {
	content := `
# Pirate: Salty sea dog
Voice: abc123

You are a pirate calling the game.
Put names in detectedNames.
`
	p, err := Parse("pirate", content)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if p.Name != "Pirate" || p.Description != "Salty sea dog" || p.Voice != "abc123" {
		t.Errorf("unexpected header fields %+v", p)
	}
	if p.Prompt != "You are a pirate calling the game.\nPut names in detectedNames." {
		t.Errorf("unexpected prompt %q", p.Prompt)
	}

	if _, err := Parse("x", "no header"); err == nil {
		t.Error("Expected error for missing header")
	}
	if _, err := Parse("x", "# Only: header\n\n"); err == nil {
		t.Error("Expected error for empty prompt")
	}
}
