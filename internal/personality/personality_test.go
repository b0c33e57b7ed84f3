package personality

import (
	"strings"
	"testing"
)

func TestRegistryBuiltins(t *testing.T) {
	r := NewRegistry()

	want := []string{"default", "eagles", "jets", "ted-lasso", "afc-richmond"}
	got := r.IDs()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("IDs() = %v, want %v", got, want)
	}

	for _, p := range r.List() {
		if p.Name == "" || p.Description == "" || p.Voice == "" {
			t.Errorf("%s: incomplete entry %+v", p.ID, p)
		}
		if !strings.Contains(p.Prompt, "detectedNames") {
			t.Errorf("%s: prompt lacks base instructions", p.ID)
		}
	}
}

func TestRegistryGetFallsBack(t *testing.T) {
	r := NewRegistry()

	if got := r.Get("jets"); got.Name != "Jets Fan" {
		t.Errorf("Get(jets).Name = %q", got.Name)
	}
	if got := r.Get("cowboys"); got.ID != DefaultID {
		t.Errorf("Get(unknown).ID = %q, want %q", got.ID, DefaultID)
	}
	if got := r.Get(""); got.Name != "ESPN" {
		t.Errorf("Get(empty).Name = %q, want ESPN", got.Name)
	}
	if _, ok := r.Lookup("cowboys"); ok {
		t.Error("Lookup(unknown) reported ok")
	}
}

func TestRegistryExtraOverridesInPlace(t *testing.T) {
	r := NewRegistry(
		Personality{ID: "jets", Name: "Happy Jets Fan", Prompt: "x"},
		Personality{ID: "pirate", Name: "Pirate", Prompt: "arr"},
	)

	ids := r.IDs()
	if ids[2] != "jets" || ids[len(ids)-1] != "pirate" {
		t.Fatalf("unexpected order %v", ids)
	}
	if r.Get("jets").Name != "Happy Jets Fan" {
		t.Error("extra entry did not replace built-in")
	}
}

func TestRegistryNext(t *testing.T) {
	r := NewRegistry()

	if got := r.Next("default"); got != "eagles" {
		t.Errorf("Next(default) = %q", got)
	}
	if got := r.Next("afc-richmond"); got != "default" {
		t.Errorf("Next(last) = %q, want wrap to default", got)
	}
	if got := r.Next("nope"); got != "default" {
		t.Errorf("Next(unknown) = %q", got)
	}
}
