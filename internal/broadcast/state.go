package broadcast

import (
	"slices"
	"sync"
	"time"

	"github.com/daikw/colorcommentary/internal/commentary"
	"github.com/daikw/colorcommentary/internal/roster"
)

// Phase is the lifecycle phase of a broadcast session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseConnecting Phase = "connecting"
	PhaseCountdown  Phase = "countdown"
	PhaseLive       Phase = "live"
	PhaseError      Phase = "error"
)

// Snapshot is a copy of the session state. It is safe to keep and read.
type Snapshot struct {
	Phase     Phase
	Countdown int
	Error     string
	StartedAt time.Time

	Personality string
	Commentary  string
	Engagement  int
	Skepticism  int
	Momentum    commentary.Momentum
	Roster      roster.Roster
	Events      []PlayEvent

	PreviousCommentary string
	Cycles             int
}

// Elapsed returns the time since the broadcast went live.
func (s Snapshot) Elapsed(now time.Time) time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	return now.Sub(s.StartedAt)
}

func (s Snapshot) clone() Snapshot {
	s.Roster = slices.Clone(s.Roster)
	s.Events = slices.Clone(s.Events)
	return s
}

// Effects are the side effects of applying one update.
type Effects struct {
	Event         *PlayEvent
	Sound         commentary.Sound
	RosterChanged bool
}

// State is the session state. The controller writes updates, user actions
// write edits, everyone else reads snapshots. Observers run synchronously
// after every change and must not modify the state.
type State struct {
	notifyMu sync.Mutex
	mu       sync.RWMutex
	snap     Snapshot

	observers []func(Snapshot)
	now       func() time.Time
}

// NewState creates an idle state for the given personality.
func NewState(personality string) *State {
	return &State{
		snap: Snapshot{
			Phase:       PhaseIdle,
			Personality: personality,
			Engagement:  commentary.DefaultScore,
			Skepticism:  commentary.DefaultScore,
			Momentum:    commentary.MomentumSteady,
		},
		now: time.Now,
	}
}

// Observe registers fn to be called with a snapshot after every change.
func (s *State) Observe(fn func(Snapshot)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	s.observers = append(s.observers, fn)
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.clone()
}

func (s *State) update(fn func(*Snapshot) bool) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	changed := fn(&s.snap)
	snap := s.snap.clone()
	s.mu.Unlock()

	if !changed {
		return
	}
	for _, observe := range s.observers {
		observe(snap)
	}
}

// Apply copies a normalized update into the state, runs the name tracker
// and records any notable event.
func (s *State) Apply(u commentary.Update) Effects {
	eff := Effects{Sound: u.Sound}
	now := s.now()
	s.update(func(st *Snapshot) bool {
		st.Commentary = u.Commentary
		st.Engagement = u.Engagement
		st.Skepticism = u.Skepticism
		st.Momentum = u.Momentum
		if next, changed := roster.Track(st.Roster, u.DetectedNames, u.PeopleCount); changed {
			st.Roster = next
			eff.RosterChanged = true
		}
		if ev, ok := Derive(u, st.Elapsed(now)); ok {
			st.Events = PushEvent(st.Events, ev)
			eff.Event = &ev
		}
		st.PreviousCommentary = u.Commentary
		st.Cycles++
		return true
	})
	return eff
}

// SetPersonality switches the active personality.
func (s *State) SetPersonality(id string) {
	s.update(func(st *Snapshot) bool {
		if st.Personality == id {
			return false
		}
		st.Personality = id
		return true
	})
}

// RenameParticipant renames the roster entry at i.
func (s *State) RenameParticipant(i int, name string) error {
	return s.editRoster(func(r roster.Roster) (roster.Roster, error) { return r.Rename(i, name) })
}

// RemoveParticipant removes the roster entry at i.
func (s *State) RemoveParticipant(i int) error {
	return s.editRoster(func(r roster.Roster) (roster.Roster, error) { return r.Remove(i) })
}

// AddParticipant appends a placeholder participant.
func (s *State) AddParticipant() {
	_ = s.editRoster(func(r roster.Roster) (roster.Roster, error) { return r.Add(), nil })
}

func (s *State) editRoster(edit func(roster.Roster) (roster.Roster, error)) error {
	var err error
	s.update(func(st *Snapshot) bool {
		var next roster.Roster
		next, err = edit(st.Roster)
		if err != nil {
			return false
		}
		st.Roster = next
		return true
	})
	return err
}

func (s *State) setPhase(p Phase) {
	s.update(func(st *Snapshot) bool {
		if st.Phase == p {
			return false
		}
		st.Phase = p
		if p != PhaseCountdown {
			st.Countdown = 0
		}
		if p != PhaseError {
			st.Error = ""
		}
		return true
	})
}

func (s *State) setCountdown(n int) {
	s.update(func(st *Snapshot) bool {
		st.Phase = PhaseCountdown
		st.Countdown = n
		return true
	})
}

func (s *State) goLive(at time.Time) {
	s.update(func(st *Snapshot) bool {
		st.Phase = PhaseLive
		st.Countdown = 0
		st.StartedAt = at
		return true
	})
}

func (s *State) fail(msg string) {
	s.update(func(st *Snapshot) bool {
		st.Phase = PhaseError
		st.Countdown = 0
		st.Error = msg
		return true
	})
}
