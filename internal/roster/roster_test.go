package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func count(n int) *int { return &n }

func TestTrack(t *testing.T) {
	tests := []struct {
		name        string
		current     Roster
		names       []string
		count       *int
		want        Roster
		wantChanged bool
	}{
		{
			name:        "detected names replace empty roster",
			current:     nil,
			names:       []string{"Al", "Bo"},
			want:        Roster{"Al", "Bo"},
			wantChanged: true,
		},
		{
			name:        "same names are not a change",
			current:     Roster{"Al", "Bo"},
			names:       []string{"Al", "Bo"},
			count:       count(2),
			want:        Roster{"Al", "Bo"},
			wantChanged: false,
		},
		{
			name:        "detected names capped by people count",
			current:     nil,
			names:       []string{"Al", "Bo", "Cy"},
			count:       count(2),
			want:        Roster{"Al", "Bo"},
			wantChanged: true,
		},
		{
			name:        "zero count does not cap detected names",
			current:     nil,
			names:       []string{"Al"},
			count:       count(0),
			want:        Roster{"Al"},
			wantChanged: true,
		},
		{
			name:        "blank names are filtered",
			current:     Roster{"Old"},
			names:       []string{" ", "Al", ""},
			want:        Roster{"Al"},
			wantChanged: true,
		},
		{
			name:        "only blank names leave roster alone",
			current:     Roster{"Old"},
			names:       []string{" ", ""},
			count:       count(0),
			want:        Roster{"Old"},
			wantChanged: false,
		},
		{
			name:        "count without names truncates tail",
			current:     Roster{"A", "B", "C"},
			count:       count(1),
			want:        Roster{"A"},
			wantChanged: true,
		},
		{
			name:        "count of zero empties roster",
			current:     Roster{"A", "B"},
			names:       []string{},
			count:       count(0),
			want:        Roster{},
			wantChanged: true,
		},
		{
			name:        "larger count never grows roster",
			current:     Roster{"A"},
			count:       count(4),
			want:        Roster{"A"},
			wantChanged: false,
		},
		{
			name:        "no signal leaves roster alone",
			current:     Roster{"A", "B"},
			want:        Roster{"A", "B"},
			wantChanged: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := Track(tt.current, tt.names, tt.count)
			assert.Equal(t, tt.wantChanged, changed)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTrack_Idempotent(t *testing.T) {
	names := []string{"Al", "Bo"}

	first, changed := Track(Roster{"Person 1"}, names, count(2))
	require.True(t, changed)

	second, changed := Track(first, names, count(2))
	assert.False(t, changed)
	assert.Equal(t, first, second)
}

func TestTrack_DoesNotAliasInput(t *testing.T) {
	current := Roster{"A", "B", "C"}

	next, _ := Track(current, nil, count(2))
	next[0] = "Z"

	assert.Equal(t, Roster{"A", "B", "C"}, current)
}

func TestRoster_Edits(t *testing.T) {
	r := Roster{"Al", "Bo"}

	renamed, err := r.Rename(1, "Bob")
	require.NoError(t, err)
	assert.Equal(t, Roster{"Al", "Bob"}, renamed)
	assert.Equal(t, Roster{"Al", "Bo"}, r)

	removed, err := renamed.Remove(0)
	require.NoError(t, err)
	assert.Equal(t, Roster{"Bob"}, removed)

	assert.Equal(t, Roster{"Bob", "Person 2"}, removed.Add())
	assert.Equal(t, Roster{"Person 1"}, Roster(nil).Add())

	_, err = r.Rename(5, "x")
	assert.ErrorIs(t, err, ErrIndex)
	_, err = r.Remove(-1)
	assert.ErrorIs(t, err, ErrIndex)
}

func TestRoster_Filtered(t *testing.T) {
	assert.Equal(t, []string{"Al", "Cy"}, Roster{"Al", "  ", "Cy", ""}.Filtered())
	assert.Equal(t, []string{}, Roster(nil).Filtered())
	assert.Equal(t, "Al,Bo", Roster{"Al", "Bo"}.Key())
}
