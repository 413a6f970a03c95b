package league

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSource is an in-memory GameweekSource that counts its reads.
type memSource struct {
	completed []int
	kickoffs  map[int]time.Time
	err       error

	listCalls    int
	fixtureCalls []int
}

func (m *memSource) CompletedGameweeks(context.Context) ([]int, error) {
	m.listCalls++
	if m.err != nil {
		return nil, m.err
	}
	return m.completed, nil
}

func (m *memSource) FirstFixture(_ context.Context, gw int) (*Fixture, error) {
	m.fixtureCalls = append(m.fixtureCalls, gw)
	k, ok := m.kickoffs[gw]
	if !ok {
		return nil, nil
	}
	return &Fixture{Gameweek: gw, Kickoff: k}, nil
}

func ts(t *testing.T, v string) *time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, v)
	require.NoError(t, err)
	return &parsed
}

func testOverrides() Overrides {
	return NewOverrides(map[string]int{
		"API Test":          NeverStart,
		"Prem Predictions":  0,
		"Office Sweepstake": 7,
	})
}

func TestResolveStartGameweek(t *testing.T) {
	source := func() *memSource {
		return &memSource{
			completed: []int{1, 2, 3},
			kickoffs: map[int]time.Time{
				1: *ts(t, "2024-12-30T15:00:00Z"),
				2: *ts(t, "2025-01-02T15:00:00Z"),
				3: *ts(t, "2025-01-09T15:00:00Z"),
			},
		}
	}

	tests := []struct {
		name      string
		league    *League
		currentGw int
		want      int
	}{
		{
			name:      "nil league",
			league:    nil,
			currentGw: 4,
			want:      4,
		},
		{
			name:      "league without id",
			league:    &League{Name: "API Test", CreatedAt: ts(t, "2025-01-01T00:00:00Z")},
			currentGw: 5,
			want:      5,
		},
		{
			name:      "created between gw1 and gw2 deadlines",
			league:    &League{ID: "L1", CreatedAt: ts(t, "2025-01-01T00:00:00Z")},
			currentGw: 5,
			want:      2,
		},
		{
			name:      "created before every deadline",
			league:    &League{ID: "L1", CreatedAt: ts(t, "2024-01-01T00:00:00Z")},
			currentGw: 5,
			want:      1,
		},
		{
			name:      "created after every deadline",
			league:    &League{ID: "L3", CreatedAt: ts(t, "2030-01-01T00:00:00Z")},
			currentGw: 5,
			want:      4,
		},
		{
			name:      "no creation time",
			league:    &League{ID: "L4"},
			currentGw: 7,
			want:      7,
		},
		{
			name:      "zero current gameweek",
			league:    &League{ID: "L5", CreatedAt: ts(t, "2025-01-01T00:00:00Z")},
			currentGw: 0,
			want:      0,
		},
		{
			name:      "override to sentinel",
			league:    &League{ID: "L2", Name: "API Test", CreatedAt: ts(t, "2025-06-01T00:00:00Z")},
			currentGw: 5,
			want:      NeverStart,
		},
		{
			name:      "override to zero",
			league:    &League{ID: "L6", Name: "Prem Predictions", CreatedAt: ts(t, "2030-01-01T00:00:00Z")},
			currentGw: 5,
			want:      0,
		},
		{
			name:      "override name is case sensitive",
			league:    &League{ID: "L7", Name: "api test", CreatedAt: ts(t, "2030-01-01T00:00:00Z")},
			currentGw: 5,
			want:      4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(source(), testOverrides(), nil)
			got, err := r.ResolveStartGameweek(context.Background(), tt.league, tt.currentGw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveDeadlineBoundary(t *testing.T) {
	src := &memSource{
		completed: []int{1},
		kickoffs:  map[int]time.Time{1: *ts(t, "2025-01-02T15:00:00Z")},
	}
	r := NewResolver(src, Overrides{}, nil)

	// exactly at the deadline is not strictly before it
	got, err := r.ResolveStartGameweek(context.Background(), &League{ID: "L", CreatedAt: ts(t, "2025-01-02T13:45:00Z")}, 3)
	require.NoError(t, err)
	assert.Equal(t, 2, got)

	got, err = r.ResolveStartGameweek(context.Background(), &League{ID: "L", CreatedAt: ts(t, "2025-01-02T13:44:59Z")}, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestResolveOverrideSkipsReads(t *testing.T) {
	src := &memSource{completed: []int{1, 2}}
	r := NewResolver(src, testOverrides(), nil)

	got, err := r.ResolveStartGameweek(context.Background(), &League{ID: "L2", Name: "Office Sweepstake", CreatedAt: ts(t, "2025-06-01T00:00:00Z")}, 12)
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Zero(t, src.listCalls)
	assert.Empty(t, src.fixtureCalls)
}

func TestResolveSkipsGameweeksWithoutKickoff(t *testing.T) {
	src := &memSource{
		completed: []int{1, 2, 3},
		kickoffs: map[int]time.Time{
			1: *ts(t, "2024-12-30T15:00:00Z"),
			3: *ts(t, "2025-01-09T15:00:00Z"),
		},
	}
	r := NewResolver(src, Overrides{}, nil)

	got, err := r.ResolveStartGameweek(context.Background(), &League{ID: "L", CreatedAt: ts(t, "2025-01-01T00:00:00Z")}, 5)
	require.NoError(t, err)
	assert.Equal(t, 3, got)
	assert.Equal(t, []int{1, 2, 3}, src.fixtureCalls)
}

func TestResolveStopsAtFirstMatch(t *testing.T) {
	src := &memSource{
		completed: []int{1, 2, 3},
		kickoffs: map[int]time.Time{
			1: *ts(t, "2024-12-30T15:00:00Z"),
			2: *ts(t, "2025-01-02T15:00:00Z"),
			3: *ts(t, "2025-01-09T15:00:00Z"),
		},
	}
	r := NewResolver(src, Overrides{}, nil)

	_, err := r.ResolveStartGameweek(context.Background(), &League{ID: "L", CreatedAt: ts(t, "2025-01-01T00:00:00Z")}, 5)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, src.fixtureCalls)
}

func TestResolveNoCompletedGameweeks(t *testing.T) {
	r := NewResolver(&memSource{}, Overrides{}, nil)

	got, err := r.ResolveStartGameweek(context.Background(), &League{ID: "L", CreatedAt: ts(t, "2025-01-01T00:00:00Z")}, 6)
	require.NoError(t, err)
	assert.Equal(t, 6, got)
}

func TestResolveNoDeadlinesKnown(t *testing.T) {
	// completed gameweeks without any kickoff still move the start past them
	r := NewResolver(&memSource{completed: []int{1, 2}}, Overrides{}, nil)

	got, err := r.ResolveStartGameweek(context.Background(), &League{ID: "L", CreatedAt: ts(t, "2025-01-01T00:00:00Z")}, 6)
	require.NoError(t, err)
	assert.Equal(t, 3, got)
}

func TestResolvePropagatesReadError(t *testing.T) {
	boom := errors.New("connection reset")
	r := NewResolver(&memSource{err: boom}, Overrides{}, nil)

	got, err := r.ResolveStartGameweek(context.Background(), &League{ID: "L", CreatedAt: ts(t, "2025-01-01T00:00:00Z")}, 6)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 6, got)
}

func TestResolveIsIdempotent(t *testing.T) {
	src := &memSource{
		completed: []int{1, 2},
		kickoffs: map[int]time.Time{
			1: *ts(t, "2024-12-30T15:00:00Z"),
			2: *ts(t, "2025-01-02T15:00:00Z"),
		},
	}
	r := NewResolver(src, Overrides{}, nil)
	l := &League{ID: "L", CreatedAt: ts(t, "2025-01-01T00:00:00Z")}

	first, err := r.ResolveStartGameweek(context.Background(), l, 5)
	require.NoError(t, err)
	second, err := r.ResolveStartGameweek(context.Background(), l, 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestDeadline(t *testing.T) {
	f := &Fixture{Kickoff: *ts(t, "2025-01-02T15:00:00Z")}
	assert.Equal(t, *ts(t, "2025-01-02T13:45:00Z"), Deadline(f))
}

func TestOverrides(t *testing.T) {
	entries := map[string]int{"API Test": NeverStart}
	o := NewOverrides(entries)
	entries["API Test"] = 1

	gw, ok := o.Lookup("API Test")
	assert.True(t, ok)
	assert.Equal(t, NeverStart, gw)
	assert.Equal(t, 1, o.Len())

	_, ok = Overrides{}.Lookup("API Test")
	assert.False(t, ok)

	assert.True(t, Disabled(NeverStart))
	assert.False(t, Disabled(38))
}
