package league

// NeverStart is the start gameweek pinned to leagues that must never be scored.
// No season reaches it, so standings computed from it stay empty.
const NeverStart = 999

// Overrides pins leagues, by exact display name, to a fixed start gameweek.
// The zero value has no entries.
type Overrides struct {
	byName map[string]int
}

// NewOverrides copies entries into an immutable table.
func NewOverrides(entries map[string]int) Overrides {
	byName := make(map[string]int, len(entries))
	for name, gw := range entries {
		byName[name] = gw
	}
	return Overrides{byName: byName}
}

// Lookup is case-sensitive.
func (o Overrides) Lookup(name string) (int, bool) {
	gw, ok := o.byName[name]
	return gw, ok
}

func (o Overrides) Len() int {
	return len(o.byName)
}

// Entries returns a copy of the table.
func (o Overrides) Entries() map[string]int {
	out := make(map[string]int, len(o.byName))
	for name, gw := range o.byName {
		out[name] = gw
	}
	return out
}

// Disabled reports whether a start gameweek means the league is never scored.
func Disabled(startGw int) bool {
	return startGw >= NeverStart
}
