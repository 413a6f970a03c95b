package league

import (
	"fmt"
	"io"
	"sort"
)

// CalculateStandings builds the league table from per-gameweek points,
// counting only gameweeks in [startGw, currentGw]. Every member gets a row,
// even when none of their gameweeks count.
func CalculateStandings(members []Member, points []GameweekPoints, startGw, currentGw int) []*StandingEntry {
	entriesMap := make(map[string]*StandingEntry, len(members))
	for _, m := range members {
		entriesMap[m.UserID] = &StandingEntry{Member: m}
	}
	best := make(map[int]int)
	for _, p := range points {
		if _, ok := entriesMap[p.Member.UserID]; !ok {
			entriesMap[p.Member.UserID] = &StandingEntry{Member: p.Member}
		}
		if !counts(p.Gameweek, startGw, currentGw) {
			continue
		}
		if cur, ok := best[p.Gameweek]; !ok || p.Points > cur {
			best[p.Gameweek] = p.Points
		}
	}

	for _, p := range points {
		if !counts(p.Gameweek, startGw, currentGw) {
			continue
		}
		e := entriesMap[p.Member.UserID]
		e.Played++
		e.Points += p.Points
		if p.Gameweek == currentGw {
			e.LastGameweekPt = p.Points
		}
		// shared top scores count as a win for each
		if p.Points == best[p.Gameweek] {
			e.GameweekWins++
		}
	}

	entries := make([]*StandingEntry, 0, len(entriesMap))
	for _, e := range entriesMap {
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.GameweekWins != b.GameweekWins {
			return a.GameweekWins > b.GameweekWins
		}
		if a.Member.DisplayName != b.Member.DisplayName {
			return a.Member.DisplayName < b.Member.DisplayName
		}
		return a.Member.UserID < b.Member.UserID
	})

	return entries
}

func counts(gw, startGw, currentGw int) bool {
	return gw >= startGw && gw <= currentGw
}

// PrintStandings writes a plain-text table to w.
func PrintStandings(w io.Writer, label string, table []*StandingEntry) {
	fmt.Fprintln(w, label)
	fmt.Fprintf(w, "%-3s %-20s %3s %3s %5s\n", "#", "Player", "P", "W", "Pts")
	for i, entry := range table {
		fmt.Fprintf(w, "%-3d %-20s %3d %3d %5d\n",
			i+1,
			entry.Member.DisplayName,
			entry.Played,
			entry.GameweekWins,
			entry.Points,
		)
	}
}
