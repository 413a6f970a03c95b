package league

import "time"

// League is a private prediction league as read from the data store.
type League struct {
	ID        string
	Name      string
	CreatedAt *time.Time
}

// Fixture represents a single scheduled match within a gameweek.
type Fixture struct {
	Gameweek     int
	FixtureIndex int
	HomeTeam     string
	AwayTeam     string
	Kickoff      time.Time
}

// Member is one player of a league.
type Member struct {
	UserID      string
	DisplayName string
}

// GameweekPoints holds the points a member scored in one gameweek.
type GameweekPoints struct {
	Member   Member
	Gameweek int
	Points   int
}

// StandingEntry holds the table info for one member.
type StandingEntry struct {
	Member         Member
	Played         int
	GameweekWins   int
	Points         int
	LastGameweekPt int
}
