package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/utakatalp/league-predictor/internal/league"
)

// timestampLayouts are tried in order when reading timestamps back.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func parseTimestamp(raw sql.NullString) (time.Time, bool) {
	if !raw.Valid {
		return time.Time{}, false
	}
	v := strings.TrimSpace(raw.String)
	if v == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func formatTimestamp(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

// SaveLeague inserts or replaces a league.
func (s *Store) SaveLeague(ctx context.Context, l *league.League) error {
	q := s.rebind(`
    INSERT INTO leagues (id, name, created_at)
    VALUES (?, ?, ?)
    ON CONFLICT (id) DO UPDATE SET name = excluded.name, created_at = excluded.created_at
    `)
	var name any
	if l.Name != "" {
		name = l.Name
	}
	if _, err := s.DB.ExecContext(ctx, q, l.ID, name, formatTimestamp(l.CreatedAt)); err != nil {
		return fmt.Errorf("saving league %s: %w", l.ID, err)
	}
	return nil
}

// SaveFixture inserts or replaces a fixture. A zero kickoff is stored as NULL.
func (s *Store) SaveFixture(ctx context.Context, f *league.Fixture) error {
	q := s.rebind(`
    INSERT INTO fixtures (gw, fixture_index, home_team, away_team, kickoff_time)
    VALUES (?, ?, ?, ?, ?)
    ON CONFLICT (gw, fixture_index) DO UPDATE SET
      home_team    = excluded.home_team,
      away_team    = excluded.away_team,
      kickoff_time = excluded.kickoff_time
    `)
	if _, err := s.DB.ExecContext(ctx, q, f.Gameweek, f.FixtureIndex, f.HomeTeam, f.AwayTeam, formatTimestamp(&f.Kickoff)); err != nil {
		return fmt.Errorf("saving fixture %d/%d: %w", f.Gameweek, f.FixtureIndex, err)
	}
	return nil
}

// SaveResult records the outcome of a fixture, marking its gameweek completed.
func (s *Store) SaveResult(ctx context.Context, gw, fixtureIndex int, result string) error {
	q := s.rebind(`INSERT INTO results (gw, fixture_index, result) VALUES (?, ?, ?)`)
	if _, err := s.DB.ExecContext(ctx, q, gw, fixtureIndex, result); err != nil {
		return fmt.Errorf("saving result %d/%d: %w", gw, fixtureIndex, err)
	}
	return nil
}

func (s *Store) SaveMember(ctx context.Context, leagueID string, m league.Member) error {
	q := s.rebind(`
    INSERT INTO league_members (league_id, user_id, display_name)
    VALUES (?, ?, ?)
    ON CONFLICT (league_id, user_id) DO UPDATE SET display_name = excluded.display_name
    `)
	if _, err := s.DB.ExecContext(ctx, q, leagueID, m.UserID, m.DisplayName); err != nil {
		return fmt.Errorf("saving member %s of league %s: %w", m.UserID, leagueID, err)
	}
	return nil
}

func (s *Store) SavePoints(ctx context.Context, userID string, gw, points int) error {
	q := s.rebind(`
    INSERT INTO gw_points (user_id, gw, points)
    VALUES (?, ?, ?)
    ON CONFLICT (user_id, gw) DO UPDATE SET points = excluded.points
    `)
	if _, err := s.DB.ExecContext(ctx, q, userID, gw, points); err != nil {
		return fmt.Errorf("saving points %s/%d: %w", userID, gw, err)
	}
	return nil
}

func (s *Store) SetCurrentGameweek(ctx context.Context, gw int) error {
	q := s.rebind(`
    INSERT INTO app_meta (id, current_gw)
    VALUES (1, ?)
    ON CONFLICT (id) DO UPDATE SET current_gw = excluded.current_gw
    `)
	if _, err := s.DB.ExecContext(ctx, q, gw); err != nil {
		return fmt.Errorf("setting current gameweek: %w", err)
	}
	return nil
}

// DeleteAll empties every table, children first.
func (s *Store) DeleteAll(ctx context.Context) error {
	tables := []string{"gw_points", "league_members", "results", "fixtures", "leagues", "app_meta"}
	for _, t := range tables {
		if _, err := s.DB.ExecContext(ctx, `DELETE FROM `+t); err != nil {
			return fmt.Errorf("deleting %s: %w", t, err)
		}
	}
	return nil
}
