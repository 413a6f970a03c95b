package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/utakatalp/league-predictor/internal/league"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var _ league.Repository = (*Store)(nil)

// Store wraps a database connection and provides methods to persist and retrieve league data.
type Store struct {
	DB     *sql.DB
	driver string
}

// NewStore opens a connection with the given driver and verifies it early.
func NewStore(ctx context.Context, driver, dsn string) (*Store, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if driver == DriverSQLite {
		// every connection to :memory: is its own database
		db.SetMaxOpenConns(1)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &Store{DB: db, driver: driver}, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

// rebind turns ? placeholders into $n for Postgres.
func (s *Store) rebind(q string) string {
	if s.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Migrate creates the necessary tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS leagues (
		    id         TEXT PRIMARY KEY,
		    name       TEXT,
		    created_at TIMESTAMPTZ
		);`,
		`CREATE TABLE IF NOT EXISTS fixtures (
		    gw            INTEGER NOT NULL,
		    fixture_index INTEGER NOT NULL,
		    home_team     TEXT NOT NULL DEFAULT '',
		    away_team     TEXT NOT NULL DEFAULT '',
		    kickoff_time  TIMESTAMPTZ,
		    PRIMARY KEY (gw, fixture_index)
		);`,
		`CREATE TABLE IF NOT EXISTS results (
		    gw            INTEGER,
		    fixture_index INTEGER NOT NULL,
		    result        TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS league_members (
		    league_id    TEXT NOT NULL REFERENCES leagues(id),
		    user_id      TEXT NOT NULL,
		    display_name TEXT NOT NULL DEFAULT '',
		    PRIMARY KEY (league_id, user_id)
		);`,
		`CREATE TABLE IF NOT EXISTS gw_points (
		    user_id TEXT    NOT NULL,
		    gw      INTEGER NOT NULL,
		    points  INTEGER NOT NULL DEFAULT 0,
		    PRIMARY KEY (user_id, gw)
		);`,
		`CREATE TABLE IF NOT EXISTS app_meta (
		    id         INTEGER PRIMARY KEY,
		    current_gw INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, q := range queries {
		if _, err := s.DB.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("migrating: %w", err)
		}
	}
	return nil
}

// CompletedGameweeks returns every distinct gameweek with a recorded result,
// ascending. Null and non-numeric values are skipped.
func (s *Store) CompletedGameweeks(ctx context.Context) ([]int, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT DISTINCT gw FROM results WHERE gw IS NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("querying completed gameweeks: %w", err)
	}
	defer rows.Close()

	seen := make(map[int]struct{})
	for rows.Next() {
		var raw sql.NullString
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning gameweek row: %w", err)
		}
		gw, ok := parseGameweek(raw)
		if !ok {
			continue
		}
		seen[gw] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating gameweek rows: %w", err)
	}

	gws := make([]int, 0, len(seen))
	for gw := range seen {
		gws = append(gws, gw)
	}
	sort.Ints(gws)
	return gws, nil
}

func parseGameweek(raw sql.NullString) (int, bool) {
	if !raw.Valid {
		return 0, false
	}
	v := strings.TrimSpace(raw.String)
	if gw, err := strconv.Atoi(v); err == nil {
		return gw, true
	}
	// numeric columns can come back as "3.0"
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// FirstFixture returns the fixture of gw with the earliest kickoff, or nil
// when gw has no fixture with a kickoff time. Kickoffs are compared after
// parsing since SQLite keeps them as text with arbitrary offsets.
func (s *Store) FirstFixture(ctx context.Context, gw int) (*league.Fixture, error) {
	q := s.rebind(`
    SELECT gw, fixture_index, home_team, away_team, kickoff_time
    FROM fixtures
    WHERE gw = ? AND kickoff_time IS NOT NULL
    ORDER BY fixture_index
    `)
	rows, err := s.DB.QueryContext(ctx, q, gw)
	if err != nil {
		return nil, fmt.Errorf("querying fixtures of gameweek %d: %w", gw, err)
	}
	defer rows.Close()

	var first *league.Fixture
	for rows.Next() {
		f := &league.Fixture{}
		var kickoff sql.NullString
		if err := rows.Scan(&f.Gameweek, &f.FixtureIndex, &f.HomeTeam, &f.AwayTeam, &kickoff); err != nil {
			return nil, fmt.Errorf("scanning fixture row: %w", err)
		}
		t, ok := parseTimestamp(kickoff)
		if !ok {
			continue
		}
		f.Kickoff = t
		if first == nil || f.Kickoff.Before(first.Kickoff) {
			first = f
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fixture rows: %w", err)
	}
	return first, nil
}

// GetLeague loads one league by id.
func (s *Store) GetLeague(ctx context.Context, id string) (*league.League, error) {
	q := s.rebind(`SELECT id, name, created_at FROM leagues WHERE id = ?`)
	var (
		l       league.League
		name    sql.NullString
		created sql.NullString
	)
	err := s.DB.QueryRowContext(ctx, q, id).Scan(&l.ID, &name, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", league.ErrLeagueNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying league %s: %w", id, err)
	}
	l.Name = name.String
	if t, ok := parseTimestamp(created); ok {
		l.CreatedAt = &t
	}
	return &l, nil
}

// CurrentGameweek returns the gameweek the product considers current, or 0.
func (s *Store) CurrentGameweek(ctx context.Context) (int, error) {
	var gw int
	err := s.DB.QueryRowContext(ctx, `SELECT current_gw FROM app_meta WHERE id = 1`).Scan(&gw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("querying current gameweek: %w", err)
	}
	return gw, nil
}

// LeagueMembers lists the members of a league ordered by display name.
func (s *Store) LeagueMembers(ctx context.Context, leagueID string) ([]league.Member, error) {
	q := s.rebind(`
    SELECT user_id, display_name
    FROM league_members
    WHERE league_id = ?
    ORDER BY display_name, user_id
    `)
	rows, err := s.DB.QueryContext(ctx, q, leagueID)
	if err != nil {
		return nil, fmt.Errorf("querying members: %w", err)
	}
	defer rows.Close()

	var members []league.Member
	for rows.Next() {
		var m league.Member
		if err := rows.Scan(&m.UserID, &m.DisplayName); err != nil {
			return nil, fmt.Errorf("scanning member row: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating member rows: %w", err)
	}
	return members, nil
}

// LeaguePoints fetches the members' points for gameweeks in [fromGw, toGw].
func (s *Store) LeaguePoints(ctx context.Context, leagueID string, fromGw, toGw int) ([]league.GameweekPoints, error) {
	q := s.rebind(`
    SELECT m.user_id, m.display_name, p.gw, p.points
    FROM league_members m
    JOIN gw_points p ON p.user_id = m.user_id
    WHERE m.league_id = ? AND p.gw >= ? AND p.gw <= ?
    ORDER BY p.gw, m.user_id
    `)
	rows, err := s.DB.QueryContext(ctx, q, leagueID, fromGw, toGw)
	if err != nil {
		return nil, fmt.Errorf("querying points: %w", err)
	}
	defer rows.Close()

	var points []league.GameweekPoints
	for rows.Next() {
		var p league.GameweekPoints
		if err := rows.Scan(&p.Member.UserID, &p.Member.DisplayName, &p.Gameweek, &p.Points); err != nil {
			return nil, fmt.Errorf("scanning points row: %w", err)
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating points rows: %w", err)
	}
	return points, nil
}
