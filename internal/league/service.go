package league

import (
	"context"
	"errors"
	"fmt"
)

// ErrLeagueNotFound is returned by Repository.GetLeague for an unknown id.
var ErrLeagueNotFound = errors.New("league not found")

// Repository is everything the service reads from the data store.
type Repository interface {
	GameweekSource
	GetLeague(ctx context.Context, id string) (*League, error)
	CurrentGameweek(ctx context.Context) (int, error)
	LeagueMembers(ctx context.Context, leagueID string) ([]Member, error)
	LeaguePoints(ctx context.Context, leagueID string, fromGw, toGw int) ([]GameweekPoints, error)
}

// Table is a league's standings together with the window they cover.
type Table struct {
	League    *League
	StartGw   int
	CurrentGw int
	Entries   []*StandingEntry
}

// Service ties the resolver to league and points lookups.
type Service struct {
	repo     Repository
	resolver *Resolver
}

func NewService(repo Repository, resolver *Resolver) *Service {
	return &Service{repo: repo, resolver: resolver}
}

// CurrentGameweek returns gw when positive, else the store's current gameweek.
func (s *Service) CurrentGameweek(ctx context.Context, gw int) (int, error) {
	if gw > 0 {
		return gw, nil
	}
	cur, err := s.repo.CurrentGameweek(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading current gameweek: %w", err)
	}
	return cur, nil
}

// StartGameweek loads the league and resolves its start gameweek.
// A non-positive gw means the store's current gameweek.
func (s *Service) StartGameweek(ctx context.Context, leagueID string, gw int) (*League, int, int, error) {
	currentGw, err := s.CurrentGameweek(ctx, gw)
	if err != nil {
		return nil, 0, 0, err
	}
	l, err := s.repo.GetLeague(ctx, leagueID)
	if err != nil {
		return nil, 0, 0, err
	}
	start, err := s.resolver.ResolveStartGameweek(ctx, l, currentGw)
	if err != nil {
		return nil, 0, 0, err
	}
	return l, start, currentGw, nil
}

// Standings computes the league table counted from its start gameweek.
func (s *Service) Standings(ctx context.Context, leagueID string, gw int) (*Table, error) {
	l, start, currentGw, err := s.StartGameweek(ctx, leagueID, gw)
	if err != nil {
		return nil, err
	}
	members, err := s.repo.LeagueMembers(ctx, l.ID)
	if err != nil {
		return nil, fmt.Errorf("loading members of league %s: %w", l.ID, err)
	}
	points, err := s.repo.LeaguePoints(ctx, l.ID, start, currentGw)
	if err != nil {
		return nil, fmt.Errorf("loading points for league %s: %w", l.ID, err)
	}
	return &Table{
		League:    l,
		StartGw:   start,
		CurrentGw: currentGw,
		Entries:   CalculateStandings(members, points, start, currentGw),
	}, nil
}
