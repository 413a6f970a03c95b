package league

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DeadlineBuffer is how long before a gameweek's first kickoff picks lock.
const DeadlineBuffer = 75 * time.Minute

// GameweekSource is the read access the resolver needs from the data store.
type GameweekSource interface {
	// CompletedGameweeks returns the distinct gameweeks with a recorded
	// result, ascending. Malformed entries are already filtered out.
	CompletedGameweeks(ctx context.Context) ([]int, error)
	// FirstFixture returns the earliest-kickoff fixture of gw, or nil.
	FirstFixture(ctx context.Context, gw int) (*Fixture, error)
}

// Resolver decides from which gameweek a league's standings are counted.
type Resolver struct {
	source    GameweekSource
	overrides Overrides
	log       *zap.Logger
}

// NewResolver returns a Resolver reading from source. A nil logger is
// replaced with a no-op one.
func NewResolver(source GameweekSource, overrides Overrides, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{source: source, overrides: overrides, log: log}
}

// Deadline is the pick deadline of the gameweek whose first fixture is f.
func Deadline(f *Fixture) time.Time {
	return f.Kickoff.Add(-DeadlineBuffer)
}

// ResolveStartGameweek returns the gameweek from which the league is scored.
// Missing information degrades to currentGw; the only error returned is a
// failed read from the source.
func (r *Resolver) ResolveStartGameweek(ctx context.Context, l *League, currentGw int) (int, error) {
	if l == nil || l.ID == "" {
		return currentGw, nil
	}
	log := r.log.With(zap.String("league_id", l.ID), zap.Int("current_gw", currentGw))

	// 1) operator pins win over everything else
	if gw, ok := r.overrides.Lookup(l.Name); ok {
		log.Debug("start gameweek pinned by override", zap.String("name", l.Name), zap.Int("start_gw", gw))
		return gw, nil
	}

	if l.CreatedAt == nil || currentGw == 0 {
		log.Debug("not enough information to resolve, using current gameweek")
		return currentGw, nil
	}

	// 2) first completed gameweek whose deadline the league beat
	completed, err := r.source.CompletedGameweeks(ctx)
	if err != nil {
		return currentGw, fmt.Errorf("listing completed gameweeks: %w", err)
	}
	if len(completed) == 0 {
		return currentGw, nil
	}

	for _, gw := range completed {
		first, err := r.source.FirstFixture(ctx, gw)
		if err != nil {
			return currentGw, fmt.Errorf("loading first fixture of gameweek %d: %w", gw, err)
		}
		if first == nil || first.Kickoff.IsZero() {
			continue
		}
		if l.CreatedAt.Before(Deadline(first)) {
			log.Debug("league created before deadline", zap.Int("start_gw", gw), zap.Time("deadline", Deadline(first)))
			return gw, nil
		}
	}

	// 3) created after every known deadline: start at the next gameweek
	last := completed[0]
	for _, gw := range completed[1:] {
		if gw > last {
			last = gw
		}
	}
	next := last + 1
	log.Debug("league created after all deadlines", zap.Int("start_gw", next))
	return next, nil
}
