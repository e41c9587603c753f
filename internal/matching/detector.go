package matching

import (
	"context"
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/oggyb/concert-buddy/internal/db"
	svcErr "github.com/oggyb/concert-buddy/internal/errors"
	"github.com/oggyb/concert-buddy/internal/metrics"
	"github.com/oggyb/concert-buddy/internal/repository"
)

// MatchState is the lifecycle of a (pair, event):
// NoEngagement → OneSided → Matched → ChatReady.
type MatchState string

const (
	StateNoEngagement MatchState = "no_engagement"
	StateOneSided     MatchState = "one_sided"
	StateMatched      MatchState = "matched"
	StateChatReady    MatchState = "chat_ready"
)

// MatchOutcome is what the detector concluded for one positive swipe.
type MatchOutcome struct {
	State   MatchState
	Created bool
	Match   *db.Relationship
}

type engagementReader interface {
	FindReciprocal(ctx context.Context, targetID, actorID, eventID string) (*db.Engagement, error)
}

type matchWriter interface {
	CreateMatchIfAbsent(ctx context.Context, userA, userB, eventID string) (repository.MatchResult, error)
}

// MatchDetector turns a positive swipe into a match when the other side already swiped interested.
type MatchDetector struct {
	engagements engagementReader
	matches     matchWriter
	log         *slog.Logger
}

func NewMatchDetector(engagements engagementReader, matches matchWriter, log *slog.Logger) *MatchDetector {
	return &MatchDetector{engagements: engagements, matches: matches, log: log}
}

// Detect checks target → actor interest for event and creates the match if it exists.
//
// Behavior:
//   - No reciprocal interest: OneSided, nothing written.
//   - Reciprocal interest: CreateMatchIfAbsent. A match that already exists is
//     reported as Matched with Created=false, including when the store surfaces a
//     duplicate-key error instead of a silent no-op.
func (d *MatchDetector) Detect(ctx context.Context, actorID, targetID, eventID string) (MatchOutcome, error) {
	reciprocal, err := d.engagements.FindReciprocal(ctx, targetID, actorID, eventID)
	if err != nil {
		return MatchOutcome{}, err
	}
	if reciprocal == nil {
		d.log.Debug("invitation sent", "actor", actorID, "target", targetID, "event", eventID)
		return MatchOutcome{State: StateOneSided}, nil
	}

	res, err := d.matches.CreateMatchIfAbsent(ctx, actorID, targetID, eventID)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		d.log.Info("match already exists", "err", svcErr.Conflict("create match", err),
			"actor", actorID, "target", targetID, "event", eventID)
		metrics.MatchAttempts.WithLabelValues("already_matched").Inc()
		return MatchOutcome{State: StateMatched}, nil
	}
	if err != nil {
		metrics.MatchAttempts.WithLabelValues("error").Inc()
		return MatchOutcome{}, err
	}

	if res.Created {
		metrics.MatchAttempts.WithLabelValues("created").Inc()
		d.log.Info("match created", "match_id", res.Match.ID, "event", eventID)
	} else {
		metrics.MatchAttempts.WithLabelValues("already_matched").Inc()
	}
	match := res.Match
	return MatchOutcome{State: StateMatched, Created: res.Created, Match: &match}, nil
}
