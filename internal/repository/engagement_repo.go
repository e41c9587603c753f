package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/concert-buddy/internal/db"
)

// EngagementRepository is the append-only swipe log.
// Every call writes a new row; reads resolve "latest wins" per (actor, target, event).
type EngagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new repository bound to the given DB connection.
func NewEngagementRepository(database *gorm.DB) *EngagementRepository {
	return &EngagementRepository{db: database}
}

// RecordEngagement appends a swipe made by actor on target for event.
//
// Behavior:
//   - Always inserts; earlier swipes for the same triple are kept untouched.
//   - Returns the new row ID, which is greater than any earlier swipe's ID.
//
// Example:
//
//	repo.RecordEngagement(ctx, "alice", "bob", "e1", db.DirectionInterested)
func (r *EngagementRepository) RecordEngagement(
	ctx context.Context,
	actorID, targetID, eventID string,
	direction db.Direction,
) (uint64, error) {
	e := db.Engagement{
		ActorUserID:  actorID,
		TargetUserID: targetID,
		EventID:      eventID,
		Direction:    direction,
	}
	if err := r.db.WithContext(ctx).Create(&e).Error; err != nil {
		return 0, err
	}
	return e.ID, nil
}

// FindReciprocal looks for target's current interest in actor for event.
//
// Behavior:
//   - Reads the latest swipe from target → actor scoped to event.
//   - Returns it only when its direction is interested; a later pass hides an earlier like.
//   - Returns (nil, nil) when there is no such swipe.
//
// Example:
//
//	repo.FindReciprocal(ctx, "bob", "alice", "e1") // -> bob's like on alice, or nil
func (r *EngagementRepository) FindReciprocal(
	ctx context.Context,
	targetID, actorID, eventID string,
) (*db.Engagement, error) {
	var e db.Engagement
	err := r.db.WithContext(ctx).
		Where("actor_user_id = ? AND target_user_id = ? AND event_id = ?", targetID, actorID, eventID).
		Order("id DESC").
		Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if e.Direction != db.DirectionInterested {
		return nil, nil
	}
	return &e, nil
}

// EngagedTargets returns the set of users actor already swiped on for event, in either direction.
func (r *EngagementRepository) EngagedTargets(ctx context.Context, actorID, eventID string) (map[string]bool, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.Engagement{}).
		Where("actor_user_id = ? AND event_id = ?", actorID, eventID).
		Distinct().
		Pluck("target_user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// HasEngaged reports whether actor has any swipe on target for event.
func (r *EngagementRepository) HasEngaged(ctx context.Context, actorID, targetID, eventID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&db.Engagement{}).
		Where("actor_user_id = ? AND target_user_id = ? AND event_id = ?", actorID, targetID, eventID).
		Count(&n).Error
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PendingInviters returns users whose latest swipe on target for event is interested.
//
// Behavior:
//   - Rows are folded in ID order so the last swipe per actor decides.
//   - Does not look at target's own swipes; the caller filters matched or engaged users.
func (r *EngagementRepository) PendingInviters(ctx context.Context, targetID, eventID string) (map[string]bool, error) {
	var rows []db.Engagement
	err := r.db.WithContext(ctx).
		Where("target_user_id = ? AND event_id = ?", targetID, eventID).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	latest := make(map[string]bool, len(rows))
	for _, e := range rows {
		latest[e.ActorUserID] = e.Direction == db.DirectionInterested
	}
	for id, interested := range latest {
		if !interested {
			delete(latest, id)
		}
	}
	return latest, nil
}
