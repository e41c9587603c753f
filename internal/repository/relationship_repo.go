package repository

import (
	"context"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/concert-buddy/internal/db"
)

// MatchResult is the outcome of CreateMatchIfAbsent.
// Match is always the canonical row (UserID is the lower of the two ids).
type MatchResult struct {
	Created bool
	Match   db.Relationship
}

// RelationshipRepository persists confirmed matches as mirrored relationship rows.
type RelationshipRepository struct {
	db *gorm.DB
}

// NewRelationshipRepository creates a new repository bound to the given DB connection.
func NewRelationshipRepository(database *gorm.DB) *RelationshipRepository {
	return &RelationshipRepository{db: database}
}

// CreateMatchIfAbsent writes both relationship rows for (userA, userB, event) in one transaction.
//
// Behavior:
//   - The pair is canonicalised, so both sides of a race insert the same row first
//     and meet on the same unique index entry.
//   - The first insert is ON CONFLICT DO NOTHING. Zero rows affected means another
//     caller already created the match: nothing else is written and the existing
//     canonical row is returned with Created=false.
//   - Otherwise the mirrored row is written and Created=true.
//
// Example:
//
//	res, _ := repo.CreateMatchIfAbsent(ctx, "bob", "alice", "e1")
//	res.Created // true the first time, false for every later call
func (r *RelationshipRepository) CreateMatchIfAbsent(
	ctx context.Context,
	userA, userB, eventID string,
) (MatchResult, error) {
	low, high := CanonicalPair(userA, userB)
	var res MatchResult

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		first := newMatchRow(low, high, eventID)
		ins := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&first)
		if ins.Error != nil {
			return ins.Error
		}

		if ins.RowsAffected == 0 {
			var existing db.Relationship
			if err := tx.
				Where("user_id = ? AND related_user_id = ? AND type = ? AND event_id = ?",
					low, high, db.RelationshipMatch, eventID).
				Take(&existing).Error; err != nil {
				return err
			}
			res = MatchResult{Created: false, Match: existing}
			return nil
		}

		second := newMatchRow(high, low, eventID)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&second).Error; err != nil {
			return err
		}
		res = MatchResult{Created: true, Match: first}
		return nil
	})
	if err != nil {
		return MatchResult{}, err
	}
	return res, nil
}

// ListEventMatches returns userID's matches for one event, newest first.
// Each row is the one owned by userID, so RelatedUserID is the counterpart.
func (r *RelationshipRepository) ListEventMatches(ctx context.Context, userID, eventID string) ([]db.Relationship, error) {
	var rows []db.Relationship
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ? AND event_id = ?", userID, db.RelationshipMatch, eventID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// ListAllMatches returns every match of userID across events, newest first.
func (r *RelationshipRepository) ListAllMatches(ctx context.Context, userID string) ([]db.Relationship, error) {
	var rows []db.Relationship
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND type = ?", userID, db.RelationshipMatch).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// CountMatches counts userID's matches. A pair matched at two events counts twice.
func (r *RelationshipRepository) CountMatches(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.Relationship{}).
		Where("user_id = ? AND type = ?", userID, db.RelationshipMatch).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// CanonicalPair orders two user ids so the same pair always yields the same tuple.
func CanonicalPair(a, b string) (string, string) {
	if a <= b {
		return a, b
	}
	return b, a
}

func newMatchRow(userID, relatedID, eventID string) db.Relationship {
	return db.Relationship{
		UserID:        userID,
		RelatedUserID: relatedID,
		Type:          db.RelationshipMatch,
		EventID:       eventID,
		Status:        db.StatusAccepted,
		Metadata: datatypes.NewJSONType(db.MatchMetadata{
			EventID:       eventID,
			MatchedUserID: relatedID,
		}),
	}
}
