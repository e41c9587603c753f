package catalog

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/oggyb/concert-buddy/internal/db"
	svcErr "github.com/oggyb/concert-buddy/internal/errors"
	"github.com/oggyb/concert-buddy/internal/matching"
)

// Store serves every collaborator the matching engine needs from the
// application tables in the same database.
type Store struct {
	db *gorm.DB
}

func NewStore(database *gorm.DB) *Store {
	return &Store{db: database}
}

// Collaborators returns the store wired into every collaborator slot.
// Events is served through events when non-nil, so callers can put a cache in front.
func (s *Store) Collaborators(events matching.EventCatalog) matching.Collaborators {
	if events == nil {
		events = s
	}
	return matching.Collaborators{
		Preferences: s,
		Events:      events,
		Blocks:      s,
		Profiles:    s,
		Attendees:   s,
	}
}

// GetSignals returns userID's taste signals, heaviest first.
func (s *Store) GetSignals(ctx context.Context, userID string) ([]matching.PreferenceSignal, error) {
	var rows []db.PreferenceSignal
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("weight DESC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]matching.PreferenceSignal, 0, len(rows))
	for _, r := range rows {
		out = append(out, matching.PreferenceSignal{Kind: r.Kind, Value: r.Value, Weight: r.Weight})
	}
	return out, nil
}

func (s *Store) GetEvent(ctx context.Context, eventID string) (matching.EventInfo, error) {
	var ev db.Event
	err := s.db.WithContext(ctx).Where("id = ?", eventID).Take(&ev).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return matching.EventInfo{}, svcErr.NotFound("event " + eventID)
	}
	if err != nil {
		return matching.EventInfo{}, err
	}
	return matching.EventInfo{
		ID:         ev.ID,
		Title:      ev.Title,
		ArtistName: ev.ArtistName,
		VenueName:  ev.VenueName,
		StartsAt:   ev.StartsAt,
	}, nil
}

// IsBlocked reports whether byUserID has blocked userID.
func (s *Store) IsBlocked(ctx context.Context, userID, byUserID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&db.UserBlock{}).
		Where("user_id = ? AND blocked_by_user_id = ?", userID, byUserID).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) GetProfiles(ctx context.Context, userIDs []string) (map[string]matching.Profile, error) {
	out := make(map[string]matching.Profile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var rows []db.Profile
	if err := s.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.UserID] = matching.Profile{
			UserID:    p.UserID,
			Name:      p.Name,
			AvatarURL: p.AvatarURL,
			Bio:       p.Bio,
		}
	}
	return out, nil
}

// InterestedUsers lists users interested in eventID, earliest interest first.
func (s *Store) InterestedUsers(ctx context.Context, eventID string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).
		Model(&db.EventInterest{}).
		Where("event_id = ?", eventID).
		Order("created_at ASC, user_id ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}
