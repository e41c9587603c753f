package matching

import (
	"context"
	"time"

	"github.com/oggyb/concert-buddy/internal/db"
)

// PreferenceSignal is one weighted taste entry used for scoring.
type PreferenceSignal struct {
	Kind   db.SignalKind
	Value  string
	Weight float64
}

// EventInfo is the display metadata of an event.
type EventInfo struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	ArtistName string    `json:"artist_name,omitempty"`
	VenueName  string    `json:"venue_name,omitempty"`
	StartsAt   time.Time `json:"starts_at,omitempty"`
}

// Profile is the public part of a user profile.
type Profile struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Bio       string `json:"bio,omitempty"`
}

type PreferenceStore interface {
	GetSignals(ctx context.Context, userID string) ([]PreferenceSignal, error)
}

// EventCatalog returns an error wrapping errors.ErrNotFound for unknown events.
type EventCatalog interface {
	GetEvent(ctx context.Context, eventID string) (EventInfo, error)
}

// BlockPredicate reports whether userID was blocked by byUserID.
type BlockPredicate interface {
	IsBlocked(ctx context.Context, userID, byUserID string) (bool, error)
}

// ProfileDirectory omits unknown ids from the returned map.
type ProfileDirectory interface {
	GetProfiles(ctx context.Context, userIDs []string) (map[string]Profile, error)
}

// AttendeeDirectory lists users who marked interest in an event.
type AttendeeDirectory interface {
	InterestedUsers(ctx context.Context, eventID string) ([]string, error)
}

// Collaborators bundles the services owned by the surrounding application.
type Collaborators struct {
	Preferences PreferenceStore
	Events      EventCatalog
	Blocks      BlockPredicate
	Profiles    ProfileDirectory
	Attendees   AttendeeDirectory
}
