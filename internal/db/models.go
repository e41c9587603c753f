package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Direction string

const (
	DirectionInterested Direction = "interested"
	DirectionPassed     Direction = "passed"
)

// Engagement is one directional swipe from actor to target scoped to an event.
//
// Rows are append-only. The auto-increment ID orders swipes for the same
// (actor, target, event), so the highest ID is the actor's current decision.
//
// Indexes:
//   - idx_engagement_lookup(actor_user_id, target_user_id, event_id)
//     Reciprocity checks and "already swiped" filters.
//   - idx_engagement_target_event(target_user_id, event_id)
//     "Who invited me for this event" lookups.
type Engagement struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement"`
	ActorUserID  string    `gorm:"size:36;not null;index:idx_engagement_lookup,priority:1"`
	TargetUserID string    `gorm:"size:36;not null;index:idx_engagement_lookup,priority:2;index:idx_engagement_target_event,priority:1"`
	EventID      string    `gorm:"size:36;not null;index:idx_engagement_lookup,priority:3;index:idx_engagement_target_event,priority:2"`
	Direction    Direction `gorm:"size:16;not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

type RelationshipType string

const RelationshipMatch RelationshipType = "match"

const StatusAccepted = "accepted"

// MatchMetadata is the typed payload stored on each relationship row.
type MatchMetadata struct {
	EventID       string `json:"event_id"`
	MatchedUserID string `json:"matched_user_id"`
}

// Relationship is one direction of a confirmed match. A match is always the
// pair (u1→u2, u2→u1) written in one transaction.
//
// Unique: ux_relationship_pair_event(user_id, related_user_id, type, event_id)
//   - One match per (pair, event). Conflicting inserts are treated as "already matched".
type Relationship struct {
	ID            string                            `gorm:"size:36;primaryKey"`
	UserID        string                            `gorm:"size:36;not null;uniqueIndex:ux_relationship_pair_event,priority:1"`
	RelatedUserID string                            `gorm:"size:36;not null;uniqueIndex:ux_relationship_pair_event,priority:2"`
	Type          RelationshipType                  `gorm:"size:16;not null;uniqueIndex:ux_relationship_pair_event,priority:3"`
	EventID       string                            `gorm:"size:36;not null;uniqueIndex:ux_relationship_pair_event,priority:4"`
	Status        string                            `gorm:"size:16;not null"`
	Metadata      datatypes.JSONType[MatchMetadata] `gorm:"not null"`
	CreatedAt     time.Time                         `gorm:"autoCreateTime;index"`
}

func (r *Relationship) BeforeCreate(_ *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

type NotificationType string

const NotificationMatch NotificationType = "match"

// MatchPayload is the structured data attached to a match notification.
type MatchPayload struct {
	MatchID       string `json:"match_id" validate:"required"`
	EventID       string `json:"event_id" validate:"required"`
	MatchedUserID string `json:"matched_user_id" validate:"required"`
}

type Notification struct {
	ID              string                           `gorm:"size:36;primaryKey"`
	RecipientUserID string                           `gorm:"size:36;not null;index:idx_notification_recipient_created,priority:1"`
	Type            NotificationType                 `gorm:"size:32;not null"`
	Title           string                           `gorm:"size:255;not null"`
	Message         string                           `gorm:"type:text"`
	Data            datatypes.JSONType[MatchPayload] `gorm:"not null"`
	ActorUserID     string                           `gorm:"size:36;not null"`
	IsRead          bool                             `gorm:"not null;default:false"`
	CreatedAt       time.Time                        `gorm:"autoCreateTime;index:idx_notification_recipient_created,priority:2"`
}

func (n *Notification) BeforeCreate(_ *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// ChatThread is a conversation. Direct threads carry DirectKey, the canonical
// "low:high" participant pair, under a unique index so only one direct thread
// can exist per pair. Group threads leave it NULL.
type ChatThread struct {
	ID        string    `gorm:"size:36;primaryKey"`
	Name      string    `gorm:"size:255;not null"`
	IsGroup   bool      `gorm:"not null;default:false"`
	DirectKey *string   `gorm:"size:80;uniqueIndex"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (c *ChatThread) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// ChatParticipant links a user to a thread. Composite PK: (ChatID, UserID).
type ChatParticipant struct {
	ChatID    string    `gorm:"size:36;primaryKey"`
	UserID    string    `gorm:"size:36;primaryKey;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type MessageKind string

const (
	MessageUser   MessageKind = "user"
	MessageSystem MessageKind = "system"
)

// SystemSenderID marks messages posted by the service itself.
const SystemSenderID = "system"

type Message struct {
	ID        string      `gorm:"size:36;primaryKey"`
	ChatID    string      `gorm:"size:36;not null;index:idx_message_chat_created,priority:1"`
	SenderID  string      `gorm:"size:36;not null"`
	Kind      MessageKind `gorm:"size:16;not null;default:user"`
	Content   string      `gorm:"type:text;not null"`
	CreatedAt time.Time   `gorm:"autoCreateTime;index:idx_message_chat_created,priority:2"`
}

func (m *Message) BeforeCreate(_ *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// CoreModels are the tables owned by the matching engine.
func CoreModels() []any {
	return []any{
		&Engagement{}, &Relationship{}, &Notification{},
		&ChatThread{}, &ChatParticipant{}, &Message{},
	}
}
