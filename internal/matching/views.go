package matching

import (
	"time"

	"github.com/oggyb/concert-buddy/internal/db"
)

// PotentialMatch is a candidate for the caller at one event.
// InvitedYou is set when the candidate already swiped interested on the caller.
type PotentialMatch struct {
	Profile
	CompatibilityScore int               `json:"compatibility_score"`
	SharedPreferences  SharedPreferences `json:"shared_preferences"`
	InvitedYou         bool              `json:"invited_you"`
}

// MatchView is one match seen from the caller's side.
type MatchView struct {
	MatchID     string    `json:"match_id"`
	EventID     string    `json:"event_id"`
	MatchedUser Profile   `json:"matched_user"`
	Event       EventInfo `json:"event"`
	CreatedAt   time.Time `json:"created_at"`
}

type MessageView struct {
	ID        string         `json:"id"`
	ChatID    string         `json:"chat_id"`
	SenderID  string         `json:"sender_id"`
	Kind      db.MessageKind `json:"kind"`
	Content   string         `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
}

// ChatSummary is one chat in the caller's inbox. Participants excludes the caller.
type ChatSummary struct {
	ChatID       string       `json:"chat_id"`
	Name         string       `json:"name"`
	IsGroup      bool         `json:"is_group"`
	Participants []Profile    `json:"participants"`
	LastMessage  *MessageView `json:"last_message,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

type NotificationView struct {
	ID          string              `json:"id"`
	Type        db.NotificationType `json:"type"`
	Title       string              `json:"title"`
	Message     string              `json:"message"`
	Data        db.MatchPayload     `json:"data"`
	ActorUserID string              `json:"actor_user_id"`
	IsRead      bool                `json:"is_read"`
	CreatedAt   time.Time           `json:"created_at"`
}

func messageView(m db.Message) MessageView {
	return MessageView{
		ID:        m.ID,
		ChatID:    m.ChatID,
		SenderID:  m.SenderID,
		Kind:      m.Kind,
		Content:   m.Content,
		CreatedAt: m.CreatedAt,
	}
}

func notificationView(n db.Notification) NotificationView {
	return NotificationView{
		ID:          n.ID,
		Type:        n.Type,
		Title:       n.Title,
		Message:     n.Message,
		Data:        n.Data.Data(),
		ActorUserID: n.ActorUserID,
		IsRead:      n.IsRead,
		CreatedAt:   n.CreatedAt,
	}
}
