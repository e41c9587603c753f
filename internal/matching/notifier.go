package matching

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"gorm.io/datatypes"

	"github.com/oggyb/concert-buddy/internal/db"
	svcErr "github.com/oggyb/concert-buddy/internal/errors"
	"github.com/oggyb/concert-buddy/internal/metrics"
)

const (
	matchTitle        = "New Concert Buddy Match! 🎉"
	genericEventLabel = "an event"
)

// NotificationStore persists notification rows.
type NotificationStore interface {
	CreateBatch(ctx context.Context, items []db.Notification) error
}

// EventLabel is the event text used in notifications and chats.
// Known is false when the catalog lookup failed and Text is the generic fallback.
type EventLabel struct {
	EventID string
	Text    string
	Known   bool
}

// ResolveEvent looks up display text for an event.
// An unknown event is an error wrapping errors.ErrNotFound; any other lookup
// failure degrades to the generic "an event" label.
func ResolveEvent(ctx context.Context, events EventCatalog, eventID string, log *slog.Logger) (EventLabel, error) {
	info, err := events.GetEvent(ctx, eventID)
	if errors.Is(err, svcErr.ErrNotFound) {
		return EventLabel{}, err
	}
	if err != nil {
		log.Warn("event lookup failed, using generic text",
			"event", eventID, "err", svcErr.Dependency("get event", err))
		return EventLabel{EventID: eventID, Text: genericEventLabel}, nil
	}
	info.ID = eventID
	return labelFor(info), nil
}

func labelFor(info EventInfo) EventLabel {
	text := strings.TrimSpace(info.Title)
	if text == "" {
		return EventLabel{EventID: info.ID, Text: genericEventLabel}
	}
	if info.ArtistName != "" && !strings.Contains(strings.ToLower(text), strings.ToLower(info.ArtistName)) {
		text = fmt.Sprintf("%s (%s)", text, info.ArtistName)
	}
	return EventLabel{EventID: info.ID, Text: text, Known: true}
}

// NotificationDispatcher writes the "you matched" notifications.
type NotificationDispatcher struct {
	store    NotificationStore
	validate *validator.Validate
	log      *slog.Logger
}

func NewNotificationDispatcher(store NotificationStore, log *slog.Logger) *NotificationDispatcher {
	return &NotificationDispatcher{store: store, validate: validator.New(), log: log}
}

// DispatchMatchNotifications writes one notification per matched user, each naming
// the other user as actor. Both rows go in one batch.
func (n *NotificationDispatcher) DispatchMatchNotifications(
	ctx context.Context,
	userA, userB string,
	match db.Relationship,
	event EventLabel,
) error {
	message := "You matched for " + event.Text

	build := func(recipient, other string) (db.Notification, error) {
		payload := db.MatchPayload{MatchID: match.ID, EventID: event.EventID, MatchedUserID: other}
		if err := n.validate.Struct(payload); err != nil {
			return db.Notification{}, svcErr.Validation(fmt.Sprintf("match payload: %v", err))
		}
		return db.Notification{
			RecipientUserID: recipient,
			ActorUserID:     other,
			Type:            db.NotificationMatch,
			Title:           matchTitle,
			Message:         message,
			Data:            datatypes.NewJSONType(payload),
		}, nil
	}

	forA, err := build(userA, userB)
	if err != nil {
		return err
	}
	forB, err := build(userB, userA)
	if err != nil {
		return err
	}

	if err := n.store.CreateBatch(ctx, []db.Notification{forA, forB}); err != nil {
		metrics.NotificationFailures.Inc()
		return svcErr.Persistence("create match notifications", err)
	}
	n.log.Debug("match notifications sent", "match_id", match.ID, "event", event.EventID)
	return nil
}
