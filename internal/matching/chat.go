package matching

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oggyb/concert-buddy/internal/db"
	svcErr "github.com/oggyb/concert-buddy/internal/errors"
	"github.com/oggyb/concert-buddy/internal/logger"
	"github.com/oggyb/concert-buddy/internal/metrics"
)

// ChatStore is the slice of the chat repository the provisioner writes through.
type ChatStore interface {
	FindDirectChat(ctx context.Context, a, b string) (*db.ChatThread, error)
	CreateDirectThread(ctx context.Context, name, a, b string) (db.ChatThread, bool, error)
	AddParticipants(ctx context.Context, chatID string, userIDs ...string) error
	DeleteThread(ctx context.Context, chatID string) error
	PostMessage(ctx context.Context, msg *db.Message) error
}

// ChatResult describes a provisioned direct chat.
type ChatResult struct {
	ChatID        string
	Created       bool
	WelcomePosted bool
}

// ChatProvisioner finds or creates the direct chat of a matched pair.
type ChatProvisioner struct {
	store  ChatStore
	log    *slog.Logger
	alerts *slog.Logger
}

func NewChatProvisioner(store ChatStore, log, alerts *slog.Logger) *ChatProvisioner {
	return &ChatProvisioner{store: store, log: log, alerts: alerts}
}

// FindOrCreateDirectChat returns the pair's direct chat, creating it when needed.
//
//  1. Reuse any non-group chat both users are in, whatever event it came from.
//  2. Otherwise create a thread named after the event. When the pair's direct key
//     is already taken (a concurrent winner, or a thread left without participants
//     by an earlier failure) link both users to that thread and return it.
//  3. Link both users in one insert.
//  4. If linking fails, delete the new thread. If that delete fails as well the
//     thread is orphaned: report it on the alert channel. The caller always gets
//     the linking error.
//  5. Post the welcome message; failure here is logged only.
func (p *ChatProvisioner) FindOrCreateDirectChat(ctx context.Context, userA, userB string, event EventLabel) (ChatResult, error) {
	existing, err := p.store.FindDirectChat(ctx, userA, userB)
	if err != nil {
		metrics.ChatsProvisioned.WithLabelValues("failed").Inc()
		return ChatResult{}, svcErr.Persistence("find direct chat", err)
	}
	if existing != nil {
		metrics.ChatsProvisioned.WithLabelValues("reused").Inc()
		p.log.Debug("reusing direct chat", "chat_id", existing.ID)
		return ChatResult{ChatID: existing.ID}, nil
	}

	thread, created, err := p.store.CreateDirectThread(ctx, chatName(event), userA, userB)
	if err != nil {
		metrics.ChatsProvisioned.WithLabelValues("failed").Inc()
		return ChatResult{}, svcErr.Persistence("create chat thread", err)
	}
	if !created {
		if err := p.store.AddParticipants(ctx, thread.ID, userA, userB); err != nil {
			metrics.ChatsProvisioned.WithLabelValues("failed").Inc()
			return ChatResult{}, svcErr.Persistence("link existing direct chat", err)
		}
		metrics.ChatsProvisioned.WithLabelValues("reused").Inc()
		p.log.Debug("direct key already taken, reusing thread", "chat_id", thread.ID)
		return ChatResult{ChatID: thread.ID}, nil
	}

	if linkErr := p.store.AddParticipants(ctx, thread.ID, userA, userB); linkErr != nil {
		metrics.ChatsProvisioned.WithLabelValues("failed").Inc()
		p.compensate(ctx, thread.ID, userA, userB, linkErr)
		return ChatResult{}, svcErr.Persistence("add chat participants", linkErr)
	}

	res := ChatResult{ChatID: thread.ID, Created: true}
	metrics.ChatsProvisioned.WithLabelValues("created").Inc()

	welcome := &db.Message{
		ChatID:   thread.ID,
		SenderID: db.SystemSenderID,
		Kind:     db.MessageSystem,
		Content:  fmt.Sprintf("You matched at %s! Say hi 👋", event.Text),
	}
	if err := p.store.PostMessage(ctx, welcome); err != nil {
		p.log.Warn("welcome message not posted", "chat_id", thread.ID, "err", err)
		return res, nil
	}
	res.WelcomePosted = true
	return res, nil
}

func (p *ChatProvisioner) compensate(ctx context.Context, chatID, userA, userB string, cause error) {
	delErr := p.store.DeleteThread(ctx, chatID)
	if delErr == nil {
		p.log.Warn("chat participants failed, thread rolled back", "chat_id", chatID, "err", cause)
		return
	}

	metrics.ChatsOrphaned.Inc()
	logger.Critical(ctx, p.alerts, "orphaned chat thread without participants",
		"chat_id", chatID,
		"user_a", userA,
		"user_b", userB,
		"participant_err", cause.Error(),
		"cleanup_err", delErr.Error(),
	)
}

func chatName(event EventLabel) string {
	if !event.Known {
		return "Concert buddies"
	}
	name := []rune("Concert buddies · " + event.Text)
	if len(name) > 255 {
		name = name[:255]
	}
	return string(name)
}
