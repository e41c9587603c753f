package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/concert-buddy/internal/db"
	"github.com/oggyb/concert-buddy/internal/utils/pagination"
)

// ChatRepository provides data access for chat threads, participants and messages.
type ChatRepository struct {
	db *gorm.DB
}

// NewChatRepository creates a new repository bound to the given DB connection.
func NewChatRepository(database *gorm.DB) *ChatRepository {
	return &ChatRepository{db: database}
}

// DirectKey is the unique participant-set key of the direct thread between a and b.
func DirectKey(a, b string) string {
	low, high := CanonicalPair(a, b)
	return low + ":" + high
}

// FindDirectChat returns the first non-group chat that both users participate in.
//
// Behavior:
//   - Loads the chat ids of a, then of b, and intersects them in a's order.
//   - Returns the oldest intersecting thread with is_group = false.
//   - Returns (nil, nil) when the pair shares no direct chat.
func (r *ChatRepository) FindDirectChat(ctx context.Context, a, b string) (*db.ChatThread, error) {
	idsA, err := r.ChatIDsForUser(ctx, a)
	if err != nil {
		return nil, err
	}
	idsB, err := r.ChatIDsForUser(ctx, b)
	if err != nil {
		return nil, err
	}

	inB := make(map[string]bool, len(idsB))
	for _, id := range idsB {
		inB[id] = true
	}
	var shared []string
	for _, id := range idsA {
		if inB[id] {
			shared = append(shared, id)
		}
	}
	if len(shared) == 0 {
		return nil, nil
	}

	var threads []db.ChatThread
	err = r.db.WithContext(ctx).
		Where("id IN ? AND is_group = ?", shared, false).
		Order("created_at ASC, id ASC").
		Limit(1).
		Find(&threads).Error
	if err != nil {
		return nil, err
	}
	if len(threads) == 0 {
		return nil, nil
	}
	return &threads[0], nil
}

// ChatIDsForUser lists every chat the user participates in.
func (r *ChatRepository) ChatIDsForUser(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&db.ChatParticipant{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("chat_id", &ids).Error
	return ids, err
}

// CreateDirectThread inserts a non-group thread for the pair (a, b).
//
// Behavior:
//   - The thread carries DirectKey(a, b) under a unique index.
//   - If another thread already holds that key, nothing is written and the existing
//     thread is returned with created=false.
func (r *ChatRepository) CreateDirectThread(ctx context.Context, name, a, b string) (db.ChatThread, bool, error) {
	key := DirectKey(a, b)
	thread := db.ChatThread{Name: name, IsGroup: false, DirectKey: &key}

	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&thread)
	if res.Error != nil {
		return db.ChatThread{}, false, res.Error
	}
	if res.RowsAffected > 0 {
		return thread, true, nil
	}

	var existing db.ChatThread
	if err := r.db.WithContext(ctx).Where("direct_key = ?", key).Take(&existing).Error; err != nil {
		return db.ChatThread{}, false, err
	}
	return existing, false, nil
}

// AddParticipants links all users to the chat in one INSERT. Users already
// linked are skipped.
func (r *ChatRepository) AddParticipants(ctx context.Context, chatID string, userIDs ...string) error {
	rows := make([]db.ChatParticipant, 0, len(userIDs))
	for _, id := range userIDs {
		rows = append(rows, db.ChatParticipant{ChatID: chatID, UserID: id})
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}

// DeleteThread removes a thread row. Used only to undo a thread whose participants could not be linked.
func (r *ChatRepository) DeleteThread(ctx context.Context, chatID string) error {
	return r.db.WithContext(ctx).Where("id = ?", chatID).Delete(&db.ChatThread{}).Error
}

// GetThread returns gorm.ErrRecordNotFound for unknown ids.
func (r *ChatRepository) GetThread(ctx context.Context, chatID string) (*db.ChatThread, error) {
	var t db.ChatThread
	if err := r.db.WithContext(ctx).Where("id = ?", chatID).Take(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// IsParticipant reports whether userID belongs to chatID.
func (r *ChatRepository) IsParticipant(ctx context.Context, chatID, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&db.ChatParticipant{}).
		Where("chat_id = ? AND user_id = ?", chatID, userID).
		Count(&count).Error
	return count > 0, err
}

// PostMessage stores a message and bumps the thread's updated_at in one transaction.
func (r *ChatRepository) PostMessage(ctx context.Context, msg *db.Message) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&db.ChatThread{}).
			Where("id = ?", msg.ChatID).
			Update("updated_at", msg.CreatedAt).Error
	})
}

// ListThreadsForUser returns the user's chats, most recently active first.
func (r *ChatRepository) ListThreadsForUser(ctx context.Context, userID string) ([]db.ChatThread, error) {
	var threads []db.ChatThread
	err := r.db.WithContext(ctx).
		Joins("JOIN chat_participants cp ON cp.chat_id = chat_threads.id").
		Where("cp.user_id = ?", userID).
		Order("chat_threads.updated_at DESC, chat_threads.id DESC").
		Find(&threads).Error
	return threads, err
}

// ParticipantsOf maps each chat id to its participant user ids.
func (r *ChatRepository) ParticipantsOf(ctx context.Context, chatIDs []string) (map[string][]string, error) {
	out := make(map[string][]string, len(chatIDs))
	if len(chatIDs) == 0 {
		return out, nil
	}
	var rows []db.ChatParticipant
	err := r.db.WithContext(ctx).
		Where("chat_id IN ?", chatIDs).
		Order("created_at ASC, user_id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ChatID] = append(out[p.ChatID], p.UserID)
	}
	return out, nil
}

// LastMessage returns the newest message of a chat, or nil for an empty chat.
func (r *ChatRepository) LastMessage(ctx context.Context, chatID string) (*db.Message, error) {
	var msgs []db.Message
	err := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").
		Limit(1).
		Find(&msgs).Error
	if err != nil || len(msgs) == 0 {
		return nil, err
	}
	return &msgs[0], nil
}

// ListMessages returns a page of a chat's messages, newest first.
//
// Behavior:
//   - Ordered by created_at DESC, id DESC.
//   - paginationToken is the opaque cursor returned by the previous page.
//   - Returns a next token only when more rows exist.
func (r *ChatRepository) ListMessages(
	ctx context.Context,
	chatID string,
	paginationToken *string,
	limit int,
) ([]db.Message, *string, error) {
	cursor, err := pagination.Decode(getString(paginationToken))
	if err != nil {
		return nil, nil, err
	}

	query := r.db.WithContext(ctx).
		Where("chat_id = ?", chatID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)

	// apply cursor
	if !cursor.IsZero() {
		ts := cursor.CreatedAt()
		query = query.Where(
			"(created_at < ? OR (created_at = ? AND id < ?))",
			ts, ts, cursor.ID,
		)
	}

	var msgs []db.Message
	if err := query.Find(&msgs).Error; err != nil {
		return nil, nil, err
	}

	// pagination: build next cursor if needed
	var nextToken *string
	if len(msgs) > limit {
		last := msgs[limit-1]
		token := pagination.After(last.ID, last.CreatedAt).Token()
		nextToken = &token
		msgs = msgs[:limit]
	}

	return msgs, nextToken, nil
}

// getString safely dereferences a string pointer for pagination tokens.
func getString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
