package repository_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/concert-buddy/internal/db"
	"github.com/oggyb/concert-buddy/internal/repository"
)

func TestDirectKey_OrderIndependent(t *testing.T) {
	assert.Equal(t, "alice:bob", repository.DirectKey("bob", "alice"))
	assert.Equal(t, repository.DirectKey("alice", "bob"), repository.DirectKey("bob", "alice"))
}

func TestCreateDirectThread_OnePerPair(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)

	first, created, err := repo.CreateDirectThread(ctx, "Concert buddies", "alice", "bob")
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.CreateDirectThread(ctx, "Concert buddies · other", "bob", "alice")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Concert buddies", second.Name)

	var count int64
	dbase.Model(&db.ChatThread{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestFindDirectChat_IgnoresGroupsAndStrangers(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)

	// a group chat both are in does not count as their direct chat
	group := db.ChatThread{Name: "crew", IsGroup: true}
	require.NoError(t, dbase.Create(&group).Error)
	require.NoError(t, repo.AddParticipants(ctx, group.ID, "alice", "bob", "carol"))

	found, err := repo.FindDirectChat(ctx, "alice", "bob")
	require.NoError(t, err)
	assert.Nil(t, found)

	thread, _, err := repo.CreateDirectThread(ctx, "Concert buddies", "alice", "bob")
	require.NoError(t, err)
	require.NoError(t, repo.AddParticipants(ctx, thread.ID, "alice", "bob"))

	found, err = repo.FindDirectChat(ctx, "bob", "alice")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, thread.ID, found.ID)

	found, err = repo.FindDirectChat(ctx, "alice", "carol")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestAddParticipants_Idempotent(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)

	thread, _, err := repo.CreateDirectThread(ctx, "Concert buddies", "alice", "bob")
	require.NoError(t, err)
	require.NoError(t, repo.AddParticipants(ctx, thread.ID, "alice", "bob"))
	require.NoError(t, repo.AddParticipants(ctx, thread.ID, "bob", "alice"))

	members, err := repo.ParticipantsOf(ctx, []string{thread.ID})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alice", "bob"}, members[thread.ID])

	ok, err := repo.IsParticipant(ctx, thread.ID, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.IsParticipant(ctx, thread.ID, "carol")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteThread(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)

	thread, _, err := repo.CreateDirectThread(ctx, "Concert buddies", "alice", "bob")
	require.NoError(t, err)
	require.NoError(t, repo.DeleteThread(ctx, thread.ID))

	_, err = repo.GetThread(ctx, thread.ID)
	assert.Error(t, err)

	// the direct key is free again
	_, created, err := repo.CreateDirectThread(ctx, "Concert buddies", "alice", "bob")
	require.NoError(t, err)
	assert.True(t, created)
}

func TestListMessages_Pagination(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)

	thread, _, err := repo.CreateDirectThread(ctx, "Concert buddies", "alice", "bob")
	require.NoError(t, err)

	base := time.Now().UTC().Truncate(time.Millisecond)
	for i := 0; i < 5; i++ {
		msg := db.Message{
			ChatID:    thread.ID,
			SenderID:  "alice",
			Kind:      db.MessageUser,
			Content:   fmt.Sprintf("msg %d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, dbase.Create(&msg).Error)
	}

	page1, next, err := repo.ListMessages(ctx, thread.ID, nil, 2)
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.NotNil(t, next)
	assert.Equal(t, "msg 4", page1[0].Content)
	assert.Equal(t, "msg 3", page1[1].Content)

	page2, next, err := repo.ListMessages(ctx, thread.ID, next, 2)
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.NotNil(t, next)
	assert.Equal(t, "msg 2", page2[0].Content)

	page3, next, err := repo.ListMessages(ctx, thread.ID, next, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Nil(t, next)
	assert.Equal(t, "msg 0", page3[0].Content)

	last, err := repo.LastMessage(ctx, thread.ID)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, "msg 4", last.Content)
}

func TestPostMessage_BumpsThread(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewChatRepository(dbase)

	older, _, err := repo.CreateDirectThread(ctx, "older", "alice", "bob")
	require.NoError(t, err)
	require.NoError(t, repo.AddParticipants(ctx, older.ID, "alice", "bob"))
	time.Sleep(5 * time.Millisecond)
	newer, _, err := repo.CreateDirectThread(ctx, "newer", "alice", "carol")
	require.NoError(t, err)
	require.NoError(t, repo.AddParticipants(ctx, newer.ID, "alice", "carol"))

	time.Sleep(5 * time.Millisecond)
	require.NoError(t, repo.PostMessage(ctx, &db.Message{ChatID: older.ID, SenderID: "bob", Kind: db.MessageUser, Content: "hey"}))

	threads, err := repo.ListThreadsForUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, threads, 2)
	assert.Equal(t, older.ID, threads[0].ID)
}
