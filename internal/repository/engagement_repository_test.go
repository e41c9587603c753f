package repository_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oggyb/concert-buddy/internal/db"
	"github.com/oggyb/concert-buddy/internal/repository"
)

func TestRecordEngagement_AppendsRows(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewEngagementRepository(dbase)

	id1, err := repo.RecordEngagement(ctx, "alice", "bob", "e1", db.DirectionPassed)
	require.NoError(t, err)
	id2, err := repo.RecordEngagement(ctx, "alice", "bob", "e1", db.DirectionInterested)
	require.NoError(t, err)

	assert.Greater(t, id2, id1)

	var count int64
	dbase.Model(&db.Engagement{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestFindReciprocal(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewEngagementRepository(dbase)

	// nothing yet
	got, err := repo.FindReciprocal(ctx, "bob", "alice", "e1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// bob likes alice for e1 → reciprocal for alice's swipe
	_, _ = repo.RecordEngagement(ctx, "bob", "alice", "e1", db.DirectionInterested)
	got, err = repo.FindReciprocal(ctx, "bob", "alice", "e1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "bob", got.ActorUserID)

	// different event does not count
	got, err = repo.FindReciprocal(ctx, "bob", "alice", "e2")
	require.NoError(t, err)
	assert.Nil(t, got)

	// later pass hides the earlier like
	_, _ = repo.RecordEngagement(ctx, "bob", "alice", "e1", db.DirectionPassed)
	got, err = repo.FindReciprocal(ctx, "bob", "alice", "e1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestEngagedTargetsAndPendingInviters(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewEngagementRepository(dbase)

	_, _ = repo.RecordEngagement(ctx, "alice", "bob", "e1", db.DirectionInterested)
	_, _ = repo.RecordEngagement(ctx, "alice", "carol", "e1", db.DirectionPassed)
	_, _ = repo.RecordEngagement(ctx, "alice", "dave", "e2", db.DirectionInterested)

	engaged, err := repo.EngagedTargets(ctx, "alice", "e1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"bob": true, "carol": true}, engaged)

	_, _ = repo.RecordEngagement(ctx, "carol", "bob", "e1", db.DirectionInterested)
	_, _ = repo.RecordEngagement(ctx, "carol", "bob", "e1", db.DirectionPassed)

	inviters, err := repo.PendingInviters(ctx, "bob", "e1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"alice": true}, inviters)
}

func TestHasEngaged(t *testing.T) {
	ctx := context.Background()
	dbase := setupTestDB(t)
	repo := repository.NewEngagementRepository(dbase)

	_, _ = repo.RecordEngagement(ctx, "alice", "bob", "e1", db.DirectionPassed)

	ok, err := repo.HasEngaged(ctx, "alice", "bob", "e1")
	require.NoError(t, err)
	assert.True(t, ok)

	// other event, other direction
	ok, err = repo.HasEngaged(ctx, "alice", "bob", "e2")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = repo.HasEngaged(ctx, "bob", "alice", "e1")
	require.NoError(t, err)
	assert.False(t, ok)
}
