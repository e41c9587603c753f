package db_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/oggyb/concert-buddy/internal/db"
)

func TestSeedDemoData(t *testing.T) {
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NowFunc: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1) // every :memory: connection is a separate database
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(database))

	// running twice must reset instead of piling up rows
	require.NoError(t, db.SeedDemoData(database))
	require.NoError(t, db.SeedDemoData(database))

	var profiles, events, interests, users int64
	database.Model(&db.Profile{}).Count(&profiles)
	database.Model(&db.Event{}).Count(&events)
	database.Model(&db.EventInterest{}).Count(&interests)
	database.Model(&db.PreferenceSignal{}).Distinct("user_id").Count(&users)

	assert.Equal(t, int64(20), profiles)
	assert.Equal(t, int64(6), events)
	assert.GreaterOrEqual(t, interests, int64(40))
	assert.Equal(t, int64(16), users)
}
