package app

import (
	"log/slog"

	"github.com/oggyb/concert-buddy/internal/cache"
	"gorm.io/gorm"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger
	// Alerts is the high-severity channel for conditions an operator must fix.
	Alerts *slog.Logger
}

// New creates a new AppContext. Alerts default to the logger when nil.
func New(db *gorm.DB, rdb *cache.RedisCache, logger, alerts *slog.Logger) *AppContext {
	if alerts == nil {
		alerts = logger
	}
	return &AppContext{
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Alerts:     alerts,
	}
}
