package db

import (
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	seedArtists = []string{"Phish", "Goose", "Grateful Dead", "Khruangbin", "Billy Strings", "Radiohead", "Tame Impala", "Lettuce"}
	seedGenres  = []string{"jam", "rock", "folk", "psych", "funk", "bluegrass", "indie"}
	seedVenues  = []string{"Red Rocks", "The Fillmore", "Madison Square Garden", "The Gorge"}
)

// SeedDemoData resets the collaborator tables and the engine tables, then
// populates them with demo profiles, events, interests and music tastes.
//
// Behavior:
//  1. Clears engine tables (engagements, relationships, notifications, chats) and catalog tables.
//  2. Creates 20 profiles and 6 events.
//  3. Marks every user interested in 2–4 random events.
//  4. Gives every user 1–4 artists and 1–3 genres; every 5th user gets none
//     so the neutral compatibility path shows up in demos.
//
// Compatible with MySQL, Postgres and SQLite.
func SeedDemoData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	tables := []string{
		"messages", "chat_participants", "chat_threads", "notifications",
		"relationships", "engagements",
		"preference_signals", "user_blocks", "event_interests", "events", "profiles",
	}
	for _, t := range tables {
		if err := db.Exec("DELETE FROM " + t).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", t, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE engagements AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE preference_signals AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('engagements', 'preference_signals')")
	}

	log.Println("Cleared existing data")

	// --- Profiles ---
	userIDs := make([]string, 0, 20)
	for i := 1; i <= 20; i++ {
		p := Profile{
			UserID: uuid.NewString(),
			Name:   fmt.Sprintf("fan%d", i),
			Bio:    fmt.Sprintf("Concert regular #%d", i),
		}
		if err := db.Create(&p).Error; err != nil {
			return fmt.Errorf("failed to seed profile: %w", err)
		}
		userIDs = append(userIDs, p.UserID)
	}
	log.Println("Seeded 20 profiles.")

	// --- Events ---
	eventIDs := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		artist := seedArtists[i%len(seedArtists)]
		e := Event{
			ID:         uuid.NewString(),
			Title:      fmt.Sprintf("%s at %s", artist, seedVenues[i%len(seedVenues)]),
			ArtistName: artist,
			VenueName:  seedVenues[i%len(seedVenues)],
			StartsAt:   time.Now().UTC().Add(time.Duration(7+i*3) * 24 * time.Hour),
		}
		if err := db.Create(&e).Error; err != nil {
			return fmt.Errorf("failed to seed event: %w", err)
		}
		eventIDs = append(eventIDs, e.ID)
	}
	log.Println("Seeded 6 events.")

	// --- Interests + tastes ---
	for i, uid := range userIDs {
		for _, idx := range r.Perm(len(eventIDs))[:2+r.Intn(3)] {
			if err := db.Create(&EventInterest{EventID: eventIDs[idx], UserID: uid}).Error; err != nil {
				return fmt.Errorf("failed to seed interest: %w", err)
			}
		}

		if i%5 == 4 {
			continue
		}
		var signals []PreferenceSignal
		for _, idx := range r.Perm(len(seedArtists))[:1+r.Intn(4)] {
			signals = append(signals, PreferenceSignal{UserID: uid, Kind: SignalArtist, Value: seedArtists[idx], Weight: 1 + r.Float64()})
		}
		for _, idx := range r.Perm(len(seedGenres))[:1+r.Intn(3)] {
			signals = append(signals, PreferenceSignal{UserID: uid, Kind: SignalGenre, Value: seedGenres[idx], Weight: 1 + r.Float64()})
		}
		if err := db.Create(&signals).Error; err != nil {
			return fmt.Errorf("failed to seed preferences: %w", err)
		}
	}

	return nil
}
