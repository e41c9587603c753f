package matching

import (
	"context"
	"log/slog"
	"math"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/concert-buddy/internal/db"
	svcErr "github.com/oggyb/concert-buddy/internal/errors"
)

const (
	// NeutralScore is returned when either side has no taste data at all.
	NeutralScore = 50

	artistWeight     = 0.6
	genreWeight      = 0.4
	maxSharedArtists = 5
	maxSharedGenres  = 3
)

// SharedPreferences lists the artists and genres two users have in common.
type SharedPreferences struct {
	Artists []string `json:"artists"`
	Genres  []string `json:"genres"`
}

// taste is one user's signals split by kind, de-duplicated case-insensitively.
// order keeps the first spelling seen for each lower-cased value.
type taste struct {
	artists      map[string]bool
	genres       map[string]bool
	artistsOrder []string
	genresOrder  []string
}

func newTaste(signals []PreferenceSignal) taste {
	t := taste{artists: map[string]bool{}, genres: map[string]bool{}}
	for _, s := range signals {
		key := strings.ToLower(strings.TrimSpace(s.Value))
		if key == "" {
			continue
		}
		switch s.Kind {
		case db.SignalArtist:
			if !t.artists[key] {
				t.artists[key] = true
				t.artistsOrder = append(t.artistsOrder, s.Value)
			}
		case db.SignalGenre:
			if !t.genres[key] {
				t.genres[key] = true
				t.genresOrder = append(t.genresOrder, s.Value)
			}
		}
	}
	return t
}

func (t taste) empty() bool {
	return len(t.artists) == 0 && len(t.genres) == 0
}

// Score computes the 0–100 compatibility of two users' signals.
//
//	score = round(100 * (0.6*overlap(artists) + 0.4*overlap(genres)))
//	overlap(X, Y) = |X ∩ Y| / max(|X|, |Y|), 0 when either set is empty
//
// Either side without any signal scores NeutralScore. Score(a, b) == Score(b, a).
func Score(a, b []PreferenceSignal) int {
	ta, tb := newTaste(a), newTaste(b)
	if ta.empty() || tb.empty() {
		return NeutralScore
	}
	raw := artistWeight*overlap(ta.artists, tb.artists) + genreWeight*overlap(ta.genres, tb.genres)
	return clamp(int(math.Round(100 * raw)))
}

// Shared returns the common artists (at most 5) and genres (at most 3) in a's order and spelling.
func Shared(a, b []PreferenceSignal) SharedPreferences {
	ta, tb := newTaste(a), newTaste(b)
	return SharedPreferences{
		Artists: intersect(ta.artistsOrder, tb.artists, maxSharedArtists),
		Genres:  intersect(ta.genresOrder, tb.genres, maxSharedGenres),
	}
}

func overlap(x, y map[string]bool) float64 {
	if len(x) == 0 || len(y) == 0 {
		return 0
	}
	common := 0
	for k := range x {
		if y[k] {
			common++
		}
	}
	return float64(common) / float64(max(len(x), len(y)))
}

func intersect(ordered []string, other map[string]bool, limit int) []string {
	out := []string{}
	for _, v := range ordered {
		if len(out) == limit {
			break
		}
		if other[strings.ToLower(strings.TrimSpace(v))] {
			out = append(out, v)
		}
	}
	return out
}

func clamp(n int) int {
	return min(100, max(0, n))
}

// Scorer loads preference signals and scores pairs of users.
type Scorer struct {
	prefs PreferenceStore
	log   *slog.Logger
}

func NewScorer(prefs PreferenceStore, log *slog.Logger) *Scorer {
	return &Scorer{prefs: prefs, log: log}
}

// Compatibility fetches both users' signals concurrently and scores them.
// A failed lookup degrades to NeutralScore with nothing shared.
func (s *Scorer) Compatibility(ctx context.Context, userA, userB string) (int, SharedPreferences) {
	var sigA, sigB []PreferenceSignal

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sigA, err = s.prefs.GetSignals(gctx, userA)
		return err
	})
	g.Go(func() error {
		var err error
		sigB, err = s.prefs.GetSignals(gctx, userB)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Warn("preference lookup failed, using neutral score",
			"user_a", userA, "user_b", userB, "err", svcErr.Dependency("get signals", err))
		return NeutralScore, SharedPreferences{Artists: []string{}, Genres: []string{}}
	}

	return Score(sigA, sigB), Shared(sigA, sigB)
}
