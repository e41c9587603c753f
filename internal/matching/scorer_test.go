package matching_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/oggyb/concert-buddy/internal/db"
	"github.com/oggyb/concert-buddy/internal/matching"
)

func artists(vals ...string) []matching.PreferenceSignal {
	out := make([]matching.PreferenceSignal, 0, len(vals))
	for _, v := range vals {
		out = append(out, matching.PreferenceSignal{Kind: db.SignalArtist, Value: v, Weight: 1})
	}
	return out
}

func genres(vals ...string) []matching.PreferenceSignal {
	out := make([]matching.PreferenceSignal, 0, len(vals))
	for _, v := range vals {
		out = append(out, matching.PreferenceSignal{Kind: db.SignalGenre, Value: v, Weight: 1})
	}
	return out
}

func TestScore_WorkedExample(t *testing.T) {
	a := append(artists("Phish", "Goose"), genres("jam", "rock")...)
	b := append(artists("Goose", "Dead"), genres("jam", "folk")...)

	assert.Equal(t, 50, matching.Score(a, b))
}

func TestScore_NeutralWhenEitherSideEmpty(t *testing.T) {
	full := append(artists("Phish"), genres("jam")...)

	assert.Equal(t, matching.NeutralScore, matching.Score(nil, full))
	assert.Equal(t, matching.NeutralScore, matching.Score(full, nil))
	assert.Equal(t, matching.NeutralScore, matching.Score(nil, nil))
}

func TestScore_Symmetric(t *testing.T) {
	sets := [][]matching.PreferenceSignal{
		nil,
		artists("Phish"),
		genres("jam", "rock", "funk"),
		append(artists("Phish", "Goose", "Lettuce"), genres("jam")...),
		append(artists("goose", "Billy Strings"), genres("Bluegrass", "JAM")...),
	}
	for _, a := range sets {
		for _, b := range sets {
			assert.Equal(t, matching.Score(a, b), matching.Score(b, a))
		}
	}
}

func TestScore_CaseInsensitiveAndBounds(t *testing.T) {
	a := append(artists("PHISH", "phish"), genres("Jam")...)
	b := append(artists("Phish"), genres("jam")...)
	assert.Equal(t, 100, matching.Score(a, b))

	// genres only, nothing in common
	assert.Equal(t, 0, matching.Score(genres("jam"), genres("metal")))
}

func TestShared_CapsAndOrder(t *testing.T) {
	a := append(artists("A1", "A2", "A3", "A4", "A5", "A6", "A7"), genres("g1", "G2", "g3", "g4")...)
	b := append(artists("a7", "a6", "a5", "a4", "a3", "a2", "a1"), genres("g4", "g3", "g2", "g1")...)

	shared := matching.Shared(a, b)
	assert.Equal(t, []string{"A1", "A2", "A3", "A4", "A5"}, shared.Artists)
	assert.Equal(t, []string{"g1", "G2", "g3"}, shared.Genres)

	none := matching.Shared(artists("x"), artists("y"))
	assert.Empty(t, none.Artists)
	assert.NotNil(t, none.Genres)
}

type prefsFunc func(ctx context.Context, userID string) ([]matching.PreferenceSignal, error)

func (f prefsFunc) GetSignals(ctx context.Context, userID string) ([]matching.PreferenceSignal, error) {
	return f(ctx, userID)
}

func TestScorer_DependencyFailureIsNeutral(t *testing.T) {
	s := matching.NewScorer(prefsFunc(func(context.Context, string) ([]matching.PreferenceSignal, error) {
		return nil, errors.New("store down")
	}), slog.New(slog.NewTextHandler(io.Discard, nil)))

	score, shared := s.Compatibility(context.Background(), "a", "b")
	assert.Equal(t, matching.NeutralScore, score)
	assert.Empty(t, shared.Artists)
}

func TestScorer_LoadsBothUsers(t *testing.T) {
	data := map[string][]matching.PreferenceSignal{
		"a": append(artists("Phish", "Goose"), genres("jam", "rock")...),
		"b": append(artists("Goose", "Dead"), genres("jam", "folk")...),
	}
	s := matching.NewScorer(prefsFunc(func(_ context.Context, id string) ([]matching.PreferenceSignal, error) {
		return data[id], nil
	}), slog.New(slog.NewTextHandler(io.Discard, nil)))

	score, shared := s.Compatibility(context.Background(), "a", "b")
	assert.Equal(t, 50, score)
	assert.Equal(t, []string{"Goose"}, shared.Artists)
	assert.Equal(t, []string{"jam"}, shared.Genres)
}
