package recorder

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/model"
)

func newTestRecorder(t *testing.T) *SQLiteRecorder {
	t.Helper()
	r, err := NewSQLiteRecorder(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestSQLiteRecorder_RecordAndList(t *testing.T) {
	r := newTestRecorder(t)
	base := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)

	require.NoError(t, r.RecordPass(&PassRecord{
		ID: "p1", Kind: "overview", StartedAt: base, WindowDays: 365, SnapshotID: "s1",
		States: map[model.Symbol]model.AlertState{"MXN=X": model.Warning, "^TNX": model.Normal, "B": model.Unknown},
		Latest: map[model.Symbol]float64{"MXN=X": 20.9, "^TNX": 4.3, "B": math.NaN()},
		Errors: []*model.SymbolError{model.NewSymbolError("B", model.ErrEmptySeries)},
	}))
	require.NoError(t, r.RecordPass(&PassRecord{
		ID: "p2", Kind: "watch", StartedAt: base.Add(time.Minute), WindowDays: 30, SnapshotID: "s1",
		States: map[model.Symbol]model.AlertState{"MXN=X": model.Normal},
		Latest: map[model.Symbol]float64{"MXN=X": 20.1},
	}))

	passes, err := r.RecentPasses(10)
	require.NoError(t, err)
	require.Len(t, passes, 2)
	assert.Equal(t, "p2", passes[0].ID)
	assert.Equal(t, "p1", passes[1].ID)
	assert.Equal(t, 1, passes[1].Warnings)
	assert.Equal(t, 1, passes[1].Unknown)
	assert.Equal(t, 1, passes[1].Failed)
	assert.True(t, passes[1].StartedAt.Equal(base))

	limited, err := r.RecentPasses(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteRecorder_AlertHistory(t *testing.T) {
	r := newTestRecorder(t)
	base := time.Date(2025, 6, 2, 15, 0, 0, 0, time.UTC)
	for i, st := range []model.AlertState{model.Normal, model.Warning, model.Unknown} {
		latest := map[model.Symbol]float64{"MXN=X": 20 + float64(i)}
		if st == model.Unknown {
			latest = nil
		}
		require.NoError(t, r.RecordPass(&PassRecord{
			ID: string(rune('a' + i)), Kind: "overview", StartedAt: base.Add(time.Duration(i) * time.Minute),
			States: map[model.Symbol]model.AlertState{"MXN=X": st},
			Latest: latest,
		}))
	}

	hist, err := r.AlertHistory("MXN=X", 10)
	require.NoError(t, err)
	require.Len(t, hist, 3)
	assert.Equal(t, model.Unknown, hist[0].State)
	assert.Nil(t, hist[0].Latest)
	assert.Equal(t, model.Warning, hist[1].State)
	require.NotNil(t, hist[1].Latest)
	assert.Equal(t, 21.0, *hist[1].Latest)

	none, err := r.AlertHistory("AAPL", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSQLiteRecorder_DuplicatePassIsError(t *testing.T) {
	r := newTestRecorder(t)
	rec := &PassRecord{ID: "dup", Kind: "overview", StartedAt: time.Now()}
	require.NoError(t, r.RecordPass(rec))
	assert.Error(t, r.RecordPass(rec))
}

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NewNoopRecorder()
	assert.NoError(t, r.RecordPass(&PassRecord{Errors: []*model.SymbolError{{Symbol: "x", Err: errors.New("boom")}}}))
	passes, err := r.RecentPasses(5)
	assert.NoError(t, err)
	assert.Empty(t, passes)
	assert.NoError(t, r.Close())
}
