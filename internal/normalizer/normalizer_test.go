package normalizer

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/model"
)

func day(n int) time.Time {
	return time.Date(2025, time.March, n, 0, 0, 0, 0, time.UTC)
}

func series(sym model.Symbol, values map[int]float64) model.RawSeries {
	rs := model.RawSeries{Symbol: sym}
	for d := 1; d <= 31; d++ {
		if v, ok := values[d]; ok {
			rs.Points = append(rs.Points, model.Point{Time: day(d), Value: v})
		}
	}
	return rs
}

func fullRange() model.DateRange {
	return model.DateRange{Start: day(1), End: day(31)}
}

func TestNormalize_TwoDayScenario(t *testing.T) {
	raw := map[model.Symbol]model.RawSeries{
		"A": series("A", map[int]float64{1: 100, 2: 110}),
	}
	res, errs := Normalize(raw, model.DateRange{Start: day(1), End: day(2)})
	require.Empty(t, errs)
	require.Contains(t, res.Series, model.Symbol("A"))

	pts := res.Series["A"].Points
	require.Len(t, pts, 2)
	assert.True(t, pts[0].Time.Equal(day(1)))
	assert.Equal(t, 0.0, pts[0].Value)
	assert.True(t, pts[1].Time.Equal(day(2)))
	assert.InDelta(t, 0.10, pts[1].Value, 1e-12)
}

func TestNormalize_FirstValueIsExactlyZero(t *testing.T) {
	raw := map[model.Symbol]model.RawSeries{
		"AAPL":  series("AAPL", map[int]float64{3: 187.13, 4: 190.2, 5: 185.9}),
		"MXN=X": series("MXN=X", map[int]float64{3: 19.87, 5: 20.11}),
		"^TNX":  series("^TNX", map[int]float64{4: 4.31, 5: 4.4}),
	}
	res, errs := Normalize(raw, fullRange())
	require.Empty(t, errs)
	for sym, s := range res.Series {
		require.NotEmpty(t, s.Points, sym)
		assert.Equal(t, 0.0, s.Points[0].Value, sym)
	}
}

func TestNormalize_SharedTimeline(t *testing.T) {
	raw := map[model.Symbol]model.RawSeries{
		"A": series("A", map[int]float64{1: 10, 2: 11, 4: 12, 7: 13}),
		"B": series("B", map[int]float64{2: 50, 3: 51, 7: 49}),
		"C": series("C", map[int]float64{1: 1, 5: 2, 6: 3}),
	}
	res, errs := Normalize(raw, fullRange())
	require.Empty(t, errs)

	// B starts last, so the timeline starts at day 2.
	want := []time.Time{day(2), day(3), day(4), day(5), day(6), day(7)}
	require.Len(t, res.Timeline, len(want))
	for i := range want {
		assert.True(t, res.Timeline[i].Equal(want[i]), "timeline[%d]", i)
	}
	for sym, s := range res.Series {
		require.Len(t, s.Points, len(want), sym)
		for i, p := range s.Points {
			assert.True(t, p.Time.Equal(res.Timeline[i]), "%s[%d]", sym, i)
		}
	}
}

func TestAlign_ForwardFillCarriesLatestPriorValue(t *testing.T) {
	raw := map[model.Symbol]model.RawSeries{
		"A": series("A", map[int]float64{1: 10, 2: 11, 3: 12, 4: 13}),
		"B": series("B", map[int]float64{1: 50, 3: 55}),
	}
	aligned, errs := Align(raw, fullRange())
	require.Empty(t, errs)

	assert.Equal(t, []float64{50, 50, 55, 55}, aligned.Prices["B"])
	assert.Equal(t, []float64{10, 11, 12, 13}, aligned.Prices["A"])

	res, _ := Normalize(raw, fullRange())
	b := res.Series["B"].Points
	assert.Equal(t, b[0].Value, b[1].Value)
	assert.Equal(t, b[2].Value, b[3].Value)
}

func TestNormalize_CarriedValueUsesPointBeforeTimelineStart(t *testing.T) {
	// A has data on day 1, B only from day 3: A's base is its day-1 value carried to day 3.
	raw := map[model.Symbol]model.RawSeries{
		"A": series("A", map[int]float64{1: 100, 4: 120}),
		"B": series("B", map[int]float64{3: 10, 4: 11}),
	}
	res, errs := Normalize(raw, fullRange())
	require.Empty(t, errs)
	require.Len(t, res.Timeline, 2)
	assert.Equal(t, 0.0, res.Series["A"].Points[0].Value)
	assert.InDelta(t, 0.2, res.Series["A"].Points[1].Value, 1e-12)
}

func TestNormalize_BaseIsTimelineStartNotOwnFirstPoint(t *testing.T) {
	raw := map[model.Symbol]model.RawSeries{
		"A": series("A", map[int]float64{1: 100, 2: 80, 4: 120}),
		"B": series("B", map[int]float64{3: 10, 4: 11}),
	}
	res, errs := Normalize(raw, fullRange())
	require.Empty(t, errs)
	require.Len(t, res.Timeline, 2)
	assert.True(t, res.Timeline[0].Equal(day(3)))
	// rebased on 80 (carried from day 2), not on A's own first value 100
	assert.InDelta(t, 0.5, res.Series["A"].Points[1].Value, 1e-12)
}

func TestNormalize_EmptySeriesIsExcludedAndReported(t *testing.T) {
	raw := map[model.Symbol]model.RawSeries{
		"A": series("A", map[int]float64{1: 100, 2: 110}),
		"B": {Symbol: "B"},
		"C": series("C", map[int]float64{1: 5, 2: 6}),
	}
	res, errs := Normalize(raw, fullRange())

	assert.Len(t, res.Series, 2)
	assert.NotContains(t, res.Series, model.Symbol("B"))
	require.Len(t, errs, 1)
	assert.Equal(t, model.Symbol("B"), errs[0].Symbol)
	assert.True(t, errors.Is(errs[0], model.ErrEmptySeries))
}

func TestNormalize_OutOfRangeOnlyIsEmpty(t *testing.T) {
	raw := map[model.Symbol]model.RawSeries{
		"A": series("A", map[int]float64{10: 100, 11: 101}),
		"B": series("B", map[int]float64{1: 5, 20: 6}),
	}
	res, errs := Normalize(raw, model.DateRange{Start: day(1), End: day(5)})
	require.Len(t, errs, 1)
	assert.Equal(t, model.Symbol("A"), errs[0].Symbol)
	require.Contains(t, res.Series, model.Symbol("B"))
	assert.Len(t, res.Series["B"].Points, 1)
}

func TestNormalize_AllEmpty(t *testing.T) {
	raw := map[model.Symbol]model.RawSeries{
		"A": {Symbol: "A"},
		"B": {Symbol: "B"},
	}
	res, errs := Normalize(raw, fullRange())
	assert.Empty(t, res.Series)
	assert.Empty(t, res.Timeline)
	assert.Len(t, errs, 2)
}

func TestNormalize_SkipsUnusableValues(t *testing.T) {
	raw := map[model.Symbol]model.RawSeries{
		"A": {Symbol: "A", Points: []model.Point{
			{Time: day(1), Value: 0},
			{Time: day(2), Value: math.NaN()},
			{Time: day(3), Value: 100},
			{Time: day(4), Value: math.Inf(1)},
			{Time: day(5), Value: 105},
		}},
	}
	res, errs := Normalize(raw, fullRange())
	require.Empty(t, errs)
	pts := res.Series["A"].Points
	require.Len(t, pts, 2)
	assert.True(t, pts[0].Time.Equal(day(3)))
	assert.InDelta(t, 0.05, pts[1].Value, 1e-12)
}

func TestNormalize_UnsortedAndDuplicateInput(t *testing.T) {
	input := []model.Point{
		{Time: day(3), Value: 130},
		{Time: day(1), Value: 100},
		{Time: day(2), Value: 115},
		{Time: day(2), Value: 120},
	}
	raw := map[model.Symbol]model.RawSeries{"A": {Symbol: "A", Points: input}}
	res, errs := Normalize(raw, fullRange())
	require.Empty(t, errs)

	pts := res.Series["A"].Points
	require.Len(t, pts, 3)
	assert.InDelta(t, 0.2, pts[1].Value, 1e-12)
	assert.InDelta(t, 0.3, pts[2].Value, 1e-12)

	// input untouched
	assert.True(t, input[0].Time.Equal(day(3)))
	assert.Equal(t, 115.0, input[2].Value)
}

func TestAligned_Series(t *testing.T) {
	raw := map[model.Symbol]model.RawSeries{
		"A": series("A", map[int]float64{1: 1, 2: 2}),
	}
	aligned, _ := Align(raw, fullRange())
	rs, ok := aligned.Series("A")
	require.True(t, ok)
	assert.Equal(t, []float64{1, 2}, rs.Closes())

	_, ok = aligned.Series("missing")
	assert.False(t, ok)
}
