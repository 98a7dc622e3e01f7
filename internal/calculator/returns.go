package calculator

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"MarketPulse/internal/model"
)

// TradingDaysPerYear annualizes daily statistics.
const TradingDaysPerYear = 252

// DailyReturns converts prices to simple period returns: (p[i]-p[i-1])/p[i-1].
// Steps from a zero price are skipped.
func DailyReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] == 0 {
			continue
		}
		returns = append(returns, (prices[i]-prices[i-1])/prices[i-1])
	}
	return returns
}

// AnnualizedVolatility returns the sample standard deviation of daily returns scaled by sqrt(252).
func AnnualizedVolatility(dailyReturns []float64) (float64, error) {
	if len(dailyReturns) < 2 {
		return 0, errors.New("not enough returns for volatility")
	}
	return stat.StdDev(dailyReturns, nil) * math.Sqrt(TradingDaysPerYear), nil
}

// Correlation is the Pearson correlation of two equally long samples.
func Correlation(x, y []float64) (float64, error) {
	if len(x) != len(y) {
		return 0, errors.New("samples differ in length")
	}
	if len(x) < 2 {
		return 0, errors.New("not enough samples for correlation")
	}
	c := stat.Correlation(x, y, nil)
	if math.IsNaN(c) {
		return 0, errors.New("correlation undefined for constant sample")
	}
	return c, nil
}

// Trendline fits y = alpha + beta*x by ordinary least squares.
func Trendline(x, y []float64) (alpha, beta float64, err error) {
	if len(x) != len(y) {
		return 0, 0, errors.New("samples differ in length")
	}
	if len(x) < 2 {
		return 0, 0, errors.New("not enough samples for trendline")
	}
	alpha, beta = stat.LinearRegression(x, y, nil, false)
	if math.IsNaN(alpha) || math.IsNaN(beta) {
		return 0, 0, errors.New("trendline undefined for constant sample")
	}
	return alpha, beta, nil
}

// Base100 rescales relative returns to an index starting at 100.
func Base100(s model.NormalizedSeries) []model.Point {
	out := make([]model.Point, len(s.Points))
	for i, p := range s.Points {
		out[i] = model.Point{Time: p.Time, Value: (1 + p.Value) * 100}
	}
	return out
}

// GroupIndex averages several base-100 series point by point. All members
// must share one timeline, as normalizer output does.
func GroupIndex(members [][]model.Point) ([]model.Point, error) {
	if len(members) == 0 {
		return nil, errors.New("no members for group index")
	}
	n := len(members[0])
	for _, m := range members[1:] {
		if len(m) != n {
			return nil, errors.New("group members differ in length")
		}
	}
	out := make([]model.Point, n)
	column := make([]float64, len(members))
	for i := 0; i < n; i++ {
		for j, m := range members {
			column[j] = m[i].Value
		}
		out[i] = model.Point{Time: members[0][i].Time, Value: stat.Mean(column, nil)}
	}
	return out, nil
}
