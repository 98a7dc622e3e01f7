package calculator

import (
	"errors"
	"math"

	"MarketPulse/internal/model"
)

// Delta returns the latest value and its change against the previous point.
func Delta(points []model.Point) (latest, delta float64, err error) {
	switch len(points) {
	case 0:
		return 0, 0, errors.New("no points provided")
	case 1:
		return points[0].Value, 0, nil
	}
	n := len(points)
	return points[n-1].Value, points[n-1].Value - points[n-2].Value, nil
}

// WindowRange scans the points and returns the highest and lowest values.
func WindowRange(points []model.Point) (high, low float64, err error) {
	if len(points) == 0 {
		return 0, 0, errors.New("no points provided")
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, p := range points {
		if p.Value > high {
			high = p.Value
		}
		if p.Value < low {
			low = p.Value
		}
	}
	return high, low, nil
}

// RangePosition returns where current sits within [low, high] (0.0~1.0).
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}
