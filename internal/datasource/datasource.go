// Package datasource fetches US Treasury yield curve rows from multiple
// origins. It defines a common Source interface and implements concrete
// sources for the Federal Reserve H.15 release, the treasury.gov daily
// par yield page, and local CSV files, plus official rates news feeds.
package datasource

import (
	"context"
	"fmt"
	"time"
)

// Source is a provider of raw yield curve rows.
type Source interface {
	// Name returns the human-readable name of this source.
	Name() string

	// FetchCurve returns raw curve rows ready for curve.Store.Load.
	FetchCurve(ctx context.Context) (*CurveData, error)
}

// CurveData holds raw rows fetched from a source. Each row is a date
// field followed by one yield field per tenor, in the vocabulary's
// column order. Fields that did not publish stay empty.
type CurveData struct {
	Rows      [][]string
	Retrieved time.Time
}

// ErrNoData is returned when a source produced no usable curve rows.
var ErrNoData = fmt.Errorf("no curve data available")

// isDateLike checks if a string looks like a date (starts with 4 digits).
func isDateLike(s string) bool {
	if len(s) < 4 {
		return false
	}
	for _, c := range s[:4] {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
