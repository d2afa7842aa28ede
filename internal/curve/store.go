// Package curve models a government bond yield curve: a sparse set of
// (maturity, yield) observations for one as-of date, with interpolated
// yield lookup, implied forward rates, duration and spread analytics,
// and qualitative shape classification. Interpolation is linear with
// flat extrapolation beyond the observed range.
package curve

import (
	"sort"
	"strconv"
	"strings"
)

// YieldPoint is a single observation: a tenor's maturity in years and
// its yield in percent. Points are created during load and never
// mutated afterwards.
type YieldPoint struct {
	Maturity float64 `json:"maturity_years"`
	Yield    float64 `json:"yield"`
	Label    string  `json:"label"`
}

// Store holds the observations for exactly one as-of date, sorted
// ascending by maturity, plus the date token they belong to. The date
// is an opaque string, never parsed as a calendar date.
//
// A Store is not safe for concurrent use with Load: callers that serve
// concurrent readers must build a fresh Store and swap the reference.
type Store struct {
	vocab  Vocabulary
	date   string
	points []YieldPoint
}

// NewStore returns an empty store that loads rows against the given
// tenor vocabulary.
func NewStore(vocab Vocabulary) *Store {
	return &Store{vocab: vocab}
}

// Load consumes pre-tokenized rows and installs the selected row's
// observations. Field 0 of each row is the date token; subsequent
// fields are tenor values in the vocabulary's column order. Fields that
// are empty or non-numeric are skipped for that tenor only; a row
// counts as loaded when at least one tenor parsed.
//
// A non-empty dateFilter selects the first row whose date token
// contains it as a substring and loads at least one point; scanning
// stops there. With an empty filter every row is considered and the
// last row that loads at least one point stays resident, whatever its
// date; rows are taken in input order, not sorted chronologically.
//
// Load replaces the resident curve unconditionally: when it returns
// false (no usable row) the store has been cleared, not restored.
func (s *Store) Load(rows [][]string, dateFilter string) bool {
	s.date = ""
	s.points = nil

	found := false
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		date := strings.TrimSpace(row[0])
		if dateFilter != "" && !strings.Contains(date, dateFilter) {
			continue
		}

		pts := s.parseRow(row)
		if len(pts) == 0 {
			continue
		}

		s.date = date
		s.points = pts
		found = true
		if dateFilter != "" {
			break
		}
	}

	sort.Slice(s.points, func(i, j int) bool {
		return s.points[i].Maturity < s.points[j].Maturity
	})
	return found
}

// parseRow reads one tenor value per vocabulary column. Last write wins
// when two labels resolve to the same maturity.
func (s *Store) parseRow(row []string) []YieldPoint {
	var pts []YieldPoint
	for i, label := range s.vocab.Labels {
		if i+1 >= len(row) {
			break
		}
		field := strings.TrimSpace(row[i+1])
		y, err := strconv.ParseFloat(field, 64)
		if err != nil {
			continue
		}

		pt := YieldPoint{Maturity: s.vocab.Years[label], Yield: y, Label: label}
		replaced := false
		for j := range pts {
			if pts[j].Maturity == pt.Maturity {
				pts[j] = pt
				replaced = true
				break
			}
		}
		if !replaced {
			pts = append(pts, pt)
		}
	}
	return pts
}

// Points returns a copy of the resident observations, sorted ascending
// by maturity.
func (s *Store) Points() []YieldPoint {
	out := make([]YieldPoint, len(s.points))
	copy(out, s.points)
	return out
}

// Date returns the resident curve's date token.
func (s *Store) Date() string { return s.date }

// Len returns the number of resident observations.
func (s *Store) Len() int { return len(s.points) }

// Vocabulary returns the tenor vocabulary the store loads against.
func (s *Store) Vocabulary() Vocabulary { return s.vocab }
