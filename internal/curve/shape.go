package curve

// Curve shape classifications.
const (
	ShapeNormal       = "Normal"
	ShapeSteepNormal  = "Steep Normal"
	ShapeInverted     = "Inverted"
	ShapeHumped       = "Humped"
	ShapeFlat         = "Flat"
	ShapeInsufficient = "Insufficient Data"
)

// Shape classifies the curve from its short (3M), medium (5Y) and long
// (30Y) yields. Rules are checked in order, first match wins:
//
//	short > medium+0.2 and long > medium+0.2  -> Humped
//	short > long+0.1                          -> Inverted
//	long  > short+0.5                         -> Steep Normal
//	long  > short+0.1                         -> Normal
//	otherwise                                 -> Flat
//
// Fewer than three observations cannot support a classification.
func (s *Store) Shape() string {
	if len(s.points) < 3 {
		return ShapeInsufficient
	}

	short := s.YieldAt(0.25)
	medium := s.YieldAt(5.0)
	long := s.YieldAt(30.0)

	switch {
	case short > medium+0.2 && long > medium+0.2:
		return ShapeHumped
	case short > long+0.1:
		return ShapeInverted
	case long > short+0.5:
		return ShapeSteepNormal
	case long > short+0.1:
		return ShapeNormal
	default:
		return ShapeFlat
	}
}

// RecessionWarning reports whether the 2s10s spread has inverted past
// the -0.2 warning threshold.
func (s *Store) RecessionWarning() bool {
	return s.Spread(2, 10) < -0.2
}

// Steepness buckets the 2s10s spread: "steep" above 1.0, "inverted"
// below -0.1, "flat" in between.
func (s *Store) Steepness() string {
	spread := s.Spread(2, 10)
	switch {
	case spread > 1.0:
		return "steep"
	case spread < -0.1:
		return "inverted"
	default:
		return "flat"
	}
}

// TermPremium returns the 10s30s spread in percentage points, the
// long-end premium over the ten-year yield.
func (s *Store) TermPremium() float64 {
	return s.Spread(10, 30)
}
