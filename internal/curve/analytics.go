package curve

import (
	"errors"
	"math"

	"github.com/curvewatch/curvewatch/pkg/models"
)

// Errors returned by ForwardRate. Exporters that need the legacy
// zero-sentinel contract use ForwardRateOrZero instead.
var (
	ErrInvalidRange = errors.New("forward rate requires t2 > t1")
	ErrDomain       = errors.New("forward rate undefined for yields at or below -100%")
)

// exactMatchTol short-circuits interpolation on grid points, avoiding
// rounding drift at stored maturities.
const exactMatchTol = 1e-6

// YieldAt returns the yield in percent at maturity m (years). Stored
// maturities within 1e-6 of m return their yield directly; maturities
// outside the observed range extrapolate flat to the nearest endpoint;
// anything between two observations interpolates linearly. An empty
// store returns 0.
func (s *Store) YieldAt(m float64) float64 {
	if len(s.points) == 0 {
		return 0.0
	}

	for _, p := range s.points {
		if math.Abs(p.Maturity-m) < exactMatchTol {
			return p.Yield
		}
	}

	first, last := s.points[0], s.points[len(s.points)-1]
	if m <= first.Maturity {
		return first.Yield
	}
	if m >= last.Maturity {
		return last.Yield
	}

	for i := 0; i < len(s.points)-1; i++ {
		p1, p2 := s.points[i], s.points[i+1]
		if m >= p1.Maturity && m <= p2.Maturity {
			if math.Abs(p2.Maturity-p1.Maturity) < 1e-9 {
				return p1.Yield
			}
			return p1.Yield + (p2.Yield-p1.Yield)*(m-p1.Maturity)/(p2.Maturity-p1.Maturity)
		}
	}
	return last.Yield
}

// ForwardRate returns the implied forward rate in percent between t1
// and t2 (years), derived from the two spot yields via the compounding
// identity ((1+y2)^t2 / (1+y1)^t1)^(1/(t2-t1)) - 1. It returns
// ErrInvalidRange when t2 <= t1 and ErrDomain when a spot yield at or
// below -100% makes the exponentiation meaningless.
func (s *Store) ForwardRate(t1, t2 float64) (float64, error) {
	if t2 <= t1 {
		return 0, ErrInvalidRange
	}

	y1 := s.YieldAt(t1) / 100.0
	y2 := s.YieldAt(t2) / 100.0
	if 1+y1 <= 0 || 1+y2 <= 0 {
		return 0, ErrDomain
	}

	fwd := math.Pow(math.Pow(1+y2, t2)/math.Pow(1+y1, t1), 1/(t2-t1)) - 1
	if math.IsNaN(fwd) || math.IsInf(fwd, 0) {
		return 0, ErrDomain
	}
	return fwd * 100.0, nil
}

// ForwardRateOrZero is ForwardRate under the legacy sentinel contract:
// an invalid range and a domain error both come back as 0.0, which a
// caller cannot tell apart from a true zero forward. Report and export
// writers depend on the zero sentinel for their fixed column sets.
func (s *Store) ForwardRateOrZero(t1, t2 float64) float64 {
	fwd, err := s.ForwardRate(t1, t2)
	if err != nil {
		return 0.0
	}
	return fwd
}

// Duration approximates duration at maturity m. A zero couponRate means
// a zero-coupon instrument, whose duration is its maturity; any other
// coupon uses m/(1+y) with y the interpolated yield. This is a
// simplified model, not cash-flow-weighted Macaulay duration.
func (s *Store) Duration(m, couponRate float64) float64 {
	if couponRate == 0 {
		return m
	}
	return m / (1 + s.YieldAt(m)/100.0)
}

// DV01 returns the dollar value of a one basis point move under the
// simplified duration model: duration scaled by 100.
func (s *Store) DV01(m, couponRate float64) float64 {
	return s.Duration(m, couponRate) * 100.0
}

// Spread returns YieldAt(m2) - YieldAt(m1) in percentage points.
// Multiply by 100 for basis points. m1 and m2 may be in either order.
func (s *Store) Spread(m1, m2 float64) float64 {
	return s.YieldAt(m2) - s.YieldAt(m1)
}

// RiskLevelFor buckets a duration into an interest-rate risk level.
func RiskLevelFor(duration float64) models.RiskLevel {
	switch {
	case duration < 2:
		return models.RiskLow
	case duration < 7:
		return models.RiskModerate
	case duration < 15:
		return models.RiskHigh
	default:
		return models.RiskVeryHigh
	}
}
