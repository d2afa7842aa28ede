package report

import (
	"encoding/json"
	"io"

	"github.com/curvewatch/curvewatch/internal/curve"
	"github.com/curvewatch/curvewatch/pkg/models"
)

// BuildExport assembles the dashboard JSON document for a loaded
// curve. The 1m3m spread and 10y10y forward appear only when the
// store's vocabulary carries the 1MO and 20Y tenors.
func BuildExport(s *curve.Store, cfg Config) models.CurveExport {
	cfg = cfg.normalize()

	points := s.Points()
	export := models.CurveExport{
		Date:        s.Date(),
		DataSource:  cfg.DataSource,
		SourceURL:   cfg.SourceURL,
		CurveShape:  s.Shape(),
		YieldPoints: make([]models.ExportPoint, 0, len(points)),
		KeySpreads: models.KeySpreads{
			Spread2s10s: s.Spread(2, 10) * 100,
			Spread3m10y: s.Spread(0.25, 10) * 100,
			Spread5s30s: s.Spread(5, 30) * 100,
		},
		ForwardRates: models.ForwardRates{
			Fwd1y1y: s.ForwardRateOrZero(1, 2),
			Fwd2y1y: s.ForwardRateOrZero(2, 3),
			Fwd5y5y: s.ForwardRateOrZero(5, 10),
		},
		EconomicIndicators: models.EconomicIndicators{
			RecessionWarning: s.RecessionWarning(),
			CurveSteepness:   s.Steepness(),
			TermPremiumBps:   s.TermPremium() * 100,
		},
	}

	for _, p := range points {
		export.YieldPoints = append(export.YieldPoints, models.ExportPoint{
			MaturityLabel: p.Label,
			MaturityYears: p.Maturity,
			Yield:         p.Yield,
			Duration:      s.Duration(p.Maturity, cfg.CouponRate),
		})
	}

	vocab := s.Vocabulary()
	if vocab.Has("1MO") {
		v := s.Spread(1.0/12.0, 0.25) * 100
		export.KeySpreads.Spread1m3m = &v
	}
	if vocab.Has("20Y") {
		v := s.ForwardRateOrZero(10, 20)
		export.ForwardRates.Fwd10y10y = &v
	}

	return export
}

// WriteJSON writes the export document to w with two-space indentation.
func WriteJSON(w io.Writer, s *curve.Store, cfg Config) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(BuildExport(s, cfg))
}
