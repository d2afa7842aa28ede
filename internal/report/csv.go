package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/curvewatch/curvewatch/internal/curve"
)

// Fixed fields of the extended analysis export.
const (
	csvDataSource = "Federal_Reserve_H15"
	csvNotes      = "Federal_Reserve_H15_Official_Data"
)

var legacyCSVHeader = []string{
	"Analysis_Date", "Maturity_Label", "Maturity_Years",
	"Yield_Pct", "Duration", "Forward_1Y",
}

var extendedCSVHeader = []string{
	"Analysis_Date", "Data_Source", "Maturity_Label", "Maturity_Years",
	"Yield_Pct", "Duration", "DV01", "Forward_1Y", "Risk_Level", "Notes",
}

// WriteLegacyCSV writes one row per point in the six-column analysis
// format.
func WriteLegacyCSV(w io.Writer, s *curve.Store, cfg Config) error {
	cfg = cfg.normalize()

	cw := csv.NewWriter(w)
	if err := cw.Write(legacyCSVHeader); err != nil {
		return err
	}
	for _, p := range s.Points() {
		row := []string{
			s.Date(),
			p.Label,
			csvFloat(p.Maturity),
			csvFloat(p.Yield),
			csvFloat(s.Duration(p.Maturity, cfg.CouponRate)),
			csvFloat(forward1Y(s, p.Maturity)),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSV writes the extended analysis export, adding DV01, the risk
// level and source attribution to every row.
func WriteCSV(w io.Writer, s *curve.Store, cfg Config) error {
	cfg = cfg.normalize()

	cw := csv.NewWriter(w)
	if err := cw.Write(extendedCSVHeader); err != nil {
		return err
	}
	for _, p := range s.Points() {
		duration := s.Duration(p.Maturity, cfg.CouponRate)
		row := []string{
			s.Date(),
			csvDataSource,
			p.Label,
			csvFloat(p.Maturity),
			csvFloat(p.Yield),
			csvFloat(duration),
			csvFloat(s.DV01(p.Maturity, cfg.CouponRate)),
			csvFloat(forward1Y(s, p.Maturity)),
			string(curve.RiskLevelFor(duration)),
			csvNotes,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// forward1Y is the one-year forward starting at m, or 0 below the
// one-year point where the window has no meaning.
func forward1Y(s *curve.Store, m float64) float64 {
	if m < 1.0 {
		return 0.0
	}
	return s.ForwardRateOrZero(m, m+1.0)
}

// csvFloat formats v with six significant digits, trailing zeros
// trimmed.
func csvFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
