// Package report renders a loaded yield curve as a console analysis,
// a dashboard JSON document, and analysis CSVs. Every renderer reads
// the curve through the store's query API and never mutates it.
package report

import (
	"fmt"
	"strings"

	"github.com/curvewatch/curvewatch/internal/curve"
)

// ════════════════════════════════════════════════════════════════════
// Report Config
// ════════════════════════════════════════════════════════════════════

// Attribution carried on reports and exports.
const (
	DataSourceName = "Federal Reserve H.15"
	DataSourceURL  = "https://www.federalreserve.gov/releases/h15/"
)

// DefaultCouponRate is the coupon assumed by the duration
// approximation when the config does not set one, in percent.
const DefaultCouponRate = 3.0

// riskMaturities are the benchmark tenors of the rate-risk tables.
var riskMaturities = []struct {
	Label string
	Years float64
}{
	{"2Y", 2},
	{"5Y", 5},
	{"10Y", 10},
	{"30Y", 30},
}

// Config controls report generation behaviour.
type Config struct {
	CouponRate float64 // duration coupon assumption in percent (0 = DefaultCouponRate)
	DataSource string  // attribution name (default: DataSourceName)
	SourceURL  string  // attribution link (default: DataSourceURL)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		CouponRate: DefaultCouponRate,
		DataSource: DataSourceName,
		SourceURL:  DataSourceURL,
	}
}

// normalize fills zero values so a zero Config renders the same report
// as DefaultConfig().
func (c Config) normalize() Config {
	if c.CouponRate == 0 {
		c.CouponRate = DefaultCouponRate
	}
	if c.DataSource == "" {
		c.DataSource = DataSourceName
	}
	if c.SourceURL == "" {
		c.SourceURL = DataSourceURL
	}
	return c
}

// ════════════════════════════════════════════════════════════════════
// Plain-text report
// ════════════════════════════════════════════════════════════════════

// GenerateText renders the full console analysis for a loaded curve:
// the points table, key spreads, implied forwards, economic indicators
// and the rate-risk table.
func GenerateText(s *curve.Store, cfg Config) string {
	cfg = cfg.normalize()

	var sb strings.Builder
	line := strings.Repeat("═", 62)
	thinLine := strings.Repeat("─", 62)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString("  US TREASURY YIELD CURVE ANALYSIS\n")

	if s == nil || s.Len() == 0 {
		sb.WriteString(fmt.Sprintf("  Source: %s\n", cfg.DataSource))
		sb.WriteString(line + "\n")
		sb.WriteString("\n  No curve data loaded.\n")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("  Source: %s | Date: %s\n", cfg.DataSource, s.Date()))
	sb.WriteString(fmt.Sprintf("  %s\n", cfg.SourceURL))
	sb.WriteString(line + "\n")

	// Points
	sb.WriteString("\n  ■ YIELD CURVE POINTS\n")
	sb.WriteString(fmt.Sprintf("  %-8s %9s %12s %12s %12s\n",
		"Maturity", "Years", "Yield (%)", "Duration", "DV01 ($)"))
	sb.WriteString(thinLine + "\n")
	for _, p := range s.Points() {
		duration := s.Duration(p.Maturity, cfg.CouponRate)
		sb.WriteString(fmt.Sprintf("  %-8s %9.2f %12.2f %12.2f %12.0f\n",
			p.Label, p.Maturity, p.Yield, duration, s.DV01(p.Maturity, cfg.CouponRate)))
	}
	sb.WriteString(thinLine + "\n")

	// Key spreads
	spread2s10s := s.Spread(2, 10)
	sb.WriteString("\n  ■ KEY SPREADS\n")
	sb.WriteString(fmt.Sprintf("  2s10s Spread: %.0f bps %s\n",
		spread2s10s*100, spreadMarker(spread2s10s)))
	sb.WriteString(fmt.Sprintf("  3m10y Spread: %.0f bps\n", s.Spread(0.25, 10)*100))
	sb.WriteString(fmt.Sprintf("  5s30s Spread: %.0f bps (Term Premium)\n", s.Spread(5, 30)*100))
	sb.WriteString(thinLine + "\n")

	// Forward rates
	sb.WriteString("\n  ■ IMPLIED FORWARD RATES\n")
	sb.WriteString(fmt.Sprintf("  1y1y Forward: %.2f%% (Market expects 1Y rate in 1Y)\n",
		s.ForwardRateOrZero(1, 2)))
	sb.WriteString(fmt.Sprintf("  2y1y Forward: %.2f%% (Market expects 1Y rate in 2Y)\n",
		s.ForwardRateOrZero(2, 3)))
	sb.WriteString(fmt.Sprintf("  5y5y Forward: %.2f%% (Market expects 5Y rate in 5Y)\n",
		s.ForwardRateOrZero(5, 10)))
	sb.WriteString(thinLine + "\n")

	// Economic indicators
	sb.WriteString("\n  ■ ECONOMIC INDICATORS\n")
	sb.WriteString(fmt.Sprintf("  Curve Shape:       %s\n", s.Shape()))
	sb.WriteString(fmt.Sprintf("  Recession Warning: %s\n", yesNo(s.RecessionWarning())))
	sb.WriteString(fmt.Sprintf("  Steepness:         %s\n", s.Steepness()))
	sb.WriteString(fmt.Sprintf("  Term Premium:      %.0f bps\n", s.TermPremium()*100))
	sb.WriteString(thinLine + "\n")

	// Rate risk
	sb.WriteString("\n  ■ INTEREST RATE RISK\n")
	writeRiskTable(&sb, s, cfg.CouponRate)

	sb.WriteString("\n" + line + "\n")
	return sb.String()
}

// writeRiskTable writes the benchmark-tenor risk rows shared by the
// full report and the advanced analysis.
func writeRiskTable(sb *strings.Builder, s *curve.Store, couponRate float64) {
	sb.WriteString(fmt.Sprintf("  %-6s %10s %12s %12s %12s\n",
		"Tenor", "Yield (%)", "Duration", "DV01 ($)", "Risk Level"))
	for _, rm := range riskMaturities {
		duration := s.Duration(rm.Years, couponRate)
		sb.WriteString(fmt.Sprintf("  %-6s %10.2f %12.1f %12.0f %12s\n",
			rm.Label, s.YieldAt(rm.Years), duration,
			s.DV01(rm.Years, couponRate), curve.RiskLevelFor(duration).Console()))
	}
}

// spreadMarker annotates the 2s10s spread, given in percentage points.
func spreadMarker(spread float64) string {
	switch {
	case spread < -0.2:
		return "[RECESSION WARNING]"
	case spread < 0:
		return "[INVERTED]"
	case spread < 0.5:
		return "[FLATTENING]"
	default:
		return "[NORMAL]"
	}
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
