package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/curvewatch/curvewatch/internal/curve"
)

// ════════════════════════════════════════════════════════════════════
// Quick market summary
// ════════════════════════════════════════════════════════════════════

// GenerateSummary renders the quick market summary: key benchmark
// rates, the 2s10s spread with its alert marker, and the curve shape.
func GenerateSummary(s *curve.Store) string {
	var sb strings.Builder
	thinLine := strings.Repeat("─", 62)

	sb.WriteString("\n  ■ QUICK MARKET SUMMARY\n")
	sb.WriteString(thinLine + "\n")

	if s == nil || s.Len() == 0 {
		sb.WriteString("  No curve data loaded.\n")
		return sb.String()
	}

	sb.WriteString("  Key Rates:\n")
	sb.WriteString(fmt.Sprintf("    3M:  %.2f%%\n", s.YieldAt(0.25)))
	sb.WriteString(fmt.Sprintf("    2Y:  %.2f%%\n", s.YieldAt(2)))
	sb.WriteString(fmt.Sprintf("    10Y: %.2f%%\n", s.YieldAt(10)))
	sb.WriteString(fmt.Sprintf("    30Y: %.2f%%\n", s.YieldAt(30)))

	spreadBps := s.Spread(2, 10) * 100
	sb.WriteString(fmt.Sprintf("\n  2s10s Spread: %.0f bps %s\n", spreadBps, summaryMarker(spreadBps)))
	sb.WriteString(fmt.Sprintf("  Shape: %s\n", s.Shape()))
	return sb.String()
}

// summaryMarker annotates the 2s10s spread, given in basis points.
func summaryMarker(bps float64) string {
	switch {
	case bps < -20:
		return "[RECESSION ALERT]"
	case bps < 0:
		return "[INVERTED]"
	default:
		return "[NORMAL]"
	}
}

// ════════════════════════════════════════════════════════════════════
// Advanced market analysis
// ════════════════════════════════════════════════════════════════════

// GenerateAdvanced renders the advanced market analysis: current
// conditions, interest-rate risk and monetary policy implications.
func GenerateAdvanced(s *curve.Store, cfg Config) string {
	cfg = cfg.normalize()

	var sb strings.Builder
	line := strings.Repeat("═", 62)
	thinLine := strings.Repeat("─", 62)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString("  ADVANCED TREASURY MARKET ANALYSIS\n")
	sb.WriteString(line + "\n")

	if s == nil || s.Len() == 0 {
		sb.WriteString("\n  No curve data loaded.\n")
		sb.WriteString(line + "\n")
		return sb.String()
	}

	writeMarketConditions(&sb, s, thinLine)
	writeRateRisk(&sb, s, cfg, thinLine)
	writePolicyImplications(&sb, s, thinLine)

	sb.WriteString("\n" + line + "\n")
	return sb.String()
}

func writeMarketConditions(sb *strings.Builder, s *curve.Store, thinLine string) {
	sb.WriteString("\n  ■ CURRENT MARKET CONDITIONS\n")
	sb.WriteString(fmt.Sprintf("  Policy Rate (1M):  %.2f%%\n", s.YieldAt(1.0/12.0)))
	sb.WriteString(fmt.Sprintf("  Short Rate (3M):   %.2f%%\n", s.YieldAt(0.25)))
	sb.WriteString(fmt.Sprintf("  Benchmark (10Y):   %.2f%%\n", s.YieldAt(10)))
	sb.WriteString(fmt.Sprintf("  Long Rate (30Y):   %.2f%%\n", s.YieldAt(30)))

	headline, detail := slopeInterpretation(s.Spread(0.25, 10))
	sb.WriteString(fmt.Sprintf("\n  Market Interpretation: %s\n", headline))
	sb.WriteString(fmt.Sprintf("  %s\n", detail))

	shortVol := math.Abs(s.YieldAt(0.25)-s.YieldAt(1)) * 100
	longVol := math.Abs(s.YieldAt(10)-s.YieldAt(30)) * 100
	sb.WriteString(fmt.Sprintf("\n  Short-end spread (3M-1Y):  %.0f bps\n", shortVol))
	sb.WriteString(fmt.Sprintf("  Long-end spread (10Y-30Y): %.0f bps\n", longVol))
	sb.WriteString(thinLine + "\n")
}

func writeRateRisk(sb *strings.Builder, s *curve.Store, cfg Config, thinLine string) {
	sb.WriteString("\n  ■ INTEREST RATE RISK ANALYSIS\n")
	writeRiskTable(sb, s, cfg.CouponRate)
	sb.WriteString("\n  Portfolio Implications:\n")
	sb.WriteString("  - Short-term bonds: lower risk, rate-sensitive positioning\n")
	sb.WriteString("  - Long-term bonds: higher risk, duration exposure\n")
	sb.WriteString("  - Barbell strategy: combine short and long maturities\n")
	sb.WriteString(thinLine + "\n")
}

func writePolicyImplications(sb *strings.Builder, s *curve.Store, thinLine string) {
	sb.WriteString("\n  ■ MONETARY POLICY IMPLICATIONS\n")

	near := s.ForwardRateOrZero(0.25, 1.25)
	medium := s.ForwardRateOrZero(1, 3)
	long := s.ForwardRateOrZero(5, 10)

	sb.WriteString("  Market Expectations (Forward Rates):\n")
	sb.WriteString(fmt.Sprintf("    Near-term (3M-15M):  %.2f%%\n", near))
	sb.WriteString(fmt.Sprintf("    Medium-term (1Y-3Y): %.2f%%\n", medium))
	sb.WriteString(fmt.Sprintf("    Long-term (5Y-10Y):  %.2f%%\n", long))

	headline, detail := policyOutlook(near, s.YieldAt(0.25))
	sb.WriteString(fmt.Sprintf("\n  Policy Outlook: %s\n", headline))
	sb.WriteString(fmt.Sprintf("  %s\n", detail))

	premium := s.TermPremium()
	sb.WriteString(fmt.Sprintf("\n  Term Premium: %.0f bps, %s\n",
		premium*100, premiumInterpretation(premium)))
	sb.WriteString(thinLine + "\n")
}

// slopeInterpretation buckets the 3m10y slope, given in percentage
// points.
func slopeInterpretation(slope float64) (string, string) {
	switch {
	case slope < -0.5:
		return "DEEPLY INVERTED", "Markets pricing aggressive rate cuts ahead"
	case slope < 0:
		return "INVERTED", "Potential policy reversal expected"
	case slope < 0.5:
		return "FLAT", "Balanced growth and inflation expectations"
	case slope > 2.0:
		return "VERY STEEP", "Strong growth and inflation expectations"
	default:
		return "NORMAL", "Healthy economic expectations"
	}
}

// policyOutlook compares the near forward against the current short
// rate: a forward well below spot means the market prices cuts.
func policyOutlook(nearForward, shortRate float64) (string, string) {
	switch {
	case nearForward < shortRate-0.5:
		return "Markets expect AGGRESSIVE rate cuts", "Economic stress or recession fears"
	case nearForward < shortRate-0.1:
		return "Markets expect MODEST rate cuts", "Policy easing cycle anticipated"
	case nearForward > shortRate+0.1:
		return "Markets expect rate INCREASES", "Inflation concerns driving policy"
	default:
		return "Markets expect STABLE rates", "Current policy stance appropriate"
	}
}

// premiumInterpretation buckets the 10s30s premium, given in
// percentage points.
func premiumInterpretation(premium float64) string {
	switch {
	case premium < 0.2:
		return "LOW (minimal long-term risk compensation)"
	case premium > 0.8:
		return "HIGH (significant long-term uncertainty)"
	default:
		return "NORMAL (balanced long-term expectations)"
	}
}
