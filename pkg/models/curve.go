package models

// --- Yield Curve / Export ---

// CurveExport is the JSON document produced for a loaded curve. Field
// names, the named spread/forward sets, and the indicator thresholds are
// the contract consumed by the dashboard and downstream tooling.
type CurveExport struct {
	Date               string             `json:"date"`
	DataSource         string             `json:"data_source,omitempty"`
	SourceURL          string             `json:"source_url,omitempty"`
	CurveShape         string             `json:"curve_shape"`
	YieldPoints        []ExportPoint      `json:"yield_points"`
	KeySpreads         KeySpreads         `json:"key_spreads"`
	ForwardRates       ForwardRates       `json:"forward_rates"`
	EconomicIndicators EconomicIndicators `json:"economic_indicators"`
}

// ExportPoint is one observation row in a CurveExport.
type ExportPoint struct {
	MaturityLabel string  `json:"maturity_label"`
	MaturityYears float64 `json:"maturity_years"`
	Yield         float64 `json:"yield"`
	Duration      float64 `json:"duration"`
}

// KeySpreads holds the named maturity spreads in basis points.
// Spread1m3m is only present when the curve carries a 1-month tenor.
type KeySpreads struct {
	Spread2s10s float64  `json:"2s10s_bps"`
	Spread3m10y float64  `json:"3m10y_bps"`
	Spread5s30s float64  `json:"5s30s_bps"`
	Spread1m3m  *float64 `json:"1m3m_bps,omitempty"`
}

// ForwardRates holds the named implied forward rates in percent.
// Fwd10y10y is only present when the curve carries a 20-year tenor.
type ForwardRates struct {
	Fwd1y1y   float64  `json:"1y1y"`
	Fwd2y1y   float64  `json:"2y1y"`
	Fwd5y5y   float64  `json:"5y5y"`
	Fwd10y10y *float64 `json:"10y10y,omitempty"`
}

// EconomicIndicators summarizes what the curve implies about the economy.
type EconomicIndicators struct {
	RecessionWarning bool    `json:"recession_warning"`
	CurveSteepness   string  `json:"curve_steepness"` // "steep", "inverted", "flat"
	TermPremiumBps   float64 `json:"term_premium_bps"`
}

// --- Yield Curve / Risk ---

// RiskLevel buckets interest-rate risk by duration.
type RiskLevel string

const (
	RiskLow      RiskLevel = "LOW"
	RiskModerate RiskLevel = "MODERATE"
	RiskHigh     RiskLevel = "HIGH"
	RiskVeryHigh RiskLevel = "VERY_HIGH"
)

// Console returns the spelling used in text reports ("VERY HIGH" rather
// than the CSV column's "VERY_HIGH").
func (r RiskLevel) Console() string {
	if r == RiskVeryHigh {
		return "VERY HIGH"
	}
	return string(r)
}
