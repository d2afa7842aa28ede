package curve

import "fmt"

// Vocabulary is the ordered set of tenor columns a curve source emits:
// the labels in source column order and the maturity in years each
// label stands for. The vocabulary is injected into NewStore rather
// than baked into the engine, so one store type serves both the legacy
// six-tenor files and the full H.15 release.
type Vocabulary struct {
	Name   string
	Labels []string
	Years  map[string]float64
}

// LegacyVocabulary covers the six benchmark tenors of the older
// sample CSV layout.
var LegacyVocabulary = Vocabulary{
	Name:   "legacy",
	Labels: []string{"3MO", "6MO", "2Y", "5Y", "10Y", "30Y"},
	Years: map[string]float64{
		"3MO": 0.25,
		"6MO": 0.5,
		"2Y":  2,
		"5Y":  5,
		"10Y": 10,
		"30Y": 30,
	},
}

// H15Vocabulary matches the eleven Treasury constant-maturity columns
// of the Federal Reserve H.15 release, in CSV column order.
var H15Vocabulary = Vocabulary{
	Name: "h15",
	Labels: []string{
		"1MO", "3MO", "6MO", "1Y", "2Y", "3Y", "5Y", "7Y", "10Y", "20Y", "30Y",
	},
	Years: map[string]float64{
		"1MO": 1.0 / 12.0,
		"3MO": 0.25,
		"6MO": 0.5,
		"1Y":  1,
		"2Y":  2,
		"3Y":  3,
		"5Y":  5,
		"7Y":  7,
		"10Y": 10,
		"20Y": 20,
		"30Y": 30,
	},
}

// VocabularyByName resolves a configured vocabulary name.
func VocabularyByName(name string) (Vocabulary, error) {
	switch name {
	case "h15", "":
		return H15Vocabulary, nil
	case "legacy":
		return LegacyVocabulary, nil
	default:
		return Vocabulary{}, fmt.Errorf("unknown tenor vocabulary %q (want h15 or legacy)", name)
	}
}

// Has reports whether the vocabulary carries the given tenor label.
func (v Vocabulary) Has(label string) bool {
	_, ok := v.Years[label]
	return ok
}

// YearsFor returns the maturity in years for a tenor label.
func (v Vocabulary) YearsFor(label string) (float64, bool) {
	y, ok := v.Years[label]
	return y, ok
}
