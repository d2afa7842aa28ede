package datasource

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/curvewatch/curvewatch/internal/curve"
	"github.com/curvewatch/curvewatch/internal/infra"
)

const treasuryGovBase = "https://home.treasury.gov"

// treasuryTenorLabels maps treasury.gov column headers to H.15 tenor
// labels. Columns without an H.15 slot (2 Mo, 4 Mo) are dropped.
var treasuryTenorLabels = map[string]string{
	"1 Mo":  "1MO",
	"3 Mo":  "3MO",
	"6 Mo":  "6MO",
	"1 Yr":  "1Y",
	"2 Yr":  "2Y",
	"3 Yr":  "3Y",
	"5 Yr":  "5Y",
	"7 Yr":  "7Y",
	"10 Yr": "10Y",
	"20 Yr": "20Y",
	"30 Yr": "30Y",
}

// TreasuryGov scrapes the daily par yield curve table published on
// treasury.gov. It serves as the fallback when the H.15 download is
// unavailable and emits a single row for the most recent date.
type TreasuryGov struct {
	baseURL string
	cache   *infra.Cache
	limiter *infra.RateLimiter
}

// NewTreasuryGov creates a treasury.gov scrape source.
func NewTreasuryGov(ttl time.Duration) *TreasuryGov {
	return &TreasuryGov{
		baseURL: treasuryGovBase,
		cache:   infra.NewCache(ttl),
		limiter: infra.NewRateLimiter(1, time.Second), // conservative: 1 req/s
	}
}

// Name returns the data source name.
func (t *TreasuryGov) Name() string { return "treasury.gov" }

// FetchCurve scrapes the current year's par yield table and returns the
// last published row, reordered into H.15 column order.
func (t *TreasuryGov) FetchCurve(ctx context.Context) (*CurveData, error) {
	const cacheKey = "treasurygov:curve"
	if cached, ok := t.cache.Get(cacheKey); ok {
		return cached.(*CurveData), nil
	}

	if err := t.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	u := fmt.Sprintf(
		"%s/resource-center/data-chart-center/interest-rates/TextView?type=daily_treasury_yield_curve&field_tdr_date_value=%d",
		t.baseURL, time.Now().Year())
	body, _, err := infra.DoGet(ctx, u, map[string]string{
		"Accept": "text/html",
	})
	if err != nil {
		return nil, fmt.Errorf("treasury.gov: %w", err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parse treasury.gov HTML: %w", err)
	}

	row, err := parseTreasuryTable(doc)
	if err != nil {
		return nil, err
	}

	data := &CurveData{Rows: [][]string{row}, Retrieved: time.Now()}
	t.cache.Set(cacheKey, data)
	return data, nil
}

// parseTreasuryTable reads the last body row of the par yield table and
// reorders its cells into H.15 vocabulary order. Tenors the page lacks
// stay empty so Store.Load skips them.
func parseTreasuryTable(doc *goquery.Document) ([]string, error) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, fmt.Errorf("treasury.gov: no data table found")
	}

	var headers []string
	table.Find("thead th").Each(func(_ int, th *goquery.Selection) {
		headers = append(headers, strings.TrimSpace(th.Text()))
	})
	if len(headers) == 0 {
		return nil, fmt.Errorf("treasury.gov: no table header found")
	}

	lastRow := table.Find("tbody tr").Last()
	if lastRow.Length() == 0 {
		return nil, fmt.Errorf("treasury.gov: %w", ErrNoData)
	}

	var date string
	byLabel := make(map[string]string)
	lastRow.Find("td").Each(func(i int, td *goquery.Selection) {
		if i >= len(headers) {
			return
		}
		text := strings.TrimSpace(td.Text())
		if i == 0 {
			date = text
			return
		}
		if label, ok := treasuryTenorLabels[headers[i]]; ok {
			byLabel[label] = text
		}
	})
	if date == "" {
		return nil, fmt.Errorf("treasury.gov: %w", ErrNoData)
	}

	row := make([]string, 0, len(curve.H15Vocabulary.Labels)+1)
	row = append(row, date)
	for _, label := range curve.H15Vocabulary.Labels {
		row = append(row, byLabel[label])
	}
	return row, nil
}
