package datasource

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/curvewatch/curvewatch/internal/infra"
)

const fedBoardBase = "https://www.federalreserve.gov"

// fedHeaders asks the Fed Board download endpoint for CSV.
var fedHeaders = map[string]string{
	"Accept":          "text/csv, */*",
	"Accept-Language": "en-US,en;q=0.9",
}

// FedH15 downloads Treasury constant-maturity yields from the Federal
// Reserve H.15 release. This is the primary live source; its CSV columns
// match the H.15 tenor vocabulary one to one.
type FedH15 struct {
	baseURL string
	cache   *infra.Cache
	limiter *infra.RateLimiter
}

// NewFedH15 creates an H.15 source. ttl bounds how long a downloaded
// release is reused before refetching.
func NewFedH15(ttl time.Duration) *FedH15 {
	return &FedH15{
		baseURL: fedBoardBase,
		cache:   infra.NewCache(ttl),
		limiter: infra.NewRateLimiter(2, time.Second),
	}
}

// Name returns the data source name.
func (f *FedH15) Name() string { return "Federal Reserve H.15" }

// FetchCurve downloads and parses the H.15 CSV. Rows keep the release's
// column order: date, then the eleven constant-maturity tenors.
func (f *FedH15) FetchCurve(ctx context.Context) (*CurveData, error) {
	const cacheKey = "h15:curve"
	if cached, ok := f.cache.Get(cacheKey); ok {
		return cached.(*CurveData), nil
	}

	if err := f.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	// The download prepends 5 rows of series metadata before the header.
	records, err := fetchFedCSV(ctx, buildH15URL(f.baseURL), 5)
	if err != nil {
		return nil, fmt.Errorf("h15 download: %w", err)
	}

	rows := filterH15Records(records)
	if len(rows) == 0 {
		return nil, fmt.Errorf("h15 download: %w", ErrNoData)
	}

	data := &CurveData{Rows: rows, Retrieved: time.Now()}
	f.cache.Set(cacheKey, data)
	return data, nil
}

// filterH15Records keeps observation rows: a date first field followed
// by the 11 tenor columns. Metadata and description rows are dropped.
func filterH15Records(records [][]string) [][]string {
	var rows [][]string
	for _, row := range records {
		if len(row) < 12 {
			continue
		}
		date := strings.TrimSpace(row[0])
		if date == "" || date == "Series Description:" || !isDateLike(date) {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// buildH15URL builds a Fed Board H.15 CSV download URL.
func buildH15URL(base string) string {
	v := url.Values{}
	v.Set("rel", "H15")
	v.Set("series", "bf17364827e38702b42a58cf8eaa3f78")
	v.Set("lastobs", "")
	v.Set("from", "")
	v.Set("to", "")
	v.Set("filetype", "csv")
	v.Set("label", "include")
	v.Set("layout", "seriescolumn")
	v.Set("type", "package")
	return base + "/datadownload/Output.aspx?" + v.Encode()
}

// fetchFedCSV fetches a Fed Board CSV endpoint, skips skipRows header rows,
// and returns parsed CSV records.
func fetchFedCSV(ctx context.Context, u string, skipRows int) ([][]string, error) {
	body, _, err := infra.DoGet(ctx, u, fedHeaders)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}

	lines := strings.Split(string(raw), "\n")
	if len(lines) <= skipRows {
		return nil, fmt.Errorf("fed csv: too few lines (%d, expected >%d)", len(lines), skipRows)
	}

	reader := csv.NewReader(strings.NewReader(strings.Join(lines[skipRows:], "\n")))
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // variable fields

	return reader.ReadAll()
}
