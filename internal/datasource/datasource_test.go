package datasource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/curvewatch/curvewatch/pkg/models"
)

// stubSource is a Source backed by canned data for aggregator tests.
type stubSource struct {
	name  string
	data  *CurveData
	err   error
	calls int
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) FetchCurve(_ context.Context) (*CurveData, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.data, nil
}

func curveRows(rows ...[]string) *CurveData {
	return &CurveData{Rows: rows, Retrieved: time.Now()}
}

func TestIsDateLike(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"2024-02-01", true},
		{"20240201", true},
		{"Time Period", false},
		{"Series Description:", false},
		{"", false},
		{"20", false},
		{"01/02/2024", false},
	}
	for _, tt := range tests {
		if got := isDateLike(tt.in); got != tt.want {
			t.Errorf("isDateLike(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// ── File source ──

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "yields.csv")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp csv: %v", err)
	}
	return path
}

func TestFileFetchCurveSkipsHeader(t *testing.T) {
	path := writeTempCSV(t, "Date,3 Mo,6 Mo,2 Yr,5 Yr,10 Yr,30 Yr\n"+
		"2024-02-01,5.40,5.30,4.50,4.30,4.20,4.45\n"+
		"2024-02-02,5.41,5.31,4.52,4.32,4.22,4.47\n")

	src := NewFile(path)
	data, err := src.FetchCurve(context.Background())
	if err != nil {
		t.Fatalf("FetchCurve() error: %v", err)
	}
	if len(data.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(data.Rows))
	}
	if data.Rows[0][0] != "2024-02-01" {
		t.Errorf("first row date = %q, want %q", data.Rows[0][0], "2024-02-01")
	}
	if data.Rows[1][6] != "4.47" {
		t.Errorf("last field = %q, want %q", data.Rows[1][6], "4.47")
	}
}

func TestFileFetchCurveNoHeader(t *testing.T) {
	path := writeTempCSV(t, "2024-02-01,5.40,5.30,4.50,4.30,4.20,4.45\n")

	src := NewFile(path)
	data, err := src.FetchCurve(context.Background())
	if err != nil {
		t.Fatalf("FetchCurve() error: %v", err)
	}
	if len(data.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(data.Rows))
	}
}

func TestFileFetchCurveMissingFile(t *testing.T) {
	src := NewFile("/nonexistent/yields.csv")
	if _, err := src.FetchCurve(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFileFetchCurveHeaderOnly(t *testing.T) {
	path := writeTempCSV(t, "Date,3 Mo,6 Mo,2 Yr,5 Yr,10 Yr,30 Yr\n")

	src := NewFile(path)
	_, err := src.FetchCurve(context.Background())
	if !errors.Is(err, ErrNoData) {
		t.Errorf("error = %v, want ErrNoData", err)
	}
}

func TestFileName(t *testing.T) {
	src := NewFile("testdata/yields.csv")
	if src.Name() != "file:testdata/yields.csv" {
		t.Errorf("Name() = %q", src.Name())
	}
}

// ── H.15 source ──

// h15Fixture mimics the Fed Board download: five metadata lines, the
// column header, then observation rows.
const h15Fixture = `"Series Description","1-month","3-month","6-month","1-year","2-year","3-year","5-year","7-year","10-year","20-year","30-year"
"Unit:","Percent","Percent","Percent","Percent","Percent","Percent","Percent","Percent","Percent","Percent","Percent"
"Multiplier:","1","1","1","1","1","1","1","1","1","1","1"
"Currency:","NA","NA","NA","NA","NA","NA","NA","NA","NA","NA","NA"
"Unique Identifier:","a","b","c","d","e","f","g","h","i","j","k"
"Time Period","RIFLGFCM01_N.B","RIFLGFCM03_N.B","RIFLGFCM06_N.B","RIFLGFCY01_N.B","RIFLGFCY02_N.B","RIFLGFCY03_N.B","RIFLGFCY05_N.B","RIFLGFCY07_N.B","RIFLGFCY10_N.B","RIFLGFCY20_N.B","RIFLGFCY30_N.B"
2024-02-01,5.47,5.40,5.30,4.80,4.50,4.40,4.30,4.25,4.20,4.51,4.45
2024-02-02,5.46,ND,5.28,4.78,4.48,4.38,4.28,4.23,4.18,4.49,4.43
`

func TestFilterH15Records(t *testing.T) {
	records := [][]string{
		{"Time Period", "a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"},
		{"Series Description:", "a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"},
		{"", "a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"},
		{"2024-02-01", "5.47"}, // too few fields
		{"2024-02-01", "5.47", "5.40", "5.30", "4.80", "4.50", "4.40", "4.30", "4.25", "4.20", "4.51", "4.45"},
		{"2024-02-02", "ND", "ND", "ND", "ND", "ND", "ND", "ND", "ND", "ND", "ND", "ND"},
	}

	rows := filterH15Records(records)
	if len(rows) != 2 {
		t.Fatalf("kept %d rows, want 2", len(rows))
	}
	if rows[0][0] != "2024-02-01" || rows[1][0] != "2024-02-02" {
		t.Errorf("unexpected rows: %v", rows)
	}
}

func TestBuildH15URL(t *testing.T) {
	u := buildH15URL(fedBoardBase)
	if !strings.HasPrefix(u, "https://www.federalreserve.gov/datadownload/Output.aspx?") {
		t.Errorf("unexpected URL prefix: %s", u)
	}
	for _, want := range []string{"rel=H15", "filetype=csv", "layout=seriescolumn", "series=bf17364827e38702b42a58cf8eaa3f78"} {
		if !strings.Contains(u, want) {
			t.Errorf("URL missing %q: %s", want, u)
		}
	}
}

func TestFedH15FetchCurve(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/csv")
		w.Write([]byte(h15Fixture))
	}))
	defer srv.Close()

	src := NewFedH15(time.Minute)
	src.baseURL = srv.URL

	data, err := src.FetchCurve(context.Background())
	if err != nil {
		t.Fatalf("FetchCurve() error: %v", err)
	}
	if len(data.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(data.Rows))
	}
	if data.Rows[0][0] != "2024-02-01" {
		t.Errorf("first row date = %q", data.Rows[0][0])
	}
	if data.Rows[0][1] != "5.47" {
		t.Errorf("1MO field = %q, want %q", data.Rows[0][1], "5.47")
	}
	if data.Rows[1][2] != "ND" {
		t.Errorf("ND field = %q, want passthrough", data.Rows[1][2])
	}

	// Second fetch is served from cache.
	if _, err := src.FetchCurve(context.Background()); err != nil {
		t.Fatalf("cached FetchCurve() error: %v", err)
	}
	if hits != 1 {
		t.Errorf("server hits = %d, want 1 (cache miss only)", hits)
	}
}

func TestFedH15FetchCurveHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down for maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewFedH15(time.Minute)
	src.baseURL = srv.URL

	if _, err := src.FetchCurve(context.Background()); err == nil {
		t.Error("expected error for HTTP 503")
	}
}

func TestFedH15Name(t *testing.T) {
	if got := NewFedH15(time.Minute).Name(); got != "Federal Reserve H.15" {
		t.Errorf("Name() = %q", got)
	}
}

// ── treasury.gov source ──

const treasuryFixture = `<html><body>
<table class="usa-table views-table">
<thead><tr>
<th>Date</th><th>1 Mo</th><th>2 Mo</th><th>3 Mo</th><th>6 Mo</th><th>1 Yr</th><th>2 Yr</th><th>3 Yr</th><th>5 Yr</th><th>7 Yr</th><th>10 Yr</th><th>20 Yr</th><th>30 Yr</th>
</tr></thead>
<tbody>
<tr><td>01/02/2024</td><td>5.55</td><td>5.54</td><td>5.46</td><td>5.26</td><td>4.80</td><td>4.33</td><td>4.09</td><td>3.93</td><td>3.95</td><td>3.95</td><td>4.25</td><td>4.08</td></tr>
<tr><td>01/03/2024</td><td>5.53</td><td>5.52</td><td>5.45</td><td>5.24</td><td>4.77</td><td>4.33</td><td>4.11</td><td>3.93</td><td>3.94</td><td>3.91</td><td>4.22</td><td>4.05</td></tr>
</tbody>
</table>
</body></html>`

func TestParseTreasuryTable(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(treasuryFixture))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	row, err := parseTreasuryTable(doc)
	if err != nil {
		t.Fatalf("parseTreasuryTable() error: %v", err)
	}

	// Last body row, reordered into H.15 column order, 2 Mo dropped.
	want := []string{"01/03/2024", "5.53", "5.45", "5.24", "4.77", "4.33", "4.11", "3.93", "3.94", "3.91", "4.22", "4.05"}
	if len(row) != len(want) {
		t.Fatalf("row length = %d, want %d", len(row), len(want))
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[%d] = %q, want %q", i, row[i], want[i])
		}
	}
}

func TestParseTreasuryTableMissingTenor(t *testing.T) {
	// Page without a 20 Yr column: that slot stays empty.
	html := `<html><body><table>
<thead><tr><th>Date</th><th>1 Mo</th><th>3 Mo</th><th>6 Mo</th><th>1 Yr</th><th>2 Yr</th><th>3 Yr</th><th>5 Yr</th><th>7 Yr</th><th>10 Yr</th><th>30 Yr</th></tr></thead>
<tbody><tr><td>01/03/2024</td><td>5.53</td><td>5.45</td><td>5.24</td><td>4.77</td><td>4.33</td><td>4.11</td><td>3.93</td><td>3.94</td><td>3.91</td><td>4.05</td></tr></tbody>
</table></body></html>`
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}

	row, err := parseTreasuryTable(doc)
	if err != nil {
		t.Fatalf("parseTreasuryTable() error: %v", err)
	}
	if row[10] != "" {
		t.Errorf("20Y slot = %q, want empty", row[10])
	}
	if row[11] != "4.05" {
		t.Errorf("30Y slot = %q, want %q", row[11], "4.05")
	}
}

func TestParseTreasuryTableNoTable(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><body><p>no data</p></body></html>"))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	if _, err := parseTreasuryTable(doc); err == nil {
		t.Error("expected error for page without table")
	}
}

func TestTreasuryGovFetchCurve(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(treasuryFixture))
	}))
	defer srv.Close()

	src := NewTreasuryGov(time.Minute)
	src.baseURL = srv.URL

	data, err := src.FetchCurve(context.Background())
	if err != nil {
		t.Fatalf("FetchCurve() error: %v", err)
	}
	if len(data.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(data.Rows))
	}
	if data.Rows[0][0] != "01/03/2024" {
		t.Errorf("date = %q, want most recent row", data.Rows[0][0])
	}
}

func TestTreasuryGovName(t *testing.T) {
	if got := NewTreasuryGov(time.Minute).Name(); got != "treasury.gov" {
		t.Errorf("Name() = %q", got)
	}
}

// ── Aggregator ──

func TestAggregatorPrimaryWins(t *testing.T) {
	primary := &stubSource{name: "primary", data: curveRows([]string{"2024-02-01", "5.40"})}
	fallback := &stubSource{name: "fallback", data: curveRows([]string{"2024-01-01", "9.99"})}
	agg := NewAggregatorWithSources(primary, fallback, NewNewsWithSources(nil), zap.NewNop())

	data, err := agg.FetchCurve(context.Background())
	if err != nil {
		t.Fatalf("FetchCurve() error: %v", err)
	}
	if data.Rows[0][0] != "2024-02-01" {
		t.Errorf("got row from %q source", data.Rows[0][0])
	}
	if fallback.calls != 0 {
		t.Errorf("fallback called %d times, want 0", fallback.calls)
	}
}

func TestAggregatorFallsBack(t *testing.T) {
	primary := &stubSource{name: "primary", err: errors.New("boom")}
	fallback := &stubSource{name: "fallback", data: curveRows([]string{"2024-01-01", "4.20"})}
	agg := NewAggregatorWithSources(primary, fallback, NewNewsWithSources(nil), zap.NewNop())

	data, err := agg.FetchCurve(context.Background())
	if err != nil {
		t.Fatalf("FetchCurve() error: %v", err)
	}
	if data.Rows[0][0] != "2024-01-01" {
		t.Errorf("expected fallback row, got %v", data.Rows[0])
	}
	if fallback.calls != 1 {
		t.Errorf("fallback called %d times, want 1", fallback.calls)
	}
}

func TestAggregatorEmptyPrimaryFallsBack(t *testing.T) {
	primary := &stubSource{name: "primary", data: curveRows()}
	fallback := &stubSource{name: "fallback", data: curveRows([]string{"2024-01-01", "4.20"})}
	agg := NewAggregatorWithSources(primary, fallback, NewNewsWithSources(nil), zap.NewNop())

	data, err := agg.FetchCurve(context.Background())
	if err != nil {
		t.Fatalf("FetchCurve() error: %v", err)
	}
	if len(data.Rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(data.Rows))
	}
}

func TestAggregatorAllFail(t *testing.T) {
	primary := &stubSource{name: "primary", err: errors.New("primary down")}
	fallback := &stubSource{name: "fallback", err: errors.New("fallback down")}
	agg := NewAggregatorWithSources(primary, fallback, NewNewsWithSources(nil), zap.NewNop())

	_, err := agg.FetchCurve(context.Background())
	if err == nil {
		t.Fatal("expected error when all sources fail")
	}
	if !strings.Contains(err.Error(), "primary down") || !strings.Contains(err.Error(), "fallback down") {
		t.Errorf("joined error missing causes: %v", err)
	}
}

func TestAggregatorNoFallback(t *testing.T) {
	primary := &stubSource{name: "primary", err: errors.New("primary down")}
	agg := NewAggregatorWithSources(primary, nil, NewNewsWithSources(nil), zap.NewNop())

	if _, err := agg.FetchCurve(context.Background()); err == nil {
		t.Fatal("expected error with no fallback configured")
	}
}

func TestFetchAll(t *testing.T) {
	primary := &stubSource{name: "primary", data: curveRows([]string{"2024-02-01", "5.40"})}
	agg := NewAggregatorWithSources(primary, nil, NewNewsWithSources(nil), zap.NewNop())

	w, err := agg.FetchAll(context.Background(), 5)
	if err != nil {
		t.Fatalf("FetchAll() error: %v", err)
	}
	if w.Curve == nil {
		t.Fatal("Warmup.Curve is nil")
	}
	if len(w.Curve.Rows) != 1 {
		t.Errorf("curve rows = %d, want 1", len(w.Curve.Rows))
	}
	// An empty feed list yields no articles and no error.
	if len(w.News) != 0 {
		t.Errorf("news = %d articles, want 0", len(w.News))
	}
}

func TestFetchAllCurveFailure(t *testing.T) {
	primary := &stubSource{name: "primary", err: errors.New("boom")}
	agg := NewAggregatorWithSources(primary, nil, NewNewsWithSources(nil), zap.NewNop())

	if _, err := agg.FetchAll(context.Background(), 5); err == nil {
		t.Fatal("expected error when the curve cannot be fetched")
	}
}

// ── News helpers ──

func TestCleanHTML(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"<p>Rates held <b>steady</b></p>", "Rates held steady"},
		{"plain text", "plain text"},
		{"", ""},
		{"<div><a href='#'>statement</a> and minutes</div>", "statement and minutes"},
	}
	for _, tt := range tests {
		got := cleanHTML(tt.input)
		if got != tt.want {
			t.Errorf("cleanHTML(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSortArticlesByDate(t *testing.T) {
	now := time.Now()
	articles := []models.NewsArticle{
		{Title: "old", PublishedAt: now.Add(-2 * time.Hour)},
		{Title: "newest", PublishedAt: now},
		{Title: "mid", PublishedAt: now.Add(-1 * time.Hour)},
	}
	sortArticlesByDate(articles)
	if articles[0].Title != "newest" {
		t.Errorf("first article = %q, want %q", articles[0].Title, "newest")
	}
	if articles[2].Title != "old" {
		t.Errorf("last article = %q, want %q", articles[2].Title, "old")
	}
}

func TestNewsName(t *testing.T) {
	if got := NewNews().Name(); got != "Official Rates News" {
		t.Errorf("Name() = %q", got)
	}
}
