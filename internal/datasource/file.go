package datasource

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"time"
)

// File reads curve rows from a local CSV file. Used for fixtures,
// offline analysis, and replaying saved H.15 downloads.
type File struct {
	path string
}

// NewFile creates a file source for the given CSV path.
func NewFile(path string) *File { return &File{path: path} }

// Name returns the data source name.
func (f *File) Name() string { return "file:" + f.path }

// FetchCurve reads and parses the CSV. A leading header row, detected
// by a non-date first field, is skipped.
func (f *File) FetchCurve(_ context.Context) (*CurveData, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open curve file: %w", err)
	}
	defer fh.Close()

	reader := csv.NewReader(fh)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse curve file %s: %w", f.path, err)
	}

	if len(records) > 0 && !isDateLike(records[0][0]) {
		records = records[1:]
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: %w", f.path, ErrNoData)
	}

	return &CurveData{Rows: records, Retrieved: time.Now()}, nil
}
