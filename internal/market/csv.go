package market

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"
)

// csvDateLayouts are the timestamp formats accepted in data files.
var csvDateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05"}

// LoadCSV reads a two-column (date,value) CSV file into a Series. A
// header row is skipped when the first value cell does not parse as a
// number.
func LoadCSV(path string) (*Series, error) {
	f, err := os.Open(path) // #nosec G304 -- path is an operator-provided data file
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}
	defer func() { _ = f.Close() }()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	points := make([]Point, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("%s: row %d has %d columns, want 2", path, i+1, len(row))
		}
		value, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			if i == 0 {
				continue // header
			}
			return nil, fmt.Errorf("%s: row %d: bad value %q: %w", path, i+1, row[1], err)
		}
		date, err := parseCSVDate(row[0])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: %w", path, i+1, err)
		}
		points = append(points, Point{Date: date, Value: value})
	}

	if len(points) == 0 {
		return nil, fmt.Errorf("%s: no data rows", path)
	}
	return NewSeries(points), nil
}

func parseCSVDate(s string) (time.Time, error) {
	for _, layout := range csvDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad date %q", s)
}
