package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"trail_catalog/internal/domain"
)

var csvHeader = []string{"title", "number", "activity_key", "multitrail", "length", "url", "gpx"}

// WriteTrailsCSV writes one row per trail to path, replacing any existing
// file, and returns the number of data rows written.
func WriteTrailsCSV(path string, trails []*domain.TrailItem) (n int, err error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create csv: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close csv: %w", cerr)
		}
	}()

	w := csv.NewWriter(f)
	w.UseCRLF = true
	if err := w.Write(csvHeader); err != nil {
		return 0, fmt.Errorf("write csv header: %w", err)
	}

	for _, trail := range trails {
		row, err := trail.Row()
		if err != nil {
			return n, fmt.Errorf("build csv row: %w", err)
		}
		if err := w.Write(csvRecord(row)); err != nil {
			return n, fmt.Errorf("write csv row: %w", err)
		}
		n++
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return n, fmt.Errorf("flush csv: %w", err)
	}

	return n, nil
}

func csvRecord(row domain.TrailRow) []string {
	return []string{
		row.Title,
		row.Number,
		row.ActivityKey,
		pyBool(row.MultiTrail),
		strconv.Itoa(row.Length),
		row.URL,
		row.GPXURL,
	}
}

// pyBool keeps the True/False spelling consumers of the CSV already expect.
func pyBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
