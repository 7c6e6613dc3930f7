package domain

import (
	"fmt"
	"io"
)

// Report holds the per-activity trail counts printed after each run.
type Report struct {
	Trails          int `json:"trails"`
	MultiTrails     int `json:"multitrails"`
	Hiking          int `json:"hiking"`
	Bicycle         int `json:"bicycle"`
	Riding          int `json:"riding"`
	Running         int `json:"running"`
	WithoutActivity int `json:"without_activity"`
	WithActivity    int `json:"with_activity"`
	Unsupported     int `json:"unsupported_activity"`
}

// WriteTo prints the counts, one line each, in a fixed order.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	lines := []struct {
		label string
		count int
	}{
		{"number of Trail items", r.Trails},
		{"number of multitrail items", r.MultiTrails},
		{"number of hiking trail items", r.Hiking},
		{"number of bicycle trail items", r.Bicycle},
		{"number of riding trail items", r.Riding},
		{"number of running trail items", r.Running},
		{"number of trail items without activity", r.WithoutActivity},
		{"number of trail items with activity", r.WithActivity},
		{"number of trail items with unsupported activity", r.Unsupported},
	}

	var total int64
	for _, l := range lines {
		n, err := fmt.Fprintf(w, "%s: %d\n", l.label, l.count)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
