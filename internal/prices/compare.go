package prices

import (
	"sort"
	"time"

	"github.com/amishk599/priceask/internal/model"
)

// Series is one day of prices for one bidding zone.
type Series struct {
	Region string             `json:"region"`
	Date   time.Time          `json:"-"`
	Day    string             `json:"date"`
	Points []model.PricePoint `json:"prices"`
}

// NewSeries builds a Series for date and region.
func NewSeries(region string, date time.Time, points []model.PricePoint) Series {
	return Series{Region: region, Date: date, Day: model.DateKey(date), Points: points}
}

// Label is "<region> <YYYY-MM-DD>".
func (s Series) Label() string { return s.Region + " " + s.Day }

// Row is one wall-clock slot across several series. Present[i] is false
// when series i has no slot starting at that time.
type Row struct {
	Slot    string
	Starts  []time.Time
	Prices  []float64
	Present []bool
}

// Align lines series up by slot start in Oslo wall-clock time so days and
// regions can be read side by side. On the autumn DST day the repeated
// hour is keyed with a trailing "+" so both slots are kept.
func Align(series []Series) []Row {
	index := make(map[string]*Row)
	for i, s := range series {
		seen := make(map[string]bool)
		for _, p := range s.Points {
			slot := p.TimeStart.In(Oslo).Format("15:04")
			for seen[slot] {
				slot += "+"
			}
			seen[slot] = true

			row, ok := index[slot]
			if !ok {
				row = &Row{
					Slot:    slot,
					Starts:  make([]time.Time, len(series)),
					Prices:  make([]float64, len(series)),
					Present: make([]bool, len(series)),
				}
				index[slot] = row
			}
			row.Starts[i] = p.TimeStart
			row.Prices[i] = p.NOKPerKWh
			row.Present[i] = true
		}
	}

	rows := make([]Row, 0, len(index))
	for _, r := range index {
		rows = append(rows, *r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Slot < rows[j].Slot })
	return rows
}
