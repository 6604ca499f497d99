package prices

import (
	"time"

	"github.com/amishk599/priceask/internal/model"
)

// Summary holds the extremes and mean of one day of prices.
type Summary struct {
	Count    int
	Cheapest model.PricePoint
	Dearest  model.PricePoint
	Average  float64 // NOK per kWh
}

// Summarize computes a Summary. ok is false for an empty day.
// Ties keep the earliest slot.
func Summarize(points []model.PricePoint) (s Summary, ok bool) {
	if len(points) == 0 {
		return Summary{}, false
	}
	s.Count = len(points)
	s.Cheapest = points[0]
	s.Dearest = points[0]
	var total float64
	for _, p := range points {
		total += p.NOKPerKWh
		if p.NOKPerKWh < s.Cheapest.NOKPerKWh {
			s.Cheapest = p
		}
		if p.NOKPerKWh > s.Dearest.NOKPerKWh {
			s.Dearest = p
		}
	}
	s.Average = total / float64(len(points))
	return s, true
}

// Current returns the slot whose [TimeStart, TimeEnd) contains now.
func Current(points []model.PricePoint, now time.Time) (model.PricePoint, bool) {
	for _, p := range points {
		if !now.Before(p.TimeStart) && now.Before(p.TimeEnd) {
			return p, true
		}
	}
	return model.PricePoint{}, false
}
