package prices

import (
	"testing"
	"time"

	"github.com/amishk599/priceask/internal/model"
)

func TestAlign(t *testing.T) {
	a := NewSeries("NO1", time.Date(2026, 10, 18, 0, 0, 0, 0, Oslo), []model.PricePoint{hour(0, 0.40), hour(1, 0.10)})
	b := NewSeries("NO5", time.Date(2026, 10, 18, 0, 0, 0, 0, Oslo), []model.PricePoint{hour(1, 0.20), hour(2, 0.30)})

	rows := Align([]Series{a, b})

	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	want := []struct {
		slot    string
		prices  [2]float64
		present [2]bool
	}{
		{"00:00", [2]float64{0.40, 0}, [2]bool{true, false}},
		{"01:00", [2]float64{0.10, 0.20}, [2]bool{true, true}},
		{"02:00", [2]float64{0, 0.30}, [2]bool{false, true}},
	}
	for i, w := range want {
		r := rows[i]
		if r.Slot != w.slot {
			t.Errorf("row %d slot = %q, want %q", i, r.Slot, w.slot)
		}
		for j := 0; j < 2; j++ {
			if r.Present[j] != w.present[j] || r.Prices[j] != w.prices[j] {
				t.Errorf("row %d col %d = (%v, %v), want (%v, %v)", i, j, r.Prices[j], r.Present[j], w.prices[j], w.present[j])
			}
		}
	}
	if a.Label() != "NO1 2026-10-18" {
		t.Errorf("Label = %q", a.Label())
	}
}

func TestAlign_RepeatedDSTHour(t *testing.T) {
	// 2026-10-25: clocks go back at 03:00 CEST, so 02:00 occurs twice.
	first := time.Date(2026, 10, 25, 0, 0, 0, 0, time.UTC) // 02:00 CEST
	second := first.Add(time.Hour)                          // 02:00 CET
	s := NewSeries("NO1", time.Date(2026, 10, 25, 0, 0, 0, 0, Oslo), []model.PricePoint{
		{NOKPerKWh: 0.5, TimeStart: first, TimeEnd: second},
		{NOKPerKWh: 0.6, TimeStart: second, TimeEnd: second.Add(time.Hour)},
	})

	rows := Align([]Series{s})
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Slot != "02:00" || rows[1].Slot != "02:00+" {
		t.Errorf("slots = %q, %q", rows[0].Slot, rows[1].Slot)
	}
	if rows[1].Prices[0] != 0.6 {
		t.Errorf("second 02:00 = %v, want 0.6", rows[1].Prices[0])
	}
}

func TestAlign_Empty(t *testing.T) {
	if rows := Align(nil); len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}
