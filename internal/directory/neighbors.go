package directory

import (
	"sort"

	"github.com/noah-isme/run-directory-api/internal/models"
)

// Neighbors are the adjacent events of the same series.
type Neighbors struct {
	Prev *models.SeriesEventRef `json:"prev"`
	Next *models.SeriesEventRef `json:"next"`
}

// ComputeNeighbors orders a copy of events by (year, start date) and returns
// the entries either side of currentID. Unknown ids yield an empty result.
func ComputeNeighbors(events []models.SeriesEventRef, currentID string) Neighbors {
	sorted := append([]models.SeriesEventRef(nil), events...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Year != sorted[j].Year {
			return sorted[i].Year < sorted[j].Year
		}
		return sorted[i].DateStart.Before(sorted[j].DateStart)
	})

	for i := range sorted {
		if sorted[i].ID != currentID {
			continue
		}
		var out Neighbors
		if i > 0 {
			prev := sorted[i-1]
			out.Prev = &prev
		}
		if i < len(sorted)-1 {
			next := sorted[i+1]
			out.Next = &next
		}
		return out
	}
	return Neighbors{}
}
