package directory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/run-directory-api/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func listing(name, location string, start time.Time) models.EventListing {
	return models.EventListing{SeriesName: name, Location: location, DateStart: start, Year: start.Year(), IsPublished: true}
}

func TestBuildFilter(t *testing.T) {
	f, err := BuildFilter("", "  jakarta ", date(2025, 6, 1).Add(15*time.Hour), 2025)
	require.NoError(t, err)
	assert.Equal(t, ModeUpcoming, f.Mode)
	assert.Equal(t, "jakarta", f.Search)
	assert.Equal(t, "2025-06-01", f.TodayString())
	assert.False(t, f.Descending())

	f, err = BuildFilter("FINISHED", "", date(2025, 6, 1), 2025)
	require.NoError(t, err)
	assert.True(t, f.Descending())

	_, err = BuildFilter("past", "", date(2025, 6, 1), 2025)
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestFilterTemporalModes(t *testing.T) {
	today := date(2025, 6, 1)
	past := listing("Bali Marathon", "Gianyar", date(2025, 5, 31))
	onToday := listing("Bandung Run", "Bandung", today)
	lastYear := listing("Jakarta Marathon", "Jakarta", date(2024, 10, 20))

	upcoming, _ := BuildFilter("upcoming", "", today, 2025)
	finished, _ := BuildFilter("finished", "", today, 2025)
	thisYear, _ := BuildFilter("this_year", "", today, 2025)
	all, _ := BuildFilter("all", "", today, 2025)

	assert.False(t, upcoming.Matches(past))
	assert.True(t, upcoming.Matches(onToday))
	assert.True(t, finished.Matches(past))
	assert.False(t, finished.Matches(onToday))
	assert.True(t, thisYear.Matches(past))
	assert.False(t, thisYear.Matches(lastYear))
	assert.True(t, all.Matches(lastYear))

	unpublished := onToday
	unpublished.IsPublished = false
	assert.False(t, all.Matches(unpublished))
}

func TestFilterSearch(t *testing.T) {
	f, _ := BuildFilter("all", "MAGEL", date(2025, 6, 1), 2025)
	assert.True(t, f.Matches(listing("Borobudur Marathon", "Magelang", date(2025, 11, 16))))
	assert.False(t, f.Matches(listing("Bali Marathon", "Gianyar", date(2025, 8, 31))))

	cleared := f.WithMode(ModeUpcoming)
	assert.Empty(t, cleared.Search)
	assert.Equal(t, ModeUpcoming, cleared.Mode)
}

func TestSummarizeDistances(t *testing.T) {
	assert.Equal(t, "N/A", SummarizeDistances(nil))
	assert.Equal(t, "N/A", SummarizeDistances([]float64{0}))
	assert.Equal(t, "10 km", SummarizeDistances([]float64{10, 10}))
	assert.Equal(t, "5 - 42.195 km", SummarizeDistances([]float64{42.195, 5, 21.0975, 0}))
}

func TestJoinDistanceNames(t *testing.T) {
	assert.Equal(t, NoDistanceLabel, JoinDistanceNames(nil))
	assert.Equal(t, "10K, Half Marathon", JoinDistanceNames([]string{"10K", "Half Marathon"}))
}

func TestFormatDateRange(t *testing.T) {
	start := date(2025, 6, 14)
	sameMonth := date(2025, 6, 15)
	nextMonth := date(2025, 7, 1)

	assert.Equal(t, "14 Juni 2025", FormatDateRange(start, nil))
	assert.Equal(t, "14 - 15 Juni 2025", FormatDateRange(start, &sameMonth))
	assert.Equal(t, "14 Juni 2025 - 1 Juli 2025", FormatDateRange(start, &nextMonth))
}

func TestComputeNeighbors(t *testing.T) {
	events := []models.SeriesEventRef{
		{ID: "2025", Year: 2025, DateStart: date(2025, 6, 15)},
		{ID: "2023", Year: 2023, DateStart: date(2023, 6, 18)},
		{ID: "2024", Year: 2024, DateStart: date(2024, 6, 16)},
	}

	mid := ComputeNeighbors(events, "2024")
	require.NotNil(t, mid.Prev)
	require.NotNil(t, mid.Next)
	assert.Equal(t, "2023", mid.Prev.ID)
	assert.Equal(t, "2025", mid.Next.ID)

	first := ComputeNeighbors(events, "2023")
	assert.Nil(t, first.Prev)
	assert.Equal(t, "2024", first.Next.ID)

	last := ComputeNeighbors(events, "2025")
	assert.Equal(t, "2024", last.Prev.ID)
	assert.Nil(t, last.Next)

	assert.Equal(t, Neighbors{}, ComputeNeighbors(events, "missing"))
	assert.Equal(t, "2025", events[0].ID)
}
