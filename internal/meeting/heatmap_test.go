package meeting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/meetpoint/internal/gtfsfeed"
)

// TestRunHeatmapRecordsSharedStop exercises the trivial two-rider feed
// through RunHeatmap and checks the sum/max invariants on the one stop
// both participants reach.
func TestRunHeatmapRecordsSharedStop(t *testing.T) {
	feed := &gtfsfeed.Feed{
		Stops: []gtfsfeed.StopRow{
			{StopID: "A", StopName: "A", Lat: 0, Lon: 0, HasCoords: true},
			{StopID: "B", StopName: "B", Lat: 0, Lon: 0.1, HasCoords: true},
			{StopID: "M", StopName: "M", Lat: 0.1, Lon: 0.05, HasCoords: true},
		},
		StopTimes: []gtfsfeed.StopTimeRow{
			{TripID: "T_AB", StopID: "A", StopSequence: 1, DepartureTime: "10:00:00", ArrivalTime: "10:00:00"},
			{TripID: "T_AB", StopID: "M", StopSequence: 2, DepartureTime: "10:06:00", ArrivalTime: "10:06:00"},
			{TripID: "T_BA", StopID: "B", StopSequence: 1, DepartureTime: "10:00:00", ArrivalTime: "10:00:00"},
			{TripID: "T_BA", StopID: "M", StopSequence: 2, DepartureTime: "10:06:00", ArrivalTime: "10:06:00"},
		},
		Trips: []gtfsfeed.TripRow{
			{TripID: "T_AB", RouteID: "R1"},
			{TripID: "T_BA", RouteID: "R1"},
		},
		Routes: []gtfsfeed.RouteRow{{RouteID: "R1", ShortName: "L1"}},
	}
	idx := buildIndex(feed)

	participants, err := PrepareParticipants(idx, []string{"A", "B"}, []Origin{
		{Query: "A"}, {Query: "B"},
	}, t1000)
	require.NoError(t, err)

	var lastPercent float64
	var callbacks int
	onProgress := func(percent float64, _ float64, _ int, _ int) {
		callbacks++
		lastPercent = percent
	}

	results, stats := RunHeatmap(idx, participants, DefaultIterationCap, onProgress, nil)

	require.Equal(t, ReasonEmptyQueue, stats.TerminationCode)
	require.True(t, callbacks > 0, "expected onProgress to be called at least once")
	assert.Equal(t, float64(100), lastPercent, "final progress callback must report percent 100 regardless of exit reason")

	entry, ok := results["M"]
	require.True(t, ok, "expected M to be recorded as a shared stop")
	assert.Equal(t, entry.PerParticipantElapsed["A"]+entry.PerParticipantElapsed["B"], entry.TotalElapsed)
	assert.Equal(t, 360, entry.MaxElapsed)
}

// TestRunHeatmapEmptyQueueStillReportsFullProgress pins down the
// ReasonEmptyQueue exit path specifically: with no shared stop reachable
// at all, the heaps still drain to empty and the driver must still fire
// a final percent=100 progress callback before returning.
func TestRunHeatmapEmptyQueueStillReportsFullProgress(t *testing.T) {
	feed := &gtfsfeed.Feed{
		Stops: []gtfsfeed.StopRow{
			{StopID: "A", StopName: "A", Lat: 0, Lon: 0, HasCoords: true},
			{StopID: "B", StopName: "B", Lat: 50, Lon: 50, HasCoords: true},
		},
	}
	idx := buildIndex(feed)

	participants, err := PrepareParticipants(idx, []string{"A", "B"}, []Origin{
		{Query: "A"}, {Query: "B"},
	}, t1000)
	require.NoError(t, err)

	var lastPercent float64
	var sawFinal bool
	onProgress := func(percent float64, _ float64, _ int, _ int) {
		lastPercent = percent
		if percent == 100 {
			sawFinal = true
		}
	}

	results, stats := RunHeatmap(idx, participants, DefaultIterationCap, onProgress, nil)

	assert.Equal(t, ReasonEmptyQueue, stats.TerminationCode)
	assert.True(t, sawFinal, "expected a percent=100 progress callback on the empty-queue exit path")
	assert.Equal(t, float64(100), lastPercent)
	assert.Empty(t, results)
}
