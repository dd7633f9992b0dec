package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/meetpoint/internal/gtfsfeed"
)

func sampleFeed() *gtfsfeed.Feed {
	return &gtfsfeed.Feed{
		Stops: []gtfsfeed.StopRow{
			{StopID: "STATION_A", StopName: "Alexanderplatz", LocationType: 1, Lat: 52.5219, Lon: 13.4132, HasCoords: true},
			{StopID: "A1", StopName: "Alexanderplatz", ParentStation: "STATION_A", Lat: 52.5219, Lon: 13.4132, HasCoords: true},
			{StopID: "A2", StopName: "Alexanderplatz", ParentStation: "STATION_A", Lat: 52.5220, Lon: 13.4133, HasCoords: true},
			{StopID: "B1", StopName: "Rosa-Luxemburg-Platz", Lat: 52.5297, Lon: 13.4116, HasCoords: true},
		},
		StopTimes: []gtfsfeed.StopTimeRow{
			{TripID: "T1", StopID: "A1", StopSequence: 1, DepartureTime: "08:00:00", ArrivalTime: "08:00:00"},
			{TripID: "T1", StopID: "B1", StopSequence: 2, DepartureTime: "08:10:00", ArrivalTime: "08:09:00"},
			{TripID: "T2", StopID: "A1", StopSequence: 1, DepartureTime: "08:30:00", ArrivalTime: "08:30:00"},
			{TripID: "T3", StopID: "A2", StopSequence: 1, DepartureTime: ""}, // malformed: dropped
		},
		Trips: []gtfsfeed.TripRow{
			{TripID: "T1", RouteID: "R1"},
			{TripID: "T2", RouteID: "R1"},
		},
		Routes: []gtfsfeed.RouteRow{
			{RouteID: "R1", ShortName: "M2", RouteType: 0},
		},
		Transfers: []gtfsfeed.WalkRow{
			{FromStopID: "A1", ToStopID: "A2", Seconds: 5, HasSeconds: true}, // below floor
		},
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	idx := New()
	idx.Build(sampleFeed())
	firstName := idx.StationToName("STATION_A")

	idx.Build(&gtfsfeed.Feed{}) // second call must be a no-op
	assert.Equal(t, firstName, idx.StationToName("STATION_A"))
}

func TestResetAllowsRebuild(t *testing.T) {
	idx := New()
	idx.Build(sampleFeed())
	require.True(t, idx.Built())
	idx.Reset()
	assert.False(t, idx.Built())
}

func TestStationNamePrefersExplicitStationRecord(t *testing.T) {
	idx := New()
	idx.Build(sampleFeed())
	assert.Equal(t, "Alexanderplatz", idx.StationToName("STATION_A"))
}

func TestStationNameFallsBackToStandaloneStopName(t *testing.T) {
	idx := New()
	idx.Build(sampleFeed())
	assert.Equal(t, "Rosa-Luxemburg-Platz", idx.StationToName("B1"))
}

func TestMalformedDepartureRowDropped(t *testing.T) {
	idx := New()
	idx.Build(sampleFeed())
	assert.Empty(t, idx.RowsAtStop("A2"))
}

func TestRowsAtStopSortedAscendingByDeparture(t *testing.T) {
	idx := New()
	idx.Build(sampleFeed())
	rows := idx.RowsAtStop("A1")
	require.Len(t, rows, 2)
	assert.Equal(t, "T1", rows[0].TripID)
	assert.Equal(t, "T2", rows[1].TripID)
}

func TestWalkEdgeFloorsBelowMinimum(t *testing.T) {
	idx := New()
	idx.Build(sampleFeed())
	edges := idx.WalkEdges("A1")
	require.Len(t, edges, 1)
	assert.Equal(t, walkFloorSec, edges[0].Time)
}

func TestProvidedPairSuppressesGeoSynthesis(t *testing.T) {
	idx := New()
	idx.Build(sampleFeed())
	assert.True(t, idx.ProvidedPair("A1", "A2"))
	assert.False(t, idx.ProvidedPair("A2", "A1"))
}

func TestNearbyStopsWithinRadiusFindsCloseStopsOnly(t *testing.T) {
	idx := New()
	idx.Build(sampleFeed())

	near := idx.NearbyStopsWithinRadius("A1", 50)
	var ids []string
	for _, n := range near {
		ids = append(ids, n.StopID)
	}
	assert.Contains(t, ids, "A2")
	assert.NotContains(t, ids, "B1") // ~1km away, outside 50m radius
}

func TestNearbyStopsWithinRadiusExcludesOrigin(t *testing.T) {
	idx := New()
	idx.Build(sampleFeed())
	near := idx.NearbyStopsWithinRadius("A1", 5000)
	for _, n := range near {
		assert.NotEqual(t, "A1", n.StopID)
	}
}

func TestResolveStationEmptyQuery(t *testing.T) {
	idx := New()
	idx.Build(sampleFeed())
	_, _, err := idx.ResolveStation("   ")
	require.Error(t, err)
	assert.Equal(t, ErrEmptyQuery, err.(*Error).Kind)
}

func TestResolveStationNoMatch(t *testing.T) {
	idx := New()
	idx.Build(sampleFeed())
	_, _, err := idx.ResolveStation("nonexistent place")
	require.Error(t, err)
	assert.Equal(t, ErrNoStationMatch, err.(*Error).Kind)
}

func TestResolveStationExactMatch(t *testing.T) {
	idx := New()
	idx.Build(sampleFeed())
	id, name, err := idx.ResolveStation("alexanderplatz")
	require.NoError(t, err)
	assert.Equal(t, "STATION_A", id)
	assert.Equal(t, "Alexanderplatz", name)
}

func TestPickStartPlatformEarliestDepartureAtOrAfterT0(t *testing.T) {
	idx := New()
	idx.Build(sampleFeed())

	platform, ok := idx.PickStartPlatform("STATION_A", 8*3600+5*60)
	require.True(t, ok)
	assert.Equal(t, "A1", platform) // T2 at 08:30 is the earliest >= 08:05
}

func TestPickStartPlatformFallsBackWhenNoDepartureQualifies(t *testing.T) {
	idx := New()
	idx.Build(sampleFeed())

	platform, ok := idx.PickStartPlatform("STATION_A", 23*3600)
	require.True(t, ok)
	assert.NotEmpty(t, platform)
}

func TestPickStartPlatformNoPlatforms(t *testing.T) {
	idx := New()
	idx.Build(sampleFeed())
	_, ok := idx.PickStartPlatform("NO_SUCH_STATION", 0)
	assert.False(t, ok)
}
