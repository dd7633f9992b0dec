// Package models holds the data types shared across the schedule index,
// the search engine, and the HTTP layer.
package models

import "fmt"

// LocationType mirrors the GTFS stops.location_type column.
type LocationType int

const (
	LocationPlatform LocationType = 0
	LocationStation  LocationType = 1
)

// Stop is an atomic physical location where a vehicle may be boarded or
// alighted, or a pedestrian node inside a station.
type Stop struct {
	ID            string
	Name          string
	Desc          string
	ParentStation string // empty if the stop is its own station
	Lat           float64
	Lon           float64
	HasCoords     bool
	LocationType  LocationType
}

// Station is the logical grouping of platforms sharing a name, resolved
// during index build from Stop.ParentStation.
type Station struct {
	ID         string
	Name       string
	Platforms  []string
	Popularity int // count of stop-time rows at any of its platforms
}

// Route is metadata referenced by trips.
type Route struct {
	ID         string
	ShortName  string
	LongName   string
	RouteType  int
	AgencyID   string
}

// Trip is a scheduled run of a route.
type Trip struct {
	ID        string
	RouteID   string
	Headsign  string
	Direction int
	ShapeID   string
}

// StopTime is a single scheduled visit of a trip to a stop, decorated with
// parsed seconds-since-midnight fields. ArrivalSec/DepartureSec are only
// valid when the corresponding Has flag is set.
type StopTime struct {
	TripID        string
	StopID        string
	StopSequence  int
	ArrivalSec    int
	HasArrival    bool
	DepartureSec  int
	HasDeparture  bool
}

// WalkSource tags where a walk edge came from.
type WalkSource string

const (
	WalkPathways  WalkSource = "PATHWAYS"
	WalkTransfers WalkSource = "TRANSFERS"
	WalkGeo       WalkSource = "GEO"
	WalkAddress   WalkSource = "ADDRESS"
)

// WalkEdge is a directed pedestrian link between two stops.
type WalkEdge struct {
	To     string
	Time   int // seconds, floor-clamped
	Source WalkSource
}

// StepMode tags the three classes of journey step.
type StepMode string

const (
	StepStart StepMode = "START"
	StepWalk  StepMode = "WALK"
	StepRide  StepMode = "RIDE"
)

// StepInfo is the tagged record describing one edge traversal in a
// participant's journey. Fields not relevant to Mode are left zero-valued.
type StepInfo struct {
	Owner     string   `json:"owner"`
	Mode      StepMode `json:"mode"`
	FromStop  string   `json:"from_stop,omitempty"` // empty for START, and for ADDRESS-sourced WALK
	HasFrom   bool     `json:"-"`
	ToStop    string   `json:"to_stop"`
	DepartSec int      `json:"depart_sec"`
	ArriveSec int      `json:"arrive_sec"`

	// WALK-only
	WalkSec   int        `json:"walk_sec,omitempty"`
	Source    WalkSource `json:"walk_source,omitempty"`
	DistanceM int        `json:"distance_m,omitempty"`
	HasDist   bool       `json:"-"`

	// RIDE-only
	TripID   string `json:"trip_id,omitempty"`
	RouteID  string `json:"route_id,omitempty"`
	Headsign string `json:"headsign,omitempty"`
	WaitSec  int    `json:"wait_sec,omitempty"`
	RideSec  int    `json:"ride_sec,omitempty"`
}

// RouteTypeName maps a GTFS route_type integer to a human-readable label,
// following the original reference script's route_type_name table.
func RouteTypeName(routeType int) string {
	switch routeType {
	case 0:
		return "Tram/Streetcar"
	case 2:
		return "Rail"
	case 3:
		return "Bus"
	case 100:
		return "Rail"
	case 400:
		return "Subway/Metro"
	case 700:
		return "Bus"
	case 900:
		return "Tram"
	default:
		return fmt.Sprintf("Type%d", routeType)
	}
}

// MeetingStatus tags the outcome of a meeting-point search.
type MeetingStatus string

const (
	MeetingOK           MeetingStatus = "OK"
	MeetingCapExceeded  MeetingStatus = "CAP"
	MeetingNone         MeetingStatus = "" // search exhausted or hit the iteration cap
)

// MeetingResult is the terminal state of the interleaved driver.
type MeetingResult struct {
	Status      MeetingStatus `json:"status"`
	StopID      string        `json:"stop_id,omitempty"`      // valid when Status == MeetingOK
	Participant string        `json:"participant,omitempty"`  // valid when Status == MeetingCapExceeded
	Reason      string        `json:"reason,omitempty"`        // diagnostic termination code: EMPTY_QUEUE, ITERATION_LIMIT, CANCELLED
}

// SearchStats is the diagnostic payload attached to a /v1/meet response.
type SearchStats struct {
	Iterations        int    `json:"iterations"`
	TotalVisitedNodes int    `json:"total_visited_nodes"`
	MaxElapsedSec     int    `json:"max_elapsed_sec"`
	TerminationCode   string `json:"termination_code"`
	QueueSizes        []int  `json:"queue_sizes"`
}

// AddressCoords is the geographic origin reported back for an address
// participant, in place of a start_stop_id.
type AddressCoords struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ReachedStop is the first-settled (arrival, elapsed) pair for a stop,
// exposed to API callers as part of a participant's reachedFirst map.
type ReachedStop struct {
	ArriveSec int `json:"arrive_sec"`
	Elapsed   int `json:"elapsed_sec"`
}

// ParticipantResult is one participant's entry in a /v1/meet response: its
// origin, every stop it has settled so far, and, once a meeting stop is
// found, the human-readable journey leading to it.
type ParticipantResult struct {
	Label         string                 `json:"label"`
	StartStopID   string                 `json:"start_stop_id,omitempty"`
	AddressCoords *AddressCoords         `json:"address_coords,omitempty"`
	T0            int                    `json:"t0"`
	ReachedFirst  map[string]ReachedStop `json:"reachedFirst"`
	Journey       []string               `json:"journey,omitempty"`
}

// MeetResponse is the full /v1/meet response body.
type MeetResponse struct {
	Meeting      MeetingResult       `json:"meeting"`
	Participants []ParticipantResult `json:"participants"`
	Stats        SearchStats         `json:"stats"`
}

// HeatmapEntry is one row of the heatmap (all-stops) result.
type HeatmapEntry struct {
	StopID                string         `json:"stop_id"`
	Lat                   float64        `json:"lat"`
	Lon                   float64        `json:"lon"`
	TotalElapsed          int            `json:"total_elapsed_sec"`
	MaxElapsed            int            `json:"max_elapsed_sec"`
	PerParticipantElapsed map[string]int `json:"per_participant_elapsed_sec"`
}
