// Package schedule builds and serves the in-memory schedule index: the
// query structures a meeting search consults, the nearest-neighbour grid
// query used for geographic walk synthesis, and station-name resolution.
//
// The index is read-only once built. Multiple concurrent searches may read
// it; none may mutate it.
package schedule

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/passbi/meetpoint/internal/gtfsfeed"
	"github.com/passbi/meetpoint/internal/gtfstime"
	"github.com/passbi/meetpoint/internal/models"
)

const walkFloorSec = 30

// Index is the built, queryable schedule. Zero value is usable; call Build
// to populate it.
type Index struct {
	processed bool

	stopByID         map[string]models.Stop
	stopIDToStation  map[string]string
	stationToPlatforms map[string][]string
	stationName      map[string]string

	rowsAtStop map[string][]models.StopTime // sorted ascending by DepartureSec
	tripGroups map[string][]models.StopTime // sorted ascending by StopSequence

	tripInfo  map[string]models.Trip
	routeInfo map[string]models.Route

	walkEdges     map[string][]models.WalkEdge
	providedPairs map[[2]string]bool

	grid map[gtfstime.GridCell][]string

	stationList []stationEntry
}

type stationEntry struct {
	id         string
	name       string
	lowerName  string
	popularity int
}

// New returns an empty, unbuilt Index.
func New() *Index {
	return &Index{}
}

// Reset clears a previously built index so Build will run again.
func (idx *Index) Reset() {
	*idx = Index{}
}

// Built reports whether Build has run since the last Reset.
func (idx *Index) Built() bool {
	return idx.processed
}

// Build ingests a parsed feed into the index's query structures. It is
// idempotent: a second call on an already-built index returns immediately.
func (idx *Index) Build(feed *gtfsfeed.Feed) {
	if idx.processed {
		return
	}

	idx.stopByID = make(map[string]models.Stop, len(feed.Stops))
	idx.stopIDToStation = make(map[string]string, len(feed.Stops))
	idx.stationToPlatforms = make(map[string][]string)
	idx.stationName = make(map[string]string)
	idx.rowsAtStop = make(map[string][]models.StopTime)
	idx.tripGroups = make(map[string][]models.StopTime)
	idx.tripInfo = make(map[string]models.Trip, len(feed.Trips))
	idx.routeInfo = make(map[string]models.Route, len(feed.Routes))
	idx.walkEdges = make(map[string][]models.WalkEdge)
	idx.providedPairs = make(map[[2]string]bool)
	idx.grid = make(map[gtfstime.GridCell][]string)

	// 1. stopById
	for _, row := range feed.Stops {
		idx.stopByID[row.StopID] = models.Stop{
			ID:            row.StopID,
			Name:          row.StopName,
			Desc:          row.StopDesc,
			ParentStation: row.ParentStation,
			Lat:           row.Lat,
			Lon:           row.Lon,
			HasCoords:     row.HasCoords,
			LocationType:  models.LocationType(row.LocationType),
		}
	}

	// 2. stopIdToStationId + stationToPlatforms
	for _, stop := range idx.stopByID {
		stationID := stop.ParentStation
		if stationID == "" {
			stationID = stop.ID
		}
		idx.stopIDToStation[stop.ID] = stationID
		idx.stationToPlatforms[stationID] = append(idx.stationToPlatforms[stationID], stop.ID)
	}

	// 3. Station display name.
	for stationID, platforms := range idx.stationToPlatforms {
		idx.stationName[stationID] = computeStationName(stationID, platforms, idx.stopByID)
	}

	// 4+5+6. Decorate stop-times, drop null-departure rows, build
	// rowsAtStop (sorted by departure) and tripGroups (sorted by sequence).
	for _, st := range feed.StopTimes {
		depSec, depOK := gtfstime.ToSeconds(st.DepartureTime)
		if !depOK {
			continue // rows with an unparseable or missing departure time are discarded
		}
		arrSec, arrOK := gtfstime.ToSeconds(st.ArrivalTime)

		decorated := models.StopTime{
			TripID:       st.TripID,
			StopID:       st.StopID,
			StopSequence: st.StopSequence,
			DepartureSec: depSec,
			HasDeparture: true,
			ArrivalSec:   arrSec,
			HasArrival:   arrOK,
		}

		idx.rowsAtStop[st.StopID] = append(idx.rowsAtStop[st.StopID], decorated)
		idx.tripGroups[st.TripID] = append(idx.tripGroups[st.TripID], decorated)
	}
	for stopID := range idx.rowsAtStop {
		rows := idx.rowsAtStop[stopID]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].DepartureSec < rows[j].DepartureSec })
		idx.rowsAtStop[stopID] = rows
	}
	for tripID := range idx.tripGroups {
		rows := idx.tripGroups[tripID]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].StopSequence < rows[j].StopSequence })
		idx.tripGroups[tripID] = rows
	}

	// 7. tripInfo, routeInfo.
	for _, t := range feed.Trips {
		idx.tripInfo[t.TripID] = models.Trip{
			ID:        t.TripID,
			RouteID:   t.RouteID,
			Headsign:  t.Headsign,
			Direction: t.Direction,
			ShapeID:   t.ShapeID,
		}
	}
	for _, r := range feed.Routes {
		idx.routeInfo[r.RouteID] = models.Route{
			ID:        r.RouteID,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			RouteType: r.RouteType,
			AgencyID:  r.AgencyID,
		}
	}

	// 8. walkEdges + providedPairs: pathways first, then transfers.
	addWalkRows := func(rows []gtfsfeed.WalkRow, source models.WalkSource) {
		for _, row := range rows {
			if !row.HasSeconds {
				continue
			}
			t := row.Seconds
			if t < walkFloorSec {
				t = walkFloorSec
			}
			idx.walkEdges[row.FromStopID] = append(idx.walkEdges[row.FromStopID], models.WalkEdge{
				To:     row.ToStopID,
				Time:   t,
				Source: source,
			})
			idx.providedPairs[[2]string{row.FromStopID, row.ToStopID}] = true
		}
	}
	addWalkRows(feed.Pathways, models.WalkPathways)
	addWalkRows(feed.Transfers, models.WalkTransfers)

	// 9. Spatial grid.
	for _, stop := range idx.stopByID {
		if !stop.HasCoords {
			continue
		}
		cell := gtfstime.CellFor(stop.Lat, stop.Lon)
		idx.grid[cell] = append(idx.grid[cell], stop.ID)
	}

	// 10. Station lookup list.
	idx.buildStationList()

	idx.processed = true
}

// computeStationName implements the station display-name rule: the
// explicit station record's stop_name if present, else the stop_name with
// the highest occurrence count among the station's member stops (ties
// broken by name), else the identifier.
func computeStationName(stationID string, platforms []string, stops map[string]models.Stop) string {
	for _, pid := range platforms {
		if s, ok := stops[pid]; ok && s.LocationType == models.LocationStation && s.Name != "" {
			return s.Name
		}
	}

	counts := make(map[string]int)
	for _, pid := range platforms {
		if s, ok := stops[pid]; ok && s.Name != "" {
			counts[s.Name]++
		}
	}
	if len(counts) == 0 {
		return stationID
	}
	var names []string
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names) // tie-break: name asc
	best := names[0]
	for _, name := range names[1:] {
		if counts[name] > counts[best] {
			best = name
		}
	}
	return best
}

func (idx *Index) buildStationList() {
	byLower := make(map[string]stationEntry)
	for stationID, platforms := range idx.stationToPlatforms {
		popularity := 0
		for _, pid := range platforms {
			popularity += len(idx.rowsAtStop[pid])
		}
		name := idx.stationName[stationID]
		lower := strings.ToLower(name)

		entry := stationEntry{id: stationID, name: name, lowerName: lower, popularity: popularity}
		if existing, ok := byLower[lower]; !ok || entry.popularity > existing.popularity {
			byLower[lower] = entry
		}
	}

	list := make([]stationEntry, 0, len(byLower))
	for _, e := range byLower {
		list = append(list, e)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].popularity != list[j].popularity {
			return list[i].popularity > list[j].popularity
		}
		return list[i].name < list[j].name
	})
	idx.stationList = list
}

// Stop returns the stop record for a stop id.
func (idx *Index) Stop(stopID string) (models.Stop, bool) {
	s, ok := idx.stopByID[stopID]
	return s, ok
}

// Stats summarizes a built index's size, for ingestion audit logging.
type Stats struct {
	Stops    int
	Stations int
	Trips    int
	Routes   int
	WalkEdges int
}

// Stats reports the size of the built index.
func (idx *Index) Stats() Stats {
	edges := 0
	for _, es := range idx.walkEdges {
		edges += len(es)
	}
	return Stats{
		Stops:     len(idx.stopByID),
		Stations:  len(idx.stationToPlatforms),
		Trips:     len(idx.tripInfo),
		Routes:    len(idx.routeInfo),
		WalkEdges: edges,
	}
}

// StationToName returns a station's canonical display name.
func (idx *Index) StationToName(stationID string) string {
	if name, ok := idx.stationName[stationID]; ok {
		return name
	}
	return stationID
}

// StationOf returns the station id a stop belongs to.
func (idx *Index) StationOf(stopID string) string {
	if s, ok := idx.stopIDToStation[stopID]; ok {
		return s
	}
	return stopID
}

// StationToPlatforms enumerates a station's member stops.
func (idx *Index) StationToPlatforms(stationID string) []string {
	return idx.stationToPlatforms[stationID]
}

// RowsAtStop returns the stop-time rows departing a stop, sorted ascending
// by departure second.
func (idx *Index) RowsAtStop(stopID string) []models.StopTime {
	return idx.rowsAtStop[stopID]
}

// TripGroup returns a trip's stop-times, sorted ascending by stop sequence.
func (idx *Index) TripGroup(tripID string) []models.StopTime {
	return idx.tripGroups[tripID]
}

// TripInfo returns a trip's metadata.
func (idx *Index) TripInfo(tripID string) (models.Trip, bool) {
	t, ok := idx.tripInfo[tripID]
	return t, ok
}

// RouteInfo returns a route's metadata.
func (idx *Index) RouteInfo(routeID string) (models.Route, bool) {
	r, ok := idx.routeInfo[routeID]
	return r, ok
}

// WalkEdges returns the explicit pathway/transfer walk edges out of a stop.
func (idx *Index) WalkEdges(stopID string) []models.WalkEdge {
	return idx.walkEdges[stopID]
}

// ProvidedPair reports whether (from, to) came from an explicit pathway or
// transfer, meaning no geographic walk edge may be synthesized for it.
func (idx *Index) ProvidedPair(from, to string) bool {
	return idx.providedPairs[[2]string{from, to}]
}

// NearbyStopsWithinRadius enumerates other stops within radiusM meters of
// origin, using the spatial grid as a candidate filter and haversine for
// the final distance check. No ordering guarantee; no duplicates.
func (idx *Index) NearbyStopsWithinRadius(origin string, radiusM float64) []StopDistance {
	originStop, ok := idx.stopByID[origin]
	if !ok || !originStop.HasCoords {
		return nil
	}
	return idx.nearbyToPoint(originStop.Lat, originStop.Lon, radiusM, origin)
}

// NearbyStopsToPoint enumerates stops within radiusM meters of an arbitrary
// (lat, lon), for address seeding where the origin is a virtual node rather
// than an existing stop.
func (idx *Index) NearbyStopsToPoint(lat, lon, radiusM float64) []StopDistance {
	return idx.nearbyToPoint(lat, lon, radiusM, "")
}

func (idx *Index) nearbyToPoint(lat, lon, radiusM float64, exclude string) []StopDistance {
	c0 := gtfstime.CellFor(lat, lon)

	const mPerDegLat = 111320.0
	mPerDegLon := 111320.0 * math.Cos(lat*math.Pi/180)

	nLat := int(math.Ceil((radiusM/mPerDegLat)/gtfstime.DLAT)) + 1
	nLon := int(math.Ceil((radiusM/mPerDegLon)/gtfstime.DLON)) + 1

	seen := make(map[string]bool)
	var out []StopDistance

	for di := -nLat; di <= nLat; di++ {
		for dj := -nLon; dj <= nLon; dj++ {
			cell := gtfstime.GridCell{I: c0.I + di, J: c0.J + dj}
			for _, cand := range idx.grid[cell] {
				if cand == exclude || seen[cand] {
					continue
				}
				seen[cand] = true
				candStop := idx.stopByID[cand]
				d := gtfstime.Haversine(lat, lon, candStop.Lat, candStop.Lon)
				if d <= radiusM {
					out = append(out, StopDistance{StopID: cand, DistanceM: d})
				}
			}
		}
	}
	return out
}

// StopDistance pairs a nearby stop id with its haversine distance.
type StopDistance struct {
	StopID    string
	DistanceM float64
}

// ErrKind tags the resolver/seeding error taxonomy.
type ErrKind string

const (
	ErrEmptyQuery          ErrKind = "EMPTY_QUERY"
	ErrNoStationMatch      ErrKind = "NO_STATION_MATCH"
	ErrNoDeparturePlatform ErrKind = "NO_DEPARTURE_PLATFORM"
)

// Error wraps an ErrKind with a human-readable message.
type Error struct {
	Kind ErrKind
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// ResolveStation maps a free-text station query to a canonical station id
// and display name.
func (idx *Index) ResolveStation(query string) (stationID, name string, err error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return "", "", &Error{Kind: ErrEmptyQuery, Msg: "empty station query"}
	}

	type match struct {
		entry stationEntry
		score int
		idx   int
	}
	var matches []match
	for _, e := range idx.stationList {
		i := strings.Index(e.lowerName, q)
		if i < 0 {
			continue
		}
		score := 1
		if e.lowerName == q {
			score = 3
		} else if i == 0 {
			score = 2
		}
		matches = append(matches, match{entry: e, score: score, idx: i})
	}
	if len(matches) == 0 {
		return "", "", &Error{Kind: ErrNoStationMatch, Msg: fmt.Sprintf("no station matches %q", query)}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		ma, mb := matches[a], matches[b]
		if ma.score != mb.score {
			return ma.score > mb.score
		}
		if ma.entry.popularity != mb.entry.popularity {
			return ma.entry.popularity > mb.entry.popularity
		}
		if ma.idx != mb.idx {
			return ma.idx < mb.idx
		}
		return ma.entry.name < mb.entry.name
	})

	seen := make(map[string]bool)
	for _, m := range matches {
		if seen[m.entry.lowerName] {
			continue
		}
		return m.entry.id, m.entry.name, nil
	}
	return matches[0].entry.id, matches[0].entry.name, nil
}

// PickStartPlatform chooses the station platform whose earliest departure
// at or after t0 is minimal. If no platform has a qualifying departure, any
// platform of the station is returned so dead-hour queries remain seedable.
// Returns ok=false only when the station has zero platforms.
func (idx *Index) PickStartPlatform(stationID string, t0 int) (stopID string, ok bool) {
	platforms := idx.stationToPlatforms[stationID]
	if len(platforms) == 0 {
		return "", false
	}

	bestStop := ""
	bestDep := 0
	found := false
	for _, pid := range platforms {
		rows := idx.rowsAtStop[pid]
		for _, row := range rows {
			if row.DepartureSec < t0 {
				continue
			}
			if !found || row.DepartureSec < bestDep {
				bestDep = row.DepartureSec
				bestStop = pid
				found = true
			}
			break // rows sorted ascending; first qualifying is earliest for this platform
		}
	}
	if found {
		return bestStop, true
	}
	return platforms[0], true
}
