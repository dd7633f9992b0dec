// Package gtfsfeed is the thin on-disk loader for the six GTFS tables the
// schedule index consumes. Reading from disk, downloading feeds, and
// geocoding are external collaborators of the core search engine; this
// package exists only so cmd/ingest and cmd/api have bytes to hand to
// internal/schedule.
package gtfsfeed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Feed holds the raw rows of the six required GTFS tables, with minimal
// per-row normalization (trimmed strings, parsed integers). Time strings
// are left unparsed here; internal/schedule decorates them with
// gtfstime.ToSeconds during index build.
type Feed struct {
	Stops     []StopRow
	StopTimes []StopTimeRow
	Trips     []TripRow
	Routes    []RouteRow
	Pathways  []WalkRow
	Transfers []WalkRow
}

// StopRow is one row of stops.txt.
type StopRow struct {
	StopID        string
	StopName      string
	StopDesc      string
	ParentStation string
	Lat           float64
	Lon           float64
	HasCoords     bool
	LocationType  int
}

// StopTimeRow is one row of stop_times.txt, times left as raw strings.
type StopTimeRow struct {
	TripID        string
	StopID        string
	StopSequence  int
	ArrivalTime   string
	DepartureTime string
}

// TripRow is one row of trips.txt.
type TripRow struct {
	TripID    string
	RouteID   string
	Headsign  string
	Direction int
	ShapeID   string
}

// RouteRow is one row of routes.txt.
type RouteRow struct {
	RouteID   string
	ShortName string
	LongName  string
	RouteType int
	AgencyID  string
}

// WalkRow is one row of pathways.txt or transfers.txt: a directed edge with
// a traversal time in seconds (traversal_time for pathways,
// min_transfer_time for transfers).
type WalkRow struct {
	FromStopID string
	ToStopID   string
	Seconds    int
	HasSeconds bool
}

// LoadDir reads the six logical tables from a directory of GTFS text files.
// stops.txt, stop_times.txt, trips.txt, and routes.txt are required;
// pathways.txt and transfers.txt are optional.
func LoadDir(dir string) (*Feed, error) {
	feed := &Feed{}

	stops, err := parseStops(filepath.Join(dir, "stops.txt"))
	if err != nil {
		return nil, fmt.Errorf("stops.txt: %w", err)
	}
	feed.Stops = stops

	stopTimes, err := parseStopTimes(filepath.Join(dir, "stop_times.txt"))
	if err != nil {
		return nil, fmt.Errorf("stop_times.txt: %w", err)
	}
	feed.StopTimes = stopTimes

	trips, err := parseTrips(filepath.Join(dir, "trips.txt"))
	if err != nil {
		return nil, fmt.Errorf("trips.txt: %w", err)
	}
	feed.Trips = trips

	routes, err := parseRoutes(filepath.Join(dir, "routes.txt"))
	if err != nil {
		return nil, fmt.Errorf("routes.txt: %w", err)
	}
	feed.Routes = routes

	if pathways, err := parseWalkRows(filepath.Join(dir, "pathways.txt"), "traversal_time"); err == nil {
		feed.Pathways = pathways
	}
	if transfers, err := parseWalkRows(filepath.Join(dir, "transfers.txt"), "min_transfer_time"); err == nil {
		feed.Transfers = transfers
	}

	return feed, nil
}

func openCSV(path string) (*csv.Reader, *os.File, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	r := csv.NewReader(file)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	return r, file, nil
}

func makeColumnMap(header []string) map[string]int {
	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[strings.TrimSpace(col)] = i
	}
	return colMap
}

func getField(record []string, colMap map[string]int, field string) string {
	if idx, ok := colMap[field]; ok && idx < len(record) {
		return strings.TrimSpace(record[idx])
	}
	return ""
}

func parseStops(path string) ([]StopRow, error) {
	r, file, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := makeColumnMap(header)

	var stops []StopRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		stopID := getField(record, colMap, "stop_id")
		if stopID == "" {
			continue
		}

		row := StopRow{
			StopID:        stopID,
			StopName:      getField(record, colMap, "stop_name"),
			StopDesc:      getField(record, colMap, "stop_desc"),
			ParentStation: getField(record, colMap, "parent_station"),
		}

		if latStr, lonStr := getField(record, colMap, "stop_lat"), getField(record, colMap, "stop_lon"); latStr != "" && lonStr != "" {
			lat, errLat := strconv.ParseFloat(latStr, 64)
			lon, errLon := strconv.ParseFloat(lonStr, 64)
			if errLat == nil && errLon == nil {
				row.Lat, row.Lon, row.HasCoords = lat, lon, true
			}
		}

		if ltStr := getField(record, colMap, "location_type"); ltStr != "" {
			if lt, err := strconv.Atoi(ltStr); err == nil {
				row.LocationType = lt
			}
		}

		stops = append(stops, row)
	}

	return stops, nil
}

func parseStopTimes(path string) ([]StopTimeRow, error) {
	r, file, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := makeColumnMap(header)

	var rows []StopTimeRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		tripID := getField(record, colMap, "trip_id")
		stopID := getField(record, colMap, "stop_id")
		seqStr := getField(record, colMap, "stop_sequence")
		if tripID == "" || stopID == "" || seqStr == "" {
			continue
		}
		seq, err := strconv.Atoi(seqStr)
		if err != nil {
			continue
		}

		rows = append(rows, StopTimeRow{
			TripID:        tripID,
			StopID:        stopID,
			StopSequence:  seq,
			ArrivalTime:   getField(record, colMap, "arrival_time"),
			DepartureTime: getField(record, colMap, "departure_time"),
		})
	}

	return rows, nil
}

func parseTrips(path string) ([]TripRow, error) {
	r, file, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := makeColumnMap(header)

	var trips []TripRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		tripID := getField(record, colMap, "trip_id")
		routeID := getField(record, colMap, "route_id")
		if tripID == "" || routeID == "" {
			continue
		}

		direction, _ := strconv.Atoi(getField(record, colMap, "direction_id"))

		trips = append(trips, TripRow{
			TripID:    tripID,
			RouteID:   routeID,
			Headsign:  getField(record, colMap, "trip_headsign"),
			Direction: direction,
			ShapeID:   getField(record, colMap, "shape_id"),
		})
	}

	return trips, nil
}

func parseRoutes(path string) ([]RouteRow, error) {
	r, file, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := makeColumnMap(header)

	var routes []RouteRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		routeID := getField(record, colMap, "route_id")
		if routeID == "" {
			continue
		}

		routeType, _ := strconv.Atoi(getField(record, colMap, "route_type"))

		routes = append(routes, RouteRow{
			RouteID:   routeID,
			ShortName: getField(record, colMap, "route_short_name"),
			LongName:  getField(record, colMap, "route_long_name"),
			RouteType: routeType,
			AgencyID:  getField(record, colMap, "agency_id"),
		})
	}

	return routes, nil
}

// parseWalkRows handles both pathways.txt (traversal_time) and
// transfers.txt (min_transfer_time) since they share the from/to + seconds
// shape.
func parseWalkRows(path string, secondsField string) ([]WalkRow, error) {
	r, file, err := openCSV(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	colMap := makeColumnMap(header)

	var rows []WalkRow
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}

		from := getField(record, colMap, "from_stop_id")
		to := getField(record, colMap, "to_stop_id")
		if from == "" || to == "" {
			continue
		}

		row := WalkRow{FromStopID: from, ToStopID: to}
		if secStr := getField(record, colMap, secondsField); secStr != "" {
			if sec, err := strconv.Atoi(secStr); err == nil {
				row.Seconds, row.HasSeconds = sec, true
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}
