// Package meeting implements the per-participant edge enumerator, the
// interleaved meeting-point driver and its heatmap variant, and the
// result assembler.
package meeting

import (
	"fmt"
	"math"

	"github.com/passbi/meetpoint/internal/gtfstime"
	"github.com/passbi/meetpoint/internal/models"
	"github.com/passbi/meetpoint/internal/pqueue"
	"github.com/passbi/meetpoint/internal/schedule"
)

// Fixed constants governing walk synthesis and the search budget.
const (
	WalkSpeed       = 1.3 // m/s
	MaxWalkTime     = 600 // s
	MaxWalkRadius   = WalkSpeed * MaxWalkTime
	MaxTrip         = 7200 // s
	MinTravel       = 10   // s
	MaxInitialWalk  = 1000 // m
	MaxParticipants = 5

	DefaultIterationCap = 200_000_000
)

// LatLon is a bare geographic point, used for participant origins and the
// midpoint tiebreaker.
type LatLon struct {
	Lat, Lon float64
}

// Origin is a participant's starting point: either a free-text station
// query or a geographic address.
type Origin struct {
	IsAddress bool
	Query     string // station query text, used when !IsAddress
	Lat, Lon  float64 // used when IsAddress
}

// ParentEntry records the step that first relaxed a stop, for path
// reconstruction. HasFrom is false for the participant's origin: a
// station-seeded START, or an address-seeded WALK (from_stop = null).
type ParentEntry struct {
	From    string
	HasFrom bool
	Step    models.StepInfo
}

// ReachedEntry is the first-settled (arrival, elapsed) pair for a stop.
type ReachedEntry struct {
	ArriveSec int `json:"arrive_sec"`
	Elapsed   int `json:"elapsed_sec"`
}

// Participant is the per-query search state: its own heap, best-known
// elapsed per stop, first-reached record, and parent chain. It is owned
// exclusively by one query and discarded afterward.
type Participant struct {
	Label       string
	T0          int
	StartStopID string // set for station origins; empty for address origins
	StationID   string // set for station origins; empty for address origins
	StationName string // set for station origins; empty for address origins

	// OriginPoint is this participant's resolved starting coordinate — the
	// chosen platform's location for a station origin, or the address
	// itself. Callers collect these across all participants to compute the
	// midpoint tiebreaker before calling Seed.
	OriginPoint LatLon

	Heap         *pqueue.Queue
	BestElapsed  map[string]int
	ReachedFirst map[string]ReachedEntry
	Parent       map[string]ParentEntry

	midpoint LatLon
	idx      *schedule.Index

	isAddress         bool
	addressCandidates []schedule.StopDistance
}

// ResolveParticipant performs station resolution / address lookup
// ("station seeding" / "address seeding", minus the midpoint-dependent
// heap push) so callers can compute the participant-set midpoint before
// priming any heap. Call Seed once the midpoint is known.
func ResolveParticipant(idx *schedule.Index, label string, origin Origin, t0 int) (*Participant, error) {
	p := &Participant{
		Label:        label,
		T0:           t0,
		Heap:         pqueue.New(),
		BestElapsed:  make(map[string]int),
		ReachedFirst: make(map[string]ReachedEntry),
		Parent:       make(map[string]ParentEntry),
		idx:          idx,
	}

	if origin.IsAddress {
		candidates := idx.NearbyStopsToPoint(origin.Lat, origin.Lon, MaxInitialWalk)
		if len(candidates) == 0 {
			return nil, &Error{Kind: ErrNoStationsNearAddress, Msg: fmt.Sprintf("no stops within %dm of address", MaxInitialWalk)}
		}
		p.isAddress = true
		p.addressCandidates = candidates
		p.OriginPoint = LatLon{Lat: origin.Lat, Lon: origin.Lon}
		return p, nil
	}

	stationID, stationName, err := idx.ResolveStation(origin.Query)
	if err != nil {
		return nil, err
	}
	startStop, ok := idx.PickStartPlatform(stationID, t0)
	if !ok {
		return nil, &schedule.Error{Kind: schedule.ErrNoDeparturePlatform, Msg: fmt.Sprintf("station %s has no platforms", stationID)}
	}
	p.StationID = stationID
	p.StationName = stationName
	p.StartStopID = startStop

	stop, _ := idx.Stop(startStop)
	p.OriginPoint = LatLon{Lat: stop.Lat, Lon: stop.Lon}
	return p, nil
}

// Seed primes the participant's heap now that the participant-set midpoint
// is known: one WALK per nearby stop for an address origin, or a single
// zero-elapsed START at the chosen platform for a station origin.
func (p *Participant) Seed(midpoint LatLon) {
	p.midpoint = midpoint

	if p.isAddress {
		for _, c := range p.addressCandidates {
			walkSec := ceilDiv(c.DistanceM, WalkSpeed)
			if walkSec < MinTravel {
				walkSec = MinTravel
			}
			arrive := p.T0 + walkSec

			stop, _ := p.idx.Stop(c.StopID)
			step := models.StepInfo{
				Owner:     p.Label,
				Mode:      models.StepWalk,
				HasFrom:   false,
				ToStop:    c.StopID,
				DepartSec: p.T0,
				ArriveSec: arrive,
				WalkSec:   walkSec,
				Source:    models.WalkAddress,
				DistanceM: int(math.Round(c.DistanceM)),
				HasDist:   true,
			}
			p.Heap.Push(pqueue.Entry{
				Elapsed:    walkSec,
				ArrivalAbs: arrive,
				DistMid:    p.distToMidpoint(stop),
				ToStop:     c.StopID,
				Payload:    step,
			})
		}
		return
	}

	stop, _ := p.idx.Stop(p.StartStopID)
	step := models.StepInfo{
		Owner:     p.Label,
		Mode:      models.StepStart,
		HasFrom:   false,
		ToStop:    p.StartStopID,
		DepartSec: p.T0,
		ArriveSec: p.T0,
	}
	p.Heap.Push(pqueue.Entry{
		Elapsed:    0,
		ArrivalAbs: p.T0,
		DistMid:    p.distToMidpoint(stop),
		ToStop:     p.StartStopID,
		Payload:    step,
	})
}

// IsAddress reports whether this participant originated from a geographic
// address rather than a resolved station.
func (p *Participant) IsAddress() bool {
	return p.isAddress
}

func (p *Participant) distToMidpoint(stop models.Stop) float64 {
	if !stop.HasCoords {
		return 0
	}
	return gtfstime.Haversine(stop.Lat, stop.Lon, p.midpoint.Lat, p.midpoint.Lon)
}

// Expand runs the three out-edge generators (pathway/transfer walks, geo
// walks, transit rides) from a just-settled stop, pushing every emitted
// step onto the participant's own heap.
func (p *Participant) Expand(idx *schedule.Index, curStop string, curTime, elapsed int) {
	p.expandWalkEdges(idx, curStop, curTime, elapsed)
	p.expandGeoWalks(idx, curStop, curTime, elapsed)
	p.expandRides(idx, curStop, curTime, elapsed)
}

func (p *Participant) expandWalkEdges(idx *schedule.Index, curStop string, curTime, elapsed int) {
	for _, edge := range idx.WalkEdges(curStop) {
		walkSec := edge.Time
		if walkSec < MinTravel {
			walkSec = MinTravel
		}
		arrive := curTime + walkSec
		newElapsed := elapsed + walkSec

		stop, _ := idx.Stop(edge.To)
		step := models.StepInfo{
			Owner:     p.Label,
			Mode:      models.StepWalk,
			FromStop:  curStop,
			HasFrom:   true,
			ToStop:    edge.To,
			DepartSec: curTime,
			ArriveSec: arrive,
			WalkSec:   walkSec,
			Source:    edge.Source,
		}
		p.Heap.Push(pqueue.Entry{
			Elapsed:    newElapsed,
			ArrivalAbs: arrive,
			DistMid:    p.distToMidpoint(stop),
			ToStop:     edge.To,
			Payload:    step,
		})
	}
}

func (p *Participant) expandGeoWalks(idx *schedule.Index, curStop string, curTime, elapsed int) {
	for _, c := range idx.NearbyStopsWithinRadius(curStop, MaxWalkRadius) {
		if idx.ProvidedPair(curStop, c.StopID) {
			continue // explicit pathway/transfer edges take precedence over a synthesized geo walk
		}
		ttime := ceilDiv(c.DistanceM, WalkSpeed)
		if ttime < MinTravel {
			ttime = MinTravel
		}
		if ttime > MaxWalkTime {
			continue
		}
		arrive := curTime + ttime
		newElapsed := elapsed + ttime

		stop, _ := idx.Stop(c.StopID)
		step := models.StepInfo{
			Owner:     p.Label,
			Mode:      models.StepWalk,
			FromStop:  curStop,
			HasFrom:   true,
			ToStop:    c.StopID,
			DepartSec: curTime,
			ArriveSec: arrive,
			WalkSec:   ttime,
			Source:    models.WalkGeo,
			DistanceM: int(math.Round(c.DistanceM)),
			HasDist:   true,
		}
		p.Heap.Push(pqueue.Entry{
			Elapsed:    newElapsed,
			ArrivalAbs: arrive,
			DistMid:    p.distToMidpoint(stop),
			ToStop:     c.StopID,
			Payload:    step,
		})
	}
}

func (p *Participant) expandRides(idx *schedule.Index, curStop string, curTime, elapsed int) {
	for _, board := range idx.RowsAtStop(curStop) {
		if board.DepartureSec < curTime {
			continue
		}
		wait := board.DepartureSec - curTime

		trip, _ := idx.TripInfo(board.TripID)

		for _, downstream := range idx.TripGroup(board.TripID) {
			if downstream.StopSequence <= board.StopSequence {
				continue
			}
			if !downstream.HasArrival {
				continue
			}
			rideSec := downstream.ArrivalSec - board.DepartureSec
			newElapsed := elapsed + wait + rideSec

			stop, _ := idx.Stop(downstream.StopID)
			step := models.StepInfo{
				Owner:     p.Label,
				Mode:      models.StepRide,
				FromStop:  curStop,
				HasFrom:   true,
				ToStop:    downstream.StopID,
				DepartSec: board.DepartureSec,
				ArriveSec: downstream.ArrivalSec,
				TripID:    board.TripID,
				RouteID:   trip.RouteID,
				Headsign:  trip.Headsign,
				WaitSec:   wait,
				RideSec:   rideSec,
			}
			p.Heap.Push(pqueue.Entry{
				Elapsed:    newElapsed,
				ArrivalAbs: downstream.ArrivalSec,
				DistMid:    p.distToMidpoint(stop),
				ToStop:     downstream.StopID,
				Payload:    step,
			})
		}
	}
}

func ceilDiv(distanceM, speed float64) int {
	return int(math.Ceil(distanceM / speed))
}
