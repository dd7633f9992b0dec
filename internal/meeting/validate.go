package meeting

import (
	"fmt"

	"github.com/passbi/meetpoint/internal/schedule"
)

// PrepareParticipants resolves every participant's origin, computes the
// shared midpoint tiebreaker across all of them, and primes each
// participant's heap. The midpoint is cached once here and reused in the
// hot path.
func PrepareParticipants(idx *schedule.Index, labels []string, origins []Origin, t0 int) ([]*Participant, error) {
	if err := ValidateParticipantCount(len(origins)); err != nil {
		return nil, err
	}

	participants := make([]*Participant, len(origins))
	points := make([]LatLon, len(origins))
	for i, origin := range origins {
		p, err := ResolveParticipant(idx, labels[i], origin, t0)
		if err != nil {
			return nil, err
		}
		participants[i] = p
		points[i] = p.OriginPoint
	}

	mid := Midpoint(points)
	for _, p := range participants {
		p.Seed(mid)
	}
	return participants, nil
}

// ValidateParticipantCount enforces the 2-5 participant bound before any
// search work begins.
func ValidateParticipantCount(n int) error {
	if n < 2 {
		return &Error{Kind: ErrTooFewParticipants, Msg: fmt.Sprintf("need at least 2 participants, got %d", n)}
	}
	if n > MaxParticipants {
		return &Error{Kind: ErrTooManyParticipants, Msg: fmt.Sprintf("at most %d participants, got %d", MaxParticipants, n)}
	}
	return nil
}

// Midpoint returns the simple arithmetic centroid of a set of points, used
// to cache each stop's distance-to-midpoint tiebreaker once at priming.
func Midpoint(points []LatLon) LatLon {
	if len(points) == 0 {
		return LatLon{}
	}
	var sumLat, sumLon float64
	for _, p := range points {
		sumLat += p.Lat
		sumLon += p.Lon
	}
	n := float64(len(points))
	return LatLon{Lat: sumLat / n, Lon: sumLon / n}
}
