// Package httpapi binds internal/meeting to HTTP: /v1/meet, /v1/heatmap,
// and /health.
package httpapi

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/passbi/meetpoint/internal/gtfstime"
	"github.com/passbi/meetpoint/internal/meetcache"
	"github.com/passbi/meetpoint/internal/meeting"
	"github.com/passbi/meetpoint/internal/models"
	"github.com/passbi/meetpoint/internal/schedule"
)

// Server holds the dependencies every handler needs: the built schedule
// index and the iteration cap applied to every search.
type Server struct {
	idx          *schedule.Index
	iterationCap int
	cacheTTL     time.Duration
	lockTTL      time.Duration
	lockWait     time.Duration
}

// NewServer constructs a Server bound to a built schedule index.
func NewServer(idx *schedule.Index) *Server {
	return &Server{
		idx:          idx,
		iterationCap: meeting.DefaultIterationCap,
		cacheTTL:     10 * time.Minute,
		lockTTL:      5 * time.Second,
		lockWait:     3 * time.Second,
	}
}

// ParticipantRequest is one entry of a /v1/meet or /v1/heatmap request body:
// either a station query or a geographic address.
type ParticipantRequest struct {
	Label   string  `json:"label"`
	Station string  `json:"station,omitempty"`
	Lat     float64 `json:"lat,omitempty"`
	Lon     float64 `json:"lon,omitempty"`
	Address bool    `json:"address,omitempty"`
}

// MeetRequest is the /v1/meet and /v1/heatmap request body.
type MeetRequest struct {
	T0           string               `json:"t0"` // "HH:MM:SS"
	Participants []ParticipantRequest `json:"participants"`
}

func (r MeetRequest) toOrigins() ([]string, []meeting.Origin) {
	labels := make([]string, len(r.Participants))
	origins := make([]meeting.Origin, len(r.Participants))
	for i, p := range r.Participants {
		labels[i] = p.Label
		if p.Address {
			origins[i] = meeting.Origin{IsAddress: true, Lat: p.Lat, Lon: p.Lon}
		} else {
			origins[i] = meeting.Origin{Query: p.Station}
		}
	}
	return labels, origins
}

// Health reports whether the schedule index has been built.
func (s *Server) Health(c *fiber.Ctx) error {
	status := "healthy"
	httpStatus := 200
	if !s.idx.Built() {
		status = "unhealthy"
		httpStatus = 503
	}
	return c.Status(httpStatus).JSON(fiber.Map{
		"status": status,
		"checks": fiber.Map{"schedule_index": s.idx.Built()},
	})
}

// logStartupTrace prints each participant's resolved station, chosen start
// platform, and initial frontier size before the search loop begins.
func logStartupTrace(participants []*meeting.Participant) {
	for _, p := range participants {
		if p.IsAddress() {
			log.Printf("[DEBUG] Person %s: address origin (%.6f,%.6f) | t0=%d", p.Label, p.OriginPoint.Lat, p.OriginPoint.Lon, p.T0)
		} else {
			log.Printf("[DEBUG] Person %s: station='%s' [%s] | start_stop_id=%s | t0=%d", p.Label, p.StationName, p.StationID, p.StartStopID, p.T0)
		}
		log.Printf("[DEBUG]   initial frontier size=%d", p.Heap.Len())
	}
}

// buildMeetResponse assembles the full /v1/meet response from the driver's
// terminal result, its diagnostics, and each participant's own state.
func buildMeetResponse(idx *schedule.Index, participants []*meeting.Participant, result models.MeetingResult, stats meeting.Stats) models.MeetResponse {
	resp := models.MeetResponse{
		Meeting: result,
		Stats: models.SearchStats{
			Iterations:        stats.Iterations,
			TotalVisitedNodes: stats.TotalVisitedNodes,
			MaxElapsedSec:     stats.MaxElapsedSec,
			TerminationCode:   string(stats.TerminationCode),
			QueueSizes:        stats.QueueSizes,
		},
		Participants: make([]models.ParticipantResult, len(participants)),
	}

	for i, p := range participants {
		pr := models.ParticipantResult{
			Label:        p.Label,
			T0:           p.T0,
			ReachedFirst: make(map[string]models.ReachedStop, len(p.ReachedFirst)),
		}
		if p.IsAddress() {
			pr.AddressCoords = &models.AddressCoords{Lat: p.OriginPoint.Lat, Lon: p.OriginPoint.Lon}
		} else {
			pr.StartStopID = p.StartStopID
		}
		for stopID, r := range p.ReachedFirst {
			pr.ReachedFirst[stopID] = models.ReachedStop{ArriveSec: r.ArriveSec, Elapsed: r.Elapsed}
		}
		if result.Status == models.MeetingOK {
			pr.Journey = meeting.DescribeJourney(idx, p, result.StopID)
		}
		resp.Participants[i] = pr
	}

	return resp
}

// Meet handles POST /v1/meet: find the first station at which every
// participant can be present.
func (s *Server) Meet(c *fiber.Ctx) error {
	var req MeetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "MALFORMED_BODY", "message": err.Error()})
	}

	t0, ok := gtfstime.ToSeconds(req.T0)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "MALFORMED_TIME", "message": "t0 must be HH:MM:SS"})
	}

	labels, origins := req.toOrigins()

	cacheKey := meetcache.Key(meetcache.Query{Mode: "meet", T0: t0, Origins: origins})
	ctx := c.Context()
	if cached, err := meetcache.GetMeeting(ctx, cacheKey); err == nil && cached != nil {
		return c.JSON(cached)
	}

	lockKey := meetcache.LockKey(cacheKey)
	acquired, err := meetcache.AcquireLock(ctx, lockKey, s.lockTTL)
	if err != nil {
		log.Printf("failed to acquire meeting lock: %v", err)
	} else if !acquired {
		if cached, err := meetcache.WaitForMeeting(ctx, cacheKey, s.lockWait); err == nil && cached != nil {
			return c.JSON(cached)
		}
	}
	if acquired {
		defer meetcache.ReleaseLock(ctx, lockKey)
	}

	participants, err := meeting.PrepareParticipants(s.idx, labels, origins, t0)
	if err != nil {
		return writeSearchError(c, err)
	}
	logStartupTrace(participants)

	result, stats := meeting.RunMeeting(participants, s.iterationCap, nil, func(percent, exploredMinutes float64, iterations, stopsFound int) {
		log.Printf("[PROGRESS] meet %.1f%% explored=%.1fmin iterations=%d stops=%d", percent, exploredMinutes, iterations, stopsFound)
	})

	response := buildMeetResponse(s.idx, participants, result, stats)

	if err := meetcache.SetMeeting(ctx, cacheKey, &response, s.cacheTTL); err != nil {
		log.Printf("failed to cache meeting result: %v", err)
	}

	return c.JSON(response)
}

// Heatmap handles POST /v1/heatmap: enumerate every station every
// participant can reach, along with each one's fairness metrics.
func (s *Server) Heatmap(c *fiber.Ctx) error {
	var req MeetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "MALFORMED_BODY", "message": err.Error()})
	}

	t0, ok := gtfstime.ToSeconds(req.T0)
	if !ok {
		return c.Status(400).JSON(fiber.Map{"error": "MALFORMED_TIME", "message": "t0 must be HH:MM:SS"})
	}

	labels, origins := req.toOrigins()

	cacheKey := meetcache.Key(meetcache.Query{Mode: "heatmap", T0: t0, Origins: origins})
	ctx := c.Context()
	if cached, err := meetcache.GetHeatmap(ctx, cacheKey); err == nil && cached != nil {
		return c.JSON(fiber.Map{"stops": cached})
	}

	lockKey := meetcache.LockKey(cacheKey)
	acquired, err := meetcache.AcquireLock(ctx, lockKey, s.lockTTL)
	if err != nil {
		log.Printf("failed to acquire heatmap lock: %v", err)
	} else if !acquired {
		if cached, err := meetcache.WaitForHeatmap(ctx, cacheKey, s.lockWait); err == nil && cached != nil {
			return c.JSON(fiber.Map{"stops": cached})
		}
	}
	if acquired {
		defer meetcache.ReleaseLock(ctx, lockKey)
	}

	participants, err := meeting.PrepareParticipants(s.idx, labels, origins, t0)
	if err != nil {
		return writeSearchError(c, err)
	}
	logStartupTrace(participants)

	entries, stats := meeting.RunHeatmap(s.idx, participants, s.iterationCap,
		func(percent, exploredMinutes float64, iterations, stopsFound int) {
			log.Printf("[PROGRESS] heatmap %.1f%% explored=%.1fmin iterations=%d stops=%d", percent, exploredMinutes, iterations, stopsFound)
		}, nil)
	log.Printf("heatmap finished: %d stops reached, %d iterations, reason=%s", stats.TotalStopsReached, stats.Iterations, stats.TerminationCode)

	if err := meetcache.SetHeatmap(ctx, cacheKey, entries, s.cacheTTL); err != nil {
		log.Printf("failed to cache heatmap result: %v", err)
	}

	return c.JSON(fiber.Map{"stops": entries})
}

// writeSearchError maps the engine's typed errors to HTTP responses.
func writeSearchError(c *fiber.Ctx, err error) error {
	switch e := err.(type) {
	case *schedule.Error:
		return c.Status(404).JSON(fiber.Map{"error": string(e.Kind), "message": e.Msg})
	case *meeting.Error:
		return c.Status(422).JSON(fiber.Map{"error": string(e.Kind), "message": e.Msg})
	default:
		return c.Status(500).JSON(fiber.Map{"error": "INTERNAL", "message": fmt.Sprintf("%v", err)})
	}
}
