package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/passbi/meetpoint/internal/gtfsfeed"
	"github.com/passbi/meetpoint/internal/models"
	"github.com/passbi/meetpoint/internal/schedule"
)

func buildTestIndex() *schedule.Index {
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
		Routes: []gtfsfeed.RouteRow{
			{RouteID: "R1", ShortName: "1", RouteType: 3},
		},
	}
	idx := schedule.New()
	idx.Build(feed)
	return idx
}

func newApp(s *Server) *fiber.App {
	app := fiber.New()
	app.Get("/health", s.Health)
	app.Post("/v1/meet", s.Meet)
	app.Post("/v1/heatmap", s.Heatmap)
	return app
}

func TestHealthReportsBuiltIndex(t *testing.T) {
	s := NewServer(buildTestIndex())
	app := newApp(s)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
}

func TestHealthReportsUnbuiltIndex(t *testing.T) {
	s := NewServer(schedule.New())
	app := newApp(s)

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestMeetRejectsMalformedTime(t *testing.T) {
	s := NewServer(buildTestIndex())
	app := newApp(s)

	body, _ := json.Marshal(MeetRequest{
		T0:           "not-a-time",
		Participants: []ParticipantRequest{{Label: "A", Station: "A"}, {Label: "B", Station: "B"}},
	})
	req := httptest.NewRequest("POST", "/v1/meet", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 400, resp.StatusCode)
}

func TestMeetRejectsTooFewParticipants(t *testing.T) {
	s := NewServer(buildTestIndex())
	app := newApp(s)

	body, _ := json.Marshal(MeetRequest{
		T0:           "10:00:00",
		Participants: []ParticipantRequest{{Label: "A", Station: "A"}},
	})
	req := httptest.NewRequest("POST", "/v1/meet", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 422, resp.StatusCode)
}

func TestMeetFindsMeetingPoint(t *testing.T) {
	s := NewServer(buildTestIndex())
	app := newApp(s)

	body, _ := json.Marshal(MeetRequest{
		T0: "10:00:00",
		Participants: []ParticipantRequest{
			{Label: "rider-a", Station: "A"},
			{Label: "rider-b", Station: "B"},
		},
	})
	req := httptest.NewRequest("POST", "/v1/meet", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var result models.MeetResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, models.MeetingOK, result.Meeting.Status)
	assert.Equal(t, "M", result.Meeting.StopID)
	require.Len(t, result.Participants, 2)
	for _, p := range result.Participants {
		assert.Contains(t, p.ReachedFirst, "M")
	}
}
