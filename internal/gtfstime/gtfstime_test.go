package gtfstime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToSeconds(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantSec int
		wantOK  bool
	}{
		{"midnight", "00:00:00", 0, true},
		{"typical", "13:05:09", 13*3600 + 5*60 + 9, true},
		{"past midnight service day", "25:30:00", 25*3600 + 30*60, true},
		{"empty", "", 0, false},
		{"malformed missing seconds", "13:05", 0, false},
		{"malformed letters", "ab:cd:ef", 0, false},
		{"malformed minute width", "1:2:03", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sec, ok := ToSeconds(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantSec, sec)
			}
		})
	}
}

func TestFormatHM(t *testing.T) {
	assert.Equal(t, "00:00", FormatHM(0))
	assert.Equal(t, "13:05", FormatHM(13*3600+5*60+9))
	assert.Equal(t, "25:30", FormatHM(25*3600+30*60))
}

func TestRoundTripTruncatesToMinutes(t *testing.T) {
	sec, ok := ToSeconds("08:17:42")
	assert.True(t, ok)
	assert.Equal(t, "08:17", FormatHM(sec))
}

func TestHaversineZeroDistance(t *testing.T) {
	d := Haversine(52.5, 13.4, 52.5, 13.4)
	assert.InDelta(t, 0, d, 1e-6)
}

func TestHaversineKnownDistance(t *testing.T) {
	// Roughly 111km per degree of latitude at the equator.
	d := Haversine(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 200)
}

func TestCellForBuckets(t *testing.T) {
	a := CellFor(52.501, 13.402)
	b := CellFor(52.502, 13.403)
	assert.Equal(t, a, b)

	c := CellFor(52.501, 13.402)
	d := CellFor(52.501+DLAT, 13.402)
	assert.NotEqual(t, c, d)
}
