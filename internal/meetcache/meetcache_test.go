package meetcache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/passbi/meetpoint/internal/meeting"
)

func TestKeyIsDeterministic(t *testing.T) {
	q := Query{
		Mode: "meet",
		T0:   36000,
		Origins: []meeting.Origin{
			{Query: "Central Station"},
			{IsAddress: true, Lat: 59.91, Lon: 10.75},
		},
	}

	assert.Equal(t, Key(q), Key(q))
}

func TestKeyIgnoresOriginOrder(t *testing.T) {
	a := Query{Mode: "meet", T0: 100, Origins: []meeting.Origin{{Query: "A"}, {Query: "B"}}}
	b := Query{Mode: "meet", T0: 100, Origins: []meeting.Origin{{Query: "B"}, {Query: "A"}}}

	assert.Equal(t, Key(a), Key(b))
}

func TestKeyDistinguishesModeAndTime(t *testing.T) {
	base := Query{Mode: "meet", T0: 100, Origins: []meeting.Origin{{Query: "A"}, {Query: "B"}}}
	otherMode := Query{Mode: "heatmap", T0: 100, Origins: base.Origins}
	otherTime := Query{Mode: "meet", T0: 200, Origins: base.Origins}

	assert.NotEqual(t, Key(base), Key(otherMode))
	assert.NotEqual(t, Key(base), Key(otherTime))
}

func TestLockKeyWrapsCacheKey(t *testing.T) {
	assert.Equal(t, "lock:meet:abc", LockKey("meet:abc"))
}
