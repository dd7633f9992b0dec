package pqueue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPopOrdersByElapsedThenInsertion(t *testing.T) {
	q := New()
	q.Push(Entry{Elapsed: 50, ToStop: "B"})
	q.Push(Entry{Elapsed: 10, ToStop: "A"})
	q.Push(Entry{Elapsed: 10, ToStop: "A"}) // same full key as above, pushed after

	e1, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "A", e1.ToStop)

	e2, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "A", e2.ToStop)
	assert.Greater(t, e2.seq, e1.seq)

	e3, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "B", e3.ToStop)
}

func TestPopBreaksTiesByArrivalAbsThenDistMidThenToStop(t *testing.T) {
	q := New()
	q.Push(Entry{Elapsed: 10, ArrivalAbs: 100, DistMid: 5, ToStop: "Z"})
	q.Push(Entry{Elapsed: 10, ArrivalAbs: 50, DistMid: 9, ToStop: "A"})
	q.Push(Entry{Elapsed: 10, ArrivalAbs: 50, DistMid: 1, ToStop: "B"})

	e1, _ := q.Pop()
	assert.Equal(t, "B", e1.ToStop) // ArrivalAbs 50 ties with A, DistMid 1 < 9

	e2, _ := q.Pop()
	assert.Equal(t, "A", e2.ToStop)

	e3, _ := q.Pop()
	assert.Equal(t, "Z", e3.ToStop)
}

func TestPopEmptyQueue(t *testing.T) {
	q := New()
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestPeekDoesNotRemove(t *testing.T) {
	q := New()
	q.Push(Entry{Elapsed: 5, ToStop: "X"})

	peeked, ok := q.Peek()
	require.True(t, ok)
	assert.Equal(t, "X", peeked.ToStop)
	assert.Equal(t, 1, q.Len())

	popped, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "X", popped.ToStop)
	assert.Equal(t, 0, q.Len())
}

func TestLenTracksPushAndPop(t *testing.T) {
	q := New()
	assert.Equal(t, 0, q.Len())
	q.Push(Entry{Elapsed: 1, ToStop: "A"})
	q.Push(Entry{Elapsed: 2, ToStop: "B"})
	assert.Equal(t, 2, q.Len())
	_, _ = q.Pop()
	assert.Equal(t, 1, q.Len())
}

func TestManyEqualKeyPopsInInsertionOrder(t *testing.T) {
	q := New()
	for i := 0; i < 20; i++ {
		q.Push(Entry{Elapsed: 100, ToStop: "same"})
	}
	prevSeq := -1
	for i := 0; i < 20; i++ {
		e, ok := q.Pop()
		require.True(t, ok)
		assert.Greater(t, e.seq, prevSeq)
		prevSeq = e.seq
	}
}

func TestPayloadRoundTrips(t *testing.T) {
	q := New()
	q.Push(Entry{Elapsed: 1, ToStop: "A", Payload: "hello"})
	e, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, "hello", e.Payload)
}
