package meeting

import (
	"github.com/passbi/meetpoint/internal/models"
	"github.com/passbi/meetpoint/internal/pqueue"
)

// TerminationReason is the diagnostic code attached to a search's Stats
// when it did not end in a clean meeting.
type TerminationReason string

const (
	ReasonNone           TerminationReason = ""
	ReasonEmptyQueue     TerminationReason = "EMPTY_QUEUE"
	ReasonIterationLimit TerminationReason = "ITERATION_LIMIT"
	ReasonCancelled      TerminationReason = "CANCELLED"
)

// Stats carries the diagnostic payload attached to every search, successful
// or not.
type Stats struct {
	Iterations        int
	TotalVisitedNodes int
	MaxElapsedSec     int
	TerminationCode   TerminationReason
	QueueSizes        []int
}

// ProgressFunc is the search driver's throttled progress callback, shared
// by the meeting and heatmap variants.
type ProgressFunc func(percent float64, exploredMinutes float64, iterations int, stopsFound int)

// queueSizes snapshots each participant's current heap length, in
// participant order, for Stats.QueueSizes.
func queueSizes(participants []*Participant) []int {
	sizes := make([]int, len(participants))
	for i, p := range participants {
		sizes[i] = p.Heap.Len()
	}
	return sizes
}

// selectCandidate scans every participant's heap head and returns the one
// with the smallest key, compared by (Elapsed, ArrivalAbs, DistMid,
// ToStop). Per-heap insertion counters are not compared across
// participants: when two heads have fully equal keys, the participant that
// comes first in the slice wins.
func selectCandidate(participants []*Participant) (*Participant, pqueue.Entry, bool) {
	var best *Participant
	var bestEntry pqueue.Entry
	found := false

	for _, p := range participants {
		e, ok := p.Heap.Peek()
		if !ok {
			continue
		}
		if !found || lessEntry(e, bestEntry) {
			best, bestEntry, found = p, e, true
		}
	}
	return best, bestEntry, found
}

func lessEntry(a, b pqueue.Entry) bool {
	if a.Elapsed != b.Elapsed {
		return a.Elapsed < b.Elapsed
	}
	if a.ArrivalAbs != b.ArrivalAbs {
		return a.ArrivalAbs < b.ArrivalAbs
	}
	if a.DistMid != b.DistMid {
		return a.DistMid < b.DistMid
	}
	return a.ToStop < b.ToStop
}

// RunMeeting drives the interleaved multi-source search to the first stop
// every participant settles. iterationCap bounds the safety loop; cancel,
// if non-nil, is polled once per iteration. onProgress, if non-nil,
// receives the same throttled trace the heatmap driver does.
func RunMeeting(participants []*Participant, iterationCap int, cancel <-chan struct{}, onProgress ProgressFunc) (models.MeetingResult, Stats) {
	globalMaxElapsed := 0
	capExceeded := false
	capParticipant := ""
	iterations := 0
	visited := 0
	lastProgressStep := -1

	for {
		if cancel != nil {
			select {
			case <-cancel:
				return models.MeetingResult{Status: models.MeetingNone, Reason: string(ReasonCancelled)},
					Stats{Iterations: iterations, TotalVisitedNodes: visited, MaxElapsedSec: globalMaxElapsed, TerminationCode: ReasonCancelled, QueueSizes: queueSizes(participants)}
			default:
			}
		}

		owner, head, found := selectCandidate(participants)
		if !found {
			reason := ReasonEmptyQueue
			stats := Stats{Iterations: iterations, TotalVisitedNodes: visited, MaxElapsedSec: globalMaxElapsed, TerminationCode: reason, QueueSizes: queueSizes(participants)}
			if capExceeded {
				return models.MeetingResult{Status: models.MeetingCapExceeded, Participant: capParticipant}, stats
			}
			return models.MeetingResult{Status: models.MeetingNone, Reason: string(reason)}, stats
		}

		iterations++

		if head.Elapsed > MaxTrip {
			owner.Heap.Pop()
			capExceeded = true
			capParticipant = owner.Label
			continue
		}

		entry, _ := owner.Heap.Pop()
		step := entry.Payload.(models.StepInfo)
		dst := entry.ToStop
		elapsed := entry.Elapsed

		if prevBest, ok := owner.BestElapsed[dst]; ok && prevBest <= elapsed {
			continue // stale/dominated relaxation
		}
		owner.BestElapsed[dst] = elapsed

		if step.Mode != models.StepStart {
			owner.Parent[dst] = ParentEntry{From: step.FromStop, HasFrom: step.HasFrom, Step: step}
		}

		if prev, ok := owner.ReachedFirst[dst]; !ok || elapsed < prev.Elapsed {
			owner.ReachedFirst[dst] = ReachedEntry{ArriveSec: step.ArriveSec, Elapsed: elapsed}
		}

		if elapsed > globalMaxElapsed {
			globalMaxElapsed = elapsed
		}
		visited++

		allReached := true
		for _, q := range participants {
			if _, ok := q.ReachedFirst[dst]; !ok {
				allReached = false
				break
			}
		}
		if allReached {
			stats := Stats{Iterations: iterations, TotalVisitedNodes: visited, MaxElapsedSec: globalMaxElapsed, TerminationCode: ReasonNone, QueueSizes: queueSizes(participants)}
			return models.MeetingResult{Status: models.MeetingOK, StopID: dst}, stats
		}

		owner.Expand(owner.idx, dst, step.ArriveSec, elapsed)

		if onProgress != nil {
			growthStep := globalMaxElapsed / 30 // 0.5-minute growth steps
			if growthStep != lastProgressStep {
				lastProgressStep = growthStep
				onProgress(progressPercent(globalMaxElapsed), float64(globalMaxElapsed)/60.0, iterations, visited)
			}
		}

		if iterations >= iterationCap {
			stats := Stats{Iterations: iterations, TotalVisitedNodes: visited, MaxElapsedSec: globalMaxElapsed, TerminationCode: ReasonIterationLimit, QueueSizes: queueSizes(participants)}
			return models.MeetingResult{Status: models.MeetingNone, Reason: string(ReasonIterationLimit)}, stats
		}
	}
}

func progressPercent(globalMaxElapsed int) float64 {
	pct := float64(globalMaxElapsed) / float64(MaxTrip) * 100
	if pct > 100 {
		pct = 100
	}
	return pct
}
