package meeting

import (
	"github.com/passbi/meetpoint/internal/models"
	"github.com/passbi/meetpoint/internal/schedule"
)

// StopUpdateFunc is the heatmap driver's per-stop-settle callback,
// throttled to every 5000 iterations.
type StopUpdateFunc func(stopID string, entry models.HeatmapEntry)

// HeatmapStats is the heatmap driver's diagnostic payload: the iteration
// count, the termination code, and the count of stops recorded.
type HeatmapStats struct {
	Iterations       int
	TerminationCode  TerminationReason
	TotalStopsReached int
}

const stopUpdateEvery = 5000

// RunHeatmap shares the meeting driver's interleaved loop but never
// terminates on a meeting: it keeps recording, for every stop all
// participants have settled, the best (smallest max_elapsed) tuple seen
// so far, until every heap is empty or the iteration cap is hit.
func RunHeatmap(idx *schedule.Index, participants []*Participant, iterationCap int, onProgress ProgressFunc, onStopUpdate StopUpdateFunc) (map[string]models.HeatmapEntry, HeatmapStats) {
	results := make(map[string]models.HeatmapEntry)
	globalMaxElapsed := 0
	iterations := 0
	lastProgressStep := -1

	for {
		owner, head, found := selectCandidate(participants)
		if !found {
			if onProgress != nil {
				onProgress(100, float64(globalMaxElapsed)/60.0, iterations, len(results))
			}
			return results, HeatmapStats{Iterations: iterations, TerminationCode: ReasonEmptyQueue, TotalStopsReached: len(results)}
		}

		iterations++

		if head.Elapsed > MaxTrip {
			owner.Heap.Pop()
			continue // heatmap mode drops silently, marks nothing
		}

		entry, _ := owner.Heap.Pop()
		step := entry.Payload.(models.StepInfo)
		dst := entry.ToStop
		elapsed := entry.Elapsed

		if prevBest, ok := owner.BestElapsed[dst]; ok && prevBest <= elapsed {
			continue
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

		if updated, entry := recordIfAllReached(idx, participants, dst, results); updated {
			results[dst] = entry
			if onStopUpdate != nil && iterations%stopUpdateEvery == 0 {
				onStopUpdate(dst, entry)
			}
		}

		owner.Expand(idx, dst, step.ArriveSec, elapsed)

		if onProgress != nil {
			growthStep := globalMaxElapsed / 30
			if growthStep != lastProgressStep {
				lastProgressStep = growthStep
				onProgress(progressPercent(globalMaxElapsed), float64(globalMaxElapsed)/60.0, iterations, len(results))
			}
		}

		if iterations >= iterationCap {
			if onProgress != nil {
				onProgress(100, float64(globalMaxElapsed)/60.0, iterations, len(results))
			}
			return results, HeatmapStats{Iterations: iterations, TerminationCode: ReasonIterationLimit, TotalStopsReached: len(results)}
		}
	}
}

// recordIfAllReached checks whether every participant has now settled dst
// and, if so, whether the resulting max_elapsed strictly improves on any
// previously recorded entry for dst.
func recordIfAllReached(idx *schedule.Index, participants []*Participant, dst string, existing map[string]models.HeatmapEntry) (bool, models.HeatmapEntry) {
	total := 0
	max := 0
	per := make(map[string]int, len(participants))

	for _, q := range participants {
		r, ok := q.ReachedFirst[dst]
		if !ok {
			return false, models.HeatmapEntry{}
		}
		per[q.Label] = r.Elapsed
		total += r.Elapsed
		if r.Elapsed > max {
			max = r.Elapsed
		}
	}

	if prev, ok := existing[dst]; ok && prev.MaxElapsed <= max {
		return false, models.HeatmapEntry{}
	}

	stop, _ := idx.Stop(dst)
	return true, models.HeatmapEntry{
		StopID:                dst,
		Lat:                   stop.Lat,
		Lon:                   stop.Lon,
		TotalElapsed:          total,
		MaxElapsed:            max,
		PerParticipantElapsed: per,
	}
}
