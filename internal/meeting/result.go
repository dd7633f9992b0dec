package meeting

import "github.com/passbi/meetpoint/internal/models"

// ReconstructPath walks a participant's parent chain backward from stopID
// to its origin, returning the steps in forward (origin-to-stopID) order.
func ReconstructPath(p *Participant, stopID string) []models.StepInfo {
	var reversed []models.StepInfo

	cur := stopID
	for {
		entry, ok := p.Parent[cur]
		if !ok {
			break // reached a START-seeded origin, which has no parent entry
		}
		reversed = append(reversed, entry.Step)
		if !entry.HasFrom {
			break // address-seeded WALK: from_stop is the virtual origin
		}
		cur = entry.From
	}

	steps := make([]models.StepInfo, len(reversed))
	for i, s := range reversed {
		steps[len(reversed)-1-i] = s
	}
	return steps
}

// MeetingSummary is the per-stop meeting-mode result: the wall-clock
// instant every participant was present, each participant's travel time,
// and the fairness gap between them.
type MeetingSummary struct {
	StopID                string
	MeetSec               int
	PerParticipantElapsed map[string]int
	FairnessGap           int
}

// BuildMeetingSummary computes the meeting summary for a stop every
// participant has settled.
func BuildMeetingSummary(participants []*Participant, stopID string) MeetingSummary {
	summary := MeetingSummary{StopID: stopID, PerParticipantElapsed: make(map[string]int, len(participants))}

	maxArrive := 0
	minElapsed := -1
	maxElapsed := 0
	for _, p := range participants {
		r := p.ReachedFirst[stopID]
		summary.PerParticipantElapsed[p.Label] = r.Elapsed
		if r.ArriveSec > maxArrive {
			maxArrive = r.ArriveSec
		}
		if minElapsed == -1 || r.Elapsed < minElapsed {
			minElapsed = r.Elapsed
		}
		if r.Elapsed > maxElapsed {
			maxElapsed = r.Elapsed
		}
	}
	summary.MeetSec = maxArrive
	summary.FairnessGap = maxElapsed - minElapsed
	return summary
}
