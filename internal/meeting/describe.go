package meeting

import (
	"fmt"

	"github.com/passbi/meetpoint/internal/gtfstime"
	"github.com/passbi/meetpoint/internal/models"
	"github.com/passbi/meetpoint/internal/schedule"
)

// DescribeStop renders a stop as a human-readable label: its platform name
// qualified by its station name when they differ, suffixed with its id.
// Supplements the original reference script's fmt_stop_label.
func DescribeStop(idx *schedule.Index, stopID string) string {
	stop, ok := idx.Stop(stopID)
	if !ok {
		return fmt.Sprintf("[%s]", stopID)
	}

	stationName := idx.StationToName(idx.StationOf(stopID))
	if stop.Name != "" && stop.Name != stationName {
		return fmt.Sprintf("%s (%s) [%s]", stop.Name, stationName, stopID)
	}
	if stationName != "" {
		return fmt.Sprintf("%s [%s]", stationName, stopID)
	}
	return fmt.Sprintf("[%s]", stopID)
}

// DescribeStep renders one journey step as a human-readable line for
// debug logs and API responses. Supplements the original reference
// script's describe_action.
func DescribeStep(idx *schedule.Index, step models.StepInfo) string {
	switch step.Mode {
	case models.StepStart:
		return fmt.Sprintf("%s: start at %s at %s", step.Owner, DescribeStop(idx, step.ToStop), gtfstime.FormatHM(step.DepartSec))

	case models.StepWalk:
		from := "address"
		if step.HasFrom {
			from = DescribeStop(idx, step.FromStop)
		}
		return fmt.Sprintf("%s: walk %ds (%s) from %s to %s, arriving %s",
			step.Owner, step.WalkSec, step.Source, from, DescribeStop(idx, step.ToStop), gtfstime.FormatHM(step.ArriveSec))

	case models.StepRide:
		route, _ := idx.RouteInfo(step.RouteID)
		return fmt.Sprintf("%s: ride %s (%s) from %s to %s, wait %ds, ride %ds, arriving %s",
			step.Owner, route.ShortName, models.RouteTypeName(route.RouteType),
			DescribeStop(idx, step.FromStop), DescribeStop(idx, step.ToStop),
			step.WaitSec, step.RideSec, gtfstime.FormatHM(step.ArriveSec))

	default:
		return fmt.Sprintf("%s: unknown step to %s", step.Owner, step.ToStop)
	}
}

// DescribeJourney renders a participant's full path to stopID as a
// sequence of human-readable lines, one per step, in travel order.
func DescribeJourney(idx *schedule.Index, p *Participant, stopID string) []string {
	steps := ReconstructPath(p, stopID)
	lines := make([]string, len(steps))
	for i, step := range steps {
		lines[i] = DescribeStep(idx, step)
	}
	return lines
}
