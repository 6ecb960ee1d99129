package experiment

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// RenderSummary prints one row per episode followed by the aggregate.
func RenderSummary(w io.Writer, episodes []EpisodeStats) error {
	table := tablewriter.NewWriter(w)
	table.Header("Episode", "Worker", "Return", "Length", "Final Goal Dist", "Min Reach Dist", "Success")
	for _, ep := range episodes {
		if err := table.Append(
			strconv.Itoa(ep.Episode),
			strconv.Itoa(ep.Worker),
			fmt.Sprintf("%.2f", ep.Return),
			strconv.Itoa(ep.Length),
			fmt.Sprintf("%.4f", ep.FinalGoalDist),
			fmt.Sprintf("%.4f", ep.MinReachDist),
			yesNo(ep.Success),
		); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}

	s := Summarize(episodes)
	summary := tablewriter.NewWriter(w)
	summary.Header("Episodes", "Mean Return", "Std Return", "Mean Length", "Success Rate", "Mean Final Goal Dist")
	if err := summary.Append(
		strconv.Itoa(s.Episodes),
		fmt.Sprintf("%.2f", s.MeanReturn),
		fmt.Sprintf("%.2f", s.StdReturn),
		fmt.Sprintf("%.1f", s.MeanLength),
		fmt.Sprintf("%.0f%%", 100*s.SuccessRate),
		fmt.Sprintf("%.4f", s.MeanFinalGoalDist),
	); err != nil {
		return err
	}
	return summary.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
