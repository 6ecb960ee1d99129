package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/boristopalov/sawyer/pkg/core"
	"github.com/boristopalov/sawyer/pkg/environment"
	"github.com/boristopalov/sawyer/pkg/sim"
)

func newSpacesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "spaces",
		Short: "Print the spaces of the sweep task",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := environment.NewSweep(sim.NewKinematic())
			if err != nil {
				return err
			}
			return renderSpaces(cmd.OutOrStdout(), env)
		},
	}
}

func renderSpaces(w io.Writer, env *environment.Sweep) error {
	table := tablewriter.NewWriter(w)
	table.Header("Space", "Dim", "Low", "High")
	rows := []struct {
		name string
		b    core.Bounds
	}{
		{"action", env.ActionSpace()},
		{"observation", env.ObservationSpace()},
		{"hand", env.HandSpace()},
		{"mocap", env.MocapSpace()},
		{"object", env.ObjSpace()},
		{"goal", env.GoalSpace()},
	}
	for _, r := range rows {
		if err := table.Append(r.name, fmt.Sprint(r.b.Dim()), formatVec(r.b.Lower()), formatVec(r.b.Upper())); err != nil {
			return err
		}
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "max path length: %d\n", env.MaxPathLength())
	return err
}

func formatVec(xs []float64) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprintf("%.2f", x)
	}
	return "[" + strings.Join(parts, " ") + "]"
}
