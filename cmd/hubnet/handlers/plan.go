package handlers

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/imamik/hubnet/internal/backend"
	"github.com/imamik/hubnet/internal/metrics"
	"github.com/imamik/hubnet/internal/provisioning"
)

// Plan loads and links every unit and prints the provisioning order. With
// showMetrics the collected metrics follow in Prometheus text format.
func Plan(ctx context.Context, opts Options, showMetrics bool) error {
	s, err := newSession(opts)
	if err != nil {
		return err
	}

	pctx, err := s.planned(ctx)
	if err != nil {
		return err
	}

	printTitle(stdout, "hubnet plan: "+s.cfg.Name)
	renderPlan(pctx.State)

	if showMetrics {
		printSection(stdout, "Metrics")
		return metrics.WriteText(stdout)
	}
	return nil
}

func renderPlan(state *provisioning.State) {
	printSection(stdout, "Stacks")
	rows := make([][]string, 0, len(state.Plan.Steps))
	for i, step := range state.Plan.Steps {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			step.Stack,
			orDash(strings.Join(step.After, ", ")),
			strconv.Itoa(len(step.Resources)),
		})
	}
	renderTable(stdout, []string{"#", "Stack", "After", "Resources"}, rows)

	printSection(stdout, "Resources")
	counts := map[backend.Kind]int{}
	for _, res := range state.Plan.Resources() {
		counts[res.Kind]++
	}
	rows = rows[:0]
	for _, kind := range slices.Sorted(maps.Keys(counts)) {
		rows = append(rows, []string{string(kind), strconv.Itoa(counts[kind])})
	}
	renderTable(stdout, []string{"Kind", "Count"}, rows)

	if state.Links != nil {
		printSection(stdout, "Links")
		renderTable(stdout, []string{"Result", "Units"}, [][]string{
			{"linked", orDash(strings.Join(state.Links.Linked, ", "))},
			{"noop", orDash(strings.Join(state.Links.Noop, ", "))},
		})
	}

	if len(state.Warnings) > 0 {
		printSection(stdout, "Warnings")
		rows = rows[:0]
		for _, w := range state.Warnings {
			rows = append(rows, []string{w.Field, w.Message})
		}
		renderTable(stdout, []string{"Field", "Message"}, rows)
	}
}
